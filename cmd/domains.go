package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/talentsignal/hirewatch/internal/config"
	"github.com/talentsignal/hirewatch/internal/crawl"
	"github.com/talentsignal/hirewatch/internal/dedup"
)

// newDomainsCmd creates and configures the 'domains' subcommand.
func newDomainsCmd() *cobra.Command {
	var seedFile string

	cmd := &cobra.Command{
		Use:   "domains [domain ...]",
		Short: "Inspects a seed list without crawling",
		Long: `Canonicalizes each seed to its registrable root domain, applies the
configured blocklist, and flags near-duplicate names (acme.io next to
acme.com) for manual review. No network requests are made.`,
		RunE: func(_ *cobra.Command, args []string) error {
			return runDomainsCommand(seedFile, args)
		},
	}
	cmd.Flags().StringVar(&seedFile, "seeds", "", "file with one seed domain per line (# comments allowed)")
	return cmd
}

func runDomainsCommand(seedFile string, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	seeds := append([]string(nil), args...)
	if seedFile != "" {
		fromFile, err := crawl.ReadSeedFile(seedFile)
		if err != nil {
			return err
		}
		seeds = append(seeds, fromFile...)
	}
	if len(seeds) == 0 {
		return errors.New("no seed domains: pass arguments or --seeds")
	}

	dd := dedup.New(dedup.Config{
		Blocklist:         cfg.Dedup.Blocklist,
		BlocklistPatterns: cfg.Dedup.BlocklistPatterns,
	})
	for _, seed := range seeds {
		info := dedup.Canonicalize(seed)
		result := dd.Add(seed)
		fmt.Printf("%-12s %s", result, info.Root)
		if info.Subdomain != "" {
			fmt.Printf(" (from %s)", info.Original)
		}
		fmt.Println()
	}

	unique := dd.Seen()
	fmt.Printf("\n%d unique domains from %d seeds\n", len(unique), len(seeds))

	pairs := dedup.FindSimilar(unique, cfg.Dedup.SimilarityThreshold)
	for _, pair := range pairs {
		fmt.Printf("similar: %s ~ %s (%d%%)\n", pair.A, pair.B, pair.Score)
	}
	return nil
}
