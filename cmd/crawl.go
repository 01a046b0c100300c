package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/talentsignal/hirewatch/internal/crawl"
)

// newCrawlCmd creates and configures the 'crawl' subcommand.
func newCrawlCmd() *cobra.Command {
	var seedFile string

	cmd := &cobra.Command{
		Use:   "crawl [domain ...]",
		Short: "Crawls company domains for hiring signals",
		Long: `Deduplicates the given seed domains, then politely crawls each new
one: a careers-page probe, the homepage and the about page. Extracted
signals are merged into per-company profiles.

Seeds come from arguments, from --seeds, or from both.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCrawlCommand(cmd.Context(), seedFile, args)
		},
	}
	cmd.Flags().StringVar(&seedFile, "seeds", "", "file with one seed domain per line (# comments allowed)")
	return cmd
}

func runCrawlCommand(ctx context.Context, seedFile string, args []string) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	a, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	summary, err := a.newRunner().Run(ctx, seeds)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("crawl run: %w", err)
	}

	fmt.Printf("domains: %d added, %d duplicate, %d blocklisted, %d invalid\n",
		summary.Dedup.Added, summary.Dedup.Duplicate, summary.Dedup.Blocked, summary.Dedup.Invalid)
	fmt.Printf("crawled: %d scraped, %d robots-blocked, %d errored, %d pages\n",
		summary.Scraped, summary.Blocked, summary.Errored, summary.Pages)
	return nil
}
