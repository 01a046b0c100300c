package cmd

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/talentsignal/hirewatch/internal/crawl"
	"github.com/talentsignal/hirewatch/internal/monitor"
)

// newWatchCmd creates and configures the 'watch' subcommand.
func newWatchCmd() *cobra.Command {
	var (
		seedFile string
		once     bool
	)

	cmd := &cobra.Command{
		Use:   "watch [domain ...]",
		Short: "Monitors tracked domains for changes",
		Long: `Re-scrapes each tracked domain's primary page on a cron schedule and
records content changes, listing additions and removals, new hiring
signals, and hiring-score movements. Runs until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatchCommand(cmd.Context(), seedFile, args, once)
		},
	}
	cmd.Flags().StringVar(&seedFile, "seeds", "", "file with one domain per line (# comments allowed)")
	cmd.Flags().BoolVar(&once, "once", false, "run one detection pass and exit")
	return cmd
}

func runWatchCommand(ctx context.Context, seedFile string, args []string, once bool) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	domains := append([]string(nil), args...)
	if seedFile != "" {
		fromFile, err := crawl.ReadSeedFile(seedFile)
		if err != nil {
			return err
		}
		domains = append(domains, fromFile...)
	}
	if len(domains) == 0 {
		return errors.New("no domains to watch: pass arguments or --seeds")
	}

	a, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	detector := monitor.New(a.store, a.scraper, a.clk, a.logger, a.cfg.Monitor.ScoreThreshold)
	if once {
		_, err := detector.Run(ctx, domains)
		return err
	}

	watcher := monitor.NewWatcher(detector, a.logger)
	err = watcher.Watch(ctx, a.cfg.Monitor.Schedule, domains)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
