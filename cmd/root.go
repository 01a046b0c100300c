// Package cmd defines and implements the CLI commands for the hirewatch
// executable.
package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/talentsignal/hirewatch/internal/clock"
	"github.com/talentsignal/hirewatch/internal/config"
	"github.com/talentsignal/hirewatch/internal/crawl"
	"github.com/talentsignal/hirewatch/internal/dedup"
	"github.com/talentsignal/hirewatch/internal/extract"
	"github.com/talentsignal/hirewatch/internal/fetcher"
	"github.com/talentsignal/hirewatch/internal/logging"
	"github.com/talentsignal/hirewatch/internal/policy/ratelimit"
	"github.com/talentsignal/hirewatch/internal/policy/robots"
	"github.com/talentsignal/hirewatch/internal/profile"
	"github.com/talentsignal/hirewatch/internal/store/memory"
	"github.com/talentsignal/hirewatch/internal/store/postgres"
)

var cfgFile string

// app bundles the wired services a command needs.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	store   crawl.Store
	scraper *crawl.Scraper
	clk     clock.Clock
	close   func()
}

// buildApp wires the full politeness-gated scraping stack from config.
func buildApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	clk := clock.System{}

	var (
		store      crawl.Store
		closeStore = func() {}
	)
	if cfg.Database.DSN != "" {
		pg, err := postgres.New(ctx, postgres.Config{
			DSN:      cfg.Database.DSN,
			MaxConns: cfg.Database.MaxConns,
			MinConns: cfg.Database.MinConns,
		})
		if err != nil {
			return nil, err
		}
		store = pg
		closeStore = pg.Close
		logger.Info("using postgres store")
	} else {
		store = memory.New()
		logger.Info("using in-memory store")
	}

	limiter := ratelimit.New(ratelimit.Config{
		MinDelay:          cfg.RateLimit.MinDelay(),
		MaxDelay:          cfg.RateLimit.MaxDelay(),
		RequestsPerDomain: cfg.RateLimit.RequestsPerDomain,
		Window:            cfg.RateLimit.Window(),
		BackoffMultiplier: cfg.RateLimit.BackoffMultiplier,
		MaxBackoff:        cfg.RateLimit.MaxBackoff(),
	}, clk)

	robotsCache := robots.New(robots.Config{
		UserAgent:    cfg.Crawler.UserAgent,
		TTL:          cfg.Robots.TTL(),
		FetchTimeout: cfg.Robots.FetchTimeout(),
	}, clk, logger)

	httpFetcher := fetcher.New(fetcher.Config{
		UserAgent:    cfg.Crawler.UserAgent,
		Timeout:      cfg.Crawler.RequestTimeout(),
		MaxBodyBytes: cfg.Crawler.MaxBodyBytes,
	}, robotsCache, limiter, logger)

	pipeline, err := extract.NewPipeline(extract.Options{})
	if err != nil {
		return nil, fmt.Errorf("init extraction pipeline: %w", err)
	}
	scraper := crawl.NewScraper(httpFetcher, pipeline, clk, logger)

	startMetricsListener(cfg.Metrics.Addr, logger)

	return &app{
		cfg:     cfg,
		logger:  logger,
		store:   store,
		scraper: scraper,
		clk:     clk,
		close: func() {
			closeStore()
			_ = logger.Sync()
		},
	}, nil
}

// newRunner builds the crawl orchestrator on top of an app.
func (a *app) newRunner() *crawl.Runner {
	dd := dedup.New(dedup.Config{
		Blocklist:         a.cfg.Dedup.Blocklist,
		BlocklistPatterns: a.cfg.Dedup.BlocklistPatterns,
	})
	aggregator := profile.NewAggregator(a.store, a.clk, a.logger)
	return crawl.NewRunner(a.store, a.scraper, aggregator, dd, a.clk, a.logger, crawl.RunnerConfig{
		Workers:           a.cfg.Crawler.Workers,
		MaxPagesPerDomain: a.cfg.Crawler.MaxPagesPerDomain,
		CareersPaths:      a.cfg.Crawler.CareersPaths,
	})
}

// startMetricsListener exposes /metrics when an address is configured.
func startMetricsListener(addr string, logger *zap.Logger) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("metrics listener started", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Warn("metrics listener stopped", zap.Error(err))
		}
	}()
}

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hirewatch",
		Short: "A polite crawler that watches company sites for hiring signals.",
		Long: `hirewatch discovers company career pages, extracts hiring signals
(job titles, tech keywords, remote indicators, contact addresses) into
per-company profiles, and monitors tracked pages for changes over time.
Every request passes a robots.txt check and a per-domain rate limiter.`,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: built-in defaults plus HIREWATCH_* env)")

	cmd.AddCommand(newCrawlCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newDomainsCmd())
	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
