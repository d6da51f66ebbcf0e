package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/leadhunt/ytleads/internal/checkpoint"
	"github.com/leadhunt/ytleads/internal/collector"
	"github.com/leadhunt/ytleads/internal/config"
	"github.com/leadhunt/ytleads/internal/domain"
	"github.com/leadhunt/ytleads/internal/ingest"
	"github.com/leadhunt/ytleads/internal/scan"
	"github.com/leadhunt/ytleads/internal/storage"
)

func main() {
	godotenv.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := newRootCmd(logger).Execute(); err != nil {
		logger.Error("scan failed", "error", err)
		os.Exit(1)
	}
}

func newRootCmd(logger *slog.Logger) *cobra.Command {
	var (
		settingsPath   string
		keywordsPath   string
		minSubs        int64
		maxSubs        int64
		inactivityDays int
	)

	cmd := &cobra.Command{
		Use:   "scraper",
		Short: "Find YouTube channel leads by keyword and record them in a Google Sheet",
		Long: "scraper searches YouTube for channels matching the given keywords, keeps " +
			"those within the subscriber range that list a contact email and an allowed " +
			"country, and appends them to the configured Google Sheet. Progress is " +
			"checkpointed so an interrupted scan resumes where it left off.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), logger, settingsPath, keywordsPath, domain.ScanParams{
				MinSubs:        minSubs,
				MaxSubs:        maxSubs,
				InactivityDays: inactivityDays,
			})
		},
	}

	cmd.Flags().StringVar(&settingsPath, "settings", "", "settings file (default: user config dir)")
	cmd.Flags().StringVar(&keywordsPath, "keywords", "input/keywords.csv", "CSV file with one keyword per row")
	cmd.Flags().Int64Var(&minSubs, "min-subs", 1000, "minimum subscriber count")
	cmd.Flags().Int64Var(&maxSubs, "max-subs", 500000, "maximum subscriber count")
	cmd.Flags().IntVar(&inactivityDays, "inactivity-days", 0, "maximum days since last upload (accepted, not yet enforced)")

	return cmd
}

func run(ctx context.Context, logger *slog.Logger, settingsPath, keywordsPath string, params domain.ScanParams) error {
	settings, err := config.Load(settingsPath)
	if err != nil {
		return err
	}
	if err := settings.Validate(); err != nil {
		return err
	}

	params.Keywords, err = ingest.LoadKeywords(keywordsPath)
	if err != nil {
		return fmt.Errorf("load keywords: %w", err)
	}
	if len(params.Keywords) == 0 {
		return fmt.Errorf("no keywords found in %s", keywordsPath)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// First signal asks the scan to stop at the next page boundary;
	// a second one aborts in-flight calls.
	var stopRequested atomic.Bool
	sigChan := make(chan os.Signal, 2)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("stop requested, finishing current page")
		stopRequested.Store(true)
		<-sigChan
		logger.Info("second signal received, aborting")
		cancel()
	}()

	coll, err := collector.NewCollector(ctx, settings.APIKeys, logger)
	if err != nil {
		return err
	}
	sink, err := storage.NewSheetWriter(ctx, settings.ServiceAccountFile, settings.SheetID, settings.SheetName, logger)
	if err != nil {
		return err
	}

	runner := &scan.Runner{
		Collector:   coll,
		Sink:        sink,
		Checkpoints: &checkpoint.Store{Path: settings.CheckpointFile, Logger: logger},
		Filters:     settings.FilterConfig(),
		Workers:     settings.Workers,
		Logger:      logger,
		ShouldStop:  stopRequested.Load,
	}
	return runner.Run(ctx, params)
}
