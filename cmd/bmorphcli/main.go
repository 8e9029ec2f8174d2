package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/gosuri/uiprogress"

	"bmorphcli/internal/bias"
	"bmorphcli/internal/config"
	"bmorphcli/internal/correct"
	"bmorphcli/internal/grid"
	"bmorphcli/internal/infrastructure"
)

func main() {
	configPath := flag.String("config", "", "path to the ini configuration file (required)")
	verbose := flag.Bool("v", false, "enable debug logging")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s %s\n", config.AppName, config.AppVersion)
		return
	}

	if *configPath == "" {
		fmt.Fprintf(os.Stderr, "usage: %s -config <file> [-v]\n", config.AppName)
		flag.PrintDefaults()
		os.Exit(2)
	}

	// A malformed configuration aborts before any processing begins.
	settings, err := config.Load(*configPath)
	if err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}
	if *verbose {
		settings.Logging.Level = "debug"
	}

	logger, err := infrastructure.InitializeLogger(settings.Logging)
	if err != nil {
		slog.Warn("failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogger()

	if err := run(context.Background(), settings, logger); err != nil {
		logger.Error("batch aborted", "error", err)
		infrastructure.CloseLogger()
		os.Exit(1)
	}
}

// run enumerates the site grid and corrects every combination sequentially.
// The first non-skip failure stops the batch.
func run(ctx context.Context, settings *config.Settings, logger *slog.Logger) error {
	g := grid.Grid{
		Sites:         settings.SiteInfo.Sites,
		HydroModels:   settings.SiteInfo.HydroModels,
		ParameterSets: settings.SiteInfo.ParameterSets,
		Scenarios:     settings.SiteInfo.Scenarios,
		Downscalings:  settings.SiteInfo.Downscalings,
		GCMs:          settings.SiteInfo.GCMs,
	}

	logger.Info("starting bias-correction batch",
		slog.String("config", settings.ConfigPath),
		slog.Int("selections", g.Size()))

	processor := correct.NewProcessor(settings, bias.QuantileMapper{}, logger)

	uiprogress.Start()
	bar := uiprogress.AddBar(g.Size()).AppendCompleted().PrependElapsed()
	defer uiprogress.Stop()

	corrected, skipped := 0, 0
	for sel := range g.All() {
		outcome, err := processor.Process(ctx, sel)
		if err != nil {
			return fmt.Errorf("process %s/%s/%s/%s/%s/%s: %w",
				sel.Site, sel.HydroModel, sel.ParameterSet,
				sel.Scenario, sel.Downscaling, sel.GCM, err)
		}
		switch outcome {
		case correct.OutcomeCorrected:
			corrected++
		case correct.OutcomeSkipped:
			skipped++
		}
		bar.Incr()
	}

	logger.Info("batch complete",
		slog.Int("corrected", corrected),
		slog.Int("skipped", skipped))
	return nil
}
