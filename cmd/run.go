// Copyright (c) DiamondGnom
// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/alecthomas/kong"
	"github.com/schollz/progressbar/v3"

	"github.com/diamondgnom/insight"
)

// CLI are the cli parameters for the insight binary.
type CLI struct {
	Path              string           `arg:"" name:"path" help:"Archive file to unpack or directory to analyze." type:"path"`
	ContinueOnError   bool             `short:"C" help:"Continue member extraction on error."`
	DenySymlinks      bool             `short:"D" help:"Deny symlink extraction."`
	MaxDepth          int              `optional:"" default:"5" help:"Maximum nested unpacking depth."`
	MaxFiles          int64            `optional:"" default:"100000" help:"Maximum members per archive. (disable check: -1)"`
	MaxExtractionSize int64            `optional:"" default:"1073741824" help:"Maximum extraction size in bytes. (disable check: -1)"`
	MaxInputSize      int64            `optional:"" default:"1073741824" help:"Maximum input size in bytes. (disable check: -1)"`
	NoProgress        bool             `optional:"" help:"Disable the progress spinner."`
	Report            string           `short:"r" optional:"" help:"Write a text report to this path."`
	Telemetry         bool             `short:"T" optional:"" default:"false" help:"Log telemetry after each extraction."`
	Verbose           bool             `short:"v" optional:"" help:"Verbose logging."`
	Version           kong.VersionFlag `short:"V" optional:"" help:"Print release version information."`
}

// Run is the entrypoint into insight as a cli tool.
func Run(version, commit, date string) {
	ctx := context.Background()
	var cli CLI
	kong.Parse(&cli,
		kong.Description("A recursive, safe archive extraction and classification utility"),
		kong.UsageOnError(),
		kong.Vars{
			"version": fmt.Sprintf("%s (%s), commit %s, built at %s", filepath.Base(os.Args[0]), version, commit, date),
		},
	)

	// check for verbose output
	logLevel := slog.LevelError
	if cli.Verbose {
		logLevel = slog.LevelDebug
	}

	// setup logger
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))

	// setup telemetry hook
	telemetryToLog := func(ctx context.Context, td *insight.TelemetryData) {
		if cli.Telemetry {
			logger.Info("extraction finished", "telemetry", td)
		}
	}

	// process cli params
	cfg := insight.NewConfig(
		insight.WithContinueOnError(cli.ContinueOnError),
		insight.WithDenySymlinkExtraction(cli.DenySymlinks),
		insight.WithLogger(logger),
		insight.WithMaxDepth(cli.MaxDepth),
		insight.WithMaxExtractionSize(cli.MaxExtractionSize),
		insight.WithMaxFiles(cli.MaxFiles),
		insight.WithMaxInputSize(cli.MaxInputSize),
		insight.WithTelemetryHook(telemetryToLog),
	)

	// the core contract is synchronous, so the request runs on a
	// worker goroutine to keep the terminal spinner responsive
	type outcome struct {
		result *insight.Result
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := insight.Process(ctx, cli.Path, cfg)
		done <- outcome{result, err}
	}()

	var out outcome
	if cli.NoProgress {
		out = <-done
	} else {
		bar := progressbar.Default(-1, "processing")
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
	wait:
		for {
			select {
			case out = <-done:
				bar.Finish()
				fmt.Fprintln(os.Stderr)
				break wait
			case <-ticker.C:
				bar.Add(1)
			}
		}
	}

	if out.err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", out.err)
		os.Exit(1)
	}

	fmt.Print(out.result.Summary())

	if cli.Report != "" {
		if err := out.result.Inventory.WriteReport(cli.Report); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("report written to %s\n", cli.Report)
	}
}
