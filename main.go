// Package main provides the entry point for the EnCodec token explorer.
package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/fx"

	"github.com/Raikerian/encodec-explorer/internal/app"
	"github.com/Raikerian/encodec-explorer/internal/config"
	"github.com/Raikerian/encodec-explorer/internal/decode"
	"github.com/Raikerian/encodec-explorer/internal/infrastructure"
	"github.com/Raikerian/encodec-explorer/internal/output"
	"github.com/Raikerian/encodec-explorer/internal/output/malgo"
	"github.com/Raikerian/encodec-explorer/internal/output/oto"
	"github.com/Raikerian/encodec-explorer/internal/synth"
	"github.com/Raikerian/encodec-explorer/internal/ui"
	"github.com/Raikerian/encodec-explorer/internal/version"
	"github.com/Raikerian/encodec-explorer/internal/worker"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	showVersion := flag.Bool("version", false, "print the version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	application := app.New(
		// Core modules
		config.Module,
		infrastructure.LoggerModule,

		// Audio backends
		malgo.Module,
		oto.Module,

		// Application modules
		decode.Module,
		worker.Module,
		synth.Module,
		output.Module,
		ui.Module,

		fx.Supply(*configPath),

		// Configure Fx to use our Zap logger for its own internal logging
		fx.WithLogger(infrastructure.NewFxLoggerAdapter),
	)
	if err := application.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start: %v\n", err)
		os.Exit(1)
	}

	// Run blocks until SIGINT/SIGTERM or until the UI requests shutdown.
	application.Run()
}
