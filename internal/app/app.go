// Package app assembles the explorer and owns its lifecycle.
package app

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Raikerian/encodec-explorer/internal/config"
	"github.com/Raikerian/encodec-explorer/internal/version"
)

// Application represents the main application with its lifecycle.
type Application struct {
	app *fx.App
}

// New creates a new Application with the provided modules and options.
func New(modules ...fx.Option) *Application {
	options := append(modules, fx.Invoke(registerLifecycleHooks))

	return &Application{
		app: fx.New(options...),
	}
}

// Err reports a construction failure.
func (a *Application) Err() error {
	return a.app.Err()
}

// Start starts every component without waiting for shutdown.
func (a *Application) Start(ctx context.Context) error {
	return a.app.Start(ctx)
}

// Run starts the application and blocks until a signal arrives or a
// component requests shutdown, then stops it.
func (a *Application) Run() {
	a.app.Run()
}

// Stop gracefully stops the application.
func (a *Application) Stop(ctx context.Context) error {
	return a.app.Stop(ctx)
}

// registerLifecycleHooks is registered last so its OnStart runs after every
// component has started and its OnStop before any has stopped.
func registerLifecycleHooks(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("Application started",
				zap.String("version", version.Version),
				zap.String("decoder", cfg.Decoder.Kind),
				zap.String("backend", cfg.Audio.Backend),
				zap.String("resampler", cfg.Audio.Resampler))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Stopping application")
			return nil
		},
	})
}
