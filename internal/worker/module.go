package worker

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Raikerian/encodec-explorer/internal/decode"
)

// Module provides a *Worker started and stopped with the application.
var Module = fx.Module("worker",
	fx.Provide(NewFromLifecycle),
)

// Params holds dependencies for NewFromLifecycle.
type Params struct {
	fx.In
	Logger *zap.Logger
	Model  *decode.Model
	Cache  *decode.Cache
	LC     fx.Lifecycle
}

func NewFromLifecycle(p Params) *Worker {
	w := New(Options{
		Logger: p.Logger.Named("worker"),
		Model:  p.Model,
		Cache:  p.Cache,
	})

	p.LC.Append(fx.Hook{
		OnStart: func(context.Context) error {
			w.Start()
			return nil
		},
		OnStop: func(context.Context) error {
			w.Stop()
			return nil
		},
	})
	return w
}
