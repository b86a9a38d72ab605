package output

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Raikerian/encodec-explorer/internal/config"
)

// Module provides the *Manager. Backends are collected from the
// "backends" value group; the headless backend is always registered.
var Module = fx.Module("output",
	fx.Provide(
		fx.Annotate(
			func() Backend { return NewHeadless(nil) },
			fx.ResultTags(`group:"backends"`),
		),
		NewManagerFromConfig,
	),
)

// ManagerParams holds dependencies for NewManagerFromConfig.
type ManagerParams struct {
	fx.In
	Cfg      *config.Config
	Logger   *zap.Logger
	Synth    Synth
	Backends []Backend `group:"backends"`
	LC       fx.Lifecycle
}

func NewManagerFromConfig(p ManagerParams) (*Manager, error) {
	a := p.Cfg.Audio
	m, err := NewManager(ManagerOptions{
		Logger:          p.Logger.Named("output"),
		Backends:        p.Backends,
		Synth:           p.Synth,
		Backend:         a.Backend,
		Device:          a.Device,
		SampleRate:      a.SampleRate,
		Channels:        a.Channels,
		BufferFrames:    a.BufferFrames,
		MinBufferFrames: a.MinBufferFrames,
		MaxBufferFrames: a.MaxBufferFrames,
		RebuildDebounce: a.RebuildDebounce,
	})
	if err != nil {
		return nil, err
	}

	p.LC.Append(fx.Hook{
		OnStart: func(context.Context) error {
			return m.Start()
		},
		OnStop: func(context.Context) error {
			return m.Close()
		},
	})
	return m, nil
}
