package synth

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Raikerian/encodec-explorer/internal/config"
	"github.com/Raikerian/encodec-explorer/internal/output"
	"github.com/Raikerian/encodec-explorer/internal/resample"
	"github.com/Raikerian/encodec-explorer/pkg/audio"
)

// Module provides the *Player and exposes it to the audio output as its
// callback.
var Module = fx.Module("synth",
	fx.Provide(
		NewFromConfig,
		func(p *Player) output.Synth { return p },
	),
)

func NewFromConfig(cfg *config.Config, logger *zap.Logger, lc fx.Lifecycle) (*Player, error) {
	kind, err := resample.ParseKind(cfg.Audio.Resampler)
	if err != nil {
		return nil, err
	}
	p := NewPlayer(Options{
		Logger:    logger.Named("synth"),
		Resampler: kind,
		InputRate: audio.NativeSampleRate,
	})
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return p.Close()
		},
	})
	return p, nil
}
