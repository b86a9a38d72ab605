package decode

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Raikerian/encodec-explorer/internal/config"
)

// Module provides the lazily loaded *Model and the stitched-buffer *Cache.
var Module = fx.Module("decode",
	fx.Provide(
		NewModelFromConfig,
		NewCacheFromConfig,
	),
)

func NewModelFromConfig(cfg *config.Config, logger *zap.Logger) (*Model, error) {
	load, err := LoaderFor(cfg.Decoder.Kind, cfg.Decoder.Seed)
	if err != nil {
		return nil, err
	}
	return NewModel(load, logger.Named("decoder")), nil
}

func NewCacheFromConfig(cfg *config.Config) (*Cache, error) {
	return NewCache(cfg.Worker.CacheSize)
}
