// Package config provides configuration loading and its Fx module.
package config

import (
	"go.uber.org/fx"
)

// Module provides *Config from the supplied file path.
var Module = fx.Module("config",
	fx.Provide(LoadConfig),
)
