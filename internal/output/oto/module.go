package oto

import (
	"go.uber.org/fx"

	"github.com/Raikerian/encodec-explorer/internal/output"
)

// Module registers the oto backend.
var Module = fx.Module("output.oto",
	fx.Provide(
		fx.Annotate(
			New,
			fx.As(new(output.Backend)),
			fx.ResultTags(`group:"backends"`),
		),
	),
)
