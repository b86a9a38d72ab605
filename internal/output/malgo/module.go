package malgo

import (
	"go.uber.org/fx"

	"github.com/Raikerian/encodec-explorer/internal/output"
)

// Module registers the miniaudio backend.
var Module = fx.Module("output.malgo",
	fx.Provide(
		fx.Annotate(
			New,
			fx.As(new(output.Backend)),
			fx.ResultTags(`group:"backends"`),
		),
	),
)
