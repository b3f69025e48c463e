package pricing

import (
	"go.uber.org/fx"

	"github.com/stackbill/tradequote/internal/pricing/engine"
)

var Module = fx.Module("pricing.engine",
	fx.Provide(engine.New),
)
