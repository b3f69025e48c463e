package quote

import (
	"go.uber.org/fx"

	"github.com/stackbill/tradequote/internal/quote/service"
)

// Module wires the quote lifecycle service.
var Module = fx.Module("quote",
	fx.Provide(service.New),
)
