package catalog

import (
	"go.uber.org/fx"

	"github.com/stackbill/tradequote/internal/catalog/service"
)

var Module = fx.Module("catalog.service",
	fx.Provide(service.New),
)
