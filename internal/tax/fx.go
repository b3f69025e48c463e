package tax

import (
	"go.uber.org/fx"

	"github.com/stackbill/tradequote/internal/tax/repository"
	"github.com/stackbill/tradequote/internal/tax/service"
)

var Module = fx.Module("tax.service",
	fx.Provide(repository.New),
	fx.Provide(service.New),
)
