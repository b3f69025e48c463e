package customer

import (
	"go.uber.org/fx"

	"github.com/stackbill/tradequote/internal/customer/service"
)

var Module = fx.Module("customer.service",
	fx.Provide(service.New),
)
