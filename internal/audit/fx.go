package audit

import (
	"go.uber.org/fx"

	"github.com/stackbill/tradequote/internal/audit/repository"
	"github.com/stackbill/tradequote/internal/audit/service"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
