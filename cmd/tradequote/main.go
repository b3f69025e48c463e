package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/stackbill/tradequote/internal/clock"
	"github.com/stackbill/tradequote/internal/config"
	"github.com/stackbill/tradequote/internal/logger"
	"github.com/stackbill/tradequote/internal/migration"
	"github.com/stackbill/tradequote/internal/pricing"
	"github.com/stackbill/tradequote/internal/server"
	"github.com/stackbill/tradequote/pkg/db"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,

		// Domain
		pricing.Module,
		server.Module,
		migration.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
