package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/maiscriancaoficial/affiliates/internal/clock"
	"github.com/maiscriancaoficial/affiliates/internal/migration"
	"github.com/maiscriancaoficial/affiliates/internal/observability"
	"github.com/maiscriancaoficial/affiliates/internal/scheduler"
	"github.com/maiscriancaoficial/affiliates/internal/server"
	"github.com/maiscriancaoficial/affiliates/pkg/db"
)

func main() {
	app := fx.New(
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		server.Module,
		migration.Module,
		scheduler.Module,
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
