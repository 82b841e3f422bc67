package group

import (
	"go.uber.org/fx"

	"github.com/maiscriancaoficial/affiliates/internal/group/repository"
	"github.com/maiscriancaoficial/affiliates/internal/group/service"
)

var Module = fx.Module("group.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.New),
)
