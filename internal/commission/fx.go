package commission

import (
	"go.uber.org/fx"

	"github.com/maiscriancaoficial/affiliates/internal/commission/repository"
	"github.com/maiscriancaoficial/affiliates/internal/commission/service"
)

var Module = fx.Module("commission.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.New),
)
