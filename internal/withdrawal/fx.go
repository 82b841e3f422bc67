package withdrawal

import (
	"go.uber.org/fx"

	"github.com/maiscriancaoficial/affiliates/internal/withdrawal/repository"
	"github.com/maiscriancaoficial/affiliates/internal/withdrawal/service"
)

var Module = fx.Module("withdrawal.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.New),
)
