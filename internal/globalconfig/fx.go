package globalconfig

import (
	"go.uber.org/fx"

	"github.com/maiscriancaoficial/affiliates/internal/globalconfig/repository"
	"github.com/maiscriancaoficial/affiliates/internal/globalconfig/service"
)

var Module = fx.Module("globalconfig.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.New),
)
