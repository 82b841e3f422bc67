package affiliate

import (
	"go.uber.org/fx"

	"github.com/maiscriancaoficial/affiliates/internal/affiliate/repository"
	"github.com/maiscriancaoficial/affiliates/internal/affiliate/service"
)

var Module = fx.Module("affiliate.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.New),
)
