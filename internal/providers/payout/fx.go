package payout

import (
	"go.uber.org/fx"

	"github.com/maiscriancaoficial/affiliates/internal/config"
)

var Module = fx.Module("providers.payout",
	fx.Provide(NewFromConfig),
)

func NewFromConfig(cfg config.Config) Transport {
	if cfg.Payout.Endpoint == "" {
		return &NoOpTransport{}
	}
	return NewHTTP(Config{
		Endpoint: cfg.Payout.Endpoint,
		APIKey:   cfg.Payout.APIKey,
		Timeout:  cfg.Payout.Timeout,
	})
}
