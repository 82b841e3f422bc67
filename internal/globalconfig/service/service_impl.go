package service

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/maiscriancaoficial/affiliates/internal/clock"
	"github.com/maiscriancaoficial/affiliates/internal/globalconfig/domain"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("globalconfig.service"),
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Get(ctx context.Context) (*domain.Response, error) {
	cfg, err := s.repo.Get(ctx, s.db)
	if err != nil {
		return nil, err
	}
	return toResponse(cfg), nil
}

func (s *Service) Current(ctx context.Context) (*domain.GlobalConfig, error) {
	return s.repo.Get(ctx, s.db)
}

func (s *Service) Update(ctx context.Context, req domain.UpdateRequest) (*domain.Response, error) {
	cfg := &domain.GlobalConfig{
		ID:                         domain.SingletonID,
		DefaultCommissionType:      req.DefaultCommissionType,
		DefaultCommissionValue:     req.DefaultCommissionValue,
		DefaultCommissionEvent:     req.DefaultCommissionEvent,
		DefaultWithdrawalMethod:    req.DefaultWithdrawalMethod,
		DefaultMinWithdrawalCents:  req.DefaultMinWithdrawalCents,
		DefaultProcessingDays:      req.DefaultProcessingDays,
		CookieExpirationDays:       req.CookieExpirationDays,
		AutoApproval:               req.AutoApproval,
		AutoApprovalSalesThreshold: req.AutoApprovalSalesThreshold,
		SystemActive:               req.SystemActive,
		UpdatedAt:                  s.clock.Now().UTC(),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateVersioned(ctx, s.db, cfg, req.Version); err != nil {
		return nil, err
	}

	s.log.Info("global config updated",
		zap.Int64("version", cfg.Version),
		zap.Bool("system_active", cfg.SystemActive),
	)
	return toResponse(cfg), nil
}

func toResponse(cfg *domain.GlobalConfig) *domain.Response {
	return &domain.Response{
		Version:                    cfg.Version,
		DefaultCommissionType:      cfg.DefaultCommissionType,
		DefaultCommissionValue:     cfg.DefaultCommissionValue,
		DefaultCommissionEvent:     cfg.DefaultCommissionEvent,
		DefaultWithdrawalMethod:    cfg.DefaultWithdrawalMethod,
		DefaultMinWithdrawalCents:  cfg.DefaultMinWithdrawalCents,
		DefaultProcessingDays:      cfg.DefaultProcessingDays,
		CookieExpirationDays:       cfg.CookieExpirationDays,
		AutoApproval:               cfg.AutoApproval,
		AutoApprovalSalesThreshold: cfg.AutoApprovalSalesThreshold,
		SystemActive:               cfg.SystemActive,
		UpdatedAt:                  cfg.UpdatedAt,
	}
}
