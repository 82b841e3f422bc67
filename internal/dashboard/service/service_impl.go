package service

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	affiliatedomain "github.com/maiscriancaoficial/affiliates/internal/affiliate/domain"
	commissiondomain "github.com/maiscriancaoficial/affiliates/internal/commission/domain"
	"github.com/maiscriancaoficial/affiliates/internal/dashboard/domain"
	"github.com/maiscriancaoficial/affiliates/internal/policy"
)

type Params struct {
	fx.In

	DB             *gorm.DB
	Log            *zap.Logger
	AffiliateRepo  affiliatedomain.Repository
	CommissionRepo commissiondomain.Repository
}

type Service struct {
	db             *gorm.DB
	log            *zap.Logger
	affiliateRepo  affiliatedomain.Repository
	commissionRepo commissiondomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:             p.DB,
		log:            p.Log.Named("dashboard.service"),
		affiliateRepo:  p.AffiliateRepo,
		commissionRepo: p.CommissionRepo,
	}
}

func (s *Service) Project(ctx context.Context, affiliateID string) (*domain.Metrics, error) {
	id, err := s.parse(affiliateID)
	if err != nil {
		return nil, err
	}

	affiliate, err := s.affiliateRepo.FindByID(ctx, s.db, id)
	if err != nil {
		if errors.Is(err, affiliatedomain.ErrNotFound) {
			return nil, domain.ErrInvalidAffiliate
		}
		return nil, err
	}

	return project(affiliate.TotalClicks, affiliate.TotalConversions,
		affiliate.TotalSales, affiliate.TotalEarnedCents), nil
}

func (s *Service) Recompute(ctx context.Context, affiliateID string) (*domain.Metrics, error) {
	id, err := s.parse(affiliateID)
	if err != nil {
		return nil, err
	}
	if _, err := s.affiliateRepo.FindByID(ctx, s.db, id); err != nil {
		if errors.Is(err, affiliatedomain.ErrNotFound) {
			return nil, domain.ErrInvalidAffiliate
		}
		return nil, err
	}

	events, err := s.commissionRepo.ListAllByAffiliate(ctx, s.db, id)
	if err != nil {
		return nil, err
	}

	var clicks, conversions, sales, earned int64
	for i := range events {
		e := &events[i]
		if e.EventType == policy.EventClick {
			clicks++
		}
		if e.EventType.IsSale() {
			sales++
			if e.Commissioned {
				conversions++
			}
		}
		if e.Commissioned {
			earned += e.CommissionAmountCents
		}
	}

	return project(clicks, conversions, sales, earned), nil
}

func (s *Service) parse(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(raw)
	if err != nil {
		return 0, domain.ErrInvalidAffiliate
	}
	return id, nil
}

func project(clicks, conversions, sales, earnedCents int64) *domain.Metrics {
	m := &domain.Metrics{
		Cliques:     clicks,
		Conversoes:  conversions,
		TotalVendas: sales,
		TotalGanhos: earnedCents,
	}
	if clicks > 0 {
		m.TaxaConversao = float64(conversions) / float64(clicks) * 100
	}
	return m
}
