package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"

	affiliatedomain "github.com/maiscriancaoficial/affiliates/internal/affiliate/domain"
	affiliaterepository "github.com/maiscriancaoficial/affiliates/internal/affiliate/repository"
	"github.com/maiscriancaoficial/affiliates/internal/clock"
	commissiondomain "github.com/maiscriancaoficial/affiliates/internal/commission/domain"
	commissionrepository "github.com/maiscriancaoficial/affiliates/internal/commission/repository"
	commissionservice "github.com/maiscriancaoficial/affiliates/internal/commission/service"
	"github.com/maiscriancaoficial/affiliates/internal/dashboard/domain"
	configdomain "github.com/maiscriancaoficial/affiliates/internal/globalconfig/domain"
	configrepository "github.com/maiscriancaoficial/affiliates/internal/globalconfig/repository"
	configservice "github.com/maiscriancaoficial/affiliates/internal/globalconfig/service"
	groupdomain "github.com/maiscriancaoficial/affiliates/internal/group/domain"
	grouprepository "github.com/maiscriancaoficial/affiliates/internal/group/repository"
	"github.com/maiscriancaoficial/affiliates/internal/policy"
)

type fixture struct {
	dashboard  *Service
	commission commissiondomain.Service
	db         *gorm.DB
	node       *snowflake.Node
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&affiliatedomain.Affiliate{},
		&groupdomain.Group{},
		&configdomain.GlobalConfig{},
		&commissiondomain.Event{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}

	cfg := &configdomain.GlobalConfig{
		ID:                        configdomain.SingletonID,
		Version:                   1,
		DefaultCommissionType:     policy.CommissionPercentage,
		DefaultCommissionValue:    decimal.NewFromInt(10),
		DefaultCommissionEvent:    policy.EventCheckout,
		DefaultWithdrawalMethod:   policy.WithdrawalPix,
		DefaultMinWithdrawalCents: 5000,
		DefaultProcessingDays:     7,
		SystemActive:              true,
	}
	if err := db.Create(cfg).Error; err != nil {
		t.Fatalf("seed config: %v", err)
	}

	configSvc := configservice.New(configservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		Clock: clock.System(),
		Repo:  configrepository.NewRepository(),
	})

	commissionSvc := commissionservice.New(commissionservice.Params{
		DB:            db,
		Log:           zap.NewNop(),
		GenID:         node,
		Clock:         clock.System(),
		Repo:          commissionrepository.NewRepository(),
		AffiliateRepo: affiliaterepository.NewRepository(),
		GroupRepo:     grouprepository.NewRepository(),
		Config:        configSvc,
		Metrics:       nil,
	})

	dashboardSvc := &Service{
		db:             db,
		log:            zap.NewNop(),
		affiliateRepo:  affiliaterepository.NewRepository(),
		commissionRepo: commissionrepository.NewRepository(),
	}

	return &fixture{dashboard: dashboardSvc, commission: commissionSvc, db: db, node: node}
}

func (f *fixture) seedAffiliate(t *testing.T) *affiliatedomain.Affiliate {
	t.Helper()
	affiliate := &affiliatedomain.Affiliate{
		ID:     f.node.Generate(),
		Name:   "Maria",
		Email:  fmt.Sprintf("%d@example.com", f.node.Generate()),
		Code:   fmt.Sprintf("%06d", f.node.Generate()%1000000),
		Status: affiliatedomain.StatusActive,
	}
	if err := f.db.Create(affiliate).Error; err != nil {
		t.Fatalf("seed affiliate: %v", err)
	}
	return affiliate
}

func TestProject_FromCounters(t *testing.T) {
	f := newFixture(t)
	affiliate := f.seedAffiliate(t)
	ctx := context.Background()

	// 4 clicks, 2 commissioned checkouts, 1 mismatched coupon.
	for i := 0; i < 4; i++ {
		_, err := f.commission.Submit(ctx, commissiondomain.SubmitRequest{
			AffiliateID: affiliate.ID.String(),
			EventType:   policy.EventClick,
		})
		assert.NoError(t, err)
	}
	for i := 0; i < 2; i++ {
		_, err := f.commission.Submit(ctx, commissiondomain.SubmitRequest{
			AffiliateID: affiliate.ID.String(),
			EventType:   policy.EventCheckout,
			GrossCents:  10000,
		})
		assert.NoError(t, err)
	}
	_, err := f.commission.Submit(ctx, commissiondomain.SubmitRequest{
		AffiliateID: affiliate.ID.String(),
		EventType:   policy.EventCoupon,
		GrossCents:  5000,
	})
	assert.NoError(t, err)

	projected, err := f.dashboard.Project(ctx, affiliate.ID.String())
	assert.NoError(t, err)
	assert.Equal(t, int64(4), projected.Cliques)
	assert.Equal(t, int64(2), projected.Conversoes)
	assert.Equal(t, int64(3), projected.TotalVendas)
	assert.Equal(t, int64(2000), projected.TotalGanhos)
	assert.InDelta(t, 50.0, projected.TaxaConversao, 0.0001)
}

func TestRecompute_AgreesWithCounters(t *testing.T) {
	f := newFixture(t)
	affiliate := f.seedAffiliate(t)
	ctx := context.Background()

	mix := []struct {
		eventType policy.EventType
		gross     int64
	}{
		{policy.EventClick, 0},
		{policy.EventCheckout, 10000},
		{policy.EventClick, 0},
		{policy.EventCoupon, 7500},
		{policy.EventCheckout, 333},
		{policy.EventAccess, 0},
	}
	for _, ev := range mix {
		_, err := f.commission.Submit(ctx, commissiondomain.SubmitRequest{
			AffiliateID: affiliate.ID.String(),
			EventType:   ev.eventType,
			GrossCents:  ev.gross,
		})
		assert.NoError(t, err)
	}

	projected, err := f.dashboard.Project(ctx, affiliate.ID.String())
	assert.NoError(t, err)
	recomputed, err := f.dashboard.Recompute(ctx, affiliate.ID.String())
	assert.NoError(t, err)

	assert.Equal(t, projected, recomputed, "event log replay must match the live counters")
}

func TestProject_NoClicksNoDivision(t *testing.T) {
	f := newFixture(t)
	affiliate := f.seedAffiliate(t)
	ctx := context.Background()

	_, err := f.commission.Submit(ctx, commissiondomain.SubmitRequest{
		AffiliateID: affiliate.ID.String(),
		EventType:   policy.EventCheckout,
		GrossCents:  10000,
	})
	assert.NoError(t, err)

	projected, err := f.dashboard.Project(ctx, affiliate.ID.String())
	assert.NoError(t, err)
	assert.Zero(t, projected.Cliques)
	assert.Equal(t, int64(1), projected.Conversoes)
	assert.Zero(t, projected.TaxaConversao)
}

func TestProject_UnknownAffiliate(t *testing.T) {
	f := newFixture(t)

	_, err := f.dashboard.Project(context.Background(), "123456789")
	assert.ErrorIs(t, err, domain.ErrInvalidAffiliate)

	_, err = f.dashboard.Recompute(context.Background(), "not-an-id")
	assert.ErrorIs(t, err, domain.ErrInvalidAffiliate)
}
