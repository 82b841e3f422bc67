package scheduler

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"

	affiliatedomain "github.com/maiscriancaoficial/affiliates/internal/affiliate/domain"
	affiliaterepository "github.com/maiscriancaoficial/affiliates/internal/affiliate/repository"
	"github.com/maiscriancaoficial/affiliates/internal/clock"
	configdomain "github.com/maiscriancaoficial/affiliates/internal/globalconfig/domain"
	configrepository "github.com/maiscriancaoficial/affiliates/internal/globalconfig/repository"
	configservice "github.com/maiscriancaoficial/affiliates/internal/globalconfig/service"
	"github.com/maiscriancaoficial/affiliates/internal/policy"
	withdrawaldomain "github.com/maiscriancaoficial/affiliates/internal/withdrawal/domain"
	"github.com/shopspring/decimal"
)

type stubWithdrawalSvc struct {
	dispatched int
	batchSizes []int
	err        error
}

func (s *stubWithdrawalSvc) Submit(ctx context.Context, req withdrawaldomain.SubmitRequest) (*withdrawaldomain.Decision, error) {
	return nil, nil
}

func (s *stubWithdrawalSvc) ListByAffiliate(ctx context.Context, req withdrawaldomain.ListRequest) (*withdrawaldomain.ListResponse, error) {
	return nil, nil
}

func (s *stubWithdrawalSvc) DispatchEligible(ctx context.Context, batchSize int) (int, error) {
	s.batchSizes = append(s.batchSizes, batchSize)
	if s.err != nil {
		return 0, s.err
	}
	return s.dispatched, nil
}

type fixture struct {
	t          *testing.T
	db         *gorm.DB
	node       *snowflake.Node
	clk        *clock.FakeClock
	sched      *Scheduler
	withdrawal *stubWithdrawalSvc
	configSvc  configdomain.Service
}

func newFixture(t *testing.T, mutateCfg func(*configdomain.GlobalConfig)) *fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&affiliatedomain.Affiliate{}, &configdomain.GlobalConfig{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}
	clk := clock.NewFakeClock(time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC))
	log := zap.NewNop()

	cfg := &configdomain.GlobalConfig{
		ID:                         configdomain.SingletonID,
		Version:                    1,
		DefaultCommissionType:      policy.CommissionPercentage,
		DefaultCommissionValue:     decimal.NewFromInt(10),
		DefaultCommissionEvent:     policy.EventCheckout,
		DefaultWithdrawalMethod:    policy.WithdrawalPix,
		DefaultMinWithdrawalCents:  5000,
		DefaultProcessingDays:      7,
		CookieExpirationDays:       30,
		AutoApproval:               false,
		AutoApprovalSalesThreshold: 3,
		SystemActive:               true,
	}
	if mutateCfg != nil {
		mutateCfg(cfg)
	}
	configRepo := configrepository.NewRepository()
	if err := configRepo.Create(context.Background(), db, cfg); err != nil {
		t.Fatalf("seed config: %v", err)
	}
	configSvc := configservice.New(configservice.Params{
		DB:    db,
		Log:   log,
		Clock: clk,
		Repo:  configRepo,
	})

	withdrawal := &stubWithdrawalSvc{}
	sched, err := New(Params{
		DB:            db,
		Log:           log,
		WithdrawalSvc: withdrawal,
		AffiliateRepo: affiliaterepository.NewRepository(),
		ConfigSvc:     configSvc,
		GenID:         node,
		Clock:         clk,
		Config:        Config{RunInterval: time.Minute, BatchSize: 2},
	})
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}

	return &fixture{
		t:          t,
		db:         db,
		node:       node,
		clk:        clk,
		sched:      sched,
		withdrawal: withdrawal,
		configSvc:  configSvc,
	}
}

func (f *fixture) seedAffiliate(status affiliatedomain.Status, totalSales int64) snowflake.ID {
	f.t.Helper()
	id := f.node.Generate()
	affiliate := &affiliatedomain.Affiliate{
		ID:         id,
		Name:       "Affiliate " + id.String(),
		Email:      fmt.Sprintf("aff%s@example.com", id),
		Code:       fmt.Sprintf("%06d", id.Int64()%1000000),
		Status:     status,
		TotalSales: totalSales,
		CreatedAt:  f.clk.Now(),
		UpdatedAt:  f.clk.Now(),
	}
	if err := f.db.Create(affiliate).Error; err != nil {
		f.t.Fatalf("seed affiliate: %v", err)
	}
	return id
}

func (f *fixture) status(id snowflake.ID) affiliatedomain.Status {
	f.t.Helper()
	var affiliate affiliatedomain.Affiliate
	if err := f.db.First(&affiliate, "id = ?", id).Error; err != nil {
		f.t.Fatalf("load affiliate: %v", err)
	}
	return affiliate.Status
}

func TestAutoApproveJob_PromotesOverThreshold(t *testing.T) {
	f := newFixture(t, nil)

	under := f.seedAffiliate(affiliatedomain.StatusPending, 1)
	atThreshold := f.seedAffiliate(affiliatedomain.StatusPending, 3)
	over := f.seedAffiliate(affiliatedomain.StatusPending, 9)
	inactive := f.seedAffiliate(affiliatedomain.StatusInactive, 9)

	err := f.sched.AutoApproveJob(context.Background())
	assert.NoError(t, err)

	assert.Equal(t, affiliatedomain.StatusPending, f.status(under))
	assert.Equal(t, affiliatedomain.StatusActive, f.status(atThreshold))
	assert.Equal(t, affiliatedomain.StatusActive, f.status(over))
	assert.Equal(t, affiliatedomain.StatusInactive, f.status(inactive))
}

func TestAutoApproveJob_PagesThroughBatches(t *testing.T) {
	f := newFixture(t, nil)

	// BatchSize is 2; seed more than one page of qualifying affiliates.
	ids := make([]snowflake.ID, 0, 5)
	for i := 0; i < 5; i++ {
		ids = append(ids, f.seedAffiliate(affiliatedomain.StatusPending, 5))
	}

	err := f.sched.AutoApproveJob(context.Background())
	assert.NoError(t, err)

	for _, id := range ids {
		assert.Equal(t, affiliatedomain.StatusActive, f.status(id))
	}
}

func TestAutoApproveJob_SkipsWhenAutoApprovalOn(t *testing.T) {
	f := newFixture(t, func(cfg *configdomain.GlobalConfig) {
		cfg.AutoApproval = true
	})

	id := f.seedAffiliate(affiliatedomain.StatusPending, 10)

	err := f.sched.AutoApproveJob(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, affiliatedomain.StatusPending, f.status(id))
}

func TestDispatchPayoutsJob_UsesBatchSize(t *testing.T) {
	f := newFixture(t, nil)
	f.withdrawal.dispatched = 3

	err := f.sched.DispatchPayoutsJob(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, []int{2}, f.withdrawal.batchSizes)
}

func TestRunOnce_RunsEnabledJobsOnly(t *testing.T) {
	f := newFixture(t, nil)
	f.sched.cfg.EnabledJobs = []string{"auto_approve"}

	id := f.seedAffiliate(affiliatedomain.StatusPending, 5)

	err := f.sched.RunOnce(context.Background())
	assert.NoError(t, err)

	assert.Equal(t, affiliatedomain.StatusActive, f.status(id))
	assert.Empty(t, f.withdrawal.batchSizes)
}

func TestRunOnce_JoinsJobErrors(t *testing.T) {
	f := newFixture(t, nil)
	f.withdrawal.err = assert.AnError

	err := f.sched.RunOnce(context.Background())
	assert.ErrorIs(t, err, assert.AnError)
}
