package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

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
	configdomain "github.com/maiscriancaoficial/affiliates/internal/globalconfig/domain"
	configrepository "github.com/maiscriancaoficial/affiliates/internal/globalconfig/repository"
	configservice "github.com/maiscriancaoficial/affiliates/internal/globalconfig/service"
	grouprepository "github.com/maiscriancaoficial/affiliates/internal/group/repository"
	"github.com/maiscriancaoficial/affiliates/internal/policy"
	"github.com/maiscriancaoficial/affiliates/internal/providers/payout"
	"github.com/maiscriancaoficial/affiliates/internal/withdrawal/domain"
	"github.com/maiscriancaoficial/affiliates/internal/withdrawal/repository"
)

// fakeTransport records dispatches and fails on demand.
type fakeTransport struct {
	dispatched []payout.Instruction
	fail       bool
}

func (t *fakeTransport) Dispatch(ctx context.Context, inst payout.Instruction) error {
	if t.fail {
		return errors.New("gateway unavailable")
	}
	t.dispatched = append(t.dispatched, inst)
	return nil
}

type fixture struct {
	svc       *Service
	db        *gorm.DB
	node      *snowflake.Node
	clock     *clock.FakeClock
	transport *fakeTransport
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
		&configdomain.GlobalConfig{},
		&commissiondomain.Event{},
		&domain.Request{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	// Group table only referenced when an affiliate carries a group.
	db.Exec(`CREATE TABLE IF NOT EXISTS groups (id BIGINT PRIMARY KEY, name TEXT, active BOOLEAN)`)

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}

	fake := clock.NewFakeClock(time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC))
	transport := &fakeTransport{}

	configSvc := configservice.New(configservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		Clock: fake,
		Repo:  configrepository.NewRepository(),
	})

	svc := &Service{
		db:             db,
		log:            zap.NewNop(),
		genID:          node,
		clock:          fake,
		repo:           repository.NewRepository(),
		affiliateRepo:  affiliaterepository.NewRepository(),
		groupRepo:      grouprepository.NewRepository(),
		commissionRepo: commissionrepository.NewRepository(),
		config:         configSvc,
		transport:      transport,
		metrics:        nil,
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

	return &fixture{svc: svc, db: db, node: node, clock: fake, transport: transport}
}

func (f *fixture) seedAffiliate(t *testing.T, earnedCents int64, mutate func(*affiliatedomain.Affiliate)) *affiliatedomain.Affiliate {
	t.Helper()
	pix := "maria@example.com"
	affiliate := &affiliatedomain.Affiliate{
		ID:               f.node.Generate(),
		Name:             "Maria",
		Email:            fmt.Sprintf("%d@example.com", f.node.Generate()),
		Code:             fmt.Sprintf("%06d", f.node.Generate()%1000000),
		Status:           affiliatedomain.StatusActive,
		TotalEarnedCents: earnedCents,
		PixKey:           &pix,
	}
	if mutate != nil {
		mutate(affiliate)
	}
	if err := f.db.Create(affiliate).Error; err != nil {
		t.Fatalf("seed affiliate: %v", err)
	}
	return affiliate
}

func (f *fixture) seedCommissionedEvent(t *testing.T, affiliateID snowflake.ID, occurredAt time.Time) {
	t.Helper()
	event := &commissiondomain.Event{
		ID:                    f.node.Generate(),
		AffiliateID:           affiliateID,
		EventType:             policy.EventCheckout,
		GrossAmountCents:      10000,
		CommissionAmountCents: 1000,
		Commissioned:          true,
		ResolvedConfig:        []byte(`{}`),
		OccurredAt:            occurredAt,
		CreatedAt:             occurredAt,
	}
	if err := f.db.Create(event).Error; err != nil {
		t.Fatalf("seed event: %v", err)
	}
}

func TestSubmit_Eligible(t *testing.T) {
	f := newFixture(t)
	affiliate := f.seedAffiliate(t, 50000, nil)
	f.seedCommissionedEvent(t, affiliate.ID, f.clock.Now().Add(-10*24*time.Hour))

	decision, err := f.svc.Submit(context.Background(), domain.SubmitRequest{
		AffiliateID: affiliate.ID.String(),
		AmountCents: 10000,
	})
	assert.NoError(t, err)
	assert.Equal(t, domain.StatusEligible, decision.Status)
	assert.Equal(t, policy.WithdrawalPix, decision.Method)
	assert.Empty(t, decision.Reason)
}

func TestSubmit_RejectionsPersistWithReason(t *testing.T) {
	f := newFixture(t)
	affiliate := f.seedAffiliate(t, 3000, nil)

	decision, err := f.svc.Submit(context.Background(), domain.SubmitRequest{
		AffiliateID: affiliate.ID.String(),
		AmountCents: 10000,
	})
	assert.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, decision.Status)
	assert.Equal(t, domain.RejectionInsufficientBalance, decision.Reason)

	list, err := f.svc.ListByAffiliate(context.Background(), domain.ListRequest{
		AffiliateID: affiliate.ID.String(),
	})
	assert.NoError(t, err)
	assert.Len(t, list.Items, 1)
	assert.Equal(t, domain.StatusRejected, list.Items[0].Status)
	assert.NotNil(t, list.Items[0].Reason)
	assert.Equal(t, string(domain.RejectionInsufficientBalance), *list.Items[0].Reason)
}

func TestSubmit_GracePeriodHolds(t *testing.T) {
	f := newFixture(t)
	affiliate := f.seedAffiliate(t, 50000, nil)
	f.seedCommissionedEvent(t, affiliate.ID, f.clock.Now().Add(-2*24*time.Hour))

	decision, err := f.svc.Submit(context.Background(), domain.SubmitRequest{
		AffiliateID: affiliate.ID.String(),
		AmountCents: 10000,
	})
	assert.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, decision.Status)
	assert.Equal(t, domain.RejectionGracePeriodNotElapsed, decision.Reason)

	// After the processing window passes, the same request clears.
	f.clock.Advance(6 * 24 * time.Hour)
	decision, err = f.svc.Submit(context.Background(), domain.SubmitRequest{
		AffiliateID: affiliate.ID.String(),
		AmountCents: 10000,
	})
	assert.NoError(t, err)
	assert.Equal(t, domain.StatusEligible, decision.Status)
}

func TestSubmit_MonthlyLimitCountsEligibleAndPaid(t *testing.T) {
	f := newFixture(t)
	limit := int64(25000)
	affiliate := f.seedAffiliate(t, 100000, func(a *affiliatedomain.Affiliate) {
		a.MonthlyWithdrawalLimitCents = &limit
	})

	// Two eligible requests of 10000 this month.
	for i := 0; i < 2; i++ {
		decision, err := f.svc.Submit(context.Background(), domain.SubmitRequest{
			AffiliateID: affiliate.ID.String(),
			AmountCents: 10000,
		})
		assert.NoError(t, err)
		assert.Equal(t, domain.StatusEligible, decision.Status)
	}

	// Third would push the month to 30000 > 25000.
	decision, err := f.svc.Submit(context.Background(), domain.SubmitRequest{
		AffiliateID: affiliate.ID.String(),
		AmountCents: 10000,
	})
	assert.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, decision.Status)
	assert.Equal(t, domain.RejectionMonthlyLimitExceeded, decision.Reason)

	// Next month the window resets.
	f.clock.Advance(31 * 24 * time.Hour)
	decision, err = f.svc.Submit(context.Background(), domain.SubmitRequest{
		AffiliateID: affiliate.ID.String(),
		AmountCents: 10000,
	})
	assert.NoError(t, err)
	assert.Equal(t, domain.StatusEligible, decision.Status)
}

func TestDispatchEligible(t *testing.T) {
	f := newFixture(t)
	affiliate := f.seedAffiliate(t, 50000, nil)
	ctx := context.Background()

	decision, err := f.svc.Submit(ctx, domain.SubmitRequest{
		AffiliateID: affiliate.ID.String(),
		AmountCents: 10000,
	})
	assert.NoError(t, err)
	assert.Equal(t, domain.StatusEligible, decision.Status)

	// Transport down: the request stays eligible.
	f.transport.fail = true
	paid, err := f.svc.DispatchEligible(ctx, 10)
	assert.NoError(t, err)
	assert.Zero(t, paid)

	list, _ := f.svc.ListByAffiliate(ctx, domain.ListRequest{AffiliateID: affiliate.ID.String()})
	assert.Equal(t, domain.StatusEligible, list.Items[0].Status)

	// Transport back: the retry pays out.
	f.transport.fail = false
	paid, err = f.svc.DispatchEligible(ctx, 10)
	assert.NoError(t, err)
	assert.Equal(t, 1, paid)
	assert.Len(t, f.transport.dispatched, 1)
	assert.Equal(t, "maria@example.com", f.transport.dispatched[0].PixKey)

	list, _ = f.svc.ListByAffiliate(ctx, domain.ListRequest{AffiliateID: affiliate.ID.String()})
	assert.Equal(t, domain.StatusPaid, list.Items[0].Status)
	assert.NotNil(t, list.Items[0].PaidAt)

	// PAID is terminal; a second pass dispatches nothing.
	paid, err = f.svc.DispatchEligible(ctx, 10)
	assert.NoError(t, err)
	assert.Zero(t, paid)
	assert.Len(t, f.transport.dispatched, 1)
}

func TestSubmit_InvalidInput(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Submit(context.Background(), domain.SubmitRequest{
		AffiliateID: "123", AmountCents: 0,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = f.svc.Submit(context.Background(), domain.SubmitRequest{
		AffiliateID: "999999", AmountCents: 10000,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidAffiliate)
}
