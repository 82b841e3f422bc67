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

	"github.com/maiscriancaoficial/affiliates/internal/affiliate/domain"
	"github.com/maiscriancaoficial/affiliates/internal/affiliate/repository"
	"github.com/maiscriancaoficial/affiliates/internal/clock"
	configdomain "github.com/maiscriancaoficial/affiliates/internal/globalconfig/domain"
	configrepository "github.com/maiscriancaoficial/affiliates/internal/globalconfig/repository"
	configservice "github.com/maiscriancaoficial/affiliates/internal/globalconfig/service"
	groupdomain "github.com/maiscriancaoficial/affiliates/internal/group/domain"
	grouprepository "github.com/maiscriancaoficial/affiliates/internal/group/repository"
	"github.com/maiscriancaoficial/affiliates/internal/policy"
	"github.com/maiscriancaoficial/affiliates/pkg/db/pagination"
)

func newTestService(t *testing.T, autoApproval bool) (*Service, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.Affiliate{}, &groupdomain.Group{}, &configdomain.GlobalConfig{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	// Minimal event table for the delete guard.
	db.Exec(`CREATE TABLE IF NOT EXISTS commission_events (
		id BIGINT PRIMARY KEY,
		affiliate_id BIGINT NOT NULL
	)`)

	seed := &configdomain.GlobalConfig{
		ID:                        configdomain.SingletonID,
		Version:                   1,
		DefaultCommissionType:     policy.CommissionPercentage,
		DefaultCommissionValue:    decimal.NewFromInt(10),
		DefaultCommissionEvent:    policy.EventCheckout,
		DefaultWithdrawalMethod:   policy.WithdrawalPix,
		DefaultMinWithdrawalCents: 5000,
		DefaultProcessingDays:     7,
		AutoApproval:              autoApproval,
		SystemActive:              true,
	}
	if err := db.Create(seed).Error; err != nil {
		t.Fatalf("seed config: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}

	configSvc := configservice.New(configservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		Clock: clock.System(),
		Repo:  configrepository.NewRepository(),
	})

	return &Service{
		db:        db,
		log:       zap.NewNop(),
		genID:     node,
		clock:     clock.System(),
		repo:      repository.NewRepository(),
		groupRepo: grouprepository.NewRepository(),
		config:    configSvc,
	}, db
}

func TestCreate_GeneratesCode(t *testing.T) {
	svc, _ := newTestService(t, false)

	created, err := svc.Create(context.Background(), domain.CreateRequest{
		Name:  "Maria Silva",
		Email: "maria@example.com",
	})
	assert.NoError(t, err)
	assert.Equal(t, domain.StatusPending, created.Status)
	assert.Regexp(t, `^[A-Z0-9]{6}$`, created.Code)
}

func TestCreate_AutoApprovalStartsActive(t *testing.T) {
	svc, _ := newTestService(t, true)

	created, err := svc.Create(context.Background(), domain.CreateRequest{
		Name:  "Joao Souza",
		Email: "joao@example.com",
	})
	assert.NoError(t, err)
	assert.Equal(t, domain.StatusActive, created.Status)
}

func TestCreate_NormalizesProvidedCode(t *testing.T) {
	svc, _ := newTestService(t, false)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.CreateRequest{
		Name:  "Ana",
		Email: "ana@example.com",
		Code:  "abc123",
	})
	assert.NoError(t, err)
	assert.Equal(t, "ABC123", created.Code)

	// Same code again, any casing.
	_, err = svc.Create(ctx, domain.CreateRequest{
		Name:  "Bia",
		Email: "bia@example.com",
		Code:  "ABC123",
	})
	assert.ErrorIs(t, err, domain.ErrCodeTaken)

	_, err = svc.Create(ctx, domain.CreateRequest{
		Name:  "Caio",
		Email: "caio@example.com",
		Code:  "ab#12",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidCode)
}

func TestCreate_UniqueEmail(t *testing.T) {
	svc, _ := newTestService(t, false)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.CreateRequest{Name: "A", Email: "dup@example.com"})
	assert.NoError(t, err)

	_, err = svc.Create(ctx, domain.CreateRequest{Name: "B", Email: "Dup@Example.com"})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)

	_, err = svc.Create(ctx, domain.CreateRequest{Name: "C", Email: "not-an-email"})
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)
}

func TestCreate_UnknownGroup(t *testing.T) {
	svc, _ := newTestService(t, false)

	missing := "999999999"
	_, err := svc.Create(context.Background(), domain.CreateRequest{
		Name:    "Ana",
		Email:   "ana2@example.com",
		GroupID: &missing,
	})
	assert.ErrorIs(t, err, domain.ErrGroupNotFound)
}

func TestLifecycleTransitions(t *testing.T) {
	svc, _ := newTestService(t, false)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.CreateRequest{Name: "Ana", Email: "lc@example.com"})
	assert.NoError(t, err)

	// PENDING -> ACTIVE by manual approval.
	approved, err := svc.Approve(ctx, created.ID)
	assert.NoError(t, err)
	assert.Equal(t, domain.StatusActive, approved.Status)

	// Approving twice is not a valid transition.
	_, err = svc.Approve(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	// ACTIVE <-> INACTIVE manual toggle.
	deactivated, err := svc.Deactivate(ctx, created.ID)
	assert.NoError(t, err)
	assert.Equal(t, domain.StatusInactive, deactivated.Status)

	reactivated, err := svc.Activate(ctx, created.ID)
	assert.NoError(t, err)
	assert.Equal(t, domain.StatusActive, reactivated.Status)
}

func TestReject_OnlyFromPending(t *testing.T) {
	svc, _ := newTestService(t, false)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.CreateRequest{Name: "Ana", Email: "rj@example.com"})
	assert.NoError(t, err)

	rejected, err := svc.Reject(ctx, created.ID)
	assert.NoError(t, err)
	assert.Equal(t, domain.StatusInactive, rejected.Status)

	// INACTIVE never goes back to PENDING, and a rejected affiliate
	// cannot be approved.
	_, err = svc.Approve(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestDelete_GuardedByEvents(t *testing.T) {
	svc, db := newTestService(t, false)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.CreateRequest{Name: "Ana", Email: "del@example.com"})
	assert.NoError(t, err)

	affiliateID, err := snowflake.ParseString(created.ID)
	assert.NoError(t, err)
	db.Exec(`INSERT INTO commission_events (id, affiliate_id) VALUES (1, ?)`, int64(affiliateID))

	err = svc.Delete(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrHasEvents)

	db.Exec(`DELETE FROM commission_events WHERE affiliate_id = ?`, int64(affiliateID))

	assert.NoError(t, svc.Delete(ctx, created.ID))
	_, err = svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestList_CursorPagination(t *testing.T) {
	svc, _ := newTestService(t, false)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := svc.Create(ctx, domain.CreateRequest{
			Name:  fmt.Sprintf("Afiliado %d", i),
			Email: fmt.Sprintf("page%d@example.com", i),
		})
		assert.NoError(t, err)
	}

	first, err := svc.List(ctx, domain.ListRequest{})
	assert.NoError(t, err)
	assert.Len(t, first.Items, 5)
	assert.False(t, first.PageInfo.HasMore)

	page, err := svc.List(ctx, domain.ListRequest{
		Pagination: pagination.Pagination{PageSize: 2},
	})
	assert.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.True(t, page.PageInfo.HasMore)

	next, err := svc.List(ctx, domain.ListRequest{
		Pagination: pagination.Pagination{PageSize: 2, PageToken: page.PageInfo.NextPageToken},
	})
	assert.NoError(t, err)
	assert.Len(t, next.Items, 2)
	assert.NotEqual(t, page.Items[0].ID, next.Items[0].ID)
}
