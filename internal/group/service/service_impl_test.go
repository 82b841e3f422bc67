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

	"github.com/maiscriancaoficial/affiliates/internal/clock"
	"github.com/maiscriancaoficial/affiliates/internal/group/domain"
	"github.com/maiscriancaoficial/affiliates/internal/group/repository"
	"github.com/maiscriancaoficial/affiliates/internal/policy"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.Group{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	// Minimal membership table for the delete guard and member counts.
	db.Exec(`CREATE TABLE IF NOT EXISTS affiliates (
		id BIGINT PRIMARY KEY,
		group_id BIGINT
	)`)

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}

	return &Service{
		db:    db,
		log:   zap.NewNop(),
		genID: node,
		clock: clock.System(),
		repo:  repository.NewRepository(),
	}, db
}

func TestCreateAndGet(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	value := decimal.NewFromInt(15)
	created, err := svc.Create(ctx, domain.CreateRequest{
		Name:            "Parceiros Premium",
		CommissionValue: &value,
	})
	assert.NoError(t, err)
	assert.True(t, created.Active)
	assert.Equal(t, int64(0), created.MemberCount)

	got, err := svc.Get(ctx, created.ID)
	assert.NoError(t, err)
	assert.Equal(t, "Parceiros Premium", got.Name)
	assert.NotNil(t, got.CommissionValue)
	assert.True(t, value.Equal(*got.CommissionValue))
	assert.Nil(t, got.CommissionType)
}

func TestCreate_Validation(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Create(context.Background(), domain.CreateRequest{Name: "  "})
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	badType := policy.CommissionType("TIERED")
	_, err = svc.Create(context.Background(), domain.CreateRequest{
		Name:           "Bronze",
		CommissionType: &badType,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidCommissionType)
}

func TestUpdate_ClearsOmittedOverrides(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	value := decimal.NewFromInt(20)
	method := policy.WithdrawalTed
	created, err := svc.Create(ctx, domain.CreateRequest{
		Name:             "Ouro",
		CommissionValue:  &value,
		WithdrawalMethod: &method,
	})
	assert.NoError(t, err)

	// Update keeps only the withdrawal method; the value reverts to inherit.
	updated, err := svc.Update(ctx, domain.UpdateRequest{
		ID:               created.ID,
		WithdrawalMethod: &method,
	})
	assert.NoError(t, err)
	assert.Nil(t, updated.CommissionValue)
	assert.NotNil(t, updated.WithdrawalMethod)

	got, err := svc.Get(ctx, created.ID)
	assert.NoError(t, err)
	assert.Nil(t, got.CommissionValue)
}

func TestDelete_GuardedByMembership(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.CreateRequest{Name: "Prata"})
	assert.NoError(t, err)

	groupID, err := snowflake.ParseString(created.ID)
	assert.NoError(t, err)
	db.Exec(`INSERT INTO affiliates (id, group_id) VALUES (1, ?)`, int64(groupID))

	err = svc.Delete(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrGroupInUse)

	got, err := svc.Get(ctx, created.ID)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), got.MemberCount)

	db.Exec(`DELETE FROM affiliates WHERE group_id = ?`, int64(groupID))

	assert.NoError(t, svc.Delete(ctx, created.ID))
	_, err = svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGet_InvalidID(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Get(context.Background(), "not-a-snowflake")
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}
