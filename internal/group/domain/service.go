package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/maiscriancaoficial/affiliates/internal/policy"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, group *Group) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Group, error)
	List(ctx context.Context, db *gorm.DB, filter ListRequest) ([]Group, error)
	Update(ctx context.Context, db *gorm.DB, group *Group) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	CountMembers(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, error)
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	List(ctx context.Context, req ListRequest) ([]Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	Delete(ctx context.Context, id string) error
}

type ListRequest struct {
	Name   string `form:"name"`
	Active *bool  `form:"active"`
}

type CreateRequest struct {
	Name   string `json:"name"`
	Active *bool  `json:"active"`

	CommissionType     *policy.CommissionType   `json:"commission_type"`
	CommissionValue    *decimal.Decimal         `json:"commission_value"`
	CommissionEvent    *policy.EventType        `json:"commission_event"`
	WithdrawalMethod   *policy.WithdrawalMethod `json:"withdrawal_method"`
	MinWithdrawalCents *int64                   `json:"min_withdrawal_cents"`
}

// UpdateRequest replaces the override set in place. Omitted override fields
// clear back to "inherit".
type UpdateRequest struct {
	ID     string  `json:"id"`
	Name   *string `json:"name,omitempty"`
	Active *bool   `json:"active,omitempty"`

	CommissionType     *policy.CommissionType   `json:"commission_type"`
	CommissionValue    *decimal.Decimal         `json:"commission_value"`
	CommissionEvent    *policy.EventType        `json:"commission_event"`
	WithdrawalMethod   *policy.WithdrawalMethod `json:"withdrawal_method"`
	MinWithdrawalCents *int64                   `json:"min_withdrawal_cents"`
}

type Response struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`

	CommissionType     *policy.CommissionType   `json:"commission_type,omitempty"`
	CommissionValue    *decimal.Decimal         `json:"commission_value,omitempty"`
	CommissionEvent    *policy.EventType        `json:"commission_event,omitempty"`
	WithdrawalMethod   *policy.WithdrawalMethod `json:"withdrawal_method,omitempty"`
	MinWithdrawalCents *int64                   `json:"min_withdrawal_cents,omitempty"`

	MemberCount int64     `json:"member_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
