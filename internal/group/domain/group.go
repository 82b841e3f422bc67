package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"

	"github.com/maiscriancaoficial/affiliates/internal/policy"
)

var (
	ErrNotFound                = errors.New("group_not_found")
	ErrInvalidID               = errors.New("invalid_id")
	ErrInvalidName             = errors.New("invalid_name")
	ErrGroupInUse              = errors.New("group_in_use")
	ErrInvalidCommissionType   = errors.New("invalid_commission_type")
	ErrInvalidCommissionValue  = errors.New("invalid_commission_value")
	ErrInvalidCommissionEvent  = errors.New("invalid_commission_event")
	ErrInvalidWithdrawalMethod = errors.New("invalid_withdrawal_method")
	ErrInvalidMinWithdrawal    = errors.New("invalid_min_withdrawal")
)

// Group is an admin-managed affiliate tier. Override columns are nullable;
// NULL means "inherit from the global defaults".
type Group struct {
	ID     snowflake.ID `gorm:"primaryKey"`
	Name   string       `gorm:"type:text;not null"`
	Active bool         `gorm:"not null"`

	CommissionType     *policy.CommissionType   `gorm:"column:commission_type;type:text"`
	CommissionValue    *decimal.Decimal         `gorm:"column:commission_value;type:numeric(14,4)"`
	CommissionEvent    *policy.EventType        `gorm:"column:commission_event;type:text"`
	WithdrawalMethod   *policy.WithdrawalMethod `gorm:"column:withdrawal_method;type:text"`
	MinWithdrawalCents *int64                   `gorm:"column:min_withdrawal_cents"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Group) TableName() string { return "groups" }

func (g *Group) Validate() error {
	if g.Name == "" {
		return ErrInvalidName
	}
	if g.CommissionType != nil && !g.CommissionType.Valid() {
		return ErrInvalidCommissionType
	}
	if g.CommissionValue != nil && g.CommissionValue.IsNegative() {
		return ErrInvalidCommissionValue
	}
	if g.CommissionEvent != nil && !g.CommissionEvent.Valid() {
		return ErrInvalidCommissionEvent
	}
	if g.WithdrawalMethod != nil && !g.WithdrawalMethod.Valid() {
		return ErrInvalidWithdrawalMethod
	}
	if g.MinWithdrawalCents != nil && *g.MinWithdrawalCents < 0 {
		return ErrInvalidMinWithdrawal
	}
	return nil
}

// Policy projects the row into the shape the config resolver consumes.
func (g *Group) Policy() policy.GroupPolicy {
	return policy.GroupPolicy{
		Active: g.Active,
		Overrides: policy.Overrides{
			CommissionType:     g.CommissionType,
			CommissionValue:    g.CommissionValue,
			CommissionEvent:    g.CommissionEvent,
			WithdrawalMethod:   g.WithdrawalMethod,
			MinWithdrawalCents: g.MinWithdrawalCents,
		},
	}
}
