package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/maiscriancaoficial/affiliates/internal/policy"
)

// SingletonID is the fixed primary key of the one-and-only config row.
// The row is seeded at startup and never deleted, only updated.
const SingletonID int64 = 1

// GlobalConfig is the process-wide default commission policy plus the
// program-level switches (kill switch, auto approval). Admin updates go
// through optimistic versioning; a stale version loses the race and the
// caller must re-read.
type GlobalConfig struct {
	ID      int64 `gorm:"primaryKey"`
	Version int64 `gorm:"not null;default:1"`

	DefaultCommissionType     policy.CommissionType   `gorm:"column:default_commission_type;type:text;not null"`
	DefaultCommissionValue    decimal.Decimal         `gorm:"column:default_commission_value;type:numeric(14,4);not null"`
	DefaultCommissionEvent    policy.EventType        `gorm:"column:default_commission_event;type:text;not null"`
	DefaultWithdrawalMethod   policy.WithdrawalMethod `gorm:"column:default_withdrawal_method;type:text;not null"`
	DefaultMinWithdrawalCents int64                   `gorm:"column:default_min_withdrawal_cents;not null"`
	DefaultProcessingDays     int                     `gorm:"column:default_processing_days;not null"`

	CookieExpirationDays       int   `gorm:"column:cookie_expiration_days;not null"`
	AutoApproval               bool  `gorm:"column:auto_approval;not null"`
	AutoApprovalSalesThreshold int64 `gorm:"column:auto_approval_sales_threshold;not null"`
	SystemActive               bool  `gorm:"column:system_active;not null"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (GlobalConfig) TableName() string { return "global_config" }

func (c *GlobalConfig) Validate() error {
	if !c.DefaultCommissionType.Valid() {
		return ErrInvalidCommissionType
	}
	if c.DefaultCommissionValue.IsNegative() {
		return ErrInvalidCommissionValue
	}
	if c.DefaultCommissionType == policy.CommissionPercentage &&
		c.DefaultCommissionValue.GreaterThan(decimal.NewFromInt(100)) {
		return ErrInvalidCommissionValue
	}
	if !c.DefaultCommissionEvent.Valid() {
		return ErrInvalidCommissionEvent
	}
	if !c.DefaultWithdrawalMethod.Valid() {
		return ErrInvalidWithdrawalMethod
	}
	if c.DefaultMinWithdrawalCents < 0 {
		return ErrInvalidMinWithdrawal
	}
	if c.DefaultProcessingDays < 0 {
		return ErrInvalidProcessingDays
	}
	if c.CookieExpirationDays < 0 {
		return ErrInvalidCookieExpiration
	}
	if c.AutoApprovalSalesThreshold < 0 {
		return ErrInvalidSalesThreshold
	}
	return nil
}

// Defaults projects the row into the shape the config resolver consumes.
func (c *GlobalConfig) Defaults() policy.Defaults {
	return policy.Defaults{
		CommissionType:     c.DefaultCommissionType,
		CommissionValue:    c.DefaultCommissionValue,
		CommissionEvent:    c.DefaultCommissionEvent,
		WithdrawalMethod:   c.DefaultWithdrawalMethod,
		MinWithdrawalCents: c.DefaultMinWithdrawalCents,
		ProcessingDays:     c.DefaultProcessingDays,
	}
}
