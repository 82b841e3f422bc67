package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/maiscriancaoficial/affiliates/internal/policy"
)

type Repository interface {
	Get(ctx context.Context, db *gorm.DB) (*GlobalConfig, error)
	Create(ctx context.Context, db *gorm.DB, cfg *GlobalConfig) error
	UpdateVersioned(ctx context.Context, db *gorm.DB, cfg *GlobalConfig, expectedVersion int64) error
}

type Service interface {
	Get(ctx context.Context) (*Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)

	// Current returns the live row for other services (commission,
	// withdrawal) that need the kill switch and defaults.
	Current(ctx context.Context) (*GlobalConfig, error)
}

// UpdateRequest replaces the whole singleton (PUT semantics). Version is
// the version the caller read; a mismatch means someone updated first.
type UpdateRequest struct {
	Version int64 `json:"version"`

	DefaultCommissionType     policy.CommissionType   `json:"default_commission_type"`
	DefaultCommissionValue    decimal.Decimal         `json:"default_commission_value"`
	DefaultCommissionEvent    policy.EventType        `json:"default_commission_event"`
	DefaultWithdrawalMethod   policy.WithdrawalMethod `json:"default_withdrawal_method"`
	DefaultMinWithdrawalCents int64                   `json:"default_min_withdrawal_cents"`
	DefaultProcessingDays     int                     `json:"default_processing_days"`

	CookieExpirationDays       int   `json:"cookie_expiration_days"`
	AutoApproval               bool  `json:"auto_approval"`
	AutoApprovalSalesThreshold int64 `json:"auto_approval_sales_threshold"`
	SystemActive               bool  `json:"system_active"`
}

type Response struct {
	Version int64 `json:"version"`

	DefaultCommissionType     policy.CommissionType   `json:"default_commission_type"`
	DefaultCommissionValue    decimal.Decimal         `json:"default_commission_value"`
	DefaultCommissionEvent    policy.EventType        `json:"default_commission_event"`
	DefaultWithdrawalMethod   policy.WithdrawalMethod `json:"default_withdrawal_method"`
	DefaultMinWithdrawalCents int64                   `json:"default_min_withdrawal_cents"`
	DefaultProcessingDays     int                     `json:"default_processing_days"`

	CookieExpirationDays       int   `json:"cookie_expiration_days"`
	AutoApproval               bool  `json:"auto_approval"`
	AutoApprovalSalesThreshold int64 `json:"auto_approval_sales_threshold"`
	SystemActive               bool  `json:"system_active"`

	UpdatedAt time.Time `json:"updated_at"`
}
