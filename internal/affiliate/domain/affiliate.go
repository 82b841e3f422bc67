package domain

import (
	"regexp"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"

	"github.com/maiscriancaoficial/affiliates/internal/policy"
)

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusActive, StatusInactive:
		return true
	}
	return false
}

// CodePattern is the canonical referral-code shape. Codes are stored
// uppercase; uniqueness is case-insensitive by construction.
var CodePattern = regexp.MustCompile(`^[A-Z0-9]{6}$`)

// Affiliate is the program member aggregate. Counter columns are mutated
// only through atomic SQL increments inside the commission transaction,
// never by read-modify-write.
type Affiliate struct {
	ID    snowflake.ID `gorm:"primaryKey"`
	Name  string       `gorm:"type:text;not null"`
	Email string       `gorm:"type:text;not null;uniqueIndex"`
	Code  string       `gorm:"type:text;not null;uniqueIndex"`

	Status  Status        `gorm:"type:text;not null;index"`
	GroupID *snowflake.ID `gorm:"column:group_id;index"`

	CommissionType     *policy.CommissionType   `gorm:"column:commission_type;type:text"`
	CommissionValue    *decimal.Decimal         `gorm:"column:commission_value;type:numeric(14,4)"`
	CommissionEvent    *policy.EventType        `gorm:"column:commission_event;type:text"`
	WithdrawalMethod   *policy.WithdrawalMethod `gorm:"column:withdrawal_method;type:text"`
	MinWithdrawalCents *int64                   `gorm:"column:min_withdrawal_cents"`

	PixKey                      *string `gorm:"column:pix_key;type:text"`
	BankName                    *string `gorm:"column:bank_name;type:text"`
	BankAgency                  *string `gorm:"column:bank_agency;type:text"`
	BankAccount                 *string `gorm:"column:bank_account;type:text"`
	CustomLink                  *string `gorm:"column:custom_link;type:text"`
	MonthlyWithdrawalLimitCents *int64  `gorm:"column:monthly_withdrawal_limit_cents"`

	TotalClicks      int64 `gorm:"column:total_clicks;not null"`
	TotalConversions int64 `gorm:"column:total_conversions;not null"`
	TotalSales       int64 `gorm:"column:total_sales;not null"`
	TotalEarnedCents int64 `gorm:"column:total_earned_cents;not null"`

	LastSaleAt *time.Time `gorm:"column:last_sale_at"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Affiliate) TableName() string { return "affiliates" }

func (a *Affiliate) Validate() error {
	if a.Name == "" {
		return ErrInvalidName
	}
	if !CodePattern.MatchString(a.Code) {
		return ErrInvalidCode
	}
	if !a.Status.Valid() {
		return ErrInvalidTransition
	}
	if a.CommissionType != nil && !a.CommissionType.Valid() {
		return ErrInvalidCommissionType
	}
	if a.CommissionValue != nil && a.CommissionValue.IsNegative() {
		return ErrInvalidCommissionValue
	}
	if a.CommissionEvent != nil && !a.CommissionEvent.Valid() {
		return ErrInvalidCommissionEvent
	}
	if a.WithdrawalMethod != nil && !a.WithdrawalMethod.Valid() {
		return ErrInvalidWithdrawalMethod
	}
	if a.MinWithdrawalCents != nil && *a.MinWithdrawalCents < 0 {
		return ErrInvalidMinWithdrawal
	}
	if a.MonthlyWithdrawalLimitCents != nil && *a.MonthlyWithdrawalLimitCents < 0 {
		return ErrInvalidMonthlyLimit
	}
	return nil
}

// Overrides projects the per-affiliate override columns into the shape
// the config resolver consumes.
func (a *Affiliate) Overrides() policy.Overrides {
	return policy.Overrides{
		CommissionType:     a.CommissionType,
		CommissionValue:    a.CommissionValue,
		CommissionEvent:    a.CommissionEvent,
		WithdrawalMethod:   a.WithdrawalMethod,
		MinWithdrawalCents: a.MinWithdrawalCents,
	}
}
