// Package policy holds the commission/withdrawal policy value objects and the
// pure functions over them: three-tier override resolution and commission
// calculation. Nothing in this package touches storage.
package policy

import (
	"github.com/shopspring/decimal"
)

// CommissionType selects how a commission amount is derived.
type CommissionType string

const (
	CommissionPercentage CommissionType = "PERCENTAGE"
	CommissionFixed      CommissionType = "FIXED"
)

func (t CommissionType) Valid() bool {
	switch t {
	case CommissionPercentage, CommissionFixed:
		return true
	default:
		return false
	}
}

// EventType classifies the business occurrence behind a commission event.
type EventType string

const (
	EventAccess   EventType = "ACCESS"
	EventClick    EventType = "CLICK"
	EventCheckout EventType = "CHECKOUT"
	EventCoupon   EventType = "COUPON"
)

func (t EventType) Valid() bool {
	switch t {
	case EventAccess, EventClick, EventCheckout, EventCoupon:
		return true
	default:
		return false
	}
}

// IsSale reports whether the event represents a completed purchase.
func (t EventType) IsSale() bool {
	return t == EventCheckout || t == EventCoupon
}

// WithdrawalMethod is the payout rail used for withdrawals.
type WithdrawalMethod string

const (
	WithdrawalPix    WithdrawalMethod = "PIX"
	WithdrawalTed    WithdrawalMethod = "TED"
	WithdrawalBoleto WithdrawalMethod = "BOLETO"
)

func (m WithdrawalMethod) Valid() bool {
	switch m {
	case WithdrawalPix, WithdrawalTed, WithdrawalBoleto:
		return true
	default:
		return false
	}
}

// Overrides is the optional per-tier policy fragment. A nil field means
// "inherit from the tier below".
type Overrides struct {
	CommissionType     *CommissionType
	CommissionValue    *decimal.Decimal
	CommissionEvent    *EventType
	WithdrawalMethod   *WithdrawalMethod
	MinWithdrawalCents *int64
}

// Defaults is the global tier. Every field is mandatory, which is what makes
// resolution total.
type Defaults struct {
	CommissionType     CommissionType
	CommissionValue    decimal.Decimal
	CommissionEvent    EventType
	WithdrawalMethod   WithdrawalMethod
	MinWithdrawalCents int64
	ProcessingDays     int
}

// GroupPolicy is the group tier: a named cohort's overrides plus its enabled
// flag. A disabled group stops granting its terms without detaching members.
type GroupPolicy struct {
	Active    bool
	Overrides Overrides
}

// EffectiveConfig is the fully resolved, per-affiliate policy. All fields are
// always populated.
type EffectiveConfig struct {
	CommissionType     CommissionType   `json:"commission_type"`
	CommissionValue    decimal.Decimal  `json:"commission_value"`
	CommissionEvent    EventType        `json:"commission_event"`
	WithdrawalMethod   WithdrawalMethod `json:"withdrawal_method"`
	MinWithdrawalCents int64            `json:"min_withdrawal_cents"`
	ProcessingDays     int              `json:"processing_days"`
}
