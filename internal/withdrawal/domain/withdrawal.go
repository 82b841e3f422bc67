package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"

	"github.com/maiscriancaoficial/affiliates/internal/policy"
)

var (
	ErrNotFound         = errors.New("withdrawal_not_found")
	ErrInvalidID        = errors.New("invalid_id")
	ErrInvalidAffiliate = errors.New("invalid_affiliate")
	ErrInvalidAmount    = errors.New("invalid_amount")
	ErrNotEligible      = errors.New("withdrawal_not_eligible")
	ErrAlreadyPaid      = errors.New("withdrawal_already_paid")
)

type Status string

const (
	StatusRequested Status = "REQUESTED"
	StatusEligible  Status = "ELIGIBLE"
	StatusRejected  Status = "REJECTED"
	StatusPaid      Status = "PAID"
)

// Request is one withdrawal attempt. REJECTED and PAID are terminal;
// ELIGIBLE requests stay retryable until the payout transport confirms.
type Request struct {
	ID          snowflake.ID `gorm:"primaryKey"`
	AffiliateID snowflake.ID `gorm:"column:affiliate_id;not null;index"`

	AmountCents int64                   `gorm:"column:amount_cents;not null"`
	Method      policy.WithdrawalMethod `gorm:"column:method;type:text;not null"`

	Status          Status  `gorm:"type:text;not null;index"`
	RejectionReason *string `gorm:"column:rejection_reason;type:text"`

	RequestedAt time.Time  `gorm:"column:requested_at;not null"`
	DecidedAt   *time.Time `gorm:"column:decided_at"`
	PaidAt      *time.Time `gorm:"column:paid_at"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Request) TableName() string { return "withdrawal_requests" }
