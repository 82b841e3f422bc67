package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"

	"github.com/maiscriancaoficial/affiliates/internal/policy"
)

var (
	ErrInvalidAffiliate = errors.New("invalid_affiliate")
	ErrInvalidEventType = errors.New("invalid_event_type")
	ErrInvalidGross     = errors.New("invalid_gross_amount")
	ErrConfigMissing    = errors.New("config_missing")
)

// Event is an append-only commission fact. Once written it is never
// mutated; later configuration changes do not touch history, which is why
// the resolved config travels with the row.
type Event struct {
	ID          snowflake.ID `gorm:"primaryKey"`
	AffiliateID snowflake.ID `gorm:"column:affiliate_id;not null;index"`

	EventType             policy.EventType `gorm:"column:event_type;type:text;not null"`
	GrossAmountCents      int64            `gorm:"column:gross_amount_cents;not null"`
	CommissionAmountCents int64            `gorm:"column:commission_amount_cents;not null"`
	Commissioned          bool             `gorm:"column:commissioned;not null"`

	ResolvedConfig datatypes.JSON `gorm:"column:resolved_config;not null"`

	OccurredAt time.Time `gorm:"column:occurred_at;not null;index"`
	CreatedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Event) TableName() string { return "commission_events" }
