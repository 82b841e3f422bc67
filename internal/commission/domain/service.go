package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/maiscriancaoficial/affiliates/internal/policy"
	"github.com/maiscriancaoficial/affiliates/pkg/db/pagination"
)

// Outcome classifies what Submit did with an event. Policy rejections are
// routine business answers, not errors; callers branch on them.
type Outcome string

const (
	OutcomeCommissioned Outcome = "COMMISSIONED"
	OutcomeNoCommission Outcome = "NO_COMMISSION"
	OutcomeRejected     Outcome = "REJECTED"
)

type Reason string

const (
	ReasonEventMismatch      Reason = "event_mismatch"
	ReasonSystemInactive     Reason = "system_inactive"
	ReasonAffiliateNotActive Reason = "affiliate_not_active"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, event *Event) error
	ListByAffiliate(ctx context.Context, db *gorm.DB, affiliateID snowflake.ID, cursor snowflake.ID, limit int) ([]Event, error)
	// ListAllByAffiliate streams the full log, oldest first, for
	// projection recomputation.
	ListAllByAffiliate(ctx context.Context, db *gorm.DB, affiliateID snowflake.ID) ([]Event, error)
	LatestCommissioned(ctx context.Context, db *gorm.DB, affiliateID snowflake.ID) (*Event, error)
}

type Service interface {
	Submit(ctx context.Context, req SubmitRequest) (*Result, error)
	ListByAffiliate(ctx context.Context, req ListRequest) (*ListResponse, error)
}

// SubmitRequest is the webhook payload. Either AffiliateID or Code
// identifies the affiliate; Code wins tracking links.
type SubmitRequest struct {
	AffiliateID string           `json:"affiliate_id"`
	Code        string           `json:"code"`
	EventType   policy.EventType `json:"event_type"`
	GrossCents  int64            `json:"gross_amount_cents"`
	OccurredAt  *time.Time       `json:"occurred_at"`
}

type Result struct {
	Outcome Outcome `json:"outcome"`
	Reason  Reason  `json:"reason,omitempty"`

	EventID               string                  `json:"event_id,omitempty"`
	CommissionAmountCents int64                   `json:"commission_amount_cents"`
	ResolvedConfig        *policy.EffectiveConfig `json:"resolved_config,omitempty"`
}

type ListRequest struct {
	pagination.Pagination

	AffiliateID string `form:"-"`
}

type ListResponse struct {
	Items    []EventResponse     `json:"items"`
	PageInfo pagination.PageInfo `json:"page_info"`
}

type EventResponse struct {
	ID                    string           `json:"id"`
	AffiliateID           string           `json:"affiliate_id"`
	EventType             policy.EventType `json:"event_type"`
	GrossAmountCents      int64            `json:"gross_amount_cents"`
	CommissionAmountCents int64            `json:"commission_amount_cents"`
	Commissioned          bool             `json:"commissioned"`
	OccurredAt            time.Time        `json:"occurred_at"`
}
