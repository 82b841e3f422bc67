package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/maiscriancaoficial/affiliates/internal/policy"
	"github.com/maiscriancaoficial/affiliates/pkg/db/pagination"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, req *Request) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Request, error)
	ListByAffiliate(ctx context.Context, db *gorm.DB, affiliateID snowflake.ID, cursor snowflake.ID, limit int) ([]Request, error)
	ListByStatus(ctx context.Context, db *gorm.DB, status Status, limit int) ([]Request, error)

	// SumInWindow totals amounts for the affiliate in [from, to) across
	// the given statuses.
	SumInWindow(ctx context.Context, db *gorm.DB, affiliateID snowflake.ID, statuses []Status, from, to time.Time) (int64, error)

	// MarkPaid flips ELIGIBLE to PAID; reports whether a row changed.
	MarkPaid(ctx context.Context, db *gorm.DB, id snowflake.ID, paidAt time.Time) (bool, error)
}

type Service interface {
	Submit(ctx context.Context, req SubmitRequest) (*Decision, error)
	ListByAffiliate(ctx context.Context, req ListRequest) (*ListResponse, error)

	// DispatchEligible pushes pending ELIGIBLE requests to the payout
	// transport; failures leave the request ELIGIBLE and retryable.
	DispatchEligible(ctx context.Context, batchSize int) (int, error)
}

type SubmitRequest struct {
	AffiliateID string `json:"affiliate_id"`
	AmountCents int64  `json:"amount_cents"`
}

// Decision is the typed outcome of an eligibility evaluation; callers
// branch on Status rather than on errors.
type Decision struct {
	ID          string                  `json:"id"`
	Status      Status                  `json:"status"`
	Reason      Rejection               `json:"reason,omitempty"`
	AmountCents int64                   `json:"amount_cents"`
	Method      policy.WithdrawalMethod `json:"method"`
	RequestedAt time.Time               `json:"requested_at"`
}

type ListRequest struct {
	pagination.Pagination

	AffiliateID string `form:"-"`
}

type ListResponse struct {
	Items    []Response          `json:"items"`
	PageInfo pagination.PageInfo `json:"page_info"`
}

type Response struct {
	ID          string                  `json:"id"`
	AffiliateID string                  `json:"affiliate_id"`
	AmountCents int64                   `json:"amount_cents"`
	Method      policy.WithdrawalMethod `json:"method"`
	Status      Status                  `json:"status"`
	Reason      *string                 `json:"reason,omitempty"`
	RequestedAt time.Time               `json:"requested_at"`
	DecidedAt   *time.Time              `json:"decided_at,omitempty"`
	PaidAt      *time.Time              `json:"paid_at,omitempty"`
}
