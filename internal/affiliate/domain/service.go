package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/maiscriancaoficial/affiliates/internal/policy"
	"github.com/maiscriancaoficial/affiliates/pkg/db/pagination"
)

// Accrual is one commission event's contribution to the counter columns.
// It is applied as a single atomic UPDATE.
type Accrual struct {
	Clicks      int64
	Conversions int64
	Sales       int64
	EarnedCents int64
	LastSaleAt  *time.Time
}

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, affiliate *Affiliate) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Affiliate, error)
	FindByEmail(ctx context.Context, db *gorm.DB, email string) (*Affiliate, error)
	FindByCode(ctx context.Context, db *gorm.DB, code string) (*Affiliate, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter, cursor snowflake.ID, limit int) ([]Affiliate, error)
	Update(ctx context.Context, db *gorm.DB, affiliate *Affiliate) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error

	// ApplyAccrual bumps the counters in place (total_x = total_x + ?).
	ApplyAccrual(ctx context.Context, db *gorm.DB, id snowflake.ID, acc Accrual) error

	// TransitionStatus flips status only when the stored status still
	// matches from; reports whether a row changed.
	TransitionStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, from, to Status) (bool, error)

	CountEvents(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, error)
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	GetByCode(ctx context.Context, code string) (*Response, error)
	List(ctx context.Context, req ListRequest) (*ListResponse, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	Delete(ctx context.Context, id string) error

	Approve(ctx context.Context, id string) (*Response, error)
	Reject(ctx context.Context, id string) (*Response, error)
	Activate(ctx context.Context, id string) (*Response, error)
	Deactivate(ctx context.Context, id string) (*Response, error)
}

type ListRequest struct {
	pagination.Pagination

	Status  Status `form:"status"`
	GroupID string `form:"group_id"`
}

// ListFilter is the parsed form of ListRequest handed to the repository.
type ListFilter struct {
	Status  Status
	GroupID snowflake.ID
}

type ListResponse struct {
	Items    []Response          `json:"items"`
	PageInfo pagination.PageInfo `json:"page_info"`
}

type CreateRequest struct {
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Code    string  `json:"code"`
	GroupID *string `json:"group_id"`

	CommissionType     *policy.CommissionType   `json:"commission_type"`
	CommissionValue    *decimal.Decimal         `json:"commission_value"`
	CommissionEvent    *policy.EventType        `json:"commission_event"`
	WithdrawalMethod   *policy.WithdrawalMethod `json:"withdrawal_method"`
	MinWithdrawalCents *int64                   `json:"min_withdrawal_cents"`

	PixKey                      *string `json:"pix_key"`
	BankName                    *string `json:"bank_name"`
	BankAgency                  *string `json:"bank_agency"`
	BankAccount                 *string `json:"bank_account"`
	CustomLink                  *string `json:"custom_link"`
	MonthlyWithdrawalLimitCents *int64  `json:"monthly_withdrawal_limit_cents"`
}

// UpdateRequest edits profile and overrides. Override and payout fields
// follow replace semantics: omitted means cleared back to inherit/unset.
// Status is not editable here; lifecycle endpoints own transitions.
type UpdateRequest struct {
	ID      string  `json:"id"`
	Name    *string `json:"name,omitempty"`
	Email   *string `json:"email,omitempty"`
	GroupID *string `json:"group_id"`

	CommissionType     *policy.CommissionType   `json:"commission_type"`
	CommissionValue    *decimal.Decimal         `json:"commission_value"`
	CommissionEvent    *policy.EventType        `json:"commission_event"`
	WithdrawalMethod   *policy.WithdrawalMethod `json:"withdrawal_method"`
	MinWithdrawalCents *int64                   `json:"min_withdrawal_cents"`

	PixKey                      *string `json:"pix_key"`
	BankName                    *string `json:"bank_name"`
	BankAgency                  *string `json:"bank_agency"`
	BankAccount                 *string `json:"bank_account"`
	CustomLink                  *string `json:"custom_link"`
	MonthlyWithdrawalLimitCents *int64  `json:"monthly_withdrawal_limit_cents"`
}

type Response struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Code    string  `json:"code"`
	Status  Status  `json:"status"`
	GroupID *string `json:"group_id,omitempty"`

	CommissionType     *policy.CommissionType   `json:"commission_type,omitempty"`
	CommissionValue    *decimal.Decimal         `json:"commission_value,omitempty"`
	CommissionEvent    *policy.EventType        `json:"commission_event,omitempty"`
	WithdrawalMethod   *policy.WithdrawalMethod `json:"withdrawal_method,omitempty"`
	MinWithdrawalCents *int64                   `json:"min_withdrawal_cents,omitempty"`

	PixKey                      *string `json:"pix_key,omitempty"`
	BankName                    *string `json:"bank_name,omitempty"`
	BankAgency                  *string `json:"bank_agency,omitempty"`
	BankAccount                 *string `json:"bank_account,omitempty"`
	CustomLink                  *string `json:"custom_link,omitempty"`
	MonthlyWithdrawalLimitCents *int64  `json:"monthly_withdrawal_limit_cents,omitempty"`

	TotalClicks      int64      `json:"total_clicks"`
	TotalConversions int64      `json:"total_conversions"`
	TotalSales       int64      `json:"total_sales"`
	TotalEarnedCents int64      `json:"total_earned_cents"`
	LastSaleAt       *time.Time `json:"last_sale_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
