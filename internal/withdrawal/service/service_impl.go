package service

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	affiliatedomain "github.com/maiscriancaoficial/affiliates/internal/affiliate/domain"
	"github.com/maiscriancaoficial/affiliates/internal/clock"
	commissiondomain "github.com/maiscriancaoficial/affiliates/internal/commission/domain"
	configdomain "github.com/maiscriancaoficial/affiliates/internal/globalconfig/domain"
	groupdomain "github.com/maiscriancaoficial/affiliates/internal/group/domain"
	"github.com/maiscriancaoficial/affiliates/internal/observability/metrics"
	"github.com/maiscriancaoficial/affiliates/internal/policy"
	"github.com/maiscriancaoficial/affiliates/internal/providers/payout"
	"github.com/maiscriancaoficial/affiliates/internal/withdrawal/domain"
	"github.com/maiscriancaoficial/affiliates/pkg/db/pagination"
)

type Params struct {
	fx.In

	DB             *gorm.DB
	Log            *zap.Logger
	GenID          *snowflake.Node
	Clock          clock.Clock
	Repo           domain.Repository
	AffiliateRepo  affiliatedomain.Repository
	GroupRepo      groupdomain.Repository
	CommissionRepo commissiondomain.Repository
	Config         configdomain.Service
	Transport      payout.Transport
	Metrics        *metrics.Metrics
}

type Service struct {
	db             *gorm.DB
	log            *zap.Logger
	genID          *snowflake.Node
	clock          clock.Clock
	repo           domain.Repository
	affiliateRepo  affiliatedomain.Repository
	groupRepo      groupdomain.Repository
	commissionRepo commissiondomain.Repository
	config         configdomain.Service
	transport      payout.Transport
	metrics        *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:             p.DB,
		log:            p.Log.Named("withdrawal.service"),
		genID:          p.GenID,
		clock:          p.Clock,
		repo:           p.Repo,
		affiliateRepo:  p.AffiliateRepo,
		groupRepo:      p.GroupRepo,
		commissionRepo: p.CommissionRepo,
		config:         p.Config,
		transport:      p.Transport,
		metrics:        p.Metrics,
	}
}

// Submit evaluates one withdrawal request against the ordered eligibility
// rules and persists the decided request. Evaluation and insert share a
// transaction so a concurrent commission cannot skew the balance read.
func (s *Service) Submit(ctx context.Context, req domain.SubmitRequest) (*domain.Decision, error) {
	if req.AmountCents <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	affiliateID, err := snowflake.ParseString(req.AffiliateID)
	if err != nil {
		return nil, domain.ErrInvalidAffiliate
	}

	cfg, err := s.config.Current(ctx)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	var decision *domain.Decision
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		affiliate, err := s.affiliateRepo.FindByID(ctx, tx, affiliateID)
		if err != nil {
			if errors.Is(err, affiliatedomain.ErrNotFound) {
				return domain.ErrInvalidAffiliate
			}
			return err
		}

		effective, err := s.resolve(ctx, tx, affiliate, cfg)
		if err != nil {
			return err
		}

		monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		monthEnd := monthStart.AddDate(0, 1, 0)
		withdrawn, err := s.repo.SumInWindow(ctx, tx, affiliate.ID,
			[]domain.Status{domain.StatusEligible, domain.StatusPaid}, monthStart, monthEnd)
		if err != nil {
			return err
		}

		var lastCommissionedAt *time.Time
		latest, err := s.commissionRepo.LatestCommissioned(ctx, tx, affiliate.ID)
		if err != nil {
			return err
		}
		if latest != nil {
			lastCommissionedAt = &latest.OccurredAt
		}

		rejection := domain.CheckWithdrawal(domain.CheckInput{
			RequestedCents:      req.AmountCents,
			TotalEarnedCents:    affiliate.TotalEarnedCents,
			MinWithdrawalCents:  effective.MinWithdrawalCents,
			MonthlyLimitCents:   affiliate.MonthlyWithdrawalLimitCents,
			MonthWithdrawnCents: withdrawn,
			LastCommissionedAt:  lastCommissionedAt,
			ProcessingDays:      effective.ProcessingDays,
			Now:                 now,
		})

		request := &domain.Request{
			ID:          s.genID.Generate(),
			AffiliateID: affiliate.ID,
			AmountCents: req.AmountCents,
			Method:      effective.WithdrawalMethod,
			Status:      domain.StatusEligible,
			RequestedAt: now,
			DecidedAt:   &now,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if rejection != nil {
			reason := string(*rejection)
			request.Status = domain.StatusRejected
			request.RejectionReason = &reason
		}
		if err := s.repo.Create(ctx, tx, request); err != nil {
			return err
		}

		decision = &domain.Decision{
			ID:          request.ID.String(),
			Status:      request.Status,
			AmountCents: request.AmountCents,
			Method:      request.Method,
			RequestedAt: request.RequestedAt,
		}
		if rejection != nil {
			decision.Reason = *rejection
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordWithdrawal(ctx, string(decision.Status))
	s.log.Info("withdrawal decided",
		zap.String("withdrawal_id", decision.ID),
		zap.String("status", string(decision.Status)),
		zap.String("reason", string(decision.Reason)),
	)
	return decision, nil
}

func (s *Service) ListByAffiliate(ctx context.Context, req domain.ListRequest) (*domain.ListResponse, error) {
	affiliateID, err := snowflake.ParseString(req.AffiliateID)
	if err != nil {
		return nil, domain.ErrInvalidAffiliate
	}

	var cursor snowflake.ID
	if req.PageToken != "" {
		decoded, err := pagination.DecodeCursor(req.PageToken)
		if err != nil {
			return nil, domain.ErrInvalidID
		}
		cursor, err = snowflake.ParseString(decoded.ID)
		if err != nil {
			return nil, domain.ErrInvalidID
		}
	}

	limit := req.PageSize
	if limit <= 0 {
		limit = 50
	}

	reqs, err := s.repo.ListByAffiliate(ctx, s.db, affiliateID, cursor, limit+1)
	if err != nil {
		return nil, err
	}

	refs := make([]*domain.Request, len(reqs))
	for i := range reqs {
		refs[i] = &reqs[i]
	}
	pageInfo := pagination.BuildCursorPageInfo(refs, limit, func(r *domain.Request) string {
		token, _ := pagination.EncodeCursor(pagination.Cursor{ID: r.ID.String()})
		return token
	})

	if len(reqs) > limit {
		reqs = reqs[:limit]
	}
	items := make([]domain.Response, 0, len(reqs))
	for i := range reqs {
		items = append(items, toResponse(&reqs[i]))
	}

	return &domain.ListResponse{Items: items, PageInfo: *pageInfo}, nil
}

// DispatchEligible hands ELIGIBLE requests to the payout transport. A
// transport failure leaves the request ELIGIBLE for the next run; success
// flips it to PAID, which is terminal.
func (s *Service) DispatchEligible(ctx context.Context, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = 50
	}

	pending, err := s.repo.ListByStatus(ctx, s.db, domain.StatusEligible, batchSize)
	if err != nil {
		return 0, err
	}

	paid := 0
	for i := range pending {
		request := &pending[i]

		affiliate, err := s.affiliateRepo.FindByID(ctx, s.db, request.AffiliateID)
		if err != nil {
			s.log.Warn("payout skipped: affiliate load failed",
				zap.String("withdrawal_id", request.ID.String()),
				zap.Error(err),
			)
			continue
		}

		inst := payout.Instruction{
			WithdrawalID: request.ID.String(),
			AffiliateID:  affiliate.ID.String(),
			AmountCents:  request.AmountCents,
			Method:       string(request.Method),
		}
		if affiliate.PixKey != nil {
			inst.PixKey = *affiliate.PixKey
		}
		if affiliate.BankName != nil {
			inst.BankName = *affiliate.BankName
		}
		if affiliate.BankAgency != nil {
			inst.BankAgency = *affiliate.BankAgency
		}
		if affiliate.BankAccount != nil {
			inst.BankAccount = *affiliate.BankAccount
		}

		if err := s.transport.Dispatch(ctx, inst); err != nil {
			s.metrics.RecordPayoutDispatch(ctx, "failure")
			s.log.Warn("payout dispatch failed, request stays eligible",
				zap.String("withdrawal_id", request.ID.String()),
				zap.Error(err),
			)
			continue
		}

		changed, err := s.repo.MarkPaid(ctx, s.db, request.ID, s.clock.Now().UTC())
		if err != nil {
			return paid, err
		}
		if changed {
			paid++
			s.metrics.RecordPayoutDispatch(ctx, "success")
		}
	}
	return paid, nil
}

func (s *Service) resolve(ctx context.Context, tx *gorm.DB, affiliate *affiliatedomain.Affiliate, cfg *configdomain.GlobalConfig) (policy.EffectiveConfig, error) {
	var groupPolicy *policy.GroupPolicy
	if affiliate.GroupID != nil {
		group, err := s.groupRepo.FindByID(ctx, tx, *affiliate.GroupID)
		if err != nil && !errors.Is(err, groupdomain.ErrNotFound) {
			return policy.EffectiveConfig{}, err
		}
		if group != nil {
			gp := group.Policy()
			groupPolicy = &gp
		}
	}
	return policy.Resolve(affiliate.Overrides(), groupPolicy, cfg.Defaults()), nil
}

func toResponse(r *domain.Request) domain.Response {
	return domain.Response{
		ID:          r.ID.String(),
		AffiliateID: r.AffiliateID.String(),
		AmountCents: r.AmountCents,
		Method:      r.Method,
		Status:      r.Status,
		Reason:      r.RejectionReason,
		RequestedAt: r.RequestedAt,
		DecidedAt:   r.DecidedAt,
		PaidAt:      r.PaidAt,
	}
}
