package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	affiliatedomain "github.com/maiscriancaoficial/affiliates/internal/affiliate/domain"
	"github.com/maiscriancaoficial/affiliates/internal/clock"
	"github.com/maiscriancaoficial/affiliates/internal/commission/domain"
	configdomain "github.com/maiscriancaoficial/affiliates/internal/globalconfig/domain"
	groupdomain "github.com/maiscriancaoficial/affiliates/internal/group/domain"
	"github.com/maiscriancaoficial/affiliates/internal/observability/metrics"
	"github.com/maiscriancaoficial/affiliates/internal/policy"
	"github.com/maiscriancaoficial/affiliates/pkg/db/pagination"
)

type Params struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	GenID         *snowflake.Node
	Clock         clock.Clock
	Repo          domain.Repository
	AffiliateRepo affiliatedomain.Repository
	GroupRepo     groupdomain.Repository
	Config        configdomain.Service
	Metrics       *metrics.Metrics
}

type Service struct {
	db            *gorm.DB
	log           *zap.Logger
	genID         *snowflake.Node
	clock         clock.Clock
	repo          domain.Repository
	affiliateRepo affiliatedomain.Repository
	groupRepo     groupdomain.Repository
	config        configdomain.Service
	metrics       *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:            p.DB,
		log:           p.Log.Named("commission.service"),
		genID:         p.GenID,
		clock:         p.Clock,
		repo:          p.Repo,
		affiliateRepo: p.AffiliateRepo,
		groupRepo:     p.GroupRepo,
		config:        p.Config,
		metrics:       p.Metrics,
	}
}

// Submit applies one raw tracking event: resolve the effective config,
// compute the commission, and persist the event plus counter bumps in a
// single transaction keyed to the affiliate. Policy rejections come back
// as Result outcomes; only malformed input or storage failures are errors.
func (s *Service) Submit(ctx context.Context, req domain.SubmitRequest) (*domain.Result, error) {
	if !req.EventType.Valid() {
		return nil, domain.ErrInvalidEventType
	}
	if req.GrossCents < 0 {
		return nil, domain.ErrInvalidGross
	}
	if !req.EventType.IsSale() && req.GrossCents != 0 {
		return nil, domain.ErrInvalidGross
	}

	affiliateID, err := s.identify(ctx, req)
	if err != nil {
		return nil, err
	}

	cfg, err := s.config.Current(ctx)
	if err != nil {
		if errors.Is(err, configdomain.ErrNotFound) {
			return nil, domain.ErrConfigMissing
		}
		return nil, err
	}
	if !cfg.SystemActive {
		s.metrics.RecordCommissionEvent(ctx, string(req.EventType), string(domain.OutcomeRejected))
		return &domain.Result{
			Outcome: domain.OutcomeRejected,
			Reason:  domain.ReasonSystemInactive,
		}, nil
	}

	occurredAt := s.clock.Now().UTC()
	if req.OccurredAt != nil {
		occurredAt = req.OccurredAt.UTC()
	}

	var result *domain.Result
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		affiliate, err := s.affiliateRepo.FindByID(ctx, tx, affiliateID)
		if err != nil {
			return err
		}

		effective, err := s.resolve(ctx, tx, affiliate, cfg)
		if err != nil {
			return err
		}

		switch affiliate.Status {
		case affiliatedomain.StatusActive:
			result, err = s.applyActive(ctx, tx, affiliate, effective, req.EventType, req.GrossCents, occurredAt)
		case affiliatedomain.StatusPending:
			result, err = s.applyPending(ctx, tx, affiliate, cfg, effective, req.EventType, req.GrossCents, occurredAt)
		default:
			result = &domain.Result{
				Outcome: domain.OutcomeRejected,
				Reason:  domain.ReasonAffiliateNotActive,
			}
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordCommissionEvent(ctx, string(req.EventType), string(result.Outcome))
	return result, nil
}

// applyActive records the event and, when the event type matches the
// configured trigger, the commission itself.
func (s *Service) applyActive(ctx context.Context, tx *gorm.DB, affiliate *affiliatedomain.Affiliate, effective policy.EffectiveConfig, eventType policy.EventType, grossCents int64, occurredAt time.Time) (*domain.Result, error) {
	amount, commissioned := policy.Calculate(eventType, grossCents, effective)

	event, err := s.insertEvent(ctx, tx, affiliate.ID, effective, eventType, grossCents, amount, commissioned, occurredAt)
	if err != nil {
		return nil, err
	}

	acc := affiliatedomain.Accrual{}
	if eventType == policy.EventClick {
		acc.Clicks = 1
	}
	if eventType.IsSale() {
		acc.Sales = 1
		acc.LastSaleAt = &occurredAt
	}
	if commissioned {
		acc.EarnedCents = amount
		if eventType.IsSale() {
			acc.Conversions = 1
		}
	}
	if err := s.affiliateRepo.ApplyAccrual(ctx, tx, affiliate.ID, acc); err != nil {
		return nil, err
	}

	if !commissioned {
		return &domain.Result{
			Outcome: domain.OutcomeNoCommission,
			Reason:  domain.ReasonEventMismatch,
			EventID: event.ID.String(),
		}, nil
	}

	s.log.Info("commission applied",
		zap.String("affiliate_id", affiliate.ID.String()),
		zap.String("event_type", string(eventType)),
		zap.Int64("amount_cents", amount),
	)
	return &domain.Result{
		Outcome:               domain.OutcomeCommissioned,
		EventID:               event.ID.String(),
		CommissionAmountCents: amount,
		ResolvedConfig:        &effective,
	}, nil
}

// applyPending records sale events without commission so the sales count
// accrues before approval, then flips the affiliate to ACTIVE once the
// auto-approval threshold is reached. Non-sale events are dropped.
func (s *Service) applyPending(ctx context.Context, tx *gorm.DB, affiliate *affiliatedomain.Affiliate, cfg *configdomain.GlobalConfig, effective policy.EffectiveConfig, eventType policy.EventType, grossCents int64, occurredAt time.Time) (*domain.Result, error) {
	result := &domain.Result{
		Outcome: domain.OutcomeRejected,
		Reason:  domain.ReasonAffiliateNotActive,
	}
	if !eventType.IsSale() {
		return result, nil
	}

	event, err := s.insertEvent(ctx, tx, affiliate.ID, effective, eventType, grossCents, 0, false, occurredAt)
	if err != nil {
		return nil, err
	}
	result.EventID = event.ID.String()

	acc := affiliatedomain.Accrual{Sales: 1, LastSaleAt: &occurredAt}
	if err := s.affiliateRepo.ApplyAccrual(ctx, tx, affiliate.ID, acc); err != nil {
		return nil, err
	}

	threshold := cfg.AutoApprovalSalesThreshold
	if cfg.AutoApproval || threshold <= 0 {
		return result, nil
	}
	if affiliate.TotalSales+1 < threshold {
		return result, nil
	}

	changed, err := s.affiliateRepo.TransitionStatus(ctx, tx, affiliate.ID, affiliatedomain.StatusPending, affiliatedomain.StatusActive)
	if err != nil {
		return nil, err
	}
	if changed {
		s.log.Info("affiliate auto approved",
			zap.String("affiliate_id", affiliate.ID.String()),
			zap.Int64("total_sales", affiliate.TotalSales+1),
			zap.Int64("threshold", threshold),
		)
	}
	return result, nil
}

func (s *Service) insertEvent(ctx context.Context, tx *gorm.DB, affiliateID snowflake.ID, effective policy.EffectiveConfig, eventType policy.EventType, grossCents, amount int64, commissioned bool, occurredAt time.Time) (*domain.Event, error) {
	snapshot, err := json.Marshal(effective)
	if err != nil {
		return nil, err
	}

	event := &domain.Event{
		ID:                    s.genID.Generate(),
		AffiliateID:           affiliateID,
		EventType:             eventType,
		GrossAmountCents:      grossCents,
		CommissionAmountCents: amount,
		Commissioned:          commissioned,
		ResolvedConfig:        snapshot,
		OccurredAt:            occurredAt,
		CreatedAt:             s.clock.Now().UTC(),
	}
	if err := s.repo.Create(ctx, tx, event); err != nil {
		return nil, err
	}
	return event, nil
}

// resolve merges affiliate overrides, the active group's overrides and the
// global defaults into the effective config for this event.
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

func (s *Service) identify(ctx context.Context, req domain.SubmitRequest) (snowflake.ID, error) {
	if code := strings.ToUpper(strings.TrimSpace(req.Code)); code != "" {
		affiliate, err := s.affiliateRepo.FindByCode(ctx, s.db, code)
		if err != nil {
			if errors.Is(err, affiliatedomain.ErrNotFound) {
				return 0, domain.ErrInvalidAffiliate
			}
			return 0, err
		}
		return affiliate.ID, nil
	}

	if req.AffiliateID == "" {
		return 0, domain.ErrInvalidAffiliate
	}
	affiliateID, err := snowflake.ParseString(req.AffiliateID)
	if err != nil {
		return 0, domain.ErrInvalidAffiliate
	}
	if _, err := s.affiliateRepo.FindByID(ctx, s.db, affiliateID); err != nil {
		if errors.Is(err, affiliatedomain.ErrNotFound) {
			return 0, domain.ErrInvalidAffiliate
		}
		return 0, err
	}
	return affiliateID, nil
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
			return nil, domain.ErrInvalidAffiliate
		}
		cursor, err = snowflake.ParseString(decoded.ID)
		if err != nil {
			return nil, domain.ErrInvalidAffiliate
		}
	}

	limit := req.PageSize
	if limit <= 0 {
		limit = 50
	}

	events, err := s.repo.ListByAffiliate(ctx, s.db, affiliateID, cursor, limit+1)
	if err != nil {
		return nil, err
	}

	refs := make([]*domain.Event, len(events))
	for i := range events {
		refs[i] = &events[i]
	}
	pageInfo := pagination.BuildCursorPageInfo(refs, limit, func(e *domain.Event) string {
		token, _ := pagination.EncodeCursor(pagination.Cursor{ID: e.ID.String()})
		return token
	})

	if len(events) > limit {
		events = events[:limit]
	}
	items := make([]domain.EventResponse, 0, len(events))
	for i := range events {
		e := &events[i]
		items = append(items, domain.EventResponse{
			ID:                    e.ID.String(),
			AffiliateID:           e.AffiliateID.String(),
			EventType:             e.EventType,
			GrossAmountCents:      e.GrossAmountCents,
			CommissionAmountCents: e.CommissionAmountCents,
			Commissioned:          e.Commissioned,
			OccurredAt:            e.OccurredAt,
		})
	}

	return &domain.ListResponse{Items: items, PageInfo: *pageInfo}, nil
}
