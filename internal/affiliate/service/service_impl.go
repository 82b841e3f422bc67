package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/maiscriancaoficial/affiliates/internal/affiliate/domain"
	"github.com/maiscriancaoficial/affiliates/internal/clock"
	configdomain "github.com/maiscriancaoficial/affiliates/internal/globalconfig/domain"
	groupdomain "github.com/maiscriancaoficial/affiliates/internal/group/domain"
	"github.com/maiscriancaoficial/affiliates/pkg/db"
	"github.com/maiscriancaoficial/affiliates/pkg/db/pagination"
)

// maxCodeAttempts bounds collision retries on auto-generated codes.
// 36^6 codes make more than a couple of collisions in a row vanishingly
// unlikely; hitting the bound points at data corruption, not bad luck.
const maxCodeAttempts = 5

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Repo      domain.Repository
	GroupRepo groupdomain.Repository
	Config    configdomain.Service
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	repo      domain.Repository
	groupRepo groupdomain.Repository
	config    configdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("affiliate.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		repo:      p.Repo,
		groupRepo: p.GroupRepo,
		config:    p.Config,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}

	groupID, err := s.resolveGroupID(ctx, req.GroupID)
	if err != nil {
		return nil, err
	}

	code, err := s.resolveCode(ctx, req.Code)
	if err != nil {
		return nil, err
	}

	cfg, err := s.config.Current(ctx)
	if err != nil {
		return nil, err
	}
	status := domain.StatusPending
	if cfg.AutoApproval {
		status = domain.StatusActive
	}

	now := s.clock.Now().UTC()
	affiliate := &domain.Affiliate{
		ID:                          s.genID.Generate(),
		Name:                        strings.TrimSpace(req.Name),
		Email:                       email,
		Code:                        code,
		Status:                      status,
		GroupID:                     groupID,
		CommissionType:              req.CommissionType,
		CommissionValue:             req.CommissionValue,
		CommissionEvent:             req.CommissionEvent,
		WithdrawalMethod:            req.WithdrawalMethod,
		MinWithdrawalCents:          req.MinWithdrawalCents,
		PixKey:                      req.PixKey,
		BankName:                    req.BankName,
		BankAgency:                  req.BankAgency,
		BankAccount:                 req.BankAccount,
		CustomLink:                  req.CustomLink,
		MonthlyWithdrawalLimitCents: req.MonthlyWithdrawalLimitCents,
		CreatedAt:                   now,
		UpdatedAt:                   now,
	}
	if err := affiliate.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, s.db, affiliate); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, s.classifyDuplicate(ctx, email, code)
		}
		return nil, err
	}

	s.log.Info("affiliate created",
		zap.String("affiliate_id", affiliate.ID.String()),
		zap.String("code", affiliate.Code),
		zap.String("status", string(affiliate.Status)),
	)
	return toResponse(affiliate), nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	affiliate, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return toResponse(affiliate), nil
}

func (s *Service) GetByCode(ctx context.Context, code string) (*domain.Response, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !domain.CodePattern.MatchString(code) {
		return nil, domain.ErrInvalidCode
	}
	affiliate, err := s.repo.FindByCode(ctx, s.db, code)
	if err != nil {
		return nil, err
	}
	return toResponse(affiliate), nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (*domain.ListResponse, error) {
	filter := domain.ListFilter{Status: req.Status}
	if req.GroupID != "" {
		groupID, err := snowflake.ParseString(req.GroupID)
		if err != nil {
			return nil, domain.ErrInvalidID
		}
		filter.GroupID = groupID
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

	affiliates, err := s.repo.List(ctx, s.db, filter, cursor, limit+1)
	if err != nil {
		return nil, err
	}

	refs := make([]*domain.Affiliate, len(affiliates))
	for i := range affiliates {
		refs[i] = &affiliates[i]
	}
	pageInfo := pagination.BuildCursorPageInfo(refs, limit, func(a *domain.Affiliate) string {
		token, _ := pagination.EncodeCursor(pagination.Cursor{ID: a.ID.String()})
		return token
	})

	if len(affiliates) > limit {
		affiliates = affiliates[:limit]
	}
	items := make([]domain.Response, 0, len(affiliates))
	for i := range affiliates {
		items = append(items, *toResponse(&affiliates[i]))
	}

	return &domain.ListResponse{Items: items, PageInfo: *pageInfo}, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateRequest) (*domain.Response, error) {
	affiliate, err := s.load(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		affiliate.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		email, err := normalizeEmail(*req.Email)
		if err != nil {
			return nil, err
		}
		affiliate.Email = email
	}

	groupID, err := s.resolveGroupID(ctx, req.GroupID)
	if err != nil {
		return nil, err
	}
	affiliate.GroupID = groupID

	affiliate.CommissionType = req.CommissionType
	affiliate.CommissionValue = req.CommissionValue
	affiliate.CommissionEvent = req.CommissionEvent
	affiliate.WithdrawalMethod = req.WithdrawalMethod
	affiliate.MinWithdrawalCents = req.MinWithdrawalCents
	affiliate.PixKey = req.PixKey
	affiliate.BankName = req.BankName
	affiliate.BankAgency = req.BankAgency
	affiliate.BankAccount = req.BankAccount
	affiliate.CustomLink = req.CustomLink
	affiliate.MonthlyWithdrawalLimitCents = req.MonthlyWithdrawalLimitCents
	affiliate.UpdatedAt = s.clock.Now().UTC()

	if err := affiliate.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, s.db, affiliate); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrEmailTaken
		}
		return nil, err
	}

	return toResponse(affiliate), nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	affiliate, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		events, err := s.repo.CountEvents(ctx, tx, affiliate.ID)
		if err != nil {
			return err
		}
		if events > 0 {
			return domain.ErrHasEvents
		}
		return s.repo.Delete(ctx, tx, affiliate.ID)
	})
}

func (s *Service) Approve(ctx context.Context, id string) (*domain.Response, error) {
	return s.transition(ctx, id, domain.StatusPending, domain.StatusActive)
}

func (s *Service) Reject(ctx context.Context, id string) (*domain.Response, error) {
	return s.transition(ctx, id, domain.StatusPending, domain.StatusInactive)
}

func (s *Service) Activate(ctx context.Context, id string) (*domain.Response, error) {
	return s.transition(ctx, id, domain.StatusInactive, domain.StatusActive)
}

func (s *Service) Deactivate(ctx context.Context, id string) (*domain.Response, error) {
	return s.transition(ctx, id, domain.StatusActive, domain.StatusInactive)
}

func (s *Service) transition(ctx context.Context, id string, from, to domain.Status) (*domain.Response, error) {
	affiliateID, err := snowflake.ParseString(id)
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	changed, err := s.repo.TransitionStatus(ctx, s.db, affiliateID, from, to)
	if err != nil {
		return nil, err
	}

	affiliate, loadErr := s.repo.FindByID(ctx, s.db, affiliateID)
	if loadErr != nil {
		return nil, loadErr
	}
	if !changed {
		return nil, domain.ErrInvalidTransition
	}

	s.log.Info("affiliate status changed",
		zap.String("affiliate_id", id),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)
	return toResponse(affiliate), nil
}

func (s *Service) load(ctx context.Context, id string) (*domain.Affiliate, error) {
	affiliateID, err := snowflake.ParseString(id)
	if err != nil {
		return nil, domain.ErrInvalidID
	}
	return s.repo.FindByID(ctx, s.db, affiliateID)
}

func (s *Service) resolveGroupID(ctx context.Context, raw *string) (*snowflake.ID, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	groupID, err := snowflake.ParseString(*raw)
	if err != nil {
		return nil, domain.ErrGroupNotFound
	}
	if _, err := s.groupRepo.FindByID(ctx, s.db, groupID); err != nil {
		if errors.Is(err, groupdomain.ErrNotFound) {
			return nil, domain.ErrGroupNotFound
		}
		return nil, err
	}
	return &groupID, nil
}

func (s *Service) resolveCode(ctx context.Context, raw string) (string, error) {
	raw = strings.ToUpper(strings.TrimSpace(raw))
	if raw != "" {
		if !domain.CodePattern.MatchString(raw) {
			return "", domain.ErrInvalidCode
		}
		if _, err := s.repo.FindByCode(ctx, s.db, raw); err == nil {
			return "", domain.ErrCodeTaken
		} else if !errors.Is(err, domain.ErrNotFound) {
			return "", err
		}
		return raw, nil
	}

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := generateCode()
		if err != nil {
			return "", err
		}
		if _, err := s.repo.FindByCode(ctx, s.db, code); errors.Is(err, domain.ErrNotFound) {
			return code, nil
		} else if err != nil {
			return "", err
		}
	}
	return "", domain.ErrCodeExhausted
}

// classifyDuplicate figures out which unique index a duplicate-key error
// came from after a racing insert.
func (s *Service) classifyDuplicate(ctx context.Context, email, code string) error {
	if _, err := s.repo.FindByEmail(ctx, s.db, email); err == nil {
		return domain.ErrEmailTaken
	}
	if _, err := s.repo.FindByCode(ctx, s.db, code); err == nil {
		return domain.ErrCodeTaken
	}
	return domain.ErrEmailTaken
}

func normalizeEmail(raw string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(raw))
	if err != nil {
		return "", domain.ErrInvalidEmail
	}
	return strings.ToLower(addr.Address), nil
}

func toResponse(a *domain.Affiliate) *domain.Response {
	resp := &domain.Response{
		ID:                          a.ID.String(),
		Name:                        a.Name,
		Email:                       a.Email,
		Code:                        a.Code,
		Status:                      a.Status,
		CommissionType:              a.CommissionType,
		CommissionValue:             a.CommissionValue,
		CommissionEvent:             a.CommissionEvent,
		WithdrawalMethod:            a.WithdrawalMethod,
		MinWithdrawalCents:          a.MinWithdrawalCents,
		PixKey:                      a.PixKey,
		BankName:                    a.BankName,
		BankAgency:                  a.BankAgency,
		BankAccount:                 a.BankAccount,
		CustomLink:                  a.CustomLink,
		MonthlyWithdrawalLimitCents: a.MonthlyWithdrawalLimitCents,
		TotalClicks:                 a.TotalClicks,
		TotalConversions:            a.TotalConversions,
		TotalSales:                  a.TotalSales,
		TotalEarnedCents:            a.TotalEarnedCents,
		LastSaleAt:                  a.LastSaleAt,
		CreatedAt:                   a.CreatedAt,
		UpdatedAt:                   a.UpdatedAt,
	}
	if a.GroupID != nil {
		groupID := a.GroupID.String()
		resp.GroupID = &groupID
	}
	return resp
}
