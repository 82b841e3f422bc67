package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/maiscriancaoficial/affiliates/internal/clock"
	"github.com/maiscriancaoficial/affiliates/internal/group/domain"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("group.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	now := s.clock.Now().UTC()

	group := &domain.Group{
		ID:                 s.genID.Generate(),
		Name:               strings.TrimSpace(req.Name),
		Active:             true,
		CommissionType:     req.CommissionType,
		CommissionValue:    req.CommissionValue,
		CommissionEvent:    req.CommissionEvent,
		WithdrawalMethod:   req.WithdrawalMethod,
		MinWithdrawalCents: req.MinWithdrawalCents,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if req.Active != nil {
		group.Active = *req.Active
	}
	if err := group.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, s.db, group); err != nil {
		return nil, err
	}

	s.log.Info("group created", zap.String("group_id", group.ID.String()), zap.String("name", group.Name))
	return s.toResponse(ctx, group)
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	groupID, err := snowflake.ParseString(id)
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	group, err := s.repo.FindByID(ctx, s.db, groupID)
	if err != nil {
		return nil, err
	}
	return s.toResponse(ctx, group)
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.Response, error) {
	groups, err := s.repo.List(ctx, s.db, domain.ListRequest{
		Name:   strings.TrimSpace(req.Name),
		Active: req.Active,
	})
	if err != nil {
		return nil, err
	}

	resp := make([]domain.Response, 0, len(groups))
	for i := range groups {
		item, err := s.toResponse(ctx, &groups[i])
		if err != nil {
			return nil, err
		}
		resp = append(resp, *item)
	}
	return resp, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateRequest) (*domain.Response, error) {
	groupID, err := snowflake.ParseString(req.ID)
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	group, err := s.repo.FindByID(ctx, s.db, groupID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		group.Name = strings.TrimSpace(*req.Name)
	}
	if req.Active != nil {
		group.Active = *req.Active
	}
	group.CommissionType = req.CommissionType
	group.CommissionValue = req.CommissionValue
	group.CommissionEvent = req.CommissionEvent
	group.WithdrawalMethod = req.WithdrawalMethod
	group.MinWithdrawalCents = req.MinWithdrawalCents
	group.UpdatedAt = s.clock.Now().UTC()

	if err := group.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, s.db, group); err != nil {
		return nil, err
	}

	return s.toResponse(ctx, group)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	groupID, err := snowflake.ParseString(id)
	if err != nil {
		return domain.ErrInvalidID
	}

	if _, err := s.repo.FindByID(ctx, s.db, groupID); err != nil {
		return err
	}

	// Delete and membership check run in one transaction so a concurrent
	// assignment cannot slip between them.
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		members, err := s.repo.CountMembers(ctx, tx, groupID)
		if err != nil {
			return err
		}
		if members > 0 {
			return domain.ErrGroupInUse
		}
		return s.repo.Delete(ctx, tx, groupID)
	})
}

func (s *Service) toResponse(ctx context.Context, group *domain.Group) (*domain.Response, error) {
	members, err := s.repo.CountMembers(ctx, s.db, group.ID)
	if err != nil {
		return nil, err
	}

	return &domain.Response{
		ID:                 group.ID.String(),
		Name:               group.Name,
		Active:             group.Active,
		CommissionType:     group.CommissionType,
		CommissionValue:    group.CommissionValue,
		CommissionEvent:    group.CommissionEvent,
		WithdrawalMethod:   group.WithdrawalMethod,
		MinWithdrawalCents: group.MinWithdrawalCents,
		MemberCount:        members,
		CreatedAt:          group.CreatedAt,
		UpdatedAt:          group.UpdatedAt,
	}, nil
}
