package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/maiscriancaoficial/affiliates/internal/commission/domain"
)

type repository struct{}

func NewRepository() domain.Repository {
	return &repository{}
}

func (r *repository) Create(ctx context.Context, db *gorm.DB, event *domain.Event) error {
	return db.WithContext(ctx).Create(event).Error
}

func (r *repository) ListByAffiliate(ctx context.Context, db *gorm.DB, affiliateID snowflake.ID, cursor snowflake.ID, limit int) ([]domain.Event, error) {
	stmt := db.WithContext(ctx).
		Model(&domain.Event{}).
		Where("affiliate_id = ?", affiliateID)
	if cursor != 0 {
		stmt = stmt.Where("id < ?", cursor)
	}

	var events []domain.Event
	if err := stmt.Order("id DESC").Limit(limit).Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (r *repository) ListAllByAffiliate(ctx context.Context, db *gorm.DB, affiliateID snowflake.ID) ([]domain.Event, error) {
	var events []domain.Event
	err := db.WithContext(ctx).
		Where("affiliate_id = ?", affiliateID).
		Order("id ASC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (r *repository) LatestCommissioned(ctx context.Context, db *gorm.DB, affiliateID snowflake.ID) (*domain.Event, error) {
	var event domain.Event
	err := db.WithContext(ctx).
		Where("affiliate_id = ? AND commissioned = ?", affiliateID, true).
		Order("occurred_at DESC").
		First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &event, nil
}
