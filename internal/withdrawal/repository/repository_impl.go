package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/maiscriancaoficial/affiliates/internal/withdrawal/domain"
)

type repository struct{}

func NewRepository() domain.Repository {
	return &repository{}
}

func (r *repository) Create(ctx context.Context, db *gorm.DB, req *domain.Request) error {
	return db.WithContext(ctx).Create(req).Error
}

func (r *repository) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Request, error) {
	var req domain.Request
	err := db.WithContext(ctx).Where("id = ?", id).First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

func (r *repository) ListByAffiliate(ctx context.Context, db *gorm.DB, affiliateID snowflake.ID, cursor snowflake.ID, limit int) ([]domain.Request, error) {
	stmt := db.WithContext(ctx).
		Model(&domain.Request{}).
		Where("affiliate_id = ?", affiliateID)
	if cursor != 0 {
		stmt = stmt.Where("id < ?", cursor)
	}

	var reqs []domain.Request
	if err := stmt.Order("id DESC").Limit(limit).Find(&reqs).Error; err != nil {
		return nil, err
	}
	return reqs, nil
}

func (r *repository) ListByStatus(ctx context.Context, db *gorm.DB, status domain.Status, limit int) ([]domain.Request, error) {
	var reqs []domain.Request
	err := db.WithContext(ctx).
		Where("status = ?", status).
		Order("id ASC").
		Limit(limit).
		Find(&reqs).Error
	if err != nil {
		return nil, err
	}
	return reqs, nil
}

func (r *repository) SumInWindow(ctx context.Context, db *gorm.DB, affiliateID snowflake.ID, statuses []domain.Status, from, to time.Time) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Request{}).
		Select("COALESCE(SUM(amount_cents), 0)").
		Where("affiliate_id = ? AND status IN ? AND requested_at >= ? AND requested_at < ?",
			affiliateID, statuses, from, to).
		Scan(&total).Error
	return total, err
}

func (r *repository) MarkPaid(ctx context.Context, db *gorm.DB, id snowflake.ID, paidAt time.Time) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.Request{}).
		Where("id = ? AND status = ?", id, domain.StatusEligible).
		Updates(map[string]interface{}{
			"status":     domain.StatusPaid,
			"paid_at":    paidAt,
			"updated_at": paidAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
