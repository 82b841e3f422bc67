package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/maiscriancaoficial/affiliates/internal/affiliate/domain"
)

type repository struct{}

func NewRepository() domain.Repository {
	return &repository{}
}

func (r *repository) Create(ctx context.Context, db *gorm.DB, affiliate *domain.Affiliate) error {
	return db.WithContext(ctx).Create(affiliate).Error
}

func (r *repository) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Affiliate, error) {
	var affiliate domain.Affiliate
	err := db.WithContext(ctx).Where("id = ?", id).First(&affiliate).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &affiliate, nil
}

func (r *repository) FindByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.Affiliate, error) {
	var affiliate domain.Affiliate
	err := db.WithContext(ctx).Where("email = ?", strings.ToLower(email)).First(&affiliate).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &affiliate, nil
}

func (r *repository) FindByCode(ctx context.Context, db *gorm.DB, code string) (*domain.Affiliate, error) {
	var affiliate domain.Affiliate
	err := db.WithContext(ctx).Where("code = ?", strings.ToUpper(code)).First(&affiliate).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &affiliate, nil
}

func (r *repository) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter, cursor snowflake.ID, limit int) ([]domain.Affiliate, error) {
	stmt := db.WithContext(ctx).Model(&domain.Affiliate{})

	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if filter.GroupID != 0 {
		stmt = stmt.Where("group_id = ?", filter.GroupID)
	}
	if cursor != 0 {
		stmt = stmt.Where("id > ?", cursor)
	}

	var affiliates []domain.Affiliate
	if err := stmt.Order("id ASC").Limit(limit).Find(&affiliates).Error; err != nil {
		return nil, err
	}
	return affiliates, nil
}

func (r *repository) Update(ctx context.Context, db *gorm.DB, affiliate *domain.Affiliate) error {
	// Select forces NULL writes for cleared override and payout columns.
	// Counters and status are deliberately excluded.
	return db.WithContext(ctx).
		Model(affiliate).
		Select("name", "email", "group_id",
			"commission_type", "commission_value", "commission_event",
			"withdrawal_method", "min_withdrawal_cents",
			"pix_key", "bank_name", "bank_agency", "bank_account",
			"custom_link", "monthly_withdrawal_limit_cents", "updated_at").
		Updates(affiliate).Error
}

func (r *repository) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Affiliate{}).Error
}

func (r *repository) ApplyAccrual(ctx context.Context, db *gorm.DB, id snowflake.ID, acc domain.Accrual) error {
	updates := map[string]interface{}{}
	if acc.Clicks != 0 {
		updates["total_clicks"] = gorm.Expr("total_clicks + ?", acc.Clicks)
	}
	if acc.Conversions != 0 {
		updates["total_conversions"] = gorm.Expr("total_conversions + ?", acc.Conversions)
	}
	if acc.Sales != 0 {
		updates["total_sales"] = gorm.Expr("total_sales + ?", acc.Sales)
	}
	if acc.EarnedCents != 0 {
		updates["total_earned_cents"] = gorm.Expr("total_earned_cents + ?", acc.EarnedCents)
	}
	if acc.LastSaleAt != nil {
		updates["last_sale_at"] = *acc.LastSaleAt
	}
	if len(updates) == 0 {
		return nil
	}

	res := db.WithContext(ctx).
		Model(&domain.Affiliate{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *repository) TransitionStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, from, to domain.Status) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.Affiliate{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) CountEvents(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Table("commission_events").
		Where("affiliate_id = ?", id).
		Count(&count).Error
	return count, err
}
