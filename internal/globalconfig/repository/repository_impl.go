package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/maiscriancaoficial/affiliates/internal/globalconfig/domain"
)

type repository struct{}

func NewRepository() domain.Repository {
	return &repository{}
}

func (r *repository) Get(ctx context.Context, db *gorm.DB) (*domain.GlobalConfig, error) {
	var cfg domain.GlobalConfig
	err := db.WithContext(ctx).
		Where("id = ?", domain.SingletonID).
		First(&cfg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &cfg, nil
}

func (r *repository) Create(ctx context.Context, db *gorm.DB, cfg *domain.GlobalConfig) error {
	cfg.ID = domain.SingletonID
	return db.WithContext(ctx).Create(cfg).Error
}

// UpdateVersioned replaces the singleton only when the stored version still
// matches expectedVersion. Zero rows affected means a concurrent writer won.
func (r *repository) UpdateVersioned(ctx context.Context, db *gorm.DB, cfg *domain.GlobalConfig, expectedVersion int64) error {
	res := db.WithContext(ctx).
		Model(&domain.GlobalConfig{}).
		Where("id = ? AND version = ?", domain.SingletonID, expectedVersion).
		Updates(map[string]interface{}{
			"version":                       expectedVersion + 1,
			"default_commission_type":       cfg.DefaultCommissionType,
			"default_commission_value":      cfg.DefaultCommissionValue,
			"default_commission_event":      cfg.DefaultCommissionEvent,
			"default_withdrawal_method":     cfg.DefaultWithdrawalMethod,
			"default_min_withdrawal_cents":  cfg.DefaultMinWithdrawalCents,
			"default_processing_days":       cfg.DefaultProcessingDays,
			"cookie_expiration_days":        cfg.CookieExpirationDays,
			"auto_approval":                 cfg.AutoApproval,
			"auto_approval_sales_threshold": cfg.AutoApprovalSalesThreshold,
			"system_active":                 cfg.SystemActive,
			"updated_at":                    cfg.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrConcurrencyConflict
	}
	cfg.Version = expectedVersion + 1
	return nil
}
