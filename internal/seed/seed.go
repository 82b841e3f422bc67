package seed

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	configdomain "github.com/maiscriancaoficial/affiliates/internal/globalconfig/domain"
	"github.com/maiscriancaoficial/affiliates/internal/policy"
)

// EnsureGlobalConfig seeds the configuration singleton on first boot so
// the resolver always has a complete bottom layer to fall back to.
func EnsureGlobalConfig(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cfg configdomain.GlobalConfig
		err := tx.WithContext(ctx).
			Where("id = ?", configdomain.SingletonID).
			First(&cfg).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		now := time.Now().UTC()
		cfg = configdomain.GlobalConfig{
			ID:                         configdomain.SingletonID,
			Version:                    1,
			DefaultCommissionType:      policy.CommissionPercentage,
			DefaultCommissionValue:     decimal.NewFromInt(10),
			DefaultCommissionEvent:     policy.EventCheckout,
			DefaultWithdrawalMethod:    policy.WithdrawalPix,
			DefaultMinWithdrawalCents:  5000,
			DefaultProcessingDays:      7,
			CookieExpirationDays:       30,
			AutoApproval:               false,
			AutoApprovalSalesThreshold: 0,
			SystemActive:               true,
			CreatedAt:                  now,
			UpdatedAt:                  now,
		}
		return tx.WithContext(ctx).Create(&cfg).Error
	})
}
