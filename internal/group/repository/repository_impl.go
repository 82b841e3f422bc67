package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/maiscriancaoficial/affiliates/internal/group/domain"
)

type repository struct{}

func NewRepository() domain.Repository {
	return &repository{}
}

func (r *repository) Create(ctx context.Context, db *gorm.DB, group *domain.Group) error {
	return db.WithContext(ctx).Create(group).Error
}

func (r *repository) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Group, error) {
	var group domain.Group
	err := db.WithContext(ctx).Where("id = ?", id).First(&group).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &group, nil
}

func (r *repository) List(ctx context.Context, db *gorm.DB, filter domain.ListRequest) ([]domain.Group, error) {
	stmt := db.WithContext(ctx).Model(&domain.Group{})

	if filter.Name != "" {
		stmt = stmt.Where("name LIKE ?", "%"+filter.Name+"%")
	}
	if filter.Active != nil {
		stmt = stmt.Where("active = ?", *filter.Active)
	}

	var groups []domain.Group
	if err := stmt.Order("id ASC").Find(&groups).Error; err != nil {
		return nil, err
	}
	return groups, nil
}

func (r *repository) Update(ctx context.Context, db *gorm.DB, group *domain.Group) error {
	// Select forces NULL writes for cleared override columns.
	return db.WithContext(ctx).
		Model(group).
		Select("name", "active", "commission_type", "commission_value",
			"commission_event", "withdrawal_method", "min_withdrawal_cents", "updated_at").
		Updates(group).Error
}

func (r *repository) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Group{}).Error
}

func (r *repository) CountMembers(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Table("affiliates").
		Where("group_id = ?", id).
		Count(&count).Error
	return count, err
}
