package repository

import (
	"context"
	"errors"

	"go-extension-dashboard/internal/model"

	"gorm.io/gorm"
)

type CenterRepository interface {
	FindAll(ctx context.Context) ([]model.Center, error)
	FindActive(ctx context.Context) ([]model.Center, error)
	FindByID(ctx context.Context, id uint) (*model.Center, error)
	FindBySlug(ctx context.Context, slug string) (*model.Center, error)
	FindByIDs(ctx context.Context, ids []uint) ([]model.Center, error)
	Create(ctx context.Context, center *model.Center) error
	Deactivate(ctx context.Context, id uint) error
	SeedDefaults(ctx context.Context) error
}

type centerRepo struct {
	db *gorm.DB
}

func NewCenterRepo(db *gorm.DB) CenterRepository {
	return &centerRepo{db: db}
}

func (r *centerRepo) FindAll(ctx context.Context) ([]model.Center, error) {
	var centers []model.Center
	err := r.db.WithContext(ctx).Order("id").Find(&centers).Error
	return centers, err
}

// FindActive matches model.Center.IsActive: a NULL flag counts as active.
func (r *centerRepo) FindActive(ctx context.Context) ([]model.Center, error) {
	var centers []model.Center
	err := r.db.WithContext(ctx).Where("active IS NULL OR active = ?", true).Order("id").Find(&centers).Error
	return centers, err
}

func (r *centerRepo) FindByID(ctx context.Context, id uint) (*model.Center, error) {
	var center model.Center
	if err := r.db.WithContext(ctx).First(&center, id).Error; err != nil {
		return nil, err
	}
	return &center, nil
}

func (r *centerRepo) FindBySlug(ctx context.Context, slug string) (*model.Center, error) {
	var center model.Center
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&center).Error; err != nil {
		return nil, err
	}
	return &center, nil
}

func (r *centerRepo) FindByIDs(ctx context.Context, ids []uint) ([]model.Center, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var centers []model.Center
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&centers).Error
	return centers, err
}

// Create inserts the center. A new default center takes the flag away
// from the previous one.
func (r *centerRepo) Create(ctx context.Context, center *model.Center) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if center.IsDefault {
			if err := tx.Model(&model.Center{}).Where("is_default = ?", true).Update("is_default", false).Error; err != nil {
				return err
			}
		}
		return tx.Create(center).Error
	})
}

func (r *centerRepo) Deactivate(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Model(&model.Center{}).Where("id = ?", id).Update("active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SeedDefaults creates the default centers that don't exist yet.
func (r *centerRepo) SeedDefaults(ctx context.Context) error {
	db := r.db.WithContext(ctx)
	for _, c := range model.DefaultCenters {
		var existing model.Center
		err := db.Where("slug = ?", c.Slug).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			center := c
			if err := db.Create(&center).Error; err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}
