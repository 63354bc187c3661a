package repository

import (
	"context"

	"go-extension-dashboard/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AssignmentRepository manages the user_centers join table.
type AssignmentRepository interface {
	GetAssignedCenters(ctx context.Context, userID uuid.UUID) ([]uint, error)
	SetAssignedCenters(ctx context.Context, userID uuid.UUID, centerIDs []uint) error
	FindUsersByCenter(ctx context.Context, centerID uint) ([]uuid.UUID, error)
	CountUsersByCenter(ctx context.Context, centerID uint) (int64, error)
}

type assignmentRepo struct {
	db *gorm.DB
}

func NewAssignmentRepo(db *gorm.DB) AssignmentRepository {
	return &assignmentRepo{db: db}
}

func (r *assignmentRepo) GetAssignedCenters(ctx context.Context, userID uuid.UUID) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Table("user_centers").
		Where("user_id = ?", userID).
		Order("center_id").
		Pluck("center_id", &ids).Error
	return ids, err
}

func (r *assignmentRepo) SetAssignedCenters(ctx context.Context, userID uuid.UUID, centerIDs []uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user model.User
		if err := tx.First(&user, "id = ?", userID).Error; err != nil {
			return err
		}
		if len(centerIDs) == 0 {
			return tx.Model(&user).Association("Centers").Clear()
		}

		var centers []model.Center
		if err := tx.Where("id IN ?", centerIDs).Find(&centers).Error; err != nil {
			return err
		}
		return tx.Model(&user).Association("Centers").Replace(centers)
	})
}

func (r *assignmentRepo) FindUsersByCenter(ctx context.Context, centerID uint) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Table("user_centers").
		Where("center_id = ?", centerID).
		Pluck("user_id", &ids).Error
	return ids, err
}

func (r *assignmentRepo) CountUsersByCenter(ctx context.Context, centerID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Table("user_centers").Where("center_id = ?", centerID).Count(&n).Error
	return n, err
}
