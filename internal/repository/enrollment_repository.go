package repository

import (
	"reading_coach_backend/internal/model"

	"gorm.io/gorm"
)

type EnrollmentRepository struct {
	DB *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) *EnrollmentRepository {
	return &EnrollmentRepository{DB: db}
}

func (r *EnrollmentRepository) FindByID(id uint) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	err := r.DB.First(&enrollment, id).Error
	return &enrollment, err
}

func (r *EnrollmentRepository) ActiveForChild(childID uint) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	err := r.DB.Where("child_id = ? AND status = ?", childID, model.EnrollmentActive).
		Order("created_at DESC").
		First(&enrollment).Error
	return &enrollment, err
}
