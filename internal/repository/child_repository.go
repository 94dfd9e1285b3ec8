package repository

import (
	"reading_coach_backend/internal/model"

	"gorm.io/gorm"
)

type ChildRepository struct {
	DB *gorm.DB
}

func NewChildRepository(db *gorm.DB) *ChildRepository {
	return &ChildRepository{DB: db}
}

func (r *ChildRepository) FindByID(id uint) (*model.Child, error) {
	var child model.Child
	err := r.DB.First(&child, id).Error
	return &child, err
}

func (r *ChildRepository) FindByParentEmail(email string) (*model.Child, error) {
	var child model.Child
	err := r.DB.Where("parent_email = ?", email).First(&child).Error
	return &child, err
}
