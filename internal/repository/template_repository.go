package repository

import (
	"reading_coach_backend/internal/model"

	"gorm.io/gorm"
)

type TemplateRepository struct {
	DB *gorm.DB
}

func NewTemplateRepository(db *gorm.DB) *TemplateRepository {
	return &TemplateRepository{DB: db}
}

func (r *TemplateRepository) FindByID(id uint) (*model.SessionTemplate, error) {
	var tpl model.SessionTemplate
	err := r.DB.First(&tpl, id).Error
	return &tpl, err
}

// DefaultTemplate 新课次默认挂接的第一个启用模板，没有则返回 (nil, nil)
func (r *TemplateRepository) DefaultTemplate() (*model.SessionTemplate, error) {
	var tpl model.SessionTemplate
	err := r.DB.Where("enabled = ?", true).Order("id ASC").First(&tpl).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tpl, nil
}

func (r *TemplateRepository) Activities(templateID uint) ([]model.TemplateActivity, error) {
	var activities []model.TemplateActivity
	err := r.DB.Where("template_id = ?", templateID).
		Order("idx ASC").
		Find(&activities).Error
	return activities, err
}
