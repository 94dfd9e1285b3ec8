package repository

import (
	"reading_coach_backend/internal/model"

	"gorm.io/gorm"
)

type ActivityLogRepository struct {
	DB *gorm.DB
}

func NewActivityLogRepository(db *gorm.DB) *ActivityLogRepository {
	return &ActivityLogRepository{DB: db}
}

// BulkCreate 完课时一次性落库，逐条原样保存，不去重不排序
func (r *ActivityLogRepository) BulkCreate(entries []model.ActivityLogEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return r.DB.Create(&entries).Error
}

func (r *ActivityLogRepository) ListBySession(sessionID uint) ([]model.ActivityLogEntry, error) {
	var entries []model.ActivityLogEntry
	err := r.DB.Where("session_id = ?", sessionID).
		Order("idx ASC, created_at ASC").
		Find(&entries).Error
	return entries, err
}

func (r *ActivityLogRepository) CountBySession(sessionID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.ActivityLogEntry{}).
		Where("session_id = ?", sessionID).
		Count(&count).Error
	return count, err
}
