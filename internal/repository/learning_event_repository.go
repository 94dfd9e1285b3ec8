package repository

import (
	"errors"
	"reading_coach_backend/internal/model"

	"gorm.io/gorm"
)

type LearningEventRepository struct {
	DB *gorm.DB
}

func NewLearningEventRepository(db *gorm.DB) *LearningEventRepository {
	return &LearningEventRepository{DB: db}
}

func (r *LearningEventRepository) Create(event *model.LearningEvent) error {
	return r.DB.Create(event).Error
}

func (r *LearningEventRepository) Update(event *model.LearningEvent) error {
	return r.DB.Save(event).Error
}

// FindSessionEvent 按合并键查课次级事实，未找到返回 (nil, nil)
func (r *LearningEventRepository) FindSessionEvent(sessionID uint) (*model.LearningEvent, error) {
	var event model.LearningEvent
	key := model.SessionMergeKey(sessionID)
	err := r.DB.Where("merge_key = ?", key).First(&event).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *LearningEventRepository) ListByChild(childID uint, eventType model.LearningEventType, limit int) ([]model.LearningEvent, error) {
	query := r.DB.Where("child_id = ?", childID)
	if eventType != "" {
		query = query.Where("event_type = ?", eventType)
	}
	var events []model.LearningEvent
	err := query.Order("created_at DESC").Limit(limit).Find(&events).Error
	return events, err
}
