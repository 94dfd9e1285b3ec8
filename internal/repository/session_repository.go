package repository

import (
	"reading_coach_backend/internal/model"

	"gorm.io/gorm"
)

type SessionRepository struct {
	DB *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{DB: db}
}

func (r *SessionRepository) Create(session *model.Session) error {
	return r.DB.Create(session).Error
}

func (r *SessionRepository) FindByID(id uint) (*model.Session, error) {
	var session model.Session
	err := r.DB.First(&session, id).Error
	return &session, err
}

func (r *SessionRepository) Update(session *model.Session) error {
	return r.DB.Save(session).Error
}

// OfflineCountByEnrollment 该期课程内已处于线下模式的课次数（上限分母用总课次）
func (r *SessionRepository) OfflineCountByEnrollment(enrollmentID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Session{}).
		Where("enrollment_id = ? AND mode = ? AND status <> ?",
			enrollmentID, model.ModeOffline, model.SessionCancelled).
		Count(&count).Error
	return count, err
}

// NextSessionNumber 期内顺延的课次序号
func (r *SessionRepository) NextSessionNumber(enrollmentID uint) (int, error) {
	var max int
	err := r.DB.Model(&model.Session{}).
		Where("enrollment_id = ?", enrollmentID).
		Select("COALESCE(MAX(session_number), 0)").
		Scan(&max).Error
	return max + 1, err
}

func (r *SessionRepository) FindByCalendarEventID(eventID string) (*model.Session, error) {
	var session model.Session
	err := r.DB.First(&session, "calendar_event_id = ?", eventID).Error
	return &session, err
}

func (r *SessionRepository) ListByCoach(coachID uint, status string, page, limit int) ([]model.Session, int64, error) {
	query := r.DB.Model(&model.Session{}).Where("coach_id = ?", coachID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var sessions []model.Session
	offset := (page - 1) * limit
	err := query.Order("scheduled_at DESC").Offset(offset).Limit(limit).Find(&sessions).Error
	return sessions, total, err
}

// ListPendingOffline 待人工审批的线下转换申请
func (r *SessionRepository) ListPendingOffline(page, limit int) ([]model.Session, int64, error) {
	query := r.DB.Model(&model.Session{}).
		Where("offline_status = ? AND status = ?", model.OfflinePending, model.SessionScheduled)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var sessions []model.Session
	offset := (page - 1) * limit
	err := query.Order("scheduled_at ASC").Offset(offset).Limit(limit).Find(&sessions).Error
	return sessions, total, err
}
