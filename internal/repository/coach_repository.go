package repository

import (
	"reading_coach_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type CoachRepository struct {
	DB *gorm.DB
}

func NewCoachRepository(db *gorm.DB) *CoachRepository {
	return &CoachRepository{DB: db}
}

func (r *CoachRepository) FindByID(id uint) (*model.Coach, error) {
	var coach model.Coach
	err := r.DB.First(&coach, id).Error
	return &coach, err
}

// OnLeave 指定日期处于请假区间内的教练ID集合
func (r *CoachRepository) OnLeave(date time.Time) ([]uint, error) {
	var ids []uint
	day := date.Format("2006-01-02")
	err := r.DB.Model(&model.CoachLeave{}).
		Where("approved = ? AND DATE(start_date) <= ? AND DATE(end_date) >= ?", true, day, day).
		Distinct().
		Pluck("coach_id", &ids).Error
	return ids, err
}

// NextEligible 轮询取最久未被分配的可用教练，NULL 最先。
// 未命中返回 (nil, nil)，由调用方回退到人工分配。
func (r *CoachRepository) NextEligible(exclude []uint) (*model.Coach, error) {
	query := r.DB.Model(&model.Coach{}).
		Where("active = ? AND available = ? AND exit_status = ?", true, true, model.ExitNone)
	if len(exclude) > 0 {
		query = query.Where("id NOT IN ?", exclude)
	}

	var coaches []model.Coach
	err := query.
		Order("last_assigned_at IS NULL DESC").
		Order("last_assigned_at ASC").
		Limit(1).
		Find(&coaches).Error
	if err != nil {
		return nil, err
	}
	if len(coaches) == 0 {
		return nil, nil
	}
	return &coaches[0], nil
}

// StampAssigned 使用结果后由调用方显式盖章，驱动下一次轮询
func (r *CoachRepository) StampAssigned(coachID uint, at time.Time) error {
	return r.DB.Model(&model.Coach{}).
		Where("id = ?", coachID).
		UpdateColumn("last_assigned_at", at).Error
}

// IncrementStreak 数据库侧原子自增，避免应用层读改写丢失更新
func (r *CoachRepository) IncrementStreak(coachID uint) error {
	return r.DB.Model(&model.Coach{}).
		Where("id = ?", coachID).
		UpdateColumn("activity_log_streak", gorm.Expr("activity_log_streak + ?", 1)).Error
}

// QualifiedOnlineSessionCount 线下转换资质：已完成的线上课里达标分数的数量
func (r *CoachRepository) QualifiedOnlineSessionCount(coachID uint, minScore float64) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Session{}).
		Where("coach_id = ? AND status = ? AND mode = ? AND adherence_score >= ?",
			coachID, model.SessionCompleted, model.ModeOnline, minScore).
		Count(&count).Error
	return count, err
}
