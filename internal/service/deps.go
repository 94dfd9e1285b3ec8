package service

import (
	"context"
	"reading_coach_backend/internal/config"
	"reading_coach_backend/internal/model"
	"time"
)

// 业务服务只依赖这里的窄接口；gorm 仓库是默认实现。
// 轮询盖章、原子自增这类易竞争的写操作被隔离在接口后，
// 后续换成条件更新时调用方不用动。

type CoachStore interface {
	FindByID(id uint) (*model.Coach, error)
	OnLeave(date time.Time) ([]uint, error)
	NextEligible(exclude []uint) (*model.Coach, error)
	StampAssigned(coachID uint, at time.Time) error
	IncrementStreak(coachID uint) error
	QualifiedOnlineSessionCount(coachID uint, minScore float64) (int64, error)
}

type SessionStore interface {
	Create(session *model.Session) error
	FindByID(id uint) (*model.Session, error)
	Update(session *model.Session) error
	OfflineCountByEnrollment(enrollmentID uint) (int64, error)
	NextSessionNumber(enrollmentID uint) (int, error)
}

type EnrollmentStore interface {
	FindByID(id uint) (*model.Enrollment, error)
	ActiveForChild(childID uint) (*model.Enrollment, error)
}

type ChildStore interface {
	FindByID(id uint) (*model.Child, error)
	FindByParentEmail(email string) (*model.Child, error)
}

type TemplateStore interface {
	Activities(templateID uint) ([]model.TemplateActivity, error)
	DefaultTemplate() (*model.SessionTemplate, error)
}

type ActivityLogStore interface {
	BulkCreate(entries []model.ActivityLogEntry) error
}

type LearningEventStore interface {
	Create(event *model.LearningEvent) error
	Update(event *model.LearningEvent) error
	FindSessionEvent(sessionID uint) (*model.LearningEvent, error)
}

// 外部协作方，全部 JSON-over-HTTP，失败按尽力而为处理

type CalendarClient interface {
	// MarkOffline 移除视频链接、改为线下地点
	MarkOffline(ctx context.Context, eventID, location string) error
}

type RecorderBotClient interface {
	Schedule(ctx context.Context, eventID string, startAt time.Time) (string, error)
	Cancel(ctx context.Context, botID string) error
}

type ParentNotifier interface {
	SendParentMessage(ctx context.Context, child *model.Child, text string) error
}

type Transcriber interface {
	Transcribe(ctx context.Context, audioURL string) (string, error)
	AnalyzeReading(ctx context.Context, audioURL string) (*ReadingAnalysis, error)
}

type SummaryEnqueuer interface {
	EnqueueSummary(ctx context.Context, job *SummaryJob, delay time.Duration) error
}

// SettingsProvider 每个请求解析一次业务阈值，测试可注入固定值
type SettingsProvider interface {
	Coaching(ctx context.Context) config.CoachingConfig
}
