package model

import (
	"encoding/json"
	"time"
)

type SessionMode string

const (
	ModeOnline  SessionMode = "online"
	ModeOffline SessionMode = "offline"
)

type SessionStatus string

const (
	SessionScheduled SessionStatus = "scheduled"
	SessionCompleted SessionStatus = "completed"
	SessionCancelled SessionStatus = "cancelled"
)

type OfflineRequestStatus string

const (
	OfflineNone         OfflineRequestStatus = "none"
	OfflinePending      OfflineRequestStatus = "pending"
	OfflineApproved     OfflineRequestStatus = "approved"
	OfflineAutoApproved OfflineRequestStatus = "auto_approved"
	OfflineRejected     OfflineRequestStatus = "rejected"
)

type OfflineReason string

const (
	ReasonTravel           OfflineReason = "travel"
	ReasonParentPreference OfflineReason = "parent_preference"
	ReasonConnectivity     OfflineReason = "connectivity"
	ReasonOther            OfflineReason = "other"
)

type ReportConfidence string

const (
	ConfidenceCoachReported ReportConfidence = "coach_reported"
	ConfidenceCoachAudio    ReportConfidence = "coach_audio"
)

// Session 一次一对一辅导课，涵盖从预约到完课的完整生命周期。
// mode 只能通过线下转换状态机变为 offline；adherence_score 完课时至多写入一次。
// swagger:model Session
type Session struct {
	BaseModel
	ChildID       uint  `gorm:"index;not null" json:"childId"`
	CoachID       *uint `gorm:"index" json:"coachId"`
	EnrollmentID  uint  `gorm:"index;not null" json:"enrollmentId"`
	SessionNumber int   `gorm:"not null" json:"sessionNumber"`
	TemplateID    *uint `gorm:"index" json:"templateId"`

	Mode          SessionMode          `gorm:"type:enum('online','offline');default:'online'" json:"mode"`
	Status        SessionStatus        `gorm:"type:enum('scheduled','completed','cancelled');default:'scheduled';index" json:"status"`
	OfflineStatus OfflineRequestStatus `gorm:"type:enum('none','pending','approved','auto_approved','rejected');default:'none'" json:"offlineStatus"`

	// 线下转换申请字段（瞬态决策，直接落在课次上）
	OfflineReason       OfflineReason `gorm:"size:30" json:"offlineReason,omitempty"`
	OfflineDetail       string        `gorm:"size:500" json:"offlineDetail,omitempty"`
	OfflineLocation     string        `gorm:"size:255" json:"offlineLocation,omitempty"`
	OfflineLocationType string        `gorm:"size:30" json:"offlineLocationType,omitempty"`

	ScheduledAt    time.Time  `gorm:"not null;index" json:"scheduledAt"`
	ReportDeadline *time.Time `json:"reportDeadline,omitempty"` // 仅线下批准后设置

	AdherenceScore *float64        `json:"adherenceScore,omitempty"`
	ScoreBreakdown json.RawMessage `gorm:"type:json" json:"scoreBreakdown,omitempty"`

	VoiceNotePath       string           `gorm:"size:255" json:"voiceNotePath,omitempty"`
	ReadingClipPath     string           `gorm:"size:255" json:"readingClipPath,omitempty"`
	TranscriptAvailable bool             `gorm:"default:false" json:"transcriptAvailable"`
	Confidence          ReportConfidence `gorm:"size:20" json:"confidence,omitempty"`

	CompletedAt    *time.Time `json:"completedAt,omitempty"`
	ElapsedSeconds int        `gorm:"default:0" json:"elapsedSeconds"`
	ReportLate     bool       `gorm:"default:false" json:"reportLate"`
	Notes          string     `gorm:"size:1000" json:"notes,omitempty"`

	// 外部协作方关联
	CalendarEventID string `gorm:"size:100;index" json:"calendarEventId,omitempty"`
	BotSessionID    string `gorm:"size:100" json:"botSessionId,omitempty"`
}

func (Session) TableName() string {
	return "sessions"
}
