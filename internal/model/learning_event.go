package model

import (
	"encoding/json"
	"fmt"
	"time"
)

type LearningEventType string

const (
	EventSession      LearningEventType = "session"
	EventStruggleFlag LearningEventType = "struggle_flag"
)

// LearningEvent 孩子维度的只增事实。
// 课次级事实（type=session）全局唯一，伴学记录与机器人转写记录合并到同一条；
// 挣扎标记（type=struggle_flag）一次活动一条，不去重。
// swagger:model LearningEvent
type LearningEvent struct {
	BaseModel
	ChildID   uint              `gorm:"index;not null" json:"childId"`
	SessionID *uint             `gorm:"index" json:"sessionId,omitempty"`
	EventType LearningEventType `gorm:"size:30;not null" json:"eventType"`
	Source    string            `gorm:"size:30" json:"source"`
	Payload   json.RawMessage   `gorm:"type:json" json:"payload"`

	// 课次级事实的合并键，struggle_flag 留空（MySQL 唯一索引允许多个 NULL）
	MergeKey *string `gorm:"size:64;uniqueIndex" json:"-"`

	MergedAt    *time.Time `json:"mergedAt,omitempty"`
	SubmittedBy *uint      `json:"submittedBy,omitempty"`
}

func (LearningEvent) TableName() string {
	return "learning_events"
}

// SessionMergeKey 课次级事实的自然合并键
func SessionMergeKey(sessionID uint) string {
	return fmt.Sprintf("session:%d", sessionID)
}
