package model

type ActivityOutcome string

const (
	OutcomeCompleted ActivityOutcome = "completed"
	OutcomePartial   ActivityOutcome = "partial"
	OutcomeSkipped   ActivityOutcome = "skipped"
	OutcomeStruggled ActivityOutcome = "struggled"
)

type ActivitySource string

const (
	SourceCompanionPanel ActivitySource = "companion_panel"
	SourceOfflineReport  ActivitySource = "offline_report"
)

// ActivityLogEntry 完课时按活动逐条落库，只增不改；纠错走新的课次级事件
// swagger:model ActivityLogEntry
type ActivityLogEntry struct {
	BaseModel
	SessionID      uint            `gorm:"index;not null" json:"sessionId"`
	Index          int             `gorm:"column:idx;not null" json:"index"`
	Name           string          `gorm:"size:100;not null" json:"name"`
	Purpose        string          `gorm:"size:255" json:"purpose"`
	Outcome        ActivityOutcome `gorm:"type:enum('completed','partial','skipped','struggled');not null" json:"outcome"`
	PlannedMinutes int             `gorm:"default:0" json:"plannedMinutes"`
	ActualSeconds  int             `gorm:"default:0" json:"actualSeconds"`
	Note           string          `gorm:"size:500" json:"note"`
	Source         ActivitySource  `gorm:"type:enum('companion_panel','offline_report');not null" json:"source"`
}

func (ActivityLogEntry) TableName() string {
	return "activity_log_entries"
}
