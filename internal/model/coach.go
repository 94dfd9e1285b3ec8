package model

import (
	"time"
)

type CoachExitStatus string

const (
	ExitNone     CoachExitStatus = "none"
	ExitNoticed  CoachExitStatus = "noticed"  // 已提出离职，不再分配新学员
	ExitComplete CoachExitStatus = "complete" // 已离职
)

// swagger:model Coach
type Coach struct {
	BaseModel
	Name       string          `gorm:"size:100;not null" json:"name"`
	Email      string          `gorm:"size:100;unique;not null" json:"email"`
	Phone      string          `gorm:"size:20" json:"phone"`
	Active     bool            `gorm:"default:true" json:"active"`
	Available  bool            `gorm:"default:true" json:"available"`
	ExitStatus CoachExitStatus `gorm:"type:enum('none','noticed','complete');default:'none'" json:"exitStatus"`
	// 轮询分配依据：最近一次被分配的时间，NULL 排最前
	LastAssignedAt *time.Time `gorm:"index" json:"lastAssignedAt"`
	// 已提交活动记录的完课数（连续记录计数，仅供展示，允许弱一致）
	ActivityLogStreak int `gorm:"default:0" json:"activityLogStreak"`
}

func (Coach) TableName() string {
	return "coaches"
}

// CoachLeave 教练请假区间，分配时按日期排除
type CoachLeave struct {
	BaseModel
	CoachID   uint      `gorm:"index;not null" json:"coachId"`
	StartDate time.Time `gorm:"not null" json:"startDate"`
	EndDate   time.Time `gorm:"not null" json:"endDate"`
	Reason    string    `gorm:"size:255" json:"reason"`
	Approved  bool      `gorm:"default:true" json:"approved"`
}

func (CoachLeave) TableName() string {
	return "coach_leaves"
}
