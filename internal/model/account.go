package model

import (
	"time"
)

type AccountRole string

const (
	RoleCoach  AccountRole = "coach"
	RoleParent AccountRole = "parent"
	RoleAdmin  AccountRole = "admin"
)

// swagger:model Account
type Account struct {
	BaseModel
	Name      string      `gorm:"size:100;not null" json:"name"`
	Email     string      `gorm:"size:100;unique;not null" json:"email"`
	Password  string      `gorm:"size:100;not null" json:"-"`
	Role      AccountRole `gorm:"type:enum('coach','parent','admin');default:'coach'" json:"role"`
	CoachID   *uint       `gorm:"index" json:"coachId,omitempty"`
	Disabled  bool        `gorm:"default:false" json:"disabled"`
	LastLogin time.Time   `gorm:"default:CURRENT_TIMESTAMP(3)" json:"lastLogin"`
}

func (Account) TableName() string {
	return "accounts"
}
