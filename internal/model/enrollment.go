package model

type EnrollmentStatus string

const (
	EnrollmentActive    EnrollmentStatus = "active"
	EnrollmentCompleted EnrollmentStatus = "completed"
	EnrollmentCancelled EnrollmentStatus = "cancelled"
)

// Enrollment 一个孩子购买的一期课程，固定总课次，线下课上限按总课次比例折算
// swagger:model Enrollment
type Enrollment struct {
	BaseModel
	ChildID       uint             `gorm:"index;not null" json:"childId"`
	TotalSessions int              `gorm:"not null" json:"totalSessions"`
	Status        EnrollmentStatus `gorm:"type:enum('active','completed','cancelled');default:'active'" json:"status"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}
