package model

// SessionTemplate 计划活动流程（备课模板），评分时作为"计划"一侧输入
// swagger:model SessionTemplate
type SessionTemplate struct {
	BaseModel
	Name        string `gorm:"size:100;not null" json:"name"`
	Description string `gorm:"size:500" json:"description"`
	Enabled     bool   `gorm:"default:true" json:"enabled"`
}

func (SessionTemplate) TableName() string {
	return "session_templates"
}

// swagger:model TemplateActivity
type TemplateActivity struct {
	BaseModel
	TemplateID      uint   `gorm:"index;not null" json:"templateId"`
	Index           int    `gorm:"column:idx;not null" json:"index"`
	Name            string `gorm:"size:100;not null" json:"name"`
	Purpose         string `gorm:"size:255" json:"purpose"`
	DurationMinutes int    `gorm:"default:0" json:"durationMinutes"`
}

func (TemplateActivity) TableName() string {
	return "template_activities"
}
