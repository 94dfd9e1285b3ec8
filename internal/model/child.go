package model

// swagger:model Child
type Child struct {
	BaseModel
	Name        string `gorm:"size:100;not null" json:"name"`
	Age         int    `gorm:"default:0" json:"age"`
	Grade       string `gorm:"size:20" json:"grade"`
	ParentName  string `gorm:"size:100" json:"parentName"`
	ParentEmail string `gorm:"size:100;index" json:"parentEmail"`
	ParentPhone string `gorm:"size:20" json:"parentPhone"`
}

func (Child) TableName() string {
	return "children"
}
