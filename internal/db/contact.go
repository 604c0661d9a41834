package db

import "gorm.io/gorm"

// ContactSubmission 为前台联系表单提交的咨询，只新增不修改。
type ContactSubmission struct {
	gorm.Model
	Name    string `gorm:"not null" json:"name"`
	Email   string `gorm:"not null" json:"email"`
	Message string `gorm:"type:text;not null" json:"message"`
	Client  string `gorm:"size:120" json:"client"`
}

// TableName 返回咨询表名。
func (ContactSubmission) TableName() string {
	return "contacts"
}
