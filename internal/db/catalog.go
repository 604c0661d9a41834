package db

import "gorm.io/gorm"

// Service 描述一项对外提供的服务。
type Service struct {
	gorm.Model
	Title       string   `gorm:"not null" json:"title"`
	Description string   `gorm:"type:text" json:"description"`
	Price       string   `json:"price"`
	Features    []string `gorm:"serializer:json" json:"features"`
}

// TableName 返回服务表名。
func (Service) TableName() string {
	return "services"
}

// PricingPlan 描述一个定价套餐。
type PricingPlan struct {
	gorm.Model
	Title       string   `gorm:"not null" json:"title"`
	Price       string   `json:"price"`
	Description string   `gorm:"type:text" json:"description"`
	Features    []string `gorm:"serializer:json" json:"features"`
	IsPopular   bool     `json:"is_popular"`
	ButtonText  string   `json:"button_text"`
}

// TableName 返回套餐表名。
func (PricingPlan) TableName() string {
	return "pricing_plans"
}
