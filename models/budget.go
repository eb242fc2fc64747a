package models

import (
	"time"

	"gorm.io/gorm"
)

// Budget 月度预算模型，可针对某个类别单独设置
type Budget struct {
	ID            uint           `json:"id" gorm:"primaryKey"`
	UserID        uint           `json:"user_id" gorm:"index;not null"`
	MonthlyBudget int64          `json:"monthly_budget" gorm:"not null"` // 月度预算金额，单位：分
	CategoryID    *uint          `json:"category_id,omitempty" gorm:"index"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"-" gorm:"index"`
	User          User           `json:"-" gorm:"foreignKey:UserID"`
}

// TableName 设置表名
func (Budget) TableName() string {
	return "budgets"
}
