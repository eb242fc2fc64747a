package models

import (
	"time"

	"gorm.io/gorm"
)

// Category 收支类别模型（用户自建，支持父子层级）
type Category struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	UserID    uint           `json:"user_id" gorm:"index;not null"`
	Name      string         `json:"name" gorm:"size:60;not null"`
	ParentID  *uint          `json:"parent_id,omitempty" gorm:"index"`
	IsIncome  bool           `json:"is_income" gorm:"default:false"` // true 表示收入类别，false 表示支出类别
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
	User      User           `json:"-" gorm:"foreignKey:UserID"`
	Children  []Category     `json:"children,omitempty" gorm:"-"`
}

// TableName 设置表名
func (Category) TableName() string {
	return "categories"
}
