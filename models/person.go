package models

import (
	"time"

	"gorm.io/gorm"
)

// Person 联系人模型（收支、借贷记录可关联到具体的人）
type Person struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	UserID    uint           `json:"user_id" gorm:"index;not null"`
	FirstName string         `json:"first_name" gorm:"size:60;not null"`
	LastName  string         `json:"last_name" gorm:"size:60"`
	Relation  string         `json:"relation" gorm:"size:60"` // 与用户的关系，如：家人、朋友、同事
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
	User      User           `json:"-" gorm:"foreignKey:UserID"`
}

// TableName 设置表名
func (Person) TableName() string {
	return "persons"
}
