package models

import (
	"time"

	"gorm.io/gorm"
)

// User 用户模型
type User struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	Username   string         `json:"username" gorm:"uniqueIndex;size:50;not null"`
	Password   string         `json:"-" gorm:"size:255;not null"`
	Email      string         `json:"email" gorm:"uniqueIndex;size:100;not null"`
	FirstName  string         `json:"first_name" gorm:"size:60"`
	LastName   string         `json:"last_name" gorm:"size:60"`
	BirthDate  *time.Time     `json:"birth_date,omitempty"`
	Gender     string         `json:"gender,omitempty" gorm:"size:10"` // MALE/FEMALE/OTHER
	Occupation string         `json:"occupation,omitempty" gorm:"size:100"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName 设置表名
func (User) TableName() string {
	return "users"
}

// SimpleUser 精简用户信息，用于群组成员、好友列表等嵌套返回
type SimpleUser struct {
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Simple 转换为精简用户信息
func (u *User) Simple() SimpleUser {
	return SimpleUser{
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}
