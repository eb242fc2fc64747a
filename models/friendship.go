package models

import (
	"time"

	"gorm.io/gorm"
)

// 好友请求状态
const (
	FriendshipPending  = "PENDING"
	FriendshipAccepted = "ACCEPTED"
	FriendshipRejected = "REJECTED"
)

// Friendship 好友关系模型，(from_user_id, to_user_id) 唯一
type Friendship struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	FromUserID uint           `json:"from_user_id" gorm:"uniqueIndex:uk_from_to;not null"`
	ToUserID   uint           `json:"to_user_id" gorm:"uniqueIndex:uk_from_to;not null"`
	Status     string         `json:"status" gorm:"size:10;not null;default:PENDING"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`
	FromUser   User           `json:"-" gorm:"foreignKey:FromUserID"`
	ToUser     User           `json:"-" gorm:"foreignKey:ToUserID"`
}

// TableName 设置表名
func (Friendship) TableName() string {
	return "friendships"
}
