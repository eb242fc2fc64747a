package models

import (
	"time"

	"gorm.io/gorm"
)

// Message 私信模型
type Message struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	SenderID    uint           `json:"sender_id" gorm:"index;not null"`
	RecipientID uint           `json:"recipient_id" gorm:"index;not null"`
	Content     string         `json:"content" gorm:"type:text;not null"`
	IsRead      bool           `json:"is_read" gorm:"default:false;index"`
	CreatedAt   time.Time      `json:"created_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
	Sender      User           `json:"-" gorm:"foreignKey:SenderID"`
	Recipient   User           `json:"-" gorm:"foreignKey:RecipientID"`
}

// TableName 设置表名
func (Message) TableName() string {
	return "messages"
}
