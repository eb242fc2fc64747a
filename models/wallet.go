package models

import (
	"time"

	"gorm.io/gorm"
)

// Wallet 钱包模型
// 余额只允许通过收入/支出的生命周期联动修改，保持「余额 = 所有生效交易的带符号之和」不变式
type Wallet struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	UserID    uint           `json:"user_id" gorm:"index;not null"`
	Name      string         `json:"name" gorm:"size:60;not null"`
	Balance   int64          `json:"balance" gorm:"not null;default:0"` // 余额，单位：分
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
	User      User           `json:"-" gorm:"foreignKey:UserID"`
}

// TableName 设置表名
func (Wallet) TableName() string {
	return "wallets"
}
