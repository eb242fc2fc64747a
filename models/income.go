package models

import (
	"time"

	"gorm.io/gorm"
)

// Income 收入记录模型
type Income struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	UserID     uint           `json:"user_id" gorm:"index;not null"`
	WalletID   *uint          `json:"wallet_id,omitempty" gorm:"index"`
	PersonID   *uint          `json:"person_id,omitempty" gorm:"index"`
	TagID      *uint          `json:"tag_id,omitempty" gorm:"index"`
	CategoryID *uint          `json:"category_id,omitempty" gorm:"index"`
	Amount     int64          `json:"amount" gorm:"not null"` // 金额，单位：分
	Date       time.Time      `json:"date" gorm:"not null"`
	Text       string         `json:"text" gorm:"size:30"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`
	User       User           `json:"-" gorm:"foreignKey:UserID"`
	Wallet     *Wallet        `json:"wallet,omitempty" gorm:"foreignKey:WalletID"`
	Person     *Person        `json:"person,omitempty" gorm:"foreignKey:PersonID"`
}

// TableName 设置表名
func (Income) TableName() string {
	return "incomes"
}
