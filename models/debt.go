package models

import (
	"time"

	"gorm.io/gorm"
)

// Debt 欠款记录模型（我欠别人的钱）
type Debt struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	UserID    uint           `json:"user_id" gorm:"index;not null"`
	PersonID  *uint          `json:"person_id,omitempty" gorm:"index"`
	Amount    int64          `json:"amount" gorm:"not null"` // 金额，单位：分
	Text      string         `json:"text" gorm:"size:30"`
	Date      time.Time      `json:"date" gorm:"not null"`
	PayDate   time.Time      `json:"pay_date" gorm:"not null"` // 约定还款日期
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
	User      User           `json:"-" gorm:"foreignKey:UserID"`
	Person    *Person        `json:"person,omitempty" gorm:"foreignKey:PersonID"`
}

// TableName 设置表名
func (Debt) TableName() string {
	return "debts"
}

// Credit 借出记录模型（别人欠我的钱）
type Credit struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	UserID    uint           `json:"user_id" gorm:"index;not null"`
	PersonID  *uint          `json:"person_id,omitempty" gorm:"index"`
	Amount    int64          `json:"amount" gorm:"not null"` // 金额，单位：分
	Text      string         `json:"text" gorm:"size:30"`
	Date      time.Time      `json:"date" gorm:"not null"`
	PayDate   time.Time      `json:"pay_date" gorm:"not null"` // 约定收款日期
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
	User      User           `json:"-" gorm:"foreignKey:UserID"`
	Person    *Person        `json:"person,omitempty" gorm:"foreignKey:PersonID"`
}

// TableName 设置表名
func (Credit) TableName() string {
	return "credits"
}
