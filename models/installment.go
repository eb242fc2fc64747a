package models

import (
	"time"

	"gorm.io/gorm"
)

// 分期还款状态
const (
	InstallmentPaid   = "paid"
	InstallmentUnpaid = "unpaid"
)

// Installment 分期付款模型
type Installment struct {
	ID        uint                `json:"id" gorm:"primaryKey"`
	UserID    uint                `json:"user_id" gorm:"index;not null"`
	PersonID  *uint               `json:"person_id,omitempty" gorm:"index"`
	Amount    int64               `json:"amount" gorm:"not null"` // 总金额，单位：分
	Text      string              `json:"text" gorm:"size:30"`
	FirstDate time.Time           `json:"first_date" gorm:"not null"` // 首期还款日期
	PayPeriod int                 `json:"pay_period" gorm:"not null"` // 还款周期（月），1=每月，2=每两月
	InstNum   int                 `json:"inst_num" gorm:"not null"`   // 期数
	InstRate  *int                `json:"inst_rate,omitempty"`        // 利率（百分比），可为空
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
	DeletedAt gorm.DeletedAt      `json:"-" gorm:"index"`
	User      User                `json:"-" gorm:"foreignKey:UserID"`
	Details   []InstallmentDetail `json:"details,omitempty" gorm:"foreignKey:InstallmentID"`
}

// TableName 设置表名
func (Installment) TableName() string {
	return "installments"
}

// InstallmentDetail 分期明细模型，每期一条
type InstallmentDetail struct {
	ID            uint           `json:"id" gorm:"primaryKey"`
	InstallmentID uint           `json:"installment_id" gorm:"index;not null"`
	InstNum       int            `json:"inst_num" gorm:"not null"` // 第几期，从 1 开始
	PaymentStatus string         `json:"payment_status" gorm:"size:20;not null;default:unpaid"`
	PaymentDate   time.Time      `json:"payment_date" gorm:"not null"` // 本期应还日期
	Amount        int64          `json:"amount" gorm:"not null"`       // 本期金额，单位：分
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName 设置表名
func (InstallmentDetail) TableName() string {
	return "installment_details"
}
