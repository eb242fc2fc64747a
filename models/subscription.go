package models

import (
	"time"

	"gorm.io/gorm"
)

// 支付状态
const (
	PaymentPending   = "PENDING"
	PaymentCompleted = "COMPLETED"
	PaymentFailed    = "FAILED"
)

// Plan 订阅套餐模型（全局数据，不属于任何用户）
type Plan struct {
	ID                 uint           `json:"id" gorm:"primaryKey"`
	Name               string         `json:"name" gorm:"uniqueIndex;size:100;not null"`
	Price              int64          `json:"price" gorm:"not null"` // 月价格，单位：分
	DurationDays       int            `json:"duration_days" gorm:"not null;default:30"`
	CanCreateGroups    bool           `json:"can_create_groups" gorm:"default:false"`
	CanCreateFunds     bool           `json:"can_create_funds" gorm:"default:false"`
	CanManageBuildings bool           `json:"can_manage_buildings" gorm:"default:false"`
	MaxWallets         int            `json:"max_wallets" gorm:"not null;default:1"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName 设置表名
func (Plan) TableName() string {
	return "plans"
}

// Subscription 用户订阅模型，每个用户最多一条
type Subscription struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	UserID    uint           `json:"user_id" gorm:"uniqueIndex;not null"`
	PlanID    uint           `json:"plan_id" gorm:"index;not null"`
	StartDate time.Time      `json:"start_date" gorm:"autoCreateTime"`
	EndDate   time.Time      `json:"end_date" gorm:"not null"`
	IsActive  bool           `json:"is_active" gorm:"default:true"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
	User      User           `json:"-" gorm:"foreignKey:UserID"`
	Plan      Plan           `json:"plan" gorm:"foreignKey:PlanID"`
}

// TableName 设置表名
func (Subscription) TableName() string {
	return "subscriptions"
}

// IsValid 订阅是否处于有效期内
func (s *Subscription) IsValid() bool {
	return s.IsActive && time.Now().Before(s.EndDate)
}

// Payment 订阅支付流水模型
type Payment struct {
	ID            uint           `json:"id" gorm:"primaryKey"`
	UserID        uint           `json:"user_id" gorm:"index;not null"`
	PlanID        *uint          `json:"plan_id,omitempty" gorm:"index"`
	Amount        int64          `json:"amount" gorm:"not null"` // 金额，单位：分
	Status        string         `json:"status" gorm:"size:10;not null;default:PENDING"`
	TransactionID string         `json:"transaction_id" gorm:"uniqueIndex;size:100;not null"` // 支付网关流水号
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"-" gorm:"index"`
	User          User           `json:"-" gorm:"foreignKey:UserID"`
}

// TableName 设置表名
func (Payment) TableName() string {
	return "payments"
}
