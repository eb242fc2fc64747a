package models

import (
	"time"

	"gorm.io/gorm"
)

// Fund 互助会（轮转储蓄基金）模型
// 成员每期缴纳固定份额，按期轮流领取全部奖池
type Fund struct {
	ID                  uint             `json:"id" gorm:"primaryKey"`
	CreatorID           uint             `json:"creator_id" gorm:"index;not null"`
	Name                string           `json:"name" gorm:"size:100;not null"`
	ContributionAmount  int64            `json:"contribution_amount" gorm:"not null"` // 每期每人份额，单位：分
	StartDate           time.Time        `json:"start_date" gorm:"not null"`
	PayoutFrequencyDays int              `json:"payout_frequency_days" gorm:"not null;default:30"` // 每期天数
	CreatedAt           time.Time        `json:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at"`
	DeletedAt           gorm.DeletedAt   `json:"-" gorm:"index"`
	Creator             User             `json:"-" gorm:"foreignKey:CreatorID"`
	Memberships         []FundMembership `json:"memberships,omitempty" gorm:"foreignKey:FundID"`
}

// TableName 设置表名
func (Fund) TableName() string {
	return "funds"
}

// FundMembership 互助会成员关系，(fund_id, user_id) 唯一
type FundMembership struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	FundID    uint           `json:"fund_id" gorm:"uniqueIndex:uk_fund_user;not null"`
	UserID    uint           `json:"user_id" gorm:"uniqueIndex:uk_fund_user;not null"`
	JoinDate  time.Time      `json:"join_date" gorm:"autoCreateTime"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
	User      User           `json:"user" gorm:"foreignKey:UserID"`
}

// TableName 设置表名
func (FundMembership) TableName() string {
	return "fund_memberships"
}

// Contribution 缴纳记录，某成员为某一期缴纳的份额
type Contribution struct {
	ID               uint           `json:"id" gorm:"primaryKey"`
	MembershipID     uint           `json:"membership_id" gorm:"index;not null"`
	ContributionDate time.Time      `json:"contribution_date" gorm:"not null"` // 本次缴纳对应的期次日期
	AmountPaid       int64          `json:"amount_paid" gorm:"not null"`       // 实缴金额，单位：分
	PaymentDate      time.Time      `json:"payment_date" gorm:"autoCreateTime"`
	DeletedAt        gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName 设置表名
func (Contribution) TableName() string {
	return "contributions"
}

// Payout 开奖记录，某一期奖池发放给某个成员
type Payout struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	FundID      uint           `json:"fund_id" gorm:"index;not null"`
	RecipientID uint           `json:"recipient_id" gorm:"index;not null"` // 领取人的成员关系ID
	PayoutDate  time.Time      `json:"payout_date" gorm:"not null"`
	Amount      int64          `json:"amount" gorm:"not null"` // 发放总额，单位：分
	CreatedAt   time.Time      `json:"created_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
	Recipient   FundMembership `json:"-" gorm:"foreignKey:RecipientID"`
}

// TableName 设置表名
func (Payout) TableName() string {
	return "payouts"
}
