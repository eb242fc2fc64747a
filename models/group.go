package models

import (
	"time"

	"gorm.io/gorm"
)

// 分摊方式
const (
	SplitTypeEqual  = "EQUAL"  // 均摊
	SplitTypeManual = "MANUAL" // 手动指定每人金额
)

// Group 分摊群组模型（群主创建，群主始终是成员）
type Group struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	OwnerID   uint           `json:"owner_id" gorm:"index;not null"`
	Name      string         `json:"name" gorm:"size:100;not null"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
	Owner     User           `json:"-" gorm:"foreignKey:OwnerID"`
	Members   []GroupMember  `json:"members,omitempty" gorm:"foreignKey:GroupID"`
}

// TableName 设置表名
func (Group) TableName() string {
	return "groups"
}

// GroupMember 群组成员关系，(group_id, user_id) 唯一
type GroupMember struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	GroupID   uint           `json:"group_id" gorm:"uniqueIndex:uk_group_user;not null"`
	UserID    uint           `json:"user_id" gorm:"uniqueIndex:uk_group_user;not null"`
	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
	User      User           `json:"user" gorm:"foreignKey:UserID"`
}

// TableName 设置表名
func (GroupMember) TableName() string {
	return "group_members"
}

// GroupExpense 群组共同支出模型，付款人必须是群组成员
type GroupExpense struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	GroupID     uint           `json:"group_id" gorm:"index;not null"`
	PayerID     uint           `json:"payer_id" gorm:"index;not null"`
	Description string         `json:"description" gorm:"size:255;not null"`
	Amount      int64          `json:"amount" gorm:"not null"` // 总金额，单位：分
	Date        time.Time      `json:"date" gorm:"not null"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
	Payer       User           `json:"-" gorm:"foreignKey:PayerID"`
	Splits      []Split        `json:"splits,omitempty" gorm:"foreignKey:ExpenseID"`
}

// TableName 设置表名
func (GroupExpense) TableName() string {
	return "group_expenses"
}

// Split 分摊明细，每笔支出每个成员一条，(expense_id, user_id) 唯一
// 不变式：同一笔支出的所有 Split 金额之和恰好等于支出总额
type Split struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	ExpenseID  uint           `json:"expense_id" gorm:"uniqueIndex:uk_expense_user;not null"`
	UserID     uint           `json:"user_id" gorm:"uniqueIndex:uk_expense_user;not null"`
	AmountOwed int64          `json:"amount_owed" gorm:"not null"` // 应承担金额，单位：分
	CreatedAt  time.Time      `json:"created_at"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`
	User       User           `json:"-" gorm:"foreignKey:UserID"`
}

// TableName 设置表名
func (Split) TableName() string {
	return "splits"
}
