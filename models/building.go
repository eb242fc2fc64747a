package models

import (
	"time"

	"gorm.io/gorm"
)

// Building 楼栋模型，由管理员用户管理
type Building struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	ManagerID uint           `json:"manager_id" gorm:"index;not null"`
	Name      string         `json:"name" gorm:"size:100;not null"`
	Address   string         `json:"address" gorm:"size:255"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
	Manager   User           `json:"-" gorm:"foreignKey:ManagerID"`
	Units     []Unit         `json:"units,omitempty" gorm:"foreignKey:BuildingID"`
}

// TableName 设置表名
func (Building) TableName() string {
	return "buildings"
}

// Unit 楼栋中的单元，(building_id, unit_number) 唯一
type Unit struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	BuildingID uint           `json:"building_id" gorm:"uniqueIndex:uk_building_unit;not null"`
	UnitNumber string         `json:"unit_number" gorm:"uniqueIndex:uk_building_unit;size:20;not null"`
	ResidentID *uint          `json:"resident_id,omitempty" gorm:"index"` // 住户，可为空
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`
	Resident   *User          `json:"-" gorm:"foreignKey:ResidentID"`
}

// TableName 设置表名
func (Unit) TableName() string {
	return "units"
}

// BuildingExpense 楼栋公共支出，由管理员登记
type BuildingExpense struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	BuildingID  uint           `json:"building_id" gorm:"index;not null"`
	Description string         `json:"description" gorm:"size:255;not null"`
	Amount      int64          `json:"amount" gorm:"not null"` // 总金额，单位：分
	Date        time.Time      `json:"date" gorm:"not null"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName 设置表名
func (BuildingExpense) TableName() string {
	return "building_expenses"
}

// MaintenanceFee 单元物业费，每个单元每期一条
type MaintenanceFee struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	UnitID      uint           `json:"unit_id" gorm:"index;not null"`
	Amount      int64          `json:"amount" gorm:"not null"` // 金额，单位：分
	DueDate     time.Time      `json:"due_date" gorm:"not null"`
	IsPaid      bool           `json:"is_paid" gorm:"default:false;index"`
	PaymentDate *time.Time     `json:"payment_date,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName 设置表名
func (MaintenanceFee) TableName() string {
	return "maintenance_fees"
}
