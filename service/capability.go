package service

import (
	"errors"

	"sooraneh/models"

	"gorm.io/gorm"
)

// Capability 套餐能力，静态枚举
// 订阅套餐通过布尔开关与配额决定用户可以使用哪些高级功能
type Capability string

const (
	CapabilityCreateGroups    Capability = "create_groups"    // 创建分摊群组
	CapabilityCreateFunds     Capability = "create_funds"     // 创建互助会
	CapabilityManageBuildings Capability = "manage_buildings" // 管理楼栋
)

// ErrCapabilityRequired 当前套餐不包含所需能力
var ErrCapabilityRequired = errors.New("当前订阅套餐不支持该功能，请升级套餐")

// ErrWalletLimit 钱包数量达到套餐上限
var ErrWalletLimit = errors.New("钱包数量已达套餐上限")

// 免费用户（无有效订阅）的默认钱包配额
const defaultMaxWallets = 1

// CapabilityService 订阅能力检查服务
type CapabilityService struct {
	db *gorm.DB
}

// NewCapabilityService 创建订阅能力检查服务
func NewCapabilityService(db *gorm.DB) *CapabilityService {
	return &CapabilityService{db: db}
}

// ActiveSubscription 返回用户当前有效的订阅（含套餐），无有效订阅时返回 nil
func (s *CapabilityService) ActiveSubscription(userID uint) (*models.Subscription, error) {
	var sub models.Subscription
	err := s.db.Preload("Plan").Where("user_id = ?", userID).First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !sub.IsValid() {
		return nil, nil
	}
	return &sub, nil
}

// Check 检查用户是否具备指定能力，不具备时返回 ErrCapabilityRequired
func (s *CapabilityService) Check(userID uint, cap Capability) error {
	sub, err := s.ActiveSubscription(userID)
	if err != nil {
		return err
	}
	if sub == nil || !planAllows(&sub.Plan, cap) {
		return ErrCapabilityRequired
	}
	return nil
}

// CheckWalletQuota 检查用户是否还能再创建一个钱包
func (s *CapabilityService) CheckWalletQuota(userID uint) error {
	max := defaultMaxWallets
	sub, err := s.ActiveSubscription(userID)
	if err != nil {
		return err
	}
	if sub != nil && sub.Plan.MaxWallets > max {
		max = sub.Plan.MaxWallets
	}
	var count int64
	if err := s.db.Model(&models.Wallet{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return err
	}
	if count >= int64(max) {
		return ErrWalletLimit
	}
	return nil
}

// planAllows 套餐能力开关
func planAllows(plan *models.Plan, cap Capability) bool {
	switch cap {
	case CapabilityCreateGroups:
		return plan.CanCreateGroups
	case CapabilityCreateFunds:
		return plan.CanCreateFunds
	case CapabilityManageBuildings:
		return plan.CanManageBuildings
	}
	return false
}
