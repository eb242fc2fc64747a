package database

import (
	"fmt"
	"log"
	"time"

	"sooraneh/config"
	"sooraneh/models"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Init 初始化数据库连接
func Init(cfg *config.Config) error {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=%s&parseTime=True&loc=Local",
		cfg.Database.Username,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.DBName,
		cfg.Database.Charset,
	)

	var err error
	DB, err = gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})
	if err != nil {
		return fmt.Errorf("连接数据库失败: %w", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	// 连接池参数
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// 自动迁移数据库表
	if err := DB.AutoMigrate(
		&models.User{},
		&models.PasswordReset{},
		&models.Person{},
		&models.Category{},
		&models.Tag{},
		&models.Budget{},
		&models.Wallet{},
		&models.Income{},
		&models.Expense{},
		&models.Debt{},
		&models.Credit{},
		&models.Installment{},
		&models.InstallmentDetail{},
		&models.Group{},
		&models.GroupMember{},
		&models.GroupExpense{},
		&models.Split{},
		&models.Fund{},
		&models.FundMembership{},
		&models.Contribution{},
		&models.Payout{},
		&models.Building{},
		&models.Unit{},
		&models.BuildingExpense{},
		&models.MaintenanceFee{},
		&models.Plan{},
		&models.Subscription{},
		&models.Payment{},
		&models.Friendship{},
		&models.Message{},
	); err != nil {
		return err
	}

	// 初始化默认订阅套餐（仅当表为空时）
	var planCount int64
	DB.Model(&models.Plan{}).Count(&planCount)
	if planCount == 0 {
		defaultPlans := []models.Plan{
			{
				Name:         "免费版",
				Price:        0,
				DurationDays: 36500,
				MaxWallets:   1,
			},
			{
				Name:            "标准版",
				Price:           29900, // 299.00 元/月
				DurationDays:    30,
				CanCreateGroups: true,
				MaxWallets:      3,
			},
			{
				Name:               "高级版",
				Price:              59900, // 599.00 元/月
				DurationDays:       30,
				CanCreateGroups:    true,
				CanCreateFunds:     true,
				CanManageBuildings: true,
				MaxWallets:         10,
			},
		}
		if err := DB.Create(&defaultPlans).Error; err != nil {
			log.Printf("警告: 初始化默认套餐失败: %v", err)
		}
	}

	log.Println("数据库初始化成功")
	return nil
}

// GetDB 获取数据库连接
func GetDB() *gorm.DB {
	return DB
}
