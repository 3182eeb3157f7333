package database

import (
	"fmt"
	"log"

	"centsible/config"
	"centsible/models"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Init 初始化数据库连接
func Init(cfg *config.Config) error {
	// 构建 MySQL DSN 连接字符串
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

	// 获取底层 *sql.DB 连接池配置
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	// 设置连接池参数
	sqlDB.SetMaxIdleConns(10)  // 最大空闲连接数
	sqlDB.SetMaxOpenConns(100) // 最大打开连接数

	// 自动迁移数据库表
	if err := DB.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Expense{},
		&models.Budget{},
		&models.BudgetAlert{},
	); err != nil {
		return err
	}

	// 兼容历史数据：老版本没有 alert_threshold 字段，统一补默认阈值
	_ = DB.Model(&models.Category{}).
		Where("alert_threshold IS NULL OR alert_threshold = 0").
		Update("alert_threshold", models.DefaultAlertThreshold).Error

	// 兼容历史数据：老版本没有 currency_symbol 字段，默认美元符号
	_ = DB.Model(&models.User{}).
		Where("currency_symbol IS NULL OR currency_symbol = ''").
		Update("currency_symbol", "$").Error

	log.Println("数据库初始化成功")
	return nil
}

// GetDB 获取数据库连接
func GetDB() *gorm.DB {
	return DB
}
