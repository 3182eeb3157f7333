package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DefaultAlertThreshold 默认预警阈值（百分比）
const DefaultAlertThreshold = 80

// Category 消费类别（每个用户独立维护）
type Category struct {
	ID             uint            `json:"id" gorm:"primaryKey"`
	UserID         uint            `json:"user_id" gorm:"index:idx_user_category;not null"`
	Name           string          `json:"name" gorm:"index:idx_user_category;size:64;not null"`
	Icon           string          `json:"icon" gorm:"size:32"`                                // 图标，如 utensils
	Color          string          `json:"color" gorm:"size:7"`                                // 颜色代码，如 #ef4444
	IsDefault      bool            `json:"is_default" gorm:"default:false"`                    // 注册时自动创建的默认类别
	BudgetAmount   decimal.Decimal `json:"budget_amount" gorm:"type:decimal(10,2);default:0"`  // 月度预算，0 表示未设置
	AlertThreshold int             `json:"alert_threshold" gorm:"default:80"`                  // 预警阈值（1-100）
	IsActive       bool            `json:"is_active" gorm:"default:true"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	DeletedAt      gorm.DeletedAt  `json:"-" gorm:"index"`
	User           User            `json:"-" gorm:"foreignKey:UserID"`
}

// TableName 设置表名
func (Category) TableName() string {
	return "categories"
}

// DefaultCategory 注册时初始化的默认类别定义
type DefaultCategory struct {
	Name  string
	Icon  string
	Color string
}

// GetDefaultCategories 获取默认类别列表（颜色与前端 CSS 保持一致）
func GetDefaultCategories() []DefaultCategory {
	return []DefaultCategory{
		{"餐饮", "utensils", "#ef4444"},
		{"交通", "car", "#3b82f6"},
		{"购物", "shopping-bag", "#a855f7"},
		{"娱乐", "film", "#ec4899"},
		{"医疗", "heartbeat", "#10b981"},
		{"教育", "graduation-cap", "#f59e0b"},
		{"住房", "home", "#14b8a6"},
		{"其他", "ellipsis-h", "#64748b"},
	}
}
