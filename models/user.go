package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// User 用户模型
type User struct {
	ID              uint            `json:"id" gorm:"primaryKey"`
	Username        string          `json:"username" gorm:"uniqueIndex;size:64;not null"`
	Email           string          `json:"email" gorm:"uniqueIndex;size:120;not null"`
	Password        string          `json:"-" gorm:"size:255;not null"`
	ThemePreference string          `json:"theme_preference" gorm:"size:10;default:light"` // 主题：light/dark
	CurrencySymbol  string          `json:"currency_symbol" gorm:"size:5;default:$"`
	MonthlyIncome   decimal.Decimal `json:"monthly_income" gorm:"type:decimal(10,2);default:0"` // 月收入
	TotalBudget     decimal.Decimal `json:"total_budget" gorm:"type:decimal(10,2);default:0"`   // 月度总预算上限
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	DeletedAt       gorm.DeletedAt  `json:"-" gorm:"index"`
}

// TableName 设置表名
func (User) TableName() string {
	return "users"
}
