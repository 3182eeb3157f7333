package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Budget 预算快照：每个 (用户, 类别, 年, 月) 一条记录，重复保存按 upsert 处理
type Budget struct {
	ID         uint            `json:"id" gorm:"primaryKey"`
	UserID     uint            `json:"user_id" gorm:"uniqueIndex:idx_budget_period;not null"`
	CategoryID uint            `json:"category_id" gorm:"uniqueIndex:idx_budget_period;not null"`
	Amount     decimal.Decimal `json:"amount" gorm:"type:decimal(10,2);not null"`
	Year       int             `json:"year" gorm:"uniqueIndex:idx_budget_period;not null"`
	Month      int             `json:"month" gorm:"uniqueIndex:idx_budget_period;not null"` // 1-12
	Notes      string          `json:"notes" gorm:"type:text"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
	DeletedAt  gorm.DeletedAt  `json:"-" gorm:"index"`
	User       User            `json:"-" gorm:"foreignKey:UserID"`
	Category   Category        `json:"-" gorm:"foreignKey:CategoryID"`
}

// TableName 设置表名
func (Budget) TableName() string {
	return "budgets"
}
