package models

import (
	"time"

	"gorm.io/gorm"
)

// AlertType 预警类型
const (
	// AlertTypeThreshold 支出达到预算阈值
	AlertTypeThreshold = "threshold"
	// AlertTypeOverspent 支出超出预算
	AlertTypeOverspent = "overspent"
)

// BudgetAlert 预算预警记录，由 AlertService 在写入消费/保存预算时生成
type BudgetAlert struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	UserID     uint           `json:"user_id" gorm:"index:idx_user_alerts;not null"`
	CategoryID uint           `json:"category_id" gorm:"index;not null"`
	AlertType  string         `json:"alert_type" gorm:"size:32;not null"` // threshold/overspent
	Message    string         `json:"message" gorm:"size:256;not null"`
	IsRead     bool           `json:"is_read" gorm:"index:idx_user_alerts;default:false"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`
	User       User           `json:"-" gorm:"foreignKey:UserID"`
	Category   Category       `json:"-" gorm:"foreignKey:CategoryID"`
}

// TableName 设置表名
func (BudgetAlert) TableName() string {
	return "budget_alerts"
}
