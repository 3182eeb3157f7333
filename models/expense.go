package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Expense 消费记录模型
type Expense struct {
	ID                  uint            `json:"id" gorm:"primaryKey"`
	UserID              uint            `json:"user_id" gorm:"index:idx_user_expense_date;not null"`
	CategoryID          uint            `json:"category_id" gorm:"index;not null"`
	Amount              decimal.Decimal `json:"amount" gorm:"type:decimal(10,2);not null"`
	Description         string          `json:"description" gorm:"size:128"`
	Date                time.Time       `json:"date" gorm:"type:date;index:idx_user_expense_date;not null"` // 消费日期（仅日期）
	PaymentMethod       string          `json:"payment_method" gorm:"size:32"`                              // 支付方式：cash/credit_card/...
	IsRecurring         bool            `json:"is_recurring" gorm:"default:false"`
	RecurrenceFrequency string          `json:"recurrence_frequency" gorm:"size:32"` // 周期：daily/weekly/monthly/yearly
	ReceiptNote         string          `json:"receipt_note" gorm:"type:text"`       // 备注
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
	DeletedAt           gorm.DeletedAt  `json:"-" gorm:"index"`
	User                User            `json:"-" gorm:"foreignKey:UserID"`
	Category            Category        `json:"-" gorm:"foreignKey:CategoryID"`
}

// TableName 设置表名
func (Expense) TableName() string {
	return "expenses"
}

// PaymentMethod 支付方式常量
const (
	PaymentCash          = "cash"
	PaymentCreditCard    = "credit_card"
	PaymentDebitCard     = "debit_card"
	PaymentBankTransfer  = "bank_transfer"
	PaymentDigitalWallet = "digital_wallet"
	PaymentOther         = "other"
)

// GetPaymentMethods 获取所有支付方式
func GetPaymentMethods() []string {
	return []string{
		PaymentCash,
		PaymentCreditCard,
		PaymentDebitCard,
		PaymentBankTransfer,
		PaymentDigitalWallet,
		PaymentOther,
	}
}

// RecurrenceFrequency 周期常量
const (
	RecurrenceDaily   = "daily"
	RecurrenceWeekly  = "weekly"
	RecurrenceMonthly = "monthly"
	RecurrenceYearly  = "yearly"
)
