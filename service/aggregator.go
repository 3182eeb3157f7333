package service

import (
	"time"

	"centsible/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MonthlyTotal 单月消费合计
type MonthlyTotal struct {
	Year  int             `json:"year"`
	Month int             `json:"month"`
	Total decimal.Decimal `json:"total"`
}

// CategoryTotal 按类别的消费合计
type CategoryTotal struct {
	CategoryID uint            `json:"category_id"`
	Name       string          `json:"name"`
	Icon       string          `json:"icon"`
	Color      string          `json:"color"`
	Total      decimal.Decimal `json:"total"`
	Count      int64           `json:"count"`
}

// Aggregator 消费聚合服务：按 (用户, 类别, 年, 月) 维度汇总消费金额。
// 所有金额计算使用 decimal，金额直接参与展示和阈值比较，不允许二进制浮点误差。
type Aggregator struct {
	db *gorm.DB
}

// NewAggregator 创建聚合服务
func NewAggregator(db *gorm.DB) *Aggregator {
	return &Aggregator{db: db}
}

// SumForPeriod 汇总指定 (年, 月) 的消费金额。
// categoryID 为 nil 时统计该用户所有类别；无记录时返回 0 而非错误。
func (a *Aggregator) SumForPeriod(userID uint, categoryID *uint, year, month int) (decimal.Decimal, error) {
	query := a.db.Model(&models.Expense{}).
		Where("user_id = ?", userID).
		Where("YEAR(date) = ? AND MONTH(date) = ?", year, month)
	if categoryID != nil {
		query = query.Where("category_id = ?", *categoryID)
	}

	var total decimal.Decimal
	if err := query.Select("COALESCE(SUM(amount), 0)").Scan(&total).Error; err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// YearToDate 汇总指定年份全年的消费金额
func (a *Aggregator) YearToDate(userID uint, categoryID *uint, year int) (decimal.Decimal, error) {
	query := a.db.Model(&models.Expense{}).
		Where("user_id = ?", userID).
		Where("YEAR(date) = ?", year)
	if categoryID != nil {
		query = query.Where("category_id = ?", *categoryID)
	}

	var total decimal.Decimal
	if err := query.Select("COALESCE(SUM(amount), 0)").Scan(&total).Error; err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// MonthlySeries 获取以 ref 所在月份为终点、向前 months 个月的逐月合计。
// 返回结果按时间升序排列（最早的月份在前），跨年时正确回绕：1 月的上一个月是前一年的 12 月。
func (a *Aggregator) MonthlySeries(userID uint, categoryID *uint, months int, ref time.Time) ([]MonthlyTotal, error) {
	series := make([]MonthlyTotal, 0, months)
	for i := months - 1; i >= 0; i-- {
		year, month := shiftMonth(ref.Year(), int(ref.Month()), -i)
		total, err := a.SumForPeriod(userID, categoryID, year, month)
		if err != nil {
			return nil, err
		}
		series = append(series, MonthlyTotal{Year: year, Month: month, Total: total})
	}
	return series, nil
}

// SumLastMonths 汇总以 ref 所在月份为终点、向前 months 个月的消费总额
func (a *Aggregator) SumLastMonths(userID uint, categoryID *uint, months int, ref time.Time) (decimal.Decimal, error) {
	series, err := a.MonthlySeries(userID, categoryID, months, ref)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, m := range series {
		total = total.Add(m.Total)
	}
	return total, nil
}

// CategoryTotals 按类别汇总指定 (年, 月) 的消费，按金额降序排列
func (a *Aggregator) CategoryTotals(userID uint, year, month int) ([]CategoryTotal, error) {
	var stats []CategoryTotal
	err := a.db.Model(&models.Expense{}).
		Select("expenses.category_id, categories.name, categories.icon, categories.color, SUM(expenses.amount) AS total, COUNT(*) AS count").
		Joins("JOIN categories ON categories.id = expenses.category_id").
		Where("expenses.user_id = ? AND YEAR(expenses.date) = ? AND MONTH(expenses.date) = ?", userID, year, month).
		Group("expenses.category_id, categories.name, categories.icon, categories.color").
		Order("total DESC").
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// YearCategoryTotals 按类别汇总指定年份的消费，按金额降序排列
func (a *Aggregator) YearCategoryTotals(userID uint, year int) ([]CategoryTotal, error) {
	var stats []CategoryTotal
	err := a.db.Model(&models.Expense{}).
		Select("expenses.category_id, categories.name, categories.icon, categories.color, SUM(expenses.amount) AS total, COUNT(*) AS count").
		Joins("JOIN categories ON categories.id = expenses.category_id").
		Where("expenses.user_id = ? AND YEAR(expenses.date) = ?", userID, year).
		Group("expenses.category_id, categories.name, categories.icon, categories.color").
		Order("total DESC").
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// shiftMonth 计算 (year, month) 偏移 delta 个月后的年月，month 取值 1-12
func shiftMonth(year, month, delta int) (int, int) {
	m := month + delta
	for m < 1 {
		m += 12
		year--
	}
	for m > 12 {
		m -= 12
		year++
	}
	return year, m
}
