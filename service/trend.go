package service

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TrendPercent 计算两期之间的变化百分比，保留一位小数。
// 基期为 0 时返回 0 而非错误：从 0 到非 0 的跳变会被报告为 0%，
// 这会掩盖真实变化，但属于沿用的既定行为，不做静默"修正"。
func TrendPercent(current, previous decimal.Decimal) decimal.Decimal {
	if previous.IsZero() {
		return decimal.Zero
	}
	return current.Sub(previous).Div(previous).Mul(decimal.NewFromInt(100)).Round(1)
}

// SeriesStats 月度序列的统计量
type SeriesStats struct {
	Average decimal.Decimal `json:"average"`
	Maximum decimal.Decimal `json:"maximum"`
	Minimum decimal.Decimal `json:"minimum"`
}

// ComputeSeriesStats 计算月度序列的平均/最大/最小值，空序列返回全 0
func ComputeSeriesStats(series []MonthlyTotal) SeriesStats {
	if len(series) == 0 {
		return SeriesStats{Average: decimal.Zero, Maximum: decimal.Zero, Minimum: decimal.Zero}
	}
	sum := decimal.Zero
	max := series[0].Total
	min := series[0].Total
	for _, m := range series {
		sum = sum.Add(m.Total)
		if m.Total.GreaterThan(max) {
			max = m.Total
		}
		if m.Total.LessThan(min) {
			min = m.Total
		}
	}
	avg := sum.DivRound(decimal.NewFromInt(int64(len(series))), 2)
	return SeriesStats{Average: avg, Maximum: max, Minimum: min}
}

// TrendService 消费趋势服务：基于 Aggregator 的历史数据计算环比变化
type TrendService struct {
	agg *Aggregator
}

// NewTrendService 创建趋势服务
func NewTrendService(db *gorm.DB) *TrendService {
	return &TrendService{agg: NewAggregator(db)}
}

// CategoryTrend 计算类别近 3 个月的消费趋势：本月相对两个月前的变化百分比。
// 正值表示支出上升，负值表示下降。
func (s *TrendService) CategoryTrend(userID, categoryID uint, ref time.Time) (decimal.Decimal, error) {
	series, err := s.agg.MonthlySeries(userID, &categoryID, 3, ref)
	if err != nil {
		return decimal.Zero, err
	}
	// series 按时间升序：[0] 为两个月前，[len-1] 为本月
	return TrendPercent(series[len(series)-1].Total, series[0].Total), nil
}

// MonthOverMonth 计算本月相对上月的变化百分比
func (s *TrendService) MonthOverMonth(userID uint, categoryID *uint, ref time.Time) (decimal.Decimal, error) {
	year, month := ref.Year(), int(ref.Month())
	current, err := s.agg.SumForPeriod(userID, categoryID, year, month)
	if err != nil {
		return decimal.Zero, err
	}
	prevYear, prevMonth := shiftMonth(year, month, -1)
	previous, err := s.agg.SumForPeriod(userID, categoryID, prevYear, prevMonth)
	if err != nil {
		return decimal.Zero, err
	}
	return TrendPercent(current, previous), nil
}
