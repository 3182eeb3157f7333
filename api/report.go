package api

import (
	"strconv"
	"time"

	"centsible/database"
	"centsible/middleware"
	"centsible/models"
	"centsible/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ReportHandler 报表与统计处理器
type ReportHandler struct{}

// NewReportHandler 创建报表处理器
func NewReportHandler() *ReportHandler {
	return &ReportHandler{}
}

// CategoryTrend 类别消费趋势：近 3 个月变化百分比
type CategoryTrend struct {
	Category models.Category `json:"category"`
	Total    decimal.Decimal `json:"total"` // 年度累计
	Trend    decimal.Decimal `json:"trend"` // 正值上升，负值下降
}

// BudgetVsActual 预算与实际支出对比
type BudgetVsActual struct {
	Category models.Category  `json:"category"`
	Budget   decimal.Decimal  `json:"budget"`
	Actual   decimal.Decimal  `json:"actual"`
	Variance *decimal.Decimal `json:"variance"` // 预算未设置时为 null
}

// Dashboard 仪表盘数据
// @Summary 获取仪表盘数据
// @Description 获取当前用户的月度消费概览：本月支出、环比变化、剩余预算、最高消费类别、最近记录、未读预警和图表数据
// @Tags 报表
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/dashboard [get]
func (h *ReportHandler) Dashboard(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	now := time.Now()

	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		NotFound(c, "用户不存在")
		return
	}

	agg := service.NewAggregator(database.DB)

	// 本月支出
	monthlySpending, err := agg.SumForPeriod(userID, nil, now.Year(), int(now.Month()))
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	// 环比变化：上月为 0 时不展示变化值
	var monthlyChange *decimal.Decimal
	prevYear, prevMonth := now.Year(), int(now.Month())-1
	if prevMonth < 1 {
		prevMonth = 12
		prevYear--
	}
	prevSpending, err := agg.SumForPeriod(userID, nil, prevYear, prevMonth)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}
	if prevSpending.IsPositive() {
		change := service.TrendPercent(monthlySpending, prevSpending)
		monthlyChange = &change
	}

	// 剩余预算：未设置总预算时为 null
	var budgetRemaining *decimal.Decimal
	if user.TotalBudget.IsPositive() {
		remaining := user.TotalBudget.Sub(monthlySpending)
		budgetRemaining = &remaining
	}

	// 按类别汇总（图表数据 + 最高消费类别）
	categoryTotals, err := agg.CategoryTotals(userID, now.Year(), int(now.Month()))
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}
	var topCategory *service.CategoryTotal
	if len(categoryTotals) > 0 {
		topCategory = &categoryTotals[0]
	}

	// 最近 5 条消费记录
	var recentExpenses []models.Expense
	if err := database.DB.Where("user_id = ?", userID).
		Order("date DESC, id DESC").Limit(5).Find(&recentExpenses).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	// 未读预警
	var alerts []models.BudgetAlert
	if err := database.DB.Where("user_id = ? AND is_read = ?", userID, false).
		Order("created_at DESC").Find(&alerts).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	Success(c, gin.H{
		"monthly_spending":        monthlySpending,
		"monthly_spending_change": monthlyChange,
		"budget_remaining":        budgetRemaining,
		"top_category":            topCategory,
		"category_totals":         categoryTotals,
		"recent_expenses":         recentExpenses,
		"alerts":                  alerts,
	})
}

// Reports 报表总览
// @Summary 获取报表总览
// @Description 获取年度累计（按类别）、当年逐月合计、类别近 3 个月趋势、当月预算与实际对比
// @Tags 报表
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/reports [get]
func (h *ReportHandler) Reports(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	now := time.Now()

	agg := service.NewAggregator(database.DB)
	trendSvc := service.NewTrendService(database.DB)

	// 年度累计（按类别）
	ytdSpending, err := agg.YearCategoryTotals(userID, now.Year())
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	// 当年逐月合计（1-12 月）
	monthlyTotals := make([]service.MonthlyTotal, 0, 12)
	for month := 1; month <= 12; month++ {
		total, err := agg.SumForPeriod(userID, nil, now.Year(), month)
		if err != nil {
			InternalError(c, SafeErrorMessage(err, "查询失败"))
			return
		}
		monthlyTotals = append(monthlyTotals, service.MonthlyTotal{
			Year: now.Year(), Month: month, Total: total,
		})
	}

	// 类别近 3 个月趋势
	trends := make([]CategoryTrend, 0, len(ytdSpending))
	for _, ct := range ytdSpending {
		var cat models.Category
		if err := database.DB.Where("id = ? AND user_id = ?", ct.CategoryID, userID).First(&cat).Error; err != nil {
			continue
		}
		trend, err := trendSvc.CategoryTrend(userID, cat.ID, now)
		if err != nil {
			InternalError(c, SafeErrorMessage(err, "查询失败"))
			return
		}
		trends = append(trends, CategoryTrend{Category: cat, Total: ct.Total, Trend: trend})
	}

	// 当月预算与实际对比
	var categories []models.Category
	if err := database.DB.Where("user_id = ? AND is_active = ?", userID, true).
		Order("name ASC").Find(&categories).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}
	budgetVsActual := make([]BudgetVsActual, 0, len(categories))
	for _, cat := range categories {
		actual, err := agg.SumForPeriod(userID, &cat.ID, now.Year(), int(now.Month()))
		if err != nil {
			InternalError(c, SafeErrorMessage(err, "查询失败"))
			return
		}
		row := BudgetVsActual{Category: cat, Budget: cat.BudgetAmount, Actual: actual}
		if cat.BudgetAmount.IsPositive() {
			variance := cat.BudgetAmount.Sub(actual)
			row.Variance = &variance
		}
		budgetVsActual = append(budgetVsActual, row)
	}

	Success(c, gin.H{
		"ytd_spending":     ytdSpending,
		"monthly_totals":   monthlyTotals,
		"trends":           trends,
		"budget_vs_actual": budgetVsActual,
	})
}

// SpendingHistory 消费历史序列
// @Summary 获取消费历史序列
// @Description 获取以当前月份为终点、向前 months 个月的逐月消费合计，按时间升序返回（最早的月份在前），跨年正确回绕
// @Tags 报表
// @Produce json
// @Security BearerAuth
// @Param category_id query int false "类别筛选"
// @Param months query int false "月数" default(12)
// @Success 200 {object} Response{data=[]service.MonthlyTotal} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/reports/spending-history [get]
func (h *ReportHandler) SpendingHistory(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	months := 12
	if m := c.Query("months"); m != "" {
		parsed, err := strconv.Atoi(m)
		if err != nil || parsed < 1 || parsed > 60 {
			BadRequest(c, "months 参数错误，应为 1-60")
			return
		}
		months = parsed
	}

	var categoryID *uint
	if cid := c.Query("category_id"); cid != "" {
		parsed, err := strconv.ParseUint(cid, 10, 32)
		if err != nil {
			BadRequest(c, "无效的类别ID")
			return
		}
		id := uint(parsed)
		// 归属校验
		var cat models.Category
		if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&cat).Error; err != nil {
			NotFound(c, "类别不存在")
			return
		}
		categoryID = &id
	}

	agg := service.NewAggregator(database.DB)
	series, err := agg.MonthlySeries(userID, categoryID, months, time.Now())
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	Success(c, series)
}

// CategoryTrends 类别趋势详情
// @Summary 获取类别趋势详情
// @Description 获取指定类别近 12 个月的逐月消费序列及统计量（平均/最高/最低/本月/预算）
// @Tags 报表
// @Produce json
// @Security BearerAuth
// @Param category_id query int true "类别ID"
// @Success 200 {object} Response "获取成功"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "类别不存在"
// @Router /api/v1/reports/trends [get]
func (h *ReportHandler) CategoryTrends(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	cid, err := strconv.ParseUint(c.Query("category_id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的类别ID")
		return
	}
	categoryID := uint(cid)

	var cat models.Category
	if err := database.DB.Where("id = ? AND user_id = ?", categoryID, userID).First(&cat).Error; err != nil {
		NotFound(c, "类别不存在")
		return
	}

	now := time.Now()
	agg := service.NewAggregator(database.DB)
	series, err := agg.MonthlySeries(userID, &categoryID, 12, now)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	stats := service.ComputeSeriesStats(series)
	current := series[len(series)-1].Total

	Success(c, gin.H{
		"category":     cat,
		"monthly_data": series,
		"stats": gin.H{
			"average": stats.Average,
			"maximum": stats.Maximum,
			"minimum": stats.Minimum,
			"current": current,
			"budget":  cat.BudgetAmount,
		},
	})
}
