package api

import (
	"strconv"
	"time"

	"centsible/config"
	"centsible/database"
	"centsible/middleware"
	"centsible/models"
	"centsible/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BudgetHandler 预算管理处理器
type BudgetHandler struct {
	alertSvc *service.AlertService
}

// NewBudgetHandler 创建预算管理处理器
func NewBudgetHandler(cfg *config.Config) *BudgetHandler {
	return &BudgetHandler{
		alertSvc: service.NewAlertService(cfg),
	}
}

// SaveBudgetRequest 保存类别预算请求
type SaveBudgetRequest struct {
	BudgetAmount   decimal.Decimal `json:"budget_amount" binding:"required"`
	AlertThreshold *int            `json:"alert_threshold" binding:"omitempty,min=1,max=100"`
	Notes          string          `json:"notes" binding:"omitempty,max=1000"`
}

// BudgetStatus 类别的当月预算状态
type BudgetStatus struct {
	Category       models.Category `json:"category"`
	Budget         *models.Budget  `json:"budget,omitempty"` // 当月预算快照，未保存过为 null
	Spending       decimal.Decimal `json:"spending"`
	BudgetProgress int             `json:"budget_progress"`
}

// Index 预算总览
// @Summary 获取预算总览
// @Description 获取当前用户所有启用类别的当月预算状态和未读预警
// @Tags 预算
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/budgets [get]
func (h *BudgetHandler) Index(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	now := time.Now()

	var categories []models.Category
	if err := database.DB.Where("user_id = ? AND is_active = ?", userID, true).
		Order("name ASC").Find(&categories).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	// 当月预算快照
	var budgets []models.Budget
	if err := database.DB.Where("user_id = ? AND year = ? AND month = ?",
		userID, now.Year(), int(now.Month())).Find(&budgets).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}
	budgetByCategory := make(map[uint]*models.Budget, len(budgets))
	for i := range budgets {
		budgetByCategory[budgets[i].CategoryID] = &budgets[i]
	}

	agg := service.NewAggregator(database.DB)
	statuses := make([]BudgetStatus, 0, len(categories))
	for _, cat := range categories {
		spend, err := agg.SumForPeriod(userID, &cat.ID, now.Year(), int(now.Month()))
		if err != nil {
			InternalError(c, SafeErrorMessage(err, "查询失败"))
			return
		}
		statuses = append(statuses, BudgetStatus{
			Category:       cat,
			Budget:         budgetByCategory[cat.ID],
			Spending:       spend,
			BudgetProgress: service.Progress(spend, cat.BudgetAmount),
		})
	}

	// 未读预警
	var alerts []models.BudgetAlert
	if err := database.DB.Where("user_id = ? AND is_read = ?", userID, false).
		Order("created_at DESC").Find(&alerts).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	Success(c, gin.H{
		"year":       now.Year(),
		"month":      int(now.Month()),
		"categories": statuses,
		"alerts":     alerts,
	})
}

// SaveCategoryBudget 保存类别预算
// @Summary 保存类别预算
// @Description 更新类别的月度预算和预警阈值，并对当月生成/更新预算快照。
// @Description 同一 (类别, 年, 月) 的快照按 upsert 处理，重复保存只更新金额和备注，不会产生重复记录。
// @Description 保存后在同一事务内重新检查预算进度，达到阈值时生成预警。
// @Tags 预算
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "类别ID"
// @Param request body SaveBudgetRequest true "预算信息"
// @Success 200 {object} Response{data=models.Budget} "保存成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "类别不存在"
// @Router /api/v1/budgets/category/{id} [put]
func (h *BudgetHandler) SaveCategoryBudget(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id64, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	// 归属校验
	var cat models.Category
	if err := database.DB.Where("id = ? AND user_id = ?", id64, userID).First(&cat).Error; err != nil {
		NotFound(c, "类别不存在")
		return
	}

	var req SaveBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}
	if !req.BudgetAmount.IsPositive() {
		BadRequest(c, "预算金额必须大于 0")
		return
	}

	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		NotFound(c, "用户不存在")
		return
	}

	now := time.Now()
	var budget models.Budget

	// 更新类别设置 → upsert 当月预算快照 → 重新检查预警，同一事务
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		catUpdates := map[string]interface{}{"budget_amount": req.BudgetAmount}
		if req.AlertThreshold != nil {
			catUpdates["alert_threshold"] = *req.AlertThreshold
		}
		if err := tx.Model(&cat).Updates(catUpdates).Error; err != nil {
			return err
		}

		// upsert：已有 (用户, 类别, 年, 月) 记录则原地更新
		err := tx.Where("user_id = ? AND category_id = ? AND year = ? AND month = ?",
			userID, cat.ID, now.Year(), int(now.Month())).First(&budget).Error
		if err == nil {
			if err := tx.Model(&budget).Updates(map[string]interface{}{
				"amount": req.BudgetAmount,
				"notes":  req.Notes,
			}).Error; err != nil {
				return err
			}
		} else {
			budget = models.Budget{
				UserID:     userID,
				CategoryID: cat.ID,
				Amount:     req.BudgetAmount,
				Year:       now.Year(),
				Month:      int(now.Month()),
				Notes:      req.Notes,
			}
			if err := tx.Create(&budget).Error; err != nil {
				return err
			}
		}

		// 类别设置已变，重新加载最新值再检查预警。
		// 读入新变量：对已有主键的结构体再次 First 会重复拼接 id 条件
		var current models.Category
		if err := tx.First(&current, cat.ID).Error; err != nil {
			return err
		}
		_, err = h.alertSvc.Check(tx, &user, &current, now.Year(), int(now.Month()))
		return err
	})
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "保存预算失败"))
		return
	}

	SuccessWithMessage(c, "保存成功", budget)
}

// History 类别预算历史
// @Summary 获取类别预算历史
// @Description 获取指定类别最近 12 个月的预算快照，按时间倒序
// @Tags 预算
// @Produce json
// @Security BearerAuth
// @Param id path int true "类别ID"
// @Success 200 {object} Response{data=[]models.Budget} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "类别不存在"
// @Router /api/v1/budgets/category/{id}/history [get]
func (h *BudgetHandler) History(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id64, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	var cat models.Category
	if err := database.DB.Where("id = ? AND user_id = ?", id64, userID).First(&cat).Error; err != nil {
		NotFound(c, "类别不存在")
		return
	}

	var history []models.Budget
	if err := database.DB.Where("user_id = ? AND category_id = ?", userID, cat.ID).
		Order("year DESC, month DESC").Limit(12).Find(&history).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	Success(c, history)
}

// ListAlerts 获取预警列表
// @Summary 获取预警列表
// @Description 获取当前用户的预算预警，默认只返回未读，unread=false 时返回全部
// @Tags 预算
// @Produce json
// @Security BearerAuth
// @Param unread query bool false "只看未读" default(true)
// @Success 200 {object} Response{data=[]models.BudgetAlert} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/budgets/alerts [get]
func (h *BudgetHandler) ListAlerts(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	query := database.DB.Where("user_id = ?", userID)
	if c.DefaultQuery("unread", "true") == "true" {
		query = query.Where("is_read = ?", false)
	}

	var alerts []models.BudgetAlert
	if err := query.Order("created_at DESC").Find(&alerts).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	Success(c, alerts)
}

// MarkAlertsRead 标记预警已读
// @Summary 标记所有预警为已读
// @Description 将当前用户所有未读预警标记为已读
// @Tags 预算
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response "标记成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/budgets/alerts/mark-read [post]
func (h *BudgetHandler) MarkAlertsRead(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	if err := database.DB.Model(&models.BudgetAlert{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "标记失败"))
		return
	}

	SuccessWithMessage(c, "标记成功", nil)
}
