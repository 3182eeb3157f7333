package api

import (
	"strconv"
	"strings"
	"time"

	"centsible/database"
	"centsible/middleware"
	"centsible/models"
	"centsible/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CategoryHandler 消费类别处理器
type CategoryHandler struct{}

// NewCategoryHandler 创建消费类别处理器
func NewCategoryHandler() *CategoryHandler {
	return &CategoryHandler{}
}

// CategoryCreateRequest 创建类别请求
type CategoryCreateRequest struct {
	Name           string           `json:"name" binding:"required,min=1,max=64"`
	Icon           string           `json:"icon" binding:"omitempty,max=32"`
	Color          string           `json:"color" binding:"omitempty,max=7"` // 颜色代码，如 #ef4444
	BudgetAmount   *decimal.Decimal `json:"budget_amount"`                   // 月度预算，可选
	AlertThreshold *int             `json:"alert_threshold" binding:"omitempty,min=1,max=100"`
}

// CategoryUpdateRequest 更新类别请求
type CategoryUpdateRequest struct {
	Name           string           `json:"name" binding:"omitempty,min=1,max=64"`
	Icon           *string          `json:"icon" binding:"omitempty,max=32"`
	Color          *string          `json:"color" binding:"omitempty,max=7"`
	BudgetAmount   *decimal.Decimal `json:"budget_amount"`
	AlertThreshold *int             `json:"alert_threshold" binding:"omitempty,min=1,max=100"`
	IsActive       *bool            `json:"is_active"`
}

// CategoryView 类别视图，附带当月消费进度
type CategoryView struct {
	models.Category
	CurrentMonthSpending decimal.Decimal `json:"current_month_spending"`
	BudgetProgress       int             `json:"budget_progress"`
}

// normalizeColor 校验并规范化十六进制颜色代码，非法时返回空串
func normalizeColor(color string) string {
	color = strings.TrimSpace(color)
	if color == "" {
		return ""
	}
	if !strings.HasPrefix(color, "#") {
		color = "#" + color
	}
	// 支持 #RGB 和 #RRGGBB
	if len(color) != 4 && len(color) != 7 {
		return ""
	}
	for _, r := range color[1:] {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return ""
		}
	}
	return color
}

// List 获取类别列表
// @Summary 获取消费类别列表
// @Description 获取当前用户的消费类别列表（按名称排序），每个类别附带当月消费金额和预算进度
// @Tags 类别
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]CategoryView} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/categories [get]
func (h *CategoryHandler) List(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var list []models.Category
	if err := database.DB.Where("user_id = ?", userID).Order("name ASC").Find(&list).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	// 进度基于当前月份，参考时间在请求入口处统一取一次
	now := time.Now()
	agg := service.NewAggregator(database.DB)

	views := make([]CategoryView, 0, len(list))
	for _, cat := range list {
		spend, err := agg.SumForPeriod(userID, &cat.ID, now.Year(), int(now.Month()))
		if err != nil {
			InternalError(c, SafeErrorMessage(err, "查询失败"))
			return
		}
		views = append(views, CategoryView{
			Category:             cat,
			CurrentMonthSpending: spend,
			BudgetProgress:       service.Progress(spend, cat.BudgetAmount),
		})
	}

	Success(c, views)
}

// Create 创建类别
// @Summary 创建消费类别
// @Description 为当前用户创建新的消费类别
// @Tags 类别
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CategoryCreateRequest true "类别信息"
// @Success 200 {object} Response{data=models.Category} "创建成功"
// @Failure 400 {object} Response "参数错误或类别名称已存在"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/categories [post]
func (h *CategoryHandler) Create(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req CategoryCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		BadRequest(c, "名称不能为空")
		return
	}

	// 同一用户下名称唯一
	var existing models.Category
	if err := database.DB.Where("user_id = ? AND name = ?", userID, req.Name).First(&existing).Error; err == nil {
		BadRequest(c, "类别名称已存在")
		return
	}

	color := normalizeColor(req.Color)
	if req.Color != "" && color == "" {
		BadRequest(c, "无效的颜色代码")
		return
	}

	cat := models.Category{
		UserID:         userID,
		Name:           req.Name,
		Icon:           req.Icon,
		Color:          color,
		AlertThreshold: models.DefaultAlertThreshold,
		IsActive:       true,
	}
	if req.BudgetAmount != nil {
		if req.BudgetAmount.IsNegative() {
			BadRequest(c, "预算金额不能为负数")
			return
		}
		cat.BudgetAmount = *req.BudgetAmount
	}
	if req.AlertThreshold != nil {
		cat.AlertThreshold = *req.AlertThreshold
	}

	if err := database.DB.Create(&cat).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "创建失败"))
		return
	}
	SuccessWithMessage(c, "创建成功", cat)
}

// Update 更新类别
// @Summary 更新消费类别
// @Description 更新当前用户的指定类别，只能操作自己的类别
// @Tags 类别
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "类别ID"
// @Param request body CategoryUpdateRequest true "更新的类别信息"
// @Success 200 {object} Response{data=models.Category} "更新成功"
// @Failure 400 {object} Response "参数错误"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "类别不存在"
// @Router /api/v1/categories/{id} [put]
func (h *CategoryHandler) Update(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id64, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	// 归属校验：只能操作自己的类别
	var cat models.Category
	if err := database.DB.Where("id = ? AND user_id = ?", id64, userID).First(&cat).Error; err != nil {
		NotFound(c, "类别不存在")
		return
	}

	var req CategoryUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	updates := make(map[string]interface{})
	if req.Name != "" {
		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" {
			BadRequest(c, "名称不能为空")
			return
		}
		var existing models.Category
		if err := database.DB.Where("user_id = ? AND name = ? AND id != ?", userID, req.Name, cat.ID).First(&existing).Error; err == nil {
			BadRequest(c, "类别名称已存在")
			return
		}
		updates["name"] = req.Name
	}
	if req.Icon != nil {
		updates["icon"] = *req.Icon
	}
	if req.Color != nil {
		color := normalizeColor(*req.Color)
		if *req.Color != "" && color == "" {
			BadRequest(c, "无效的颜色代码")
			return
		}
		updates["color"] = color
	}
	if req.BudgetAmount != nil {
		if req.BudgetAmount.IsNegative() {
			BadRequest(c, "预算金额不能为负数")
			return
		}
		updates["budget_amount"] = *req.BudgetAmount
	}
	if req.AlertThreshold != nil {
		updates["alert_threshold"] = *req.AlertThreshold
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if len(updates) == 0 {
		SuccessWithMessage(c, "无需更新", cat)
		return
	}

	if err := database.DB.Model(&cat).Updates(updates).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "更新失败"))
		return
	}
	database.DB.First(&cat, cat.ID)
	SuccessWithMessage(c, "更新成功", cat)
}

// Delete 删除类别
// @Summary 删除消费类别
// @Description 删除当前用户的指定类别，存在关联消费记录时拒绝删除
// @Tags 类别
// @Produce json
// @Security BearerAuth
// @Param id path int true "类别ID"
// @Success 200 {object} Response "删除成功"
// @Failure 400 {object} Response "存在关联消费记录"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "类别不存在"
// @Router /api/v1/categories/{id} [delete]
func (h *CategoryHandler) Delete(c *gin.Context) {
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

	// 有消费记录的类别不允许删除
	var expenseCount int64
	database.DB.Model(&models.Expense{}).Where("category_id = ?", cat.ID).Count(&expenseCount)
	if expenseCount > 0 {
		BadRequest(c, "该类别下存在消费记录，无法删除")
		return
	}

	if err := database.DB.Delete(&cat).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "删除失败"))
		return
	}
	SuccessWithMessage(c, "删除成功", nil)
}
