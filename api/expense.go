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

// ExpenseHandler 消费记录处理器
type ExpenseHandler struct {
	alertSvc *service.AlertService
}

// NewExpenseHandler 创建消费记录处理器
func NewExpenseHandler(cfg *config.Config) *ExpenseHandler {
	return &ExpenseHandler{
		alertSvc: service.NewAlertService(cfg),
	}
}

// CreateExpenseRequest 创建消费记录请求
type CreateExpenseRequest struct {
	Amount              decimal.Decimal `json:"amount" binding:"required" example:"99.99"`
	CategoryID          uint            `json:"category_id" binding:"required" example:"1"`
	Description         string          `json:"description" binding:"required,min=1,max=128" example:"午餐"`
	Date                string          `json:"date" binding:"required" example:"2024-01-15"`
	PaymentMethod       string          `json:"payment_method" binding:"omitempty,oneof=cash credit_card debit_card bank_transfer digital_wallet other"`
	IsRecurring         bool            `json:"is_recurring"`
	RecurrenceFrequency string          `json:"recurrence_frequency" binding:"omitempty,oneof=daily weekly monthly yearly"`
	ReceiptNote         string          `json:"receipt_note" binding:"omitempty,max=1000"`
}

// UpdateExpenseRequest 更新消费记录请求
type UpdateExpenseRequest struct {
	Amount              *decimal.Decimal `json:"amount" example:"99.99"`
	CategoryID          *uint            `json:"category_id" example:"1"`
	Description         string           `json:"description" binding:"omitempty,min=1,max=128"`
	Date                string           `json:"date" binding:"omitempty" example:"2024-01-15"`
	PaymentMethod       *string          `json:"payment_method" binding:"omitempty,oneof=cash credit_card debit_card bank_transfer digital_wallet other"`
	IsRecurring         *bool            `json:"is_recurring"`
	RecurrenceFrequency *string          `json:"recurrence_frequency" binding:"omitempty,oneof=daily weekly monthly yearly"`
	ReceiptNote         *string          `json:"receipt_note" binding:"omitempty,max=1000"`
}

// ExpenseListRequest 消费记录列表请求
type ExpenseListRequest struct {
	Page       int    `form:"page" example:"1"`
	PageSize   int    `form:"page_size" example:"20"`
	CategoryID uint   `form:"category_id" example:"1"`
	From       string `form:"from" example:"2024-01-01"`
	To         string `form:"to" example:"2024-12-31"`
}

// Create 创建消费记录
// @Summary 创建消费记录
// @Description 创建一条新的消费记录。写入后在同一事务内重新计算类别预算进度，达到预警阈值时生成预警记录。
// @Tags 消费记录
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateExpenseRequest true "消费记录信息"
// @Success 200 {object} Response{data=models.Expense} "创建成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/expenses [post]
func (h *ExpenseHandler) Create(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	if !req.Amount.IsPositive() {
		BadRequest(c, "金额必须大于 0")
		return
	}

	// 校验类别归属：只能记录到自己的类别下
	var cat models.Category
	if err := database.DB.Where("id = ? AND user_id = ?", req.CategoryID, userID).First(&cat).Error; err != nil {
		BadRequest(c, "无效的消费类别")
		return
	}

	// 解析日期
	date, err := time.ParseInLocation("2006-01-02", req.Date, time.Local)
	if err != nil {
		BadRequest(c, "日期格式错误，应为: 2006-01-02")
		return
	}

	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		NotFound(c, "用户不存在")
		return
	}

	expense := models.Expense{
		UserID:              userID,
		CategoryID:          req.CategoryID,
		Amount:              req.Amount,
		Description:         req.Description,
		Date:                date,
		PaymentMethod:       req.PaymentMethod,
		IsRecurring:         req.IsRecurring,
		RecurrenceFrequency: req.RecurrenceFrequency,
		ReceiptNote:         req.ReceiptNote,
	}

	// 写入消费 → 重算聚合 → 按需生成预警，三步在同一事务内，失败整体回滚
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&expense).Error; err != nil {
			return err
		}
		_, err := h.alertSvc.Check(tx, &user, &cat, date.Year(), int(date.Month()))
		return err
	})
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "创建消费记录失败"))
		return
	}

	SuccessWithMessage(c, "创建成功", expense)
}

// List 获取消费记录列表
// @Summary 获取消费记录列表
// @Description 获取当前用户的消费记录列表，支持分页、类别和日期范围筛选
// @Tags 消费记录
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(20)
// @Param category_id query int false "类别筛选"
// @Param from query string false "开始日期 (2024-01-01)"
// @Param to query string false "结束日期 (2024-12-31)"
// @Success 200 {object} Response{data=PageResponse{list=[]models.Expense}} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/expenses [get]
func (h *ExpenseHandler) List(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req ExpenseListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	// 默认分页参数
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 {
		req.PageSize = 20
	}
	if req.PageSize > 100 {
		req.PageSize = 100
	}

	query := database.DB.Model(&models.Expense{}).Where("user_id = ?", userID)

	// 类别筛选
	if req.CategoryID > 0 {
		query = query.Where("category_id = ?", req.CategoryID)
	}

	// 日期范围筛选
	if req.From != "" {
		from, err := time.ParseInLocation("2006-01-02", req.From, time.Local)
		if err == nil {
			query = query.Where("date >= ?", from)
		}
	}
	if req.To != "" {
		to, err := time.ParseInLocation("2006-01-02", req.To, time.Local)
		if err == nil {
			query = query.Where("date <= ?", to)
		}
	}

	// 获取总数
	var total int64
	query.Count(&total)

	// 获取列表
	var expenses []models.Expense
	offset := (req.Page - 1) * req.PageSize
	if err := query.Order("date DESC, id DESC").Offset(offset).Limit(req.PageSize).Find(&expenses).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	Success(c, PageResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		List:     expenses,
	})
}

// Get 获取单条消费记录
// @Summary 获取单条消费记录
// @Description 根据ID获取消费记录详情，只能查看自己的记录
// @Tags 消费记录
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "消费记录ID"
// @Success 200 {object} Response{data=models.Expense} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/expenses/{id} [get]
func (h *ExpenseHandler) Get(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	var expense models.Expense
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&expense).Error; err != nil {
		NotFound(c, "记录不存在")
		return
	}

	Success(c, expense)
}

// Update 更新消费记录
// @Summary 更新消费记录
// @Description 更新指定的消费记录，写入后在同一事务内重新检查预算预警
// @Tags 消费记录
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "消费记录ID"
// @Param request body UpdateExpenseRequest true "消费记录信息"
// @Success 200 {object} Response{data=models.Expense} "更新成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/expenses/{id} [put]
func (h *ExpenseHandler) Update(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	var expense models.Expense
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&expense).Error; err != nil {
		NotFound(c, "记录不存在")
		return
	}

	var req UpdateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	// 更新字段
	updates := make(map[string]interface{})
	categoryID := expense.CategoryID
	if req.Amount != nil {
		if !req.Amount.IsPositive() {
			BadRequest(c, "金额必须大于 0")
			return
		}
		updates["amount"] = *req.Amount
	}
	if req.CategoryID != nil {
		var cat models.Category
		if err := database.DB.Where("id = ? AND user_id = ?", *req.CategoryID, userID).First(&cat).Error; err != nil {
			BadRequest(c, "无效的消费类别")
			return
		}
		updates["category_id"] = *req.CategoryID
		categoryID = *req.CategoryID
	}
	if req.Description != "" {
		updates["description"] = req.Description
	}
	date := expense.Date
	if req.Date != "" {
		parsed, err := time.ParseInLocation("2006-01-02", req.Date, time.Local)
		if err != nil {
			BadRequest(c, "日期格式错误，应为: 2006-01-02")
			return
		}
		updates["date"] = parsed
		date = parsed
	}
	if req.PaymentMethod != nil {
		updates["payment_method"] = *req.PaymentMethod
	}
	if req.IsRecurring != nil {
		updates["is_recurring"] = *req.IsRecurring
	}
	if req.RecurrenceFrequency != nil {
		updates["recurrence_frequency"] = *req.RecurrenceFrequency
	}
	if req.ReceiptNote != nil {
		updates["receipt_note"] = *req.ReceiptNote
	}
	if len(updates) == 0 {
		SuccessWithMessage(c, "无需更新", expense)
		return
	}

	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		NotFound(c, "用户不存在")
		return
	}
	var cat models.Category
	if err := database.DB.Where("id = ? AND user_id = ?", categoryID, userID).First(&cat).Error; err != nil {
		BadRequest(c, "无效的消费类别")
		return
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&expense).Updates(updates).Error; err != nil {
			return err
		}
		_, err := h.alertSvc.Check(tx, &user, &cat, date.Year(), int(date.Month()))
		return err
	})
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "更新失败"))
		return
	}

	// 重新获取更新后的记录
	database.DB.First(&expense, expense.ID)
	SuccessWithMessage(c, "更新成功", expense)
}

// Delete 删除消费记录
// @Summary 删除消费记录
// @Description 删除指定的消费记录，只能删除自己的记录
// @Tags 消费记录
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "消费记录ID"
// @Success 200 {object} Response "删除成功"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/expenses/{id} [delete]
func (h *ExpenseHandler) Delete(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	var expense models.Expense
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&expense).Error; err != nil {
		NotFound(c, "记录不存在")
		return
	}

	if err := database.DB.Delete(&expense).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "删除失败"))
		return
	}

	SuccessWithMessage(c, "删除成功", nil)
}

// GetPaymentMethods 获取支付方式列表
// @Summary 获取支付方式列表
// @Description 获取所有可选的支付方式
// @Tags 消费记录
// @Produce json
// @Success 200 {object} Response{data=[]string} "获取成功"
// @Router /api/v1/payment-methods [get]
func (h *ExpenseHandler) GetPaymentMethods(c *gin.Context) {
	Success(c, models.GetPaymentMethods())
}
