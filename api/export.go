package api

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"centsible/database"
	"centsible/middleware"
	"centsible/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// ExportHandler 导出处理器
type ExportHandler struct{}

// NewExportHandler 创建导出处理器
func NewExportHandler() *ExportHandler {
	return &ExportHandler{}
}

// exportColumns 导出列头，列结构是对外契约，修改需同步客户端
var exportColumns = []string{
	"Date", "Category", "Description", "Amount",
	"Payment Method", "Is Recurring", "Recurrence Frequency", "Notes",
}

// loadExpensesWithCategories 查询用户全部消费记录（按日期倒序）及类别名称映射
func loadExpensesWithCategories(userID uint) ([]models.Expense, map[uint]string, error) {
	var expenses []models.Expense
	if err := database.DB.Where("user_id = ?", userID).
		Order("date DESC, id DESC").
		Find(&expenses).Error; err != nil {
		return nil, nil, err
	}

	var categories []models.Category
	if err := database.DB.Where("user_id = ?", userID).Find(&categories).Error; err != nil {
		return nil, nil, err
	}
	names := make(map[uint]string, len(categories))
	for _, cat := range categories {
		names[cat.ID] = cat.Name
	}
	return expenses, names, nil
}

// exportRow 将一条消费记录转换为导出行
func exportRow(expense models.Expense, categoryName string) []string {
	isRecurring := "No"
	if expense.IsRecurring {
		isRecurring = "Yes"
	}
	return []string{
		expense.Date.Format("2006-01-02"),
		categoryName,
		expense.Description,
		expense.Amount.String(),
		expense.PaymentMethod,
		isRecurring,
		expense.RecurrenceFrequency,
		expense.ReceiptNote,
	}
}

// ExportCSV 导出消费记录为 CSV
// @Summary 导出消费记录为 CSV
// @Description 导出当前用户的全部消费记录。日期格式 YYYY-MM-DD，金额为纯数字，布尔值输出 Yes/No。
// @Tags 导出
// @Produce text/csv
// @Security BearerAuth
// @Success 200 {file} file "CSV 文件"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/export/csv [get]
func (h *ExportHandler) ExportCSV(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	expenses, categoryNames, err := loadExpensesWithCategories(userID)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询数据失败"))
		return
	}

	// 生成 CSV
	buf := new(bytes.Buffer)
	// 添加 BOM 以支持 Excel 中文显示
	buf.WriteString("\xEF\xBB\xBF")

	writer := csv.NewWriter(buf)

	if err := writer.Write(exportColumns); err != nil {
		InternalError(c, "生成 CSV 失败")
		return
	}

	for _, expense := range expenses {
		if err := writer.Write(exportRow(expense, categoryNames[expense.CategoryID])); err != nil {
			InternalError(c, "生成 CSV 失败")
			return
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		InternalError(c, "生成 CSV 失败")
		return
	}

	// 设置响应头
	filename := fmt.Sprintf("expenses_%s.csv", time.Now().Format("20060102"))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Header("Content-Length", fmt.Sprintf("%d", buf.Len()))

	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// ExportExcel 导出消费记录为 Excel
// @Summary 导出消费记录为 Excel
// @Description 导出当前用户的全部消费记录为 xlsx 文件，列结构与 CSV 导出一致
// @Tags 导出
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Success 200 {file} file "Excel 文件"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/export/excel [get]
func (h *ExportHandler) ExportExcel(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	expenses, categoryNames, err := loadExpensesWithCategories(userID)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询数据失败"))
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Expenses"
	index, err := f.NewSheet(sheet)
	if err != nil {
		InternalError(c, "生成 Excel 失败")
		return
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	// 写入表头
	for i, col := range exportColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, col)
	}

	// 写入数据
	for rowIdx, expense := range expenses {
		row := exportRow(expense, categoryNames[expense.CategoryID])
		for colIdx, value := range row {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			// 金额列写为数字，便于表格内求和
			if colIdx == 3 {
				amount, _ := expense.Amount.Float64()
				f.SetCellValue(sheet, cell, amount)
				continue
			}
			f.SetCellValue(sheet, cell, value)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		InternalError(c, "生成 Excel 失败")
		return
	}

	filename := fmt.Sprintf("expenses_%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Header("Content-Length", fmt.Sprintf("%d", buf.Len()))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// ExportJSON 导出消费记录为 JSON
// @Summary 导出消费记录为 JSON
// @Description 导出当前用户的全部消费记录及总金额
// @Tags 导出
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response "导出成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/export/json [get]
func (h *ExportHandler) ExportJSON(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	expenses, _, err := loadExpensesWithCategories(userID)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询数据失败"))
		return
	}

	// 计算汇总信息
	totalAmount := decimal.Zero
	for _, expense := range expenses {
		totalAmount = totalAmount.Add(expense.Amount)
	}

	Success(c, gin.H{
		"total_count":  len(expenses),
		"total_amount": totalAmount,
		"expenses":     expenses,
	})
}
