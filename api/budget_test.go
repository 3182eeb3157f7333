package api

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"centsible/config"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBudgetHandler_SaveCategoryBudget_UpsertExisting(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	cfg := testConfig()
	config.GlobalConfig = cfg
	defer func() { config.GlobalConfig = nil }()

	now := time.Now()

	// 归属校验
	mock.ExpectQuery("SELECT .* FROM `categories`").
		WithArgs(1, 1).
		WillReturnRows(categoryRows().
			AddRow(1, 1, "餐饮", "utensils", "#ef4444", true, "0", 80, true, now, now, nil))
	mock.ExpectQuery("SELECT .* FROM `users`").
		WithArgs(1).
		WillReturnRows(userRows().AddRow(1, "testuser", "t@x.com", "hash", now, now, nil))

	mock.ExpectBegin()
	// 更新类别预算设置
	mock.ExpectExec("UPDATE `categories`").
		WillReturnResult(sqlmock.NewResult(0, 1))
	// 当月已有快照：原地更新而非新建，(用户, 类别, 年, 月) 不产生重复记录
	mock.ExpectQuery("SELECT .* FROM `budgets`").
		WithArgs(1, 1, now.Year(), int(now.Month())).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "category_id", "amount", "year", "month", "notes", "created_at", "updated_at", "deleted_at"}).
			AddRow(5, 1, 1, "200.00", now.Year(), int(now.Month()), "", now, now, nil))
	mock.ExpectExec("UPDATE `budgets`").
		WillReturnResult(sqlmock.NewResult(0, 1))
	// 重新加载类别并检查预警：支出 0，不触发
	mock.ExpectQuery("SELECT .* FROM `categories`").
		WithArgs(1).
		WillReturnRows(categoryRows().
			AddRow(1, 1, "餐饮", "utensils", "#ef4444", true, "300.00", 80, true, now, now, nil))
	mock.ExpectQuery("SELECT COALESCE").
		WithArgs(1, now.Year(), int(now.Month()), 1).
		WillReturnRows(sqlmock.NewRows([]string{"COALESCE(SUM(amount), 0)"}).AddRow("0"))
	mock.ExpectCommit()

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(setUserIDMiddleware(1))
	router.PUT("/budgets/category/:id", NewBudgetHandler(cfg).SaveCategoryBudget)

	body := `{"budget_amount":"300.00"}`
	req := httptest.NewRequest("PUT", "/budgets/category/1", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "保存成功", resp["message"])
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, float64(5), data["id"])
	assert.Equal(t, "300", data["amount"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBudgetHandler_SaveCategoryBudget_NonPositiveAmount(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	cfg := testConfig()
	config.GlobalConfig = cfg
	defer func() { config.GlobalConfig = nil }()

	now := time.Now()
	mock.ExpectQuery("SELECT .* FROM `categories`").
		WithArgs(1, 1).
		WillReturnRows(categoryRows().
			AddRow(1, 1, "餐饮", "utensils", "#ef4444", true, "0", 80, true, now, now, nil))

	router := gin.New()
	router.Use(setUserIDMiddleware(1))
	router.PUT("/budgets/category/:id", NewBudgetHandler(cfg).SaveCategoryBudget)

	body := `{"budget_amount":"0"}`
	req := httptest.NewRequest("PUT", "/budgets/category/1", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 400, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "预算金额必须大于 0", resp["message"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBudgetHandler_SaveCategoryBudget_NotOwner(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	cfg := testConfig()
	config.GlobalConfig = cfg
	defer func() { config.GlobalConfig = nil }()

	// 他人的类别查不到
	mock.ExpectQuery("SELECT .* FROM `categories`").
		WithArgs(7, 1).
		WillReturnRows(categoryRows())

	router := gin.New()
	router.Use(setUserIDMiddleware(1))
	router.PUT("/budgets/category/:id", NewBudgetHandler(cfg).SaveCategoryBudget)

	body := `{"budget_amount":"100"}`
	req := httptest.NewRequest("PUT", "/budgets/category/7", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 404, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBudgetHandler_ListAlerts_UnreadOnly(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	cfg := testConfig()
	config.GlobalConfig = cfg
	defer func() { config.GlobalConfig = nil }()

	now := time.Now()
	mock.ExpectQuery("SELECT .* FROM `budget_alerts`").
		WithArgs(1, false).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "category_id", "alert_type", "message", "is_read", "created_at", "updated_at", "deleted_at"}).
			AddRow(1, 1, 3, "threshold", "预算提醒：餐饮 本月支出已达预算的 85%", false, now, now, nil))

	router := gin.New()
	router.Use(setUserIDMiddleware(1))
	router.GET("/budgets/alerts", NewBudgetHandler(cfg).ListAlerts)

	req := httptest.NewRequest("GET", "/budgets/alerts", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	alerts := resp["data"].([]interface{})
	require.Len(t, alerts, 1)
	first := alerts[0].(map[string]interface{})
	assert.Contains(t, first["message"], "85%")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBudgetHandler_MarkAlertsRead(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	cfg := testConfig()
	config.GlobalConfig = cfg
	defer func() { config.GlobalConfig = nil }()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `budget_alerts`").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	router := gin.New()
	router.Use(setUserIDMiddleware(1))
	router.POST("/budgets/alerts/mark-read", NewBudgetHandler(cfg).MarkAlertsRead)

	req := httptest.NewRequest("POST", "/budgets/alerts/mark-read", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}
