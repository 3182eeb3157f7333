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

func categoryRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "user_id", "name", "icon", "color", "is_default", "budget_amount", "alert_threshold", "is_active", "created_at", "updated_at", "deleted_at"})
}

func userRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "username", "email", "password", "created_at", "updated_at", "deleted_at"})
}

func TestExpenseHandler_Create(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	cfg := testConfig()
	config.GlobalConfig = cfg
	defer func() { config.GlobalConfig = nil }()

	// 类别归属校验：未设置预算，写入后不触发预警检查
	mock.ExpectQuery("SELECT .* FROM `categories`").
		WithArgs(1, 1).
		WillReturnRows(categoryRows().
			AddRow(1, 1, "餐饮", "utensils", "#ef4444", true, "0", 80, true, time.Now(), time.Now(), nil))
	mock.ExpectQuery("SELECT .* FROM `users`").
		WithArgs(1).
		WillReturnRows(userRows().AddRow(1, "testuser", "t@x.com", "hash", time.Now(), time.Now(), nil))

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `expenses`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(setUserIDMiddleware(1))
	router.POST("/expenses", NewExpenseHandler(cfg).Create)

	body := `{"amount":"99.99","category_id":1,"description":"午餐","date":"2024-01-15","payment_method":"cash"}`
	req := httptest.NewRequest("POST", "/expenses", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "创建成功", resp["message"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExpenseHandler_Create_TriggersAlert(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	cfg := testConfig()
	config.GlobalConfig = cfg
	defer func() { config.GlobalConfig = nil }()

	// 类别预算 200，阈值 80%
	mock.ExpectQuery("SELECT .* FROM `categories`").
		WithArgs(1, 1).
		WillReturnRows(categoryRows().
			AddRow(1, 1, "餐饮", "utensils", "#ef4444", true, "200.00", 80, true, time.Now(), time.Now(), nil))
	mock.ExpectQuery("SELECT .* FROM `users`").
		WithArgs(1).
		WillReturnRows(userRows().AddRow(1, "testuser", "t@x.com", "hash", time.Now(), time.Now(), nil))

	// 写入消费后同一事务内重算聚合并生成预警
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `expenses`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("SELECT COALESCE").
		WithArgs(1, 2024, 1, 1).
		WillReturnRows(sqlmock.NewRows([]string{"COALESCE(SUM(amount), 0)"}).AddRow("160.00"))
	mock.ExpectExec("INSERT INTO `budget_alerts`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	router := gin.New()
	router.Use(setUserIDMiddleware(1))
	router.POST("/expenses", NewExpenseHandler(cfg).Create)

	body := `{"amount":"60.00","category_id":1,"description":"聚餐","date":"2024-01-15"}`
	req := httptest.NewRequest("POST", "/expenses", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExpenseHandler_Create_InvalidCategory(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	cfg := testConfig()
	config.GlobalConfig = cfg
	defer func() { config.GlobalConfig = nil }()

	// 他人的类别或不存在的类别均查不到
	mock.ExpectQuery("SELECT .* FROM `categories`").
		WithArgs(99, 1).
		WillReturnRows(categoryRows())

	router := gin.New()
	router.Use(setUserIDMiddleware(1))
	router.POST("/expenses", NewExpenseHandler(cfg).Create)

	body := `{"amount":"10","category_id":99,"description":"测试","date":"2024-01-15"}`
	req := httptest.NewRequest("POST", "/expenses", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 400, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExpenseHandler_Create_NonPositiveAmount(t *testing.T) {
	_, cleanup := setupMockDB(t)
	defer cleanup()

	cfg := testConfig()
	config.GlobalConfig = cfg
	defer func() { config.GlobalConfig = nil }()

	router := gin.New()
	router.Use(setUserIDMiddleware(1))
	router.POST("/expenses", NewExpenseHandler(cfg).Create)

	body := `{"amount":"-5","category_id":1,"description":"测试","date":"2024-01-15"}`
	req := httptest.NewRequest("POST", "/expenses", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 400, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "金额必须大于 0", resp["message"])
}

func TestExpenseHandler_Get_NotFound(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	cfg := testConfig()
	config.GlobalConfig = cfg
	defer func() { config.GlobalConfig = nil }()

	// 只能查看自己的记录：他人的记录按不存在处理
	mock.ExpectQuery("SELECT .* FROM `expenses`").
		WithArgs(5, 1).
		WillReturnRows(sqlmock.NewRows([]string{}))

	router := gin.New()
	router.Use(setUserIDMiddleware(1))
	router.GET("/expenses/:id", NewExpenseHandler(cfg).Get)

	req := httptest.NewRequest("GET", "/expenses/5", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 404, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}
