package api

import (
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

func sumRowsWith(value string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"COALESCE(SUM(amount), 0)"}).AddRow(value)
}

func TestReportHandler_SpendingHistory_InvalidMonths(t *testing.T) {
	_, cleanup := setupMockDB(t)
	defer cleanup()

	cfg := testConfig()
	config.GlobalConfig = cfg
	defer func() { config.GlobalConfig = nil }()

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(setUserIDMiddleware(1))
	router.GET("/reports/spending-history", NewReportHandler().SpendingHistory)

	for _, q := range []string{"months=0", "months=61", "months=abc"} {
		req := httptest.NewRequest("GET", "/reports/spending-history?"+q, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, 400, w.Code)
	}
}

func TestReportHandler_SpendingHistory(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	cfg := testConfig()
	config.GlobalConfig = cfg
	defer func() { config.GlobalConfig = nil }()

	// 近 3 个月逐月合计，升序返回
	now := time.Now()
	for i := 2; i >= 0; i-- {
		y, m := now.Year(), int(now.Month())-i
		for m < 1 {
			m += 12
			y--
		}
		mock.ExpectQuery("SELECT COALESCE").
			WithArgs(1, y, m).
			WillReturnRows(sumRowsWith("100.00"))
	}

	router := gin.New()
	router.Use(setUserIDMiddleware(1))
	router.GET("/reports/spending-history", NewReportHandler().SpendingHistory)

	req := httptest.NewRequest("GET", "/reports/spending-history?months=3", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	series := resp["data"].([]interface{})
	require.Len(t, series, 3)
	last := series[2].(map[string]interface{})
	assert.Equal(t, float64(now.Year()), last["year"])
	assert.Equal(t, float64(int(now.Month())), last["month"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportHandler_CategoryTrends_NotFound(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	cfg := testConfig()
	config.GlobalConfig = cfg
	defer func() { config.GlobalConfig = nil }()

	mock.ExpectQuery("SELECT .* FROM `categories`").
		WithArgs(42, 1).
		WillReturnRows(categoryRows())

	router := gin.New()
	router.Use(setUserIDMiddleware(1))
	router.GET("/reports/trends", NewReportHandler().CategoryTrends)

	req := httptest.NewRequest("GET", "/reports/trends?category_id=42", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 404, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}
