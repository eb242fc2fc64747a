package api

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"sooraneh/config"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// asUser 模拟已通过 JWT 认证的请求上下文
func asUser(userID uint) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", userID)
		c.Next()
	}
}

func TestWalletHandler_Create_QuotaExceeded(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	cfg := testConfig()
	config.GlobalConfig = cfg
	defer func() { config.GlobalConfig = nil }()

	// 无有效订阅：免费配额为 1
	mock.ExpectQuery("SELECT .* FROM `subscriptions`").
		WillReturnRows(sqlmock.NewRows([]string{}))
	// 已有 1 个钱包
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `wallets`").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/wallets", asUser(1), NewWalletHandler().Create)

	body := `{"name":"银行卡","balance":0}`
	req := httptest.NewRequest("POST", "/wallets", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 403, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "钱包数量已达套餐上限", resp["message"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletHandler_Create(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	cfg := testConfig()
	config.GlobalConfig = cfg
	defer func() { config.GlobalConfig = nil }()

	mock.ExpectQuery("SELECT .* FROM `subscriptions`").
		WillReturnRows(sqlmock.NewRows([]string{}))
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `wallets`").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `wallets`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/wallets", asUser(1), NewWalletHandler().Create)

	body := `{"name":"现金","balance":10000}`
	req := httptest.NewRequest("POST", "/wallets", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "创建成功", resp["message"])
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "现金", data["name"])
	assert.Equal(t, float64(10000), data["balance"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletHandler_Delete_RefusedWhenReferenced(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	cfg := testConfig()
	config.GlobalConfig = cfg
	defer func() { config.GlobalConfig = nil }()

	mock.ExpectQuery("SELECT .* FROM `wallets`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "name", "balance"}).
			AddRow(1, 1, "现金", 5000))
	// 仍有收入引用该钱包
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `incomes`").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `expenses`").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.DELETE("/wallets/:id", asUser(1), NewWalletHandler().Delete)

	req := httptest.NewRequest("DELETE", "/wallets/1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 400, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}
