package api

import (
	"bytes"
	"net/http/httptest"
	"testing"
	"time"

	"sooraneh/config"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFundHandler_AddMember_RejoinsFormerMember(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	config.GlobalConfig = testConfig()
	defer func() { config.GlobalConfig = nil }()

	mock.ExpectQuery("SELECT .* FROM `funds`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "creator_id", "name", "contribution_amount", "start_date"}).
			AddRow(1, 1, "家庭互助会", 10000, time.Now()))
	mock.ExpectQuery("SELECT .* FROM `fund_memberships`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "fund_id", "user_id"}).AddRow(1, 1, 1))
	mock.ExpectQuery("SELECT .* FROM `users`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username"}).AddRow(2, "xiaoming"))
	// 默认作用域看不到已退出的成员关系
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `fund_memberships`").WillReturnRows(countRows(0))
	// 退出过的成员恢复原纪录（清掉 deleted_at），而不是新建触发唯一索引冲突
	mock.ExpectQuery("SELECT .* FROM `fund_memberships`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "fund_id", "user_id", "deleted_at"}).
			AddRow(7, 1, 2, time.Now()))
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `fund_memberships` SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/funds/:id/members", asUser(1), NewFundHandler().AddMember)

	body := `{"username":"xiaoming"}`
	req := httptest.NewRequest("POST", "/funds/1/members", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	assert.Contains(t, w.Body.String(), "添加成功")
	require.NoError(t, mock.ExpectationsWereMet())
}
