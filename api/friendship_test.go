package api

import (
	"bytes"
	"net/http/httptest"
	"testing"

	"sooraneh/config"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFriendshipHandler_SendRequest_AfterRejection(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	config.GlobalConfig = testConfig()
	defer func() { config.GlobalConfig = nil }()

	mock.ExpectQuery("SELECT .* FROM `users`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username"}).AddRow(2, "xiaoming"))
	// 双向查重排除 REJECTED，查不到记录
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `friendships`").WillReturnRows(countRows(0))
	// 同方向的被拒绝记录还在，复用该行改回 PENDING，而不是新建触发唯一索引冲突
	mock.ExpectQuery("SELECT .* FROM `friendships`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "from_user_id", "to_user_id", "status"}).
			AddRow(9, 1, 2, "REJECTED"))
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `friendships` SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/friendships", asUser(1), NewFriendshipHandler().SendRequest)

	body := `{"username":"xiaoming"}`
	req := httptest.NewRequest("POST", "/friendships", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	assert.Contains(t, w.Body.String(), "好友请求已发送")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFriendshipHandler_Remove(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	config.GlobalConfig = testConfig()
	defer func() { config.GlobalConfig = nil }()

	mock.ExpectQuery("SELECT .* FROM `friendships`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "from_user_id", "to_user_id", "status"}).
			AddRow(9, 1, 2, "ACCEPTED"))
	mock.ExpectBegin()
	// 物理删除，之后任一方都可以重新发起请求
	mock.ExpectExec("DELETE FROM `friendships`").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.DELETE("/friendships/:id", asUser(1), NewFriendshipHandler().Remove)

	req := httptest.NewRequest("DELETE", "/friendships/9", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}
