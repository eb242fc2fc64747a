package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"sooraneh/config"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func groupRows(id, ownerID uint, name string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "owner_id", "name"}).AddRow(id, ownerID, name)
}

func groupMemberRows(groupID uint, userIDs ...uint) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "group_id", "user_id"})
	for i, uid := range userIDs {
		rows.AddRow(i+1, groupID, uid)
	}
	return rows
}

func memberUserRows(ids ...uint) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "username"})
	for _, id := range ids {
		rows.AddRow(id, fmt.Sprintf("user%d", id))
	}
	return rows
}

func countRows(n int64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"count"}).AddRow(n)
}

func TestGroupHandler_CreateExpense_PayerOtherMember(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	config.GlobalConfig = testConfig()
	defer func() { config.GlobalConfig = nil }()

	mock.ExpectQuery("SELECT .* FROM `groups`").WillReturnRows(groupRows(1, 1, "合租公寓"))
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `group_members`").WillReturnRows(countRows(1))
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM `group_members`").WillReturnRows(groupMemberRows(1, 1, 2))
	mock.ExpectQuery("SELECT .* FROM `users`").WillReturnRows(memberUserRows(1, 2))
	mock.ExpectExec("INSERT INTO `group_expenses`").WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectExec("INSERT INTO `splits`").WillReturnResult(sqlmock.NewResult(1, 2))
	mock.ExpectCommit()
	mock.ExpectQuery("SELECT .* FROM `group_expenses`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "group_id", "payer_id", "description", "amount", "date"}).
			AddRow(7, 1, 2, "水电费", 30000, time.Now()))
	mock.ExpectQuery("SELECT .* FROM `splits`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "expense_id", "user_id", "amount_owed"}).
			AddRow(1, 7, 1, 15000).AddRow(2, 7, 2, 15000))

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/groups/:id/expenses", asUser(1), NewGroupHandler().CreateExpense)

	// 成员 1 代另一位成员 2 记账
	body := `{"description":"水电费","amount":30000,"date":"2024-01-15","payer_id":2,"split_type":"EQUAL"}`
	req := httptest.NewRequest("POST", "/groups/1/expenses", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, float64(2), data["payer_id"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupHandler_CreateExpense_PayerNotMember(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	config.GlobalConfig = testConfig()
	defer func() { config.GlobalConfig = nil }()

	mock.ExpectQuery("SELECT .* FROM `groups`").WillReturnRows(groupRows(1, 1, "合租公寓"))
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `group_members`").WillReturnRows(countRows(1))
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM `group_members`").WillReturnRows(groupMemberRows(1, 1, 2))
	mock.ExpectQuery("SELECT .* FROM `users`").WillReturnRows(memberUserRows(1, 2))
	mock.ExpectRollback()

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/groups/:id/expenses", asUser(1), NewGroupHandler().CreateExpense)

	body := `{"description":"水电费","amount":30000,"date":"2024-01-15","payer_id":99,"split_type":"EQUAL"}`
	req := httptest.NewRequest("POST", "/groups/1/expenses", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 400, w.Code)
	assert.Contains(t, w.Body.String(), "付款人必须是群组成员")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupHandler_CreateExpense_ManualZeroShare(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	config.GlobalConfig = testConfig()
	defer func() { config.GlobalConfig = nil }()

	mock.ExpectQuery("SELECT .* FROM `groups`").WillReturnRows(groupRows(1, 1, "合租公寓"))
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `group_members`").WillReturnRows(countRows(1))
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM `group_members`").WillReturnRows(groupMemberRows(1, 1, 2))
	mock.ExpectQuery("SELECT .* FROM `users`").WillReturnRows(memberUserRows(1, 2))
	mock.ExpectExec("INSERT INTO `group_expenses`").WillReturnResult(sqlmock.NewResult(8, 1))
	mock.ExpectExec("INSERT INTO `splits`").WillReturnResult(sqlmock.NewResult(1, 2))
	mock.ExpectCommit()
	mock.ExpectQuery("SELECT .* FROM `group_expenses`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "group_id", "payer_id", "description", "amount", "date"}).
			AddRow(8, 1, 1, "房租", 30000, time.Now()))
	mock.ExpectQuery("SELECT .* FROM `splits`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "expense_id", "user_id", "amount_owed"}).
			AddRow(1, 8, 1, 0).AddRow(2, 8, 2, 30000))

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/groups/:id/expenses", asUser(1), NewGroupHandler().CreateExpense)

	// 份额为 0 的成员合法，总和仍须等于总额
	body := `{"description":"房租","amount":30000,"date":"2024-01-15","split_type":"MANUAL",` +
		`"manual_splits":[{"user_id":1,"amount_owed":0},{"user_id":2,"amount_owed":30000}]}`
	req := httptest.NewRequest("POST", "/groups/1/expenses", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupHandler_RemoveMember(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	config.GlobalConfig = testConfig()
	defer func() { config.GlobalConfig = nil }()

	mock.ExpectQuery("SELECT .* FROM `groups`").WillReturnRows(groupRows(1, 1, "合租公寓"))
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `group_members`").WillReturnRows(countRows(1))
	mock.ExpectQuery("SELECT .* FROM `group_members`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "group_id", "user_id"}).AddRow(5, 1, 2))
	mock.ExpectBegin()
	// 必须是物理删除，软删除会留下唯一索引占位，挡住重新加入
	mock.ExpectExec("DELETE FROM `group_members`").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.DELETE("/groups/:id/members/:user_id", asUser(1), NewGroupHandler().RemoveMember)

	req := httptest.NewRequest("DELETE", "/groups/1/members/2", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	assert.Contains(t, w.Body.String(), "移除成功")
	require.NoError(t, mock.ExpectationsWereMet())
}
