package service

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitEqually(t *testing.T) {
	tests := []struct {
		name      string
		amount    int64
		memberIDs []uint
		want      map[uint]int64
	}{
		{
			name:      "整除",
			amount:    300,
			memberIDs: []uint{1, 2, 3},
			want:      map[uint]int64{1: 100, 2: 100, 3: 100},
		},
		{
			name:      "余数给ID最大的成员",
			amount:    100,
			memberIDs: []uint{1, 2, 3},
			want:      map[uint]int64{1: 33, 2: 33, 3: 34},
		},
		{
			name:      "成员顺序不影响结果",
			amount:    100,
			memberIDs: []uint{3, 1, 2},
			want:      map[uint]int64{1: 33, 2: 33, 3: 34},
		},
		{
			name:      "单人独担",
			amount:    99,
			memberIDs: []uint{7},
			want:      map[uint]int64{7: 99},
		},
		{
			name:      "金额小于人数",
			amount:    2,
			memberIDs: []uint{1, 2, 3},
			want:      map[uint]int64{1: 0, 2: 0, 3: 2},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitEqually(tt.amount, tt.memberIDs)
			assert.Equal(t, tt.want, got)

			var total int64
			for _, v := range got {
				total += v
			}
			assert.Equal(t, tt.amount, total, "份额之和必须等于总额")
		})
	}
}

func TestSplitEqually_EmptyMembers(t *testing.T) {
	assert.Nil(t, SplitEqually(100, nil))
}

func TestBuildSettlements(t *testing.T) {
	balances := []MemberBalance{
		{UserID: 1, Username: "alice", Balance: 500},
		{UserID: 2, Username: "bob", Balance: -300},
		{UserID: 3, Username: "carol", Balance: -200},
	}
	settlements := BuildSettlements(balances)

	require.Len(t, settlements, 2)
	// 债务人按绝对值降序匹配
	assert.Equal(t, uint(2), settlements[0].FromID)
	assert.Equal(t, uint(1), settlements[0].ToID)
	assert.Equal(t, int64(300), settlements[0].Amount)
	assert.Equal(t, uint(3), settlements[1].FromID)
	assert.Equal(t, uint(1), settlements[1].ToID)
	assert.Equal(t, int64(200), settlements[1].Amount)
}

func TestBuildSettlements_Deterministic(t *testing.T) {
	// 两个债务人头寸相同，按用户ID升序排出
	balances := []MemberBalance{
		{UserID: 9, Username: "z", Balance: -100},
		{UserID: 2, Username: "b", Balance: -100},
		{UserID: 5, Username: "c", Balance: 200},
	}
	first := BuildSettlements(balances)
	require.Len(t, first, 2)
	assert.Equal(t, uint(2), first[0].FromID)
	assert.Equal(t, uint(9), first[1].FromID)

	// 多次计算结果完全一致
	for i := 0; i < 10; i++ {
		again := BuildSettlements([]MemberBalance{
			{UserID: 9, Username: "z", Balance: -100},
			{UserID: 2, Username: "b", Balance: -100},
			{UserID: 5, Username: "c", Balance: 200},
		})
		assert.Equal(t, first, again)
	}
}

func TestBuildSettlements_SumInvariant(t *testing.T) {
	balances := []MemberBalance{
		{UserID: 1, Balance: 733},
		{UserID: 2, Balance: -250},
		{UserID: 3, Balance: -483},
		{UserID: 4, Balance: 0},
	}
	settlements := BuildSettlements(balances)

	var transferred, positive int64
	for _, s := range settlements {
		assert.Greater(t, s.Amount, int64(0))
		transferred += s.Amount
	}
	for _, b := range balances {
		if b.Balance > 0 {
			positive += b.Balance
		}
	}
	assert.Equal(t, positive, transferred, "转账之和必须等于正头寸之和")
}

func TestBuildSettlements_AllSettled(t *testing.T) {
	balances := []MemberBalance{
		{UserID: 1, Balance: 0},
		{UserID: 2, Balance: 0},
	}
	assert.Empty(t, BuildSettlements(balances))
}

func TestBuildSettlements_SingleTransfer(t *testing.T) {
	balances := []MemberBalance{
		{UserID: 1, Username: "alice", Balance: -150},
		{UserID: 2, Username: "bob", Balance: 150},
	}
	settlements := BuildSettlements(balances)
	require.Len(t, settlements, 1)
	assert.Equal(t, Settlement{FromID: 1, From: "alice", ToID: 2, To: "bob", Amount: 150}, settlements[0])
}

func TestCreateGroupExpense_UnknownSplitType(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM `group_members`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "group_id", "user_id"}).AddRow(1, 1, 1))
	mock.ExpectQuery("SELECT .* FROM `users`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username"}).AddRow(1, "alice"))
	mock.ExpectRollback()

	svc := NewSettlementService(db)
	_, err := svc.CreateGroupExpense(1, 1, "账单", 100, time.Now(), "RANDOM", nil)
	require.ErrorIs(t, err, ErrUnknownSplitType)
	require.NoError(t, mock.ExpectationsWereMet())
}
