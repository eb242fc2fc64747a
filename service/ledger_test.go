package service

import (
	"testing"
	"time"

	"sooraneh/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, func()) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock, func() { sqlDB.Close() }
}

func walletRows(id uint, name string, balance int64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "user_id", "name", "balance"}).
		AddRow(id, 1, name, balance)
}

func uintPtr(v uint) *uint { return &v }

func TestLedgerService_CreateIncome_WithWallet(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM `wallets` .*FOR UPDATE").
		WillReturnRows(walletRows(1, "现金", 10000))
	mock.ExpectExec("UPDATE `wallets` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO `incomes`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	s := NewLedgerService(db)
	in := &models.Income{
		UserID:   1,
		WalletID: uintPtr(1),
		Amount:   5000,
		Date:     time.Now(),
	}
	require.NoError(t, s.CreateIncome(in))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerService_CreateIncome_NoWallet(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	// 无钱包时不触碰钱包表
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `incomes`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	s := NewLedgerService(db)
	in := &models.Income{UserID: 1, Amount: 5000, Date: time.Now()}
	require.NoError(t, s.CreateIncome(in))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerService_CreateExpense_InsufficientFunds(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	// 余额 100，支出 500：拒绝并回滚，余额不被修改
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM `wallets` .*FOR UPDATE").
		WillReturnRows(walletRows(1, "零钱包", 100))
	mock.ExpectRollback()

	s := NewLedgerService(db)
	ex := &models.Expense{
		UserID:   1,
		WalletID: uintPtr(1),
		Amount:   500,
		Date:     time.Now(),
	}
	err := s.CreateExpense(ex)
	require.Error(t, err)

	var insufficient *InsufficientFundsError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, "零钱包", insufficient.WalletName)
	assert.Equal(t, int64(100), insufficient.Balance)
	assert.Equal(t, int64(500), insufficient.Needed)
	assert.Contains(t, err.Error(), "零钱包")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerService_CreateExpense_Deducts(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM `wallets` .*FOR UPDATE").
		WillReturnRows(walletRows(1, "现金", 10000))
	mock.ExpectExec("UPDATE `wallets` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO `expenses`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	s := NewLedgerService(db)
	ex := &models.Expense{
		UserID:   1,
		WalletID: uintPtr(1),
		Amount:   3000,
		Date:     time.Now(),
	}
	require.NoError(t, s.CreateExpense(ex))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerService_UpdateExpense_SameWalletDelta(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	// 支出从 3000 改为 2000：余额按差额 +1000 调整
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM `wallets` .*FOR UPDATE").
		WillReturnRows(walletRows(1, "现金", 7000))
	mock.ExpectExec("UPDATE `wallets` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE `expenses` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	s := NewLedgerService(db)
	ex := &models.Expense{
		ID:       10,
		UserID:   1,
		WalletID: uintPtr(1),
		Amount:   3000,
	}
	updates := map[string]interface{}{"amount": int64(2000), "wallet_id": uintPtr(1)}
	require.NoError(t, s.UpdateExpense(ex, 2000, uintPtr(1), updates))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerService_UpdateExpense_SameWalletIncreaseRejected(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	// 支出从 3000 增到 9000，但余额只剩 2000：拒绝并回滚
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM `wallets` .*FOR UPDATE").
		WillReturnRows(walletRows(1, "现金", 2000))
	mock.ExpectRollback()

	s := NewLedgerService(db)
	ex := &models.Expense{
		ID:       10,
		UserID:   1,
		WalletID: uintPtr(1),
		Amount:   3000,
	}
	updates := map[string]interface{}{"amount": int64(9000), "wallet_id": uintPtr(1)}
	err := s.UpdateExpense(ex, 9000, uintPtr(1), updates)

	var insufficient *InsufficientFundsError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, int64(6000), insufficient.Needed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerService_UpdateExpense_CrossWallet(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	// 支出 5000 从钱包1（余额100）转到钱包2（余额20000）：
	// 钱包按ID升序加锁，旧钱包无条件退回，新钱包校验后扣减
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM `wallets` .*FOR UPDATE").
		WillReturnRows(walletRows(1, "现金", 100))
	mock.ExpectQuery("SELECT .* FROM `wallets` .*FOR UPDATE").
		WillReturnRows(walletRows(2, "银行卡", 20000))
	mock.ExpectExec("UPDATE `wallets` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE `wallets` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE `expenses` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	s := NewLedgerService(db)
	ex := &models.Expense{
		ID:       10,
		UserID:   1,
		WalletID: uintPtr(1),
		Amount:   5000,
	}
	updates := map[string]interface{}{"amount": int64(5000), "wallet_id": uintPtr(2)}
	require.NoError(t, s.UpdateExpense(ex, 5000, uintPtr(2), updates))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerService_UpdateExpense_CrossWalletRejected(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	// 新钱包余额不足：整个事务回滚，旧钱包的退回一并作废
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM `wallets` .*FOR UPDATE").
		WillReturnRows(walletRows(1, "现金", 100))
	mock.ExpectQuery("SELECT .* FROM `wallets` .*FOR UPDATE").
		WillReturnRows(walletRows(2, "银行卡", 1000))
	mock.ExpectExec("UPDATE `wallets` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	s := NewLedgerService(db)
	ex := &models.Expense{
		ID:       10,
		UserID:   1,
		WalletID: uintPtr(1),
		Amount:   5000,
	}
	updates := map[string]interface{}{"amount": int64(5000), "wallet_id": uintPtr(2)}
	err := s.UpdateExpense(ex, 5000, uintPtr(2), updates)

	var insufficient *InsufficientFundsError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, "银行卡", insufficient.WalletName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerService_DeleteExpense_RestoresBalance(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM `wallets` .*FOR UPDATE").
		WillReturnRows(walletRows(1, "现金", 7000))
	mock.ExpectExec("UPDATE `wallets` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	// 软删除
	mock.ExpectExec("UPDATE `expenses` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	s := NewLedgerService(db)
	ex := &models.Expense{
		ID:       10,
		UserID:   1,
		WalletID: uintPtr(1),
		Amount:   3000,
	}
	require.NoError(t, s.DeleteExpense(ex))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerService_DeleteIncome_RevertsBalance(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM `wallets` .*FOR UPDATE").
		WillReturnRows(walletRows(1, "现金", 7000))
	mock.ExpectExec("UPDATE `wallets` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE `incomes` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	s := NewLedgerService(db)
	in := &models.Income{
		ID:       11,
		UserID:   1,
		WalletID: uintPtr(1),
		Amount:   2000,
	}
	require.NoError(t, s.DeleteIncome(in))
	require.NoError(t, mock.ExpectationsWereMet())
}
