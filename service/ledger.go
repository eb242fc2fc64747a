package service

import (
	"fmt"

	"sooraneh/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InsufficientFundsError 钱包余额不足错误
type InsufficientFundsError struct {
	WalletName string
	Balance    int64 // 当前余额，单位：分
	Needed     int64 // 本次需要扣除的金额，单位：分
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("钱包「%s」余额不足：当前余额 %d，需要 %d", e.WalletName, e.Balance, e.Needed)
}

// LedgerService 钱包账本服务
// 负责在收入/支出的创建、修改、删除过程中维护钱包余额的一致性：
// 余额恒等于所有生效交易的带符号之和（收入为正，支出为负）。
// 所有读改写都在同一个数据库事务内完成，并对涉及的钱包行加排它锁，
// 同一钱包上的并发修改不会交错。
type LedgerService struct {
	db *gorm.DB
}

// NewLedgerService 创建钱包账本服务
func NewLedgerService(db *gorm.DB) *LedgerService {
	return &LedgerService{db: db}
}

// lockWallet 锁定并返回钱包行（SELECT ... FOR UPDATE）
func lockWallet(tx *gorm.DB, walletID uint, userID uint) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND user_id = ?", walletID, userID).
		First(&wallet).Error; err != nil {
		return nil, err
	}
	return &wallet, nil
}

// applyDelta 调整钱包余额
func applyDelta(tx *gorm.DB, wallet *models.Wallet, delta int64) error {
	wallet.Balance += delta
	return tx.Model(&models.Wallet{}).Where("id = ?", wallet.ID).
		Update("balance", wallet.Balance).Error
}

// CreateIncome 创建收入。关联钱包时余额增加 amount，无钱包则不影响余额。
func (s *LedgerService) CreateIncome(in *models.Income) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if in.WalletID != nil {
			wallet, err := lockWallet(tx, *in.WalletID, in.UserID)
			if err != nil {
				return err
			}
			if err := applyDelta(tx, wallet, in.Amount); err != nil {
				return err
			}
		}
		return tx.Create(in).Error
	})
}

// CreateExpense 创建支出。关联钱包时要求余额充足，否则返回 InsufficientFundsError。
func (s *LedgerService) CreateExpense(ex *models.Expense) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if ex.WalletID != nil {
			wallet, err := lockWallet(tx, *ex.WalletID, ex.UserID)
			if err != nil {
				return err
			}
			if wallet.Balance < ex.Amount {
				return &InsufficientFundsError{WalletName: wallet.Name, Balance: wallet.Balance, Needed: ex.Amount}
			}
			if err := applyDelta(tx, wallet, -ex.Amount); err != nil {
				return err
			}
		}
		return tx.Create(ex).Error
	})
}

// UpdateIncome 更新收入。updates 为要写入记录的字段集合（已包含 amount、wallet_id）。
// 钱包不变时按差额调整余额；换钱包时先撤销旧钱包上的全部影响，再对新钱包施加新影响。
func (s *LedgerService) UpdateIncome(in *models.Income, newAmount int64, newWalletID *uint, updates map[string]interface{}) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		oldWallet, newWallet, err := lockWalletPair(tx, in.UserID, in.WalletID, newWalletID)
		if err != nil {
			return err
		}

		switch {
		case sameWallet(in.WalletID, newWalletID):
			if oldWallet != nil {
				if err := applyDelta(tx, oldWallet, newAmount-in.Amount); err != nil {
					return err
				}
			}
		default:
			if oldWallet != nil {
				if err := applyDelta(tx, oldWallet, -in.Amount); err != nil {
					return err
				}
			}
			if newWallet != nil {
				if err := applyDelta(tx, newWallet, newAmount); err != nil {
					return err
				}
			}
		}

		return tx.Model(in).Updates(updates).Error
	})
}

// UpdateExpense 更新支出。规则与 UpdateIncome 对称，但方向相反，
// 且任何会导致余额为负的变更都以 InsufficientFundsError 拒绝，整个事务回滚。
func (s *LedgerService) UpdateExpense(ex *models.Expense, newAmount int64, newWalletID *uint, updates map[string]interface{}) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		oldWallet, newWallet, err := lockWalletPair(tx, ex.UserID, ex.WalletID, newWalletID)
		if err != nil {
			return err
		}

		switch {
		case sameWallet(ex.WalletID, newWalletID):
			if oldWallet != nil {
				// 支出增大时余额进一步减少，需要校验
				delta := ex.Amount - newAmount
				if delta < 0 && oldWallet.Balance < -delta {
					return &InsufficientFundsError{WalletName: oldWallet.Name, Balance: oldWallet.Balance, Needed: -delta}
				}
				if err := applyDelta(tx, oldWallet, delta); err != nil {
					return err
				}
			}
		default:
			// 撤销旧钱包上的扣减（加回余额，必然成功）
			if oldWallet != nil {
				if err := applyDelta(tx, oldWallet, ex.Amount); err != nil {
					return err
				}
			}
			// 对新钱包按创建时的规则扣减；失败则整个事务回滚，旧钱包的撤销一并作废
			if newWallet != nil {
				if newWallet.Balance < newAmount {
					return &InsufficientFundsError{WalletName: newWallet.Name, Balance: newWallet.Balance, Needed: newAmount}
				}
				if err := applyDelta(tx, newWallet, -newAmount); err != nil {
					return err
				}
			}
		}

		return tx.Model(ex).Updates(updates).Error
	})
}

// DeleteIncome 删除收入，先撤销其对钱包的影响再删除记录
func (s *LedgerService) DeleteIncome(in *models.Income) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if in.WalletID != nil {
			wallet, err := lockWallet(tx, *in.WalletID, in.UserID)
			if err != nil {
				return err
			}
			if err := applyDelta(tx, wallet, -in.Amount); err != nil {
				return err
			}
		}
		return tx.Delete(in).Error
	})
}

// DeleteExpense 删除支出，无条件把金额加回钱包后删除记录
func (s *LedgerService) DeleteExpense(ex *models.Expense) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if ex.WalletID != nil {
			wallet, err := lockWallet(tx, *ex.WalletID, ex.UserID)
			if err != nil {
				return err
			}
			if err := applyDelta(tx, wallet, ex.Amount); err != nil {
				return err
			}
		}
		return tx.Delete(ex).Error
	})
}

// sameWallet 判断新旧钱包引用是否指向同一个钱包（都为空也算相同）
func sameWallet(a, b *uint) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// lockWalletPair 锁定新旧两个钱包行。两行都涉及时按钱包ID升序加锁，避免死锁。
// 返回值分别对应旧钱包与新钱包；引用相同时两个返回值是同一个对象。
func lockWalletPair(tx *gorm.DB, userID uint, oldID, newID *uint) (oldWallet, newWallet *models.Wallet, err error) {
	if sameWallet(oldID, newID) {
		if oldID == nil {
			return nil, nil, nil
		}
		w, err := lockWallet(tx, *oldID, userID)
		if err != nil {
			return nil, nil, err
		}
		return w, w, nil
	}

	type ref struct {
		id    uint
		isOld bool
	}
	var refs []ref
	if oldID != nil {
		refs = append(refs, ref{id: *oldID, isOld: true})
	}
	if newID != nil {
		refs = append(refs, ref{id: *newID, isOld: false})
	}
	if len(refs) == 2 && refs[0].id > refs[1].id {
		refs[0], refs[1] = refs[1], refs[0]
	}
	for _, r := range refs {
		w, err := lockWallet(tx, r.id, userID)
		if err != nil {
			return nil, nil, err
		}
		if r.isOld {
			oldWallet = w
		} else {
			newWallet = w
		}
	}
	return oldWallet, newWallet, nil
}
