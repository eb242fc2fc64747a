package service

import (
	"errors"
	"sort"
	"time"

	"sooraneh/models"

	"gorm.io/gorm"
)

// 群组分摊相关的业务错误
var (
	ErrNotAMember          = errors.New("你不是该群组的成员")
	ErrInvalidPayer        = errors.New("付款人必须是群组成员")
	ErrEmptyGroup          = errors.New("群组没有成员，无法分摊")
	ErrMissingManualSplits = errors.New("手动分摊必须提供每个成员的分摊金额")
	ErrSplitMismatch       = errors.New("分摊金额之和必须等于支出总额")
	ErrSplitUserNotMember  = errors.New("分摊对象必须是群组成员")
	ErrUnknownSplitType    = errors.New("未知的分摊方式")
)

// ManualSplit 手动分摊时单个成员的份额，允许为 0（该成员不承担）
type ManualSplit struct {
	UserID     uint  `json:"user_id" binding:"required"`
	AmountOwed int64 `json:"amount_owed" binding:"gte=0"`
}

// MemberBalance 单个成员的净头寸
type MemberBalance struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Paid     int64  `json:"paid"`    // 垫付总额，单位：分
	Owed     int64  `json:"owed"`    // 应承担总额，单位：分
	Balance  int64  `json:"balance"` // 净头寸 = 垫付 − 应承担，正数为债权人
}

// Settlement 一笔结算转账建议
type Settlement struct {
	FromID uint   `json:"from_id"`
	From   string `json:"from"`
	ToID   uint   `json:"to_id"`
	To     string `json:"to"`
	Amount int64  `json:"amount"` // 金额，单位：分
}

// GroupSummary 群组对账汇总
type GroupSummary struct {
	UserBalance int64           `json:"user_balance"` // 请求者本人的净头寸
	Balances    []MemberBalance `json:"balances"`
	Settlements []Settlement    `json:"settlements"`
}

// SettlementService 群组分摊与结算服务
type SettlementService struct {
	db *gorm.DB
}

// NewSettlementService 创建群组分摊服务
func NewSettlementService(db *gorm.DB) *SettlementService {
	return &SettlementService{db: db}
}

// SplitEqually 把 amount 均摊给 memberIDs。
// 先按成员ID升序排序，整除后的余数全部记到最后一个成员头上，
// 保证份额之和恰好等于 amount，不丢失一分钱。
func SplitEqually(amount int64, memberIDs []uint) map[uint]int64 {
	if len(memberIDs) == 0 {
		return nil
	}
	ids := make([]uint, len(memberIDs))
	copy(ids, memberIDs)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	n := int64(len(ids))
	share := amount / n
	shares := make(map[uint]int64, len(ids))
	for _, id := range ids {
		shares[id] = share
	}
	// 余数补给排序后的最后一个成员
	shares[ids[len(ids)-1]] = amount - share*(n-1)
	return shares
}

// BuildSettlements 根据净头寸计算结算转账建议。
// 贪心匹配：债务人与债权人都按净头寸绝对值降序排序（相同时按用户ID升序），
// 每次转移 min(剩余债务, 剩余债权)，输出顺序因此完全确定。
// 不变式：所有转账金额之和等于所有正头寸之和。
func BuildSettlements(balances []MemberBalance) []Settlement {
	var debtors, creditors []MemberBalance
	for _, b := range balances {
		if b.Balance < 0 {
			debtors = append(debtors, b)
		} else if b.Balance > 0 {
			creditors = append(creditors, b)
		}
	}
	byMagnitude := func(list []MemberBalance) {
		sort.Slice(list, func(i, j int) bool {
			ai, aj := abs64(list[i].Balance), abs64(list[j].Balance)
			if ai != aj {
				return ai > aj
			}
			return list[i].UserID < list[j].UserID
		})
	}
	byMagnitude(debtors)
	byMagnitude(creditors)

	settlements := []Settlement{}
	j := 0
	for _, d := range debtors {
		remaining := -d.Balance
		for remaining > 0 && j < len(creditors) {
			credit := creditors[j].Balance
			transfer := remaining
			if credit < transfer {
				transfer = credit
			}
			settlements = append(settlements, Settlement{
				FromID: d.UserID,
				From:   d.Username,
				ToID:   creditors[j].UserID,
				To:     creditors[j].Username,
				Amount: transfer,
			})
			remaining -= transfer
			creditors[j].Balance -= transfer
			if creditors[j].Balance == 0 {
				j++
			}
		}
	}
	return settlements
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// members 返回群组当前成员列表（按用户ID升序），并预加载用户信息
func (s *SettlementService) members(db *gorm.DB, groupID uint) ([]models.GroupMember, error) {
	var members []models.GroupMember
	if err := db.Preload("User").Where("group_id = ?", groupID).
		Order("user_id ASC").Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

// CreateGroupExpense 创建群组支出并生成分摊明细，支出与全部明细在同一事务内落库。
// splitType 为 EQUAL 时按成员均摊（余数给ID最大的成员）；
// 为 MANUAL 时使用调用方提供的份额，要求非空、总和精确相等、且每个分摊对象都是成员。
func (s *SettlementService) CreateGroupExpense(groupID, payerID uint, description string, amount int64, date time.Time, splitType string, manualSplits []ManualSplit) (*models.GroupExpense, error) {
	var expense *models.GroupExpense
	err := s.db.Transaction(func(tx *gorm.DB) error {
		members, err := s.members(tx, groupID)
		if err != nil {
			return err
		}
		if len(members) == 0 {
			return ErrEmptyGroup
		}

		memberSet := make(map[uint]bool, len(members))
		memberIDs := make([]uint, 0, len(members))
		for _, m := range members {
			memberSet[m.UserID] = true
			memberIDs = append(memberIDs, m.UserID)
		}
		if !memberSet[payerID] {
			return ErrInvalidPayer
		}

		var shares map[uint]int64
		switch splitType {
		case models.SplitTypeEqual:
			shares = SplitEqually(amount, memberIDs)
		case models.SplitTypeManual:
			if len(manualSplits) == 0 {
				return ErrMissingManualSplits
			}
			var total int64
			shares = make(map[uint]int64, len(manualSplits))
			for _, ms := range manualSplits {
				if !memberSet[ms.UserID] {
					return ErrSplitUserNotMember
				}
				shares[ms.UserID] += ms.AmountOwed
				total += ms.AmountOwed
			}
			if total != amount {
				return ErrSplitMismatch
			}
		default:
			return ErrUnknownSplitType
		}

		expense = &models.GroupExpense{
			GroupID:     groupID,
			PayerID:     payerID,
			Description: description,
			Amount:      amount,
			Date:        date,
		}
		if err := tx.Create(expense).Error; err != nil {
			return err
		}

		// 按用户ID升序落库，便于排查与测试
		userIDs := make([]uint, 0, len(shares))
		for id := range shares {
			userIDs = append(userIDs, id)
		}
		sort.Slice(userIDs, func(i, j int) bool { return userIDs[i] < userIDs[j] })
		splits := make([]models.Split, 0, len(userIDs))
		for _, id := range userIDs {
			splits = append(splits, models.Split{
				ExpenseID:  expense.ID,
				UserID:     id,
				AmountOwed: shares[id],
			})
		}
		return tx.Create(&splits).Error
	})
	if err != nil {
		return nil, err
	}
	return expense, nil
}

// ComputeGroupSummary 计算群组对账汇总：每个成员的垫付、应承担、净头寸，
// 以及结清所有头寸的转账建议。requesterID 必须是群组成员。
func (s *SettlementService) ComputeGroupSummary(groupID, requesterID uint) (*GroupSummary, error) {
	members, err := s.members(s.db, groupID)
	if err != nil {
		return nil, err
	}
	isMember := false
	for _, m := range members {
		if m.UserID == requesterID {
			isMember = true
			break
		}
	}
	if !isMember {
		return nil, ErrNotAMember
	}

	var expenses []models.GroupExpense
	if err := s.db.Where("group_id = ?", groupID).Find(&expenses).Error; err != nil {
		return nil, err
	}
	paid := make(map[uint]int64)
	expenseIDs := make([]uint, 0, len(expenses))
	for _, e := range expenses {
		paid[e.PayerID] += e.Amount
		expenseIDs = append(expenseIDs, e.ID)
	}

	owed := make(map[uint]int64)
	if len(expenseIDs) > 0 {
		var splits []models.Split
		if err := s.db.Where("expense_id IN ?", expenseIDs).Find(&splits).Error; err != nil {
			return nil, err
		}
		for _, sp := range splits {
			owed[sp.UserID] += sp.AmountOwed
		}
	}

	// 没有任何记录的成员也要出现在结果里，净头寸为 0
	summary := &GroupSummary{Balances: make([]MemberBalance, 0, len(members))}
	for _, m := range members {
		b := MemberBalance{
			UserID:   m.UserID,
			Username: m.User.Username,
			Paid:     paid[m.UserID],
			Owed:     owed[m.UserID],
		}
		b.Balance = b.Paid - b.Owed
		if m.UserID == requesterID {
			summary.UserBalance = b.Balance
		}
		summary.Balances = append(summary.Balances, b)
	}
	summary.Settlements = BuildSettlements(summary.Balances)
	return summary, nil
}
