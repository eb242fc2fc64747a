package api

import (
	"errors"
	"strconv"
	"time"

	"sooraneh/database"
	"sooraneh/middleware"
	"sooraneh/models"
	"sooraneh/service"

	"github.com/gin-gonic/gin"
)

// ExpenseHandler 支出处理器
type ExpenseHandler struct {
	ledger *service.LedgerService
}

// NewExpenseHandler 创建支出处理器
func NewExpenseHandler() *ExpenseHandler {
	return &ExpenseHandler{ledger: service.NewLedgerService(database.DB)}
}

type CreateExpenseRequest struct {
	Amount     int64  `json:"amount" binding:"required,gt=0" example:"9900"` // 金额，单位：分
	Date       string `json:"date" binding:"required" example:"2024-01-15 12:30:00"`
	Text       string `json:"text" binding:"omitempty,max=30" example:"午餐"`
	WalletID   *uint  `json:"wallet_id"`
	PersonID   *uint  `json:"person_id"`
	TagID      *uint  `json:"tag_id"`
	CategoryID *uint  `json:"category_id"`
}

type UpdateExpenseRequest struct {
	Amount      *int64  `json:"amount" binding:"omitempty,gt=0"`
	Date        string  `json:"date"`
	Text        *string `json:"text" binding:"omitempty,max=30"`
	WalletID    *uint   `json:"wallet_id"`
	ClearWallet bool    `json:"clear_wallet"` // true 表示解除钱包关联
	PersonID    *uint   `json:"person_id"`
	TagID       *uint   `json:"tag_id"`
	CategoryID  *uint   `json:"category_id"`
}

type ExpenseListRequest struct {
	Page       int    `form:"page" example:"1"`
	PageSize   int    `form:"page_size" example:"10"`
	WalletID   uint   `form:"wallet_id"`
	CategoryID uint   `form:"category_id"`
	StartTime  string `form:"start_time" example:"2024-01-01"`
	EndTime    string `form:"end_time" example:"2024-12-31"`
}

// ledgerError 把账本服务错误映射为响应：余额不足是业务拒绝（400），其余视为内部错误
func ledgerError(c *gin.Context, err error, fallback string) {
	var insufficient *service.InsufficientFundsError
	if errors.As(err, &insufficient) {
		BadRequest(c, insufficient.Error())
		return
	}
	InternalError(c, fallback+": "+SafeErrorMessage(err, "数据库错误"))
}

// Create 创建支出
// @Summary 创建支出
// @Description 创建一条支出记录。关联钱包时要求余额充足，余额同步扣减。
// @Tags 支出
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateExpenseRequest true "支出信息"
// @Success 200 {object} Response{data=models.Expense} "创建成功"
// @Failure 400 {object} Response "参数错误或钱包余额不足"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/expenses [post]
func (h *ExpenseHandler) Create(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	var req CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	t, err := time.ParseInLocation("2006-01-02 15:04:05", req.Date, time.Local)
	if err != nil {
		BadRequest(c, "时间格式错误，应为: 2006-01-02 15:04:05")
		return
	}
	if !checkWalletOwned(c, userID, req.WalletID) {
		return
	}

	ex := models.Expense{
		UserID:     userID,
		WalletID:   req.WalletID,
		PersonID:   req.PersonID,
		TagID:      req.TagID,
		CategoryID: req.CategoryID,
		Amount:     req.Amount,
		Date:       t,
		Text:       req.Text,
	}
	if err := h.ledger.CreateExpense(&ex); err != nil {
		ledgerError(c, err, "创建支出失败")
		return
	}
	SuccessWithMessage(c, "创建成功", ex)
}

// List 获取支出列表
// @Summary 获取支出列表
// @Description 获取当前用户的支出列表，支持分页与筛选
// @Tags 支出
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Param wallet_id query int false "按钱包筛选"
// @Param category_id query int false "按类别筛选"
// @Param start_time query string false "开始时间 (2024-01-01)"
// @Param end_time query string false "结束时间 (2024-12-31)"
// @Success 200 {object} Response{data=PageResponse{list=[]models.Expense}} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/expenses [get]
func (h *ExpenseHandler) List(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	var req ExpenseListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 {
		req.PageSize = 10
	}
	if req.PageSize > 100 {
		req.PageSize = 100
	}

	query := database.DB.Model(&models.Expense{}).Where("user_id = ?", userID)
	if req.WalletID > 0 {
		query = query.Where("wallet_id = ?", req.WalletID)
	}
	if req.CategoryID > 0 {
		query = query.Where("category_id = ?", req.CategoryID)
	}
	if req.StartTime != "" {
		if t, err := time.ParseInLocation("2006-01-02", req.StartTime, time.Local); err == nil {
			query = query.Where("date >= ?", t)
		}
	}
	if req.EndTime != "" {
		if t, err := time.ParseInLocation("2006-01-02", req.EndTime, time.Local); err == nil {
			t = t.Add(24*time.Hour - time.Second)
			query = query.Where("date <= ?", t)
		}
	}

	var total int64
	query.Count(&total)
	var list []models.Expense
	offset := (req.Page - 1) * req.PageSize
	if err := query.Preload("Wallet").Preload("Person").
		Order("date DESC").Offset(offset).Limit(req.PageSize).Find(&list).Error; err != nil {
		InternalError(c, "查询失败: "+SafeErrorMessage(err, "数据库错误"))
		return
	}
	Success(c, PageResponse{Total: total, Page: req.Page, PageSize: req.PageSize, List: list})
}

// Get 获取单条支出
// @Summary 获取单条支出
// @Description 根据ID获取支出详情
// @Tags 支出
// @Produce json
// @Security BearerAuth
// @Param id path int true "支出ID"
// @Success 200 {object} Response{data=models.Expense} "获取成功"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/expenses/{id} [get]
func (h *ExpenseHandler) Get(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}
	var ex models.Expense
	if err := database.DB.Preload("Wallet").Preload("Person").
		Where("id = ? AND user_id = ?", id, userID).First(&ex).Error; err != nil {
		NotFound(c, "记录不存在")
		return
	}
	Success(c, ex)
}

// Update 更新支出
// @Summary 更新支出
// @Description 更新支出记录。金额或钱包变化时按差额联动调整余额；任何会导致余额为负的变更都会被拒绝，原状态保持不变。
// @Tags 支出
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "支出ID"
// @Param request body UpdateExpenseRequest true "支出信息"
// @Success 200 {object} Response{data=models.Expense} "更新成功"
// @Failure 400 {object} Response "参数错误或钱包余额不足"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/expenses/{id} [put]
func (h *ExpenseHandler) Update(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}
	var ex models.Expense
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&ex).Error; err != nil {
		NotFound(c, "记录不存在")
		return
	}
	var req UpdateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	newAmount := ex.Amount
	if req.Amount != nil {
		newAmount = *req.Amount
	}
	newWalletID := ex.WalletID
	if req.ClearWallet {
		newWalletID = nil
	} else if req.WalletID != nil {
		if !checkWalletOwned(c, userID, req.WalletID) {
			return
		}
		newWalletID = req.WalletID
	}

	updates := map[string]interface{}{
		"amount":    newAmount,
		"wallet_id": newWalletID,
	}
	if req.Text != nil {
		updates["text"] = *req.Text
	}
	if req.PersonID != nil {
		updates["person_id"] = req.PersonID
	}
	if req.TagID != nil {
		updates["tag_id"] = req.TagID
	}
	if req.CategoryID != nil {
		updates["category_id"] = req.CategoryID
	}
	if req.Date != "" {
		t, err := time.ParseInLocation("2006-01-02 15:04:05", req.Date, time.Local)
		if err != nil {
			BadRequest(c, "时间格式错误，应为: 2006-01-02 15:04:05")
			return
		}
		updates["date"] = t
	}

	if err := h.ledger.UpdateExpense(&ex, newAmount, newWalletID, updates); err != nil {
		ledgerError(c, err, "更新失败")
		return
	}
	database.DB.Preload("Wallet").First(&ex, ex.ID)
	SuccessWithMessage(c, "更新成功", ex)
}

// Delete 删除支出
// @Summary 删除支出
// @Description 删除支出记录，金额无条件退回关联钱包
// @Tags 支出
// @Produce json
// @Security BearerAuth
// @Param id path int true "支出ID"
// @Success 200 {object} Response "删除成功"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/expenses/{id} [delete]
func (h *ExpenseHandler) Delete(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}
	var ex models.Expense
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&ex).Error; err != nil {
		NotFound(c, "记录不存在")
		return
	}
	if err := h.ledger.DeleteExpense(&ex); err != nil {
		InternalError(c, "删除失败: "+SafeErrorMessage(err, "数据库错误"))
		return
	}
	SuccessWithMessage(c, "删除成功", nil)
}
