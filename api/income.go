package api

import (
	"strconv"
	"time"

	"sooraneh/database"
	"sooraneh/middleware"
	"sooraneh/models"
	"sooraneh/service"

	"github.com/gin-gonic/gin"
)

// IncomeHandler 收入处理器
type IncomeHandler struct {
	ledger *service.LedgerService
}

// NewIncomeHandler 创建收入处理器
func NewIncomeHandler() *IncomeHandler {
	return &IncomeHandler{ledger: service.NewLedgerService(database.DB)}
}

type CreateIncomeRequest struct {
	Amount     int64  `json:"amount" binding:"required,gt=0" example:"500000"` // 金额，单位：分
	Date       string `json:"date" binding:"required" example:"2024-01-15 09:00:00"`
	Text       string `json:"text" binding:"omitempty,max=30" example:"一月工资"`
	WalletID   *uint  `json:"wallet_id"`
	PersonID   *uint  `json:"person_id"`
	TagID      *uint  `json:"tag_id"`
	CategoryID *uint  `json:"category_id"`
}

type UpdateIncomeRequest struct {
	Amount      *int64  `json:"amount" binding:"omitempty,gt=0"`
	Date        string  `json:"date"`
	Text        *string `json:"text" binding:"omitempty,max=30"`
	WalletID    *uint   `json:"wallet_id"`
	ClearWallet bool    `json:"clear_wallet"` // true 表示解除钱包关联
	PersonID    *uint   `json:"person_id"`
	TagID       *uint   `json:"tag_id"`
	CategoryID  *uint   `json:"category_id"`
}

type IncomeListRequest struct {
	Page       int    `form:"page" example:"1"`
	PageSize   int    `form:"page_size" example:"10"`
	WalletID   uint   `form:"wallet_id"`
	CategoryID uint   `form:"category_id"`
	StartTime  string `form:"start_time" example:"2024-01-01"`
	EndTime    string `form:"end_time" example:"2024-12-31"`
}

// checkWalletOwned 校验钱包归属当前用户
func checkWalletOwned(c *gin.Context, userID uint, walletID *uint) bool {
	if walletID == nil {
		return true
	}
	var wallet models.Wallet
	if err := database.DB.Where("id = ? AND user_id = ?", *walletID, userID).First(&wallet).Error; err != nil {
		NotFound(c, "钱包不存在")
		return false
	}
	return true
}

// Create 创建收入
// @Summary 创建收入
// @Description 创建一条收入记录，关联钱包时余额同步增加
// @Tags 收入
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateIncomeRequest true "收入信息"
// @Success 200 {object} Response{data=models.Income} "创建成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/incomes [post]
func (h *IncomeHandler) Create(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	var req CreateIncomeRequest
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

	in := models.Income{
		UserID:     userID,
		WalletID:   req.WalletID,
		PersonID:   req.PersonID,
		TagID:      req.TagID,
		CategoryID: req.CategoryID,
		Amount:     req.Amount,
		Date:       t,
		Text:       req.Text,
	}
	if err := h.ledger.CreateIncome(&in); err != nil {
		InternalError(c, "创建收入失败: "+SafeErrorMessage(err, "数据库错误"))
		return
	}
	SuccessWithMessage(c, "创建成功", in)
}

// List 获取收入列表
// @Summary 获取收入列表
// @Description 获取当前用户的收入列表，支持分页与筛选
// @Tags 收入
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Param wallet_id query int false "按钱包筛选"
// @Param category_id query int false "按类别筛选"
// @Param start_time query string false "开始时间 (2024-01-01)"
// @Param end_time query string false "结束时间 (2024-12-31)"
// @Success 200 {object} Response{data=PageResponse{list=[]models.Income}} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/incomes [get]
func (h *IncomeHandler) List(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	var req IncomeListRequest
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

	query := database.DB.Model(&models.Income{}).Where("user_id = ?", userID)
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
	var list []models.Income
	offset := (req.Page - 1) * req.PageSize
	if err := query.Preload("Wallet").Preload("Person").
		Order("date DESC").Offset(offset).Limit(req.PageSize).Find(&list).Error; err != nil {
		InternalError(c, "查询失败: "+SafeErrorMessage(err, "数据库错误"))
		return
	}
	Success(c, PageResponse{Total: total, Page: req.Page, PageSize: req.PageSize, List: list})
}

// Get 获取单条收入
// @Summary 获取单条收入
// @Description 根据ID获取收入详情
// @Tags 收入
// @Produce json
// @Security BearerAuth
// @Param id path int true "收入ID"
// @Success 200 {object} Response{data=models.Income} "获取成功"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/incomes/{id} [get]
func (h *IncomeHandler) Get(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}
	var in models.Income
	if err := database.DB.Preload("Wallet").Preload("Person").
		Where("id = ? AND user_id = ?", id, userID).First(&in).Error; err != nil {
		NotFound(c, "记录不存在")
		return
	}
	Success(c, in)
}

// Update 更新收入
// @Summary 更新收入
// @Description 更新收入记录。金额或钱包变化时按差额联动调整相关钱包余额。
// @Tags 收入
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "收入ID"
// @Param request body UpdateIncomeRequest true "收入信息"
// @Success 200 {object} Response{data=models.Income} "更新成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/incomes/{id} [put]
func (h *IncomeHandler) Update(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}
	var in models.Income
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&in).Error; err != nil {
		NotFound(c, "记录不存在")
		return
	}
	var req UpdateIncomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	newAmount := in.Amount
	if req.Amount != nil {
		newAmount = *req.Amount
	}
	newWalletID := in.WalletID
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

	if err := h.ledger.UpdateIncome(&in, newAmount, newWalletID, updates); err != nil {
		ledgerError(c, err, "更新失败")
		return
	}
	database.DB.Preload("Wallet").First(&in, in.ID)
	SuccessWithMessage(c, "更新成功", in)
}

// Delete 删除收入
// @Summary 删除收入
// @Description 删除收入记录，先撤销其对钱包余额的影响
// @Tags 收入
// @Produce json
// @Security BearerAuth
// @Param id path int true "收入ID"
// @Success 200 {object} Response "删除成功"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/incomes/{id} [delete]
func (h *IncomeHandler) Delete(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}
	var in models.Income
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&in).Error; err != nil {
		NotFound(c, "记录不存在")
		return
	}
	if err := h.ledger.DeleteIncome(&in); err != nil {
		InternalError(c, "删除失败: "+SafeErrorMessage(err, "数据库错误"))
		return
	}
	SuccessWithMessage(c, "删除成功", nil)
}
