package api

import (
	"errors"
	"strconv"

	"sooraneh/database"
	"sooraneh/middleware"
	"sooraneh/models"
	"sooraneh/service"

	"github.com/gin-gonic/gin"
)

// WalletHandler 钱包处理器
type WalletHandler struct {
	capability *service.CapabilityService
}

// NewWalletHandler 创建钱包处理器
func NewWalletHandler() *WalletHandler {
	return &WalletHandler{capability: service.NewCapabilityService(database.DB)}
}

type CreateWalletRequest struct {
	Name    string `json:"name" binding:"required,min=1,max=60" example:"现金"`
	Balance int64  `json:"balance" binding:"gte=0" example:"10000"` // 初始余额，单位：分
}

type UpdateWalletRequest struct {
	Name string `json:"name" binding:"required,min=1,max=60"`
}

// Create 创建钱包
// @Summary 创建钱包
// @Description 创建一个新钱包，数量受订阅套餐的钱包配额限制
// @Tags 钱包
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateWalletRequest true "钱包信息"
// @Success 200 {object} Response{data=models.Wallet} "创建成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 403 {object} Response "钱包数量已达套餐上限"
// @Router /api/v1/wallets [post]
func (h *WalletHandler) Create(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	var req CreateWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	if err := h.capability.CheckWalletQuota(userID); err != nil {
		if errors.Is(err, service.ErrWalletLimit) {
			Forbidden(c, err.Error())
			return
		}
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	wallet := models.Wallet{UserID: userID, Name: req.Name, Balance: req.Balance}
	if err := database.DB.Create(&wallet).Error; err != nil {
		InternalError(c, "创建钱包失败: "+SafeErrorMessage(err, "数据库错误"))
		return
	}
	SuccessWithMessage(c, "创建成功", wallet)
}

// List 获取钱包列表
// @Summary 获取钱包列表
// @Description 获取当前用户的全部钱包
// @Tags 钱包
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]models.Wallet} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/wallets [get]
func (h *WalletHandler) List(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	var list []models.Wallet
	if err := database.DB.Where("user_id = ?", userID).Order("id ASC").Find(&list).Error; err != nil {
		InternalError(c, "查询失败: "+SafeErrorMessage(err, "数据库错误"))
		return
	}
	Success(c, list)
}

// Get 获取单个钱包
// @Summary 获取单个钱包
// @Description 根据ID获取钱包详情
// @Tags 钱包
// @Produce json
// @Security BearerAuth
// @Param id path int true "钱包ID"
// @Success 200 {object} Response{data=models.Wallet} "获取成功"
// @Failure 404 {object} Response "钱包不存在"
// @Router /api/v1/wallets/{id} [get]
func (h *WalletHandler) Get(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}
	var wallet models.Wallet
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&wallet).Error; err != nil {
		NotFound(c, "钱包不存在")
		return
	}
	Success(c, wallet)
}

// Update 更新钱包
// @Summary 更新钱包
// @Description 修改钱包名称。余额不允许直接修改，只能通过收支记录联动变化。
// @Tags 钱包
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "钱包ID"
// @Param request body UpdateWalletRequest true "钱包信息"
// @Success 200 {object} Response{data=models.Wallet} "更新成功"
// @Failure 404 {object} Response "钱包不存在"
// @Router /api/v1/wallets/{id} [put]
func (h *WalletHandler) Update(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}
	var wallet models.Wallet
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&wallet).Error; err != nil {
		NotFound(c, "钱包不存在")
		return
	}
	var req UpdateWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	if err := database.DB.Model(&wallet).Update("name", req.Name).Error; err != nil {
		InternalError(c, "更新失败: "+SafeErrorMessage(err, "数据库错误"))
		return
	}
	SuccessWithMessage(c, "更新成功", wallet)
}

// Delete 删除钱包
// @Summary 删除钱包
// @Description 删除钱包。仍有收支记录引用该钱包时拒绝删除，避免破坏余额一致性。
// @Tags 钱包
// @Produce json
// @Security BearerAuth
// @Param id path int true "钱包ID"
// @Success 200 {object} Response "删除成功"
// @Failure 400 {object} Response "钱包仍被收支记录引用"
// @Failure 404 {object} Response "钱包不存在"
// @Router /api/v1/wallets/{id} [delete]
func (h *WalletHandler) Delete(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}
	var wallet models.Wallet
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&wallet).Error; err != nil {
		NotFound(c, "钱包不存在")
		return
	}

	var incomeCount, expenseCount int64
	database.DB.Model(&models.Income{}).Where("wallet_id = ?", wallet.ID).Count(&incomeCount)
	database.DB.Model(&models.Expense{}).Where("wallet_id = ?", wallet.ID).Count(&expenseCount)
	if incomeCount+expenseCount > 0 {
		BadRequest(c, "钱包仍有收支记录引用，请先删除相关记录")
		return
	}

	if err := database.DB.Delete(&wallet).Error; err != nil {
		InternalError(c, "删除失败: "+SafeErrorMessage(err, "数据库错误"))
		return
	}
	SuccessWithMessage(c, "删除成功", nil)
}
