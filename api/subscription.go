package api

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"sooraneh/database"
	"sooraneh/middleware"
	"sooraneh/models"
	"sooraneh/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SubscriptionHandler 订阅与支付处理器
type SubscriptionHandler struct {
	capability *service.CapabilityService
}

func NewSubscriptionHandler() *SubscriptionHandler {
	return &SubscriptionHandler{capability: service.NewCapabilityService(database.DB)}
}

type SubscribeRequest struct {
	PlanID uint `json:"plan_id" binding:"required"`
}

type ConfirmPaymentRequest struct {
	TransactionID string `json:"transaction_id" binding:"required"`
	Succeeded     bool   `json:"succeeded"`
}

// newTransactionID 生成支付流水号
func newTransactionID() string {
	buf := make([]byte, 16)
	rand.Read(buf)
	return "txn_" + hex.EncodeToString(buf)
}

// ListPlans 获取套餐列表
// @Summary 获取套餐列表
// @Description 获取全部可选订阅套餐
// @Tags 订阅
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]models.Plan} "获取成功"
// @Router /api/v1/plans [get]
func (h *SubscriptionHandler) ListPlans(c *gin.Context) {
	var plans []models.Plan
	if err := database.DB.Order("price").Find(&plans).Error; err != nil {
		InternalError(c, "查询失败: "+SafeErrorMessage(err, "数据库错误"))
		return
	}
	Success(c, plans)
}

// Current 获取当前订阅
// @Summary 获取当前订阅
// @Description 获取当前用户的有效订阅，没有时返回空
// @Tags 订阅
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=models.Subscription} "获取成功"
// @Router /api/v1/subscriptions/current [get]
func (h *SubscriptionHandler) Current(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	sub, err := h.capability.ActiveSubscription(userID)
	if err != nil {
		InternalError(c, "查询失败: "+SafeErrorMessage(err, "数据库错误"))
		return
	}
	Success(c, sub)
}

// Subscribe 发起订阅
// @Summary 发起订阅
// @Description 选择套餐并创建待支付流水。免费套餐直接生效，付费套餐需通过支付确认接口激活。
// @Tags 订阅
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body SubscribeRequest true "订阅信息"
// @Success 200 {object} Response{data=models.Payment} "已创建支付流水"
// @Failure 400 {object} Response "套餐不存在"
// @Router /api/v1/subscriptions [post]
func (h *SubscriptionHandler) Subscribe(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	var req SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	var plan models.Plan
	if err := database.DB.First(&plan, req.PlanID).Error; err != nil {
		BadRequest(c, "套餐不存在")
		return
	}

	if plan.Price == 0 {
		if err := activateSubscription(database.DB, userID, &plan); err != nil {
			InternalError(c, "订阅失败: "+SafeErrorMessage(err, "数据库错误"))
			return
		}
		SuccessWithMessage(c, "订阅成功", nil)
		return
	}

	payment := models.Payment{
		UserID:        userID,
		PlanID:        &plan.ID,
		Amount:        plan.Price,
		Status:        models.PaymentPending,
		TransactionID: newTransactionID(),
	}
	if err := database.DB.Create(&payment).Error; err != nil {
		InternalError(c, "创建支付失败: "+SafeErrorMessage(err, "数据库错误"))
		return
	}
	SuccessWithMessage(c, "已创建支付流水，请完成支付", payment)
}

// ConfirmPayment 确认支付结果
// @Summary 确认支付结果
// @Description 按流水号回填支付结果。支付成功时激活对应套餐的订阅。
// @Tags 订阅
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ConfirmPaymentRequest true "支付结果"
// @Success 200 {object} Response{data=models.Payment} "处理成功"
// @Failure 400 {object} Response "流水不存在或已处理"
// @Router /api/v1/payments/confirm [post]
func (h *SubscriptionHandler) ConfirmPayment(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	var req ConfirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	var payment models.Payment
	if err := database.DB.Where("transaction_id = ? AND user_id = ?", req.TransactionID, userID).
		First(&payment).Error; err != nil {
		BadRequest(c, "支付流水不存在")
		return
	}
	if payment.Status != models.PaymentPending {
		BadRequest(c, "该流水已处理")
		return
	}

	if !req.Succeeded {
		payment.Status = models.PaymentFailed
		if err := database.DB.Save(&payment).Error; err != nil {
			InternalError(c, "更新失败: "+SafeErrorMessage(err, "数据库错误"))
			return
		}
		SuccessWithMessage(c, "已记录支付失败", payment)
		return
	}

	if err := database.DB.Transaction(func(tx *gorm.DB) error {
		payment.Status = models.PaymentCompleted
		if err := tx.Save(&payment).Error; err != nil {
			return err
		}
		var plan models.Plan
		if err := tx.First(&plan, *payment.PlanID).Error; err != nil {
			return err
		}
		return activateSubscription(tx, userID, &plan)
	}); err != nil {
		InternalError(c, "处理失败: "+SafeErrorMessage(err, "数据库错误"))
		return
	}
	SuccessWithMessage(c, "支付成功，订阅已生效", payment)
}

// ListPayments 获取支付流水
// @Summary 获取支付流水
// @Tags 订阅
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]models.Payment} "获取成功"
// @Router /api/v1/payments [get]
func (h *SubscriptionHandler) ListPayments(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	var payments []models.Payment
	if err := database.DB.Where("user_id = ?", userID).
		Order("created_at DESC").Find(&payments).Error; err != nil {
		InternalError(c, "查询失败: "+SafeErrorMessage(err, "数据库错误"))
		return
	}
	Success(c, payments)
}

// activateSubscription 激活或续期订阅。每个用户最多一条订阅记录，重复订阅时原地更新。
func activateSubscription(db *gorm.DB, userID uint, plan *models.Plan) error {
	now := time.Now()
	end := now.AddDate(0, 0, plan.DurationDays)
	var sub models.Subscription
	err := db.Where("user_id = ?", userID).First(&sub).Error
	if err == nil {
		sub.PlanID = plan.ID
		sub.StartDate = now
		sub.EndDate = end
		sub.IsActive = true
		return db.Save(&sub).Error
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}
	sub = models.Subscription{
		UserID:    userID,
		PlanID:    plan.ID,
		StartDate: now,
		EndDate:   end,
		IsActive:  true,
	}
	return db.Create(&sub).Error
}
