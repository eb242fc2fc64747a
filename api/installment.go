package api

import (
	"strconv"
	"time"

	"sooraneh/database"
	"sooraneh/middleware"
	"sooraneh/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// InstallmentHandler 分期付款处理器
type InstallmentHandler struct{}

func NewInstallmentHandler() *InstallmentHandler {
	return &InstallmentHandler{}
}

type CreateInstallmentRequest struct {
	Amount    int64  `json:"amount" binding:"required,gt=0" example:"1200000"` // 总金额，单位：分
	Text      string `json:"text" binding:"omitempty,max=30" example:"笔记本电脑"`
	FirstDate string `json:"first_date" binding:"required" example:"2024-02-01"`
	PayPeriod int    `json:"pay_period" binding:"required,gt=0" example:"1"` // 还款周期（月）
	InstNum   int    `json:"inst_num" binding:"required,gt=0" example:"12"`  // 期数
	InstRate  *int   `json:"inst_rate" binding:"omitempty,gte=0"`
	PersonID  *uint  `json:"person_id"`
}

// buildSchedule 按期数拆分总额：每期取平均值，余数并入最后一期，保证明细之和等于总额
func buildSchedule(amount int64, instNum, payPeriod int, firstDate time.Time) []models.InstallmentDetail {
	share := amount / int64(instNum)
	details := make([]models.InstallmentDetail, 0, instNum)
	for i := 1; i <= instNum; i++ {
		a := share
		if i == instNum {
			a = amount - share*int64(instNum-1)
		}
		details = append(details, models.InstallmentDetail{
			InstNum:       i,
			PaymentStatus: models.InstallmentUnpaid,
			PaymentDate:   firstDate.AddDate(0, payPeriod*(i-1), 0),
			Amount:        a,
		})
	}
	return details
}

// Create 创建分期付款
// @Summary 创建分期付款
// @Description 创建分期付款计划并自动生成每期还款明细
// @Tags 分期
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateInstallmentRequest true "分期信息"
// @Success 200 {object} Response{data=models.Installment} "创建成功"
// @Failure 400 {object} Response "参数错误"
// @Router /api/v1/installments [post]
func (h *InstallmentHandler) Create(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	var req CreateInstallmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	firstDate, err := time.ParseInLocation("2006-01-02", req.FirstDate, time.Local)
	if err != nil {
		BadRequest(c, "时间格式错误，应为: 2006-01-02")
		return
	}
	if req.PersonID != nil {
		var p models.Person
		if err := database.DB.Where("id = ? AND user_id = ?", *req.PersonID, userID).First(&p).Error; err != nil {
			BadRequest(c, "相关人不存在")
			return
		}
	}

	// 计入利息后的应还总额
	total := req.Amount
	if req.InstRate != nil && *req.InstRate > 0 {
		total += req.Amount * int64(*req.InstRate) / 100
	}

	inst := models.Installment{
		UserID:    userID,
		PersonID:  req.PersonID,
		Amount:    req.Amount,
		Text:      req.Text,
		FirstDate: firstDate,
		PayPeriod: req.PayPeriod,
		InstNum:   req.InstNum,
		InstRate:  req.InstRate,
	}
	if err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&inst).Error; err != nil {
			return err
		}
		details := buildSchedule(total, req.InstNum, req.PayPeriod, firstDate)
		for i := range details {
			details[i].InstallmentID = inst.ID
		}
		return tx.Create(&details).Error
	}); err != nil {
		InternalError(c, "创建失败: "+SafeErrorMessage(err, "数据库错误"))
		return
	}
	database.DB.Preload("Details").First(&inst, inst.ID)
	SuccessWithMessage(c, "创建成功", inst)
}

// List 获取分期列表
// @Summary 获取分期列表
// @Tags 分期
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]models.Installment} "获取成功"
// @Router /api/v1/installments [get]
func (h *InstallmentHandler) List(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	var list []models.Installment
	if err := database.DB.Preload("Details", func(db *gorm.DB) *gorm.DB {
		return db.Order("inst_num")
	}).Where("user_id = ?", userID).Order("id").Find(&list).Error; err != nil {
		InternalError(c, "查询失败: "+SafeErrorMessage(err, "数据库错误"))
		return
	}
	Success(c, list)
}

// Get 获取分期详情
// @Summary 获取分期详情
// @Tags 分期
// @Produce json
// @Security BearerAuth
// @Param id path int true "分期ID"
// @Success 200 {object} Response{data=models.Installment} "获取成功"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/installments/{id} [get]
func (h *InstallmentHandler) Get(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}
	var inst models.Installment
	if err := database.DB.Preload("Details", func(db *gorm.DB) *gorm.DB {
		return db.Order("inst_num")
	}).Where("id = ? AND user_id = ?", id, userID).First(&inst).Error; err != nil {
		NotFound(c, "记录不存在")
		return
	}
	Success(c, inst)
}

// PayDetail 标记某期已还
// @Summary 标记某期已还
// @Tags 分期
// @Produce json
// @Security BearerAuth
// @Param id path int true "分期ID"
// @Param detail_id path int true "明细ID"
// @Success 200 {object} Response{data=models.InstallmentDetail} "标记成功"
// @Failure 400 {object} Response "该期已还清"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/installments/{id}/details/{detail_id}/pay [post]
func (h *InstallmentHandler) PayDetail(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}
	detailID, err := strconv.ParseUint(c.Param("detail_id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}
	var inst models.Installment
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&inst).Error; err != nil {
		NotFound(c, "记录不存在")
		return
	}
	var detail models.InstallmentDetail
	if err := database.DB.Where("id = ? AND installment_id = ?", detailID, inst.ID).
		First(&detail).Error; err != nil {
		NotFound(c, "记录不存在")
		return
	}
	if detail.PaymentStatus == models.InstallmentPaid {
		BadRequest(c, "该期已还清")
		return
	}
	detail.PaymentStatus = models.InstallmentPaid
	if err := database.DB.Save(&detail).Error; err != nil {
		InternalError(c, "更新失败: "+SafeErrorMessage(err, "数据库错误"))
		return
	}
	SuccessWithMessage(c, "已标记为还清", detail)
}

// Delete 删除分期
// @Summary 删除分期
// @Description 删除分期计划及全部明细
// @Tags 分期
// @Produce json
// @Security BearerAuth
// @Param id path int true "分期ID"
// @Success 200 {object} Response "删除成功"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/installments/{id} [delete]
func (h *InstallmentHandler) Delete(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}
	var inst models.Installment
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&inst).Error; err != nil {
		NotFound(c, "记录不存在")
		return
	}
	if err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("installment_id = ?", inst.ID).
			Delete(&models.InstallmentDetail{}).Error; err != nil {
			return err
		}
		return tx.Delete(&inst).Error
	}); err != nil {
		InternalError(c, "删除失败: "+SafeErrorMessage(err, "数据库错误"))
		return
	}
	SuccessWithMessage(c, "删除成功", nil)
}
