package api

import (
	"strconv"
	"time"

	"sooraneh/database"
	"sooraneh/middleware"
	"sooraneh/models"

	"github.com/gin-gonic/gin"
)

// DebtHandler 借贷处理器，同时管理欠款（debts）与借出（credits）
type DebtHandler struct{}

func NewDebtHandler() *DebtHandler {
	return &DebtHandler{}
}

type DebtRequest struct {
	Amount   int64  `json:"amount" binding:"required,gt=0" example:"100000"` // 单位：分
	Text     string `json:"text" binding:"omitempty,max=30" example:"借给房租"`
	Date     string `json:"date" binding:"required" example:"2024-01-15"`
	PayDate  string `json:"pay_date" binding:"required" example:"2024-06-15"`
	PersonID *uint  `json:"person_id"`
}

func (h *DebtHandler) parseDebtRequest(c *gin.Context, userID uint) (*DebtRequest, time.Time, time.Time, bool) {
	var req DebtRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return nil, time.Time{}, time.Time{}, false
	}
	date, err := time.ParseInLocation("2006-01-02", req.Date, time.Local)
	if err != nil {
		BadRequest(c, "时间格式错误，应为: 2006-01-02")
		return nil, time.Time{}, time.Time{}, false
	}
	payDate, err := time.ParseInLocation("2006-01-02", req.PayDate, time.Local)
	if err != nil {
		BadRequest(c, "时间格式错误，应为: 2006-01-02")
		return nil, time.Time{}, time.Time{}, false
	}
	if payDate.Before(date) {
		BadRequest(c, "约定还款日期不能早于发生日期")
		return nil, time.Time{}, time.Time{}, false
	}
	if req.PersonID != nil {
		var p models.Person
		if err := database.DB.Where("id = ? AND user_id = ?", *req.PersonID, userID).First(&p).Error; err != nil {
			BadRequest(c, "相关人不存在")
			return nil, time.Time{}, time.Time{}, false
		}
	}
	return &req, date, payDate, true
}

// CreateDebt 创建欠款记录
// @Summary 创建欠款记录
// @Description 记录我欠别人的钱
// @Tags 借贷
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body DebtRequest true "欠款信息"
// @Success 200 {object} Response{data=models.Debt} "创建成功"
// @Failure 400 {object} Response "参数错误"
// @Router /api/v1/debts [post]
func (h *DebtHandler) CreateDebt(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	req, date, payDate, ok := h.parseDebtRequest(c, userID)
	if !ok {
		return
	}
	d := models.Debt{
		UserID:   userID,
		PersonID: req.PersonID,
		Amount:   req.Amount,
		Text:     req.Text,
		Date:     date,
		PayDate:  payDate,
	}
	if err := database.DB.Create(&d).Error; err != nil {
		InternalError(c, "创建失败: "+SafeErrorMessage(err, "数据库错误"))
		return
	}
	SuccessWithMessage(c, "创建成功", d)
}

// ListDebts 获取欠款列表
// @Summary 获取欠款列表
// @Tags 借贷
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]models.Debt} "获取成功"
// @Router /api/v1/debts [get]
func (h *DebtHandler) ListDebts(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	var list []models.Debt
	if err := database.DB.Preload("Person").Where("user_id = ?", userID).
		Order("pay_date").Find(&list).Error; err != nil {
		InternalError(c, "查询失败: "+SafeErrorMessage(err, "数据库错误"))
		return
	}
	Success(c, list)
}

// UpdateDebt 更新欠款记录
// @Summary 更新欠款记录
// @Tags 借贷
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "欠款ID"
// @Param request body DebtRequest true "欠款信息"
// @Success 200 {object} Response{data=models.Debt} "更新成功"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/debts/{id} [put]
func (h *DebtHandler) UpdateDebt(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}
	var d models.Debt
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&d).Error; err != nil {
		NotFound(c, "记录不存在")
		return
	}
	req, date, payDate, ok := h.parseDebtRequest(c, userID)
	if !ok {
		return
	}
	d.Amount = req.Amount
	d.Text = req.Text
	d.Date = date
	d.PayDate = payDate
	d.PersonID = req.PersonID
	if err := database.DB.Save(&d).Error; err != nil {
		InternalError(c, "更新失败: "+SafeErrorMessage(err, "数据库错误"))
		return
	}
	SuccessWithMessage(c, "更新成功", d)
}

// DeleteDebt 删除欠款记录
// @Summary 删除欠款记录
// @Tags 借贷
// @Produce json
// @Security BearerAuth
// @Param id path int true "欠款ID"
// @Success 200 {object} Response "删除成功"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/debts/{id} [delete]
func (h *DebtHandler) DeleteDebt(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}
	var d models.Debt
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&d).Error; err != nil {
		NotFound(c, "记录不存在")
		return
	}
	if err := database.DB.Delete(&d).Error; err != nil {
		InternalError(c, "删除失败: "+SafeErrorMessage(err, "数据库错误"))
		return
	}
	SuccessWithMessage(c, "删除成功", nil)
}

// CreateCredit 创建借出记录
// @Summary 创建借出记录
// @Description 记录别人欠我的钱
// @Tags 借贷
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body DebtRequest true "借出信息"
// @Success 200 {object} Response{data=models.Credit} "创建成功"
// @Failure 400 {object} Response "参数错误"
// @Router /api/v1/credits [post]
func (h *DebtHandler) CreateCredit(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	req, date, payDate, ok := h.parseDebtRequest(c, userID)
	if !ok {
		return
	}
	cr := models.Credit{
		UserID:   userID,
		PersonID: req.PersonID,
		Amount:   req.Amount,
		Text:     req.Text,
		Date:     date,
		PayDate:  payDate,
	}
	if err := database.DB.Create(&cr).Error; err != nil {
		InternalError(c, "创建失败: "+SafeErrorMessage(err, "数据库错误"))
		return
	}
	SuccessWithMessage(c, "创建成功", cr)
}

// ListCredits 获取借出列表
// @Summary 获取借出列表
// @Tags 借贷
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]models.Credit} "获取成功"
// @Router /api/v1/credits [get]
func (h *DebtHandler) ListCredits(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	var list []models.Credit
	if err := database.DB.Preload("Person").Where("user_id = ?", userID).
		Order("pay_date").Find(&list).Error; err != nil {
		InternalError(c, "查询失败: "+SafeErrorMessage(err, "数据库错误"))
		return
	}
	Success(c, list)
}

// UpdateCredit 更新借出记录
// @Summary 更新借出记录
// @Tags 借贷
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "借出ID"
// @Param request body DebtRequest true "借出信息"
// @Success 200 {object} Response{data=models.Credit} "更新成功"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/credits/{id} [put]
func (h *DebtHandler) UpdateCredit(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}
	var cr models.Credit
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&cr).Error; err != nil {
		NotFound(c, "记录不存在")
		return
	}
	req, date, payDate, ok := h.parseDebtRequest(c, userID)
	if !ok {
		return
	}
	cr.Amount = req.Amount
	cr.Text = req.Text
	cr.Date = date
	cr.PayDate = payDate
	cr.PersonID = req.PersonID
	if err := database.DB.Save(&cr).Error; err != nil {
		InternalError(c, "更新失败: "+SafeErrorMessage(err, "数据库错误"))
		return
	}
	SuccessWithMessage(c, "更新成功", cr)
}

// DeleteCredit 删除借出记录
// @Summary 删除借出记录
// @Tags 借贷
// @Produce json
// @Security BearerAuth
// @Param id path int true "借出ID"
// @Success 200 {object} Response "删除成功"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/credits/{id} [delete]
func (h *DebtHandler) DeleteCredit(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}
	var cr models.Credit
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&cr).Error; err != nil {
		NotFound(c, "记录不存在")
		return
	}
	if err := database.DB.Delete(&cr).Error; err != nil {
		InternalError(c, "删除失败: "+SafeErrorMessage(err, "数据库错误"))
		return
	}
	SuccessWithMessage(c, "删除成功", nil)
}
