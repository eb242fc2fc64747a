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
	"gorm.io/gorm"
)

// FundHandler 互助会处理器
type FundHandler struct {
	capability *service.CapabilityService
}

func NewFundHandler() *FundHandler {
	return &FundHandler{capability: service.NewCapabilityService(database.DB)}
}

type FundRequest struct {
	Name                string `json:"name" binding:"required,max=100" example:"同事互助会"`
	ContributionAmount  int64  `json:"contribution_amount" binding:"required,gt=0" example:"50000"` // 单位：分
	StartDate           string `json:"start_date" binding:"required" example:"2024-01-01"`
	PayoutFrequencyDays int    `json:"payout_frequency_days" binding:"omitempty,gt=0" example:"30"`
}

type ContributionRequest struct {
	ContributionDate string `json:"contribution_date" binding:"required" example:"2024-02-01"`
	AmountPaid       int64  `json:"amount_paid" binding:"required,gt=0" example:"50000"` // 单位：分
}

type PayoutRequest struct {
	RecipientUserID uint   `json:"recipient_user_id" binding:"required"`
	PayoutDate      string `json:"payout_date" binding:"required" example:"2024-02-01"`
	Amount          int64  `json:"amount" binding:"required,gt=0"` // 单位：分
}

// FundPot 互助会资金池状态
type FundPot struct {
	TotalContributed int64 `json:"total_contributed"` // 累计缴纳，单位：分
	TotalPaidOut     int64 `json:"total_paid_out"`    // 累计发放，单位：分
	Available        int64 `json:"available"`         // 当前可发放余额
}

// loadFundAsMember 加载互助会并校验当前用户是成员，返回成员关系
func (h *FundHandler) loadFundAsMember(c *gin.Context, userID uint) (*models.Fund, *models.FundMembership, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return nil, nil, false
	}
	var fund models.Fund
	if err := database.DB.First(&fund, id).Error; err != nil {
		NotFound(c, "互助会不存在")
		return nil, nil, false
	}
	var m models.FundMembership
	if err := database.DB.Where("fund_id = ? AND user_id = ?", fund.ID, userID).
		First(&m).Error; err != nil {
		Forbidden(c, "你不是该互助会的成员")
		return nil, nil, false
	}
	return &fund, &m, true
}

// pot 汇总互助会的资金池
func (h *FundHandler) pot(fundID uint) (FundPot, error) {
	var pot FundPot
	err := database.DB.Model(&models.Contribution{}).
		Joins("JOIN fund_memberships ON fund_memberships.id = contributions.membership_id").
		Where("fund_memberships.fund_id = ?", fundID).
		Select("COALESCE(SUM(contributions.amount_paid), 0)").Scan(&pot.TotalContributed).Error
	if err != nil {
		return pot, err
	}
	err = database.DB.Model(&models.Payout{}).Where("fund_id = ?", fundID).
		Select("COALESCE(SUM(amount), 0)").Scan(&pot.TotalPaidOut).Error
	if err != nil {
		return pot, err
	}
	pot.Available = pot.TotalContributed - pot.TotalPaidOut
	return pot, nil
}

// Create 创建互助会
// @Summary 创建互助会
// @Description 创建轮转储蓄互助会，需要订阅套餐包含该能力。创建者自动成为首个成员。
// @Tags 互助会
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body FundRequest true "互助会信息"
// @Success 200 {object} Response{data=models.Fund} "创建成功"
// @Failure 403 {object} Response "套餐不支持"
// @Router /api/v1/funds [post]
func (h *FundHandler) Create(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	var req FundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	startDate, err := time.ParseInLocation("2006-01-02", req.StartDate, time.Local)
	if err != nil {
		BadRequest(c, "时间格式错误，应为: 2006-01-02")
		return
	}
	if err := h.capability.Check(userID, service.CapabilityCreateFunds); err != nil {
		if errors.Is(err, service.ErrCapabilityRequired) {
			Forbidden(c, err.Error())
			return
		}
		InternalError(c, "创建失败: "+SafeErrorMessage(err, "数据库错误"))
		return
	}
	if req.PayoutFrequencyDays == 0 {
		req.PayoutFrequencyDays = 30
	}
	fund := models.Fund{
		CreatorID:           userID,
		Name:                req.Name,
		ContributionAmount:  req.ContributionAmount,
		StartDate:           startDate,
		PayoutFrequencyDays: req.PayoutFrequencyDays,
	}
	if err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&fund).Error; err != nil {
			return err
		}
		return tx.Create(&models.FundMembership{FundID: fund.ID, UserID: userID}).Error
	}); err != nil {
		InternalError(c, "创建失败: "+SafeErrorMessage(err, "数据库错误"))
		return
	}
	SuccessWithMessage(c, "创建成功", fund)
}

// List 获取互助会列表
// @Summary 获取互助会列表
// @Description 获取当前用户参与的全部互助会
// @Tags 互助会
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]models.Fund} "获取成功"
// @Router /api/v1/funds [get]
func (h *FundHandler) List(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	var fundIDs []uint
	if err := database.DB.Model(&models.FundMembership{}).Where("user_id = ?", userID).
		Pluck("fund_id", &fundIDs).Error; err != nil {
		InternalError(c, "查询失败: "+SafeErrorMessage(err, "数据库错误"))
		return
	}
	list := make([]models.Fund, 0)
	if len(fundIDs) > 0 {
		if err := database.DB.Preload("Memberships.User").Where("id IN ?", fundIDs).
			Order("id").Find(&list).Error; err != nil {
			InternalError(c, "查询失败: "+SafeErrorMessage(err, "数据库错误"))
			return
		}
	}
	Success(c, list)
}

// Get 获取互助会详情
// @Summary 获取互助会详情
// @Description 返回互助会信息与资金池状态
// @Tags 互助会
// @Produce json
// @Security BearerAuth
// @Param id path int true "互助会ID"
// @Success 200 {object} Response "获取成功"
// @Failure 403 {object} Response "不是互助会成员"
// @Router /api/v1/funds/{id} [get]
func (h *FundHandler) Get(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	fund, _, ok := h.loadFundAsMember(c, userID)
	if !ok {
		return
	}
	database.DB.Preload("Memberships.User").First(fund, fund.ID)
	pot, err := h.pot(fund.ID)
	if err != nil {
		InternalError(c, "查询失败: "+SafeErrorMessage(err, "数据库错误"))
		return
	}
	Success(c, gin.H{"fund": fund, "pot": pot})
}

// AddMember 添加成员
// @Summary 添加成员
// @Description 按用户名把用户加入互助会，仅创建者可以操作
// @Tags 互助会
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "互助会ID"
// @Param request body AddMemberRequest true "成员信息"
// @Success 200 {object} Response{data=models.FundMembership} "添加成功"
// @Failure 403 {object} Response "仅创建者可以操作"
// @Router /api/v1/funds/{id}/members [post]
func (h *FundHandler) AddMember(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	fund, _, ok := h.loadFundAsMember(c, userID)
	if !ok {
		return
	}
	if fund.CreatorID != userID {
		Forbidden(c, "仅创建者可以操作")
		return
	}
	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	var user models.User
	if err := database.DB.Where("username = ?", req.Username).First(&user).Error; err != nil {
		BadRequest(c, "用户不存在")
		return
	}
	var count int64
	database.DB.Model(&models.FundMembership{}).
		Where("fund_id = ? AND user_id = ?", fund.ID, user.ID).Count(&count)
	if count > 0 {
		BadRequest(c, "该用户已是互助会成员")
		return
	}
	// 退出过的成员还占着 (fund_id, user_id) 唯一索引，恢复原纪录并保留其历史缴纳
	var former models.FundMembership
	if err := database.DB.Unscoped().
		Where("fund_id = ? AND user_id = ?", fund.ID, user.ID).
		First(&former).Error; err == nil {
		if err := database.DB.Unscoped().Model(&former).
			Update("deleted_at", nil).Error; err != nil {
			InternalError(c, "添加失败: "+SafeErrorMessage(err, "数据库错误"))
			return
		}
		former.User = user
		SuccessWithMessage(c, "添加成功", former)
		return
	}
	m := models.FundMembership{FundID: fund.ID, UserID: user.ID}
	if err := database.DB.Create(&m).Error; err != nil {
		InternalError(c, "添加失败: "+SafeErrorMessage(err, "数据库错误"))
		return
	}
	m.User = user
	SuccessWithMessage(c, "添加成功", m)
}

// Contribute 缴纳份额
// @Summary 缴纳份额
// @Description 当前成员为某一期缴纳份额，同一期不可重复缴纳
// @Tags 互助会
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "互助会ID"
// @Param request body ContributionRequest true "缴纳信息"
// @Success 200 {object} Response{data=models.Contribution} "缴纳成功"
// @Failure 400 {object} Response "该期已缴纳"
// @Failure 403 {object} Response "不是互助会成员"
// @Router /api/v1/funds/{id}/contributions [post]
func (h *FundHandler) Contribute(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	_, membership, ok := h.loadFundAsMember(c, userID)
	if !ok {
		return
	}
	var req ContributionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	contributionDate, err := time.ParseInLocation("2006-01-02", req.ContributionDate, time.Local)
	if err != nil {
		BadRequest(c, "时间格式错误，应为: 2006-01-02")
		return
	}
	var count int64
	database.DB.Model(&models.Contribution{}).
		Where("membership_id = ? AND contribution_date = ?", membership.ID, contributionDate).
		Count(&count)
	if count > 0 {
		BadRequest(c, "该期已缴纳")
		return
	}
	contribution := models.Contribution{
		MembershipID:     membership.ID,
		ContributionDate: contributionDate,
		AmountPaid:       req.AmountPaid,
	}
	if err := database.DB.Create(&contribution).Error; err != nil {
		InternalError(c, "缴纳失败: "+SafeErrorMessage(err, "数据库错误"))
		return
	}
	SuccessWithMessage(c, "缴纳成功", contribution)
}

// CreatePayout 发放奖池
// @Summary 发放奖池
// @Description 把奖池发放给某个成员，仅创建者可以操作，发放金额不能超过资金池余额
// @Tags 互助会
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "互助会ID"
// @Param request body PayoutRequest true "发放信息"
// @Success 200 {object} Response{data=models.Payout} "发放成功"
// @Failure 400 {object} Response "资金池余额不足"
// @Failure 403 {object} Response "仅创建者可以操作"
// @Router /api/v1/funds/{id}/payouts [post]
func (h *FundHandler) CreatePayout(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	fund, _, ok := h.loadFundAsMember(c, userID)
	if !ok {
		return
	}
	if fund.CreatorID != userID {
		Forbidden(c, "仅创建者可以操作")
		return
	}
	var req PayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	payoutDate, err := time.ParseInLocation("2006-01-02", req.PayoutDate, time.Local)
	if err != nil {
		BadRequest(c, "时间格式错误，应为: 2006-01-02")
		return
	}
	var recipient models.FundMembership
	if err := database.DB.Where("fund_id = ? AND user_id = ?", fund.ID, req.RecipientUserID).
		First(&recipient).Error; err != nil {
		BadRequest(c, "领取人不是互助会成员")
		return
	}
	pot, err := h.pot(fund.ID)
	if err != nil {
		InternalError(c, "查询失败: "+SafeErrorMessage(err, "数据库错误"))
		return
	}
	if req.Amount > pot.Available {
		BadRequest(c, "资金池余额不足")
		return
	}
	payout := models.Payout{
		FundID:      fund.ID,
		RecipientID: recipient.ID,
		PayoutDate:  payoutDate,
		Amount:      req.Amount,
	}
	if err := database.DB.Create(&payout).Error; err != nil {
		InternalError(c, "发放失败: "+SafeErrorMessage(err, "数据库错误"))
		return
	}
	SuccessWithMessage(c, "发放成功", payout)
}

// ListPayouts 获取发放记录
// @Summary 获取发放记录
// @Tags 互助会
// @Produce json
// @Security BearerAuth
// @Param id path int true "互助会ID"
// @Success 200 {object} Response{data=[]models.Payout} "获取成功"
// @Failure 403 {object} Response "不是互助会成员"
// @Router /api/v1/funds/{id}/payouts [get]
func (h *FundHandler) ListPayouts(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	fund, _, ok := h.loadFundAsMember(c, userID)
	if !ok {
		return
	}
	var list []models.Payout
	if err := database.DB.Where("fund_id = ?", fund.ID).
		Order("payout_date DESC").Find(&list).Error; err != nil {
		InternalError(c, "查询失败: "+SafeErrorMessage(err, "数据库错误"))
		return
	}
	Success(c, list)
}

// Leave 退出互助会
// @Summary 退出互助会
// @Description 退出互助会，创建者不能退出
// @Tags 互助会
// @Produce json
// @Security BearerAuth
// @Param id path int true "互助会ID"
// @Success 200 {object} Response "退出成功"
// @Failure 400 {object} Response "创建者不能退出"
// @Router /api/v1/funds/{id}/leave [post]
func (h *FundHandler) Leave(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	fund, membership, ok := h.loadFundAsMember(c, userID)
	if !ok {
		return
	}
	if fund.CreatorID == userID {
		BadRequest(c, "创建者不能退出互助会")
		return
	}
	if err := database.DB.Delete(membership).Error; err != nil {
		InternalError(c, "退出失败: "+SafeErrorMessage(err, "数据库错误"))
		return
	}
	SuccessWithMessage(c, "退出成功", nil)
}
