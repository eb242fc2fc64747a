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

// GroupHandler 分摊群组处理器
type GroupHandler struct {
	settlement *service.SettlementService
	capability *service.CapabilityService
}

func NewGroupHandler() *GroupHandler {
	return &GroupHandler{
		settlement: service.NewSettlementService(database.DB),
		capability: service.NewCapabilityService(database.DB),
	}
}

type GroupRequest struct {
	Name string `json:"name" binding:"required,max=100" example:"合租公寓"`
}

type AddMemberRequest struct {
	Username string `json:"username" binding:"required" example:"xiaoming"`
}

type CreateGroupExpenseRequest struct {
	Description  string                `json:"description" binding:"required,max=255" example:"水电费"`
	Amount       int64                 `json:"amount" binding:"required,gt=0" example:"30000"` // 单位：分
	Date         string                `json:"date" binding:"required" example:"2024-01-15"`
	PayerID      *uint                 `json:"payer_id" example:"2"` // 付款成员，缺省为当前用户
	SplitType    string                `json:"split_type" binding:"required,oneof=EQUAL MANUAL"`
	ManualSplits []service.ManualSplit `json:"manual_splits"`
}

// settlementError 把分摊服务的业务错误映射为 400，其余视为内部错误
func settlementError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrNotAMember):
		Forbidden(c, err.Error())
	case errors.Is(err, service.ErrInvalidPayer),
		errors.Is(err, service.ErrEmptyGroup),
		errors.Is(err, service.ErrMissingManualSplits),
		errors.Is(err, service.ErrSplitMismatch),
		errors.Is(err, service.ErrSplitUserNotMember),
		errors.Is(err, service.ErrUnknownSplitType):
		BadRequest(c, err.Error())
	default:
		InternalError(c, fallback+": "+SafeErrorMessage(err, "数据库错误"))
	}
}

// loadGroupAsMember 加载群组并校验当前用户是成员
func (h *GroupHandler) loadGroupAsMember(c *gin.Context, userID uint) (*models.Group, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return nil, false
	}
	var group models.Group
	if err := database.DB.First(&group, id).Error; err != nil {
		NotFound(c, "群组不存在")
		return nil, false
	}
	var count int64
	database.DB.Model(&models.GroupMember{}).
		Where("group_id = ? AND user_id = ?", group.ID, userID).Count(&count)
	if count == 0 {
		Forbidden(c, "你不是该群组的成员")
		return nil, false
	}
	return &group, true
}

// Create 创建群组
// @Summary 创建群组
// @Description 创建分摊群组，需要订阅套餐包含建群能力。创建者自动成为群主与首个成员。
// @Tags 群组
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body GroupRequest true "群组信息"
// @Success 200 {object} Response{data=models.Group} "创建成功"
// @Failure 403 {object} Response "套餐不支持"
// @Router /api/v1/groups [post]
func (h *GroupHandler) Create(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	var req GroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	if err := h.capability.Check(userID, service.CapabilityCreateGroups); err != nil {
		if errors.Is(err, service.ErrCapabilityRequired) {
			Forbidden(c, err.Error())
			return
		}
		InternalError(c, "创建失败: "+SafeErrorMessage(err, "数据库错误"))
		return
	}
	group := models.Group{OwnerID: userID, Name: req.Name}
	if err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&group).Error; err != nil {
			return err
		}
		return tx.Create(&models.GroupMember{GroupID: group.ID, UserID: userID}).Error
	}); err != nil {
		InternalError(c, "创建失败: "+SafeErrorMessage(err, "数据库错误"))
		return
	}
	SuccessWithMessage(c, "创建成功", group)
}

// List 获取群组列表
// @Summary 获取群组列表
// @Description 获取当前用户参与的全部群组
// @Tags 群组
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]models.Group} "获取成功"
// @Router /api/v1/groups [get]
func (h *GroupHandler) List(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	var groupIDs []uint
	if err := database.DB.Model(&models.GroupMember{}).Where("user_id = ?", userID).
		Pluck("group_id", &groupIDs).Error; err != nil {
		InternalError(c, "查询失败: "+SafeErrorMessage(err, "数据库错误"))
		return
	}
	list := make([]models.Group, 0)
	if len(groupIDs) > 0 {
		if err := database.DB.Preload("Members.User").Where("id IN ?", groupIDs).
			Order("id").Find(&list).Error; err != nil {
			InternalError(c, "查询失败: "+SafeErrorMessage(err, "数据库错误"))
			return
		}
	}
	Success(c, list)
}

// Get 获取群组详情
// @Summary 获取群组详情
// @Tags 群组
// @Produce json
// @Security BearerAuth
// @Param id path int true "群组ID"
// @Success 200 {object} Response{data=models.Group} "获取成功"
// @Failure 403 {object} Response "不是群组成员"
// @Failure 404 {object} Response "群组不存在"
// @Router /api/v1/groups/{id} [get]
func (h *GroupHandler) Get(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	group, ok := h.loadGroupAsMember(c, userID)
	if !ok {
		return
	}
	database.DB.Preload("Members.User").First(group, group.ID)
	Success(c, group)
}

// Update 更新群组
// @Summary 更新群组
// @Description 修改群组名称，仅群主可以操作
// @Tags 群组
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "群组ID"
// @Param request body GroupRequest true "群组信息"
// @Success 200 {object} Response{data=models.Group} "更新成功"
// @Failure 403 {object} Response "仅群主可以操作"
// @Router /api/v1/groups/{id} [put]
func (h *GroupHandler) Update(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	group, ok := h.loadGroupAsMember(c, userID)
	if !ok {
		return
	}
	if group.OwnerID != userID {
		Forbidden(c, "仅群主可以操作")
		return
	}
	var req GroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	group.Name = req.Name
	if err := database.DB.Save(group).Error; err != nil {
		InternalError(c, "更新失败: "+SafeErrorMessage(err, "数据库错误"))
		return
	}
	SuccessWithMessage(c, "更新成功", group)
}

// Delete 删除群组
// @Summary 删除群组
// @Description 删除群组及全部成员、支出与分摊记录，仅群主可以操作
// @Tags 群组
// @Produce json
// @Security BearerAuth
// @Param id path int true "群组ID"
// @Success 200 {object} Response "删除成功"
// @Failure 403 {object} Response "仅群主可以操作"
// @Router /api/v1/groups/{id} [delete]
func (h *GroupHandler) Delete(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	group, ok := h.loadGroupAsMember(c, userID)
	if !ok {
		return
	}
	if group.OwnerID != userID {
		Forbidden(c, "仅群主可以操作")
		return
	}
	if err := database.DB.Transaction(func(tx *gorm.DB) error {
		var expenseIDs []uint
		if err := tx.Model(&models.GroupExpense{}).Where("group_id = ?", group.ID).
			Pluck("id", &expenseIDs).Error; err != nil {
			return err
		}
		if len(expenseIDs) > 0 {
			if err := tx.Where("expense_id IN ?", expenseIDs).Delete(&models.Split{}).Error; err != nil {
				return err
			}
			if err := tx.Where("group_id = ?", group.ID).Delete(&models.GroupExpense{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("group_id = ?", group.ID).Delete(&models.GroupMember{}).Error; err != nil {
			return err
		}
		return tx.Delete(group).Error
	}); err != nil {
		InternalError(c, "删除失败: "+SafeErrorMessage(err, "数据库错误"))
		return
	}
	SuccessWithMessage(c, "删除成功", nil)
}

// AddMember 添加成员
// @Summary 添加成员
// @Description 按用户名把用户加入群组，仅群主可以操作
// @Tags 群组
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "群组ID"
// @Param request body AddMemberRequest true "成员信息"
// @Success 200 {object} Response{data=models.GroupMember} "添加成功"
// @Failure 400 {object} Response "用户不存在或已是成员"
// @Failure 403 {object} Response "仅群主可以操作"
// @Router /api/v1/groups/{id}/members [post]
func (h *GroupHandler) AddMember(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	group, ok := h.loadGroupAsMember(c, userID)
	if !ok {
		return
	}
	if group.OwnerID != userID {
		Forbidden(c, "仅群主可以操作")
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
	database.DB.Model(&models.GroupMember{}).
		Where("group_id = ? AND user_id = ?", group.ID, user.ID).Count(&count)
	if count > 0 {
		BadRequest(c, "该用户已是群组成员")
		return
	}
	member := models.GroupMember{GroupID: group.ID, UserID: user.ID}
	if err := database.DB.Create(&member).Error; err != nil {
		InternalError(c, "添加失败: "+SafeErrorMessage(err, "数据库错误"))
		return
	}
	member.User = user
	SuccessWithMessage(c, "添加成功", member)
}

// RemoveMember 移除成员
// @Summary 移除成员
// @Description 把成员移出群组，仅群主可以操作，群主本人不可被移除
// @Tags 群组
// @Produce json
// @Security BearerAuth
// @Param id path int true "群组ID"
// @Param user_id path int true "成员用户ID"
// @Success 200 {object} Response "移除成功"
// @Failure 400 {object} Response "群主不能被移除"
// @Failure 403 {object} Response "仅群主可以操作"
// @Router /api/v1/groups/{id}/members/{user_id} [delete]
func (h *GroupHandler) RemoveMember(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	group, ok := h.loadGroupAsMember(c, userID)
	if !ok {
		return
	}
	if group.OwnerID != userID {
		Forbidden(c, "仅群主可以操作")
		return
	}
	targetID, err := strconv.ParseUint(c.Param("user_id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}
	if uint(targetID) == group.OwnerID {
		BadRequest(c, "群主不能被移除")
		return
	}
	var member models.GroupMember
	if err := database.DB.Where("group_id = ? AND user_id = ?", group.ID, targetID).
		First(&member).Error; err != nil {
		NotFound(c, "该用户不是群组成员")
		return
	}
	// 成员关系是纯关联行，物理删除，否则 (group_id, user_id) 唯一索引会挡住重新加入
	if err := database.DB.Unscoped().Delete(&member).Error; err != nil {
		InternalError(c, "移除失败: "+SafeErrorMessage(err, "数据库错误"))
		return
	}
	SuccessWithMessage(c, "移除成功", nil)
}

// CreateExpense 创建群组支出
// @Summary 创建群组支出
// @Description 记录一笔共同支出并生成分摊明细。付款人可以是任意群组成员，缺省为当前用户。EQUAL 按成员均摊，MANUAL 按提供的份额分摊，份额之和必须等于总额。
// @Tags 群组
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "群组ID"
// @Param request body CreateGroupExpenseRequest true "支出信息"
// @Success 200 {object} Response{data=models.GroupExpense} "创建成功"
// @Failure 400 {object} Response "分摊金额不匹配或分摊对象不是成员"
// @Failure 403 {object} Response "不是群组成员"
// @Router /api/v1/groups/{id}/expenses [post]
func (h *GroupHandler) CreateExpense(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	group, ok := h.loadGroupAsMember(c, userID)
	if !ok {
		return
	}
	var req CreateGroupExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	date, err := time.ParseInLocation("2006-01-02", req.Date, time.Local)
	if err != nil {
		BadRequest(c, "时间格式错误，应为: 2006-01-02")
		return
	}
	payerID := userID
	if req.PayerID != nil {
		payerID = *req.PayerID
	}
	expense, err := h.settlement.CreateGroupExpense(group.ID, payerID, req.Description,
		req.Amount, date, req.SplitType, req.ManualSplits)
	if err != nil {
		settlementError(c, err, "创建群组支出失败")
		return
	}
	database.DB.Preload("Splits").First(expense, expense.ID)
	SuccessWithMessage(c, "创建成功", expense)
}

// ListExpenses 获取群组支出列表
// @Summary 获取群组支出列表
// @Tags 群组
// @Produce json
// @Security BearerAuth
// @Param id path int true "群组ID"
// @Success 200 {object} Response{data=[]models.GroupExpense} "获取成功"
// @Failure 403 {object} Response "不是群组成员"
// @Router /api/v1/groups/{id}/expenses [get]
func (h *GroupHandler) ListExpenses(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	group, ok := h.loadGroupAsMember(c, userID)
	if !ok {
		return
	}
	var list []models.GroupExpense
	if err := database.DB.Preload("Splits").Where("group_id = ?", group.ID).
		Order("date DESC, id DESC").Find(&list).Error; err != nil {
		InternalError(c, "查询失败: "+SafeErrorMessage(err, "数据库错误"))
		return
	}
	Success(c, list)
}

// Summary 群组对账汇总
// @Summary 群组对账汇总
// @Description 返回每个成员的垫付、应承担、净头寸，以及结清头寸的转账建议
// @Tags 群组
// @Produce json
// @Security BearerAuth
// @Param id path int true "群组ID"
// @Success 200 {object} Response{data=service.GroupSummary} "获取成功"
// @Failure 403 {object} Response "不是群组成员"
// @Router /api/v1/groups/{id}/summary [get]
func (h *GroupHandler) Summary(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}
	var group models.Group
	if err := database.DB.First(&group, id).Error; err != nil {
		NotFound(c, "群组不存在")
		return
	}
	summary, err := h.settlement.ComputeGroupSummary(group.ID, userID)
	if err != nil {
		settlementError(c, err, "对账失败")
		return
	}
	Success(c, summary)
}
