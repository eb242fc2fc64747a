package api

import (
	"strconv"

	"sooraneh/database"
	"sooraneh/middleware"
	"sooraneh/models"

	"github.com/gin-gonic/gin"
)

// FriendshipHandler 好友关系处理器
type FriendshipHandler struct{}

func NewFriendshipHandler() *FriendshipHandler {
	return &FriendshipHandler{}
}

type FriendRequest struct {
	Username string `json:"username" binding:"required" example:"xiaoming"`
}

// FriendInfo 好友视图
type FriendInfo struct {
	FriendshipID uint              `json:"friendship_id"`
	User         models.SimpleUser `json:"user"`
}

// areFriends 判断两个用户间是否存在已接受的好友关系
func areFriends(userA, userB uint) bool {
	var count int64
	database.DB.Model(&models.Friendship{}).
		Where("status = ?", models.FriendshipAccepted).
		Where("(from_user_id = ? AND to_user_id = ?) OR (from_user_id = ? AND to_user_id = ?)",
			userA, userB, userB, userA).
		Count(&count)
	return count > 0
}

// SendRequest 发送好友请求
// @Summary 发送好友请求
// @Description 按用户名发送好友请求，不能添加自己，不能重复发送
// @Tags 好友
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body FriendRequest true "好友请求"
// @Success 200 {object} Response{data=models.Friendship} "发送成功"
// @Failure 400 {object} Response "用户不存在或请求已存在"
// @Router /api/v1/friendships [post]
func (h *FriendshipHandler) SendRequest(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	var req FriendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	var target models.User
	if err := database.DB.Where("username = ?", req.Username).First(&target).Error; err != nil {
		BadRequest(c, "用户不存在")
		return
	}
	if target.ID == userID {
		BadRequest(c, "不能添加自己为好友")
		return
	}
	var count int64
	database.DB.Model(&models.Friendship{}).
		Where("(from_user_id = ? AND to_user_id = ?) OR (from_user_id = ? AND to_user_id = ?)",
			userID, target.ID, target.ID, userID).
		Where("status <> ?", models.FriendshipRejected).
		Count(&count)
	if count > 0 {
		BadRequest(c, "好友请求已存在")
		return
	}
	// 同方向的被拒绝记录还占着唯一索引，改回 PENDING 复用该行
	var old models.Friendship
	if err := database.DB.
		Where("from_user_id = ? AND to_user_id = ? AND status = ?",
			userID, target.ID, models.FriendshipRejected).
		First(&old).Error; err == nil {
		if err := database.DB.Model(&old).Update("status", models.FriendshipPending).Error; err != nil {
			InternalError(c, "发送失败: "+SafeErrorMessage(err, "数据库错误"))
			return
		}
		SuccessWithMessage(c, "好友请求已发送", old)
		return
	}
	f := models.Friendship{
		FromUserID: userID,
		ToUserID:   target.ID,
		Status:     models.FriendshipPending,
	}
	if err := database.DB.Create(&f).Error; err != nil {
		InternalError(c, "发送失败: "+SafeErrorMessage(err, "数据库错误"))
		return
	}
	SuccessWithMessage(c, "好友请求已发送", f)
}

// ListPending 获取待处理的好友请求
// @Summary 获取待处理的好友请求
// @Description 获取发给当前用户、尚未处理的好友请求
// @Tags 好友
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]models.Friendship} "获取成功"
// @Router /api/v1/friendships/pending [get]
func (h *FriendshipHandler) ListPending(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	var list []models.Friendship
	if err := database.DB.Where("to_user_id = ? AND status = ?", userID, models.FriendshipPending).
		Order("created_at DESC").Find(&list).Error; err != nil {
		InternalError(c, "查询失败: "+SafeErrorMessage(err, "数据库错误"))
		return
	}
	Success(c, list)
}

// Respond 处理好友请求
// @Summary 处理好友请求
// @Description 接受或拒绝发给自己的好友请求
// @Tags 好友
// @Produce json
// @Security BearerAuth
// @Param id path int true "好友请求ID"
// @Param action query string true "accept 或 reject"
// @Success 200 {object} Response{data=models.Friendship} "处理成功"
// @Failure 400 {object} Response "请求已处理"
// @Failure 404 {object} Response "请求不存在"
// @Router /api/v1/friendships/{id}/respond [post]
func (h *FriendshipHandler) Respond(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}
	action := c.Query("action")
	if action != "accept" && action != "reject" {
		BadRequest(c, "action 应为 accept 或 reject")
		return
	}
	var f models.Friendship
	if err := database.DB.Where("id = ? AND to_user_id = ?", id, userID).First(&f).Error; err != nil {
		NotFound(c, "好友请求不存在")
		return
	}
	if f.Status != models.FriendshipPending {
		BadRequest(c, "该请求已处理")
		return
	}
	if action == "accept" {
		f.Status = models.FriendshipAccepted
	} else {
		f.Status = models.FriendshipRejected
	}
	if err := database.DB.Save(&f).Error; err != nil {
		InternalError(c, "处理失败: "+SafeErrorMessage(err, "数据库错误"))
		return
	}
	SuccessWithMessage(c, "处理成功", f)
}

// ListFriends 获取好友列表
// @Summary 获取好友列表
// @Tags 好友
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]FriendInfo} "获取成功"
// @Router /api/v1/friendships [get]
func (h *FriendshipHandler) ListFriends(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	var list []models.Friendship
	if err := database.DB.Preload("FromUser").Preload("ToUser").
		Where("status = ?", models.FriendshipAccepted).
		Where("from_user_id = ? OR to_user_id = ?", userID, userID).
		Find(&list).Error; err != nil {
		InternalError(c, "查询失败: "+SafeErrorMessage(err, "数据库错误"))
		return
	}
	friends := make([]FriendInfo, 0, len(list))
	for _, f := range list {
		other := f.FromUser
		if f.FromUserID == userID {
			other = f.ToUser
		}
		friends = append(friends, FriendInfo{FriendshipID: f.ID, User: other.Simple()})
	}
	Success(c, friends)
}

// Remove 删除好友
// @Summary 删除好友
// @Description 解除好友关系
// @Tags 好友
// @Produce json
// @Security BearerAuth
// @Param id path int true "好友关系ID"
// @Success 200 {object} Response "删除成功"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/friendships/{id} [delete]
func (h *FriendshipHandler) Remove(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}
	var f models.Friendship
	if err := database.DB.Where("id = ? AND (from_user_id = ? OR to_user_id = ?)", id, userID, userID).
		First(&f).Error; err != nil {
		NotFound(c, "记录不存在")
		return
	}
	// 物理删除，否则 (from_user_id, to_user_id) 唯一索引会挡住之后重新发起请求
	if err := database.DB.Unscoped().Delete(&f).Error; err != nil {
		InternalError(c, "删除失败: "+SafeErrorMessage(err, "数据库错误"))
		return
	}
	SuccessWithMessage(c, "删除成功", nil)
}
