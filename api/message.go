package api

import (
	"strconv"

	"sooraneh/database"
	"sooraneh/middleware"
	"sooraneh/models"

	"github.com/gin-gonic/gin"
)

// MessageHandler 私信处理器
type MessageHandler struct{}

func NewMessageHandler() *MessageHandler {
	return &MessageHandler{}
}

type SendMessageRequest struct {
	RecipientID uint   `json:"recipient_id" binding:"required"`
	Content     string `json:"content" binding:"required,max=2000"`
}

// Send 发送私信
// @Summary 发送私信
// @Description 给好友发送私信，仅限已接受的好友关系
// @Tags 私信
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body SendMessageRequest true "私信内容"
// @Success 200 {object} Response{data=models.Message} "发送成功"
// @Failure 403 {object} Response "对方不是你的好友"
// @Router /api/v1/messages [post]
func (h *MessageHandler) Send(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	if req.RecipientID == userID {
		BadRequest(c, "不能给自己发私信")
		return
	}
	if !areFriends(userID, req.RecipientID) {
		Forbidden(c, "对方不是你的好友")
		return
	}
	m := models.Message{
		SenderID:    userID,
		RecipientID: req.RecipientID,
		Content:     req.Content,
	}
	if err := database.DB.Create(&m).Error; err != nil {
		InternalError(c, "发送失败: "+SafeErrorMessage(err, "数据库错误"))
		return
	}
	SuccessWithMessage(c, "发送成功", m)
}

// Conversation 获取与某人的会话
// @Summary 获取与某人的会话
// @Description 获取当前用户与指定用户之间的全部私信，按时间升序，并把收到的消息标记为已读
// @Tags 私信
// @Produce json
// @Security BearerAuth
// @Param user_id path int true "对方用户ID"
// @Success 200 {object} Response{data=[]models.Message} "获取成功"
// @Router /api/v1/messages/conversations/{user_id} [get]
func (h *MessageHandler) Conversation(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	otherID, err := strconv.ParseUint(c.Param("user_id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}
	var list []models.Message
	if err := database.DB.
		Where("(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)",
			userID, otherID, otherID, userID).
		Order("created_at").Find(&list).Error; err != nil {
		InternalError(c, "查询失败: "+SafeErrorMessage(err, "数据库错误"))
		return
	}
	database.DB.Model(&models.Message{}).
		Where("sender_id = ? AND recipient_id = ? AND is_read = ?", otherID, userID, false).
		Update("is_read", true)
	Success(c, list)
}

// UnreadCount 获取未读私信数量
// @Summary 获取未读私信数量
// @Tags 私信
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response "获取成功"
// @Router /api/v1/messages/unread [get]
func (h *MessageHandler) UnreadCount(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	var count int64
	if err := database.DB.Model(&models.Message{}).
		Where("recipient_id = ? AND is_read = ?", userID, false).
		Count(&count).Error; err != nil {
		InternalError(c, "查询失败: "+SafeErrorMessage(err, "数据库错误"))
		return
	}
	Success(c, gin.H{"unread": count})
}
