package api

import (
	"strconv"

	"sooraneh/database"
	"sooraneh/middleware"
	"sooraneh/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// TagHandler 标签处理器
type TagHandler struct{}

func NewTagHandler() *TagHandler {
	return &TagHandler{}
}

type TagRequest struct {
	Name string `json:"name" binding:"required,max=20" example:"旅行"`
}

// Create 创建标签
// @Summary 创建标签
// @Tags 标签
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body TagRequest true "标签信息"
// @Success 200 {object} Response{data=models.Tag} "创建成功"
// @Failure 400 {object} Response "参数错误"
// @Router /api/v1/tags [post]
func (h *TagHandler) Create(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	var req TagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	var count int64
	database.DB.Model(&models.Tag{}).Where("user_id = ? AND name = ?", userID, req.Name).Count(&count)
	if count > 0 {
		BadRequest(c, "标签已存在")
		return
	}
	tag := models.Tag{UserID: userID, Name: req.Name}
	if err := database.DB.Create(&tag).Error; err != nil {
		InternalError(c, "创建失败: "+SafeErrorMessage(err, "数据库错误"))
		return
	}
	SuccessWithMessage(c, "创建成功", tag)
}

// List 获取标签列表
// @Summary 获取标签列表
// @Tags 标签
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]models.Tag} "获取成功"
// @Router /api/v1/tags [get]
func (h *TagHandler) List(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	var list []models.Tag
	if err := database.DB.Where("user_id = ?", userID).Order("id").Find(&list).Error; err != nil {
		InternalError(c, "查询失败: "+SafeErrorMessage(err, "数据库错误"))
		return
	}
	Success(c, list)
}

// Update 更新标签
// @Summary 更新标签
// @Tags 标签
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "标签ID"
// @Param request body TagRequest true "标签信息"
// @Success 200 {object} Response{data=models.Tag} "更新成功"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/tags/{id} [put]
func (h *TagHandler) Update(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}
	var tag models.Tag
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&tag).Error; err != nil {
		NotFound(c, "记录不存在")
		return
	}
	var req TagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	tag.Name = req.Name
	if err := database.DB.Save(&tag).Error; err != nil {
		InternalError(c, "更新失败: "+SafeErrorMessage(err, "数据库错误"))
		return
	}
	SuccessWithMessage(c, "更新成功", tag)
}

// Delete 删除标签
// @Summary 删除标签
// @Description 删除标签，关联的收支记录保留但解除标签
// @Tags 标签
// @Produce json
// @Security BearerAuth
// @Param id path int true "标签ID"
// @Success 200 {object} Response "删除成功"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/tags/{id} [delete]
func (h *TagHandler) Delete(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}
	var tag models.Tag
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&tag).Error; err != nil {
		NotFound(c, "记录不存在")
		return
	}
	if err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Income{}).Where("tag_id = ?", tag.ID).
			Update("tag_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Expense{}).Where("tag_id = ?", tag.ID).
			Update("tag_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&tag).Error
	}); err != nil {
		InternalError(c, "删除失败: "+SafeErrorMessage(err, "数据库错误"))
		return
	}
	SuccessWithMessage(c, "删除成功", nil)
}
