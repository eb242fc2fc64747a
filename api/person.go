package api

import (
	"strconv"

	"sooraneh/database"
	"sooraneh/middleware"
	"sooraneh/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// PersonHandler 相关人处理器
type PersonHandler struct{}

func NewPersonHandler() *PersonHandler {
	return &PersonHandler{}
}

type PersonRequest struct {
	FirstName string `json:"first_name" binding:"required,max=20" example:"小明"`
	LastName  string `json:"last_name" binding:"omitempty,max=20" example:"王"`
}

// Create 创建相关人
// @Summary 创建相关人
// @Description 创建收支关联的相关人（家人、朋友等）
// @Tags 相关人
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body PersonRequest true "相关人信息"
// @Success 200 {object} Response{data=models.Person} "创建成功"
// @Failure 400 {object} Response "参数错误"
// @Router /api/v1/persons [post]
func (h *PersonHandler) Create(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	var req PersonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	p := models.Person{
		UserID:    userID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}
	if err := database.DB.Create(&p).Error; err != nil {
		InternalError(c, "创建失败: "+SafeErrorMessage(err, "数据库错误"))
		return
	}
	SuccessWithMessage(c, "创建成功", p)
}

// List 获取相关人列表
// @Summary 获取相关人列表
// @Tags 相关人
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]models.Person} "获取成功"
// @Router /api/v1/persons [get]
func (h *PersonHandler) List(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	var list []models.Person
	if err := database.DB.Where("user_id = ?", userID).Order("id").Find(&list).Error; err != nil {
		InternalError(c, "查询失败: "+SafeErrorMessage(err, "数据库错误"))
		return
	}
	Success(c, list)
}

// Update 更新相关人
// @Summary 更新相关人
// @Tags 相关人
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "相关人ID"
// @Param request body PersonRequest true "相关人信息"
// @Success 200 {object} Response{data=models.Person} "更新成功"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/persons/{id} [put]
func (h *PersonHandler) Update(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}
	var p models.Person
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&p).Error; err != nil {
		NotFound(c, "记录不存在")
		return
	}
	var req PersonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	p.FirstName = req.FirstName
	p.LastName = req.LastName
	if err := database.DB.Save(&p).Error; err != nil {
		InternalError(c, "更新失败: "+SafeErrorMessage(err, "数据库错误"))
		return
	}
	SuccessWithMessage(c, "更新成功", p)
}

// Delete 删除相关人
// @Summary 删除相关人
// @Description 删除相关人，历史收支记录保留但解除关联
// @Tags 相关人
// @Produce json
// @Security BearerAuth
// @Param id path int true "相关人ID"
// @Success 200 {object} Response "删除成功"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/persons/{id} [delete]
func (h *PersonHandler) Delete(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}
	var p models.Person
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&p).Error; err != nil {
		NotFound(c, "记录不存在")
		return
	}
	if err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Income{}).Where("person_id = ?", p.ID).
			Update("person_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Expense{}).Where("person_id = ?", p.ID).
			Update("person_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&p).Error
	}); err != nil {
		InternalError(c, "删除失败: "+SafeErrorMessage(err, "数据库错误"))
		return
	}
	SuccessWithMessage(c, "删除成功", nil)
}
