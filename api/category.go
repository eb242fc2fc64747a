package api

import (
	"strconv"

	"sooraneh/database"
	"sooraneh/middleware"
	"sooraneh/models"

	"github.com/gin-gonic/gin"
)

// CategoryHandler 类别处理器
type CategoryHandler struct{}

func NewCategoryHandler() *CategoryHandler {
	return &CategoryHandler{}
}

type CategoryRequest struct {
	Name     string `json:"name" binding:"required,max=20" example:"餐饮"`
	IsIncome bool   `json:"is_income"`
	ParentID *uint  `json:"parent_id"`
}

// Create 创建类别
// @Summary 创建类别
// @Description 创建收入或支出类别，支持二级分类
// @Tags 类别
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CategoryRequest true "类别信息"
// @Success 200 {object} Response{data=models.Category} "创建成功"
// @Failure 400 {object} Response "参数错误"
// @Router /api/v1/categories [post]
func (h *CategoryHandler) Create(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	if req.ParentID != nil {
		var parent models.Category
		if err := database.DB.Where("id = ? AND user_id = ?", *req.ParentID, userID).
			First(&parent).Error; err != nil {
			BadRequest(c, "父类别不存在")
			return
		}
		if parent.ParentID != nil {
			BadRequest(c, "类别最多支持两级")
			return
		}
		if parent.IsIncome != req.IsIncome {
			BadRequest(c, "子类别的收支方向必须与父类别一致")
			return
		}
	}
	cat := models.Category{
		UserID:   userID,
		Name:     req.Name,
		IsIncome: req.IsIncome,
		ParentID: req.ParentID,
	}
	if err := database.DB.Create(&cat).Error; err != nil {
		InternalError(c, "创建失败: "+SafeErrorMessage(err, "数据库错误"))
		return
	}
	SuccessWithMessage(c, "创建成功", cat)
}

// List 获取类别树
// @Summary 获取类别树
// @Description 获取当前用户的类别，按两级树结构返回
// @Tags 类别
// @Produce json
// @Security BearerAuth
// @Param is_income query bool false "true 返回收入类别，false 返回支出类别，缺省返回全部"
// @Success 200 {object} Response{data=[]models.Category} "获取成功"
// @Router /api/v1/categories [get]
func (h *CategoryHandler) List(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	query := database.DB.Where("user_id = ?", userID)
	if v, ok := c.GetQuery("is_income"); ok {
		isIncome, err := strconv.ParseBool(v)
		if err != nil {
			BadRequest(c, "参数错误: is_income 应为布尔值")
			return
		}
		query = query.Where("is_income = ?", isIncome)
	}
	var all []models.Category
	if err := query.Order("id").Find(&all).Error; err != nil {
		InternalError(c, "查询失败: "+SafeErrorMessage(err, "数据库错误"))
		return
	}
	// 两级树：先挂子类别，再收集根类别
	children := make(map[uint][]models.Category)
	for _, cat := range all {
		if cat.ParentID != nil {
			children[*cat.ParentID] = append(children[*cat.ParentID], cat)
		}
	}
	roots := make([]models.Category, 0)
	for _, cat := range all {
		if cat.ParentID == nil {
			cat.Children = children[cat.ID]
			roots = append(roots, cat)
		}
	}
	Success(c, roots)
}

// Update 更新类别
// @Summary 更新类别
// @Tags 类别
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "类别ID"
// @Param request body CategoryRequest true "类别信息"
// @Success 200 {object} Response{data=models.Category} "更新成功"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/categories/{id} [put]
func (h *CategoryHandler) Update(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}
	var cat models.Category
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&cat).Error; err != nil {
		NotFound(c, "记录不存在")
		return
	}
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	cat.Name = req.Name
	if err := database.DB.Save(&cat).Error; err != nil {
		InternalError(c, "更新失败: "+SafeErrorMessage(err, "数据库错误"))
		return
	}
	SuccessWithMessage(c, "更新成功", cat)
}

// Delete 删除类别
// @Summary 删除类别
// @Description 删除类别，存在子类别或被收支记录引用时拒绝
// @Tags 类别
// @Produce json
// @Security BearerAuth
// @Param id path int true "类别ID"
// @Success 200 {object} Response "删除成功"
// @Failure 400 {object} Response "类别正在使用中"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/categories/{id} [delete]
func (h *CategoryHandler) Delete(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}
	var cat models.Category
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&cat).Error; err != nil {
		NotFound(c, "记录不存在")
		return
	}
	var childCount int64
	database.DB.Model(&models.Category{}).Where("parent_id = ?", cat.ID).Count(&childCount)
	if childCount > 0 {
		BadRequest(c, "该类别下存在子类别，无法删除")
		return
	}
	var refCount int64
	database.DB.Model(&models.Income{}).Where("category_id = ?", cat.ID).Count(&refCount)
	if refCount == 0 {
		database.DB.Model(&models.Expense{}).Where("category_id = ?", cat.ID).Count(&refCount)
	}
	if refCount > 0 {
		BadRequest(c, "该类别已被收支记录使用，无法删除")
		return
	}
	if err := database.DB.Delete(&cat).Error; err != nil {
		InternalError(c, "删除失败: "+SafeErrorMessage(err, "数据库错误"))
		return
	}
	SuccessWithMessage(c, "删除成功", nil)
}
