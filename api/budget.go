package api

import (
	"strconv"
	"time"

	"sooraneh/database"
	"sooraneh/middleware"
	"sooraneh/models"

	"github.com/gin-gonic/gin"
)

// BudgetHandler 预算处理器
type BudgetHandler struct{}

func NewBudgetHandler() *BudgetHandler {
	return &BudgetHandler{}
}

type BudgetRequest struct {
	MonthlyBudget int64 `json:"monthly_budget" binding:"required,gt=0" example:"500000"` // 单位：分
	CategoryID    *uint `json:"category_id"`
}

// BudgetStatus 预算执行情况
type BudgetStatus struct {
	Budget    models.Budget `json:"budget"`
	Spent     int64         `json:"spent"`     // 当月已支出，单位：分
	Remaining int64         `json:"remaining"` // 剩余额度，可为负
}

// Create 创建预算
// @Summary 创建预算
// @Description 创建月度预算，category_id 为空表示总预算。同一范围只允许一条预算。
// @Tags 预算
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body BudgetRequest true "预算信息"
// @Success 200 {object} Response{data=models.Budget} "创建成功"
// @Failure 400 {object} Response "参数错误或预算已存在"
// @Router /api/v1/budgets [post]
func (h *BudgetHandler) Create(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	var req BudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	if req.CategoryID != nil {
		var cat models.Category
		if err := database.DB.Where("id = ? AND user_id = ? AND is_income = ?", *req.CategoryID, userID, false).
			First(&cat).Error; err != nil {
			BadRequest(c, "支出类别不存在")
			return
		}
	}
	query := database.DB.Model(&models.Budget{}).Where("user_id = ?", userID)
	if req.CategoryID == nil {
		query = query.Where("category_id IS NULL")
	} else {
		query = query.Where("category_id = ?", *req.CategoryID)
	}
	var count int64
	query.Count(&count)
	if count > 0 {
		BadRequest(c, "该范围的预算已存在，请直接修改")
		return
	}
	b := models.Budget{
		UserID:        userID,
		MonthlyBudget: req.MonthlyBudget,
		CategoryID:    req.CategoryID,
	}
	if err := database.DB.Create(&b).Error; err != nil {
		InternalError(c, "创建失败: "+SafeErrorMessage(err, "数据库错误"))
		return
	}
	SuccessWithMessage(c, "创建成功", b)
}

// List 获取预算执行情况
// @Summary 获取预算执行情况
// @Description 返回各预算及其当月已支出与剩余额度
// @Tags 预算
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]BudgetStatus} "获取成功"
// @Router /api/v1/budgets [get]
func (h *BudgetHandler) List(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	var budgets []models.Budget
	if err := database.DB.Where("user_id = ?", userID).Order("id").Find(&budgets).Error; err != nil {
		InternalError(c, "查询失败: "+SafeErrorMessage(err, "数据库错误"))
		return
	}

	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.Local)
	monthEnd := monthStart.AddDate(0, 1, 0)

	result := make([]BudgetStatus, 0, len(budgets))
	for _, b := range budgets {
		query := database.DB.Model(&models.Expense{}).
			Where("user_id = ? AND date >= ? AND date < ?", userID, monthStart, monthEnd)
		if b.CategoryID != nil {
			query = query.Where("category_id = ?", *b.CategoryID)
		}
		var spent int64
		query.Select("COALESCE(SUM(amount), 0)").Scan(&spent)
		result = append(result, BudgetStatus{
			Budget:    b,
			Spent:     spent,
			Remaining: b.MonthlyBudget - spent,
		})
	}
	Success(c, result)
}

// Update 更新预算
// @Summary 更新预算
// @Tags 预算
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "预算ID"
// @Param request body BudgetRequest true "预算信息"
// @Success 200 {object} Response{data=models.Budget} "更新成功"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/budgets/{id} [put]
func (h *BudgetHandler) Update(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}
	var b models.Budget
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&b).Error; err != nil {
		NotFound(c, "记录不存在")
		return
	}
	var req BudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	b.MonthlyBudget = req.MonthlyBudget
	if err := database.DB.Save(&b).Error; err != nil {
		InternalError(c, "更新失败: "+SafeErrorMessage(err, "数据库错误"))
		return
	}
	SuccessWithMessage(c, "更新成功", b)
}

// Delete 删除预算
// @Summary 删除预算
// @Tags 预算
// @Produce json
// @Security BearerAuth
// @Param id path int true "预算ID"
// @Success 200 {object} Response "删除成功"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/budgets/{id} [delete]
func (h *BudgetHandler) Delete(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}
	var b models.Budget
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&b).Error; err != nil {
		NotFound(c, "记录不存在")
		return
	}
	if err := database.DB.Delete(&b).Error; err != nil {
		InternalError(c, "删除失败: "+SafeErrorMessage(err, "数据库错误"))
		return
	}
	SuccessWithMessage(c, "删除成功", nil)
}
