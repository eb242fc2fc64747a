package api

import (
	"errors"
	"sort"
	"strconv"
	"time"

	"sooraneh/database"
	"sooraneh/middleware"
	"sooraneh/models"
	"sooraneh/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// BuildingHandler 楼栋管理处理器
type BuildingHandler struct {
	capability *service.CapabilityService
}

func NewBuildingHandler() *BuildingHandler {
	return &BuildingHandler{capability: service.NewCapabilityService(database.DB)}
}

type BuildingRequest struct {
	Name    string `json:"name" binding:"required,max=100" example:"阳光小区3号楼"`
	Address string `json:"address" binding:"omitempty,max=255"`
}

type UnitRequest struct {
	UnitNumber string `json:"unit_number" binding:"required,max=20" example:"502"`
	ResidentID *uint  `json:"resident_id"`
}

type BuildingExpenseRequest struct {
	Description string `json:"description" binding:"required,max=255" example:"电梯维修"`
	Amount      int64  `json:"amount" binding:"required,gt=0" example:"120000"` // 单位：分
	Date        string `json:"date" binding:"required" example:"2024-01-15"`
}

type ApportionRequest struct {
	ExpenseID uint   `json:"expense_id" binding:"required"`
	DueDate   string `json:"due_date" binding:"required" example:"2024-02-15"`
}

// loadBuildingAsManager 加载楼栋并校验当前用户是管理员
func (h *BuildingHandler) loadBuildingAsManager(c *gin.Context, userID uint) (*models.Building, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return nil, false
	}
	var b models.Building
	if err := database.DB.First(&b, id).Error; err != nil {
		NotFound(c, "楼栋不存在")
		return nil, false
	}
	if b.ManagerID != userID {
		Forbidden(c, "仅楼栋管理员可以操作")
		return nil, false
	}
	return &b, true
}

// Create 创建楼栋
// @Summary 创建楼栋
// @Description 创建楼栋，需要订阅套餐包含楼栋管理能力
// @Tags 楼栋
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body BuildingRequest true "楼栋信息"
// @Success 200 {object} Response{data=models.Building} "创建成功"
// @Failure 403 {object} Response "套餐不支持"
// @Router /api/v1/buildings [post]
func (h *BuildingHandler) Create(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	var req BuildingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	if err := h.capability.Check(userID, service.CapabilityManageBuildings); err != nil {
		if errors.Is(err, service.ErrCapabilityRequired) {
			Forbidden(c, err.Error())
			return
		}
		InternalError(c, "创建失败: "+SafeErrorMessage(err, "数据库错误"))
		return
	}
	b := models.Building{ManagerID: userID, Name: req.Name, Address: req.Address}
	if err := database.DB.Create(&b).Error; err != nil {
		InternalError(c, "创建失败: "+SafeErrorMessage(err, "数据库错误"))
		return
	}
	SuccessWithMessage(c, "创建成功", b)
}

// List 获取楼栋列表
// @Summary 获取楼栋列表
// @Description 获取当前用户管理的全部楼栋
// @Tags 楼栋
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]models.Building} "获取成功"
// @Router /api/v1/buildings [get]
func (h *BuildingHandler) List(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	var list []models.Building
	if err := database.DB.Preload("Units").Where("manager_id = ?", userID).
		Order("id").Find(&list).Error; err != nil {
		InternalError(c, "查询失败: "+SafeErrorMessage(err, "数据库错误"))
		return
	}
	Success(c, list)
}

// AddUnit 添加单元
// @Summary 添加单元
// @Description 在楼栋中登记一个单元，单元号在楼栋内唯一
// @Tags 楼栋
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "楼栋ID"
// @Param request body UnitRequest true "单元信息"
// @Success 200 {object} Response{data=models.Unit} "添加成功"
// @Failure 400 {object} Response "单元号已存在"
// @Failure 403 {object} Response "仅管理员可以操作"
// @Router /api/v1/buildings/{id}/units [post]
func (h *BuildingHandler) AddUnit(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	b, ok := h.loadBuildingAsManager(c, userID)
	if !ok {
		return
	}
	var req UnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	var count int64
	database.DB.Model(&models.Unit{}).
		Where("building_id = ? AND unit_number = ?", b.ID, req.UnitNumber).Count(&count)
	if count > 0 {
		BadRequest(c, "单元号已存在")
		return
	}
	unit := models.Unit{BuildingID: b.ID, UnitNumber: req.UnitNumber, ResidentID: req.ResidentID}
	if err := database.DB.Create(&unit).Error; err != nil {
		InternalError(c, "添加失败: "+SafeErrorMessage(err, "数据库错误"))
		return
	}
	SuccessWithMessage(c, "添加成功", unit)
}

// CreateExpense 登记楼栋公共支出
// @Summary 登记楼栋公共支出
// @Tags 楼栋
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "楼栋ID"
// @Param request body BuildingExpenseRequest true "支出信息"
// @Success 200 {object} Response{data=models.BuildingExpense} "登记成功"
// @Failure 403 {object} Response "仅管理员可以操作"
// @Router /api/v1/buildings/{id}/expenses [post]
func (h *BuildingHandler) CreateExpense(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	b, ok := h.loadBuildingAsManager(c, userID)
	if !ok {
		return
	}
	var req BuildingExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	date, err := time.ParseInLocation("2006-01-02", req.Date, time.Local)
	if err != nil {
		BadRequest(c, "时间格式错误，应为: 2006-01-02")
		return
	}
	expense := models.BuildingExpense{
		BuildingID:  b.ID,
		Description: req.Description,
		Amount:      req.Amount,
		Date:        date,
	}
	if err := database.DB.Create(&expense).Error; err != nil {
		InternalError(c, "登记失败: "+SafeErrorMessage(err, "数据库错误"))
		return
	}
	SuccessWithMessage(c, "登记成功", expense)
}

// Apportion 把公共支出分摊为各单元物业费
// @Summary 分摊公共支出
// @Description 把一笔公共支出均摊给楼栋里的全部单元，生成每个单元的物业费。按单元ID升序取整均摊，余数记到最后一个单元，保证分摊之和等于支出总额。
// @Tags 楼栋
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "楼栋ID"
// @Param request body ApportionRequest true "分摊信息"
// @Success 200 {object} Response{data=[]models.MaintenanceFee} "分摊成功"
// @Failure 400 {object} Response "楼栋没有单元"
// @Failure 403 {object} Response "仅管理员可以操作"
// @Router /api/v1/buildings/{id}/apportion [post]
func (h *BuildingHandler) Apportion(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	b, ok := h.loadBuildingAsManager(c, userID)
	if !ok {
		return
	}
	var req ApportionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	dueDate, err := time.ParseInLocation("2006-01-02", req.DueDate, time.Local)
	if err != nil {
		BadRequest(c, "时间格式错误，应为: 2006-01-02")
		return
	}
	var expense models.BuildingExpense
	if err := database.DB.Where("id = ? AND building_id = ?", req.ExpenseID, b.ID).
		First(&expense).Error; err != nil {
		NotFound(c, "支出不存在")
		return
	}
	var units []models.Unit
	if err := database.DB.Where("building_id = ?", b.ID).Order("id").Find(&units).Error; err != nil {
		InternalError(c, "查询失败: "+SafeErrorMessage(err, "数据库错误"))
		return
	}
	if len(units) == 0 {
		BadRequest(c, "楼栋没有单元，无法分摊")
		return
	}
	sort.Slice(units, func(i, j int) bool { return units[i].ID < units[j].ID })

	n := int64(len(units))
	share := expense.Amount / n
	fees := make([]models.MaintenanceFee, 0, len(units))
	for i, unit := range units {
		a := share
		if i == len(units)-1 {
			a = expense.Amount - share*(n-1)
		}
		fees = append(fees, models.MaintenanceFee{
			UnitID:  unit.ID,
			Amount:  a,
			DueDate: dueDate,
		})
	}
	if err := database.DB.Create(&fees).Error; err != nil {
		InternalError(c, "分摊失败: "+SafeErrorMessage(err, "数据库错误"))
		return
	}
	SuccessWithMessage(c, "分摊成功", fees)
}

// ListFees 获取物业费列表
// @Summary 获取物业费列表
// @Description 获取楼栋全部单元的物业费
// @Tags 楼栋
// @Produce json
// @Security BearerAuth
// @Param id path int true "楼栋ID"
// @Param is_paid query bool false "按缴纳状态筛选"
// @Success 200 {object} Response{data=[]models.MaintenanceFee} "获取成功"
// @Failure 403 {object} Response "仅管理员可以操作"
// @Router /api/v1/buildings/{id}/fees [get]
func (h *BuildingHandler) ListFees(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	b, ok := h.loadBuildingAsManager(c, userID)
	if !ok {
		return
	}
	query := database.DB.Model(&models.MaintenanceFee{}).
		Joins("JOIN units ON units.id = maintenance_fees.unit_id").
		Where("units.building_id = ?", b.ID)
	if v, parseOK := c.GetQuery("is_paid"); parseOK {
		isPaid, err := strconv.ParseBool(v)
		if err != nil {
			BadRequest(c, "参数错误: is_paid 应为布尔值")
			return
		}
		query = query.Where("maintenance_fees.is_paid = ?", isPaid)
	}
	var fees []models.MaintenanceFee
	if err := query.Order("maintenance_fees.due_date, maintenance_fees.unit_id").
		Find(&fees).Error; err != nil {
		InternalError(c, "查询失败: "+SafeErrorMessage(err, "数据库错误"))
		return
	}
	Success(c, fees)
}

// PayFee 标记物业费已缴
// @Summary 标记物业费已缴
// @Tags 楼栋
// @Produce json
// @Security BearerAuth
// @Param id path int true "楼栋ID"
// @Param fee_id path int true "物业费ID"
// @Success 200 {object} Response{data=models.MaintenanceFee} "标记成功"
// @Failure 400 {object} Response "该费用已缴纳"
// @Failure 403 {object} Response "仅管理员可以操作"
// @Router /api/v1/buildings/{id}/fees/{fee_id}/pay [post]
func (h *BuildingHandler) PayFee(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	b, ok := h.loadBuildingAsManager(c, userID)
	if !ok {
		return
	}
	feeID, err := strconv.ParseUint(c.Param("fee_id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}
	var fee models.MaintenanceFee
	if err := database.DB.
		Joins("JOIN units ON units.id = maintenance_fees.unit_id").
		Where("maintenance_fees.id = ? AND units.building_id = ?", feeID, b.ID).
		First(&fee).Error; err != nil {
		NotFound(c, "记录不存在")
		return
	}
	if fee.IsPaid {
		BadRequest(c, "该费用已缴纳")
		return
	}
	now := time.Now()
	fee.IsPaid = true
	fee.PaymentDate = &now
	if err := database.DB.Save(&fee).Error; err != nil {
		InternalError(c, "更新失败: "+SafeErrorMessage(err, "数据库错误"))
		return
	}
	SuccessWithMessage(c, "已标记为缴纳", fee)
}

// Delete 删除楼栋
// @Summary 删除楼栋
// @Description 删除楼栋及其全部单元、支出与物业费
// @Tags 楼栋
// @Produce json
// @Security BearerAuth
// @Param id path int true "楼栋ID"
// @Success 200 {object} Response "删除成功"
// @Failure 403 {object} Response "仅管理员可以操作"
// @Router /api/v1/buildings/{id} [delete]
func (h *BuildingHandler) Delete(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	b, ok := h.loadBuildingAsManager(c, userID)
	if !ok {
		return
	}
	if err := database.DB.Transaction(func(tx *gorm.DB) error {
		var unitIDs []uint
		if err := tx.Model(&models.Unit{}).Where("building_id = ?", b.ID).
			Pluck("id", &unitIDs).Error; err != nil {
			return err
		}
		if len(unitIDs) > 0 {
			if err := tx.Where("unit_id IN ?", unitIDs).
				Delete(&models.MaintenanceFee{}).Error; err != nil {
				return err
			}
			if err := tx.Where("building_id = ?", b.ID).Delete(&models.Unit{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("building_id = ?", b.ID).Delete(&models.BuildingExpense{}).Error; err != nil {
			return err
		}
		return tx.Delete(b).Error
	}); err != nil {
		InternalError(c, "删除失败: "+SafeErrorMessage(err, "数据库错误"))
		return
	}
	SuccessWithMessage(c, "删除成功", nil)
}
