package api

import (
	"strconv"
	"time"

	"sooraneh/database"
	"sooraneh/middleware"
	"sooraneh/models"

	"github.com/gin-gonic/gin"
)

// StatsHandler 统计处理器
type StatsHandler struct{}

func NewStatsHandler() *StatsHandler {
	return &StatsHandler{}
}

// CategoryStat 按类别的统计结果
type CategoryStat struct {
	CategoryID *uint   `json:"category_id"`
	Category   string  `json:"category"`
	Total      int64   `json:"total"` // 单位：分
	Count      int64   `json:"count"`
	Percentage float64 `json:"percentage"`
}

// parseStatsRange 解析统计时间范围，支持 month/year/custom 三种方式
func parseStatsRange(c *gin.Context) (time.Time, time.Time, bool) {
	rangeType := c.Query("range_type")
	switch rangeType {
	case "month":
		yearMonth := c.Query("year_month")
		if yearMonth == "" {
			BadRequest(c, "range_type=month时，year_month参数必填（格式：2024-01）")
			return time.Time{}, time.Time{}, false
		}
		start, err := time.ParseInLocation("2006-01", yearMonth, time.Local)
		if err != nil {
			BadRequest(c, "year_month格式错误，应为：2024-01")
			return time.Time{}, time.Time{}, false
		}
		start = time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.Local)
		return start, start.AddDate(0, 1, 0).Add(-time.Second), true

	case "year":
		year, err := strconv.Atoi(c.Query("year"))
		if err != nil || year < 2000 || year > 2100 {
			BadRequest(c, "year格式错误，应为4位数字（如：2024）")
			return time.Time{}, time.Time{}, false
		}
		return time.Date(year, 1, 1, 0, 0, 0, 0, time.Local),
			time.Date(year, 12, 31, 23, 59, 59, 0, time.Local), true

	case "custom":
		start, err := time.ParseInLocation("2006-01-02", c.Query("start_time"), time.Local)
		if err != nil {
			BadRequest(c, "start_time格式错误，应为：2024-01-01")
			return time.Time{}, time.Time{}, false
		}
		end, err := time.ParseInLocation("2006-01-02", c.Query("end_time"), time.Local)
		if err != nil {
			BadRequest(c, "end_time格式错误，应为：2024-12-31")
			return time.Time{}, time.Time{}, false
		}
		return start, end.Add(24*time.Hour - time.Second), true

	default:
		BadRequest(c, "range_type参数值错误，可选值：month、year、custom")
		return time.Time{}, time.Time{}, false
	}
}

// Overview 收支总览
// @Summary 收支总览
// @Description 按时间范围统计总收入、总支出、结余，以及支出的按类别分布，适合绘制饼图
// @Tags 统计
// @Produce json
// @Security BearerAuth
// @Param range_type query string true "时间范围类型：month（月）/year（年）/custom（自定义）" Enums(month,year,custom)
// @Param year_month query string false "年月（当range_type=month时必填，格式：2024-01）"
// @Param year query string false "年份（当range_type=year时必填，格式：2024）"
// @Param start_time query string false "开始时间（当range_type=custom时必填）"
// @Param end_time query string false "结束时间（当range_type=custom时必填）"
// @Success 200 {object} Response "获取成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/stats/overview [get]
func (h *StatsHandler) Overview(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	start, end, ok := parseStatsRange(c)
	if !ok {
		return
	}

	var totalIncome, totalExpense int64
	database.DB.Model(&models.Income{}).
		Where("user_id = ? AND date >= ? AND date <= ?", userID, start, end).
		Select("COALESCE(SUM(amount), 0)").Scan(&totalIncome)
	database.DB.Model(&models.Expense{}).
		Where("user_id = ? AND date >= ? AND date <= ?", userID, start, end).
		Select("COALESCE(SUM(amount), 0)").Scan(&totalExpense)

	var stats []CategoryStat
	database.DB.Model(&models.Expense{}).
		Select("expenses.category_id, COALESCE(categories.name, '未分类') as category, SUM(expenses.amount) as total, COUNT(*) as count").
		Joins("LEFT JOIN categories ON categories.id = expenses.category_id").
		Where("expenses.user_id = ? AND expenses.date >= ? AND expenses.date <= ?", userID, start, end).
		Group("expenses.category_id, categories.name").
		Order("total DESC").
		Scan(&stats)
	for i := range stats {
		if totalExpense > 0 {
			stats[i].Percentage = float64(stats[i].Total) * 100 / float64(totalExpense)
		}
	}

	Success(c, gin.H{
		"total_income":   totalIncome,
		"total_expense":  totalExpense,
		"net":            totalIncome - totalExpense,
		"category_stats": stats,
	})
}

// Monthly 按月趋势
// @Summary 按月趋势
// @Description 统计某一年每个月的收入与支出，适合绘制柱状图
// @Tags 统计
// @Produce json
// @Security BearerAuth
// @Param year query string true "年份（格式：2024）"
// @Success 200 {object} Response "获取成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/stats/monthly [get]
func (h *StatsHandler) Monthly(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	year, err := strconv.Atoi(c.Query("year"))
	if err != nil || year < 2000 || year > 2100 {
		BadRequest(c, "year格式错误，应为4位数字（如：2024）")
		return
	}

	type monthlyStat struct {
		Month   int   `json:"month"`
		Income  int64 `json:"income"`
		Expense int64 `json:"expense"`
	}
	result := make([]monthlyStat, 12)
	for m := 1; m <= 12; m++ {
		start := time.Date(year, time.Month(m), 1, 0, 0, 0, 0, time.Local)
		end := start.AddDate(0, 1, 0).Add(-time.Second)
		stat := monthlyStat{Month: m}
		database.DB.Model(&models.Income{}).
			Where("user_id = ? AND date >= ? AND date <= ?", userID, start, end).
			Select("COALESCE(SUM(amount), 0)").Scan(&stat.Income)
		database.DB.Model(&models.Expense{}).
			Where("user_id = ? AND date >= ? AND date <= ?", userID, start, end).
			Select("COALESCE(SUM(amount), 0)").Scan(&stat.Expense)
		result[m-1] = stat
	}
	Success(c, gin.H{"year": year, "months": result})
}
