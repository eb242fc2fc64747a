package api

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"sort"
	"time"

	"sooraneh/database"
	"sooraneh/middleware"
	"sooraneh/models"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

// ExportHandler 导出处理器
type ExportHandler struct{}

// NewExportHandler 创建导出处理器
func NewExportHandler() *ExportHandler {
	return &ExportHandler{}
}

// exportRow 导出的一行收支记录
type exportRow struct {
	ID       uint
	Kind     string // 收入 / 支出
	Amount   int64  // 单位：分
	Category string
	Wallet   string
	Text     string
	Date     time.Time
}

// parseExportRange 解析导出时间范围
func parseExportRange(c *gin.Context) (time.Time, time.Time, string, string, bool) {
	startTimeStr := c.Query("start_time")
	endTimeStr := c.Query("end_time")
	if startTimeStr == "" || endTimeStr == "" {
		BadRequest(c, "请提供开始时间和结束时间")
		return time.Time{}, time.Time{}, "", "", false
	}
	startTime, err := time.ParseInLocation("2006-01-02", startTimeStr, time.Local)
	if err != nil {
		BadRequest(c, "开始时间格式错误，应为: 2006-01-02")
		return time.Time{}, time.Time{}, "", "", false
	}
	endTime, err := time.ParseInLocation("2006-01-02", endTimeStr, time.Local)
	if err != nil {
		BadRequest(c, "结束时间格式错误，应为: 2006-01-02")
		return time.Time{}, time.Time{}, "", "", false
	}
	endTime = endTime.Add(24*time.Hour - time.Second)
	return startTime, endTime, startTimeStr, endTimeStr, true
}

// loadExportRows 查询时间范围内的收入与支出，按时间降序合并
func loadExportRows(userID uint, start, end time.Time) ([]exportRow, error) {
	var incomes []models.Income
	if err := database.DB.Preload("Wallet").
		Where("user_id = ? AND date >= ? AND date <= ?", userID, start, end).
		Find(&incomes).Error; err != nil {
		return nil, err
	}
	var expenses []models.Expense
	if err := database.DB.Preload("Wallet").
		Where("user_id = ? AND date >= ? AND date <= ?", userID, start, end).
		Find(&expenses).Error; err != nil {
		return nil, err
	}

	categoryName := func(id *uint) string {
		if id == nil {
			return ""
		}
		var cat models.Category
		if err := database.DB.First(&cat, *id).Error; err != nil {
			return ""
		}
		return cat.Name
	}
	walletName := func(w *models.Wallet) string {
		if w == nil {
			return ""
		}
		return w.Name
	}

	rows := make([]exportRow, 0, len(incomes)+len(expenses))
	for _, in := range incomes {
		rows = append(rows, exportRow{
			ID: in.ID, Kind: "收入", Amount: in.Amount,
			Category: categoryName(in.CategoryID), Wallet: walletName(in.Wallet),
			Text: in.Text, Date: in.Date,
		})
	}
	for _, ex := range expenses {
		rows = append(rows, exportRow{
			ID: ex.ID, Kind: "支出", Amount: ex.Amount,
			Category: categoryName(ex.CategoryID), Wallet: walletName(ex.Wallet),
			Text: ex.Text, Date: ex.Date,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date.After(rows[j].Date) })
	return rows, nil
}

// yuan 把分转换为带两位小数的元
func yuan(fen int64) string {
	return fmt.Sprintf("%.2f", float64(fen)/100)
}

// ExportCSV 导出收支记录为 CSV
// @Summary 导出收支记录
// @Description 根据时间范围导出收入与支出记录为 CSV 文件
// @Tags 导出
// @Produce text/csv
// @Security BearerAuth
// @Param start_time query string true "开始时间 (2024-01-01)"
// @Param end_time query string true "结束时间 (2024-12-31)"
// @Success 200 {file} file "CSV 文件"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/export/csv [get]
func (h *ExportHandler) ExportCSV(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	startTime, endTime, startTimeStr, endTimeStr, ok := parseExportRange(c)
	if !ok {
		return
	}
	rows, err := loadExportRows(userID, startTime, endTime)
	if err != nil {
		InternalError(c, "查询数据失败: "+SafeErrorMessage(err, "数据库错误"))
		return
	}

	buf := new(bytes.Buffer)
	// 添加 BOM 以支持 Excel 中文显示
	buf.WriteString("\xEF\xBB\xBF")

	writer := csv.NewWriter(buf)
	headers := []string{"ID", "类型", "金额（元）", "类别", "钱包", "备注", "时间"}
	if err := writer.Write(headers); err != nil {
		InternalError(c, "生成 CSV 失败")
		return
	}
	for _, row := range rows {
		record := []string{
			fmt.Sprintf("%d", row.ID),
			row.Kind,
			yuan(row.Amount),
			row.Category,
			row.Wallet,
			row.Text,
			row.Date.Format("2006-01-02 15:04:05"),
		}
		if err := writer.Write(record); err != nil {
			InternalError(c, "生成 CSV 失败")
			return
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		InternalError(c, "生成 CSV 失败")
		return
	}

	filename := fmt.Sprintf("records_%s_%s.csv", startTimeStr, endTimeStr)
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Header("Content-Length", fmt.Sprintf("%d", buf.Len()))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// ExportJSON 导出收支记录为 JSON
// @Summary 导出收支记录为 JSON
// @Description 根据时间范围导出收入与支出记录及汇总信息
// @Tags 导出
// @Produce json
// @Security BearerAuth
// @Param start_time query string true "开始时间 (2024-01-01)"
// @Param end_time query string true "结束时间 (2024-12-31)"
// @Success 200 {object} Response "导出成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/export/json [get]
func (h *ExportHandler) ExportJSON(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	startTime, endTime, startTimeStr, endTimeStr, ok := parseExportRange(c)
	if !ok {
		return
	}

	var incomes []models.Income
	if err := database.DB.Preload("Wallet").
		Where("user_id = ? AND date >= ? AND date <= ?", userID, startTime, endTime).
		Order("date DESC").Find(&incomes).Error; err != nil {
		InternalError(c, "查询数据失败: "+SafeErrorMessage(err, "数据库错误"))
		return
	}
	var expenses []models.Expense
	if err := database.DB.Preload("Wallet").
		Where("user_id = ? AND date >= ? AND date <= ?", userID, startTime, endTime).
		Order("date DESC").Find(&expenses).Error; err != nil {
		InternalError(c, "查询数据失败: "+SafeErrorMessage(err, "数据库错误"))
		return
	}

	var totalIncome, totalExpense int64
	for _, in := range incomes {
		totalIncome += in.Amount
	}
	for _, ex := range expenses {
		totalExpense += ex.Amount
	}

	Success(c, gin.H{
		"start_time":    startTimeStr,
		"end_time":      endTimeStr,
		"total_income":  totalIncome,
		"total_expense": totalExpense,
		"net":           totalIncome - totalExpense,
		"incomes":       incomes,
		"expenses":      expenses,
	})
}

// ExportExcel 导出收支记录为 Excel
// @Summary 导出收支记录为 Excel
// @Description 根据时间范围导出收入与支出记录为带样式的 xlsx 文件
// @Tags 导出
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param start_time query string true "开始时间 (2024-01-01)"
// @Param end_time query string true "结束时间 (2024-12-31)"
// @Success 200 {file} file "Excel 文件"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/export/excel [get]
func (h *ExportHandler) ExportExcel(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	startTime, endTime, startTimeStr, endTimeStr, ok := parseExportRange(c)
	if !ok {
		return
	}
	rows, err := loadExportRows(userID, startTime, endTime)
	if err != nil {
		InternalError(c, "查询数据失败: "+SafeErrorMessage(err, "数据库错误"))
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "收支记录"
	f.SetSheetName("Sheet1", sheetName)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4F81BD"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
	})
	dataStyle, _ := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
	})

	f.SetColWidth(sheetName, "A", "A", 10)
	f.SetColWidth(sheetName, "B", "B", 10)
	f.SetColWidth(sheetName, "C", "C", 15)
	f.SetColWidth(sheetName, "D", "D", 12)
	f.SetColWidth(sheetName, "E", "E", 12)
	f.SetColWidth(sheetName, "F", "F", 30)
	f.SetColWidth(sheetName, "G", "G", 20)

	headers := []string{"ID", "类型", "金额（元）", "类别", "钱包", "备注", "时间"}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	var totalIncome, totalExpense int64
	for i, row := range rows {
		r := i + 2
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", r), row.ID)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", r), row.Kind)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", r), yuan(row.Amount))
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", r), row.Category)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", r), row.Wallet)
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", r), row.Text)
		f.SetCellValue(sheetName, fmt.Sprintf("G%d", r), row.Date.Format("2006-01-02 15:04:05"))
		f.SetCellStyle(sheetName, fmt.Sprintf("A%d", r), fmt.Sprintf("G%d", r), dataStyle)
		if row.Kind == "收入" {
			totalIncome += row.Amount
		} else {
			totalExpense += row.Amount
		}
	}

	summaryRow := len(rows) + 2
	summaryStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"FFC000"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
	})
	f.SetCellValue(sheetName, fmt.Sprintf("A%d", summaryRow), "合计")
	f.MergeCell(sheetName, fmt.Sprintf("A%d", summaryRow), fmt.Sprintf("B%d", summaryRow))
	f.SetCellValue(sheetName, fmt.Sprintf("C%d", summaryRow),
		fmt.Sprintf("收入 %s / 支出 %s", yuan(totalIncome), yuan(totalExpense)))
	f.MergeCell(sheetName, fmt.Sprintf("C%d", summaryRow), fmt.Sprintf("G%d", summaryRow))
	f.SetCellStyle(sheetName, fmt.Sprintf("A%d", summaryRow), fmt.Sprintf("G%d", summaryRow), summaryStyle)

	buf, err := f.WriteToBuffer()
	if err != nil {
		InternalError(c, "生成 Excel 失败")
		return
	}

	filename := fmt.Sprintf("records_%s_%s.xlsx", startTimeStr, endTimeStr)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Header("Content-Length", fmt.Sprintf("%d", buf.Len()))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}
