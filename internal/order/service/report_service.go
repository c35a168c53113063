package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bitfantasy/gemflow/internal/order/repository"
	"github.com/bitfantasy/gemflow/internal/order/weight"
	"github.com/xuri/excelize/v2"
)

// 报表过滤模式
const (
	ReportModeDistributor = "DISTRIBUTOR"
	ReportModeOrder       = "ORDER"
	ReportModeDate        = "DATE"
	ReportModeAdvanced    = "ADVANCED"
)

// ReportRequest 重量报表请求
type ReportRequest struct {
	Mode          string `form:"mode" binding:"required"`
	DistributorID string `form:"distributor_id"`
	OrderNumber   string `form:"order_number"`
	From          string `form:"from"` // 格式 2006-01-02
	To            string `form:"to"`
	CategoryID    string `form:"category_id"`
	MetalType     string `form:"metal_type"`
	MetalColor    string `form:"metal_color"`
	Stage         string `form:"stage"`
}

// ReportRow 报表的订单行
type ReportRow struct {
	OrderID      string                   `json:"order_id"`
	OrderNumber  string                   `json:"order_number"`
	CompanyName  string                   `json:"company_name"`
	Status       string                   `json:"status"`
	CreatedAt    time.Time                `json:"created_at"`
	Pieces       int                      `json:"pieces"`
	Gross        float64                  `json:"gross"`
	Pure         float64                  `json:"pure"`
	Materials    map[string]weight.Bucket `json:"materials"`
	UnknownMetal bool                     `json:"unknown_metal"` // 含未注册金属，重量按兜底系数计算
}

// Report 重量报表：订单行 + 按材质的总计
type Report struct {
	Mode        string                   `json:"mode"`
	Rows        []ReportRow              `json:"rows"`
	GrandTotals map[string]weight.Bucket `json:"grand_totals"`
	TotalGross  float64                  `json:"total_gross"`
	TotalPure   float64                  `json:"total_pure"`
	GeneratedAt time.Time                `json:"generated_at"`
}

// ReportService 重量报表服务
type ReportService struct {
	repo *repository.OrderRepository
	snap *snapshotLoader
}

func NewReportService(repo *repository.OrderRepository, snap *snapshotLoader) *ReportService {
	return &ReportService{repo: repo, snap: snap}
}

// filterFrom 按模式组装行项过滤条件，模式外的条件一律忽略
func filterFrom(req *ReportRequest) (weight.Filter, error) {
	var f weight.Filter

	parseDate := func(s string) (*time.Time, error) {
		if s == "" {
			return nil, nil
		}
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return nil, fmt.Errorf("invalid date %q: %w", s, err)
		}
		return &t, nil
	}

	switch req.Mode {
	case ReportModeDistributor:
		f.DistributorID = req.DistributorID
	case ReportModeOrder:
		f.OrderNumber = req.OrderNumber
	case ReportModeDate:
		var err error
		if f.From, err = parseDate(req.From); err != nil {
			return f, err
		}
		if f.To, err = parseDate(req.To); err != nil {
			return f, err
		}
		if f.To != nil {
			end := f.To.AddDate(0, 0, 1).Add(-time.Second)
			f.To = &end
		}
	case ReportModeAdvanced:
		var err error
		if f.From, err = parseDate(req.From); err != nil {
			return f, err
		}
		if f.To, err = parseDate(req.To); err != nil {
			return f, err
		}
		if f.To != nil {
			end := f.To.AddDate(0, 0, 1).Add(-time.Second)
			f.To = &end
		}
		f.DistributorID = req.DistributorID
		f.OrderNumber = req.OrderNumber
		f.CategoryID = req.CategoryID
		f.MetalType = req.MetalType
		f.MetalColor = req.MetalColor
		f.Stage = req.Stage
	default:
		return f, fmt.Errorf("unknown report mode %q", req.Mode)
	}
	return f, nil
}

// Build 构建重量报表
// 所有重量按当前注册表实时重算，同一输入下订单行与总计必然一致
func (s *ReportService) Build(ctx context.Context, req *ReportRequest) (*Report, error) {
	filter, err := filterFrom(req)
	if err != nil {
		return nil, err
	}

	orders, err := s.repo.FindAllForAnalytics(ctx, filter.From, filter.To)
	if err != nil {
		return nil, err
	}
	reg, err := s.snap.Registry(ctx)
	if err != nil {
		return nil, err
	}
	idx, err := s.snap.Stages(ctx)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Mode:        req.Mode,
		Rows:        make([]ReportRow, 0, len(orders)),
		GeneratedAt: time.Now(),
	}

	var allLines []weight.Line
	for i := range orders {
		o := &orders[i]
		lines := filter.Apply(LinesFromOrder(o))
		if len(lines) == 0 {
			continue
		}
		allLines = append(allLines, lines...)

		stages := make([]string, 0, len(o.Items))
		for _, it := range o.Items {
			stages = append(stages, it.Stage)
		}

		row := ReportRow{
			OrderID:     o.ID,
			OrderNumber: o.OrderNumber,
			Status:      idx.DeriveOrderStatus(stages),
			CreatedAt:   o.CreatedAt,
			Materials:   roundBuckets(weight.Aggregate(lines, weight.GroupByMaterial, reg)),
		}
		if o.Distributor != nil {
			row.CompanyName = o.Distributor.CompanyName
		}
		for _, l := range lines {
			w := weight.Compute(l, reg)
			row.Pieces += l.Quantity
			row.Gross += w.Gross
			row.Pure += w.Pure
			if !w.MetalKnown {
				row.UnknownMetal = true
			}
		}
		row.Gross = weight.Round2(row.Gross)
		row.Pure = weight.Round2(row.Pure)
		report.Rows = append(report.Rows, row)
	}

	// 总计用同一聚合折叠重算，而不是累加各行的舍入值
	report.GrandTotals = weight.Aggregate(allLines, weight.GroupByMaterial, reg)
	var gross, pure float64
	for _, b := range report.GrandTotals {
		gross += b.Gross
		pure += b.Pure
	}
	report.GrandTotals = roundBuckets(report.GrandTotals)
	report.TotalGross = weight.Round2(gross)
	report.TotalPure = weight.Round2(pure)
	return report, nil
}

// Export 导出报表为Excel
func (s *ReportService) Export(ctx context.Context, req *ReportRequest) (*excelize.File, error) {
	report, err := s.Build(ctx, req)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	sheet := "Weight Report"
	f.SetSheetName("Sheet1", sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
	})
	headers := []string{"Order No", "Distributor", "Status", "Created", "Pieces", "Gross (g)", "Pure (g)", "Materials"}
	for i, h := range headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	row := 2
	for _, r := range report.Rows {
		materials := ""
		for _, name := range weight.SortedKeys(r.Materials) {
			b := r.Materials[name]
			if materials != "" {
				materials += "; "
			}
			materials += fmt.Sprintf("%s %.2fg", name, b.Gross)
		}
		orderNo := r.OrderNumber
		if r.UnknownMetal {
			orderNo += " *"
		}
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), orderNo)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), r.CompanyName)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), r.Status)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), r.CreatedAt.Format("2006-01-02"))
		f.SetCellValue(sheet, fmt.Sprintf("E%d", row), r.Pieces)
		f.SetCellValue(sheet, fmt.Sprintf("F%d", row), r.Gross)
		f.SetCellValue(sheet, fmt.Sprintf("G%d", row), r.Pure)
		f.SetCellValue(sheet, fmt.Sprintf("H%d", row), materials)
		row++
	}

	row++
	f.SetCellValue(sheet, fmt.Sprintf("A%d", row), "Totals by material")
	f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("A%d", row), headerStyle)
	row++
	for _, name := range weight.SortedKeys(report.GrandTotals) {
		b := report.GrandTotals[name]
		label := name
		if name == weight.UnknownMaterial {
			label = "Unknown metal *"
		}
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), label)
		f.SetCellValue(sheet, fmt.Sprintf("E%d", row), b.Count)
		f.SetCellValue(sheet, fmt.Sprintf("F%d", row), b.Gross)
		f.SetCellValue(sheet, fmt.Sprintf("G%d", row), b.Pure)
		row++
	}
	f.SetCellValue(sheet, fmt.Sprintf("A%d", row), "Grand total")
	f.SetCellValue(sheet, fmt.Sprintf("F%d", row), report.TotalGross)
	f.SetCellValue(sheet, fmt.Sprintf("G%d", row), report.TotalPure)

	widths := []float64{18, 24, 14, 12, 8, 12, 12, 40}
	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, w)
	}
	return f, nil
}
