package report

import (
	"fmt"
	"strings"

	"github.com/bitfantasy/rmqc/internal/rm/engine"
	"github.com/bitfantasy/rmqc/internal/rm/entity"
	"github.com/xuri/excelize/v2"
)

const (
	SheetSummary  = "Summary"
	SheetMaterial = "Material"
)

var heatHeaders = []string{
	"Heat No", "Weight (MT)", "Colour Code", "Visual", "Defects",
	"Dimensional", "Out of tolerance", "Material", "Failed attributes", "Heat Status",
}

// Totals 批次汇总
type Totals struct {
	HeatCount   int     `json:"heat_count"`
	TotalWeight float64 `json:"total_weight_mt"`
}

// LotTotals 统计炉数和总重量（未录入重量的炉不计入）
func LotTotals(call *entity.InspectionCall) Totals {
	t := Totals{HeatCount: len(call.Heats)}
	for _, h := range call.Heats {
		if h.WeightMT != nil {
			t.TotalWeight += *h.WeightMT
		}
	}
	return t
}

// Build 生成检验报告，heats 与 ev.Heats 按相同顺序排列
func Build(call *entity.InspectionCall, ev engine.LotEvaluation) (*excelize.File, string, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return nil, "", err
	}

	boldStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	totals := LotTotals(call)
	info := [][2]interface{}{
		{"Call No", call.CallNo},
		{"PO No", call.PONo},
		{"Vendor", call.VendorName},
		{"Product Model", call.ProductModel},
		{"Diameter Band (mm)", fmt.Sprintf("%v (%v-%v)", ev.Band.Standard, ev.Band.Min, ev.Band.Max)},
		{"Heats", totals.HeatCount},
		{"Total Weight (MT)", totals.TotalWeight},
		{"Lot Status", strings.ToUpper(string(ev.LotStatus))},
		{"Remarks", call.Remarks},
	}
	for i, kv := range info {
		row := i + 1
		f.SetCellValue(SheetSummary, fmt.Sprintf("A%d", row), kv[0])
		f.SetCellValue(SheetSummary, fmt.Sprintf("B%d", row), kv[1])
		f.SetCellStyle(SheetSummary, fmt.Sprintf("A%d", row), fmt.Sprintf("A%d", row), boldStyle)
	}

	headerRow := len(info) + 2
	for i, h := range heatHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := fmt.Sprintf("%s%d", col, headerRow)
		f.SetCellValue(SheetSummary, cell, h)
		f.SetCellStyle(SheetSummary, cell, cell, boldStyle)
	}

	for i, he := range ev.Heats {
		row := headerRow + 1 + i
		var weight interface{}
		var colour string
		if i < len(call.Heats) {
			if call.Heats[i].WeightMT != nil {
				weight = *call.Heats[i].WeightMT
			}
			colour = call.Heats[i].ColorCode
		}
		values := []interface{}{
			he.HeatNo,
			weight,
			colour,
			string(he.Disposition.VisualStatus),
			he.Visual.Sum,
			string(he.Disposition.DimensionalStatus),
			he.Dimensional.OutOfRangeCount,
			string(he.Disposition.MaterialStatus),
			strings.Join(failedAttributes(he.Material), ", "),
			strings.ToUpper(string(he.Disposition.HeatStatus)),
		}
		for j, v := range values {
			col, _ := excelize.ColumnNumberToName(j + 1)
			f.SetCellValue(SheetSummary, fmt.Sprintf("%s%d", col, row), v)
		}
	}

	colWidths := []float64{20, 12, 12, 12, 8, 12, 16, 12, 30, 12}
	for i, w := range colWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(SheetSummary, col, col, w)
	}

	if err := writeMaterialSheet(f, ev, boldStyle); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("RM_Inspection_%s.xlsx", call.CallNo)
	return f, filename, nil
}

func writeMaterialSheet(f *excelize.File, ev engine.LotEvaluation, headerStyle int) error {
	if _, err := f.NewSheet(SheetMaterial); err != nil {
		return err
	}
	headers := []string{"Heat No", "Sample"}
	for _, a := range engine.RequiredMaterialAttributes {
		headers = append(headers, a.Label())
	}
	for i, h := range headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(SheetMaterial, cell, h)
		f.SetCellStyle(SheetMaterial, cell, cell, headerStyle)
	}
	row := 2
	for _, he := range ev.Heats {
		for si, s := range he.Material.PerSample {
			f.SetCellValue(SheetMaterial, fmt.Sprintf("A%d", row), he.HeatNo)
			f.SetCellValue(SheetMaterial, fmt.Sprintf("B%d", row), si+1)
			for ai, a := range engine.RequiredMaterialAttributes {
				col, _ := excelize.ColumnNumberToName(ai + 3)
				v := "OK"
				if msg, bad := s.Errors[a]; bad {
					v = msg
				}
				f.SetCellValue(SheetMaterial, fmt.Sprintf("%s%d", col, row), v)
			}
			row++
		}
	}
	return nil
}

// failedAttributes 至少一个试样不合格或未录入的属性
func failedAttributes(m engine.MaterialResult) []string {
	var out []string
	for _, a := range engine.RequiredMaterialAttributes {
		for _, s := range m.PerSample {
			if _, bad := s.Errors[a]; bad {
				out = append(out, a.Label())
				break
			}
		}
	}
	return out
}
