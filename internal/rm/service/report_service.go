package service

import (
	"bytes"
	"context"
	"fmt"

	"github.com/bitfantasy/rmqc/internal/rm/report"
)

// ReportService 检验报告导出
type ReportService struct {
	inspection *InspectionService
}

func NewReportService(inspection *InspectionService) *ReportService {
	return &ReportService{inspection: inspection}
}

// Export 生成报验单的 Excel 报告，返回内容和文件名
func (s *ReportService) Export(ctx context.Context, callID string) (*bytes.Buffer, string, error) {
	call, err := s.inspection.GetCall(ctx, callID)
	if err != nil {
		return nil, "", err
	}
	ev, err := s.inspection.evaluate(call)
	if err != nil {
		return nil, "", err
	}
	f, filename, err := report.Build(call, ev.LotEvaluation)
	if err != nil {
		return nil, "", fmt.Errorf("生成报告失败: %w", err)
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("写入报告失败: %w", err)
	}
	return buf, filename, nil
}
