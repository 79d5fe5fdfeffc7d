package service

import (
	"context"
	"fmt"
	"io"

	"github.com/bitfantasy/rmqc/internal/rm/engine"
	"github.com/bitfantasy/rmqc/internal/rm/entity"
	"github.com/bitfantasy/rmqc/internal/rm/mtc"
	"go.uber.org/zap"
)

// ImportLadleResult 质保书导入结果
type ImportLadleResult struct {
	Imported     []string          `json:"imported"`
	UnknownHeats []string          `json:"unknown_heats"`
	Invalid      map[string]string `json:"invalid,omitempty"`
	Failed       int               `json:"failed"`
}

// ImportLadle 从供应商质保书批量写入炉前成分，只覆盖报验单内已有的炉号
func (s *InspectionService) ImportLadle(ctx context.Context, op Operator, callID string, r io.Reader, encoding string) (*ImportLadleResult, error) {
	if _, err := s.openCall(ctx, callID); err != nil {
		return nil, err
	}
	parsed, err := mtc.Parse(r, encoding)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	call, err := s.GetCall(ctx, callID)
	if err != nil {
		return nil, err
	}

	heats := make(map[string]*entity.Heat, len(call.Heats))
	for i := range call.Heats {
		heats[call.Heats[i].HeatNo] = &call.Heats[i]
	}

	res := &ImportLadleResult{
		Imported:     []string{},
		UnknownHeats: []string{},
		Invalid:      map[string]string{},
		Failed:       parsed.Failed,
	}
	// 质保书缺少的元素列保留已录入的值
	pending := make(map[string]*entity.LadleAnalysis)
	var order []*entity.LadleAnalysis
	for _, row := range parsed.Rows {
		heat, ok := heats[row.HeatNo]
		if !ok {
			res.UnknownHeats = append(res.UnknownHeats, row.HeatNo)
			continue
		}
		if attr, bad := impreciseValue(row.Values); bad {
			res.Invalid[row.HeatNo] = fmt.Sprintf("%s: %s", attr, msgPrecision)
			s.metrics.RecordEntryError("ladle", "precision")
			continue
		}
		ladle, seen := pending[heat.ID]
		if !seen {
			ladle = &entity.LadleAnalysis{HeatID: heat.ID}
			if heat.Ladle != nil {
				ladle.SetValues(heat.Ladle.ToLadle().Values)
			}
			pending[heat.ID] = ladle
			order = append(order, ladle)
			res.Imported = append(res.Imported, row.HeatNo)
		}
		ladle.MergeValues(row.Values)
	}
	if len(order) > 0 {
		if err := s.heats.SaveLadles(ctx, order); err != nil {
			return nil, fmt.Errorf("save ladle: %w", err)
		}
	}

	if len(res.Imported) > 0 {
		if err := s.calls.MarkInProgress(ctx, callID); err != nil {
			return nil, err
		}
		s.logActivity(ctx, op, call, "import_ladle", "", "", fmt.Sprintf("导入质保书: %d 炉", len(res.Imported)), map[string]interface{}{
			"imported":      res.Imported,
			"unknown_heats": res.UnknownHeats,
		})
		if _, err := s.Evaluate(ctx, callID); err != nil {
			s.logger.Warn("re-evaluate after ladle import", zap.String("call_no", call.CallNo), zap.Error(err))
		}
	}
	return res, nil
}

func impreciseValue(values map[engine.AttributeID]string) (engine.AttributeID, bool) {
	for attr, v := range values {
		if engine.FractionDigits(v) > MaxFractionDigits {
			return attr, true
		}
	}
	return "", false
}
