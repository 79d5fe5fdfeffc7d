package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bitfantasy/rmqc/internal/metrics"
	"github.com/bitfantasy/rmqc/internal/rm/draft"
	"github.com/bitfantasy/rmqc/internal/rm/engine"
	"github.com/bitfantasy/rmqc/internal/rm/entity"
	"github.com/bitfantasy/rmqc/internal/rm/report"
	"github.com/bitfantasy/rmqc/internal/rm/repository"
	"github.com/bitfantasy/rmqc/internal/rm/sse"
	"go.uber.org/zap"
)

// MaxFractionDigits 录入值最多三位小数
const MaxFractionDigits = 3

const msgPrecision = "At most 3 decimal places"

// 操作日志实体类型
const activityEntityCall = "call"

// Operator 操作人
type Operator struct {
	ID   string
	Name string
}

// InspectionService 原材料检验服务
type InspectionService struct {
	calls       *repository.CallRepository
	heats       *repository.HeatRepository
	activityLog *repository.ActivityLogRepository
	engine      *engine.Engine
	hub         *sse.Hub
	metrics     *metrics.InspectionMetrics
	drafts      draft.Store
	archiver    report.Archiver
	logger      *zap.Logger
}

func NewInspectionService(repos *repository.Repositories, eng *engine.Engine, hub *sse.Hub, logger *zap.Logger) *InspectionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InspectionService{
		calls:       repos.Call,
		heats:       repos.Heat,
		activityLog: repos.ActivityLog,
		engine:      eng,
		hub:         hub,
		logger:      logger,
	}
}

// SetMetrics 注入指标
func (s *InspectionService) SetMetrics(m *metrics.InspectionMetrics) {
	s.metrics = m
}

// SetDraftStore 注入草稿存储，完成报验时清理草稿
func (s *InspectionService) SetDraftStore(store draft.Store) {
	s.drafts = store
}

// SetArchiver 注入报告归档
func (s *InspectionService) SetArchiver(a report.Archiver) {
	s.archiver = a
}

// Engine 判定引擎
func (s *InspectionService) Engine() *engine.Engine {
	return s.engine
}

// ========== 报验单 ==========

// CreateCallRequest 创建报验请求
type CreateCallRequest struct {
	CallNo       string `json:"call_no"`
	PONo         string `json:"po_no"`
	VendorName   string `json:"vendor_name"`
	ProductModel string `json:"product_model" binding:"required"`
}

// CreateCall 创建报验单；未提供报验号时自动生成
func (s *InspectionService) CreateCall(ctx context.Context, op Operator, req *CreateCallRequest) (*entity.InspectionCall, error) {
	if _, err := s.engine.Bands().ForModel(req.ProductModel); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	callNo := strings.TrimSpace(req.CallNo)
	if callNo == "" {
		code, err := s.calls.GenerateCode(ctx)
		if err != nil {
			return nil, fmt.Errorf("generate code: %w", err)
		}
		callNo = code
	} else if _, err := s.calls.FindByCallNo(ctx, callNo); err == nil {
		return nil, ErrDuplicateCall
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	call := &entity.InspectionCall{
		CallNo:       callNo,
		PONo:         strings.TrimSpace(req.PONo),
		VendorName:   strings.TrimSpace(req.VendorName),
		ProductModel: strings.TrimSpace(req.ProductModel),
		Status:       entity.CallStatusPending,
		CreatedBy:    op.ID,
	}
	if err := s.calls.Create(ctx, call); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateCall
		}
		return nil, fmt.Errorf("create call: %w", err)
	}

	s.logActivity(ctx, op, call, "create", "", entity.CallStatusPending, "创建报验单: "+call.CallNo, nil)
	if s.hub != nil {
		s.hub.PublishCallUpdate(call.ID, "create")
	}
	return call, nil
}

// ListCalls 报验列表
func (s *InspectionService) ListCalls(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.InspectionCall, int64, error) {
	return s.calls.FindAll(ctx, page, pageSize, filters)
}

// GetCall 报验详情，包含全部炉号及录入记录
func (s *InspectionService) GetCall(ctx context.Context, id string) (*entity.InspectionCall, error) {
	call, err := s.calls.FindWithHeats(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCallNotFound
		}
		return nil, err
	}
	return call, nil
}

// openCall 加载可编辑的报验单
func (s *InspectionService) openCall(ctx context.Context, callID string) (*entity.InspectionCall, error) {
	call, err := s.calls.FindByID(ctx, callID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCallNotFound
		}
		return nil, err
	}
	if call.Status == entity.CallStatusCompleted {
		return nil, ErrCallCompleted
	}
	return call, nil
}

// heatOf 加载属于该报验单的炉号
func (s *InspectionService) heatOf(ctx context.Context, callID, heatID string) (*entity.Heat, error) {
	heat, err := s.heats.FindByID(ctx, heatID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrHeatNotFound
		}
		return nil, err
	}
	if heat.CallID != callID {
		return nil, ErrHeatNotFound
	}
	return heat, nil
}

// ========== 炉号 ==========

// AddHeatRequest 添加炉号请求
type AddHeatRequest struct {
	HeatNo    string   `json:"heat_no" binding:"required"`
	WeightMT  *float64 `json:"weight_mt"`
	ColorCode string   `json:"color_code"`
}

// AddHeat 添加炉号，同一报验单内炉号唯一
func (s *InspectionService) AddHeat(ctx context.Context, op Operator, callID string, req *AddHeatRequest) (*entity.Heat, error) {
	call, err := s.openCall(ctx, callID)
	if err != nil {
		return nil, err
	}

	entryErr := newEntryError("heat")
	heatNo := strings.TrimSpace(req.HeatNo)
	if heatNo == "" {
		entryErr.add("heat_no", engine.MsgRequired)
	}
	if req.WeightMT != nil {
		w := strconv.FormatFloat(*req.WeightMT, 'f', -1, 64)
		if *req.WeightMT <= 0 {
			entryErr.add("weight_mt", "Must be > 0")
		} else if engine.FractionDigits(w) > MaxFractionDigits {
			entryErr.add("weight_mt", msgPrecision)
		}
	}
	if err := entryErr.orNil(); err != nil {
		s.metrics.RecordEntryError("heat", "invalid")
		return nil, err
	}

	exists, err := s.heats.ExistsInCall(ctx, callID, heatNo)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateHeat
	}

	heat := &entity.Heat{
		CallID:    callID,
		HeatNo:    heatNo,
		WeightMT:  req.WeightMT,
		ColorCode: strings.TrimSpace(req.ColorCode),
	}
	if err := s.heats.Create(ctx, heat); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateHeat
		}
		return nil, fmt.Errorf("create heat: %w", err)
	}
	if err := s.calls.MarkInProgress(ctx, callID); err != nil {
		return nil, err
	}

	s.logActivity(ctx, op, call, "add_heat", "", "", "添加炉号: "+heatNo, map[string]interface{}{"heat_id": heat.ID, "heat_no": heatNo})
	s.refresh(ctx, callID)
	return heat, nil
}

// RemoveHeat 删除炉号及其全部录入记录
func (s *InspectionService) RemoveHeat(ctx context.Context, op Operator, callID, heatID string) error {
	call, err := s.openCall(ctx, callID)
	if err != nil {
		return err
	}
	heat, err := s.heatOf(ctx, callID, heatID)
	if err != nil {
		return err
	}
	if err := s.heats.Delete(ctx, heat.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrHeatNotFound
		}
		return fmt.Errorf("delete heat: %w", err)
	}

	s.logger.Info("heat removed",
		zap.String("call_no", call.CallNo),
		zap.String("heat_no", heat.HeatNo),
		zap.String("operator", op.ID),
	)
	s.logActivity(ctx, op, call, "remove_heat", "", "", "删除炉号: "+heat.HeatNo, map[string]interface{}{"heat_id": heat.ID, "heat_no": heat.HeatNo})
	s.refresh(ctx, callID)
	return nil
}

// ========== 录入 ==========

// SaveVisualRequest 外观检查整表保存
type SaveVisualRequest struct {
	Observations []engine.DefectObservation `json:"observations"`
}

// SaveVisual 保存外观缺陷；No Defect 与其它缺陷互斥
func (s *InspectionService) SaveVisual(ctx context.Context, op Operator, callID, heatID string, req *SaveVisualRequest) (*engine.HeatEvaluation, error) {
	call, heat, err := s.beginEntry(ctx, callID, heatID)
	if err != nil {
		return nil, err
	}
	observations := engine.NormalizeDefects(req.Observations)
	if err := s.heats.ReplaceDefects(ctx, heat.ID, defectRows(observations)); err != nil {
		return nil, fmt.Errorf("save visual: %w", err)
	}
	return s.finishEntry(ctx, op, call, heat, "save_visual")
}

// ToggleDefect 勾选/取消单个缺陷类型
func (s *InspectionService) ToggleDefect(ctx context.Context, op Operator, callID, heatID, defectType string) (*engine.HeatEvaluation, error) {
	defectType = strings.TrimSpace(defectType)
	if defectType == "" {
		return nil, fmt.Errorf("%w: defect_type is required", ErrInvalidInput)
	}
	call, heat, err := s.beginEntry(ctx, callID, heatID)
	if err != nil {
		return nil, err
	}
	next := engine.ToggleDefect(entity.ToObservations(heat.Defects), defectType)
	if err := s.heats.ReplaceDefects(ctx, heat.ID, defectRows(next)); err != nil {
		return nil, fmt.Errorf("toggle defect: %w", err)
	}
	return s.finishEntry(ctx, op, call, heat, "save_visual")
}

func defectRows(observations []engine.DefectObservation) []entity.DefectObservation {
	rows := make([]entity.DefectObservation, 0, len(observations))
	for i, o := range observations {
		count := strings.TrimSpace(o.Count)
		if o.DefectType == engine.NoDefect {
			count = ""
		}
		rows = append(rows, entity.DefectObservation{DefectType: o.DefectType, Count: count, SortOrder: i})
	}
	return rows
}

// SaveDimensionalRequest 直径样本，按顺序对应 1..20 号样本
type SaveDimensionalRequest struct {
	Diameters []string `json:"diameters"`
}

// SaveDimensional 保存直径样本
func (s *InspectionService) SaveDimensional(ctx context.Context, op Operator, callID, heatID string, req *SaveDimensionalRequest) (*engine.HeatEvaluation, error) {
	entryErr := newEntryError("dimensional")
	if len(req.Diameters) > engine.DimensionalSamplesPerHeat {
		entryErr.add("diameters", fmt.Sprintf("At most %d samples", engine.DimensionalSamplesPerHeat))
		s.metrics.RecordEntryError("dimensional", "too_many_samples")
	}
	for i, d := range req.Diameters {
		if engine.FractionDigits(d) > MaxFractionDigits {
			entryErr.add(fmt.Sprintf("diameters[%d]", i+1), msgPrecision)
			s.metrics.RecordEntryError("dimensional", "precision")
		}
	}
	if err := entryErr.orNil(); err != nil {
		return nil, err
	}

	call, heat, err := s.beginEntry(ctx, callID, heatID)
	if err != nil {
		return nil, err
	}
	rows := make([]entity.DimensionalSample, 0, len(req.Diameters))
	for i, d := range req.Diameters {
		rows = append(rows, entity.DimensionalSample{SampleNo: i + 1, Diameter: strings.TrimSpace(d)})
	}
	if err := s.heats.ReplaceDimensional(ctx, heat.ID, rows); err != nil {
		return nil, fmt.Errorf("save dimensional: %w", err)
	}
	return s.finishEntry(ctx, op, call, heat, "save_dimensional")
}

// SaveMaterialRequest 化学/机械试样，按顺序对应 1..2 号试样
type SaveMaterialRequest struct {
	Samples []engine.MaterialTestSample `json:"samples"`
}

// SaveMaterial 保存化学/机械试样
func (s *InspectionService) SaveMaterial(ctx context.Context, op Operator, callID, heatID string, req *SaveMaterialRequest) (*engine.HeatEvaluation, error) {
	entryErr := newEntryError("material")
	if len(req.Samples) > engine.MaterialSamplesPerHeat {
		entryErr.add("samples", fmt.Sprintf("At most %d samples", engine.MaterialSamplesPerHeat))
		s.metrics.RecordEntryError("material", "too_many_samples")
	}
	for i, sample := range req.Samples {
		for attr, raw := range sample.Attributes {
			if engine.FractionDigits(raw) > MaxFractionDigits {
				entryErr.add(fmt.Sprintf("samples[%d].%s", i+1, attr), msgPrecision)
				s.metrics.RecordEntryError("material", "precision")
			}
		}
		for class, kind := range sample.InclusionTypes {
			if !validInclusionClass(class) {
				entryErr.add(fmt.Sprintf("samples[%d].inclusion_types.%s", i+1, class), "Unknown inclusion class")
				s.metrics.RecordEntryError("material", "inclusion_type")
				continue
			}
			if kind != "" && kind != engine.InclusionThick && kind != engine.InclusionThin {
				entryErr.add(fmt.Sprintf("samples[%d].inclusion_types.%s", i+1, class), "Must be Thick or Thin")
				s.metrics.RecordEntryError("material", "inclusion_type")
			}
		}
	}
	if err := entryErr.orNil(); err != nil {
		return nil, err
	}

	call, heat, err := s.beginEntry(ctx, callID, heatID)
	if err != nil {
		return nil, err
	}
	rows := make([]entity.MaterialSample, 0, len(req.Samples))
	for i, sample := range req.Samples {
		row, err := entity.NewMaterialSample("", heat.ID, i+1, trimSample(sample))
		if err != nil {
			return nil, fmt.Errorf("encode sample: %w", err)
		}
		rows = append(rows, row)
	}
	if err := s.heats.ReplaceMaterial(ctx, heat.ID, rows); err != nil {
		return nil, fmt.Errorf("save material: %w", err)
	}
	return s.finishEntry(ctx, op, call, heat, "save_material")
}

func validInclusionClass(class string) bool {
	for _, c := range engine.InclusionClasses {
		if c == class {
			return true
		}
	}
	return false
}

func trimSample(in engine.MaterialTestSample) engine.MaterialTestSample {
	out := engine.MaterialTestSample{
		Attributes:     make(map[engine.AttributeID]string, len(in.Attributes)),
		InclusionTypes: make(map[string]string, len(in.InclusionTypes)),
		Remarks:        strings.TrimSpace(in.Remarks),
	}
	for k, v := range in.Attributes {
		out.Attributes[k] = strings.TrimSpace(v)
	}
	for k, v := range in.InclusionTypes {
		if v != "" {
			out.InclusionTypes[k] = v
		}
	}
	return out
}

// SaveLadleRequest 炉前化学成分
type SaveLadleRequest struct {
	Values map[engine.AttributeID]string `json:"values"`
}

// SaveLadle 保存炉前化学成分，只接受五个化学元素
func (s *InspectionService) SaveLadle(ctx context.Context, op Operator, callID, heatID string, req *SaveLadleRequest) (*engine.HeatEvaluation, error) {
	entryErr := newEntryError("ladle")
	values := make(map[engine.AttributeID]string, len(req.Values))
	for attr, raw := range req.Values {
		if !isChemicalElement(attr) {
			entryErr.add(string(attr), "Unknown element")
			continue
		}
		if engine.FractionDigits(raw) > MaxFractionDigits {
			entryErr.add(string(attr), msgPrecision)
			s.metrics.RecordEntryError("ladle", "precision")
			continue
		}
		values[attr] = strings.TrimSpace(raw)
	}
	if err := entryErr.orNil(); err != nil {
		return nil, err
	}

	call, heat, err := s.beginEntry(ctx, callID, heatID)
	if err != nil {
		return nil, err
	}
	ladle := &entity.LadleAnalysis{HeatID: heat.ID}
	ladle.SetValues(values)
	if err := s.heats.SaveLadle(ctx, ladle); err != nil {
		return nil, fmt.Errorf("save ladle: %w", err)
	}
	return s.finishEntry(ctx, op, call, heat, "save_ladle")
}

func isChemicalElement(a engine.AttributeID) bool {
	for _, e := range engine.ChemicalElements {
		if e == a {
			return true
		}
	}
	return false
}

func (s *InspectionService) beginEntry(ctx context.Context, callID, heatID string) (*entity.InspectionCall, *entity.Heat, error) {
	call, err := s.openCall(ctx, callID)
	if err != nil {
		return nil, nil, err
	}
	heat, err := s.heatOf(ctx, callID, heatID)
	if err != nil {
		return nil, nil, err
	}
	return call, heat, nil
}

// finishEntry 录入后推进状态、记日志并重新判定
func (s *InspectionService) finishEntry(ctx context.Context, op Operator, call *entity.InspectionCall, heat *entity.Heat, action string) (*engine.HeatEvaluation, error) {
	if err := s.calls.MarkInProgress(ctx, call.ID); err != nil {
		return nil, err
	}
	from := ""
	to := ""
	if call.Status == entity.CallStatusPending {
		from, to = entity.CallStatusPending, entity.CallStatusInProgress
	}
	s.logActivity(ctx, op, call, action, from, to, "", map[string]interface{}{"heat_id": heat.ID, "heat_no": heat.HeatNo})

	ev, err := s.Evaluate(ctx, call.ID)
	if err != nil {
		return nil, err
	}
	for i := range ev.Heats {
		if ev.Heats[i].HeatNo == heat.HeatNo {
			return &ev.Heats[i], nil
		}
	}
	return nil, ErrHeatNotFound
}

// ========== 判定 ==========

// CallEvaluation 报验单的实时判定
type CallEvaluation struct {
	CallID string        `json:"call_id"`
	CallNo string        `json:"call_no"`
	Status string        `json:"status"`
	Result string        `json:"result,omitempty"`
	Totals report.Totals `json:"totals"`
	engine.LotEvaluation
}

// Evaluate 从已保存数据重新计算整批判定，不做缓存
func (s *InspectionService) Evaluate(ctx context.Context, callID string) (*CallEvaluation, error) {
	call, err := s.GetCall(ctx, callID)
	if err != nil {
		return nil, err
	}
	ev, err := s.evaluate(call)
	if err != nil {
		return nil, err
	}
	s.publish(ev, "evaluate")
	return ev, nil
}

func (s *InspectionService) evaluate(call *entity.InspectionCall) (*CallEvaluation, error) {
	start := time.Now()
	lot, err := call.ToLotInput()
	if err != nil {
		return nil, fmt.Errorf("decode inspection data: %w", err)
	}
	lotEv, err := s.engine.EvaluateLot(lot)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	s.metrics.RecordEvaluation(lotEv, time.Since(start))
	return &CallEvaluation{
		CallID:        call.ID,
		CallNo:        call.CallNo,
		Status:        call.Status,
		Result:        call.Result,
		Totals:        report.LotTotals(call),
		LotEvaluation: lotEv,
	}, nil
}

func (s *InspectionService) publish(ev *CallEvaluation, action string) {
	if s.hub == nil {
		return
	}
	s.hub.PublishVerdictUpdate(sse.VerdictUpdate{
		CallID:    ev.CallID,
		CallNo:    ev.CallNo,
		LotStatus: string(ev.LotStatus),
		Accepted:  ev.Accepted,
		Rejected:  ev.Rejected,
		Pending:   ev.Pending,
		Action:    action,
	})
}

// refresh 炉号增删后推送新的判定，失败只记日志
func (s *InspectionService) refresh(ctx context.Context, callID string) {
	if s.hub == nil {
		return
	}
	s.hub.PublishCallUpdate(callID, "heats_changed")
	if _, err := s.Evaluate(ctx, callID); err != nil {
		s.logger.Warn("re-evaluate after heat change", zap.String("call_id", callID), zap.Error(err))
	}
}

// FinalizeRequest 完成报验请求
type FinalizeRequest struct {
	Remarks string `json:"remarks"`
}

// FinalizeResult 完成报验结果
type FinalizeResult struct {
	Call       *entity.InspectionCall `json:"call"`
	Evaluation *CallEvaluation        `json:"evaluation"`
}

// FinalizeCall 完成报验：待定不允许提交，拒收必须填写备注
func (s *InspectionService) FinalizeCall(ctx context.Context, op Operator, callID string, req *FinalizeRequest) (*FinalizeResult, error) {
	call, err := s.GetCall(ctx, callID)
	if err != nil {
		return nil, err
	}
	if call.Status == entity.CallStatusCompleted {
		return nil, ErrCallCompleted
	}

	ev, err := s.evaluate(call)
	if err != nil {
		return nil, err
	}
	remarks := strings.TrimSpace(req.Remarks)
	switch ev.LotStatus {
	case engine.VerdictPending:
		return nil, ErrVerdictPending
	case engine.VerdictRejected:
		if remarks == "" {
			return nil, ErrRemarkRequired
		}
	}

	fromStatus := call.Status
	now := time.Now()
	call.Status = entity.CallStatusCompleted
	call.Result = string(ev.LotStatus)
	call.Remarks = remarks
	call.InspectorID = &op.ID
	call.InspectedAt = &now
	if err := s.calls.Complete(ctx, call); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrCallCompleted
		}
		return nil, fmt.Errorf("finalize call: %w", err)
	}
	ev.Status = call.Status
	ev.Result = call.Result

	s.logger.Info("inspection call finalized",
		zap.String("call_no", call.CallNo),
		zap.String("result", call.Result),
		zap.Int("heats", len(call.Heats)),
		zap.String("operator", op.ID),
	)
	content := "检验接收: " + call.CallNo
	if call.Result == entity.CallResultRejected {
		content = "检验拒收: " + call.CallNo
	}
	s.logActivity(ctx, op, call, "finalize", fromStatus, entity.CallStatusCompleted, content, map[string]interface{}{
		"lot_status": ev.LotStatus,
		"accepted":   ev.Accepted,
		"rejected":   ev.Rejected,
	})
	s.metrics.RecordFinalized(call.Result)

	s.archive(ctx, call, ev)
	if s.drafts != nil {
		if err := s.drafts.DeleteAll(ctx, call.CallNo); err != nil {
			s.logger.Warn("delete drafts", zap.String("call_no", call.CallNo), zap.Error(err))
		}
	}
	s.publish(ev, "finalize")

	return &FinalizeResult{Call: call, Evaluation: ev}, nil
}

// archive 归档失败不影响完成状态
func (s *InspectionService) archive(ctx context.Context, call *entity.InspectionCall, ev *CallEvaluation) {
	if s.archiver == nil {
		return
	}
	f, filename, err := report.Build(call, ev.LotEvaluation)
	if err != nil {
		s.logger.Warn("build report", zap.String("call_no", call.CallNo), zap.Error(err))
		return
	}
	defer f.Close()
	buf, err := f.WriteToBuffer()
	if err != nil {
		s.logger.Warn("write report", zap.String("call_no", call.CallNo), zap.Error(err))
		return
	}
	url, err := s.archiver.Archive(ctx, call.CallNo, filename, buf.Bytes())
	if err != nil {
		s.logger.Warn("archive report", zap.String("call_no", call.CallNo), zap.Error(err))
		return
	}
	call.ReportURL = url
	if err := s.calls.Update(ctx, call); err != nil {
		s.logger.Warn("save report url", zap.String("call_no", call.CallNo), zap.Error(err))
	}
}

// ========== 查询 ==========

// ListActivities 报验单操作日志
func (s *InspectionService) ListActivities(ctx context.Context, callID string, page, pageSize int) ([]entity.ActivityLog, int64, error) {
	return s.activityLog.FindByEntity(ctx, activityEntityCall, callID, page, pageSize)
}

// ValidateValue 单个属性的即时校验
func (s *InspectionService) ValidateValue(attr engine.AttributeID, raw string) engine.Result {
	return s.engine.Validator().Validate(attr, raw)
}

// SpecLimits 当前生效的规格限值
func (s *InspectionService) SpecLimits() []engine.SpecLimit {
	return s.engine.Validator().Limits().All()
}

// ToleranceBands 当前生效的公差带
func (s *InspectionService) ToleranceBands() []engine.ToleranceBand {
	return s.engine.Bands().Bands()
}

func (s *InspectionService) logActivity(ctx context.Context, op Operator, call *entity.InspectionCall, action, from, to, content string, meta map[string]interface{}) {
	if s.activityLog == nil {
		return
	}
	err := s.activityLog.LogActivity(ctx, repository.Entry{
		EntityType:   activityEntityCall,
		EntityID:     call.ID,
		EntityCode:   call.CallNo,
		Action:       action,
		FromStatus:   from,
		ToStatus:     to,
		Content:      content,
		Metadata:     meta,
		OperatorID:   op.ID,
		OperatorName: op.Name,
	})
	if err != nil {
		s.logger.Warn("write activity log", zap.String("call_no", call.CallNo), zap.String("action", action), zap.Error(err))
	}
}
