// Package engine 原材料检验判定：单值校验、分项汇总、炉/批判定。
// 所有函数均为纯函数，不做任何 I/O，每次输入变化都应重新调用。
package engine

// Engine 判定引擎，持有注入的限值表和公差带
type Engine struct {
	validator   *Validator
	bands       *BandTable
	ladleDeltas map[AttributeID]float64
	ladleGates  bool
}

// Option 引擎选项
type Option func(*Engine)

// WithLimits 注入规格限值表
func WithLimits(l *Limits) Option {
	return func(e *Engine) { e.validator = NewValidator(l) }
}

// WithBands 注入公差带查表
func WithBands(b *BandTable) Option {
	return func(e *Engine) { e.bands = b }
}

// WithLadleDeltas 炉前对照允许偏差
func WithLadleDeltas(d map[AttributeID]float64) Option {
	return func(e *Engine) { e.ladleDeltas = d }
}

// WithLadleGate 炉前对照超差时判定化学/机械不合格
func WithLadleGate(enabled bool) Option {
	return func(e *Engine) { e.ladleGates = enabled }
}

// New 创建引擎
func New(opts ...Option) *Engine {
	e := &Engine{
		validator:   NewValidator(nil),
		bands:       DefaultBandTable(),
		ladleDeltas: DefaultLadleDeltas(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Validator 单值校验器
func (e *Engine) Validator() *Validator { return e.validator }

// Bands 公差带查表
func (e *Engine) Bands() *BandTable { return e.bands }

// LadleGates 炉前对照是否参与判定
func (e *Engine) LadleGates() bool { return e.ladleGates }

// HeatInput 单炉全部原始录入
type HeatInput struct {
	HeatNo      string               `json:"heat_no" yaml:"heat_no"`
	Defects     []DefectObservation  `json:"defects" yaml:"defects"`
	Dimensional []DimensionalSample  `json:"dimensional" yaml:"dimensional"`
	Material    []MaterialTestSample `json:"material" yaml:"material"`
	Ladle       *LadleAnalysis       `json:"ladle,omitempty" yaml:"ladle"`
}

// HeatEvaluation 单炉判定明细
type HeatEvaluation struct {
	HeatNo      string            `json:"heat_no"`
	Visual      DefectResult      `json:"visual"`
	Dimensional DimensionalResult `json:"dimensional"`
	Material    MaterialResult    `json:"material"`
	Ladle       *LadleCheck       `json:"ladle,omitempty"`
	Disposition HeatDisposition   `json:"disposition"`
}

// LotInput 一次检验报验的全部炉
type LotInput struct {
	ProductModel string      `json:"product_model" yaml:"product_model"`
	Heats        []HeatInput `json:"heats" yaml:"heats"`
}

// LotEvaluation 批次判定
type LotEvaluation struct {
	ProductModel string           `json:"product_model"`
	Band         ToleranceBand    `json:"band"`
	Heats        []HeatEvaluation `json:"heats"`
	LotStatus    Verdict          `json:"lot_status"`
	Accepted     int              `json:"accepted"`
	Rejected     int              `json:"rejected"`
	Pending      int              `json:"pending"`
}

// EvaluateHeat 判定单炉
func (e *Engine) EvaluateHeat(h HeatInput, band ToleranceBand) HeatEvaluation {
	ev := HeatEvaluation{
		HeatNo:      h.HeatNo,
		Visual:      TallyDefects(h.Defects),
		Dimensional: TallyDimensional(h.Dimensional, band),
		Material:    e.validator.TallySamples(h.Material),
		Ladle:       e.validator.CrossCheckLadle(h.Ladle, h.Material, e.ladleDeltas),
	}
	if e.ladleGates && ev.Ladle != nil && !ev.Ladle.Consistent {
		ev.Material.HeatValid = false
	}
	ev.Disposition = DispositionHeat(ev.Visual, ev.Dimensional, ev.Material)
	return ev
}

// EvaluateLot 判定整批；型号无公差带时返回 ErrUnknownModel
func (e *Engine) EvaluateLot(lot LotInput) (LotEvaluation, error) {
	band, err := e.bands.ForModel(lot.ProductModel)
	if err != nil {
		return LotEvaluation{}, err
	}
	out := LotEvaluation{
		ProductModel: lot.ProductModel,
		Band:         band,
		Heats:        make([]HeatEvaluation, 0, len(lot.Heats)),
	}
	statuses := make([]Verdict, 0, len(lot.Heats))
	for _, h := range lot.Heats {
		ev := e.EvaluateHeat(h, band)
		out.Heats = append(out.Heats, ev)
		statuses = append(statuses, ev.Disposition.HeatStatus)
		switch ev.Disposition.HeatStatus {
		case VerdictAccepted:
			out.Accepted++
		case VerdictRejected:
			out.Rejected++
		default:
			out.Pending++
		}
	}
	out.LotStatus = DispositionLot(statuses)
	return out, nil
}
