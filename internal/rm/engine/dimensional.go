package engine

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// DimensionalSamplesPerHeat 每炉直径抽样数
const DimensionalSamplesPerHeat = 20

// MaxOutOfTolerance 每炉最多容许一个超差样本
const MaxOutOfTolerance = 1

// ErrUnknownModel 产品型号无对应公差带
var ErrUnknownModel = errors.New("no tolerance band for product model")

// ToleranceBand 直径公差带（闭区间）
type ToleranceBand struct {
	Class    string  `json:"class" yaml:"class"`
	Standard float64 `json:"standard" yaml:"standard"`
	Min      float64 `json:"min" yaml:"min"`
	Max      float64 `json:"max" yaml:"max"`
}

// Contains 闭区间判断
func (b ToleranceBand) Contains(v float64) bool {
	return v >= b.Min && v <= b.Max
}

// OutOfRangeMessage 超差提示
func (b ToleranceBand) OutOfRangeMessage() string {
	return fmt.Sprintf("Out of range (%s-%s)", formatBound(b.Min), formatBound(b.Max))
}

type bandEntry struct {
	band    ToleranceBand
	pattern *regexp.Regexp
}

// BandTable 型号 -> 公差带查表
type BandTable struct {
	entries []bandEntry
}

// 已知型号的识别规则；III 必须先于 V 判断
var modelPatterns = map[string]*regexp.Regexp{
	"MK-III": regexp.MustCompile(`(?i)\bMK[-\s]?(III|3)\b`),
	"MK-V":   regexp.MustCompile(`(?i)\bMK[-\s]?(V|5)\b`),
}

// DefaultBands 系统内已知的两个公差带
func DefaultBands() []ToleranceBand {
	return []ToleranceBand{
		{Class: "MK-III", Standard: 20.64, Min: 20.47, Max: 20.84},
		{Class: "MK-V", Standard: 23.0, Min: 22.81, Max: 23.23},
	}
}

// NewBandTable 构造查表；未知 class 只按名称精确匹配（忽略大小写）
func NewBandTable(bands ...ToleranceBand) (*BandTable, error) {
	t := &BandTable{}
	seen := make(map[string]bool, len(bands))
	for _, b := range bands {
		key := strings.ToUpper(strings.TrimSpace(b.Class))
		if key == "" {
			return nil, fmt.Errorf("tolerance band without class")
		}
		if seen[key] {
			return nil, fmt.Errorf("duplicate tolerance band %s", b.Class)
		}
		seen[key] = true
		if b.Min > b.Max {
			return nil, fmt.Errorf("tolerance band %s: min %v > max %v", b.Class, b.Min, b.Max)
		}
		p, ok := modelPatterns[key]
		if !ok {
			p = regexp.MustCompile(`(?i)^\s*` + regexp.QuoteMeta(strings.TrimSpace(b.Class)) + `\s*$`)
		}
		t.entries = append(t.entries, bandEntry{band: b, pattern: p})
	}
	// 保证 MK-III 先于 MK-V 匹配
	sort.SliceStable(t.entries, func(i, j int) bool {
		return strings.EqualFold(t.entries[i].band.Class, "MK-III") && !strings.EqualFold(t.entries[j].band.Class, "MK-III")
	})
	return t, nil
}

// DefaultBandTable 默认查表
func DefaultBandTable() *BandTable {
	t, err := NewBandTable(DefaultBands()...)
	if err != nil {
		panic(err)
	}
	return t
}

// ForModel 按外部提供的产品型号字符串查公差带，不做其它推断
func (t *BandTable) ForModel(model string) (ToleranceBand, error) {
	for _, e := range t.entries {
		if strings.EqualFold(strings.TrimSpace(model), e.band.Class) {
			return e.band, nil
		}
	}
	for _, e := range t.entries {
		if e.pattern.MatchString(model) {
			return e.band, nil
		}
	}
	return ToleranceBand{}, fmt.Errorf("%w: %q", ErrUnknownModel, model)
}

// Bands 全部公差带
func (t *BandTable) Bands() []ToleranceBand {
	out := make([]ToleranceBand, 0, len(t.entries))
	for _, e := range t.entries {
		out = append(out, e.band)
	}
	return out
}

// DimensionalSample 单个直径样本（原始输入，毫米）
type DimensionalSample struct {
	DiameterMm string `json:"diameter_mm" yaml:"diameter_mm"`
}

// SampleCheck 单样本校验
type SampleCheck struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

// DimensionalResult 尺寸汇总；InvalidCount 含未录入样本，Rejected 只看超差样本
type DimensionalResult struct {
	InvalidCount    int           `json:"invalid_count"`
	OutOfRangeCount int           `json:"out_of_range_count"`
	Rejected     bool          `json:"rejected"`
	PerSample    []SampleCheck `json:"per_sample"`
	Complete     bool          `json:"complete"`
	Band         ToleranceBand `json:"band"`
	Reason       string        `json:"reason,omitempty"`
}

// Verdict 子项结论；超差已成定局时即拒收，否则有未录入样本时为 Pending
func (r DimensionalResult) Verdict() Verdict {
	switch {
	case r.Rejected:
		return VerdictRejected
	case !r.Complete:
		return VerdictPending
	default:
		return VerdictAccepted
	}
}

// TallyDimensional 逐个校验直径样本，不足 20 个的位置按未录入处理
func TallyDimensional(samples []DimensionalSample, band ToleranceBand) DimensionalResult {
	n := len(samples)
	if n < DimensionalSamplesPerHeat {
		n = DimensionalSamplesPerHeat
	}
	res := DimensionalResult{
		PerSample: make([]SampleCheck, n),
		Complete:  true,
		Band:      band,
	}
	for i := 0; i < n; i++ {
		raw := ""
		if i < len(samples) {
			raw = samples[i].DiameterMm
		}
		v, msg, ok := ParseValue(raw)
		switch {
		case !ok:
			res.PerSample[i] = SampleCheck{Message: msg}
			res.InvalidCount++
			res.Complete = false
		case !band.Contains(v):
			res.PerSample[i] = SampleCheck{Message: band.OutOfRangeMessage()}
			res.InvalidCount++
			res.OutOfRangeCount++
		default:
			res.PerSample[i] = SampleCheck{Valid: true}
		}
	}
	if len(samples) > DimensionalSamplesPerHeat {
		res.Complete = false
		res.Reason = fmt.Sprintf("expected %d samples, got %d", DimensionalSamplesPerHeat, len(samples))
	} else if len(samples) < DimensionalSamplesPerHeat {
		res.Reason = fmt.Sprintf("%d of %d samples recorded", len(samples), DimensionalSamplesPerHeat)
	}
	res.Rejected = res.OutOfRangeCount > MaxOutOfTolerance
	return res
}
