package engine

import "fmt"

// MaterialSamplesPerHeat 每炉化学/机械试样数
const MaterialSamplesPerHeat = 2

// InclusionType 夹杂物形态（描述性，不参与范围校验）
const (
	InclusionThick = "Thick"
	InclusionThin  = "Thin"
)

// InclusionClasses 夹杂物评级类别
var InclusionClasses = []string{"A", "B", "C", "D"}

// RequiredMaterialAttributes 每个试样必须录入的属性（备注和夹杂物形态除外）
var RequiredMaterialAttributes = []AttributeID{
	AttrCarbon, AttrSilicon, AttrManganese, AttrPhosphorus, AttrSulphur,
	AttrGrainSize,
	AttrInclusionA, AttrInclusionB, AttrInclusionC, AttrInclusionD,
	AttrHardness,
	AttrDecarb,
}

// MaterialTestSample 单个试样的原始录入
type MaterialTestSample struct {
	Attributes     map[AttributeID]string `json:"attributes" yaml:"attributes"`
	InclusionTypes map[string]string      `json:"inclusion_types,omitempty" yaml:"inclusion_types"`
	Remarks        string                 `json:"remarks,omitempty" yaml:"remarks"`
}

// SampleResult 单试样结果；Failed 表示至少一项超出限值
type SampleResult struct {
	Errors        map[AttributeID]string `json:"errors"`
	IsSampleValid bool                   `json:"is_sample_valid"`
	Failed        bool                   `json:"failed"`
	Complete      bool                   `json:"complete"`
}

// MaterialResult 化学/机械汇总；任一试样任一属性超限即整炉不合格。
// HeatValid 只由超限项决定，未录入项只影响 Complete。
type MaterialResult struct {
	PerSample []SampleResult `json:"per_sample"`
	HeatValid bool           `json:"heat_valid"`
	Complete  bool           `json:"complete"`
	Reason    string         `json:"reason,omitempty"`
}

// Verdict 子项结论
func (r MaterialResult) Verdict() Verdict {
	switch {
	case !r.HeatValid:
		return VerdictRejected
	case !r.Complete:
		return VerdictPending
	default:
		return VerdictAccepted
	}
}

// ValidateSample 按规格限值逐项校验一个试样
func (v *Validator) ValidateSample(s MaterialTestSample) SampleResult {
	res := SampleResult{Errors: make(map[AttributeID]string), Complete: true}
	for _, attr := range RequiredMaterialAttributes {
		r := v.Validate(attr, s.Attributes[attr])
		switch r.Status {
		case StatusIndeterminate:
			res.Complete = false
			res.Errors[attr] = r.Message
		case StatusFail:
			res.Failed = true
			res.Errors[attr] = r.Message
		}
	}
	res.IsSampleValid = len(res.Errors) == 0
	return res
}

// TallySamples 汇总一炉的两个试样
func (v *Validator) TallySamples(samples []MaterialTestSample) MaterialResult {
	n := len(samples)
	if n < MaterialSamplesPerHeat {
		n = MaterialSamplesPerHeat
	}
	res := MaterialResult{PerSample: make([]SampleResult, n), HeatValid: true, Complete: true}
	for i := 0; i < n; i++ {
		var s MaterialTestSample
		if i < len(samples) {
			s = samples[i]
		}
		sr := v.ValidateSample(s)
		res.PerSample[i] = sr
		res.HeatValid = res.HeatValid && !sr.Failed
		res.Complete = res.Complete && sr.Complete
	}
	switch {
	case len(samples) > MaterialSamplesPerHeat:
		res.Complete = false
		res.Reason = fmt.Sprintf("expected %d samples, got %d", MaterialSamplesPerHeat, len(samples))
	case len(samples) < MaterialSamplesPerHeat:
		res.Reason = fmt.Sprintf("%d of %d samples recorded", len(samples), MaterialSamplesPerHeat)
	}
	return res
}
