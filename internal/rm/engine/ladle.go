package engine

import "math"

// LadleAnalysis 供应商申报的炉前化学成分，仅作对照
type LadleAnalysis struct {
	Values map[AttributeID]string `json:"values" yaml:"values"`
}

// DefaultLadleDeltas 成品分析相对炉前值的允许偏差
func DefaultLadleDeltas() map[AttributeID]float64 {
	return map[AttributeID]float64{
		AttrCarbon:    0.03,
		AttrSilicon:   0.04,
		AttrManganese: 0.05,
	}
}

// LadleDeviation 单个试样单个元素的对照
type LadleDeviation struct {
	Sample    int         `json:"sample"`
	Attribute AttributeID `json:"attribute"`
	Ladle     float64     `json:"ladle"`
	Product   float64     `json:"product"`
	Delta     float64     `json:"delta"`
	Allowed   float64     `json:"allowed"`
	Within    bool        `json:"within"`
}

// LadleCheck 炉前/成品对照结果
type LadleCheck struct {
	LadleResults map[AttributeID]Result `json:"ladle_results"`
	Deviations   []LadleDeviation       `json:"deviations"`
	Consistent   bool                   `json:"consistent"`
}

// CrossCheckLadle 对照炉前值与成品值；两侧任一为空的元素跳过
func (v *Validator) CrossCheckLadle(ladle *LadleAnalysis, samples []MaterialTestSample, deltas map[AttributeID]float64) *LadleCheck {
	if ladle == nil {
		return nil
	}
	out := &LadleCheck{LadleResults: make(map[AttributeID]Result, len(ChemicalElements)), Consistent: true}
	for _, attr := range ChemicalElements {
		out.LadleResults[attr] = v.Validate(attr, ladle.Values[attr])
	}
	for _, attr := range ChemicalElements {
		allowed, ok := deltas[attr]
		if !ok {
			continue
		}
		lv, _, ok := ParseValue(ladle.Values[attr])
		if !ok {
			continue
		}
		for i, s := range samples {
			pv, _, ok := ParseValue(s.Attributes[attr])
			if !ok {
				continue
			}
			d := math.Abs(pv - lv)
			// 避免 0.55-0.52 之类的浮点误差误判
			within := d <= allowed+1e-9
			out.Deviations = append(out.Deviations, LadleDeviation{
				Sample:    i + 1,
				Attribute: attr,
				Ladle:     lv,
				Product:   pv,
				Delta:     d,
				Allowed:   allowed,
				Within:    within,
			})
			out.Consistent = out.Consistent && within
		}
	}
	return out
}
