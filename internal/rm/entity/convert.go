package entity

import (
	"encoding/json"
	"sort"

	"github.com/bitfantasy/rmqc/internal/rm/engine"
	"gorm.io/datatypes"
)

// ToObservations 按录入顺序转为判定输入
func ToObservations(rows []DefectObservation) []engine.DefectObservation {
	sorted := append([]DefectObservation(nil), rows...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].SortOrder < sorted[j].SortOrder })
	out := make([]engine.DefectObservation, 0, len(sorted))
	for _, r := range sorted {
		out = append(out, engine.DefectObservation{DefectType: r.DefectType, Count: r.Count})
	}
	return out
}

// ToDimensional 按 sample_no 摆放，中间缺失的位置留空
func ToDimensional(rows []DimensionalSample) []engine.DimensionalSample {
	n := 0
	for _, r := range rows {
		if r.SampleNo > n {
			n = r.SampleNo
		}
	}
	out := make([]engine.DimensionalSample, n)
	for _, r := range rows {
		if r.SampleNo >= 1 {
			out[r.SampleNo-1] = engine.DimensionalSample{DiameterMm: r.Diameter}
		}
	}
	return out
}

// ToMaterial 按 sample_no 摆放试样
func ToMaterial(rows []MaterialSample) ([]engine.MaterialTestSample, error) {
	n := 0
	for _, r := range rows {
		if r.SampleNo > n {
			n = r.SampleNo
		}
	}
	out := make([]engine.MaterialTestSample, n)
	for _, r := range rows {
		if r.SampleNo < 1 {
			continue
		}
		s, err := r.ToSample()
		if err != nil {
			return nil, err
		}
		out[r.SampleNo-1] = s
	}
	return out, nil
}

// ToSample 解析 JSON 列
func (m MaterialSample) ToSample() (engine.MaterialTestSample, error) {
	s := engine.MaterialTestSample{
		Attributes:     map[engine.AttributeID]string{},
		InclusionTypes: map[string]string{},
		Remarks:        m.Remarks,
	}
	if len(m.Attributes) > 0 {
		if err := json.Unmarshal(m.Attributes, &s.Attributes); err != nil {
			return s, err
		}
	}
	if len(m.InclusionTypes) > 0 {
		if err := json.Unmarshal(m.InclusionTypes, &s.InclusionTypes); err != nil {
			return s, err
		}
	}
	return s, nil
}

// NewMaterialSample 由判定输入构造持久化行
func NewMaterialSample(id, heatID string, sampleNo int, s engine.MaterialTestSample) (MaterialSample, error) {
	attrs, err := json.Marshal(s.Attributes)
	if err != nil {
		return MaterialSample{}, err
	}
	inclusions := s.InclusionTypes
	if inclusions == nil {
		inclusions = map[string]string{}
	}
	types, err := json.Marshal(inclusions)
	if err != nil {
		return MaterialSample{}, err
	}
	return MaterialSample{
		ID:             id,
		HeatID:         heatID,
		SampleNo:       sampleNo,
		Attributes:     datatypes.JSON(attrs),
		InclusionTypes: datatypes.JSON(types),
		Remarks:        s.Remarks,
	}, nil
}

// ToLadle 转为判定输入；未录入时返回 nil
func (l *LadleAnalysis) ToLadle() *engine.LadleAnalysis {
	if l == nil {
		return nil
	}
	return &engine.LadleAnalysis{Values: map[engine.AttributeID]string{
		engine.AttrCarbon:     l.PercentC,
		engine.AttrSilicon:    l.PercentSi,
		engine.AttrManganese:  l.PercentMn,
		engine.AttrPhosphorus: l.PercentP,
		engine.AttrSulphur:    l.PercentS,
	}}
}

// SetValues 写入炉前化学成分
func (l *LadleAnalysis) SetValues(v map[engine.AttributeID]string) {
	l.PercentC = v[engine.AttrCarbon]
	l.PercentSi = v[engine.AttrSilicon]
	l.PercentMn = v[engine.AttrManganese]
	l.PercentP = v[engine.AttrPhosphorus]
	l.PercentS = v[engine.AttrSulphur]
}

// MergeValues 只覆盖 v 中出现的元素，其余保持原值
func (l *LadleAnalysis) MergeValues(v map[engine.AttributeID]string) {
	current := l.ToLadle().Values
	for attr, raw := range v {
		current[attr] = raw
	}
	l.SetValues(current)
}

// ToInput 组装单炉判定输入，需预先加载全部子记录
func (h *Heat) ToInput() (engine.HeatInput, error) {
	material, err := ToMaterial(h.MaterialSamples)
	if err != nil {
		return engine.HeatInput{}, err
	}
	return engine.HeatInput{
		HeatNo:      h.HeatNo,
		Defects:     ToObservations(h.Defects),
		Dimensional: ToDimensional(h.DimensionalSamples),
		Material:    material,
		Ladle:       h.Ladle.ToLadle(),
	}, nil
}

// ToLotInput 组装整批判定输入
func (c *InspectionCall) ToLotInput() (engine.LotInput, error) {
	lot := engine.LotInput{ProductModel: c.ProductModel, Heats: make([]engine.HeatInput, 0, len(c.Heats))}
	for i := range c.Heats {
		h, err := c.Heats[i].ToInput()
		if err != nil {
			return engine.LotInput{}, err
		}
		lot.Heats = append(lot.Heats, h)
	}
	return lot, nil
}
