package engine

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// AttributeID 可测量属性标识（区分大小写）
type AttributeID string

// 化学成分
const (
	AttrCarbon     AttributeID = "%C"
	AttrSilicon    AttributeID = "%Si"
	AttrManganese  AttributeID = "%Mn"
	AttrPhosphorus AttributeID = "%P"
	AttrSulphur    AttributeID = "%S"
)

// 机械/金相
const (
	AttrGrainSize  AttributeID = "grain_size"
	AttrHardness   AttributeID = "hardness"
	AttrDecarb     AttributeID = "decarb_depth"
	AttrInclusionA AttributeID = "inclusion_a"
	AttrInclusionB AttributeID = "inclusion_b"
	AttrInclusionC AttributeID = "inclusion_c"
	AttrInclusionD AttributeID = "inclusion_d"
	AttrDiameter   AttributeID = "bar_diameter"
)

// ChemicalElements 炉前/成品化学分析的五个元素
var ChemicalElements = []AttributeID{AttrCarbon, AttrSilicon, AttrManganese, AttrPhosphorus, AttrSulphur}

// attributeLabels 用于错误信息
var attributeLabels = map[AttributeID]string{
	AttrCarbon:     "%C",
	AttrSilicon:    "%Si",
	AttrManganese:  "%Mn",
	AttrPhosphorus: "%P",
	AttrSulphur:    "%S",
	AttrGrainSize:  "Grain size",
	AttrHardness:   "Hardness",
	AttrDecarb:     "Depth of decarb",
	AttrInclusionA: "Inclusion rating A",
	AttrInclusionB: "Inclusion rating B",
	AttrInclusionC: "Inclusion rating C",
	AttrInclusionD: "Inclusion rating D",
	AttrDiameter:   "Bar diameter",
}

// Label 返回属性的显示名
func (a AttributeID) Label() string {
	if l, ok := attributeLabels[a]; ok {
		return l
	}
	return string(a)
}

// Known 是否属于固定词表
func (a AttributeID) Known() bool {
	_, ok := attributeLabels[a]
	return ok
}

// ResolveAttribute 按名称找回固定词表中的属性，忽略大小写；
// 配置文件的 key 会被统一转为小写，需要用它还原
func ResolveAttribute(name string) (AttributeID, bool) {
	if a := AttributeID(name); a.Known() {
		return a, true
	}
	for a := range attributeLabels {
		if strings.EqualFold(string(a), name) {
			return a, true
		}
	}
	return "", false
}

// SpecLimit 单个属性的规格限值，Min/Max 为 nil 表示该侧开放
type SpecLimit struct {
	Attribute AttributeID `json:"attribute" yaml:"attribute"`
	Min       *float64    `json:"min" yaml:"min"`
	Max       *float64    `json:"max" yaml:"max"`
}

// Bounds 返回闭区间，缺失一侧用 ±Inf 代替
func (l SpecLimit) Bounds() (lo, hi float64) {
	lo, hi = math.Inf(-1), math.Inf(1)
	if l.Min != nil {
		lo = *l.Min
	}
	if l.Max != nil {
		hi = *l.Max
	}
	return lo, hi
}

// Contains 闭区间判断
func (l SpecLimit) Contains(v float64) bool {
	lo, hi := l.Bounds()
	return v >= lo && v <= hi
}

// Limits 规格限值表，加载后只读
type Limits struct {
	byAttr map[AttributeID]SpecLimit
}

// Bound 构造限值时使用的便捷函数
func Bound(v float64) *float64 {
	return &v
}

// NewLimits 构造限值表：每个属性只能出现一次，且 min/max 不能同时缺失
func NewLimits(limits ...SpecLimit) (*Limits, error) {
	t := &Limits{byAttr: make(map[AttributeID]SpecLimit, len(limits))}
	for _, l := range limits {
		if l.Attribute == "" {
			return nil, fmt.Errorf("spec limit without attribute")
		}
		if _, dup := t.byAttr[l.Attribute]; dup {
			return nil, fmt.Errorf("duplicate spec limit for %s", l.Attribute)
		}
		if l.Min == nil && l.Max == nil {
			return nil, fmt.Errorf("spec limit for %s has neither min nor max", l.Attribute)
		}
		if l.Min != nil && l.Max != nil && *l.Min > *l.Max {
			return nil, fmt.Errorf("spec limit for %s: min %v > max %v", l.Attribute, *l.Min, *l.Max)
		}
		t.byAttr[l.Attribute] = l
	}
	return t, nil
}

// DefaultSpecLimits 工程规格默认值
func DefaultSpecLimits() []SpecLimit {
	return []SpecLimit{
		{Attribute: AttrCarbon, Min: Bound(0.50), Max: Bound(0.60)},
		{Attribute: AttrSilicon, Min: Bound(1.50), Max: Bound(2.00)},
		{Attribute: AttrManganese, Min: Bound(0.80), Max: Bound(1.00)},
		{Attribute: AttrPhosphorus, Min: Bound(0), Max: Bound(0.030)},
		{Attribute: AttrSulphur, Min: Bound(0), Max: Bound(0.030)},
		{Attribute: AttrGrainSize, Min: Bound(6)},
		{Attribute: AttrInclusionA, Min: Bound(0), Max: Bound(2.0)},
		{Attribute: AttrInclusionB, Min: Bound(0), Max: Bound(2.0)},
		{Attribute: AttrInclusionC, Min: Bound(0), Max: Bound(2.0)},
		{Attribute: AttrInclusionD, Min: Bound(0), Max: Bound(2.0)},
		{Attribute: AttrDecarb, Min: Bound(0), Max: Bound(0.25)},
		{Attribute: AttrHardness, Min: Bound(45), Max: Bound(55)},
	}
}

// DefaultLimits 默认限值表
func DefaultLimits() *Limits {
	t, err := NewLimits(DefaultSpecLimits()...)
	if err != nil {
		panic(err)
	}
	return t
}

// Override 以 overrides 覆盖默认值后生成新表；drop 中的属性被移除（不再校验范围）
func Override(base []SpecLimit, overrides []SpecLimit, drop ...AttributeID) (*Limits, error) {
	merged := make(map[AttributeID]SpecLimit, len(base))
	order := make([]AttributeID, 0, len(base)+len(overrides))
	for _, l := range base {
		if _, ok := merged[l.Attribute]; !ok {
			order = append(order, l.Attribute)
		}
		merged[l.Attribute] = l
	}
	seen := make(map[AttributeID]bool, len(overrides))
	for _, l := range overrides {
		if seen[l.Attribute] {
			return nil, fmt.Errorf("duplicate spec limit override for %s", l.Attribute)
		}
		seen[l.Attribute] = true
		if _, ok := merged[l.Attribute]; !ok {
			order = append(order, l.Attribute)
		}
		merged[l.Attribute] = l
	}
	for _, a := range drop {
		delete(merged, a)
	}
	out := make([]SpecLimit, 0, len(merged))
	for _, a := range order {
		if l, ok := merged[a]; ok {
			out = append(out, l)
		}
	}
	return NewLimits(out...)
}

// Lookup 查找属性的限值
func (t *Limits) Lookup(a AttributeID) (SpecLimit, bool) {
	l, ok := t.byAttr[a]
	return l, ok
}

// All 按属性名排序返回全部限值
func (t *Limits) All() []SpecLimit {
	out := make([]SpecLimit, 0, len(t.byAttr))
	for _, l := range t.byAttr {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Attribute < out[j].Attribute })
	return out
}
