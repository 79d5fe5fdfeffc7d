package engine

import (
	"math"
	"strings"
)

// NoDefect 与其他缺陷类型互斥
const NoDefect = "No Defect"

// MaxDefectiveTolerated 每炉最多容许一件缺陷品
const MaxDefectiveTolerated = 1

// DefectCatalogue 目视检查清单（顺序与报告一致）
var DefectCatalogue = []string{
	NoDefect,
	"Distortion",
	"Twist",
	"Kink",
	"Not Straight",
	"Fold",
	"Lap",
	"Crack",
	"Pit",
	"Groove",
	"Excessive Scaling",
	"Internal Defect (Piping, Segregation)",
}

// 缺陷数量错误信息
const (
	MsgMustBeInteger     = "Must be an integer"
	MsgMustBeNonNegative = "Must be ≥ 0"
	MsgNoObservation     = "No visual observation recorded"
)

// DefectObservation 一项已勾选的缺陷及其件数（原始输入）
type DefectObservation struct {
	DefectType string `json:"defect_type" yaml:"defect_type"`
	Count      string `json:"count" yaml:"count"`
}

// DefectResult 缺陷汇总
type DefectResult struct {
	Sum         int               `json:"sum"`
	Rejected    bool              `json:"rejected"`
	NoDefect    bool              `json:"no_defect"`
	Complete    bool              `json:"complete"`
	FieldErrors map[string]string `json:"field_errors,omitempty"`
	Reason      string            `json:"reason,omitempty"`
}

// Verdict 子项结论
func (r DefectResult) Verdict() Verdict {
	switch {
	case !r.Complete:
		return VerdictPending
	case r.Rejected:
		return VerdictRejected
	default:
		return VerdictAccepted
	}
}

// TallyDefects 汇总一炉的目视缺陷。
// 勾选 No Defect 时忽略其它条目；存在缺数量的条目时不给出拒收结论。
func TallyDefects(observations []DefectObservation) DefectResult {
	for _, o := range observations {
		if isNoDefect(o.DefectType) {
			return DefectResult{NoDefect: true, Complete: true}
		}
	}
	if len(observations) == 0 {
		return DefectResult{Reason: MsgNoObservation}
	}

	res := DefectResult{Complete: true}
	for _, o := range observations {
		n, msg := parseCount(o.Count)
		if msg != "" {
			if res.FieldErrors == nil {
				res.FieldErrors = make(map[string]string)
			}
			res.FieldErrors[o.DefectType] = msg
			res.Complete = false
			continue
		}
		res.Sum += n
	}
	res.Rejected = res.Complete && res.Sum > MaxDefectiveTolerated
	return res
}

// ToggleDefect 录入层的勾选逻辑：选 No Defect 清空其它，选其它清除 No Defect
func ToggleDefect(current []DefectObservation, defectType string) []DefectObservation {
	if isNoDefect(defectType) {
		for _, o := range current {
			if isNoDefect(o.DefectType) {
				return []DefectObservation{}
			}
		}
		return []DefectObservation{{DefectType: NoDefect}}
	}

	out := make([]DefectObservation, 0, len(current)+1)
	found := false
	for _, o := range current {
		if isNoDefect(o.DefectType) {
			continue
		}
		if o.DefectType == defectType {
			found = true
			continue
		}
		out = append(out, o)
	}
	if !found {
		out = append(out, DefectObservation{DefectType: defectType})
	}
	return out
}

// NormalizeDefects 整表保存时的互斥处理：No Defect 优先，重复类型只保留最后一条
func NormalizeDefects(observations []DefectObservation) []DefectObservation {
	for _, o := range observations {
		if isNoDefect(o.DefectType) {
			return []DefectObservation{{DefectType: NoDefect}}
		}
	}
	index := make(map[string]int, len(observations))
	out := make([]DefectObservation, 0, len(observations))
	for _, o := range observations {
		o.DefectType = strings.TrimSpace(o.DefectType)
		if o.DefectType == "" {
			continue
		}
		if i, ok := index[o.DefectType]; ok {
			out[i] = o
			continue
		}
		index[o.DefectType] = len(out)
		out = append(out, o)
	}
	return out
}

func isNoDefect(t string) bool {
	return strings.TrimSpace(t) == NoDefect
}

func parseCount(raw string) (int, string) {
	n, msg, ok := ParseValue(raw)
	if !ok {
		if msg == MsgInvalidNumber {
			return 0, MsgMustBeInteger
		}
		return 0, msg
	}
	if n != math.Trunc(n) || n > math.MaxInt32 || n < math.MinInt32 {
		return 0, MsgMustBeInteger
	}
	if n < 0 {
		return 0, MsgMustBeNonNegative
	}
	return int(n), ""
}
