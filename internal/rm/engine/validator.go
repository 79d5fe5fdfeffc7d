package engine

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Status 单值校验结果
type Status string

const (
	StatusPass          Status = "pass"
	StatusFail          Status = "fail"
	StatusIndeterminate Status = "indeterminate"
)

// 输入类错误信息
const (
	MsgRequired      = "Required"
	MsgInvalidNumber = "Invalid number"
)

// Result 单值校验结果；Indeterminate 永远不算作 Fail
type Result struct {
	Status  Status   `json:"status"`
	Message string   `json:"message,omitempty"`
	Value   *float64 `json:"value,omitempty"`
}

// Passed 是否通过
func (r Result) Passed() bool { return r.Status == StatusPass }

// Validator 单属性校验器
type Validator struct {
	limits *Limits
}

// NewValidator 创建校验器，limits 为 nil 时使用默认限值
func NewValidator(limits *Limits) *Validator {
	if limits == nil {
		limits = DefaultLimits()
	}
	return &Validator{limits: limits}
}

// Limits 当前使用的限值表
func (v *Validator) Limits() *Limits { return v.limits }

// Validate 校验单个原始值。
// 空值/非数字 -> Indeterminate；未知属性只要求可解析，不会判 Fail。
func (v *Validator) Validate(attr AttributeID, raw string) Result {
	n, msg, ok := ParseValue(raw)
	if !ok {
		return Result{Status: StatusIndeterminate, Message: msg}
	}
	limit, found := v.limits.Lookup(attr)
	if !found || limit.Contains(n) {
		return Result{Status: StatusPass, Value: &n}
	}
	return Result{Status: StatusFail, Message: RangeMessage(attr, limit), Value: &n}
}

// ValidatePtr nil 与空串等价
func (v *Validator) ValidatePtr(attr AttributeID, raw *string) Result {
	return v.Validate(attr, Deref(raw))
}

// Deref nil -> ""
func Deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// ParseValue 将操作员输入解析为有限浮点数
func ParseValue(raw string) (float64, string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" || strings.EqualFold(s, "null") || strings.EqualFold(s, "undefined") {
		return 0, MsgRequired, false
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, MsgInvalidNumber, false
	}
	return n, "", true
}

// FractionDigits 小数位数，非数字返回 -1
func FractionDigits(raw string) int {
	s := strings.TrimSpace(raw)
	if _, _, ok := ParseValue(s); !ok {
		return -1
	}
	if strings.ContainsAny(s, "eE") {
		// 科学计数法按数值判断
		n, _ := strconv.ParseFloat(s, 64)
		s = strconv.FormatFloat(n, 'f', -1, 64)
	}
	i := strings.IndexByte(s, '.')
	if i < 0 {
		return 0
	}
	return len(s) - i - 1
}

// RangeMessage 带具体违反边界的提示
func RangeMessage(attr AttributeID, l SpecLimit) string {
	label := attr.Label()
	switch {
	case l.Min != nil && l.Max != nil:
		return fmt.Sprintf("%s must be between %s and %s", label, formatBound(*l.Min), formatBound(*l.Max))
	case l.Max != nil:
		return fmt.Sprintf("%s must be ≤ %s", label, formatBound(*l.Max))
	default:
		return fmt.Sprintf("%s must be ≥ %s", label, formatBound(*l.Min))
	}
}

func formatBound(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
