// Package draft 录入草稿：检验员未提交的半成品表单，按报验号和分区保存。
package draft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Section 表单分区
type Section string

const (
	SectionVisual      Section = "visual"
	SectionDimensional Section = "dimensional"
	SectionMaterial    Section = "material"
	SectionSummary     Section = "summary"
)

// Sections 全部分区
var Sections = []Section{SectionVisual, SectionDimensional, SectionMaterial, SectionSummary}

var (
	ErrNotFound       = errors.New("draft not found")
	ErrInvalidSection = errors.New("invalid draft section")
)

// ParseSection 校验分区名
func ParseSection(s string) (Section, error) {
	for _, sec := range Sections {
		if string(sec) == s {
			return sec, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidSection, s)
}

// Draft 一份草稿
type Draft struct {
	CallNo  string          `json:"call_no"`
	Section Section         `json:"section"`
	Payload json.RawMessage `json:"payload"`
	SavedBy string          `json:"saved_by"`
	SavedAt time.Time       `json:"saved_at"`
}

// Store 草稿存储
type Store interface {
	Save(ctx context.Context, d Draft) error
	Load(ctx context.Context, callNo string, section Section) (*Draft, error)
	Delete(ctx context.Context, callNo string, section Section) error
	// DeleteAll 删除报验单的全部分区草稿
	DeleteAll(ctx context.Context, callNo string) error
}

func key(callNo string, section Section) string {
	return fmt.Sprintf("rm:draft:%s:%s", callNo, section)
}
