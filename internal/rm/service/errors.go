package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrCallNotFound   = errors.New("inspection call not found")
	ErrHeatNotFound   = errors.New("heat not found")
	ErrDuplicateCall  = errors.New("call number already exists")
	ErrDuplicateHeat  = errors.New("heat number already exists in this call")
	ErrCallCompleted  = errors.New("inspection call is already completed")
	ErrVerdictPending = errors.New("lot verdict is still pending")
	ErrRemarkRequired = errors.New("remarks are required when the lot is rejected")
	ErrInvalidInput   = errors.New("invalid input")
)

// EntryError 录入阶段的格式错误，按字段给出提示
type EntryError struct {
	Section string
	Fields  map[string]string
}

func newEntryError(section string) *EntryError {
	return &EntryError{Section: section, Fields: map[string]string{}}
}

func (e *EntryError) add(field, msg string) {
	e.Fields[field] = msg
}

// orNil 没有字段错误时返回 nil
func (e *EntryError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *EntryError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return fmt.Sprintf("%s entry rejected: %s", e.Section, strings.Join(parts, "; "))
}

// Is 使 errors.Is(err, ErrInvalidInput) 成立
func (e *EntryError) Is(target error) bool {
	return target == ErrInvalidInput
}
