package repository

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
	ErrConflict  = errors.New("record was modified concurrently")
)

// Repositories 原材料检验仓库集合
type Repositories struct {
	Call        *CallRepository
	Heat        *HeatRepository
	ActivityLog *ActivityLogRepository
}

// NewRepositories 创建仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Call:        NewCallRepository(db),
		Heat:        NewHeatRepository(db),
		ActivityLog: NewActivityLogRepository(db),
	}
}

// newID 32位主键
func newID() string {
	return uuid.New().String()[:32]
}
