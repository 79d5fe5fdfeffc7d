package repository

import (
	"context"
	"encoding/json"

	"github.com/bitfantasy/rmqc/internal/rm/entity"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ActivityLogRepository 操作日志仓库
type ActivityLogRepository struct {
	db *gorm.DB
}

func NewActivityLogRepository(db *gorm.DB) *ActivityLogRepository {
	return &ActivityLogRepository{db: db}
}

// Create 创建操作日志
func (r *ActivityLogRepository) Create(ctx context.Context, log *entity.ActivityLog) error {
	if log.ID == "" {
		log.ID = newID()
	}
	return r.db.WithContext(ctx).Create(log).Error
}

// FindByEntity 查询某实体的操作日志
func (r *ActivityLogRepository) FindByEntity(ctx context.Context, entityType, entityID string, page, pageSize int) ([]entity.ActivityLog, int64, error) {
	var items []entity.ActivityLog
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.ActivityLog{}).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error

	return items, total, err
}

// Entry 一条待写入的操作日志
type Entry struct {
	EntityType   string
	EntityID     string
	EntityCode   string
	Action       string
	FromStatus   string
	ToStatus     string
	Content      string
	Metadata     interface{}
	OperatorID   string
	OperatorName string
}

// LogActivity 便捷记录操作日志，写入失败不影响主流程
func (r *ActivityLogRepository) LogActivity(ctx context.Context, e Entry) error {
	log := &entity.ActivityLog{
		ID:           newID(),
		EntityType:   e.EntityType,
		EntityID:     e.EntityID,
		EntityCode:   e.EntityCode,
		Action:       e.Action,
		FromStatus:   e.FromStatus,
		ToStatus:     e.ToStatus,
		Content:      e.Content,
		OperatorID:   e.OperatorID,
		OperatorName: e.OperatorName,
	}
	if e.Metadata != nil {
		b, err := json.Marshal(e.Metadata)
		if err != nil {
			return err
		}
		log.Metadata = datatypes.JSON(b)
	}
	return r.db.WithContext(ctx).Create(log).Error
}
