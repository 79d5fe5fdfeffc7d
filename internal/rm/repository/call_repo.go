package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bitfantasy/rmqc/internal/rm/entity"
	"gorm.io/gorm"
)

// CallRepository 报验单仓库
type CallRepository struct {
	db *gorm.DB
}

func NewCallRepository(db *gorm.DB) *CallRepository {
	return &CallRepository{db: db}
}

// FindAll 查询报验列表
func (r *CallRepository) FindAll(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.InspectionCall, int64, error) {
	var items []entity.InspectionCall
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.InspectionCall{})

	if status := filters["status"]; status != "" {
		query = query.Where("status = ?", status)
	}
	if result := filters["result"]; result != "" {
		query = query.Where("result = ?", result)
	}
	if model := filters["product_model"]; model != "" {
		query = query.Where("product_model = ?", model)
	}
	if vendor := filters["vendor_name"]; vendor != "" {
		query = query.Where("vendor_name LIKE ?", "%"+vendor+"%")
	}

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

// FindByID 根据ID查找报验单（不含炉号）
func (r *CallRepository) FindByID(ctx context.Context, id string) (*entity.InspectionCall, error) {
	var call entity.InspectionCall
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&call).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &call, nil
}

// FindByCallNo 根据报验号查找
func (r *CallRepository) FindByCallNo(ctx context.Context, callNo string) (*entity.InspectionCall, error) {
	var call entity.InspectionCall
	err := r.db.WithContext(ctx).
		Where("call_no = ?", callNo).
		First(&call).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &call, nil
}

// FindWithHeats 加载报验单及全部炉号、子记录
func (r *CallRepository) FindWithHeats(ctx context.Context, id string) (*entity.InspectionCall, error) {
	var call entity.InspectionCall
	err := r.db.WithContext(ctx).
		Preload("Heats", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, heat_no ASC")
		}).
		Preload("Heats.Defects").
		Preload("Heats.DimensionalSamples").
		Preload("Heats.MaterialSamples").
		Preload("Heats.Ladle").
		Where("id = ?", id).
		First(&call).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &call, nil
}

// Create 创建报验单
func (r *CallRepository) Create(ctx context.Context, call *entity.InspectionCall) error {
	if call.ID == "" {
		call.ID = newID()
	}
	err := r.db.WithContext(ctx).Create(call).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	return err
}

// Complete 写入检验结论；报验单已完成时返回 ErrConflict
func (r *CallRepository) Complete(ctx context.Context, call *entity.InspectionCall) error {
	res := r.db.WithContext(ctx).
		Model(&entity.InspectionCall{}).
		Where("id = ? AND status <> ?", call.ID, entity.CallStatusCompleted).
		Updates(map[string]interface{}{
			"status":       entity.CallStatusCompleted,
			"result":       call.Result,
			"remarks":      call.Remarks,
			"inspector_id": call.InspectorID,
			"inspected_at": call.InspectedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

// Update 更新报验单（不级联炉号）
func (r *CallRepository) Update(ctx context.Context, call *entity.InspectionCall) error {
	return r.db.WithContext(ctx).Omit("Heats").Save(call).Error
}

// MarkInProgress 首次录入时 pending -> in_progress，已是其它状态则不变
func (r *CallRepository) MarkInProgress(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&entity.InspectionCall{}).
		Where("id = ? AND status = ?", id, entity.CallStatusPending).
		Update("status", entity.CallStatusInProgress).Error
}

// GenerateCode 生成报验编号 RM-{year}-{4位}
func (r *CallRepository) GenerateCode(ctx context.Context) (string, error) {
	year := time.Now().Format("2006")
	prefix := fmt.Sprintf("RM-%s-", year)

	var maxCode string
	err := r.db.WithContext(ctx).
		Model(&entity.InspectionCall{}).
		Select("COALESCE(MAX(call_no), '')").
		Where("call_no LIKE ?", prefix+"%").
		Scan(&maxCode).Error
	if err != nil {
		return "", err
	}

	var seq int
	if maxCode != "" {
		fmt.Sscanf(maxCode, "RM-"+year+"-%04d", &seq)
	}
	seq++
	return fmt.Sprintf("RM-%s-%04d", year, seq), nil
}
