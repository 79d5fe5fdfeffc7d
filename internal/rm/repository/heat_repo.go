package repository

import (
	"context"
	"errors"

	"github.com/bitfantasy/rmqc/internal/rm/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// HeatRepository 炉号及其录入记录仓库
type HeatRepository struct {
	db *gorm.DB
}

func NewHeatRepository(db *gorm.DB) *HeatRepository {
	return &HeatRepository{db: db}
}

// FindByID 加载炉号及全部子记录
func (r *HeatRepository) FindByID(ctx context.Context, id string) (*entity.Heat, error) {
	var heat entity.Heat
	err := r.db.WithContext(ctx).
		Preload("Defects").
		Preload("DimensionalSamples").
		Preload("MaterialSamples").
		Preload("Ladle").
		Where("id = ?", id).
		First(&heat).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &heat, nil
}

// ExistsInCall 同一报验单下炉号是否已存在
func (r *HeatRepository) ExistsInCall(ctx context.Context, callID, heatNo string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.Heat{}).
		Where("call_id = ? AND heat_no = ?", callID, heatNo).
		Count(&count).Error
	return count > 0, err
}

// CountByCall 报验单下的炉数
func (r *HeatRepository) CountByCall(ctx context.Context, callID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.Heat{}).
		Where("call_id = ?", callID).
		Count(&count).Error
	return count, err
}

// Create 创建炉号
func (r *HeatRepository) Create(ctx context.Context, heat *entity.Heat) error {
	if heat.ID == "" {
		heat.ID = newID()
	}
	err := r.db.WithContext(ctx).Omit("Defects", "DimensionalSamples", "MaterialSamples", "Ladle").Create(heat).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	return err
}

// Delete 删除炉号及全部子记录，同一事务内完成
func (r *HeatRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deleteSubRecords(tx, id); err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&entity.Heat{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func deleteSubRecords(tx *gorm.DB, heatID string) error {
	for _, model := range []interface{}{
		&entity.DefectObservation{},
		&entity.DimensionalSample{},
		&entity.MaterialSample{},
		&entity.LadleAnalysis{},
	} {
		if err := tx.Where("heat_id = ?", heatID).Delete(model).Error; err != nil {
			return err
		}
	}
	return nil
}

// ReplaceDefects 整体替换外观缺陷记录
func (r *HeatRepository) ReplaceDefects(ctx context.Context, heatID string, rows []entity.DefectObservation) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("heat_id = ?", heatID).Delete(&entity.DefectObservation{}).Error; err != nil {
			return err
		}
		for i := range rows {
			rows[i].HeatID = heatID
			if rows[i].ID == "" {
				rows[i].ID = newID()
			}
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
}

// ReplaceDimensional 整体替换直径样本
func (r *HeatRepository) ReplaceDimensional(ctx context.Context, heatID string, rows []entity.DimensionalSample) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("heat_id = ?", heatID).Delete(&entity.DimensionalSample{}).Error; err != nil {
			return err
		}
		for i := range rows {
			rows[i].HeatID = heatID
			if rows[i].ID == "" {
				rows[i].ID = newID()
			}
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
}

// ReplaceMaterial 整体替换化学/机械试样
func (r *HeatRepository) ReplaceMaterial(ctx context.Context, heatID string, rows []entity.MaterialSample) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("heat_id = ?", heatID).Delete(&entity.MaterialSample{}).Error; err != nil {
			return err
		}
		for i := range rows {
			rows[i].HeatID = heatID
			if rows[i].ID == "" {
				rows[i].ID = newID()
			}
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
}

// SaveLadle 新增或更新炉前化学成分，按 heat_id 覆盖
func (r *HeatRepository) SaveLadle(ctx context.Context, ladle *entity.LadleAnalysis) error {
	return upsertLadle(r.db.WithContext(ctx), ladle)
}

// SaveLadles 批量写入炉前化学成分，任一失败全部回滚
func (r *HeatRepository) SaveLadles(ctx context.Context, ladles []*entity.LadleAnalysis) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, l := range ladles {
			if err := upsertLadle(tx, l); err != nil {
				return err
			}
		}
		return nil
	})
}

func upsertLadle(db *gorm.DB, ladle *entity.LadleAnalysis) error {
	if ladle.ID == "" {
		ladle.ID = newID()
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "heat_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"percent_c", "percent_si", "percent_mn", "percent_p", "percent_s", "updated_at"}),
	}).Create(ladle).Error
}
