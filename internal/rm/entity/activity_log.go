package entity

import (
	"time"

	"gorm.io/datatypes"
)

// ActivityLog 报验操作日志
type ActivityLog struct {
	ID         string `json:"id" gorm:"primaryKey;size:32"`
	EntityType string `json:"entity_type" gorm:"size:50;not null;index:idx_rm_activity_entity"` // call/heat
	EntityID   string `json:"entity_id" gorm:"size:32;not null;index:idx_rm_activity_entity"`
	EntityCode string `json:"entity_code" gorm:"size:50"`

	Action     string `json:"action" gorm:"size:50;not null"` // create/add_heat/remove_heat/save_visual/finalize等
	FromStatus string `json:"from_status" gorm:"size:20"`
	ToStatus   string `json:"to_status" gorm:"size:20"`

	Content  string         `json:"content" gorm:"type:text"`
	Metadata datatypes.JSON `json:"metadata"`

	OperatorID   string    `json:"operator_id" gorm:"size:32"`
	OperatorName string    `json:"operator_name" gorm:"size:100"`
	CreatedAt    time.Time `json:"created_at"`
}

func (ActivityLog) TableName() string {
	return "rm_activity_logs"
}

// AllModels 需要自动迁移的表
func AllModels() []interface{} {
	return []interface{}{
		&InspectionCall{},
		&Heat{},
		&DefectObservation{},
		&DimensionalSample{},
		&MaterialSample{},
		&LadleAnalysis{},
		&ActivityLog{},
	}
}
