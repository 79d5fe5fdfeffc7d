package entity

import (
	"time"

	"gorm.io/datatypes"
)

// InspectionCall 原材料报验单，一次报验对应一个批次
type InspectionCall struct {
	ID           string `json:"id" gorm:"primaryKey;size:32"`
	CallNo       string `json:"call_no" gorm:"size:32;uniqueIndex;not null"`
	PONo         string `json:"po_no" gorm:"size:50"`
	VendorName   string `json:"vendor_name" gorm:"size:200"`
	ProductModel string `json:"product_model" gorm:"size:50;not null"`

	Status  string `json:"status" gorm:"size:20;default:pending"` // pending/in_progress/completed
	Result  string `json:"result" gorm:"size:20"`                 // accepted/rejected，完成后才有值
	Remarks string `json:"remarks" gorm:"type:text"`

	ReportURL string `json:"report_url" gorm:"size:500"`

	// 人员
	CreatedBy   string     `json:"created_by" gorm:"size:32"`
	InspectorID *string    `json:"inspector_id" gorm:"size:32"`
	InspectedAt *time.Time `json:"inspected_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Heats []Heat `json:"heats,omitempty" gorm:"foreignKey:CallID"`
}

func (InspectionCall) TableName() string {
	return "rm_inspection_calls"
}

// 报验状态
const (
	CallStatusPending    = "pending"
	CallStatusInProgress = "in_progress"
	CallStatusCompleted  = "completed"
)

// 报验结果
const (
	CallResultAccepted = "accepted"
	CallResultRejected = "rejected"
)

// Heat 炉号，报验批次下的最小判定单元
type Heat struct {
	ID        string   `json:"id" gorm:"primaryKey;size:32"`
	CallID    string   `json:"call_id" gorm:"size:32;not null;uniqueIndex:idx_rm_heats_call_heat"`
	HeatNo    string   `json:"heat_no" gorm:"size:50;not null;uniqueIndex:idx_rm_heats_call_heat"`
	WeightMT  *float64 `json:"weight_mt" gorm:"type:decimal(10,3)"`
	ColorCode string   `json:"color_code" gorm:"size:50"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Defects            []DefectObservation `json:"defects,omitempty" gorm:"foreignKey:HeatID"`
	DimensionalSamples []DimensionalSample `json:"dimensional_samples,omitempty" gorm:"foreignKey:HeatID"`
	MaterialSamples    []MaterialSample    `json:"material_samples,omitempty" gorm:"foreignKey:HeatID"`
	Ladle              *LadleAnalysis      `json:"ladle,omitempty" gorm:"foreignKey:HeatID"`
}

func (Heat) TableName() string {
	return "rm_heats"
}

// DefectObservation 外观缺陷记录，count 保存原始录入
type DefectObservation struct {
	ID         string `json:"id" gorm:"primaryKey;size:32"`
	HeatID     string `json:"heat_id" gorm:"size:32;not null;index"`
	DefectType string `json:"defect_type" gorm:"size:100;not null"`
	Count      string `json:"count" gorm:"size:20"`
	SortOrder  int    `json:"sort_order"`
}

func (DefectObservation) TableName() string {
	return "rm_defect_observations"
}

// DimensionalSample 直径样本，sample_no 1..20
type DimensionalSample struct {
	ID       string `json:"id" gorm:"primaryKey;size:32"`
	HeatID   string `json:"heat_id" gorm:"size:32;not null;index"`
	SampleNo int    `json:"sample_no" gorm:"not null"`
	Diameter string `json:"diameter" gorm:"size:20"`
}

func (DimensionalSample) TableName() string {
	return "rm_dimensional_samples"
}

// MaterialSample 化学/机械试样，sample_no 1..2
type MaterialSample struct {
	ID             string         `json:"id" gorm:"primaryKey;size:32"`
	HeatID         string         `json:"heat_id" gorm:"size:32;not null;index"`
	SampleNo       int            `json:"sample_no" gorm:"not null"`
	Attributes     datatypes.JSON `json:"attributes"`      // {"%C": "0.55", ...}
	InclusionTypes datatypes.JSON `json:"inclusion_types"` // {"A": "Thin", ...}
	Remarks        string         `json:"remarks" gorm:"type:text"`
}

func (MaterialSample) TableName() string {
	return "rm_material_samples"
}

// LadleAnalysis 供应商炉前化学成分，每炉最多一条
type LadleAnalysis struct {
	ID        string `json:"id" gorm:"primaryKey;size:32"`
	HeatID    string `json:"heat_id" gorm:"size:32;not null;uniqueIndex"`
	PercentC  string `json:"percent_c" gorm:"size:20"`
	PercentSi string `json:"percent_si" gorm:"size:20"`
	PercentMn string `json:"percent_mn" gorm:"size:20"`
	PercentP  string `json:"percent_p" gorm:"size:20"`
	PercentS  string `json:"percent_s" gorm:"size:20"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (LadleAnalysis) TableName() string {
	return "rm_ladle_analyses"
}
