package engine

// Verdict 判定结论
type Verdict string

const (
	VerdictAccepted Verdict = "accepted"
	VerdictRejected Verdict = "rejected"
	VerdictPending  Verdict = "pending"
)

// Definitive 是否为最终结论（接收/拒收）
func (v Verdict) Definitive() bool {
	return v == VerdictAccepted || v == VerdictRejected
}

// HeatDisposition 单炉判定
type HeatDisposition struct {
	VisualStatus      Verdict `json:"visual_status"`
	DimensionalStatus Verdict `json:"dimensional_status"`
	MaterialStatus    Verdict `json:"material_status"`
	HeatStatus        Verdict `json:"heat_status"`
}

// DispositionHeat 三项任一拒收则拒收；全部完成且通过才接收，否则待定
func DispositionHeat(defect DefectResult, dimensional DimensionalResult, material MaterialResult) HeatDisposition {
	d := HeatDisposition{
		VisualStatus:      defect.Verdict(),
		DimensionalStatus: dimensional.Verdict(),
		MaterialStatus:    material.Verdict(),
	}
	d.HeatStatus = combine(d.VisualStatus, d.DimensionalStatus, d.MaterialStatus)
	return d
}

// DispositionLot 任一炉拒收则整批拒收；无拒收但有待定则待定；空批次待定
func DispositionLot(heats []Verdict) Verdict {
	if len(heats) == 0 {
		return VerdictPending
	}
	return combine(heats...)
}

func combine(vs ...Verdict) Verdict {
	pending := false
	for _, v := range vs {
		switch v {
		case VerdictRejected:
			return VerdictRejected
		case VerdictAccepted:
		default:
			pending = true
		}
	}
	if pending {
		return VerdictPending
	}
	return VerdictAccepted
}
