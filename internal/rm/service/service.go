package service

import (
	"github.com/bitfantasy/rmqc/internal/metrics"
	"github.com/bitfantasy/rmqc/internal/rm/draft"
	"github.com/bitfantasy/rmqc/internal/rm/engine"
	"github.com/bitfantasy/rmqc/internal/rm/repository"
	"github.com/bitfantasy/rmqc/internal/rm/sse"
	"go.uber.org/zap"
)

// Services 服务集合
type Services struct {
	Inspection *InspectionService
	Draft      *DraftService
	Report     *ReportService
}

// NewServices 创建服务集合；metrics 可为 nil
func NewServices(repos *repository.Repositories, eng *engine.Engine, hub *sse.Hub, store draft.Store, m *metrics.InspectionMetrics, logger *zap.Logger) *Services {
	inspection := NewInspectionService(repos, eng, hub, logger)
	inspection.SetMetrics(m)
	inspection.SetDraftStore(store)

	return &Services{
		Inspection: inspection,
		Draft:      NewDraftService(repos.Call, store),
		Report:     NewReportService(inspection),
	}
}
