package metrics

import (
	"testing"
	"time"

	"github.com/bitfantasy/rmqc/internal/rm/engine"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordEvaluation(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewInspectionMetrics(reg)
	require.NoError(t, err)

	m.RecordEvaluation(engine.LotEvaluation{
		LotStatus: engine.VerdictRejected,
		Heats: []engine.HeatEvaluation{
			{Disposition: engine.HeatDisposition{HeatStatus: engine.VerdictAccepted}},
			{Disposition: engine.HeatDisposition{HeatStatus: engine.VerdictRejected}},
		},
	}, 3*time.Millisecond)
	m.RecordEntryError("dimensional", "precision")
	m.RecordFinalized("rejected")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.VerdictsTotal.WithLabelValues("lot", "rejected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.VerdictsTotal.WithLabelValues("heat", "accepted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EntryErrorsTotal.WithLabelValues("dimensional", "precision")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FinalizedTotal.WithLabelValues("rejected")))

	_, err = NewInspectionMetrics(reg)
	assert.Error(t, err, "duplicate registration")
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *InspectionMetrics
	m.RecordEvaluation(engine.LotEvaluation{}, time.Second)
	m.RecordEntryError("visual", "invalid")
	m.RecordFinalized("accepted")
}
