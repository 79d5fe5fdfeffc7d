package main

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/bitfantasy/rmqc/internal/rm/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateLotFile(t *testing.T) {
	f, err := os.Open("testdata/lot_accepted.yaml")
	require.NoError(t, err)
	defer f.Close()

	lot, err := loadLot(f)
	require.NoError(t, err)
	require.Len(t, lot.Heats, 1)
	assert.Equal(t, "0.020", lot.Heats[0].Material[0].Attributes[engine.AttrPhosphorus], "raw text must survive parsing")

	ev, err := engine.New().EvaluateLot(lot)
	require.NoError(t, err)
	assert.Equal(t, engine.VerdictAccepted, ev.LotStatus)
	assert.Equal(t, exitAccepted, verdictExitCode(ev.LotStatus))

	var out bytes.Buffer
	require.NoError(t, writeEvaluation(&out, ev, "yaml"))
	assert.Contains(t, out.String(), "lot_status: accepted")

	out.Reset()
	require.NoError(t, writeEvaluation(&out, ev, "json"))
	assert.Contains(t, out.String(), `"lot_status": "accepted"`)

	assert.Error(t, writeEvaluation(&out, ev, "csv"))
}

func TestEvaluatePendingAndRejected(t *testing.T) {
	lot, err := loadLot(strings.NewReader(`
product_model: MK-V
heats:
  - heat_no: H1
    defects:
      - {defect_type: Crack, count: 2}
  - heat_no: H2
`))
	require.NoError(t, err)
	ev, err := engine.New().EvaluateLot(lot)
	require.NoError(t, err)
	assert.Equal(t, engine.VerdictRejected, ev.LotStatus)
	assert.Equal(t, exitRejected, verdictExitCode(ev.LotStatus))

	lot.Heats = lot.Heats[1:]
	ev, _ = engine.New().EvaluateLot(lot)
	assert.Equal(t, exitPending, verdictExitCode(ev.LotStatus))

	_, err = loadLot(strings.NewReader("heats: []"))
	assert.Error(t, err)
}

func TestPrintLimits(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printLimits(&out, engine.New()))
	assert.Contains(t, out.String(), "MK-III")
	assert.Contains(t, out.String(), "%P")
}
