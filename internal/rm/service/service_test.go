package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bitfantasy/rmqc/internal/rm/draft"
	"github.com/bitfantasy/rmqc/internal/rm/engine"
	"github.com/bitfantasy/rmqc/internal/rm/entity"
	"github.com/bitfantasy/rmqc/internal/rm/repository"
	"github.com/bitfantasy/rmqc/internal/rm/sse"
	"github.com/bitfantasy/rmqc/internal/rm/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var inspector = Operator{ID: "ie-001", Name: "Inspector"}

type fakeArchiver struct {
	calls    int
	filename string
	size     int
}

func (a *fakeArchiver) Archive(_ context.Context, callNo, filename string, data []byte) (string, error) {
	a.calls++
	a.filename = filename
	a.size = len(data)
	return "rm-reports/" + callNo + "/" + filename, nil
}

type fixture struct {
	svc      *Services
	drafts   *draft.MemoryStore
	archiver *fakeArchiver
	hub      *sse.Hub
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db := testutil.SetupTestDB(t)
	store := draft.NewMemoryStore(time.Hour)
	hub := sse.NewHub(nil)
	svc := NewServices(repository.NewRepositories(db), engine.New(), hub, store, nil, nil)
	archiver := &fakeArchiver{}
	svc.Inspection.SetArchiver(archiver)
	return &fixture{svc: svc, drafts: store, archiver: archiver, hub: hub}
}

func materialSample() engine.MaterialTestSample {
	return engine.MaterialTestSample{Attributes: map[engine.AttributeID]string{
		engine.AttrCarbon:     "0.55",
		engine.AttrSilicon:    "1.80",
		engine.AttrManganese:  "0.90",
		engine.AttrPhosphorus: "0.020",
		engine.AttrSulphur:    "0.020",
		engine.AttrGrainSize:  "7",
		engine.AttrInclusionA: "1.0",
		engine.AttrInclusionB: "1.0",
		engine.AttrInclusionC: "1.5",
		engine.AttrInclusionD: "0.5",
		engine.AttrHardness:   "50",
		engine.AttrDecarb:     "0.10",
	}, InclusionTypes: map[string]string{"A": engine.InclusionThin}}
}

func diameters(v string) []string {
	out := make([]string, engine.DimensionalSamplesPerHeat)
	for i := range out {
		out[i] = v
	}
	return out
}

// completeHeat 录入一炉全部合格数据
func completeHeat(t *testing.T, s *InspectionService, callID, heatNo string) *entity.Heat {
	t.Helper()
	ctx := context.Background()
	heat, err := s.AddHeat(ctx, inspector, callID, &AddHeatRequest{HeatNo: heatNo})
	require.NoError(t, err)
	_, err = s.SaveVisual(ctx, inspector, callID, heat.ID, &SaveVisualRequest{
		Observations: []engine.DefectObservation{{DefectType: engine.NoDefect}},
	})
	require.NoError(t, err)
	_, err = s.SaveDimensional(ctx, inspector, callID, heat.ID, &SaveDimensionalRequest{Diameters: diameters("20.64")})
	require.NoError(t, err)
	ev, err := s.SaveMaterial(ctx, inspector, callID, heat.ID, &SaveMaterialRequest{
		Samples: []engine.MaterialTestSample{materialSample(), materialSample()},
	})
	require.NoError(t, err)
	require.Equal(t, engine.VerdictAccepted, ev.Disposition.HeatStatus)
	return heat
}

func TestCreateCall(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	call, err := f.svc.Inspection.CreateCall(ctx, inspector, &CreateCallRequest{ProductModel: "ERC MK-III", VendorName: " Steel Co "})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(call.CallNo, "RM-"))
	assert.Equal(t, entity.CallStatusPending, call.Status)
	assert.Equal(t, "Steel Co", call.VendorName)

	_, err = f.svc.Inspection.CreateCall(ctx, inspector, &CreateCallRequest{CallNo: call.CallNo, ProductModel: "MK-V"})
	assert.ErrorIs(t, err, ErrDuplicateCall)

	_, err = f.svc.Inspection.CreateCall(ctx, inspector, &CreateCallRequest{ProductModel: "MK-IX"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.ErrorIs(t, err, engine.ErrUnknownModel)

	logs, total, err := f.svc.Inspection.ListActivities(ctx, call.ID, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "create", logs[0].Action)
}

func TestInspectionLifecycleAccepted(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	s := f.svc.Inspection

	call, err := s.CreateCall(ctx, inspector, &CreateCallRequest{CallNo: "RM-T-0001", ProductModel: "MK-III"})
	require.NoError(t, err)

	weight := 12.5
	heat, err := s.AddHeat(ctx, inspector, call.ID, &AddHeatRequest{HeatNo: "H1", WeightMT: &weight})
	require.NoError(t, err)

	got, err := s.GetCall(ctx, call.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.CallStatusInProgress, got.Status)

	ev, err := s.Evaluate(ctx, call.ID)
	require.NoError(t, err)
	assert.Equal(t, engine.VerdictPending, ev.LotStatus)
	assert.Equal(t, 1, ev.Pending)

	require.NoError(t, s.RemoveHeat(ctx, inspector, call.ID, heat.ID))
	completeHeat(t, s, call.ID, "H1")
	completeHeat(t, s, call.ID, "H2")

	ev, err = s.Evaluate(ctx, call.ID)
	require.NoError(t, err)
	assert.Equal(t, engine.VerdictAccepted, ev.LotStatus)
	assert.Equal(t, 2, ev.Accepted)
	assert.Equal(t, 2, ev.Totals.HeatCount)

	require.NoError(t, f.drafts.Save(ctx, draft.Draft{CallNo: call.CallNo, Section: draft.SectionSummary, Payload: json.RawMessage(`{}`)}))

	res, err := s.FinalizeCall(ctx, inspector, call.ID, &FinalizeRequest{})
	require.NoError(t, err)
	assert.Equal(t, entity.CallStatusCompleted, res.Call.Status)
	assert.Equal(t, entity.CallResultAccepted, res.Call.Result)
	require.NotNil(t, res.Call.InspectorID)
	assert.Equal(t, inspector.ID, *res.Call.InspectorID)
	assert.NotNil(t, res.Call.InspectedAt)

	assert.Equal(t, 1, f.archiver.calls)
	assert.Equal(t, "RM_Inspection_RM-T-0001.xlsx", f.archiver.filename)
	assert.Greater(t, f.archiver.size, 0)
	assert.Equal(t, "rm-reports/RM-T-0001/RM_Inspection_RM-T-0001.xlsx", res.Call.ReportURL)

	_, err = f.drafts.Load(ctx, call.CallNo, draft.SectionSummary)
	assert.ErrorIs(t, err, draft.ErrNotFound)

	heats, err := s.GetCall(ctx, call.ID)
	require.NoError(t, err)
	_, err = s.SaveVisual(ctx, inspector, call.ID, heats.Heats[0].ID, &SaveVisualRequest{})
	assert.ErrorIs(t, err, ErrCallCompleted)
	_, err = s.FinalizeCall(ctx, inspector, call.ID, &FinalizeRequest{})
	assert.ErrorIs(t, err, ErrCallCompleted)
}

func TestFinalizeRules(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	s := f.svc.Inspection

	call, err := s.CreateCall(ctx, inspector, &CreateCallRequest{ProductModel: "MK-V"})
	require.NoError(t, err)

	_, err = s.FinalizeCall(ctx, inspector, call.ID, &FinalizeRequest{})
	assert.ErrorIs(t, err, ErrVerdictPending, "empty lot cannot be finalized")

	heat, err := s.AddHeat(ctx, inspector, call.ID, &AddHeatRequest{HeatNo: "H1"})
	require.NoError(t, err)
	ev, err := s.SaveVisual(ctx, inspector, call.ID, heat.ID, &SaveVisualRequest{
		Observations: []engine.DefectObservation{{DefectType: "Kink", Count: "1"}, {DefectType: "Pit", Count: "1"}},
	})
	require.NoError(t, err)
	assert.Equal(t, engine.VerdictRejected, ev.Disposition.HeatStatus, "visual rejection decides the heat without other sections")

	_, err = s.FinalizeCall(ctx, inspector, call.ID, &FinalizeRequest{Remarks: "  "})
	assert.ErrorIs(t, err, ErrRemarkRequired)

	res, err := s.FinalizeCall(ctx, inspector, call.ID, &FinalizeRequest{Remarks: "Surface defects"})
	require.NoError(t, err)
	assert.Equal(t, entity.CallResultRejected, res.Call.Result)
	assert.Equal(t, "Surface defects", res.Call.Remarks)
	assert.Equal(t, engine.VerdictRejected, res.Evaluation.LotStatus)
}

func TestEntryValidation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	s := f.svc.Inspection

	call, _ := s.CreateCall(ctx, inspector, &CreateCallRequest{ProductModel: "MK-III"})
	heat, err := s.AddHeat(ctx, inspector, call.ID, &AddHeatRequest{HeatNo: "H1"})
	require.NoError(t, err)

	_, err = s.AddHeat(ctx, inspector, call.ID, &AddHeatRequest{HeatNo: "H1"})
	assert.ErrorIs(t, err, ErrDuplicateHeat)

	bad := -1.0
	_, err = s.AddHeat(ctx, inspector, call.ID, &AddHeatRequest{HeatNo: "H2", WeightMT: &bad})
	var entryErr *EntryError
	require.True(t, errors.As(err, &entryErr))
	assert.Contains(t, entryErr.Fields, "weight_mt")

	_, err = s.SaveDimensional(ctx, inspector, call.ID, heat.ID, &SaveDimensionalRequest{Diameters: []string{"20.6412"}})
	require.True(t, errors.As(err, &entryErr))
	assert.Equal(t, msgPrecision, entryErr.Fields["diameters[1]"])
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = s.SaveDimensional(ctx, inspector, call.ID, heat.ID, &SaveDimensionalRequest{Diameters: diameters("20.64")[:0]})
	assert.NoError(t, err)
	_, err = s.SaveDimensional(ctx, inspector, call.ID, heat.ID, &SaveDimensionalRequest{Diameters: append(diameters("20.64"), "20.64")})
	assert.ErrorIs(t, err, ErrInvalidInput)

	sample := materialSample()
	sample.InclusionTypes = map[string]string{"A": "Medium", "E": engine.InclusionThick}
	_, err = s.SaveMaterial(ctx, inspector, call.ID, heat.ID, &SaveMaterialRequest{Samples: []engine.MaterialTestSample{sample}})
	require.True(t, errors.As(err, &entryErr))
	assert.Contains(t, entryErr.Fields, "samples[1].inclusion_types.A")
	assert.Contains(t, entryErr.Fields, "samples[1].inclusion_types.E")

	_, err = s.SaveLadle(ctx, inspector, call.ID, heat.ID, &SaveLadleRequest{Values: map[engine.AttributeID]string{engine.AttrHardness: "50"}})
	require.True(t, errors.As(err, &entryErr))
	assert.Contains(t, entryErr.Fields, "hardness")

	// 超出规格的值可以保存，由判定给出不合格
	out := materialSample()
	out.Attributes[engine.AttrPhosphorus] = "0.035"
	ev, err := s.SaveMaterial(ctx, inspector, call.ID, heat.ID, &SaveMaterialRequest{Samples: []engine.MaterialTestSample{materialSample(), out}})
	require.NoError(t, err)
	assert.False(t, ev.Material.HeatValid)
	assert.Equal(t, engine.VerdictRejected, ev.Disposition.MaterialStatus)
}

func TestHeatMustBelongToCall(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	s := f.svc.Inspection

	a, _ := s.CreateCall(ctx, inspector, &CreateCallRequest{ProductModel: "MK-III"})
	b, _ := s.CreateCall(ctx, inspector, &CreateCallRequest{ProductModel: "MK-III"})
	heat, err := s.AddHeat(ctx, inspector, a.ID, &AddHeatRequest{HeatNo: "H1"})
	require.NoError(t, err)

	_, err = s.SaveVisual(ctx, inspector, b.ID, heat.ID, &SaveVisualRequest{})
	assert.ErrorIs(t, err, ErrHeatNotFound)
	assert.ErrorIs(t, s.RemoveHeat(ctx, inspector, b.ID, heat.ID), ErrHeatNotFound)
	assert.ErrorIs(t, s.RemoveHeat(ctx, inspector, a.ID, "missing"), ErrHeatNotFound)

	_, err = s.GetCall(ctx, "missing")
	assert.ErrorIs(t, err, ErrCallNotFound)
}

func TestToggleDefect(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	s := f.svc.Inspection

	call, _ := s.CreateCall(ctx, inspector, &CreateCallRequest{ProductModel: "MK-III"})
	heat, _ := s.AddHeat(ctx, inspector, call.ID, &AddHeatRequest{HeatNo: "H1"})

	_, err := s.ToggleDefect(ctx, inspector, call.ID, heat.ID, "Kink")
	require.NoError(t, err)
	ev, err := s.ToggleDefect(ctx, inspector, call.ID, heat.ID, engine.NoDefect)
	require.NoError(t, err)
	assert.True(t, ev.Visual.NoDefect)

	got, _ := s.GetCall(ctx, call.ID)
	require.Len(t, got.Heats[0].Defects, 1)
	assert.Equal(t, engine.NoDefect, got.Heats[0].Defects[0].DefectType)

	_, err = s.ToggleDefect(ctx, inspector, call.ID, heat.ID, " ")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestVerdictUpdatesArePublished(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	s := f.svc.Inspection

	client := &sse.Client{ID: "c1", Events: make(chan sse.Event, 16)}
	f.hub.Register(client)
	defer f.hub.Unregister("c1")

	call, _ := s.CreateCall(ctx, inspector, &CreateCallRequest{ProductModel: "MK-III"})
	_, err := s.Evaluate(ctx, call.ID)
	require.NoError(t, err)

	var types []string
	for len(client.Events) > 0 {
		types = append(types, (<-client.Events).EventType)
	}
	assert.Contains(t, types, "call_update")
	assert.Contains(t, types, "verdict_update")
}

func TestDraftService(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	call, _ := f.svc.Inspection.CreateCall(ctx, inspector, &CreateCallRequest{ProductModel: "MK-III"})
	payload := json.RawMessage(`{"diameters":["20.6"]}`)

	d, err := f.svc.Draft.Save(ctx, inspector, call.CallNo, "dimensional", &SaveDraftRequest{Payload: payload})
	require.NoError(t, err)
	assert.Equal(t, draft.SectionDimensional, d.Section)

	loaded, err := f.svc.Draft.Load(ctx, call.CallNo, "dimensional")
	require.NoError(t, err)
	assert.JSONEq(t, string(payload), string(loaded.Payload))
	assert.Equal(t, inspector.ID, loaded.SavedBy)

	_, err = f.svc.Draft.Save(ctx, inspector, call.CallNo, "chemistry", &SaveDraftRequest{Payload: payload})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.svc.Draft.Save(ctx, inspector, "RM-NONE", "visual", &SaveDraftRequest{Payload: payload})
	assert.ErrorIs(t, err, ErrCallNotFound)
	_, err = f.svc.Draft.Save(ctx, inspector, call.CallNo, "visual", &SaveDraftRequest{Payload: json.RawMessage(`{bad`)})
	assert.ErrorIs(t, err, ErrInvalidInput)

	require.NoError(t, f.svc.Draft.Delete(ctx, call.CallNo, "dimensional"))
	_, err = f.svc.Draft.Load(ctx, call.CallNo, "dimensional")
	assert.ErrorIs(t, err, ErrDraftNotFound)
}

func TestReportExport(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	s := f.svc.Inspection

	call, _ := s.CreateCall(ctx, inspector, &CreateCallRequest{CallNo: "RM-T-0009", ProductModel: "MK-III"})
	completeHeat(t, s, call.ID, "H1")

	buf, filename, err := f.svc.Report.Export(ctx, call.ID)
	require.NoError(t, err)
	assert.Equal(t, "RM_Inspection_RM-T-0009.xlsx", filename)
	assert.Greater(t, buf.Len(), 0)

	_, _, err = f.svc.Report.Export(ctx, "missing")
	assert.ErrorIs(t, err, ErrCallNotFound)
}

func TestValueValidationAndReference(t *testing.T) {
	f := setup(t)
	s := f.svc.Inspection

	assert.Equal(t, engine.StatusFail, s.ValidateValue(engine.AttrPhosphorus, "0.035").Status)
	assert.Equal(t, engine.StatusIndeterminate, s.ValidateValue(engine.AttrPhosphorus, "").Status)
	assert.NotEmpty(t, s.SpecLimits())
	assert.Len(t, s.ToleranceBands(), 2)
}

func TestImportLadleCertificate(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	s := f.svc.Inspection

	call, _ := s.CreateCall(ctx, inspector, &CreateCallRequest{ProductModel: "MK-III"})
	_, err := s.AddHeat(ctx, inspector, call.ID, &AddHeatRequest{HeatNo: "H1"})
	require.NoError(t, err)
	_, err = s.AddHeat(ctx, inspector, call.ID, &AddHeatRequest{HeatNo: "H2"})
	require.NoError(t, err)

	csv := "Heat No,C,Si,Mn\nH1,0.55,1.80,0.90\nH2,0.5512,1.8,0.9\nH9,0.5,1.8,0.9\n"
	res, err := s.ImportLadle(ctx, inspector, call.ID, strings.NewReader(csv), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"H1"}, res.Imported)
	assert.Equal(t, []string{"H9"}, res.UnknownHeats)
	assert.Contains(t, res.Invalid, "H2")

	got, _ := s.GetCall(ctx, call.ID)
	for _, h := range got.Heats {
		if h.HeatNo == "H1" {
			require.NotNil(t, h.Ladle)
			assert.Equal(t, "0.55", h.Ladle.PercentC)
		}
	}

	_, err = s.ImportLadle(ctx, inspector, call.ID, strings.NewReader("C,Si\n0.5,1.8\n"), "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestImportLadleKeepsElementsMissingFromCertificate(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	s := f.svc.Inspection

	call, _ := s.CreateCall(ctx, inspector, &CreateCallRequest{ProductModel: "MK-III"})
	heat, err := s.AddHeat(ctx, inspector, call.ID, &AddHeatRequest{HeatNo: "H1"})
	require.NoError(t, err)
	_, err = s.SaveLadle(ctx, inspector, call.ID, heat.ID, &SaveLadleRequest{Values: map[engine.AttributeID]string{
		engine.AttrCarbon:     "0.54",
		engine.AttrSilicon:    "1.79",
		engine.AttrManganese:  "0.91",
		engine.AttrPhosphorus: "0.020",
		engine.AttrSulphur:    "0.015",
	}})
	require.NoError(t, err)

	res, err := s.ImportLadle(ctx, inspector, call.ID, strings.NewReader("Heat No,C,Si\nH1,0.56,1.81\nH1,,1.82\n"), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"H1"}, res.Imported)

	got, err := s.GetCall(ctx, call.ID)
	require.NoError(t, err)
	require.Len(t, got.Heats, 1)
	ladle := got.Heats[0].Ladle
	require.NotNil(t, ladle)
	assert.Equal(t, "0.56", ladle.PercentC)
	assert.Equal(t, "1.82", ladle.PercentSi, "later certificate row wins")
	assert.Equal(t, "0.91", ladle.PercentMn)
	assert.Equal(t, "0.020", ladle.PercentP)
	assert.Equal(t, "0.015", ladle.PercentS)
}

func TestFinalizeCallConcurrentlyCompletesOnce(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	s := f.svc.Inspection

	call, err := s.CreateCall(ctx, inspector, &CreateCallRequest{ProductModel: "MK-III"})
	require.NoError(t, err)
	completeHeat(t, s, call.ID, "H1")

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.FinalizeCall(ctx, inspector, call.ID, &FinalizeRequest{})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, ErrCallCompleted)
	}
	assert.Equal(t, 1, succeeded)

	logs, _, err := s.ListActivities(ctx, call.ID, 1, 100)
	require.NoError(t, err)
	finalized := 0
	for _, l := range logs {
		if l.Action == "finalize" {
			finalized++
		}
	}
	assert.Equal(t, 1, finalized)
}
