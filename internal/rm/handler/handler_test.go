package handler

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/bitfantasy/rmqc/internal/middleware"
	"github.com/bitfantasy/rmqc/internal/rm/draft"
	"github.com/bitfantasy/rmqc/internal/rm/engine"
	"github.com/bitfantasy/rmqc/internal/rm/repository"
	"github.com/bitfantasy/rmqc/internal/rm/service"
	"github.com/bitfantasy/rmqc/internal/rm/sse"
	"github.com/bitfantasy/rmqc/internal/rm/testutil"
)

func setupRMTest(t *testing.T) *testutil.TestEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)

	hub := sse.NewHub(nil)
	svc := service.NewServices(repository.NewRepositories(db), engine.New(), hub, draft.NewMemoryStore(time.Hour), nil, nil)
	h := NewHandlers(svc, hub)

	router := testutil.SetupRouter()
	api := testutil.AuthGroup(router, "/api/v1")
	RegisterRoutes(api, h)

	return &testutil.TestEnv{DB: db, Router: router, T: t}
}

func createCall(t *testing.T, env *testutil.TestEnv, callNo string) string {
	t.Helper()
	body := map[string]interface{}{"call_no": callNo, "product_model": "MK-III", "vendor_name": "Test Steel Works"}
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/rm/calls", body, testutil.DefaultTestToken())
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	return testutil.ParseResponse(w)["data"].(map[string]interface{})["id"].(string)
}

func addHeat(t *testing.T, env *testutil.TestEnv, callID, heatNo string) string {
	t.Helper()
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/rm/calls/"+callID+"/heats",
		map[string]interface{}{"heat_no": heatNo}, testutil.InspectorToken())
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	return testutil.ParseResponse(w)["data"].(map[string]interface{})["id"].(string)
}

// TestRejectedLotRequiresRemarks tests the finalize rules for a rejected lot
func TestRejectedLotRequiresRemarks(t *testing.T) {
	env := setupRMTest(t)
	token := testutil.InspectorToken()

	callID := createCall(t, env, "RM-T-0001")
	heatID := addHeat(t, env, callID, "H1")

	body := map[string]interface{}{
		"observations": []map[string]interface{}{
			{"defect_type": "Kink", "count": "1"},
			{"defect_type": "Pit", "count": "1"},
		},
	}
	w := testutil.DoRequest(env.Router, http.MethodPut, "/api/v1/rm/calls/"+callID+"/heats/"+heatID+"/visual", body, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	disposition := data["disposition"].(map[string]interface{})
	if disposition["heat_status"] != "rejected" {
		t.Fatalf("expected heat rejected, got %v", disposition["heat_status"])
	}

	w = testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/rm/calls/"+callID+"/evaluation", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	ev := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if ev["lot_status"] != "rejected" || ev["rejected"].(float64) != 1 {
		t.Fatalf("expected rejected lot, got %v", ev)
	}

	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/rm/calls/"+callID+"/finalize", map[string]interface{}{}, token)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 without remarks, got %d: %s", w.Code, w.Body.String())
	}

	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/rm/calls/"+callID+"/finalize",
		map[string]interface{}{"remarks": "Surface defects over limit"}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	call := testutil.ParseResponse(w)["data"].(map[string]interface{})["call"].(map[string]interface{})
	if call["status"] != "completed" || call["result"] != "rejected" {
		t.Fatalf("expected completed/rejected, got %v/%v", call["status"], call["result"])
	}

	// 完成后不可再录入
	w = testutil.DoRequest(env.Router, http.MethodPut, "/api/v1/rm/calls/"+callID+"/heats/"+heatID+"/visual", body, token)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 on completed call, got %d", w.Code)
	}
}

// TestPendingLotCannotBeFinalized tests that a lot with missing entries stays open
func TestPendingLotCannotBeFinalized(t *testing.T) {
	env := setupRMTest(t)
	callID := createCall(t, env, "RM-T-0002")
	addHeat(t, env, callID, "H1")

	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/rm/calls/"+callID+"/finalize", nil, testutil.InspectorToken())
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for pending lot, got %d: %s", w.Code, w.Body.String())
	}
}

// TestRoleEnforcement tests the role requirements on write routes
func TestRoleEnforcement(t *testing.T) {
	env := setupRMTest(t)

	body := map[string]interface{}{"product_model": "MK-V"}
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/rm/calls", body, testutil.InspectorToken())
	if w.Code != http.StatusForbidden {
		t.Fatalf("inspector must not create calls, got %d", w.Code)
	}

	deskToken := testutil.GenerateTestToken("desk-001", "Call Desk", []string{middleware.RoleCallDesk})
	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/rm/calls", body, deskToken)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 for call desk, got %d: %s", w.Code, w.Body.String())
	}
	callID := testutil.ParseResponse(w)["data"].(map[string]interface{})["id"].(string)

	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/rm/calls/"+callID+"/heats",
		map[string]interface{}{"heat_no": "H1"}, deskToken)
	if w.Code != http.StatusForbidden {
		t.Fatalf("call desk must not enter heats, got %d", w.Code)
	}

	w = testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/rm/calls/"+callID, nil, deskToken)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for read, got %d", w.Code)
	}

	w = testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/rm/calls", nil, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}
}

// TestEntryErrorsAndConflicts tests field-level errors and duplicate handling
func TestEntryErrorsAndConflicts(t *testing.T) {
	env := setupRMTest(t)
	token := testutil.InspectorToken()

	callID := createCall(t, env, "RM-T-0003")
	heatID := addHeat(t, env, callID, "H1")

	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/rm/calls/"+callID+"/heats",
		map[string]interface{}{"heat_no": "H1"}, token)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate heat, got %d", w.Code)
	}

	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/rm/calls",
		map[string]interface{}{"call_no": "RM-T-0003", "product_model": "MK-III"}, testutil.DefaultTestToken())
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate call, got %d", w.Code)
	}

	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/rm/calls",
		map[string]interface{}{"product_model": "MK-IX"}, testutil.DefaultTestToken())
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown model, got %d", w.Code)
	}

	w = testutil.DoRequest(env.Router, http.MethodPut, "/api/v1/rm/calls/"+callID+"/heats/"+heatID+"/dimensional",
		map[string]interface{}{"diameters": []string{"20.64", "20.6412"}}, token)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", w.Code, w.Body.String())
	}
	fields := testutil.ParseResponse(w)["data"].(map[string]interface{})["fields"].(map[string]interface{})
	if _, ok := fields["diameters[2]"]; !ok {
		t.Fatalf("expected error on diameters[2], got %v", fields)
	}

	w = testutil.DoRequest(env.Router, http.MethodPut, "/api/v1/rm/calls/"+callID+"/heats/missing/ladle",
		map[string]interface{}{"values": map[string]string{"%C": "0.55"}}, token)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown heat, got %d", w.Code)
	}

	w = testutil.DoRequest(env.Router, http.MethodDelete, "/api/v1/rm/calls/"+callID+"/heats/"+heatID, nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on delete, got %d: %s", w.Code, w.Body.String())
	}
}

// TestValidateAndReference tests the single value check and reference tables
func TestValidateAndReference(t *testing.T) {
	env := setupRMTest(t)
	token := testutil.InspectorToken()

	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/rm/validate",
		map[string]interface{}{"attribute": "%p", "value": "0.035"}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if data["status"] != "fail" {
		t.Fatalf("expected fail, got %v", data["status"])
	}

	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/rm/validate",
		map[string]interface{}{"attribute": "hardness"}, token)
	data = testutil.ParseResponse(w)["data"].(map[string]interface{})
	if data["status"] != "indeterminate" || data["message"] != engine.MsgRequired {
		t.Fatalf("expected required, got %v", data)
	}

	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/rm/validate",
		map[string]interface{}{"attribute": "tensile", "value": "1"}, token)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown attribute, got %d", w.Code)
	}

	w = testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/rm/tolerance-bands", nil, token)
	bands := testutil.ParseResponse(w)["data"].([]interface{})
	if len(bands) != 2 {
		t.Fatalf("expected 2 bands, got %d", len(bands))
	}

	w = testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/rm/spec-limits", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

// TestDraftRoundTrip tests saving and loading a draft section
func TestDraftRoundTrip(t *testing.T) {
	env := setupRMTest(t)
	token := testutil.InspectorToken()
	createCall(t, env, "RM-T-0004")

	body := map[string]interface{}{"payload": map[string]interface{}{"diameters": []string{"20.6"}}}
	w := testutil.DoRequest(env.Router, http.MethodPut, "/api/v1/rm/drafts/RM-T-0004/dimensional", body, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/rm/drafts/RM-T-0004/dimensional", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if data["saved_by"] != "test-ie-001" {
		t.Fatalf("expected saved_by test-ie-001, got %v", data["saved_by"])
	}

	w = testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/rm/drafts/RM-T-0004/visual", nil, token)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing draft, got %d", w.Code)
	}
	w = testutil.DoRequest(env.Router, http.MethodPut, "/api/v1/rm/drafts/RM-T-0004/chemistry", body, token)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown section, got %d", w.Code)
	}
}

// TestExportReportDownload tests the xlsx download headers
func TestExportReportDownload(t *testing.T) {
	env := setupRMTest(t)
	callID := createCall(t, env, "RM-T-0005")
	addHeat(t, env, callID, "H1")

	w := testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/rm/calls/"+callID+"/report", nil, testutil.InspectorToken())
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "RM_Inspection_RM-T-0005.xlsx") {
		t.Fatalf("unexpected Content-Disposition %q", cd)
	}
	if w.Body.Len() == 0 {
		t.Fatal("expected xlsx body")
	}
}
