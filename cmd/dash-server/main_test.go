package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/viniciussiqueiradecampos/dash-medicina/internal/config"
	"github.com/viniciussiqueiradecampos/dash-medicina/internal/domain/registry"
	"github.com/viniciussiqueiradecampos/dash-medicina/internal/platform/kv"
)

func newTestApp(t *testing.T) (*app, *echo.Echo, *kv.MemoryStorage) {
	t.Helper()
	return newTestAppWith(t, true)
}

func newTestAppWith(t *testing.T, eager bool) (*app, *echo.Echo, *kv.MemoryStorage) {
	t.Helper()
	cfg := &config.Config{
		Port:          "8080",
		Env:           "test",
		StorageDriver: kv.DriverMemory,
		CORSOrigins:   []string{"*"},
		EagerInit:     eager,
	}
	storage := kv.NewMemoryStorage()
	a, err := newApp(context.Background(), cfg, zerolog.Nop(), storage)
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a, a.routes(), storage
}

func do(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	_, e, _ := newTestApp(t)

	rec := do(e, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" || body["storage"] != "durable" {
		t.Errorf("unexpected health body: %v", body)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected a request id header")
	}
}

func TestNewApp_LazyInit(t *testing.T) {
	_, e, storage := newTestAppWith(t, false)

	if n := storage.SetCount(); n != 0 {
		t.Fatalf("expected no writes before first access, got %d", n)
	}

	rec := do(e, http.MethodGet, "/api/v1/patients/current", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "RG-2025-001") {
		t.Errorf("expected the seeded first patient, got %s", rec.Body.String())
	}
	if storage.SetCount() == 0 {
		t.Error("expected the bootstrap dataset to be persisted on first access")
	}
}

func TestHealth_MemoryOnly(t *testing.T) {
	a, e, storage := newTestApp(t)

	storage.FailWrites(kv.ErrUnavailable)
	if err := a.store.SetCurrent(context.Background(), "BS-2025-045"); err != nil {
		t.Fatalf("SetCurrent: %v", err)
	}

	rec := do(e, http.MethodGet, "/health", "")
	if !strings.Contains(rec.Body.String(), "memory-only") {
		t.Errorf("expected memory-only storage, got %s", rec.Body.String())
	}
}

func TestRoutes_Patients(t *testing.T) {
	_, e, _ := newTestApp(t)

	rec := do(e, http.MethodGet, "/api/v1/patients", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Total int `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 7 {
		t.Errorf("expected 7 bootstrap patients, got %d", resp.Total)
	}

	if rec := do(e, http.MethodGet, "/api/v1/patients/RG-2025-001/overview", ""); rec.Code != http.StatusOK {
		t.Errorf("overview: expected 200, got %d", rec.Code)
	}
	if rec := do(e, http.MethodGet, "/api/v1/patients/nope/overview", ""); rec.Code != http.StatusNotFound {
		t.Errorf("overview: expected 404, got %d", rec.Code)
	}
	if rec := do(e, http.MethodGet, "/api/v1/consultation", ""); rec.Code != http.StatusOK {
		t.Errorf("consultation: expected 200, got %d", rec.Code)
	}
	if rec := do(e, http.MethodGet, "/api/v1/reports", ""); rec.Code != http.StatusOK {
		t.Errorf("reports: expected 200, got %d", rec.Code)
	}
}

func TestRoutes_Labs(t *testing.T) {
	_, e, _ := newTestApp(t)

	rec := do(e, http.MethodPost, "/api/v1/labs/orders",
		`{"patientId":"GL-2025-245","exam":"Lipid Profile","priority":"Urgent"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(e, http.MethodGet, "/api/v1/labs/orders?q=grace", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Grace Lee") {
		t.Errorf("expected Grace Lee's order, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec := do(e, http.MethodGet, "/api/v1/labs/history", ""); rec.Code != http.StatusOK {
		t.Errorf("history: expected 200, got %d", rec.Code)
	}
}

func TestRoutes_ReportsPage(t *testing.T) {
	_, e, _ := newTestApp(t)

	rec := do(e, http.MethodGet, "/reports", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); !strings.HasPrefix(ct, echo.MIMETextHTML) {
		t.Errorf("expected html, got %q", ct)
	}
}

func TestRoutes_Metrics(t *testing.T) {
	_, e, _ := newTestApp(t)

	do(e, http.MethodGet, "/api/v1/patients", "")
	rec := do(e, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	for _, want := range []string{"dash_http_requests_total", "dash_registry_patients"} {
		if !strings.Contains(rec.Body.String(), want) {
			t.Errorf("metrics output missing %s", want)
		}
	}
}

func TestPublishEvent_ServiceRecorded(t *testing.T) {
	a, e, _ := newTestApp(t)

	rec := do(e, http.MethodPost, "/api/v1/events/service-recorded",
		`{"patientId":"RG-2025-001","duration":125}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}

	p, err := a.store.Get("RG-2025-001")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if p.ServiceTimer != 125 {
		t.Errorf("expected service timer 125, got %d", p.ServiceTimer)
	}
}

func TestPublishEvent_PrescriptionSaved(t *testing.T) {
	a, e, _ := newTestApp(t)

	rec := do(e, http.MethodPost, "/api/v1/events/prescription-saved",
		`{"patientId":"DG-2025-102","status":"Recovered","medications":[]}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}

	p, _ := a.store.Get("DG-2025-102")
	if p.Status != registry.StatusRecovered {
		t.Errorf("expected Recovered, got %q", p.Status)
	}
}

func TestPublishEvent_Errors(t *testing.T) {
	_, e, _ := newTestApp(t)

	tests := []struct {
		name  string
		topic string
		body  string
		want  int
	}{
		{"unknown topic", "bogus", `{}`, http.StatusNotFound},
		{"registry topic", "patients-changed", `{}`, http.StatusForbidden},
		{"malformed body", "service-recorded", `{`, http.StatusBadRequest},
		{"unknown modal", "open-modal", `{"modal":"nope"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(e, http.MethodPost, "/api/v1/events/"+tt.topic, tt.body)
			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

func TestPrintPatients(t *testing.T) {
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)

	printPatients(cmd, []registry.Patient{
		{ID: "RG-2025-001", Name: "Ruben George", Label: registry.LabelUrgent, Status: registry.StatusInTreatment, ServiceTimer: 125},
		{ID: "BS-2025-002", Name: "Bob Smith", Label: registry.LabelRoutine, Status: registry.StatusRecovered},
	}, "BS-2025-002")

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header, rule and 2 rows, got %d lines:\n%s", len(lines), out.String())
	}
	if !strings.Contains(lines[2], "00:02:05") {
		t.Errorf("expected formatted service time, got %q", lines[2])
	}
	if !strings.HasPrefix(lines[3], "*") {
		t.Errorf("expected current patient marker, got %q", lines[3])
	}
}
