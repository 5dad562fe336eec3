package labs

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/viniciussiqueiradecampos/dash-medicina/internal/domain/registry"
)

type lookup map[string]registry.Patient

func (l lookup) Get(id string) (registry.Patient, error) {
	p, ok := l[id]
	if !ok {
		return registry.Patient{}, fmt.Errorf("%w: %s", registry.ErrNotFound, id)
	}
	return p, nil
}

var testNow = time.Date(2025, 11, 10, 9, 0, 0, 0, time.UTC)

func newTestService() *Service {
	patients := lookup{}
	for _, p := range registry.Bootstrap() {
		patients[p.ID] = p
	}
	return NewService(patients, WithClock(func() time.Time { return testNow }))
}

func ids[T any](items []T, id func(T) string) []string {
	out := make([]string, len(items))
	for i, v := range items {
		out[i] = id(v)
	}
	return out
}

func orderID(o Order) string          { return o.ID }
func historyID(h HistoryEntry) string { return h.ID }

func TestOrders_NewestFirst(t *testing.T) {
	s := newTestService()

	got := ids(s.Orders("", ""), orderID)
	want := []string{"LAB-9021", "LAB-9023", "LAB-9022"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestOrders_Filter(t *testing.T) {
	s := newTestService()

	tests := []struct {
		name   string
		search string
		status string
		want   []string
	}{
		{"by patient name", "BOB", "", []string{"LAB-9023"}},
		{"by patient id", "aj-2025", "", []string{"LAB-9022"}},
		{"by exam", "lipid", "", []string{"LAB-9023"}},
		{"by status", "", "awaiting analysis", []string{"LAB-9022"}},
		{"all statuses", "", "all", []string{"LAB-9021", "LAB-9023", "LAB-9022"}},
		{"no match", "zzz", "", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(s.Orders(tt.search, tt.status), orderID)
			if fmt.Sprint(got) != fmt.Sprint(tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestHistory_Filter(t *testing.T) {
	s := newTestService()

	if got := ids(s.History(""), historyID); len(got) != 3 || got[0] != "LAB-8950" {
		t.Errorf("expected the full history in recorded order, got %v", got)
	}
	if got := ids(s.History("eva"), historyID); fmt.Sprint(got) != "[LAB-8945]" {
		t.Errorf("expected Eva Martinez's result, got %v", got)
	}
	if got := ids(s.History("DG-2025-102"), historyID); fmt.Sprint(got) != "[LAB-8940]" {
		t.Errorf("expected David Garcia's result, got %v", got)
	}
}

func TestRequest(t *testing.T) {
	s := newTestService()

	o, err := s.Request(OrderRequest{PatientID: "GL-2025-245", Exam: "Lipid Profile", Priority: "Critical (STAT)"})
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if o.ID != "LAB-9024" || o.Patient != "Grace Lee" {
		t.Errorf("unexpected order %+v", o)
	}
	if o.Status != StatusPendingCollection || o.Priority != registry.LabelCritical {
		t.Errorf("expected a critical pending order, got %s/%s", o.Status, o.Priority)
	}
	if !o.RequestedAt.Equal(testNow) {
		t.Errorf("expected requestedAt %v, got %v", testNow, o.RequestedAt)
	}

	next, err := s.Request(OrderRequest{PatientID: "FW-2025-201", Exam: "MRI / CT Scan"})
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if next.ID != "LAB-9025" || next.Priority != registry.LabelRoutine {
		t.Errorf("expected a routine LAB-9025, got %s/%s", next.ID, next.Priority)
	}
	if n := len(s.Orders("", "")); n != 5 {
		t.Errorf("expected 5 open orders, got %d", n)
	}
}

func TestRequest_Invalid(t *testing.T) {
	s := newTestService()

	tests := []struct {
		name string
		req  OrderRequest
		want error
	}{
		{"missing patient", OrderRequest{Exam: "Lipid Profile"}, ErrInvalidOrder},
		{"unknown patient", OrderRequest{PatientID: "nope", Exam: "Lipid Profile"}, registry.ErrNotFound},
		{"unknown exam", OrderRequest{PatientID: "RG-2025-001", Exam: "Tarot"}, ErrInvalidOrder},
		{"unknown priority", OrderRequest{PatientID: "RG-2025-001", Exam: "Lipid Profile", Priority: "Someday"}, ErrInvalidOrder},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.Request(tt.req); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
	if n := len(s.Orders("", "")); n != 3 {
		t.Errorf("rejected requests must not add orders, got %d", n)
	}
}

func TestUpdateStatus(t *testing.T) {
	s := newTestService()

	o, err := s.UpdateStatus("LAB-9021", StatusInProcessing)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if o.Status != StatusInProcessing {
		t.Errorf("expected In Processing, got %s", o.Status)
	}
	if _, err := s.UpdateStatus("LAB-9021", StatusInProcessing); err != nil {
		t.Errorf("repeating the current stage: %v", err)
	}
	if _, err := s.UpdateStatus("LAB-9021", StatusPendingCollection); !errors.Is(err, ErrStatusRegression) {
		t.Errorf("expected ErrStatusRegression, got %v", err)
	}
	if _, err := s.UpdateStatus("LAB-0000", StatusReady); !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("expected ErrOrderNotFound, got %v", err)
	}
	if _, err := s.UpdateStatus("LAB-9021", "Lost"); !errors.Is(err, ErrInvalidOrder) {
		t.Errorf("expected ErrInvalidOrder, got %v", err)
	}
}
