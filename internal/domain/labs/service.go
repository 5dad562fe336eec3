package labs

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/viniciussiqueiradecampos/dash-medicina/internal/domain/registry"
)

var (
	ErrOrderNotFound    = errors.New("lab order not found")
	ErrInvalidOrder     = errors.New("invalid lab order")
	ErrStatusRegression = errors.New("lab order status cannot move backwards")
)

// PatientLookup finds a registry patient by id.
type PatientLookup interface {
	Get(id string) (registry.Patient, error)
}

// Service holds the in-progress exam orders and the result history.
type Service struct {
	patients PatientLookup
	logger   zerolog.Logger
	now      func() time.Time

	mu      sync.RWMutex
	orders  []Order
	history []HistoryEntry
	nextID  int
}

// Option configures a Service.
type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.logger = l.With().Str("component", "labs").Logger() }
}

// NewService returns a Service seeded with the reference worklist.
func NewService(patients PatientLookup, opts ...Option) *Service {
	s := &Service{patients: patients, logger: zerolog.Nop(), now: time.Now, nextID: 9024}
	for _, opt := range opts {
		opt(s)
	}
	now := s.now()
	s.orders = []Order{
		{ID: "LAB-9021", PatientID: "RG-2025-001", Patient: "Ruben George", Exam: "Blood Count (CBC)", Status: StatusPendingCollection, Priority: registry.LabelUrgent, RequestedAt: now.Add(-10 * time.Minute)},
		{ID: "LAB-9022", PatientID: "AJ-2025-012", Patient: "Alice Johnson", Exam: "CRP & Sed Rate", Status: StatusAwaitingAnalysis, Priority: registry.LabelRoutine, RequestedAt: now.Add(-time.Hour)},
		{ID: "LAB-9023", PatientID: "BS-2025-045", Patient: "Bob Smith", Exam: "Lipid Panel", Status: StatusInProcessing, Priority: registry.LabelCritical, RequestedAt: now.Add(-25 * time.Minute)},
	}
	s.history = []HistoryEntry{
		{ID: "LAB-8950", PatientID: "RG-2025-001", Patient: "Ruben George", Exam: "Liver Function Test", Result: "Normal", Date: "2025-11-08", Doctor: "Dr. Pedro Campos"},
		{ID: "LAB-8945", PatientID: "EM-2025-156", Patient: "Eva Martinez", Exam: "Thyroid Panel (TSH)", Result: "Elevated", Date: "2025-11-07", Doctor: "Dr. Pedro Campos"},
		{ID: "LAB-8940", PatientID: "DG-2025-102", Patient: "David Garcia", Exam: "Kidney Function (GFR)", Result: "Critical", Date: "2025-11-06", Doctor: "Dr. Ana Silva"},
	}
	return s
}

// matches reports whether search is a case-insensitive substring of any
// field. An empty search matches everything.
func matches(search string, fields ...string) bool {
	if search == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), search) {
			return true
		}
	}
	return false
}

// Orders lists open orders, newest first. status narrows to one stage;
// empty or "all" keeps every stage.
func (s *Service) Orders(search, status string) []Order {
	search = strings.ToLower(strings.TrimSpace(search))
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Order, 0, len(s.orders))
	for _, o := range s.orders {
		if status != "" && !strings.EqualFold(status, "all") && !strings.EqualFold(status, string(o.Status)) {
			continue
		}
		if !matches(search, o.Patient, o.PatientID, o.ID, o.Exam) {
			continue
		}
		out = append(out, o)
	}
	slices.SortStableFunc(out, func(a, b Order) int { return b.RequestedAt.Compare(a.RequestedAt) })
	return out
}

// History lists reported results in their recorded order.
func (s *Service) History(search string) []HistoryEntry {
	search = strings.ToLower(strings.TrimSpace(search))
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]HistoryEntry, 0, len(s.history))
	for _, h := range s.history {
		if matches(search, h.Patient, h.PatientID, h.ID, h.Exam) {
			out = append(out, h)
		}
	}
	return out
}

func parsePriority(v string) (registry.Label, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "routine":
		return registry.LabelRoutine, true
	case "urgent":
		return registry.LabelUrgent, true
	case "critical", "critical (stat)":
		return registry.LabelCritical, true
	}
	return "", false
}

// Request opens a new order in the Pending Collection stage.
func (s *Service) Request(req OrderRequest) (Order, error) {
	if req.PatientID == "" {
		return Order{}, fmt.Errorf("%w: patientId is required", ErrInvalidOrder)
	}
	p, err := s.patients.Get(req.PatientID)
	if err != nil {
		return Order{}, err
	}
	if !slices.Contains(ExamCategories, req.Exam) {
		return Order{}, fmt.Errorf("%w: unknown exam %q", ErrInvalidOrder, req.Exam)
	}
	priority, ok := parsePriority(req.Priority)
	if !ok {
		return Order{}, fmt.Errorf("%w: unknown priority %q", ErrInvalidOrder, req.Priority)
	}

	s.mu.Lock()
	o := Order{
		ID:          fmt.Sprintf("LAB-%d", s.nextID),
		PatientID:   p.ID,
		Patient:     p.Name,
		Exam:        req.Exam,
		Status:      StatusPendingCollection,
		Priority:    priority,
		RequestedAt: s.now(),
	}
	s.nextID++
	s.orders = append(s.orders, o)
	s.mu.Unlock()

	s.logger.Info().Str("order_id", o.ID).Str("patient_id", o.PatientID).Str("exam", o.Exam).Msg("lab order requested")
	return o, nil
}

// UpdateStatus advances an order. Setting the current stage again is a
// no-op; moving back is rejected.
func (s *Service) UpdateStatus(id string, status OrderStatus) (Order, error) {
	if !status.Valid() {
		return Order{}, fmt.Errorf("%w: unknown status %q", ErrInvalidOrder, status)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	i := slices.IndexFunc(s.orders, func(o Order) bool { return o.ID == id })
	if i < 0 {
		return Order{}, fmt.Errorf("%w: %s", ErrOrderNotFound, id)
	}
	if status.rank() < s.orders[i].Status.rank() {
		return Order{}, fmt.Errorf("%w: %s to %s", ErrStatusRegression, s.orders[i].Status, status)
	}
	s.orders[i].Status = status
	s.logger.Debug().Str("order_id", id).Str("status", string(status)).Msg("lab order advanced")
	return s.orders[i], nil
}
