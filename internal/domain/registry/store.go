// Package registry owns the patient list and the current selection shared by
// every dashboard view. The Store persists each mutation to durable
// key/value storage and announces changes on the event bus.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/viniciussiqueiradecampos/dash-medicina/internal/platform/eventbus"
	"github.com/viniciussiqueiradecampos/dash-medicina/internal/platform/kv"
)

// Storage keys.
const (
	KeyPatients  = "patients"
	KeyCurrentID = "current_patient_id"
)

var (
	ErrNotFound              = errors.New("patient not found")
	ErrDuplicateID           = errors.New("patient id already exists")
	ErrInvalidPatient        = errors.New("invalid patient")
	ErrServiceTimerDecreased = errors.New("serviceTimer cannot decrease")
)

// Recorder receives store instrumentation. The metrics package implements it.
type Recorder interface {
	RecordMutation(op string, err error)
	RecordStorageFailure()
	SetPatientCount(n int)
}

type nopRecorder struct{}

func (nopRecorder) RecordMutation(string, error) {}
func (nopRecorder) RecordStorageFailure()        {}
func (nopRecorder) SetPatientCount(int)          {}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for storage warnings.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.logger = l.With().Str("component", "registry").Logger() }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithRecorder attaches instrumentation.
func WithRecorder(r Recorder) Option {
	return func(s *Store) {
		if r != nil {
			s.metrics = r
		}
	}
}

// Store is the single writer of the patient list and the current
// selection. It is safe for concurrent use; every returned Patient is a copy.
type Store struct {
	storage kv.Storage
	bus     *eventbus.Bus
	logger  zerolog.Logger
	now     func() time.Time
	metrics Recorder

	mu          sync.RWMutex
	initialized bool
	patients    []Patient
	index       map[string]int
	currentID   string
	storageErr  error
	revision    uint64
	pending     []func()

	// outbox holds notifications in mutation order. One goroutine at a time
	// drains it.
	outMu    sync.Mutex
	outbox   []func()
	draining bool
}

// New returns a Store backed by storage. The persisted state is loaded on
// first access or by an explicit Initialize.
func New(storage kv.Storage, bus *eventbus.Bus, opts ...Option) *Store {
	s := &Store{
		storage: storage,
		bus:     bus,
		logger:  zerolog.Nop(),
		now:     time.Now,
		metrics: nopRecorder{},
		index:   make(map[string]int),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open is New followed by Initialize.
func Open(ctx context.Context, storage kv.Storage, bus *eventbus.Bus, opts ...Option) (*Store, error) {
	s := New(storage, bus, opts...)
	if err := s.Initialize(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Initialize loads the persisted list and selection. Missing or corrupt
// data is replaced by the bootstrap dataset; unreadable storage switches the
// store to memory-only mode. Calls after the first are no-ops.
func (s *Store) Initialize(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	if s.initialized {
		s.mu.Unlock()
		return nil
	}
	s.initialized = true

	patients, ok := s.loadPatients(ctx)
	if !ok {
		patients = Bootstrap()
		s.replaceList(patients)
		s.persistPatients(ctx)
		rev := s.nextRevision()
		s.queue(func() {
			eventbus.Publish(s.bus, eventbus.PatientsChanged, &eventbus.PatientsChangedEvent{
				Kind:     eventbus.ChangeSeeded,
				Count:    len(patients),
				Revision: rev,
			})
		})
	} else {
		s.replaceList(patients)
	}

	s.currentID = ""
	if id, ok := s.loadCurrentID(ctx); ok {
		if _, exists := s.index[id]; exists {
			s.currentID = id
		}
	}
	if s.currentID == "" && len(s.patients) > 0 {
		s.currentID = s.patients[0].ID
	}
	s.metrics.SetPatientCount(len(s.patients))

	s.logger.Info().
		Int("patients", len(s.patients)).
		Str("current", s.currentID).
		Bool("seeded", !ok).
		Msg("registry initialized")

	s.unlockAndNotify()
	return nil
}

// ListPatients returns every patient in insertion order.
func (s *Store) ListPatients() []Patient {
	s.ensure()
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Patient, len(s.patients))
	copy(out, s.patients)
	return out
}

// Get returns the patient with id.
func (s *Store) Get(id string) (Patient, error) {
	s.ensure()
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[id]
	if !ok {
		return Patient{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.patients[i], nil
}

// Current returns the selected patient, or false when the list is empty.
func (s *Store) Current() (Patient, bool) {
	s.ensure()
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[s.currentID]
	if !ok {
		return Patient{}, false
	}
	return s.patients[i], true
}

// SetCurrent selects the patient with id, persists the selection and
// notifies subscribers before returning.
func (s *Store) SetCurrent(ctx context.Context, id string) error {
	s.ensure()
	s.mu.Lock()

	if _, ok := s.index[id]; !ok {
		s.mu.Unlock()
		err := fmt.Errorf("%w: %s", ErrNotFound, id)
		s.metrics.RecordMutation("set_current", err)
		return err
	}

	s.currentID = id
	s.persistSelection(ctx)
	s.queueSelectionChanged()
	s.unlockAndNotify()

	s.metrics.RecordMutation("set_current", nil)
	return nil
}

// UpdatePatient replaces the record with the same id. The id itself never
// changes; serviceTimer may only grow.
func (s *Store) UpdatePatient(ctx context.Context, p Patient) error {
	s.ensure()
	err := s.update(ctx, p)
	s.metrics.RecordMutation("update", err)
	return err
}

func (s *Store) update(ctx context.Context, p Patient) error {
	s.mu.Lock()

	i, ok := s.index[p.ID]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, p.ID)
	}
	if err := s.replaceAt(ctx, i, p); err != nil {
		s.mu.Unlock()
		return err
	}
	s.unlockAndNotify()
	return nil
}

// Apply runs fn on a copy of the patient with id and stores the result under
// the same rules as UpdatePatient, atomically with respect to other
// mutators. fn cannot change the id.
func (s *Store) Apply(ctx context.Context, id string, fn func(p *Patient)) (Patient, error) {
	s.ensure()
	s.mu.Lock()

	i, ok := s.index[id]
	if !ok {
		s.mu.Unlock()
		err := fmt.Errorf("%w: %s", ErrNotFound, id)
		s.metrics.RecordMutation("update", err)
		return Patient{}, err
	}
	p := s.patients[i]
	fn(&p)
	p.ID = id
	if err := s.replaceAt(ctx, i, p); err != nil {
		s.mu.Unlock()
		s.metrics.RecordMutation("update", err)
		return Patient{}, err
	}
	s.unlockAndNotify()

	s.metrics.RecordMutation("update", nil)
	return p, nil
}

func (s *Store) replaceAt(ctx context.Context, i int, p Patient) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if prev := s.patients[i].ServiceTimer; p.ServiceTimer < prev {
		return fmt.Errorf("%w: %s from %d to %d", ErrServiceTimerDecreased, p.ID, prev, p.ServiceTimer)
	}

	s.patients[i] = p
	s.persistPatients(ctx)
	count := len(s.patients)
	rev := s.nextRevision()
	s.queue(func() {
		eventbus.Publish(s.bus, eventbus.PatientsChanged, &eventbus.PatientsChangedEvent{
			Kind:      eventbus.ChangeUpdated,
			PatientID: p.ID,
			Count:     count,
			Revision:  rev,
		})
	})
	return nil
}

// AddPatient appends p to the registry. A blank id is generated. The new
// patient becomes current when nothing was selected.
func (s *Store) AddPatient(ctx context.Context, p Patient) (Patient, error) {
	s.ensure()
	out, err := s.add(ctx, p)
	s.metrics.RecordMutation("add", err)
	return out, err
}

func (s *Store) add(ctx context.Context, p Patient) (Patient, error) {
	if strings.TrimSpace(p.ID) == "" {
		p.ID = generateID(p.Name, s.now())
	}
	if err := p.Validate(); err != nil {
		return Patient{}, err
	}

	s.mu.Lock()
	if _, exists := s.index[p.ID]; exists {
		s.mu.Unlock()
		return Patient{}, fmt.Errorf("%w: %s", ErrDuplicateID, p.ID)
	}

	s.patients = append(s.patients, p)
	s.index[p.ID] = len(s.patients) - 1
	s.persistPatients(ctx)
	count := len(s.patients)
	rev := s.nextRevision()
	s.queue(func() {
		eventbus.Publish(s.bus, eventbus.PatientsChanged, &eventbus.PatientsChangedEvent{
			Kind:      eventbus.ChangeAdded,
			PatientID: p.ID,
			Count:     count,
			Revision:  rev,
		})
	})
	if s.currentID == "" {
		s.currentID = p.ID
		s.persistSelection(ctx)
		s.queueSelectionChanged()
	}
	s.metrics.SetPatientCount(count)
	s.unlockAndNotify()
	return p, nil
}

// RemovePatient deletes the patient with id. When it was current, the
// selection moves to the first remaining patient, or to none.
func (s *Store) RemovePatient(ctx context.Context, id string) error {
	s.ensure()
	err := s.remove(ctx, id)
	s.metrics.RecordMutation("remove", err)
	return err
}

func (s *Store) remove(ctx context.Context, id string) error {
	s.mu.Lock()

	i, ok := s.index[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	next := make([]Patient, 0, len(s.patients)-1)
	next = append(next, s.patients[:i]...)
	next = append(next, s.patients[i+1:]...)
	s.replaceList(next)
	s.persistPatients(ctx)
	count := len(s.patients)
	rev := s.nextRevision()
	s.queue(func() {
		eventbus.Publish(s.bus, eventbus.PatientsChanged, &eventbus.PatientsChangedEvent{
			Kind:      eventbus.ChangeRemoved,
			PatientID: id,
			Count:     count,
			Revision:  rev,
		})
	})

	if s.currentID == id {
		s.currentID = ""
		if len(s.patients) > 0 {
			s.currentID = s.patients[0].ID
		}
		s.persistSelection(ctx)
		s.queueSelectionChanged()
	}
	s.metrics.SetPatientCount(count)
	s.unlockAndNotify()
	return nil
}

// Reset discards the persisted state and re-seeds the bootstrap dataset.
func (s *Store) Reset(ctx context.Context) error {
	s.ensure()
	s.mu.Lock()

	if s.storageErr == nil {
		for _, key := range []string{KeyPatients, KeyCurrentID} {
			if err := s.storage.Delete(storageCtx(ctx), key); err != nil {
				s.markDegraded(err)
				break
			}
		}
	}

	s.replaceList(Bootstrap())
	s.currentID = s.patients[0].ID
	s.persistPatients(ctx)
	s.persistSelection(ctx)
	count := len(s.patients)
	rev := s.nextRevision()
	s.queue(func() {
		eventbus.Publish(s.bus, eventbus.PatientsChanged, &eventbus.PatientsChangedEvent{
			Kind:     eventbus.ChangeReset,
			Count:    count,
			Revision: rev,
		})
	})
	s.queueSelectionChanged()
	s.metrics.SetPatientCount(count)
	s.unlockAndNotify()

	s.metrics.RecordMutation("reset", nil)
	return nil
}

// Degraded reports whether the store has fallen back to memory-only mode.
func (s *Store) Degraded() bool {
	return s.StorageErr() != nil
}

// StorageErr returns the storage failure that caused memory-only mode.
func (s *Store) StorageErr() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.storageErr
}

// ---------------------------------------------------------------------------
// internals; callers hold s.mu for writing
// ---------------------------------------------------------------------------

func (s *Store) ensure() {
	s.mu.RLock()
	ok := s.initialized
	s.mu.RUnlock()
	if !ok {
		_ = s.Initialize(context.Background())
	}
}

func (s *Store) replaceList(patients []Patient) {
	s.patients = patients
	s.index = make(map[string]int, len(patients))
	for i, p := range patients {
		s.index[p.ID] = i
	}
}

func (s *Store) loadPatients(ctx context.Context) ([]Patient, bool) {
	data, err := s.storage.Get(storageCtx(ctx), KeyPatients)
	switch {
	case errors.Is(err, kv.ErrKeyNotFound):
		return nil, false
	case err != nil:
		s.markDegraded(err)
		return nil, false
	}

	patients, err := decodePatients(data)
	if err != nil {
		s.logger.Warn().Err(err).Msg("discarding corrupt persisted patients")
		return nil, false
	}
	return patients, true
}

func (s *Store) loadCurrentID(ctx context.Context) (string, bool) {
	if s.storageErr != nil {
		return "", false
	}
	data, err := s.storage.Get(storageCtx(ctx), KeyCurrentID)
	switch {
	case errors.Is(err, kv.ErrKeyNotFound):
		return "", false
	case err != nil:
		s.markDegraded(err)
		return "", false
	}

	var id string
	if err := json.Unmarshal(data, &id); err != nil {
		// Older writers stored the bare id.
		id = strings.TrimSpace(string(data))
	}
	return id, id != ""
}

func decodePatients(data []byte) ([]Patient, error) {
	var patients []Patient
	if err := json.Unmarshal(data, &patients); err != nil {
		return nil, fmt.Errorf("decode patients: %w", err)
	}
	if patients == nil {
		return nil, errors.New("decode patients: not an array")
	}
	seen := make(map[string]bool, len(patients))
	for i := range patients {
		if err := patients[i].Validate(); err != nil {
			return nil, fmt.Errorf("decode patients: record %d: %w", i, err)
		}
		if seen[patients[i].ID] {
			return nil, fmt.Errorf("decode patients: %w: %s", ErrDuplicateID, patients[i].ID)
		}
		seen[patients[i].ID] = true
	}
	return patients, nil
}

// storageCtx keeps the caller's values but not its cancellation: a mutation
// applied in memory is always written through.
func storageCtx(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}

func (s *Store) persistPatients(ctx context.Context) {
	if s.storageErr != nil {
		return
	}
	ctx = storageCtx(ctx)
	data, err := json.Marshal(s.patients)
	if err != nil {
		s.markDegraded(err)
		return
	}
	if err := s.storage.Set(ctx, KeyPatients, data); err != nil {
		s.markDegraded(err)
	}
}

func (s *Store) persistSelection(ctx context.Context) {
	if s.storageErr != nil {
		return
	}
	ctx = storageCtx(ctx)
	var err error
	if s.currentID == "" {
		err = s.storage.Delete(ctx, KeyCurrentID)
	} else {
		data, _ := json.Marshal(s.currentID)
		err = s.storage.Set(ctx, KeyCurrentID, data)
	}
	if err != nil {
		s.markDegraded(err)
	}
}

// markDegraded switches to memory-only mode. Only the first failure is
// logged and announced.
func (s *Store) markDegraded(err error) {
	if s.storageErr != nil {
		return
	}
	s.storageErr = err
	s.metrics.RecordStorageFailure()
	s.logger.Warn().Err(err).Msg("durable storage unavailable, continuing in memory only")

	evt := &eventbus.StorageDegradedEvent{Reason: err.Error(), At: s.now()}
	s.queue(func() { eventbus.Publish(s.bus, eventbus.StorageDegraded, evt) })
}

func (s *Store) queueSelectionChanged() {
	id, rev := s.currentID, s.nextRevision()
	s.queue(func() {
		eventbus.Publish(s.bus, eventbus.SelectionChanged, &eventbus.SelectionChangedEvent{PatientID: id, Revision: rev})
	})
}

func (s *Store) nextRevision() uint64 {
	s.revision++
	return s.revision
}

func (s *Store) queue(fn func()) {
	if s.bus == nil {
		return
	}
	s.pending = append(s.pending, fn)
}

// unlockAndNotify moves the queued notifications to the outbox while still
// holding s.mu, releases s.mu and drains the outbox, so subscribers can read
// and mutate the store from their handlers.
func (s *Store) unlockAndNotify() {
	pending := s.pending
	s.pending = nil
	s.outMu.Lock()
	s.outbox = append(s.outbox, pending...)
	s.outMu.Unlock()
	s.mu.Unlock()

	s.drain()
}

// drain delivers outbox notifications in order. When another call is
// already draining, including an outer call on this goroutine whose
// subscriber mutated the store, that call delivers them and drain returns.
func (s *Store) drain() {
	s.outMu.Lock()
	if s.draining {
		s.outMu.Unlock()
		return
	}
	s.draining = true
	for len(s.outbox) > 0 {
		fn := s.outbox[0]
		s.outbox = s.outbox[1:]
		s.outMu.Unlock()
		s.deliver(fn)
		s.outMu.Lock()
	}
	s.draining = false
	s.outMu.Unlock()
}

func (s *Store) deliver(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Interface("panic", r).Msg("registry subscriber panicked")
		}
	}()
	fn()
}

// generateID derives a registry id in the "RG-2025-001" style from the
// patient's initials, the year and a random suffix.
func generateID(name string, now time.Time) string {
	var initials []rune
	for _, part := range strings.Fields(name) {
		initials = append(initials, []rune(strings.ToUpper(part))[0])
		if len(initials) == 2 {
			break
		}
	}
	if len(initials) == 0 {
		initials = []rune("PT")
	}
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("%s-%d-%s", string(initials), now.Year(), suffix)
}
