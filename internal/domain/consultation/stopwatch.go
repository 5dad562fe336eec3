// Package consultation times the consultation in progress and records its
// duration against the selected patient.
package consultation

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/viniciussiqueiradecampos/dash-medicina/internal/platform/eventbus"
)

// Stopwatch is a start/pause/stop timer. Stopping it publishes the elapsed
// whole seconds on the service-recorded topic.
type Stopwatch struct {
	bus    *eventbus.Bus
	logger zerolog.Logger
	now    func() time.Time

	mu        sync.Mutex
	running   bool
	startedAt time.Time
	banked    time.Duration
}

// Option configures a Stopwatch.
type Option func(*Stopwatch)

func WithClock(now func() time.Time) Option {
	return func(s *Stopwatch) { s.now = now }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Stopwatch) { s.logger = l.With().Str("component", "consultation").Logger() }
}

func NewStopwatch(bus *eventbus.Bus, opts ...Option) *Stopwatch {
	s := &Stopwatch{bus: bus, logger: zerolog.Nop(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start resumes counting. Starting a running stopwatch does nothing.
func (s *Stopwatch) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.startedAt = s.now()
}

// Pause stops counting but keeps the elapsed time.
func (s *Stopwatch) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.banked += s.now().Sub(s.startedAt)
	s.running = false
}

func (s *Stopwatch) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Elapsed returns the time counted so far, truncated to whole seconds.
func (s *Stopwatch) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elapsed()
}

func (s *Stopwatch) elapsed() time.Duration {
	d := s.banked
	if s.running {
		d += s.now().Sub(s.startedAt)
	}
	return d.Truncate(time.Second)
}

// Stop resets the stopwatch. When at least one second was counted it
// publishes a ServiceRecordedEvent for patientID and returns it.
func (s *Stopwatch) Stop(patientID string) (eventbus.ServiceRecordedEvent, bool) {
	s.mu.Lock()
	seconds := int(s.elapsed() / time.Second)
	s.running = false
	s.banked = 0
	at := s.now()
	s.mu.Unlock()

	if seconds <= 0 {
		return eventbus.ServiceRecordedEvent{}, false
	}

	evt := eventbus.ServiceRecordedEvent{PatientID: patientID, Duration: seconds, Timestamp: at}
	s.logger.Info().
		Str("patient_id", patientID).
		Int("duration", seconds).
		Str("display", Format(time.Duration(seconds)*time.Second)).
		Msg("consultation stopped")

	published := evt
	eventbus.Publish(s.bus, eventbus.ServiceRecorded, &published)
	return evt, true
}

// Format renders d as HH:MM:SS. Hours are not wrapped at 24.
func Format(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, total%3600/60, total%60)
}
