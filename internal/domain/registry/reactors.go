package registry

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/viniciussiqueiradecampos/dash-medicina/internal/platform/eventbus"
)

// ServiceTimeRecorder adds every recorded consultation duration onto the
// patient's accumulated service time.
type ServiceTimeRecorder struct {
	store  *Store
	logger zerolog.Logger
	unsub  eventbus.Unsubscribe
}

// NewServiceTimeRecorder subscribes to service-recorded on bus.
func NewServiceTimeRecorder(store *Store, bus *eventbus.Bus, logger zerolog.Logger) *ServiceTimeRecorder {
	r := &ServiceTimeRecorder{store: store, logger: logger.With().Str("component", "service_time").Logger()}
	r.unsub = eventbus.Subscribe(bus, eventbus.ServiceRecorded, r.handle)
	return r
}

func (r *ServiceTimeRecorder) handle(evt *eventbus.ServiceRecordedEvent) {
	if evt.Duration <= 0 {
		return
	}
	p, err := r.store.Apply(context.Background(), evt.PatientID, func(p *Patient) {
		p.ServiceTimer += evt.Duration
	})
	if err != nil {
		r.logger.Warn().Err(err).Str("patient_id", evt.PatientID).Msg("failed to record service time")
		return
	}
	r.logger.Info().
		Str("patient_id", evt.PatientID).
		Int("duration", evt.Duration).
		Int("total", p.ServiceTimer).
		Msg("service time recorded")
}

// Close stops listening.
func (r *ServiceTimeRecorder) Close() { r.unsub() }

// PrescriptionApplier moves a patient to the status carried by a saved
// prescription.
type PrescriptionApplier struct {
	store  *Store
	logger zerolog.Logger
	unsub  eventbus.Unsubscribe
}

// NewPrescriptionApplier subscribes to prescription-saved on bus.
func NewPrescriptionApplier(store *Store, bus *eventbus.Bus, logger zerolog.Logger) *PrescriptionApplier {
	a := &PrescriptionApplier{store: store, logger: logger.With().Str("component", "prescriptions").Logger()}
	a.unsub = eventbus.Subscribe(bus, eventbus.PrescriptionSaved, a.handle)
	return a
}

func (a *PrescriptionApplier) handle(evt *eventbus.PrescriptionSavedEvent) {
	a.logger.Info().
		Str("patient_id", evt.PatientID).
		Int("medications", len(evt.Medications)).
		Msg("prescription saved")

	if evt.Status == "" {
		return
	}
	_, err := a.store.Apply(context.Background(), evt.PatientID, func(p *Patient) {
		p.Status = Status(evt.Status)
	})
	if err != nil {
		a.logger.Warn().Err(err).Str("patient_id", evt.PatientID).Msg("failed to apply prescription status")
	}
}

// Close stops listening.
func (a *PrescriptionApplier) Close() { a.unsub() }
