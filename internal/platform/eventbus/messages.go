package eventbus

import "time"

// Topics known to the dashboard. The set is closed: new variants are added
// here together with their payload type.
var (
	OpenModal         = Topic[ModalRequest]{name: "open-modal"}
	PrescriptionSaved = Topic[PrescriptionSavedEvent]{name: "prescription-saved"}
	ServiceRecorded   = Topic[ServiceRecordedEvent]{name: "service-recorded"}
	PatientsChanged   = Topic[PatientsChangedEvent]{name: "patients-changed"}
	SelectionChanged  = Topic[SelectionChangedEvent]{name: "selection-changed"}
	StorageDegraded   = Topic[StorageDegradedEvent]{name: "storage-degraded"}
)

// ModalKind identifies a dialog the view layer can be asked to open.
type ModalKind string

const (
	ModalAppointment  ModalKind = "appointment"
	ModalImage        ModalKind = "image"
	ModalPrescription ModalKind = "prescription"
	ModalLabOrder     ModalKind = "lab-order"
	ModalIntervention ModalKind = "intervention"
	ModalRecoveryGoal ModalKind = "recovery-goal"
	ModalLabExam      ModalKind = "lab-exam"
	ModalHistory      ModalKind = "history"
)

var modalKinds = map[ModalKind]bool{
	ModalAppointment:  true,
	ModalImage:        true,
	ModalPrescription: true,
	ModalLabOrder:     true,
	ModalIntervention: true,
	ModalRecoveryGoal: true,
	ModalLabExam:      true,
	ModalHistory:      true,
}

// Valid reports whether k is one of the known modals.
func (k ModalKind) Valid() bool { return modalKinds[k] }

// ModalRequest asks the view layer to open a modal. Payload is one of
// *AppointmentDetail, *ImageDetail, *LabExamDetail or nil, depending on Modal.
type ModalRequest struct {
	Modal   ModalKind `json:"modal"`
	Payload any       `json:"payload,omitempty"`
}

// AppointmentDetail is the content of the appointment modal.
type AppointmentDetail struct {
	ID     string `json:"id"`
	Date   string `json:"date"`
	Doctor string `json:"doctor"`
	Reason string `json:"reason"`
	Status string `json:"status"`
}

// ImageDetail is the content of the image viewer.
type ImageDetail struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// LabExamDetail is the content of the lab exam modal.
type LabExamDetail struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Value   string `json:"value"`
	Unit    string `json:"unit"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Medication is one line of a prescription.
type Medication struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Route         string `json:"route"`
	Concentration string `json:"concentration"`
	Dosage        string `json:"dosage"`
	Duration      string `json:"duration"`
	Observations  string `json:"observations"`
}

// PrescriptionSavedEvent announces a saved prescription.
type PrescriptionSavedEvent struct {
	PatientID   string       `json:"patientId"`
	PatientName string       `json:"patientName"`
	Status      string       `json:"status"`
	Medications []Medication `json:"medications"`
}

// ServiceRecordedEvent announces a finished consultation.
type ServiceRecordedEvent struct {
	PatientID string    `json:"patientId"`
	Duration  int       `json:"duration"`
	Timestamp time.Time `json:"timestamp"`
}

// ChangeKind says what happened to the registry.
type ChangeKind string

const (
	ChangeSeeded  ChangeKind = "seeded"
	ChangeAdded   ChangeKind = "added"
	ChangeUpdated ChangeKind = "updated"
	ChangeRemoved ChangeKind = "removed"
	ChangeReset   ChangeKind = "reset"
)

// PatientsChangedEvent is published by the registry after every list
// mutation. Revision increases with every registry notification, across
// both registry topics.
type PatientsChangedEvent struct {
	Kind      ChangeKind `json:"kind"`
	PatientID string     `json:"patientId,omitempty"`
	Count     int        `json:"count"`
	Revision  uint64     `json:"revision"`
}

// SelectionChangedEvent is published by the registry when the current
// patient changes. PatientID is empty when nothing is selected.
type SelectionChangedEvent struct {
	PatientID string `json:"patientId"`
	Revision  uint64 `json:"revision"`
}

// StorageDegradedEvent is published once when durable storage fails and the
// registry continues in memory only.
type StorageDegradedEvent struct {
	Reason string    `json:"reason"`
	At     time.Time `json:"at"`
}

func (*ModalRequest) busMessage()           {}
func (*PrescriptionSavedEvent) busMessage() {}
func (*ServiceRecordedEvent) busMessage()   {}
func (*PatientsChangedEvent) busMessage()   {}
func (*SelectionChangedEvent) busMessage()  {}
func (*StorageDegradedEvent) busMessage()   {}
