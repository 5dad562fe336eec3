// Package clinical serves the per-patient clinical overview: the active
// diagnosis with its imaging, recent lab results and the appointment
// history.
package clinical

// Diagnosis is the condition currently under treatment.
type Diagnosis struct {
	ID            string        `json:"id"`
	Title         string        `json:"title"`
	Details       string        `json:"details"`
	SeverityScore int           `json:"severityScore"` // 0-10
	IncidentDate  string        `json:"incidentDate"`
	Status        string        `json:"status"`
	Imaging       *ImagingStudy `json:"imaging,omitempty"`
}

type ImagingStudy struct {
	Title    string `json:"title"`
	View     string `json:"view"`
	Date     string `json:"date"`
	Findings string `json:"findings"`
}

// LabStatus classifies a lab value against its reference range.
type LabStatus string

const (
	LabNormal   LabStatus = "Normal"
	LabElevated LabStatus = "Elevated"
	LabLow      LabStatus = "Low"
)

type LabTrend string

const (
	TrendRising  LabTrend = "Rising"
	TrendStable  LabTrend = "Stable"
	TrendFalling LabTrend = "Falling"
)

type LabResult struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Value   string    `json:"value"`
	Unit    string    `json:"unit"`
	Status  LabStatus `json:"status"`
	Message string    `json:"message"`
	Trend   LabTrend  `json:"trend"`
}

type Appointment struct {
	ID     string `json:"id"`
	Date   string `json:"date"`
	Doctor string `json:"doctor"`
	Reason string `json:"reason"`
	Status string `json:"status"`
}

// Overview is everything the patient dashboard shows besides the patient
// record itself.
type Overview struct {
	PatientID    string        `json:"patientId"`
	Diagnosis    Diagnosis     `json:"diagnosis"`
	Labs         []LabResult   `json:"labs"`
	Appointments []Appointment `json:"appointments"`
}

// Abnormal returns the lab results whose status is not Normal.
func (o *Overview) Abnormal() []LabResult {
	var out []LabResult
	for _, l := range o.Labs {
		if l.Status != LabNormal {
			out = append(out, l)
		}
	}
	return out
}
