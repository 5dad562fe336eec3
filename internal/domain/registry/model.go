package registry

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Patient is one person under care. The JSON names are the persisted
// layout of the "patients" key.
type Patient struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Gender       string    `json:"gender"`
	Age          int       `json:"age"`
	BirthDate    string    `json:"birthDate"`
	Weight       string    `json:"weight"`
	Height       string    `json:"height"`
	BloodType    BloodType `json:"bloodType"`
	Treatment    string    `json:"treatment"`
	Status       Status    `json:"status"`
	Label        Label     `json:"label"`
	Image        string    `json:"image"`
	ServiceTimer int       `json:"serviceTimer,omitempty"`
	Diagnosis    string    `json:"diagnosis,omitempty"`
	LastVisit    string    `json:"lastVisit,omitempty"`
}

// Label is the triage priority shown next to a patient.
type Label string

const (
	LabelUrgent   Label = "Urgent"
	LabelCritical Label = "Critical"
	LabelRoutine  Label = "Routine"
)

// Valid reports whether l is one of the three triage labels.
func (l Label) Valid() bool {
	switch l {
	case LabelUrgent, LabelCritical, LabelRoutine:
		return true
	}
	return false
}

// BloodType is an ABO/Rh group.
type BloodType string

const (
	BloodAPos  BloodType = "A+"
	BloodANeg  BloodType = "A-"
	BloodBPos  BloodType = "B+"
	BloodBNeg  BloodType = "B-"
	BloodABPos BloodType = "AB+"
	BloodABNeg BloodType = "AB-"
	BloodOPos  BloodType = "O+"
	BloodONeg  BloodType = "O-"
)

// Valid reports whether b is one of the eight blood groups.
func (b BloodType) Valid() bool {
	switch b {
	case BloodAPos, BloodANeg, BloodBPos, BloodBNeg, BloodABPos, BloodABNeg, BloodOPos, BloodONeg:
		return true
	}
	return false
}

// Status is free text. The constants are the values the dashboard uses;
// anything else is accepted as is.
type Status string

const (
	StatusInTreatment    Status = "In Treatment"
	StatusRecovered      Status = "Recovered"
	StatusEmergency      Status = "Emergency"
	StatusSurgeryPending Status = "Surgery Pending"
	StatusObservation    Status = "Observation"
	StatusTherapy        Status = "Therapy"
	StatusIntensiveCare  Status = "Intensive Care"
)

// Completed reports whether the patient's care is finished.
func (s Status) Completed() bool {
	return s == StatusRecovered
}

// measureUnits are checked in order, so longer suffixes come first.
var measureUnits = []string{"lbs", "kg", "cm", "ft", "m"}

// ParseMeasure splits a value such as "82kg" into 82 and "kg".
func ParseMeasure(s string) (float64, string, error) {
	s = strings.TrimSpace(s)
	for _, unit := range measureUnits {
		if !strings.HasSuffix(s, unit) {
			continue
		}
		num := strings.TrimSpace(strings.TrimSuffix(s, unit))
		v, err := strconv.ParseFloat(num, 64)
		if err != nil {
			return 0, "", fmt.Errorf("measure %q: %w", s, err)
		}
		if v < 0 {
			return 0, "", fmt.Errorf("measure %q: negative value", s)
		}
		return v, unit, nil
	}
	return 0, "", fmt.Errorf("measure %q: unknown unit", s)
}

// Validate checks the record's type shape. Status and the free-text
// fields are not constrained.
func (p *Patient) Validate() error {
	var errs []error
	if strings.TrimSpace(p.ID) == "" {
		errs = append(errs, errors.New("id is required"))
	}
	if p.Age < 0 {
		errs = append(errs, fmt.Errorf("age must not be negative, got %d", p.Age))
	}
	if !p.Label.Valid() {
		errs = append(errs, fmt.Errorf("label must be Urgent, Critical or Routine, got %q", p.Label))
	}
	if p.BloodType != "" && !p.BloodType.Valid() {
		errs = append(errs, fmt.Errorf("unknown blood type %q", p.BloodType))
	}
	if p.Weight != "" {
		if _, _, err := ParseMeasure(p.Weight); err != nil {
			errs = append(errs, fmt.Errorf("weight: %w", err))
		}
	}
	if p.Height != "" {
		if _, _, err := ParseMeasure(p.Height); err != nil {
			errs = append(errs, fmt.Errorf("height: %w", err))
		}
	}
	if p.ServiceTimer < 0 {
		errs = append(errs, fmt.Errorf("serviceTimer must not be negative, got %d", p.ServiceTimer))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidPatient, errors.Join(errs...))
	}
	return nil
}
