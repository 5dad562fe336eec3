package clinical

import (
	"github.com/viniciussiqueiradecampos/dash-medicina/internal/domain/registry"
)

// OverviewFor builds the clinical overview for p. Clinical records are not
// stored yet, so every patient gets the same reference chart; the diagnosis
// details are the patient's own when present.
func OverviewFor(p registry.Patient) Overview {
	o := referenceChart()
	o.PatientID = p.ID
	if p.Diagnosis != "" {
		o.Diagnosis.Details = p.Diagnosis
	}
	if p.Treatment != "" {
		o.Diagnosis.Title = p.Treatment
	}
	return o
}

func referenceChart() Overview {
	return Overview{
		Diagnosis: Diagnosis{
			ID:            "DIAG-01",
			Title:         "Left Shoulder Injury",
			Details:       "Soft tissue injury suspected. No fractures detected on X-ray. Possible rotator cuff or subacromial injury.",
			SeverityScore: 6,
			IncidentDate:  "2025-11-07",
			Status:        "Active",
			Imaging: &ImagingStudy{
				Title:    "Left Shoulder X-Ray",
				View:     "Frontal & Lateral View",
				Date:     "2025-11-09",
				Findings: "The x-ray shows no fractures or dislocations. Swelling suggests soft tissue injury, possibly rotator cuff or subacromial, MRI recommended if symptoms persist.",
			},
		},
		Labs: []LabResult{
			{ID: "CRP-01", Name: "CRP", Value: "1.7", Unit: "mg/L", Status: LabElevated, Message: "Slightly elevated", Trend: TrendRising},
			{ID: "WBC-01", Name: "WBC", Value: "8,500", Unit: "/L", Status: LabNormal, Message: "No Infection", Trend: TrendStable},
		},
		Appointments: []Appointment{
			{ID: "APT-01", Date: "November 9, 2025", Doctor: "Doctor Pedro", Reason: "Left shoulder injury", Status: "Completed"},
			{ID: "APT-02", Date: "Sep 17, 2025", Doctor: "Doctor Vini", Reason: "Routine check", Status: "Completed"},
			{ID: "APT-03", Date: "Mar 20, 2025", Doctor: "Doctor Jessica", Reason: "Routine check", Status: "Completed"},
		},
	}
}
