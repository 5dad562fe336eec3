// Package labs tracks laboratory exam orders for registry patients and
// keeps the history of reported results.
package labs

import (
	"time"

	"github.com/viniciussiqueiradecampos/dash-medicina/internal/domain/registry"
)

// OrderStatus is the processing stage of an exam order. Stages only move
// forward.
type OrderStatus string

const (
	StatusPendingCollection OrderStatus = "Pending Collection"
	StatusAwaitingAnalysis  OrderStatus = "Awaiting Analysis"
	StatusInProcessing      OrderStatus = "In Processing"
	StatusReady             OrderStatus = "Ready"
)

var statusOrder = []OrderStatus{
	StatusPendingCollection,
	StatusAwaitingAnalysis,
	StatusInProcessing,
	StatusReady,
}

func (s OrderStatus) rank() int {
	for i, v := range statusOrder {
		if v == s {
			return i
		}
	}
	return -1
}

func (s OrderStatus) Valid() bool {
	return s.rank() >= 0
}

// ExamCategories are the exams a clinician can request.
var ExamCategories = []string{
	"Complete Blood Count (CBC)",
	"Lipid Profile",
	"Comprehensive Metabolic Panel",
	"Thyroid Function Test",
	"Radiology / X-Ray",
	"MRI / CT Scan",
}

// Order is an exam that has been requested and has no result yet.
type Order struct {
	ID          string         `json:"id"`
	PatientID   string         `json:"patientId"`
	Patient     string         `json:"patient"`
	Exam        string         `json:"exam"`
	Status      OrderStatus    `json:"status"`
	Priority    registry.Label `json:"priority"`
	RequestedAt time.Time      `json:"requestedAt"`
}

// HistoryEntry is a completed exam with its reported result.
type HistoryEntry struct {
	ID        string `json:"id"`
	PatientID string `json:"patientId"`
	Patient   string `json:"patient"`
	Exam      string `json:"exam"`
	Result    string `json:"result"`
	Date      string `json:"date"`
	Doctor    string `json:"doctor"`
}

// OrderRequest is the body of a new exam order.
type OrderRequest struct {
	PatientID string `json:"patientId"`
	Exam      string `json:"exam"`
	Priority  string `json:"priority"`
}
