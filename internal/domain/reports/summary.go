// Package reports aggregates the patient registry into the figures shown on
// the reports page.
package reports

import (
	"sort"

	"github.com/viniciussiqueiradecampos/dash-medicina/internal/domain/registry"
)

type Summary struct {
	Total                 int            `json:"total"`
	Completed             int            `json:"completed"`
	Active                int            `json:"active"`
	ByLabel               map[string]int `json:"byLabel"`
	ByStatus              map[string]int `json:"byStatus"`
	ByGender              map[string]int `json:"byGender"`
	TotalServiceSeconds   int            `json:"totalServiceSeconds"`
	AverageServiceSeconds float64        `json:"averageServiceSeconds"`
	AverageAge            float64        `json:"averageAge"`
}

// Summarize counts patients per label, status and gender and averages their
// age and accumulated service time. Averages are 0 for an empty list.
func Summarize(patients []registry.Patient) Summary {
	s := Summary{
		Total:    len(patients),
		ByLabel:  make(map[string]int),
		ByStatus: make(map[string]int),
		ByGender: make(map[string]int),
	}
	ages := 0
	for _, p := range patients {
		s.ByLabel[string(p.Label)]++
		s.ByStatus[string(p.Status)]++
		s.ByGender[p.Gender]++
		if p.Status.Completed() {
			s.Completed++
		} else {
			s.Active++
		}
		s.TotalServiceSeconds += p.ServiceTimer
		ages += p.Age
	}
	if s.Total > 0 {
		s.AverageServiceSeconds = float64(s.TotalServiceSeconds) / float64(s.Total)
		s.AverageAge = float64(ages) / float64(s.Total)
	}
	return s
}

// labelOrder is triage order, most severe first.
var labelOrder = []registry.Label{registry.LabelCritical, registry.LabelUrgent, registry.LabelRoutine}

// sortedKeys returns the keys of m by descending count, then name.
func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if m[keys[i]] != m[keys[j]] {
			return m[keys[i]] > m[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys
}
