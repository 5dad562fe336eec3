package registry

import "strings"

// Completion classes used by the registry filter.
const (
	CompletionAll       = "All"
	CompletionCompleted = "Completed"
	CompletionActive    = "Active"
)

// FilterOptions narrows a patient list. Empty strings and "All" match
// everything.
type FilterOptions struct {
	Search     string // case-insensitive substring of name or id
	Gender     string
	Label      string
	Completion string
	LastVisit  string // exact YYYY-MM-DD
}

// Filter returns the patients matching every option, preserving order.
func Filter(patients []Patient, opts FilterOptions) []Patient {
	search := strings.ToLower(strings.TrimSpace(opts.Search))
	out := make([]Patient, 0, len(patients))
	for _, p := range patients {
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.ID), search) {
			continue
		}
		if !matchAll(opts.Gender) && p.Gender != opts.Gender {
			continue
		}
		if !matchAll(opts.Label) && string(p.Label) != opts.Label {
			continue
		}
		switch opts.Completion {
		case CompletionCompleted:
			if !p.Status.Completed() {
				continue
			}
		case CompletionActive:
			if p.Status.Completed() {
				continue
			}
		}
		if opts.LastVisit != "" && p.LastVisit != opts.LastVisit {
			continue
		}
		out = append(out, p)
	}
	return out
}

func matchAll(v string) bool {
	return v == "" || v == "All"
}

// UpcomingPatients returns up to n patients whose care is not completed,
// in registry order. This is the home page queue. A negative n is treated
// as zero.
func UpcomingPatients(patients []Patient, n int) []Patient {
	n = max(n, 0)
	out := make([]Patient, 0, n)
	for _, p := range patients {
		if len(out) == n {
			break
		}
		if !p.Status.Completed() {
			out = append(out, p)
		}
	}
	return out
}
