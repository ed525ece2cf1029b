package records

import (
	"strings"

	"github.com/campusclinic/console/pkg/common/models"
)

// PatientFilter narrows the patient list the way the list surface does:
// free-text search over name and student number, exact status and gender,
// and a last-name initial. Zero values match everything.
type PatientFilter struct {
	Search          string
	Status          string
	Gender          string
	LastNameInitial string
}

// Apply is pure; filtering stays client-side, the backend list endpoint has
// no query parameters.
func (f PatientFilter) Apply(list []models.PatientSummary) []models.PatientSummary {
	out := make([]models.PatientSummary, 0, len(list))
	for _, p := range list {
		if !f.matches(p) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (f PatientFilter) matches(p models.PatientSummary) bool {
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		fullName := strings.ToLower(p.FirstName + " " + p.LastName)
		if !strings.Contains(fullName, needle) &&
			!strings.Contains(strings.ToLower(p.StudentNumber), needle) {
			return false
		}
	}
	if f.Status != "" && p.Status != f.Status {
		return false
	}
	if f.Gender != "" && p.Gender != f.Gender {
		return false
	}
	if f.LastNameInitial != "" &&
		!strings.HasPrefix(strings.ToUpper(p.LastName), strings.ToUpper(f.LastNameInitial)) {
		return false
	}
	return true
}
