package records

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/campusclinic/console/pkg/common/models"
)

var filterRoster = []models.PatientSummary{
	{ID: 1, FirstName: "Ana", LastName: "Lim", StudentNumber: "2024-00117", Gender: "Female", Status: "Active"},
	{ID: 2, FirstName: "Marco", LastName: "Reyes", StudentNumber: "2023-00452", Gender: "Male", Status: "Active"},
	{ID: 3, FirstName: "Bea", LastName: "Santos", StudentNumber: "2024-00098", Gender: "Female", Status: "Inactive"},
	{ID: 4, FirstName: "Jo", LastName: "lim", StudentNumber: "2022-01771", Gender: "Male", Status: "Active"},
}

func ids(list []models.PatientSummary) []int {
	out := make([]int, 0, len(list))
	for _, p := range list {
		out = append(out, p.ID)
	}
	return out
}

func TestPatientFilter(t *testing.T) {
	cases := []struct {
		name   string
		filter PatientFilter
		want   []int
	}{
		{"zero value matches all", PatientFilter{}, []int{1, 2, 3, 4}},
		{"search is case-insensitive on name", PatientFilter{Search: "LIM"}, []int{1, 4}},
		{"search spans first and last name", PatientFilter{Search: "ana lim"}, []int{1}},
		{"search matches student number", PatientFilter{Search: "00452"}, []int{2}},
		{"status is exact", PatientFilter{Status: "Inactive"}, []int{3}},
		{"gender is exact", PatientFilter{Gender: "Male"}, []int{2, 4}},
		{"initial ignores case", PatientFilter{LastNameInitial: "l"}, []int{1, 4}},
		{"criteria compose", PatientFilter{Search: "lim", Gender: "Male"}, []int{4}},
		{"no match yields empty, not nil", PatientFilter{Search: "nobody"}, []int{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.filter.Apply(filterRoster)
			require.NotNil(t, got)
			require.Equal(t, tc.want, ids(got))
		})
	}
}

func TestPatientFilterDoesNotMutateInput(t *testing.T) {
	before := filterRoster[0]
	PatientFilter{Status: "Active"}.Apply(filterRoster)
	require.Equal(t, before, filterRoster[0])
}
