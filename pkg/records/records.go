// Package records is the typed access layer over the backend's resource
// families: patients, visits, users, dashboard aggregates, and the audit
// log. Reads go through a revalidating cache keyed by request URL; writes
// are single requests that invalidate the key families they touch.
package records

import (
	"fmt"
	"time"

	"github.com/campusclinic/console/pkg/client"
	"github.com/campusclinic/console/pkg/query"
)

type Service struct {
	api   *client.Client
	cache *query.Cache

	kpiRefresh  time.Duration
	listRefresh time.Duration
}

func New(api *client.Client, cache *query.Cache, kpiRefresh, listRefresh time.Duration) *Service {
	if kpiRefresh <= 0 {
		kpiRefresh = 30 * time.Second
	}
	if listRefresh <= 0 {
		listRefresh = 60 * time.Second
	}
	return &Service{
		api:         api,
		cache:       cache,
		kpiRefresh:  kpiRefresh,
		listRefresh: listRefresh,
	}
}

// Query keys. List and detail reads are keyed by their request path so two
// consumers of the same resource share one cache entry.
const (
	keyPatientsList      = "/api/patients-list"
	keyVisitsList        = "/api/visits-list"
	keyVisitsByPatient   = "/api/visits-list/patient/" // prefix, per-patient keys below
	keyUsersList         = "/api/admin/users/list"
	keyDashboardKPIs     = "/api/dashboard/kpis"
	keyTopDiagnoses      = "/api/dashboard/top-diagnoses"
	keyVisitsTrend       = "/api/dashboard/visits-trend"
	patientKeyPrefix     = "/api/patients/"
	userKeyPrefix        = "/api/admin/users/"
)

func keyPatient(id int) string {
	return fmt.Sprintf("%s%d", patientKeyPrefix, id)
}

func keyPatientVisits(patientID int) string {
	return fmt.Sprintf("%s%d", keyVisitsByPatient, patientID)
}

func keyUser(id int) string {
	return fmt.Sprintf("%s%d", userKeyPrefix, id)
}
