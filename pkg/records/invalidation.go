package records

// Mutation identifies a class of write and the query keys it dirties. Every
// mutating operation routes its invalidation through this table instead of
// interpolating URLs at the call site, so the mapping is reviewable in one
// place.
type Mutation int

const (
	// MutationPatientWrite covers patient create/update/delete/import.
	MutationPatientWrite Mutation = iota
	// MutationVisitWrite covers visit create/update/delete/import of either
	// variant.
	MutationVisitWrite
	// MutationUserWrite covers user account create/update/delete.
	MutationUserWrite
)

// invalidate drops the cache keys affected by a mutation. id is the record
// the write touched (0 when unknown, e.g. bulk import), patientID the owning
// patient for visit writes (0 dirties every per-patient visit list).
func (s *Service) invalidate(m Mutation, id, patientID int) {
	switch m {
	case MutationPatientWrite:
		s.cache.Invalidate(keyPatientsList)
		if id != 0 {
			s.cache.Invalidate(keyPatient(id))
		} else {
			s.cache.InvalidatePrefix(patientKeyPrefix)
		}
	case MutationVisitWrite:
		s.cache.Invalidate(keyVisitsList, keyDashboardKPIs, keyTopDiagnoses, keyVisitsTrend)
		if patientID != 0 {
			s.cache.Invalidate(keyPatientVisits(patientID))
		} else {
			s.cache.InvalidatePrefix(keyVisitsByPatient)
		}
	case MutationUserWrite:
		s.cache.Invalidate(keyUsersList)
		if id != 0 {
			s.cache.Invalidate(keyUser(id))
		} else {
			s.cache.InvalidatePrefix(userKeyPrefix)
		}
	}
}
