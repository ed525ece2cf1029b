// Package authz is the client-side authorization guard. Its checks gate what
// the UI offers and dispatches; they are UX convenience, not a security
// boundary. The backend independently enforces every permission on every
// request; a bypassed guard buys nothing.
package authz

import "github.com/campusclinic/console/pkg/common/models"

type Resource string

const (
	ResourceDashboard    Resource = "dashboard"
	ResourcePatients     Resource = "patients"
	ResourceVisits       Resource = "visits"
	ResourceMedicalVisit Resource = "medical-visit"
	ResourceDentalVisit  Resource = "dental-visit"
	ResourceUsers        Resource = "users"
	ResourceAudit        Resource = "audit"
)

type Action string

const (
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
)

// clinicalRoles may see the dashboard, patient records, and visits. ADMIN is
// deliberately not in this set: administrators manage accounts, not charts.
var clinicalRoles = []string{models.RoleMD, models.RoleDMD, models.RoleNurse}

// policy is the fixed table. Unknown (resource, action) pairs and
// unrecognized roles deny.
var policy = map[Resource]map[Action][]string{
	ResourceDashboard: {
		ActionView: clinicalRoles,
	},
	ResourcePatients: {
		ActionView:   clinicalRoles,
		ActionCreate: clinicalRoles,
		ActionEdit:   clinicalRoles,
		ActionDelete: clinicalRoles,
	},
	ResourceVisits: {
		ActionView: clinicalRoles,
	},
	ResourceMedicalVisit: {
		ActionView:   clinicalRoles,
		ActionCreate: {models.RoleMD},
		ActionEdit:   {models.RoleMD},
		ActionDelete: {models.RoleMD},
	},
	ResourceDentalVisit: {
		ActionView:   clinicalRoles,
		ActionCreate: {models.RoleDMD},
		ActionEdit:   {models.RoleDMD},
		ActionDelete: {models.RoleDMD},
	},
	ResourceUsers: {
		ActionView:   {models.RoleAdmin},
		ActionCreate: {models.RoleAdmin},
		ActionEdit:   {models.RoleAdmin},
		ActionDelete: {models.RoleAdmin},
	},
	ResourceAudit: {
		ActionView: clinicalRoles,
	},
}

// Can is a pure predicate over (role, resource, action). Same inputs, same
// answer, no side effects.
func Can(role string, resource Resource, action Action) bool {
	actions, ok := policy[resource]
	if !ok {
		return false
	}
	allowed, ok := actions[action]
	if !ok {
		return false
	}
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}

// The product exposes two inconsistent rules for creating a medical visit:
// the visit list surface lets nurses record one, while the visit detail
// surface treats medical visits as MD-only. Both are kept as named policies
// pending product clarification; do not fold one into the other.

// CanCreateMedicalVisitListSurface is the rule the visit list / add form
// applies: MD and NURSE may create.
func CanCreateMedicalVisitListSurface(role string) bool {
	return role == models.RoleMD || role == models.RoleNurse
}

// CanEditMedicalVisitDetailSurface is the rule the visit detail surface
// applies: MD only.
func CanEditMedicalVisitDetailSurface(role string) bool {
	return Can(role, ResourceMedicalVisit, ActionEdit)
}
