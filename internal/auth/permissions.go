package auth

// Permission is a named capability granted by a role flag. The string values
// are part of the token contract and must not change.
type Permission string

const (
	PermManageAssessment   Permission = "canManageAssessment"
	PermManageUser         Permission = "canManageUser"
	PermManageRole         Permission = "canManageRole"
	PermManageNotification Permission = "canManageNotification"
	PermManageLocalGroup   Permission = "canManageLocalGroup"
	PermManageReports      Permission = "canManageReports"
	PermAttemptAssessment  Permission = "canAttemptAssessment"
	PermViewReport         Permission = "canViewReport"
	PermManageMyAccount    Permission = "canManageMyAccount"
	PermViewNotification   Permission = "canViewNotification"
)

// capabilities maps each role flag to its permission in canonical order.
// Every resolved permission list is a subsequence of this table, which keeps
// token payloads deterministic for a given role.
var capabilities = []struct {
	perm    Permission
	granted func(*Role) bool
}{
	{PermManageAssessment, func(r *Role) bool { return r.CanManageAssessment }},
	{PermManageUser, func(r *Role) bool { return r.CanManageUser }},
	{PermManageRole, func(r *Role) bool { return r.CanManageRole }},
	{PermManageNotification, func(r *Role) bool { return r.CanManageNotification }},
	{PermManageLocalGroup, func(r *Role) bool { return r.CanManageLocalGroup }},
	{PermManageReports, func(r *Role) bool { return r.CanManageReports }},
	{PermAttemptAssessment, func(r *Role) bool { return r.CanAttemptAssessment }},
	{PermViewReport, func(r *Role) bool { return r.CanViewReport }},
	{PermManageMyAccount, func(r *Role) bool { return r.CanManageMyAccount }},
	{PermViewNotification, func(r *Role) bool { return r.CanViewNotification }},
}

// PermissionsForRole projects a role's flags into the canonical permission
// list. A nil role resolves to the empty set, never nil, so callers can
// embed the result in a token payload without a guard.
func PermissionsForRole(role *Role) []Permission {
	perms := make([]Permission, 0, len(capabilities))
	if role == nil {
		return perms
	}
	for _, c := range capabilities {
		if c.granted(role) {
			perms = append(perms, c.perm)
		}
	}
	return perms
}

// HasPermission reports whether the role grants the given permission.
func HasPermission(role *Role, perm Permission) bool {
	if role == nil {
		return false
	}
	for _, c := range capabilities {
		if c.perm == perm {
			return c.granted(role)
		}
	}
	return false
}

// AllPermissions returns the full canonical permission list.
func AllPermissions() []Permission {
	perms := make([]Permission, len(capabilities))
	for i, c := range capabilities {
		perms[i] = c.perm
	}
	return perms
}
