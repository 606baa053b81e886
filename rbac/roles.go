package rbac

import "strings"

// Role represents a logical capability grouping for authenticated users.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleBoard   Role = "board"
	RoleStaff   Role = "staff"
	RoleCheckin Role = "checkin"
)

// Resource represents a protected collection of records.
type Resource string

const (
	ResourceGuests    Resource = "guests"
	ResourceMeals     Resource = "meals"
	ResourceServices  Resource = "services"
	ResourceDonations Resource = "donations"
	ResourceSettings  Resource = "settings"
)

// Action represents an operation category performable on a resource.
type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionExport Action = "export"
)

// Roles, Resources, and Actions enumerate the closed sets. Iteration order
// matters for seeding and for exhaustive sweeps.
var (
	Roles     = []Role{RoleAdmin, RoleBoard, RoleStaff, RoleCheckin}
	Resources = []Resource{ResourceGuests, ResourceMeals, ResourceServices, ResourceDonations, ResourceSettings}
	Actions   = []Action{ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionExport}
)

// Matrix enumerates which actions each role holds on each resource. Every
// (role, resource) pair has an explicit entry so that access reviews can read
// the policy in one place; an empty entry means no access. The matrix is a
// process-wide constant: policy changes ship as a deploy, never as a runtime
// write.
var Matrix = map[Role]map[Resource][]Action{
	RoleAdmin: {
		ResourceGuests:    {ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionExport},
		ResourceMeals:     {ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionExport},
		ResourceServices:  {ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionExport},
		ResourceDonations: {ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionExport},
		ResourceSettings:  {ActionRead, ActionUpdate},
	},
	RoleBoard: {
		ResourceGuests:    {ActionRead, ActionExport},
		ResourceMeals:     {ActionRead, ActionExport},
		ResourceServices:  {ActionRead, ActionExport},
		ResourceDonations: {ActionRead, ActionExport},
		ResourceSettings:  {ActionRead},
	},
	RoleStaff: {
		ResourceGuests:    {ActionCreate, ActionRead, ActionUpdate},
		ResourceMeals:     {ActionCreate, ActionRead, ActionUpdate},
		ResourceServices:  {ActionCreate, ActionRead, ActionUpdate},
		ResourceDonations: {ActionCreate, ActionRead},
		ResourceSettings:  {},
	},
	RoleCheckin: {
		ResourceGuests:    {ActionCreate, ActionRead, ActionUpdate},
		ResourceMeals:     {ActionCreate, ActionRead},
		ResourceServices:  {ActionCreate, ActionRead},
		ResourceDonations: {},
		ResourceSettings:  {},
	},
}

// ExportRoles is the explicit allow-list for export endpoints. It is policy
// layered on top of the matrix, not derived from it: an export grant in the
// matrix is necessary but not sufficient, and both checks are applied at the
// gate.
var ExportRoles = []Role{RoleAdmin, RoleBoard}

// HasPermission reports whether role holds action on resource. The zero Role
// means the caller is unresolved and is always denied, as is any role or
// resource without a matrix entry.
func HasPermission(role Role, resource Resource, action Action) bool {
	if role == "" {
		return false
	}
	grants, ok := Matrix[role]
	if !ok {
		return false
	}
	for _, granted := range grants[resource] {
		if granted == action {
			return true
		}
	}
	return false
}

// ParseRole coerces a raw string to a member of the closed Role set. Leading
// and trailing whitespace and letter case are ignored; anything else yields
// (Role(""), false) rather than an error.
func ParseRole(raw string) (Role, bool) {
	switch role := Role(strings.ToLower(strings.TrimSpace(raw))); role {
	case RoleAdmin, RoleBoard, RoleStaff, RoleCheckin:
		return role, true
	default:
		return "", false
	}
}

// ParseRoleValue coerces a value of unknown type, such as a field pulled out
// of loosely typed session metadata, to a Role. Non-string values are never
// trusted.
func ParseRoleValue(value any) (Role, bool) {
	raw, ok := value.(string)
	if !ok {
		return "", false
	}
	return ParseRole(raw)
}

// CanDelete reports whether role holds a delete grant on any resource. It is
// computed from the matrix so the shortcut cannot drift from the policy.
func CanDelete(role Role) bool {
	for _, resource := range Resources {
		if HasPermission(role, resource, ActionDelete) {
			return true
		}
	}
	return false
}

// CanManageSettings reports whether role may mutate organization settings.
func CanManageSettings(role Role) bool {
	return HasPermission(role, ResourceSettings, ActionUpdate)
}
