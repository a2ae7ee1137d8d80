package models

// Role is the staff role used for hierarchical permission checks.
type Role string

const (
	RoleTeller  Role = "TELLER"
	RoleOfficer Role = "OFFICER"
	RoleManager Role = "MANAGER"
	RoleAdmin   Role = "ADMIN"
)

// roleLevels is the fixed total order for the hierarchy. Unknown roles map to
// level 0 and are always denied.
var roleLevels = map[Role]int{
	RoleTeller:  1,
	RoleOfficer: 2,
	RoleManager: 3,
	RoleAdmin:   4,
}

// Level returns the ordinal rank of the role; 0 for unknown roles.
func (r Role) Level() int {
	return roleLevels[r]
}

// IsValid reports whether the role is one of the predefined staff roles.
func (r Role) IsValid() bool {
	_, ok := roleLevels[r]
	return ok
}

// AtLeast reports whether this role meets the minimum required level.
// Unknown roles (level 0) never satisfy any requirement.
func (r Role) AtLeast(required Role) bool {
	level := r.Level()
	if level == 0 {
		return false
	}
	return level >= required.Level()
}

// AllRoles returns the predefined roles in hierarchical order.
func AllRoles() []Role {
	return []Role{RoleTeller, RoleOfficer, RoleManager, RoleAdmin}
}

// ParseRole safely parses a string into a Role.
func ParseRole(raw string) (Role, bool) {
	role := Role(raw)
	return role, role.IsValid()
}
