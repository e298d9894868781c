package domain

// Role represents a user's permission level within a single site.
type Role string

const (
	RoleViewer    Role = "viewer"
	RoleEditor    Role = "editor"
	RoleSiteAdmin Role = "site_admin"
)

// AllRoles contains all valid site roles in ascending order of privilege
var AllRoles = []Role{RoleViewer, RoleEditor, RoleSiteAdmin}

var roleLevels = map[Role]int{
	RoleViewer:    1,
	RoleEditor:    2,
	RoleSiteAdmin: 3,
}

// IsValid checks if a role is valid
func (r Role) IsValid() bool {
	_, ok := roleLevels[r]
	return ok
}

// Level returns the role's position in the viewer < editor < site_admin
// order. Unknown roles map to zero, below every valid role.
func (r Role) Level() int {
	return roleLevels[r]
}

// Allows reports whether a holder of this role may perform an operation
// that requires at least the given role.
func (r Role) Allows(required Role) bool {
	return r.Level() >= required.Level()
}

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}
