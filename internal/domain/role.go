package domain

import "strings"

// Role is a permission level held on an entity. Higher roles include lower ones:
// owner ⊇ editor ⊇ commenter ⊇ viewer.
type Role string

// Role constants, lowest privilege first.
const (
	RoleViewer    Role = "viewer"
	RoleCommenter Role = "commenter"
	RoleEditor    Role = "editor"
	RoleOwner     Role = "owner"
)

var roleRank = map[Role]int{
	RoleViewer:    100,
	RoleCommenter: 200,
	RoleEditor:    300,
	RoleOwner:     400,
}

// allRolesDesc lists every role from most to least privileged.
var allRolesDesc = []Role{RoleOwner, RoleEditor, RoleCommenter, RoleViewer}

// ParseRole converts a string into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", ErrValidation("role must be one of owner, editor, commenter, viewer (got %q)", s)
	}
	return r, nil
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// Rank returns the privilege rank of r, or 0 for unknown roles.
func (r Role) Rank() int {
	return roleRank[r]
}

// Satisfies reports whether holding r meets a requirement of required.
// Unknown roles never satisfy and are never satisfied.
func (r Role) Satisfies(required Role) bool {
	if !r.Valid() || !required.Valid() {
		return false
	}
	return roleRank[r] >= roleRank[required]
}

// RolesSatisfying returns every role that satisfies required, most privileged first.
func RolesSatisfying(required Role) []Role {
	var out []Role
	for _, r := range allRolesDesc {
		if r.Satisfies(required) {
			out = append(out, r)
		}
	}
	return out
}

// MaxRole returns the more privileged of a and b.
func MaxRole(a, b Role) Role {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

func (r Role) String() string { return string(r) }
