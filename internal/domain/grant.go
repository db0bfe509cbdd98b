package domain

import "time"

// Grant asserts that Subject holds Role on Entity. A grant is active until
// RevokedAt is set; revocation is terminal and the row is kept for audit.
type Grant struct {
	ID        string
	Entity    EntityRef
	Subject   Subject
	Role      Role
	GrantedBy string
	GrantedAt time.Time
	RevokedAt *time.Time
	RevokedBy *string
}

// Active reports whether the grant has not been revoked.
func (g *Grant) Active() bool { return g.RevokedAt == nil }

// CreateGrantRequest holds parameters for sharing an entity with a subject.
type CreateGrantRequest struct {
	Entity  EntityRef
	Subject Subject
	Role    Role
}

// Validate checks that the request is well-formed and that the role may be
// granted on the entity type.
func (r *CreateGrantRequest) Validate() error {
	if err := r.Entity.Validate(); err != nil {
		return err
	}
	if err := r.Subject.Validate(); err != nil {
		return err
	}
	if !r.Role.Valid() {
		return ErrValidation("role must be one of owner, editor, commenter, viewer (got %q)", string(r.Role))
	}
	if !r.Entity.Type.CanGrant(r.Role) {
		return NewValidation(ErrInvalidRole, "role %q cannot be granted on a %s", r.Role, r.Entity.Type)
	}
	return nil
}

// ChangeRoleRequest replaces the role of an active grant.
type ChangeRoleRequest struct {
	GrantID string
	Role    Role
}

// Validate checks that the request is well-formed.
func (r *ChangeRoleRequest) Validate() error {
	if r.GrantID == "" {
		return ErrValidation("grant_id is required")
	}
	if !r.Role.Valid() {
		return ErrValidation("role must be one of owner, editor, commenter, viewer (got %q)", string(r.Role))
	}
	return nil
}

// AccessPath names how an access decision was reached.
type AccessPath string

// Access paths. The first three allow; the rest deny.
const (
	PathOwner     AccessPath = "owner"
	PathDirect    AccessPath = "direct"
	PathGroup     AccessPath = "group"
	PathNoProfile AccessPath = "no_profile"
	PathNoEntity  AccessPath = "no_entity"
	PathArchived  AccessPath = "archived"
	PathNoGrant   AccessPath = "no_grant"
)

// AccessDecision is the outcome of one resolver evaluation.
type AccessDecision struct {
	Allowed   bool
	Path      AccessPath
	ProfileID string
	GroupID   string // set when Path is PathGroup
}

// AccessibleEntity is one row of a "what can I access" listing.
type AccessibleEntity struct {
	Entity  EntityRef
	Role    Role
	Path    AccessPath
	GroupID string
}
