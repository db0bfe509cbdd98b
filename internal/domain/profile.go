package domain

import "time"

// Profile is the internal identity that grants and memberships reference. It
// is distinct from the identity provider subject (AuthID).
type Profile struct {
	ID          string
	AuthID      string
	DisplayName string
	CreatedAt   time.Time
}

// ResolveOrProvisionRequest holds parameters for resolving or JIT-provisioning a profile.
type ResolveOrProvisionRequest struct {
	AuthID      string
	DisplayName string
}

// Validate checks that the request is well-formed.
func (r *ResolveOrProvisionRequest) Validate() error {
	if r.AuthID == "" {
		return ErrValidation("auth_id is required")
	}
	return nil
}

// Team is the scope a group belongs to.
type Team struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// Team member role constants.
const (
	TeamRoleOwner  = "owner"
	TeamRoleAdmin  = "admin"
	TeamRoleMember = "member"
)

// TeamMember records that UserID belongs to TeamID.
type TeamMember struct {
	TeamID    string
	UserID    string
	Role      string
	CreatedAt time.Time
}
