package domain

import (
	"strings"
	"time"
)

// Group is a named set of users scoped to one team. Archived groups keep their
// memberships but confer no access.
type Group struct {
	ID          string
	TeamID      string
	Name        string
	Description string
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ArchivedAt  *time.Time
}

// Archived reports whether the group has been soft-deleted.
func (g *Group) Archived() bool { return g.ArchivedAt != nil }

// GroupMember records that UserID belongs to GroupID.
type GroupMember struct {
	ID        string
	GroupID   string
	UserID    string
	AddedBy   string
	CreatedAt time.Time
}

// CreateGroupRequest holds parameters for creating a new group.
type CreateGroupRequest struct {
	TeamID      string
	Name        string
	Description string
}

// Validate checks that the request is well-formed.
func (r *CreateGroupRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.TeamID == "" {
		return ErrValidation("team_id is required")
	}
	if r.Name == "" {
		return ErrValidation("group name is required")
	}
	return nil
}

// AddGroupMemberRequest holds parameters for adding a member to a group.
type AddGroupMemberRequest struct {
	GroupID string
	UserID  string
}

// Validate checks that the request is well-formed.
func (r *AddGroupMemberRequest) Validate() error {
	if r.GroupID == "" {
		return ErrValidation("group_id is required")
	}
	if r.UserID == "" {
		return ErrValidation("user_id is required")
	}
	return nil
}
