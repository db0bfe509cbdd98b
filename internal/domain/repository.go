package domain

import "context"

// ProfileRepository stores profiles keyed by id and by identity provider subject.
type ProfileRepository interface {
	Create(ctx context.Context, p *Profile) (*Profile, error)
	GetByID(ctx context.Context, id string) (*Profile, error)
	GetByAuthID(ctx context.Context, authID string) (*Profile, error)
	List(ctx context.Context, page PageRequest) ([]Profile, int64, error)
}

// TeamRepository stores teams and their members.
type TeamRepository interface {
	Create(ctx context.Context, t *Team) (*Team, error)
	GetByID(ctx context.Context, id string) (*Team, error)
	GetByName(ctx context.Context, name string) (*Team, error)
	AddMember(ctx context.Context, m *TeamMember) error
	RemoveMember(ctx context.Context, teamID, userID string) error
	IsMember(ctx context.Context, teamID, userID string) (bool, error)
}

// TeamMembershipChecker reports whether a user is currently on a team.
type TeamMembershipChecker interface {
	IsMember(ctx context.Context, teamID, userID string) (bool, error)
}

// GroupRepository stores team-scoped groups and their memberships.
type GroupRepository interface {
	Create(ctx context.Context, g *Group) (*Group, error)
	GetByID(ctx context.Context, id string) (*Group, error)
	GetByName(ctx context.Context, teamID, name string) (*Group, error)
	ListForTeam(ctx context.Context, teamID string, page PageRequest) ([]Group, int64, error)
	Archive(ctx context.Context, id string) error
	AddMember(ctx context.Context, m *GroupMember) (*GroupMember, error)
	RemoveMember(ctx context.Context, groupID, userID string) error
	ListMembers(ctx context.Context, groupID string, page PageRequest) ([]GroupMember, int64, error)
	ActiveGroupsForUser(ctx context.Context, userID string) ([]Group, error)
}

// GrantRepository stores entity grants.
type GrantRepository interface {
	Grant(ctx context.Context, g *Grant) (*Grant, error)
	GetByID(ctx context.Context, id string) (*Grant, error)
	Revoke(ctx context.Context, id string, revokedBy string) (*Grant, error)
	Replace(ctx context.Context, g *Grant) (*Grant, error)
	ListActiveForEntity(ctx context.Context, ref EntityRef, page PageRequest) ([]Grant, int64, error)
	ListActiveForSubject(ctx context.Context, subject Subject, page PageRequest) ([]Grant, int64, error)
	ListActiveForSubjects(ctx context.Context, subjects []Subject) ([]Grant, error)
	HasRole(ctx context.Context, subjects []Subject, ref EntityRef, required Role) (*Grant, error)
}

// AuditFilter holds filter parameters for querying audit logs.
type AuditFilter struct {
	ActorID *string
	Action  *string
	Page    PageRequest
}

// AuditRepository provides operations for audit log entries.
type AuditRepository interface {
	Insert(ctx context.Context, e *AuditEntry) error
	List(ctx context.Context, filter AuditFilter) ([]AuditEntry, int64, error)
}
