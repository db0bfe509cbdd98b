package domain

import (
	"context"
	"strings"
	"time"
)

// EntityType tags a permission-able record. Entities live in their own tables;
// the type tag selects the loader used to read ownership and archive state.
type EntityType string

// Entity type constants.
const (
	EntityTrack    EntityType = "track"
	EntitySubtrack EntityType = "subtrack"
	EntityTracker  EntityType = "tracker"
)

// grantableRoles lists the roles a grant may carry per entity type. Tracker
// ownership is a property of the tracker row, never a grant.
var grantableRoles = map[EntityType][]Role{
	EntityTrack:    {RoleOwner, RoleEditor, RoleCommenter, RoleViewer},
	EntitySubtrack: {RoleOwner, RoleEditor, RoleCommenter, RoleViewer},
	EntityTracker:  {RoleEditor, RoleViewer},
}

// ParseEntityType converts a string into an EntityType.
func ParseEntityType(s string) (EntityType, error) {
	t := EntityType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", ErrValidation("entity_type must be one of track, subtrack, tracker (got %q)", s)
	}
	return t, nil
}

// Valid reports whether t is a known entity type.
func (t EntityType) Valid() bool {
	_, ok := grantableRoles[t]
	return ok
}

// GrantableRoles returns the roles that may be granted on entities of type t.
func (t EntityType) GrantableRoles() []Role {
	return grantableRoles[t]
}

// CanGrant reports whether role r may be assigned through a grant on type t.
func (t EntityType) CanGrant(r Role) bool {
	for _, allowed := range grantableRoles[t] {
		if allowed == r {
			return true
		}
	}
	return false
}

// EntityRef identifies an entity by type tag and id.
type EntityRef struct {
	Type EntityType
	ID   string
}

// Track returns a reference to a track.
func Track(id string) EntityRef { return EntityRef{Type: EntityTrack, ID: id} }

// Subtrack returns a reference to a subtrack.
func Subtrack(id string) EntityRef { return EntityRef{Type: EntitySubtrack, ID: id} }

// Tracker returns a reference to a tracker.
func Tracker(id string) EntityRef { return EntityRef{Type: EntityTracker, ID: id} }

// ParseEntityRef parses the "type:id" form used by the CLI.
func ParseEntityRef(s string) (EntityRef, error) {
	typ, id, ok := strings.Cut(s, ":")
	if !ok {
		return EntityRef{}, ErrValidation("entity reference must be <type>:<id> (got %q)", s)
	}
	t, err := ParseEntityType(typ)
	if err != nil {
		return EntityRef{}, err
	}
	ref := EntityRef{Type: t, ID: strings.TrimSpace(id)}
	return ref, ref.Validate()
}

// Validate checks that the reference is well-formed.
func (r EntityRef) Validate() error {
	if !r.Type.Valid() {
		return ErrValidation("entity_type must be one of track, subtrack, tracker (got %q)", string(r.Type))
	}
	if r.ID == "" {
		return ErrValidation("entity_id is required")
	}
	return nil
}

func (r EntityRef) String() string { return string(r.Type) + ":" + r.ID }

// Entity is the resolver's view of a protected record. Implementations answer
// from columns already loaded; they never consult grants.
type Entity interface {
	Ref() EntityRef
	IsOwnedBy(profileID string) bool
	IsArchived() bool
}

// EntityLoader reads one entity type's ownership and archive state.
type EntityLoader interface {
	Load(ctx context.Context, id string) (Entity, error)
}

// TrackEntity is a track row as seen by the resolver.
type TrackEntity struct {
	ID         string
	OwnerID    string
	Title      string
	CreatedAt  time.Time
	ArchivedAt *time.Time
}

func (t *TrackEntity) Ref() EntityRef { return Track(t.ID) }

func (t *TrackEntity) IsOwnedBy(profileID string) bool {
	return profileID != "" && t.OwnerID == profileID
}

func (t *TrackEntity) IsArchived() bool { return t.ArchivedAt != nil }

// SubtrackEntity is a subtrack row joined with its parent track. Ownership and
// archival follow the parent track.
type SubtrackEntity struct {
	ID              string
	TrackID         string
	OwnerID         string // owner of the parent track
	Title           string
	CreatedAt       time.Time
	ArchivedAt      *time.Time
	TrackArchivedAt *time.Time
}

func (s *SubtrackEntity) Ref() EntityRef { return Subtrack(s.ID) }

func (s *SubtrackEntity) IsOwnedBy(profileID string) bool {
	return profileID != "" && s.OwnerID == profileID
}

func (s *SubtrackEntity) IsArchived() bool {
	return s.ArchivedAt != nil || s.TrackArchivedAt != nil
}

// TrackerEntity is a tracker row as seen by the resolver.
type TrackerEntity struct {
	ID         string
	OwnerID    string
	Name       string
	CreatedAt  time.Time
	ArchivedAt *time.Time
}

func (t *TrackerEntity) Ref() EntityRef { return Tracker(t.ID) }

func (t *TrackerEntity) IsOwnedBy(profileID string) bool {
	return profileID != "" && t.OwnerID == profileID
}

func (t *TrackerEntity) IsArchived() bool { return t.ArchivedAt != nil }
