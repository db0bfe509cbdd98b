package declarative

// Fixture resources reference each other by fixture name, never by database
// id. Profiles are named by handle, teams and entities by name, groups by
// "<team>/<group>".

// DesiredState is the union of every fixture document in a directory.
type DesiredState struct {
	Profiles []ProfileSpec
	Teams    []TeamSpec
	Groups   []GroupSpec
	Entities []EntitySpec
	Grants   []GrantSpec
}

// ProfileListDoc declares a set of profiles.
type ProfileListDoc struct {
	APIVersion string        `yaml:"apiVersion"`
	Kind       string        `yaml:"kind"`
	Profiles   []ProfileSpec `yaml:"profiles"`
}

// ProfileSpec describes a single profile.
type ProfileSpec struct {
	Name        string `yaml:"name"`
	AuthID      string `yaml:"auth_id"`
	DisplayName string `yaml:"display_name,omitempty"`
}

// TeamListDoc declares a set of teams with their members.
type TeamListDoc struct {
	APIVersion string     `yaml:"apiVersion"`
	Kind       string     `yaml:"kind"`
	Teams      []TeamSpec `yaml:"teams"`
}

// TeamSpec describes a team.
type TeamSpec struct {
	Name    string           `yaml:"name"`
	Members []TeamMemberSpec `yaml:"members,omitempty"`
}

// TeamMemberSpec puts a profile on a team.
type TeamMemberSpec struct {
	Profile string `yaml:"profile"`
	Role    string `yaml:"role,omitempty"` // owner, admin or member (default)
}

// GroupListDoc declares a set of groups.
type GroupListDoc struct {
	APIVersion string      `yaml:"apiVersion"`
	Kind       string      `yaml:"kind"`
	Groups     []GroupSpec `yaml:"groups"`
}

// GroupSpec describes a team-scoped group and its members.
type GroupSpec struct {
	Team        string   `yaml:"team"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description,omitempty"`
	CreatedBy   string   `yaml:"created_by,omitempty"`
	Members     []string `yaml:"members,omitempty"`
	Archived    bool     `yaml:"archived,omitempty"`
}

// Key returns the "<team>/<group>" name grants use to reference the group.
func (g GroupSpec) Key() string { return g.Team + "/" + g.Name }

// EntityListDoc declares tracks, subtracks and trackers.
type EntityListDoc struct {
	APIVersion string       `yaml:"apiVersion"`
	Kind       string       `yaml:"kind"`
	Entities   []EntitySpec `yaml:"entities"`
}

// EntitySpec describes one entity. Tracks and trackers name an owner;
// subtracks name their parent track and inherit its owner.
type EntitySpec struct {
	Type     string `yaml:"type"` // track, subtrack or tracker
	Name     string `yaml:"name"`
	ID       string `yaml:"id,omitempty"` // derived from type and name when empty
	Title    string `yaml:"title,omitempty"`
	Owner    string `yaml:"owner,omitempty"`
	Track    string `yaml:"track,omitempty"`
	Archived bool   `yaml:"archived,omitempty"`
}

// GrantListDoc declares a set of grants.
type GrantListDoc struct {
	APIVersion string      `yaml:"apiVersion"`
	Kind       string      `yaml:"kind"`
	Grants     []GrantSpec `yaml:"grants"`
}

// GrantSpec gives a user or a group a role on an entity. Exactly one of User
// and Group is set.
type GrantSpec struct {
	Entity string `yaml:"entity"` // "<type>:<name>"
	User   string `yaml:"user,omitempty"`
	Group  string `yaml:"group,omitempty"` // "<team>/<group>"
	Role   string `yaml:"role"`
}
