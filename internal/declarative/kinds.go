package declarative

// SupportedAPIVersion is the only apiVersion fixture documents may declare.
const SupportedAPIVersion = "access/v1"

// Document kinds.
const (
	KindNameProfileList = "ProfileList"
	KindNameTeamList    = "TeamList"
	KindNameGroupList   = "GroupList"
	KindNameEntityList  = "EntityList"
	KindNameGrantList   = "GrantList"
)

// ResourceKind names a fixture resource. Kinds are declared in apply order;
// a resource only references kinds declared before it.
type ResourceKind int

const (
	KindProfile ResourceKind = iota
	KindTeam
	KindTeamMember
	KindGroup
	KindGroupMember
	KindEntity
	KindGrant
)

var kindNames = map[ResourceKind]string{
	KindProfile:     "profile",
	KindTeam:        "team",
	KindTeamMember:  "team_member",
	KindGroup:       "group",
	KindGroupMember: "group_member",
	KindEntity:      "entity",
	KindGrant:       "grant",
}

func (k ResourceKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}
