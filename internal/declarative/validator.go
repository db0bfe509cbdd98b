package declarative

import (
	"fmt"
	"strings"

	"github.com/SharedMindsApp/SharedMindsMobileApp-sub009/internal/domain"
)

// ValidationError represents a single validation problem.
type ValidationError struct {
	Path    string // e.g. "profile[alice]" or "grant[2]"
	Message string
}

func (e ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

var validTeamRoles = map[string]bool{
	"":                    true,
	domain.TeamRoleOwner:  true,
	domain.TeamRoleAdmin:  true,
	domain.TeamRoleMember: true,
}

// Validate checks the DesiredState for structural correctness and referential integrity.
// It returns a list of all validation errors (does not stop at first error).
func Validate(state *DesiredState) []ValidationError {
	var errs []ValidationError

	profiles := validateProfiles(state.Profiles, &errs)
	teams := validateTeams(state.Teams, profiles, &errs)
	groups := validateGroups(state.Groups, profiles, teams, &errs)
	entities := validateEntities(state.Entities, profiles, &errs)
	validateGrants(state.Grants, profiles, groups, entities, &errs)

	return errs
}

// addErr appends a formatted validation error.
func addErr(errs *[]ValidationError, path, msg string, args ...any) {
	*errs = append(*errs, ValidationError{
		Path:    path,
		Message: fmt.Sprintf(msg, args...),
	})
}

func itemPath(kind string, i int, name string) string {
	if name != "" {
		return fmt.Sprintf("%s[%s]", kind, name)
	}
	return fmt.Sprintf("%s[%d]", kind, i)
}

func validateProfiles(profiles []ProfileSpec, errs *[]ValidationError) map[string]bool {
	names := make(map[string]bool, len(profiles))
	authIDs := make(map[string]bool, len(profiles))
	for i, p := range profiles {
		path := itemPath("profile", i, p.Name)
		if p.Name == "" {
			addErr(errs, path, "name is required")
		} else if names[p.Name] {
			addErr(errs, path, "duplicate profile name %q", p.Name)
		}
		if p.AuthID == "" {
			addErr(errs, path, "auth_id is required")
		} else if authIDs[p.AuthID] {
			addErr(errs, path, "duplicate auth_id %q", p.AuthID)
		}
		names[p.Name] = true
		authIDs[p.AuthID] = true
	}
	return names
}

func validateTeams(teams []TeamSpec, profiles map[string]bool, errs *[]ValidationError) map[string]bool {
	names := make(map[string]bool, len(teams))
	for i, t := range teams {
		path := itemPath("team", i, t.Name)
		if t.Name == "" {
			addErr(errs, path, "name is required")
		} else if names[t.Name] {
			addErr(errs, path, "duplicate team name %q", t.Name)
		}
		names[t.Name] = true
		for j, m := range t.Members {
			mpath := fmt.Sprintf("%s.members[%d]", path, j)
			if !profiles[m.Profile] {
				addErr(errs, mpath, "member %q references unknown profile", m.Profile)
			}
			if !validTeamRoles[m.Role] {
				addErr(errs, mpath, "role must be owner, admin or member, got %q", m.Role)
			}
		}
	}
	return names
}

// validateGroups returns the set of group keys ("<team>/<group>").
func validateGroups(groups []GroupSpec, profiles, teams map[string]bool, errs *[]ValidationError) map[string]bool {
	keys := make(map[string]bool, len(groups))
	for i, g := range groups {
		path := itemPath("group", i, g.Key())
		if g.Name == "" {
			addErr(errs, path, "name is required")
		}
		if !teams[g.Team] {
			addErr(errs, path, "team %q references unknown team", g.Team)
		}
		if strings.Contains(g.Name, "/") {
			addErr(errs, path, "name must not contain '/'")
		}
		if keys[g.Key()] {
			addErr(errs, path, "duplicate group %q", g.Key())
		}
		keys[g.Key()] = true
		if g.CreatedBy != "" && !profiles[g.CreatedBy] {
			addErr(errs, path, "created_by %q references unknown profile", g.CreatedBy)
		}
		seen := make(map[string]bool, len(g.Members))
		for j, m := range g.Members {
			mpath := fmt.Sprintf("%s.members[%d]", path, j)
			if !profiles[m] {
				addErr(errs, mpath, "member %q references unknown profile", m)
			}
			if seen[m] {
				addErr(errs, mpath, "duplicate member %q", m)
			}
			seen[m] = true
		}
	}
	return keys
}

func entityKey(typ, name string) string { return typ + ":" + name }

// validateEntities returns the entity types keyed by "<type>:<name>".
func validateEntities(entities []EntitySpec, profiles map[string]bool, errs *[]ValidationError) map[string]domain.EntityType {
	keys := make(map[string]domain.EntityType, len(entities))
	tracks := make(map[string]bool)
	for _, e := range entities {
		if e.Type == string(domain.EntityTrack) {
			tracks[e.Name] = true
		}
	}

	for i, e := range entities {
		path := itemPath("entity", i, entityKey(e.Type, e.Name))
		t, err := domain.ParseEntityType(e.Type)
		if err != nil {
			addErr(errs, path, "%s", err.Error())
			continue
		}
		if e.Name == "" {
			addErr(errs, path, "name is required")
		}
		key := entityKey(string(t), e.Name)
		if _, dup := keys[key]; dup {
			addErr(errs, path, "duplicate entity %q", key)
		}
		keys[key] = t

		switch t {
		case domain.EntitySubtrack:
			if e.Owner != "" {
				addErr(errs, path, "subtracks inherit their owner from the parent track")
			}
			if !tracks[e.Track] {
				addErr(errs, path, "track %q references unknown track", e.Track)
			}
		default:
			if e.Track != "" {
				addErr(errs, path, "only subtracks have a parent track")
			}
			if !profiles[e.Owner] {
				addErr(errs, path, "owner %q references unknown profile", e.Owner)
			}
		}
	}
	return keys
}

func validateGrants(grants []GrantSpec, profiles, groups map[string]bool, entities map[string]domain.EntityType, errs *[]ValidationError) {
	seen := make(map[string]bool, len(grants))
	for i, g := range grants {
		path := fmt.Sprintf("grant[%d]", i)
		t, known := entities[normalizeEntityKey(g.Entity)]
		if !known {
			addErr(errs, path, "entity %q references unknown entity", g.Entity)
		}

		var subject string
		switch {
		case g.User != "" && g.Group != "":
			addErr(errs, path, "exactly one of user and group may be set")
		case g.User != "":
			subject = "user:" + g.User
			if !profiles[g.User] {
				addErr(errs, path, "user %q references unknown profile", g.User)
			}
		case g.Group != "":
			subject = "group:" + g.Group
			if !groups[g.Group] {
				addErr(errs, path, "group %q references unknown group", g.Group)
			}
		default:
			addErr(errs, path, "one of user or group is required")
		}

		role, err := domain.ParseRole(g.Role)
		if err != nil {
			addErr(errs, path, "%s", err.Error())
		} else if known && !t.CanGrant(role) {
			addErr(errs, path, "role %q cannot be granted on a %s", role, t)
		}

		if known && subject != "" {
			k := g.Entity + "|" + subject
			if seen[k] {
				addErr(errs, path, "duplicate grant of %s to %s", g.Entity, subject)
			}
			seen[k] = true
		}
	}
}
