package declarative

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/SharedMindsApp/SharedMindsMobileApp-sub009/internal/domain"
)

// entityNamespace seeds the name-based UUIDs of fixture entities, so the same
// fixture name maps to the same id on every run.
var entityNamespace = uuid.MustParse("6f1c2b0e-8a4d-5c3e-9b7a-2d4e6f8a0c1b")

// TrackStore reads and writes tracks.
type TrackStore interface {
	Create(ctx context.Context, t *domain.TrackEntity) (*domain.TrackEntity, error)
	Get(ctx context.Context, id string) (*domain.TrackEntity, error)
	Archive(ctx context.Context, id string) error
}

// SubtrackStore reads and writes subtracks.
type SubtrackStore interface {
	Create(ctx context.Context, s *domain.SubtrackEntity) (*domain.SubtrackEntity, error)
	Get(ctx context.Context, id string) (*domain.SubtrackEntity, error)
	Archive(ctx context.Context, id string) error
}

// TrackerStore reads and writes trackers.
type TrackerStore interface {
	Create(ctx context.Context, t *domain.TrackerEntity) (*domain.TrackerEntity, error)
	Get(ctx context.Context, id string) (*domain.TrackerEntity, error)
	Archive(ctx context.Context, id string) error
}

// Store is the set of repositories fixtures are written to.
type Store struct {
	Profiles  domain.ProfileRepository
	Teams     domain.TeamRepository
	Groups    domain.GroupRepository
	Grants    domain.GrantRepository
	Tracks    TrackStore
	Subtracks SubtrackStore
	Trackers  TrackerStore
}

// Applier writes a DesiredState to a Store. Existing rows are left alone, so
// applying the same fixtures twice is a no-op the second time. Writes go to
// the repositories directly; fixtures are trusted operator input.
type Applier struct {
	store  Store
	logger *slog.Logger
}

// NewApplier creates an Applier over store.
func NewApplier(store Store, logger *slog.Logger) *Applier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Applier{store: store, logger: logger.With("component", "fixtures")}
}

// applyRun carries fixture-name to id mappings through one Apply call.
type applyRun struct {
	res      *Result
	profiles map[string]string
	teams    map[string]string
	groups   map[string]string
	entities map[string]domain.EntityRef
	owners   map[string]string // entity key -> owning profile id
}

// Apply validates state and writes it in dependency order. A validation
// failure writes nothing.
func (a *Applier) Apply(ctx context.Context, state *DesiredState) (*Result, error) {
	if verrs := Validate(state); len(verrs) > 0 {
		errs := make([]error, len(verrs))
		for i, v := range verrs {
			errs[i] = v
		}
		return nil, fmt.Errorf("invalid fixtures: %w", errors.Join(errs...))
	}

	run := &applyRun{
		res:      &Result{},
		profiles: make(map[string]string, len(state.Profiles)),
		teams:    make(map[string]string, len(state.Teams)),
		groups:   make(map[string]string, len(state.Groups)),
		entities: make(map[string]domain.EntityRef, len(state.Entities)),
		owners:   make(map[string]string, len(state.Entities)),
	}
	steps := []func(context.Context, *DesiredState, *applyRun) error{
		a.applyProfiles,
		a.applyTeams,
		a.applyGroups,
		a.applyEntities,
		a.applyGrants,
	}
	for _, step := range steps {
		if err := step(ctx, state, run); err != nil {
			return run.res, err
		}
	}
	s := run.res.Summary()
	a.logger.InfoContext(ctx, "fixtures applied", "created", s.Creates, "updated", s.Updates, "unchanged", s.Skips)
	return run.res, nil
}

func isNotFound(err error) bool {
	var nf *domain.NotFoundError
	return errors.As(err, &nf)
}

func (a *Applier) applyProfiles(ctx context.Context, state *DesiredState, run *applyRun) error {
	for _, spec := range state.Profiles {
		p, err := a.store.Profiles.GetByAuthID(ctx, spec.AuthID)
		switch {
		case err == nil:
			run.res.add(OpSkip, KindProfile, spec.Name, "")
		case isNotFound(err):
			name := spec.DisplayName
			if name == "" {
				name = spec.Name
			}
			p, err = a.store.Profiles.Create(ctx, &domain.Profile{AuthID: spec.AuthID, DisplayName: name})
			if err != nil {
				return fmt.Errorf("create profile %q: %w", spec.Name, err)
			}
			run.res.add(OpCreate, KindProfile, spec.Name, "auth_id="+spec.AuthID)
		default:
			return fmt.Errorf("lookup profile %q: %w", spec.Name, err)
		}
		run.profiles[spec.Name] = p.ID
	}
	return nil
}

func (a *Applier) applyTeams(ctx context.Context, state *DesiredState, run *applyRun) error {
	for _, spec := range state.Teams {
		t, err := a.store.Teams.GetByName(ctx, spec.Name)
		switch {
		case err == nil:
			run.res.add(OpSkip, KindTeam, spec.Name, "")
		case isNotFound(err):
			if t, err = a.store.Teams.Create(ctx, &domain.Team{Name: spec.Name}); err != nil {
				return fmt.Errorf("create team %q: %w", spec.Name, err)
			}
			run.res.add(OpCreate, KindTeam, spec.Name, "")
		default:
			return fmt.Errorf("lookup team %q: %w", spec.Name, err)
		}
		run.teams[spec.Name] = t.ID

		for _, m := range spec.Members {
			name := spec.Name + "/" + m.Profile
			userID := run.profiles[m.Profile]
			ok, err := a.store.Teams.IsMember(ctx, t.ID, userID)
			if err != nil {
				return fmt.Errorf("check team member %q: %w", name, err)
			}
			if ok {
				run.res.add(OpSkip, KindTeamMember, name, "")
				continue
			}
			role := m.Role
			if role == "" {
				role = domain.TeamRoleMember
			}
			if err := a.store.Teams.AddMember(ctx, &domain.TeamMember{TeamID: t.ID, UserID: userID, Role: role}); err != nil {
				return fmt.Errorf("add team member %q: %w", name, err)
			}
			run.res.add(OpCreate, KindTeamMember, name, "role="+role)
		}
	}
	return nil
}

// findGroup returns the active group named name in team, or else the most
// recently created archived one, or nil.
func (a *Applier) findGroup(ctx context.Context, teamID, name string) (*domain.Group, error) {
	g, err := a.store.Groups.GetByName(ctx, teamID, name)
	if err == nil {
		return g, nil
	}
	if !isNotFound(err) {
		return nil, err
	}

	var found *domain.Group
	page := domain.PageRequest{MaxResults: domain.MaxMaxResults}
	for {
		groups, total, err := a.store.Groups.ListForTeam(ctx, teamID, page)
		if err != nil {
			return nil, err
		}
		for i := range groups {
			if groups[i].Name == name && (found == nil || groups[i].CreatedAt.After(found.CreatedAt)) {
				found = &groups[i]
			}
		}
		next := domain.NextPageToken(page.Offset(), page.Limit(), total)
		if next == "" {
			return found, nil
		}
		page.PageToken = next
	}
}

func (a *Applier) applyGroups(ctx context.Context, state *DesiredState, run *applyRun) error {
	for _, spec := range state.Groups {
		key := spec.Key()
		teamID := run.teams[spec.Team]
		g, err := a.findGroup(ctx, teamID, spec.Name)
		if err != nil {
			return fmt.Errorf("lookup group %q: %w", key, err)
		}

		switch {
		case g != nil && (g.Archived() == spec.Archived):
			run.res.add(OpSkip, KindGroup, key, "")
		case g != nil && spec.Archived:
			if err := a.store.Groups.Archive(ctx, g.ID); err != nil {
				return fmt.Errorf("archive group %q: %w", key, err)
			}
			run.res.add(OpUpdate, KindGroup, key, "archived")
		default:
			// Missing, or only an archived group of that name exists.
			g, err = a.store.Groups.Create(ctx, &domain.Group{
				TeamID:      teamID,
				Name:        spec.Name,
				Description: spec.Description,
				CreatedBy:   run.profiles[spec.CreatedBy],
			})
			if err != nil {
				return fmt.Errorf("create group %q: %w", key, err)
			}
			if spec.Archived {
				if err := a.store.Groups.Archive(ctx, g.ID); err != nil {
					return fmt.Errorf("archive group %q: %w", key, err)
				}
			}
			run.res.add(OpCreate, KindGroup, key, "")
		}
		run.groups[key] = g.ID

		for _, m := range spec.Members {
			name := key + "/" + m
			_, err := a.store.Groups.AddMember(ctx, &domain.GroupMember{
				GroupID: g.ID,
				UserID:  run.profiles[m],
				AddedBy: run.profiles[spec.CreatedBy],
			})
			switch {
			case err == nil:
				run.res.add(OpCreate, KindGroupMember, name, "")
			case errors.Is(err, domain.ErrAlreadyMember):
				run.res.add(OpSkip, KindGroupMember, name, "")
			default:
				return fmt.Errorf("add group member %q: %w", name, err)
			}
		}
	}
	return nil
}

// entityID returns the id a fixture entity is stored under.
func entityID(spec EntitySpec, t domain.EntityType) string {
	if spec.ID != "" {
		return spec.ID
	}
	return uuid.NewSHA1(entityNamespace, []byte(entityKey(string(t), spec.Name))).String()
}

// applyEntities writes tracks and trackers before subtracks, which need
// their parent track.
func (a *Applier) applyEntities(ctx context.Context, state *DesiredState, run *applyRun) error {
	for _, subtracks := range []bool{false, true} {
		for _, spec := range state.Entities {
			t, _ := domain.ParseEntityType(spec.Type)
			if (t == domain.EntitySubtrack) != subtracks {
				continue
			}
			if err := a.applyEntity(ctx, spec, t, run); err != nil {
				return err
			}
		}
	}
	return nil
}

func (a *Applier) applyEntity(ctx context.Context, spec EntitySpec, t domain.EntityType, run *applyRun) error {
	key := entityKey(string(t), spec.Name)
	ref := domain.EntityRef{Type: t, ID: entityID(spec, t)}
	title := spec.Title
	if title == "" {
		title = spec.Name
	}

	var (
		created, archived bool
		owner             string
		err               error
	)
	switch t {
	case domain.EntityTrack:
		var e *domain.TrackEntity
		if e, err = a.store.Tracks.Get(ctx, ref.ID); isNotFound(err) {
			e, err = a.store.Tracks.Create(ctx, &domain.TrackEntity{ID: ref.ID, OwnerID: run.profiles[spec.Owner], Title: title})
			created = true
		}
		if err == nil {
			owner, archived = e.OwnerID, e.IsArchived()
		}
	case domain.EntitySubtrack:
		var e *domain.SubtrackEntity
		if e, err = a.store.Subtracks.Get(ctx, ref.ID); isNotFound(err) {
			parent := run.entities[entityKey(string(domain.EntityTrack), spec.Track)]
			e, err = a.store.Subtracks.Create(ctx, &domain.SubtrackEntity{ID: ref.ID, TrackID: parent.ID, Title: title})
			created = true
		}
		if err == nil {
			owner, archived = e.OwnerID, e.ArchivedAt != nil
		}
	case domain.EntityTracker:
		var e *domain.TrackerEntity
		if e, err = a.store.Trackers.Get(ctx, ref.ID); isNotFound(err) {
			e, err = a.store.Trackers.Create(ctx, &domain.TrackerEntity{ID: ref.ID, OwnerID: run.profiles[spec.Owner], Name: title})
			created = true
		}
		if err == nil {
			owner, archived = e.OwnerID, e.IsArchived()
		}
	}
	if err != nil {
		return fmt.Errorf("apply entity %q: %w", key, err)
	}
	run.entities[key] = ref
	run.owners[key] = owner

	op := OpSkip
	if created {
		op = OpCreate
	}
	if spec.Archived && !archived {
		if err := a.archiveEntity(ctx, ref); err != nil {
			return fmt.Errorf("archive entity %q: %w", key, err)
		}
		if op == OpSkip {
			op = OpUpdate
		}
	}
	run.res.add(op, KindEntity, key, "id="+ref.ID)
	return nil
}

func (a *Applier) archiveEntity(ctx context.Context, ref domain.EntityRef) error {
	switch ref.Type {
	case domain.EntityTrack:
		return a.store.Tracks.Archive(ctx, ref.ID)
	case domain.EntitySubtrack:
		return a.store.Subtracks.Archive(ctx, ref.ID)
	default:
		return a.store.Trackers.Archive(ctx, ref.ID)
	}
}

// applyGrants creates missing grants as the entity owner. An existing active
// grant with a different role is replaced.
func (a *Applier) applyGrants(ctx context.Context, state *DesiredState, run *applyRun) error {
	for _, spec := range state.Grants {
		ref := run.entities[normalizeEntityKey(spec.Entity)]
		subject := domain.UserSubject(run.profiles[spec.User])
		if spec.Group != "" {
			subject = domain.GroupSubject(run.groups[spec.Group])
		}
		role, _ := domain.ParseRole(spec.Role)
		owner := run.owners[normalizeEntityKey(spec.Entity)]
		name := spec.Entity + " -> " + subjectName(spec)

		existing, err := a.store.Grants.HasRole(ctx, []domain.Subject{subject}, ref, domain.RoleViewer)
		if err != nil {
			return fmt.Errorf("lookup grant %q: %w", name, err)
		}
		switch {
		case existing == nil:
			if _, err := a.store.Grants.Grant(ctx, &domain.Grant{Entity: ref, Subject: subject, Role: role, GrantedBy: owner}); err != nil {
				return fmt.Errorf("create grant %q: %w", name, err)
			}
			run.res.add(OpCreate, KindGrant, name, "role="+string(role))
		case existing.Role == role:
			run.res.add(OpSkip, KindGrant, name, "")
		default:
			if _, err := a.store.Grants.Replace(ctx, &domain.Grant{ID: existing.ID, Role: role, GrantedBy: owner}); err != nil {
				return fmt.Errorf("replace grant %q: %w", name, err)
			}
			run.res.add(OpUpdate, KindGrant, name, fmt.Sprintf("role %s -> %s", existing.Role, role))
		}
	}
	return nil
}

// normalizeEntityKey lower-cases the type half of a "<type>:<name>" reference.
func normalizeEntityKey(s string) string {
	ref, err := domain.ParseEntityRef(s)
	if err != nil {
		return s
	}
	return entityKey(string(ref.Type), ref.ID)
}

func subjectName(spec GrantSpec) string {
	if spec.Group != "" {
		return "group:" + spec.Group
	}
	return "user:" + spec.User
}
