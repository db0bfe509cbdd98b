package security

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	internaldb "github.com/SharedMindsApp/SharedMindsMobileApp-sub009/internal/db"
	"github.com/SharedMindsApp/SharedMindsMobileApp-sub009/internal/db/repository"
	"github.com/SharedMindsApp/SharedMindsMobileApp-sub009/internal/domain"
)

var ctx = context.Background()

// testEnv wires the services over one migrated SQLite database.
type testEnv struct {
	profiles *repository.ProfileRepo
	teams    *repository.TeamRepo
	groupsDB *repository.GroupRepo
	grantsDB *repository.GrantRepo
	tracks   *repository.TrackRepo
	subs     *repository.SubtrackRepo
	trackers *repository.TrackerRepo
	audit    *repository.AuditRepo

	resolver *AccessResolver
	grants   *GrantService
	groups   *GroupService
	profile  *ProfileService
}

func setupEnv(t *testing.T, opts ...ResolverOption) *testEnv {
	t.Helper()
	writeDB, _ := internaldb.OpenTestSQLite(t)
	d := internaldb.DialectSQLite

	e := &testEnv{
		profiles: repository.NewProfileRepo(writeDB, d),
		teams:    repository.NewTeamRepo(writeDB, d),
		groupsDB: repository.NewGroupRepo(writeDB, d),
		grantsDB: repository.NewGrantRepo(writeDB, d),
		tracks:   repository.NewTrackRepo(writeDB, d),
		subs:     repository.NewSubtrackRepo(writeDB, d),
		trackers: repository.NewTrackerRepo(writeDB, d),
		audit:    repository.NewAuditRepo(writeDB, d),
	}
	e.resolver = NewAccessResolver(e.profiles, repository.EntityLoaders(writeDB, d), e.grantsDB, e.groupsDB, opts...)
	e.grants = NewGrantService(e.grantsDB, e.groupsDB, e.profiles, e.resolver, e.audit, nil)
	e.groups = NewGroupService(e.groupsDB, e.teams, e.profiles, e.audit, nil)
	e.profile = NewProfileService(e.profiles)
	return e
}

// as returns a context authenticated as p.
func as(p *domain.Profile) context.Context {
	return domain.WithPrincipal(context.Background(), domain.ContextPrincipal{
		AuthID: p.AuthID, ProfileID: p.ID, Name: p.DisplayName,
	})
}

func (e *testEnv) user(t *testing.T, name string) *domain.Profile {
	t.Helper()
	p, err := e.profiles.Create(ctx, &domain.Profile{AuthID: "auth|" + name, DisplayName: name})
	require.NoError(t, err)
	return p
}

func (e *testEnv) track(t *testing.T, owner *domain.Profile) domain.EntityRef {
	t.Helper()
	tr, err := e.tracks.Create(ctx, &domain.TrackEntity{OwnerID: owner.ID, Title: "track"})
	require.NoError(t, err)
	return domain.Track(tr.ID)
}

func (e *testEnv) tracker(t *testing.T, owner *domain.Profile) domain.EntityRef {
	t.Helper()
	tk, err := e.trackers.Create(ctx, &domain.TrackerEntity{OwnerID: owner.ID, Name: "tracker"})
	require.NoError(t, err)
	return domain.Tracker(tk.ID)
}

// teamWith creates a team whose members are the given profiles.
func (e *testEnv) teamWith(t *testing.T, name string, members ...*domain.Profile) *domain.Team {
	t.Helper()
	tm, err := e.teams.Create(ctx, &domain.Team{Name: name})
	require.NoError(t, err)
	for _, m := range members {
		require.NoError(t, e.teams.AddMember(ctx, &domain.TeamMember{TeamID: tm.ID, UserID: m.ID}))
	}
	return tm
}

// groupWith creates a group in team and adds the given members directly.
func (e *testEnv) groupWith(t *testing.T, teamID, name string, members ...*domain.Profile) *domain.Group {
	t.Helper()
	g, err := e.groupsDB.Create(ctx, &domain.Group{TeamID: teamID, Name: name})
	require.NoError(t, err)
	for _, m := range members {
		_, err := e.groupsDB.AddMember(ctx, &domain.GroupMember{GroupID: g.ID, UserID: m.ID})
		require.NoError(t, err)
	}
	return g
}

func (e *testEnv) grant(t *testing.T, owner *domain.Profile, ref domain.EntityRef, subject domain.Subject, role domain.Role) *domain.Grant {
	t.Helper()
	g, err := e.grants.Grant(as(owner), domain.CreateGrantRequest{Entity: ref, Subject: subject, Role: role})
	require.NoError(t, err)
	return g
}

func (e *testEnv) hasAccess(t *testing.T, p *domain.Profile, ref domain.EntityRef, role domain.Role) bool {
	t.Helper()
	ok, err := e.resolver.HasAccess(ctx, p.AuthID, ref, role)
	require.NoError(t, err)
	return ok
}

var allRoles = []domain.Role{domain.RoleViewer, domain.RoleCommenter, domain.RoleEditor, domain.RoleOwner}
