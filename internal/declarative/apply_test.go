package declarative

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internaldb "github.com/SharedMindsApp/SharedMindsMobileApp-sub009/internal/db"
	"github.com/SharedMindsApp/SharedMindsMobileApp-sub009/internal/db/repository"
	"github.com/SharedMindsApp/SharedMindsMobileApp-sub009/internal/domain"
	"github.com/SharedMindsApp/SharedMindsMobileApp-sub009/internal/service/security"
)

type applyEnv struct {
	applier  *Applier
	store    Store
	resolver *security.AccessResolver
}

func setupApply(t *testing.T) *applyEnv {
	t.Helper()
	db, _ := internaldb.OpenTestSQLite(t)
	d := internaldb.DialectSQLite
	store := Store{
		Profiles:  repository.NewProfileRepo(db, d),
		Teams:     repository.NewTeamRepo(db, d),
		Groups:    repository.NewGroupRepo(db, d),
		Grants:    repository.NewGrantRepo(db, d),
		Tracks:    repository.NewTrackRepo(db, d),
		Subtracks: repository.NewSubtrackRepo(db, d),
		Trackers:  repository.NewTrackerRepo(db, d),
	}
	return &applyEnv{
		applier:  NewApplier(store, nil),
		store:    store,
		resolver: security.NewAccessResolver(store.Profiles, repository.EntityLoaders(db, d), store.Grants, store.Groups),
	}
}

func (e *applyEnv) apply(t *testing.T, files map[string]string) *Result {
	t.Helper()
	state, err := LoadDirectory(writeFixtures(t, files))
	require.NoError(t, err)
	res, err := e.applier.Apply(context.Background(), state)
	require.NoError(t, err)
	return res
}

func (e *applyEnv) profileID(t *testing.T, authID string) string {
	t.Helper()
	p, err := e.store.Profiles.GetByAuthID(context.Background(), authID)
	require.NoError(t, err)
	return p.ID
}

func fixtureRef(typ domain.EntityType, name string) domain.EntityRef {
	return domain.EntityRef{Type: typ, ID: entityID(EntitySpec{Name: name}, typ)}
}

func TestApply_CreatesThenIsIdempotent(t *testing.T) {
	e := setupApply(t)
	ctx := context.Background()

	first := e.apply(t, fullFixtures())
	s := first.Summary()
	// 3 profiles, 1 team, 2 team members, 1 group, 2 group members, 3 entities, 2 grants.
	assert.Equal(t, 14, s.Creates)
	assert.Zero(t, s.Updates)
	assert.True(t, first.HasChanges())

	second := e.apply(t, fullFixtures())
	assert.False(t, second.HasChanges())
	assert.Equal(t, 14, second.Summary().Skips)

	bob := e.profileID(t, "auth|bob")
	carol := e.profileID(t, "auth|carol")

	d, err := e.resolver.Decide(ctx, bob, fixtureRef(domain.EntityTrack, "fitness"), domain.RoleEditor)
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	alice := e.profileID(t, "auth|alice")
	d, err = e.resolver.Decide(ctx, alice, fixtureRef(domain.EntitySubtrack, "running"), domain.RoleOwner)
	require.NoError(t, err)
	assert.True(t, d.Allowed, "subtrack is owned through its parent track")
	assert.Equal(t, domain.PathOwner, d.Path)

	d, err = e.resolver.Decide(ctx, bob, fixtureRef(domain.EntitySubtrack, "running"), domain.RoleViewer)
	require.NoError(t, err)
	assert.False(t, d.Allowed, "track grants do not extend to subtracks")

	d, err = e.resolver.Decide(ctx, carol, fixtureRef(domain.EntityTracker, "steps"), domain.RoleViewer)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, domain.PathGroup, d.Path)

	d, err = e.resolver.Decide(ctx, carol, fixtureRef(domain.EntityTrack, "fitness"), domain.RoleViewer)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
}

func TestApply_DeterministicEntityIDs(t *testing.T) {
	e := setupApply(t)
	e.apply(t, fullFixtures())

	ref := fixtureRef(domain.EntityTrack, "fitness")
	track, err := e.store.Tracks.Get(context.Background(), ref.ID)
	require.NoError(t, err)
	assert.Equal(t, "Fitness", track.Title)
	assert.Equal(t, e.profileID(t, "auth|alice"), track.OwnerID)

	sub, err := e.store.Subtracks.Get(context.Background(), fixtureRef(domain.EntitySubtrack, "running").ID)
	require.NoError(t, err)
	assert.Equal(t, ref.ID, sub.TrackID)
	assert.Equal(t, "running", sub.Title)
}

func TestApply_RoleChangeReplacesGrant(t *testing.T) {
	e := setupApply(t)
	ctx := context.Background()
	e.apply(t, fullFixtures())

	files := fullFixtures()
	files["grants.yaml"] = `apiVersion: access/v1
kind: GrantList
grants:
  - entity: track:fitness
    user: bob
    role: viewer
  - entity: tracker:steps
    group: crew/reviewers
    role: viewer
`
	res := e.apply(t, files)
	s := res.Summary()
	assert.Equal(t, 1, s.Updates)
	assert.Zero(t, s.Creates)

	var updated Action
	for _, a := range res.Actions {
		if a.Operation == OpUpdate {
			updated = a
		}
	}
	assert.Equal(t, KindGrant, updated.ResourceKind)
	assert.Equal(t, "track:fitness -> user:bob", updated.ResourceName)
	assert.Equal(t, "role editor -> viewer", updated.Detail)

	bob := e.profileID(t, "auth|bob")
	ref := fixtureRef(domain.EntityTrack, "fitness")
	d, err := e.resolver.Decide(ctx, bob, ref, domain.RoleEditor)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	d, err = e.resolver.Decide(ctx, bob, ref, domain.RoleViewer)
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	grants, total, err := e.store.Grants.ListActiveForEntity(ctx, ref, domain.PageRequest{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, domain.RoleViewer, grants[0].Role)
}

func TestApply_ArchivedGroupAndEntity(t *testing.T) {
	e := setupApply(t)
	ctx := context.Background()
	e.apply(t, fullFixtures())

	files := fullFixtures()
	files["groups.yaml"] = `apiVersion: access/v1
kind: GroupList
groups:
  - team: crew
    name: reviewers
    created_by: alice
    members: [bob, carol]
    archived: true
`
	files["entities.yaml"] = `apiVersion: access/v1
kind: EntityList
entities:
  - type: track
    name: fitness
    owner: alice
    archived: true
  - type: subtrack
    name: running
    track: fitness
  - type: tracker
    name: steps
    owner: alice
`
	res := e.apply(t, files)
	assert.Equal(t, 2, res.Summary().Updates)

	carol := e.profileID(t, "auth|carol")
	d, err := e.resolver.Decide(ctx, carol, fixtureRef(domain.EntityTracker, "steps"), domain.RoleViewer)
	require.NoError(t, err)
	assert.False(t, d.Allowed, "archived group grants nothing")

	bob := e.profileID(t, "auth|bob")
	d, err = e.resolver.Decide(ctx, bob, fixtureRef(domain.EntityTrack, "fitness"), domain.RoleViewer)
	require.NoError(t, err)
	assert.False(t, d.Allowed, "archived track is owner-only")

	alice := e.profileID(t, "auth|alice")
	d, err = e.resolver.Decide(ctx, alice, fixtureRef(domain.EntityTrack, "fitness"), domain.RoleOwner)
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	// Applying again changes nothing.
	assert.False(t, e.apply(t, files).HasChanges())
}

func TestApply_InvalidStateWritesNothing(t *testing.T) {
	e := setupApply(t)

	files := fullFixtures()
	files["grants.yaml"] = `apiVersion: access/v1
kind: GrantList
grants:
  - entity: tracker:steps
    user: bob
    role: owner
`
	state, err := LoadDirectory(writeFixtures(t, files))
	require.NoError(t, err)

	res, err := e.applier.Apply(context.Background(), state)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.Contains(t, err.Error(), "cannot be granted on a tracker")

	_, err = e.store.Profiles.GetByAuthID(context.Background(), "auth|alice")
	var nf *domain.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestFormatText(t *testing.T) {
	res := &Result{}
	res.add(OpCreate, KindProfile, "alice", "auth_id=a")
	res.add(OpUpdate, KindGrant, "track:t -> user:bob", "role editor -> viewer")
	res.add(OpSkip, KindTeam, "crew", "")

	var buf bytes.Buffer
	FormatText(&buf, res, true, false)
	out := buf.String()
	assert.Contains(t, out, `+ profile "alice" created (auth_id=a)`)
	assert.Contains(t, out, `~ grant "track:t -> user:bob" updated (role editor -> viewer)`)
	assert.NotContains(t, out, "crew")
	assert.Contains(t, out, "1 created, 1 updated, 1 unchanged")
	assert.NotContains(t, out, "\033[")

	buf.Reset()
	FormatText(&buf, res, true, true)
	assert.Contains(t, buf.String(), `= team "crew" unchanged`)

	buf.Reset()
	FormatText(&buf, &Result{Actions: []Action{{Operation: OpSkip, ResourceKind: KindTeam, ResourceName: "crew"}}}, false, false)
	assert.Equal(t, "No changes. 1 resource(s) already present.\n", buf.String())
}

func TestFormatJSON(t *testing.T) {
	res := &Result{}
	res.add(OpCreate, KindGroupMember, "crew/reviewers/bob", "")
	res.add(OpSkip, KindEntity, "track:fitness", "id=x")

	var buf bytes.Buffer
	require.NoError(t, FormatJSON(&buf, res))

	var got struct {
		Actions []map[string]string `json:"actions"`
		Summary Summary             `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got.Actions, 2)
	assert.Equal(t, "create", got.Actions[0]["operation"])
	assert.Equal(t, "group_member", got.Actions[0]["resource_type"])
	assert.NotContains(t, got.Actions[0], "detail")
	assert.Equal(t, Summary{Creates: 1, Skips: 1}, got.Summary)
}
