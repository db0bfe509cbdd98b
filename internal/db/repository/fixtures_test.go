package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	internaldb "github.com/SharedMindsApp/SharedMindsMobileApp-sub009/internal/db"
	"github.com/SharedMindsApp/SharedMindsMobileApp-sub009/internal/domain"
)

// testRepos bundles repositories sharing one migrated SQLite database.
type testRepos struct {
	db       *sql.DB
	profiles *ProfileRepo
	teams    *TeamRepo
	groups   *GroupRepo
	grants   *GrantRepo
	tracks   *TrackRepo
	subs     *SubtrackRepo
	trackers *TrackerRepo
	audit    *AuditRepo
}

func setupRepos(t *testing.T) *testRepos {
	t.Helper()
	writeDB, _ := internaldb.OpenTestSQLite(t)
	return newTestRepos(writeDB, internaldb.DialectSQLite)
}

func newTestRepos(writeDB *sql.DB, d internaldb.Dialect) *testRepos {
	return &testRepos{
		db:       writeDB,
		profiles: NewProfileRepo(writeDB, d),
		teams:    NewTeamRepo(writeDB, d),
		groups:   NewGroupRepo(writeDB, d),
		grants:   NewGrantRepo(writeDB, d),
		tracks:   NewTrackRepo(writeDB, d),
		subs:     NewSubtrackRepo(writeDB, d),
		trackers: NewTrackerRepo(writeDB, d),
		audit:    NewAuditRepo(writeDB, d),
	}
}

func (r *testRepos) profile(t *testing.T, authID string) *domain.Profile {
	t.Helper()
	p, err := r.profiles.Create(context.Background(), &domain.Profile{AuthID: authID, DisplayName: authID})
	require.NoError(t, err)
	return p
}

func (r *testRepos) team(t *testing.T, name string) *domain.Team {
	t.Helper()
	tm, err := r.teams.Create(context.Background(), &domain.Team{Name: name})
	require.NoError(t, err)
	return tm
}

func (r *testRepos) group(t *testing.T, teamID, name string) *domain.Group {
	t.Helper()
	g, err := r.groups.Create(context.Background(), &domain.Group{TeamID: teamID, Name: name})
	require.NoError(t, err)
	return g
}

func (r *testRepos) track(t *testing.T, ownerID string) *domain.TrackEntity {
	t.Helper()
	tr, err := r.tracks.Create(context.Background(), &domain.TrackEntity{OwnerID: ownerID, Title: "roadmap"})
	require.NoError(t, err)
	return tr
}
