package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityType_CanGrant(t *testing.T) {
	tests := []struct {
		typ  EntityType
		role Role
		want bool
	}{
		{EntityTrack, RoleOwner, true},
		{EntityTrack, RoleCommenter, true},
		{EntitySubtrack, RoleOwner, true},
		{EntityTracker, RoleOwner, false},
		{EntityTracker, RoleCommenter, false},
		{EntityTracker, RoleEditor, true},
		{EntityTracker, RoleViewer, true},
		{EntityType("calendar"), RoleViewer, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.typ)+"/"+string(tt.role), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.typ.CanGrant(tt.role))
		})
	}
}

func TestParseEntityRef(t *testing.T) {
	ref, err := ParseEntityRef("tracker:abc")
	require.NoError(t, err)
	assert.Equal(t, Tracker("abc"), ref)
	assert.Equal(t, "tracker:abc", ref.String())

	_, err = ParseEntityRef("tracker")
	require.Error(t, err)

	_, err = ParseEntityRef("household:1")
	require.Error(t, err)

	_, err = ParseEntityRef("track:")
	require.Error(t, err)
}

func TestParseSubject(t *testing.T) {
	s, err := ParseSubject("Group:g1")
	require.NoError(t, err)
	assert.Equal(t, GroupSubject("g1"), s)

	_, err = ParseSubject("user")
	require.Error(t, err)

	_, err = ParseSubject("team:t1")
	require.Error(t, err)
}

func TestEntityVariants(t *testing.T) {
	now := time.Now()

	track := &TrackEntity{ID: "t1", OwnerID: "p1"}
	assert.True(t, track.IsOwnedBy("p1"))
	assert.False(t, track.IsOwnedBy("p2"))
	assert.False(t, track.IsOwnedBy(""))
	assert.False(t, track.IsArchived())
	assert.Equal(t, Track("t1"), track.Ref())

	sub := &SubtrackEntity{ID: "s1", TrackID: "t1", OwnerID: "p1", TrackArchivedAt: &now}
	assert.True(t, sub.IsArchived(), "archived parent archives the subtrack")
	assert.True(t, sub.IsOwnedBy("p1"))

	tracker := &TrackerEntity{ID: "k1", OwnerID: "p3", ArchivedAt: &now}
	assert.True(t, tracker.IsArchived())
	assert.Equal(t, Tracker("k1"), tracker.Ref())
}
