package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SharedMindsApp/SharedMindsMobileApp-sub009/internal/domain"
)

func TestGroupService_CreateRequiresTeamMember(t *testing.T) {
	e := setupEnv(t)
	alice := e.user(t, "alice")
	outsider := e.user(t, "outsider")
	tm := e.teamWith(t, "design", alice)

	g, err := e.groups.Create(as(alice), domain.CreateGroupRequest{TeamID: tm.ID, Name: "  reviewers "})
	require.NoError(t, err)
	assert.Equal(t, "reviewers", g.Name)
	assert.Equal(t, alice.ID, g.CreatedBy)

	_, err = e.groups.Create(as(outsider), domain.CreateGroupRequest{TeamID: tm.ID, Name: "others"})
	var ad *domain.AccessDeniedError
	assert.ErrorAs(t, err, &ad)

	_, err = e.groups.Create(as(alice), domain.CreateGroupRequest{TeamID: tm.ID, Name: "reviewers"})
	assert.ErrorIs(t, err, domain.ErrDuplicateGroupName)

	_, err = e.groups.Create(as(alice), domain.CreateGroupRequest{TeamID: "missing", Name: "x"})
	var nf *domain.NotFoundError
	assert.ErrorAs(t, err, &nf)

	_, err = e.groups.Create(as(alice), domain.CreateGroupRequest{TeamID: tm.ID, Name: " "})
	var ve *domain.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestGroupService_MembersNeedNotBeOnTeam(t *testing.T) {
	e := setupEnv(t)
	alice := e.user(t, "alice")
	guest := e.user(t, "guest")
	tm := e.teamWith(t, "design", alice)
	g := e.groupWith(t, tm.ID, "reviewers")

	m, err := e.groups.AddMember(as(alice), domain.AddGroupMemberRequest{GroupID: g.ID, UserID: guest.ID})
	require.NoError(t, err)
	assert.Equal(t, alice.ID, m.AddedBy)

	_, err = e.groups.AddMember(as(alice), domain.AddGroupMemberRequest{GroupID: g.ID, UserID: guest.ID})
	assert.ErrorIs(t, err, domain.ErrAlreadyMember)

	// The guest can read the group they belong to but cannot change it.
	_, err = e.groups.Get(as(guest), g.ID)
	require.NoError(t, err)
	_, err = e.groups.AddMember(as(guest), domain.AddGroupMemberRequest{GroupID: g.ID, UserID: alice.ID})
	var ad *domain.AccessDeniedError
	assert.ErrorAs(t, err, &ad)

	// Anyone may leave.
	require.NoError(t, e.groups.RemoveMember(as(guest), g.ID, guest.ID))
	err = e.groups.RemoveMember(as(alice), g.ID, guest.ID)
	var nf *domain.NotFoundError
	assert.ErrorAs(t, err, &nf)

	_, err = e.groups.AddMember(as(alice), domain.AddGroupMemberRequest{GroupID: g.ID, UserID: "ghost"})
	assert.ErrorAs(t, err, &nf)
}

func TestGroupService_Archive(t *testing.T) {
	e := setupEnv(t)
	alice := e.user(t, "alice")
	bob := e.user(t, "bob")
	tm := e.teamWith(t, "design", alice)
	g := e.groupWith(t, tm.ID, "reviewers", bob)

	require.NoError(t, e.groups.Archive(as(alice), g.ID))
	require.NoError(t, e.groups.Archive(as(alice), g.ID))

	got, err := e.groups.Get(as(alice), g.ID)
	require.NoError(t, err)
	assert.True(t, got.Archived())

	members, total, err := e.groups.ListMembers(as(alice), g.ID, domain.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, members, 1)

	_, err = e.groups.AddMember(as(alice), domain.AddGroupMemberRequest{GroupID: g.ID, UserID: alice.ID})
	var ve *domain.ValidationError
	assert.ErrorAs(t, err, &ve)

	entries, _, err := e.audit.List(ctx, domain.AuditFilter{Action: strPtr(domain.AuditArchiveGroup)})
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	groups, total, err := e.groups.ListForTeam(as(alice), tm.ID, domain.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, groups, 1)

	_, _, err = e.groups.ListForTeam(as(bob), tm.ID, domain.PageRequest{})
	var ad *domain.AccessDeniedError
	assert.ErrorAs(t, err, &ad)
}

func strPtr(s string) *string { return &s }
