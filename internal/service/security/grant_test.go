package security

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SharedMindsApp/SharedMindsMobileApp-sub009/internal/domain"
)

func TestGrantService_RequiresAuthentication(t *testing.T) {
	e := setupEnv(t)
	owner := e.user(t, "owner")
	ref := e.track(t, owner)

	_, err := e.grants.Grant(context.Background(), domain.CreateGrantRequest{
		Entity: ref, Subject: domain.UserSubject(owner.ID), Role: domain.RoleViewer,
	})
	var ue *domain.UnauthenticatedError
	assert.ErrorAs(t, err, &ue)
}

func TestGrantService_OnlyOwnersShare(t *testing.T) {
	e := setupEnv(t)
	owner := e.user(t, "owner")
	editor := e.user(t, "editor")
	other := e.user(t, "other")
	ref := e.track(t, owner)
	e.grant(t, owner, ref, domain.UserSubject(editor.ID), domain.RoleEditor)

	_, err := e.grants.Grant(as(editor), domain.CreateGrantRequest{
		Entity: ref, Subject: domain.UserSubject(other.ID), Role: domain.RoleViewer,
	})
	var ad *domain.AccessDeniedError
	require.ErrorAs(t, err, &ad)

	// An owner grant lets the holder share too.
	coOwner := e.user(t, "co-owner")
	e.grant(t, owner, ref, domain.UserSubject(coOwner.ID), domain.RoleOwner)
	e.grant(t, coOwner, ref, domain.UserSubject(other.ID), domain.RoleViewer)
}

func TestGrantService_Validation(t *testing.T) {
	e := setupEnv(t)
	owner := e.user(t, "owner")
	bob := e.user(t, "bob")
	tk := e.tracker(t, owner)
	ref := e.track(t, owner)

	tests := []struct {
		name string
		req  domain.CreateGrantRequest
		kind error
	}{
		{"owner on tracker", domain.CreateGrantRequest{Entity: tk, Subject: domain.UserSubject(bob.ID), Role: domain.RoleOwner}, domain.ErrInvalidRole},
		{"commenter on tracker", domain.CreateGrantRequest{Entity: tk, Subject: domain.UserSubject(bob.ID), Role: domain.RoleCommenter}, domain.ErrInvalidRole},
		{"unknown role", domain.CreateGrantRequest{Entity: ref, Subject: domain.UserSubject(bob.ID), Role: "admin"}, nil},
		{"bad subject type", domain.CreateGrantRequest{Entity: ref, Subject: domain.Subject{Type: "team", ID: "x"}, Role: domain.RoleViewer}, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.grants.Grant(as(owner), tc.req)
			var ve *domain.ValidationError
			require.ErrorAs(t, err, &ve)
			if tc.kind != nil {
				assert.ErrorIs(t, err, tc.kind)
			}
		})
	}

	// Editor and viewer are fine on trackers.
	e.grant(t, owner, tk, domain.UserSubject(bob.ID), domain.RoleEditor)
}

func TestGrantService_SubjectMustExist(t *testing.T) {
	e := setupEnv(t)
	owner := e.user(t, "owner")
	ref := e.track(t, owner)
	tm := e.teamWith(t, "team", owner)
	g := e.groupWith(t, tm.ID, "G")

	var nf *domain.NotFoundError
	_, err := e.grants.Grant(as(owner), domain.CreateGrantRequest{Entity: ref, Subject: domain.UserSubject("ghost"), Role: domain.RoleViewer})
	assert.ErrorAs(t, err, &nf)
	_, err = e.grants.Grant(as(owner), domain.CreateGrantRequest{Entity: ref, Subject: domain.GroupSubject("ghost"), Role: domain.RoleViewer})
	assert.ErrorAs(t, err, &nf)

	require.NoError(t, e.groups.Archive(as(owner), g.ID))
	_, err = e.grants.Grant(as(owner), domain.CreateGrantRequest{Entity: ref, Subject: domain.GroupSubject(g.ID), Role: domain.RoleViewer})
	var ve *domain.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestGrantService_DuplicateThenChangeRole(t *testing.T) {
	e := setupEnv(t)
	owner := e.user(t, "owner")
	bob := e.user(t, "bob")
	ref := e.track(t, owner)
	g := e.grant(t, owner, ref, domain.UserSubject(bob.ID), domain.RoleViewer)

	_, err := e.grants.Grant(as(owner), domain.CreateGrantRequest{Entity: ref, Subject: domain.UserSubject(bob.ID), Role: domain.RoleEditor})
	assert.ErrorIs(t, err, domain.ErrDuplicateGrant)

	next, err := e.grants.ChangeRole(as(owner), domain.ChangeRoleRequest{GrantID: g.ID, Role: domain.RoleEditor})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleEditor, next.Role)
	assert.True(t, e.hasAccess(t, bob, ref, domain.RoleEditor))

	// Bob cannot promote himself.
	_, err = e.grants.ChangeRole(as(bob), domain.ChangeRoleRequest{GrantID: next.ID, Role: domain.RoleOwner})
	var ad *domain.AccessDeniedError
	assert.ErrorAs(t, err, &ad)

	entries, _, err := e.audit.List(ctx, domain.AuditFilter{ActorID: &owner.ID})
	require.NoError(t, err)
	actions := map[string]int{}
	for _, en := range entries {
		actions[en.Action]++
	}
	assert.Equal(t, 1, actions[domain.AuditGrant])
	assert.Equal(t, 1, actions[domain.AuditChangeRole])
}

func TestGrantService_ChangeRoleOnTrackerRejectsOwner(t *testing.T) {
	e := setupEnv(t)
	owner := e.user(t, "owner")
	bob := e.user(t, "bob")
	tk := e.tracker(t, owner)
	g := e.grant(t, owner, tk, domain.UserSubject(bob.ID), domain.RoleViewer)

	_, err := e.grants.ChangeRole(as(owner), domain.ChangeRoleRequest{GrantID: g.ID, Role: domain.RoleOwner})
	assert.ErrorIs(t, err, domain.ErrInvalidRole)
}

func TestGrantService_RevokePermissions(t *testing.T) {
	e := setupEnv(t)
	owner := e.user(t, "owner")
	bob := e.user(t, "bob")
	carol := e.user(t, "carol")
	ref := e.track(t, owner)
	gb := e.grant(t, owner, ref, domain.UserSubject(bob.ID), domain.RoleEditor)
	gc := e.grant(t, owner, ref, domain.UserSubject(carol.ID), domain.RoleViewer)

	// An editor cannot revoke someone else's grant.
	_, err := e.grants.Revoke(as(bob), gc.ID)
	var ad *domain.AccessDeniedError
	require.ErrorAs(t, err, &ad)

	// A grantee can drop their own grant.
	_, err = e.grants.Revoke(as(bob), gb.ID)
	require.NoError(t, err)
	assert.False(t, e.hasAccess(t, bob, ref, domain.RoleViewer))

	_, err = e.grants.Revoke(as(owner), "missing")
	assert.ErrorAs(t, err, &ad)
}

func TestGrantService_UnknownAndForbiddenGrantsFailAlike(t *testing.T) {
	e := setupEnv(t)
	owner := e.user(t, "owner")
	bob := e.user(t, "bob")
	stranger := e.user(t, "stranger")
	ref := e.track(t, owner)
	g := e.grant(t, owner, ref, domain.UserSubject(bob.ID), domain.RoleViewer)

	ops := map[string]func(id string) error{
		"get": func(id string) error {
			_, err := e.grants.Get(as(stranger), id)
			return err
		},
		"revoke": func(id string) error {
			_, err := e.grants.Revoke(as(stranger), id)
			return err
		},
		"change role": func(id string) error {
			_, err := e.grants.ChangeRole(as(stranger), domain.ChangeRoleRequest{GrantID: id, Role: domain.RoleEditor})
			return err
		},
	}
	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			forbidden, unknown := op(g.ID), op("missing")

			var ad *domain.AccessDeniedError
			require.ErrorAs(t, forbidden, &ad)
			require.ErrorAs(t, unknown, &ad)
			assert.Equal(t,
				strings.ReplaceAll(forbidden.Error(), g.ID, "ID"),
				strings.ReplaceAll(unknown.Error(), "missing", "ID"))
		})
	}

	// The grantee may read but not re-role their own grant.
	_, err := e.grants.Get(as(bob), g.ID)
	require.NoError(t, err)
	_, err = e.grants.ChangeRole(as(bob), domain.ChangeRoleRequest{GrantID: g.ID, Role: domain.RoleEditor})
	var ad *domain.AccessDeniedError
	assert.ErrorAs(t, err, &ad)
	assert.True(t, e.hasAccess(t, bob, ref, domain.RoleViewer))
}

func TestGrantService_Listing(t *testing.T) {
	e := setupEnv(t)
	owner := e.user(t, "owner")
	bob := e.user(t, "bob")
	stranger := e.user(t, "stranger")
	ref := e.track(t, owner)
	tm := e.teamWith(t, "team", owner)
	g := e.groupWith(t, tm.ID, "G", bob)
	gb := e.grant(t, owner, ref, domain.UserSubject(bob.ID), domain.RoleViewer)
	e.grant(t, owner, ref, domain.GroupSubject(g.ID), domain.RoleViewer)

	grants, total, err := e.grants.ListForEntity(as(bob), ref, domain.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, grants, 2)

	_, _, err = e.grants.ListForEntity(as(stranger), ref, domain.PageRequest{})
	var ad *domain.AccessDeniedError
	require.ErrorAs(t, err, &ad)

	mine, _, err := e.grants.ListForSubject(as(bob), domain.UserSubject(bob.ID), domain.PageRequest{})
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	ofGroup, _, err := e.grants.ListForSubject(as(bob), domain.GroupSubject(g.ID), domain.PageRequest{})
	require.NoError(t, err)
	assert.Len(t, ofGroup, 1)

	_, _, err = e.grants.ListForSubject(as(stranger), domain.UserSubject(bob.ID), domain.PageRequest{})
	assert.ErrorAs(t, err, &ad)
	_, _, err = e.grants.ListForSubject(as(stranger), domain.GroupSubject(g.ID), domain.PageRequest{})
	assert.ErrorAs(t, err, &ad)

	got, err := e.grants.Get(as(bob), gb.ID)
	require.NoError(t, err)
	assert.Equal(t, gb.ID, got.ID)
	_, err = e.grants.Get(as(stranger), gb.ID)
	assert.ErrorAs(t, err, &ad)
}
