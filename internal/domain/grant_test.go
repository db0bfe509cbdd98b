package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateGrantRequest_Validate(t *testing.T) {
	tests := []struct {
		name     string
		req      CreateGrantRequest
		wantErr  string
		wantKind error
	}{
		{
			name: "valid track grant",
			req:  CreateGrantRequest{Entity: Track("t1"), Subject: UserSubject("p1"), Role: RoleEditor},
		},
		{
			name: "valid tracker viewer grant to group",
			req:  CreateGrantRequest{Entity: Tracker("k1"), Subject: GroupSubject("g1"), Role: RoleViewer},
		},
		{
			name:    "missing entity id",
			req:     CreateGrantRequest{Entity: Track(""), Subject: UserSubject("p1"), Role: RoleViewer},
			wantErr: "entity_id is required",
		},
		{
			name:    "unknown entity type",
			req:     CreateGrantRequest{Entity: EntityRef{Type: "calendar", ID: "c1"}, Subject: UserSubject("p1"), Role: RoleViewer},
			wantErr: "entity_type must be one of",
		},
		{
			name:    "unknown subject type",
			req:     CreateGrantRequest{Entity: Track("t1"), Subject: Subject{Type: "robot", ID: "r1"}, Role: RoleViewer},
			wantErr: "subject_type must be 'user' or 'group'",
		},
		{
			name:    "unknown role",
			req:     CreateGrantRequest{Entity: Track("t1"), Subject: UserSubject("p1"), Role: "admin"},
			wantErr: "role must be one of",
		},
		{
			name:     "owner on tracker",
			req:      CreateGrantRequest{Entity: Tracker("k1"), Subject: UserSubject("p1"), Role: RoleOwner},
			wantErr:  "cannot be granted on a tracker",
			wantKind: ErrInvalidRole,
		},
		{
			name:     "commenter on tracker",
			req:      CreateGrantRequest{Entity: Tracker("k1"), Subject: UserSubject("p1"), Role: RoleCommenter},
			wantKind: ErrInvalidRole,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr == "" && tt.wantKind == nil {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			var validation *ValidationError
			require.ErrorAs(t, err, &validation)
			if tt.wantErr != "" {
				assert.Contains(t, err.Error(), tt.wantErr)
			}
			if tt.wantKind != nil {
				assert.True(t, errors.Is(err, tt.wantKind))
			}
		})
	}
}

func TestGrant_Active(t *testing.T) {
	g := &Grant{}
	assert.True(t, g.Active())
}

func TestConflictError_Kind(t *testing.T) {
	err := error(NewConflict(ErrDuplicateGrant, "grant exists"))
	assert.True(t, errors.Is(err, ErrDuplicateGrant))
	assert.False(t, errors.Is(err, ErrAlreadyMember))

	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "grant exists", conflict.Error())
}

func TestPageRequest_RoundTrip(t *testing.T) {
	token := EncodePageToken(250)
	p := PageRequest{MaxResults: 50, PageToken: token}
	assert.Equal(t, 250, p.Offset())
	assert.Equal(t, 50, p.Limit())
	assert.Equal(t, "", NextPageToken(250, 50, 300))
	assert.Equal(t, EncodePageToken(300), NextPageToken(250, 50, 301))
	assert.Equal(t, DefaultMaxResults, PageRequest{}.Limit())
	assert.Equal(t, MaxMaxResults, PageRequest{MaxResults: 5000}.Limit())
	assert.Equal(t, 0, PageRequest{PageToken: "%%%"}.Offset())
}
