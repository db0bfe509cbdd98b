package repository

import (
	"context"
	"database/sql"

	internaldb "github.com/SharedMindsApp/SharedMindsMobileApp-sub009/internal/db"
	"github.com/SharedMindsApp/SharedMindsMobileApp-sub009/internal/domain"
)

var _ domain.GroupRepository = (*GroupRepo)(nil)

// GroupRepo implements domain.GroupRepository over team_groups and
// team_group_members.
type GroupRepo struct {
	store
}

// NewGroupRepo creates a new GroupRepo.
func NewGroupRepo(db *sql.DB, dialect internaldb.Dialect) *GroupRepo {
	return &GroupRepo{store: newStore(db, dialect)}
}

const groupColumns = `g.id, g.team_id, g.name, g.description, g.created_by, g.created_at, g.updated_at, g.archived_at`

// Create inserts a group. A second active group with the same name in the
// same team is a ConflictError of kind ErrDuplicateGroupName.
func (r *GroupRepo) Create(ctx context.Context, g *domain.Group) (*domain.Group, error) {
	out := *g
	out.ID = domain.NewID()
	out.CreatedAt = now()
	out.UpdatedAt = out.CreatedAt
	out.ArchivedAt = nil
	_, err := r.db.ExecContext(ctx, r.q(`INSERT INTO team_groups
		(id, team_id, name, description, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`),
		out.ID, out.TeamID, out.Name, nullString(out.Description), nullString(out.CreatedBy),
		out.CreatedAt, out.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.NewConflict(domain.ErrDuplicateGroupName,
				"an active group named %q already exists in team %q", g.Name, g.TeamID)
		}
		if isForeignKeyViolation(err) {
			return nil, domain.ErrNotFound("team %q not found", g.TeamID)
		}
		return nil, mapDBError(err)
	}
	return &out, nil
}

func (r *GroupRepo) GetByID(ctx context.Context, id string) (*domain.Group, error) {
	row := r.db.QueryRowContext(ctx, r.q(`SELECT `+groupColumns+` FROM team_groups g WHERE g.id = ?`), id)
	g, err := scanGroup(row)
	if err != nil {
		return nil, mapDBError(err)
	}
	return g, nil
}

// GetByName returns the active group with the given name in a team.
func (r *GroupRepo) GetByName(ctx context.Context, teamID, name string) (*domain.Group, error) {
	row := r.db.QueryRowContext(ctx, r.q(`SELECT `+groupColumns+` FROM team_groups g
		WHERE g.team_id = ? AND g.name = ? AND g.archived_at IS NULL`), teamID, name)
	g, err := scanGroup(row)
	if err != nil {
		return nil, mapDBError(err)
	}
	return g, nil
}

// ListForTeam returns a page of a team's groups, archived ones included.
func (r *GroupRepo) ListForTeam(ctx context.Context, teamID string, page domain.PageRequest) ([]domain.Group, int64, error) {
	total, err := countRows(ctx, r.db, r.q(`SELECT COUNT(*) FROM team_groups WHERE team_id = ?`), teamID)
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.db.QueryContext(ctx, r.q(`SELECT `+groupColumns+` FROM team_groups g
		WHERE g.team_id = ? ORDER BY g.name, g.created_at LIMIT ? OFFSET ?`),
		teamID, page.Limit(), page.Offset())
	if err != nil {
		return nil, 0, err
	}
	groups, err := collectGroups(rows)
	return groups, total, err
}

// Archive soft-deletes a group. Archiving an archived group changes nothing.
// Memberships are kept.
func (r *GroupRepo) Archive(ctx context.Context, id string) error {
	ts := now()
	res, err := r.db.ExecContext(ctx, r.q(`UPDATE team_groups SET archived_at = ?, updated_at = ?
		WHERE id = ? AND archived_at IS NULL`), ts, ts, id)
	if err != nil {
		return mapDBError(err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return nil
}

// AddMember inserts a membership. A duplicate is a ConflictError of kind
// ErrAlreadyMember.
func (r *GroupRepo) AddMember(ctx context.Context, m *domain.GroupMember) (*domain.GroupMember, error) {
	out := *m
	out.ID = domain.NewID()
	out.CreatedAt = now()
	_, err := r.db.ExecContext(ctx, r.q(`INSERT INTO team_group_members
		(id, group_id, user_id, added_by, created_at) VALUES (?, ?, ?, ?, ?)`),
		out.ID, out.GroupID, out.UserID, nullString(out.AddedBy), out.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.NewConflict(domain.ErrAlreadyMember,
				"user %q is already a member of group %q", m.UserID, m.GroupID)
		}
		if isForeignKeyViolation(err) {
			return nil, domain.ErrNotFound("group %q or user %q not found", m.GroupID, m.UserID)
		}
		return nil, mapDBError(err)
	}
	return &out, nil
}

// RemoveMember hard-deletes a membership.
func (r *GroupRepo) RemoveMember(ctx context.Context, groupID, userID string) error {
	res, err := r.db.ExecContext(ctx, r.q(`DELETE FROM team_group_members WHERE group_id = ? AND user_id = ?`),
		groupID, userID)
	if err != nil {
		return mapDBError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound("user %q is not a member of group %q", userID, groupID)
	}
	return nil
}

func (r *GroupRepo) ListMembers(ctx context.Context, groupID string, page domain.PageRequest) ([]domain.GroupMember, int64, error) {
	total, err := countRows(ctx, r.db, r.q(`SELECT COUNT(*) FROM team_group_members WHERE group_id = ?`), groupID)
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.db.QueryContext(ctx, r.q(`SELECT id, group_id, user_id, added_by, created_at
		FROM team_group_members WHERE group_id = ? ORDER BY created_at, id LIMIT ? OFFSET ?`),
		groupID, page.Limit(), page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close() //nolint:errcheck

	var out []domain.GroupMember
	for rows.Next() {
		var (
			m       domain.GroupMember
			addedBy sql.NullString
		)
		if err := rows.Scan(&m.ID, &m.GroupID, &m.UserID, &addedBy, &m.CreatedAt); err != nil {
			return nil, 0, err
		}
		m.AddedBy = addedBy.String
		m.CreatedAt = m.CreatedAt.UTC()
		out = append(out, m)
	}
	return out, total, rows.Err()
}

// ActiveGroupsForUser returns the non-archived groups the user belongs to.
func (r *GroupRepo) ActiveGroupsForUser(ctx context.Context, userID string) ([]domain.Group, error) {
	rows, err := r.db.QueryContext(ctx, r.q(`SELECT `+groupColumns+` FROM team_groups g
		JOIN team_group_members m ON m.group_id = g.id
		WHERE m.user_id = ? AND g.archived_at IS NULL
		ORDER BY g.id`), userID)
	if err != nil {
		return nil, err
	}
	return collectGroups(rows)
}

func collectGroups(rows *sql.Rows) ([]domain.Group, error) {
	defer rows.Close() //nolint:errcheck
	var out []domain.Group
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *g)
	}
	return out, rows.Err()
}

func scanGroup(s rowScanner) (*domain.Group, error) {
	var (
		g           domain.Group
		description sql.NullString
		createdBy   sql.NullString
		archivedAt  sql.NullTime
	)
	if err := s.Scan(&g.ID, &g.TeamID, &g.Name, &description, &createdBy,
		&g.CreatedAt, &g.UpdatedAt, &archivedAt); err != nil {
		return nil, err
	}
	g.Description = description.String
	g.CreatedBy = createdBy.String
	g.CreatedAt = g.CreatedAt.UTC()
	g.UpdatedAt = g.UpdatedAt.UTC()
	g.ArchivedAt = timePtr(archivedAt)
	return &g, nil
}
