package repository

import (
	"context"
	"database/sql"

	internaldb "github.com/SharedMindsApp/SharedMindsMobileApp-sub009/internal/db"
	"github.com/SharedMindsApp/SharedMindsMobileApp-sub009/internal/domain"
)

var _ domain.TeamRepository = (*TeamRepo)(nil)

// TeamRepo implements domain.TeamRepository.
type TeamRepo struct {
	store
}

// NewTeamRepo creates a new TeamRepo.
func NewTeamRepo(db *sql.DB, dialect internaldb.Dialect) *TeamRepo {
	return &TeamRepo{store: newStore(db, dialect)}
}

func (r *TeamRepo) Create(ctx context.Context, t *domain.Team) (*domain.Team, error) {
	out := *t
	if out.ID == "" {
		out.ID = domain.NewID()
	}
	out.CreatedAt = now()
	_, err := r.db.ExecContext(ctx, r.q(`INSERT INTO teams (id, name, created_at) VALUES (?, ?, ?)`),
		out.ID, out.Name, out.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrConflict("team %q already exists", t.Name)
		}
		return nil, mapDBError(err)
	}
	return &out, nil
}

func (r *TeamRepo) GetByID(ctx context.Context, id string) (*domain.Team, error) {
	return r.get(ctx, `SELECT id, name, created_at FROM teams WHERE id = ?`, id)
}

func (r *TeamRepo) GetByName(ctx context.Context, name string) (*domain.Team, error) {
	return r.get(ctx, `SELECT id, name, created_at FROM teams WHERE name = ?`, name)
}

func (r *TeamRepo) get(ctx context.Context, query, arg string) (*domain.Team, error) {
	var t domain.Team
	if err := r.db.QueryRowContext(ctx, r.q(query), arg).Scan(&t.ID, &t.Name, &t.CreatedAt); err != nil {
		return nil, mapDBError(err)
	}
	t.CreatedAt = t.CreatedAt.UTC()
	return &t, nil
}

// AddMember puts a user on a team. Adding an existing member is a ConflictError.
func (r *TeamRepo) AddMember(ctx context.Context, m *domain.TeamMember) error {
	role := m.Role
	if role == "" {
		role = domain.TeamRoleMember
	}
	_, err := r.db.ExecContext(ctx, r.q(
		`INSERT INTO team_members (team_id, user_id, role, created_at) VALUES (?, ?, ?, ?)`),
		m.TeamID, m.UserID, role, now())
	if err != nil {
		if isUniqueViolation(err) {
			return domain.NewConflict(domain.ErrAlreadyMember, "user %q is already a member of team %q", m.UserID, m.TeamID)
		}
		if isForeignKeyViolation(err) {
			return domain.ErrNotFound("team %q or user %q not found", m.TeamID, m.UserID)
		}
		return mapDBError(err)
	}
	return nil
}

func (r *TeamRepo) RemoveMember(ctx context.Context, teamID, userID string) error {
	res, err := r.db.ExecContext(ctx, r.q(`DELETE FROM team_members WHERE team_id = ? AND user_id = ?`), teamID, userID)
	if err != nil {
		return mapDBError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound("user %q is not a member of team %q", userID, teamID)
	}
	return nil
}

func (r *TeamRepo) IsMember(ctx context.Context, teamID, userID string) (bool, error) {
	n, err := countRows(ctx, r.db, r.q(`SELECT COUNT(*) FROM team_members WHERE team_id = ? AND user_id = ?`), teamID, userID)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
