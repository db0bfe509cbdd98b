package repository

import (
	"context"
	"database/sql"

	internaldb "github.com/SharedMindsApp/SharedMindsMobileApp-sub009/internal/db"
	"github.com/SharedMindsApp/SharedMindsMobileApp-sub009/internal/domain"
)

var _ domain.ProfileRepository = (*ProfileRepo)(nil)

// ProfileRepo implements domain.ProfileRepository.
type ProfileRepo struct {
	store
}

// NewProfileRepo creates a new ProfileRepo.
func NewProfileRepo(db *sql.DB, dialect internaldb.Dialect) *ProfileRepo {
	return &ProfileRepo{store: newStore(db, dialect)}
}

const profileColumns = `id, auth_id, display_name, created_at`

// Create inserts a new profile. A duplicate auth id is a ConflictError.
func (r *ProfileRepo) Create(ctx context.Context, p *domain.Profile) (*domain.Profile, error) {
	out := *p
	if out.ID == "" {
		out.ID = domain.NewID()
	}
	out.CreatedAt = now()
	_, err := r.db.ExecContext(ctx, r.q(
		`INSERT INTO profiles (id, auth_id, display_name, created_at) VALUES (?, ?, ?, ?)`),
		out.ID, out.AuthID, out.DisplayName, out.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrConflict("profile for auth id %q already exists", p.AuthID)
		}
		return nil, mapDBError(err)
	}
	return &out, nil
}

// GetByID returns the profile with the given id.
func (r *ProfileRepo) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	row := r.db.QueryRowContext(ctx, r.q(`SELECT `+profileColumns+` FROM profiles WHERE id = ?`), id)
	p, err := scanProfile(row)
	if err != nil {
		return nil, mapDBError(err)
	}
	return p, nil
}

// GetByAuthID returns the profile linked to an identity provider subject.
func (r *ProfileRepo) GetByAuthID(ctx context.Context, authID string) (*domain.Profile, error) {
	row := r.db.QueryRowContext(ctx, r.q(`SELECT `+profileColumns+` FROM profiles WHERE auth_id = ?`), authID)
	p, err := scanProfile(row)
	if err != nil {
		return nil, mapDBError(err)
	}
	return p, nil
}

// List returns a page of profiles ordered by creation.
func (r *ProfileRepo) List(ctx context.Context, page domain.PageRequest) ([]domain.Profile, int64, error) {
	total, err := countRows(ctx, r.db, `SELECT COUNT(*) FROM profiles`)
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.db.QueryContext(ctx, r.q(
		`SELECT `+profileColumns+` FROM profiles ORDER BY created_at, id LIMIT ? OFFSET ?`),
		page.Limit(), page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close() //nolint:errcheck

	var out []domain.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *p)
	}
	return out, total, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(s rowScanner) (*domain.Profile, error) {
	var p domain.Profile
	if err := s.Scan(&p.ID, &p.AuthID, &p.DisplayName, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.CreatedAt = p.CreatedAt.UTC()
	return &p, nil
}
