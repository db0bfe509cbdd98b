package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	internaldb "github.com/SharedMindsApp/SharedMindsMobileApp-sub009/internal/db"
	"github.com/SharedMindsApp/SharedMindsMobileApp-sub009/internal/domain"
)

var _ domain.GrantRepository = (*GrantRepo)(nil)

// GrantRepo implements domain.GrantRepository over entity_permission_grants.
// Rows are never deleted; revocation stamps revoked_at and revoked_by.
type GrantRepo struct {
	store
}

// NewGrantRepo creates a new GrantRepo.
func NewGrantRepo(db *sql.DB, dialect internaldb.Dialect) *GrantRepo {
	return &GrantRepo{store: newStore(db, dialect)}
}

const grantColumns = `id, entity_type, entity_id, subject_type, subject_id, permission_role,
	granted_by, granted_at, revoked_at, revoked_by`

// Grant inserts an active grant. The partial unique index on the active
// tuple decides concurrent inserts: one wins, the rest get a ConflictError
// of kind ErrDuplicateGrant.
func (r *GrantRepo) Grant(ctx context.Context, g *domain.Grant) (*domain.Grant, error) {
	return r.insert(ctx, r.db, g)
}

func (r *GrantRepo) insert(ctx context.Context, q querier, g *domain.Grant) (*domain.Grant, error) {
	out := *g
	out.ID = domain.NewID()
	out.GrantedAt = now()
	out.RevokedAt = nil
	out.RevokedBy = nil
	_, err := q.ExecContext(ctx, r.q(`INSERT INTO entity_permission_grants
		(id, entity_type, entity_id, subject_type, subject_id, permission_role, granted_by, granted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		out.ID, string(out.Entity.Type), out.Entity.ID, string(out.Subject.Type), out.Subject.ID,
		string(out.Role), nullString(out.GrantedBy), out.GrantedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.NewConflict(domain.ErrDuplicateGrant,
				"%s already has an active grant on %s", g.Subject, g.Entity)
		}
		return nil, mapDBError(err)
	}
	return &out, nil
}

func (r *GrantRepo) GetByID(ctx context.Context, id string) (*domain.Grant, error) {
	return r.getByID(ctx, r.db, id)
}

func (r *GrantRepo) getByID(ctx context.Context, q querier, id string) (*domain.Grant, error) {
	row := q.QueryRowContext(ctx, r.q(`SELECT `+grantColumns+` FROM entity_permission_grants WHERE id = ?`), id)
	g, err := scanGrant(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound("grant %q not found", id)
		}
		return nil, err
	}
	return g, nil
}

// Revoke stamps an active grant as revoked. An unknown id is NotFound; an
// already revoked grant is a ConflictError of kind ErrAlreadyRevoked and is
// left untouched.
func (r *GrantRepo) Revoke(ctx context.Context, id string, revokedBy string) (*domain.Grant, error) {
	var out *domain.Grant
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		if err := r.revoke(ctx, tx, id, revokedBy); err != nil {
			return err
		}
		g, err := r.getByID(ctx, tx, id)
		out = g
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *GrantRepo) revoke(ctx context.Context, q querier, id, revokedBy string) error {
	res, err := q.ExecContext(ctx, r.q(`UPDATE entity_permission_grants
		SET revoked_at = ?, revoked_by = ?
		WHERE id = ? AND revoked_at IS NULL`), now(), nullString(revokedBy), id)
	if err != nil {
		return mapDBError(err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	if _, err := r.getByID(ctx, q, id); err != nil {
		return err
	}
	return domain.NewConflict(domain.ErrAlreadyRevoked, "grant %q is already revoked", id)
}

// Replace revokes the active grant g.ID and inserts a grant for the same
// entity and subject carrying g.Role, in one transaction. g.GrantedBy is
// recorded as both revoker and granter.
func (r *GrantRepo) Replace(ctx context.Context, g *domain.Grant) (*domain.Grant, error) {
	var out *domain.Grant
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		current, err := r.getByID(ctx, tx, g.ID)
		if err != nil {
			return err
		}
		if err := r.revoke(ctx, tx, g.ID, g.GrantedBy); err != nil {
			return err
		}
		next := &domain.Grant{
			Entity:    current.Entity,
			Subject:   current.Subject,
			Role:      g.Role,
			GrantedBy: g.GrantedBy,
		}
		out, err = r.insert(ctx, tx, next)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListActiveForEntity returns a page of the active grants on one entity.
func (r *GrantRepo) ListActiveForEntity(ctx context.Context, ref domain.EntityRef, page domain.PageRequest) ([]domain.Grant, int64, error) {
	const where = ` FROM entity_permission_grants
		WHERE entity_type = ? AND entity_id = ? AND revoked_at IS NULL`
	total, err := countRows(ctx, r.db, r.q(`SELECT COUNT(*)`+where), string(ref.Type), ref.ID)
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.db.QueryContext(ctx, r.q(`SELECT `+grantColumns+where+
		` ORDER BY granted_at, id LIMIT ? OFFSET ?`),
		string(ref.Type), ref.ID, page.Limit(), page.Offset())
	if err != nil {
		return nil, 0, err
	}
	grants, err := collectGrants(rows)
	return grants, total, err
}

// ListActiveForSubject returns a page of the active grants held by one subject.
func (r *GrantRepo) ListActiveForSubject(ctx context.Context, subject domain.Subject, page domain.PageRequest) ([]domain.Grant, int64, error) {
	const where = ` FROM entity_permission_grants
		WHERE subject_type = ? AND subject_id = ? AND revoked_at IS NULL`
	total, err := countRows(ctx, r.db, r.q(`SELECT COUNT(*)`+where), string(subject.Type), subject.ID)
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.db.QueryContext(ctx, r.q(`SELECT `+grantColumns+where+
		` ORDER BY granted_at, id LIMIT ? OFFSET ?`),
		string(subject.Type), subject.ID, page.Limit(), page.Offset())
	if err != nil {
		return nil, 0, err
	}
	grants, err := collectGrants(rows)
	return grants, total, err
}

// ListActiveForSubjects returns every active grant held by any of the subjects.
func (r *GrantRepo) ListActiveForSubjects(ctx context.Context, subjects []domain.Subject) ([]domain.Grant, error) {
	if len(subjects) == 0 {
		return nil, nil
	}
	cond, args := subjectCondition(subjects)
	rows, err := r.db.QueryContext(ctx, r.q(`SELECT `+grantColumns+` FROM entity_permission_grants
		WHERE revoked_at IS NULL AND (`+cond+`) ORDER BY entity_type, entity_id, id`), args...)
	if err != nil {
		return nil, err
	}
	return collectGrants(rows)
}

// HasRole returns an active grant on ref held by one of the subjects whose
// role satisfies required, or nil when none exists. When several match, the
// highest role wins.
func (r *GrantRepo) HasRole(ctx context.Context, subjects []domain.Subject, ref domain.EntityRef, required domain.Role) (*domain.Grant, error) {
	roles := domain.RolesSatisfying(required)
	if len(subjects) == 0 || len(roles) == 0 {
		return nil, nil
	}
	cond, subjectArgs := subjectCondition(subjects)

	args := make([]any, 0, 2+len(roles)+len(subjectArgs))
	args = append(args, string(ref.Type), ref.ID)
	for _, role := range roles {
		args = append(args, string(role))
	}
	args = append(args, subjectArgs...)

	rows, err := r.db.QueryContext(ctx, r.q(`SELECT `+grantColumns+` FROM entity_permission_grants
		WHERE entity_type = ? AND entity_id = ? AND revoked_at IS NULL
		AND permission_role IN (`+internaldb.Placeholders(len(roles))+`)
		AND (`+cond+`)`), args...)
	if err != nil {
		return nil, err
	}
	grants, err := collectGrants(rows)
	if err != nil {
		return nil, err
	}
	var best *domain.Grant
	for i := range grants {
		if best == nil || grants[i].Role.Rank() > best.Role.Rank() {
			best = &grants[i]
		}
	}
	return best, nil
}

func subjectCondition(subjects []domain.Subject) (string, []any) {
	parts := make([]string, len(subjects))
	args := make([]any, 0, 2*len(subjects))
	for i, s := range subjects {
		parts[i] = `(subject_type = ? AND subject_id = ?)`
		args = append(args, string(s.Type), s.ID)
	}
	return strings.Join(parts, " OR "), args
}

func collectGrants(rows *sql.Rows) ([]domain.Grant, error) {
	defer rows.Close() //nolint:errcheck
	var out []domain.Grant
	for rows.Next() {
		g, err := scanGrant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *g)
	}
	return out, rows.Err()
}

func scanGrant(s rowScanner) (*domain.Grant, error) {
	var (
		g                       domain.Grant
		entityType, subjectType string
		role                    string
		grantedBy, revokedBy    sql.NullString
		revokedAt               sql.NullTime
	)
	if err := s.Scan(&g.ID, &entityType, &g.Entity.ID, &subjectType, &g.Subject.ID, &role,
		&grantedBy, &g.GrantedAt, &revokedAt, &revokedBy); err != nil {
		return nil, err
	}
	g.Entity.Type = domain.EntityType(entityType)
	g.Subject.Type = domain.SubjectType(subjectType)
	g.Role = domain.Role(role)
	g.GrantedBy = grantedBy.String
	g.GrantedAt = g.GrantedAt.UTC()
	g.RevokedAt = timePtr(revokedAt)
	g.RevokedBy = stringPtr(revokedBy)
	return &g, nil
}
