package repository

import (
	"context"
	"database/sql"
	"strings"

	internaldb "github.com/SharedMindsApp/SharedMindsMobileApp-sub009/internal/db"
	"github.com/SharedMindsApp/SharedMindsMobileApp-sub009/internal/domain"
)

var _ domain.AuditRepository = (*AuditRepo)(nil)

type AuditRepo struct {
	store
}

func NewAuditRepo(db *sql.DB, dialect internaldb.Dialect) *AuditRepo {
	return &AuditRepo{store: newStore(db, dialect)}
}

func (r *AuditRepo) Insert(ctx context.Context, e *domain.AuditEntry) error {
	id := e.ID
	if id == "" {
		id = domain.NewID()
	}
	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = now()
	}
	_, err := r.db.ExecContext(ctx, r.q(`INSERT INTO access_audit_log
		(id, actor_id, action, entity_type, entity_id, subject_type, subject_id, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		id, e.ActorID, e.Action,
		nullStringPtr(e.EntityType), nullStringPtr(e.EntityID),
		nullStringPtr(e.SubjectType), nullStringPtr(e.SubjectID),
		nullStringPtr(e.Detail), createdAt.UTC())
	return mapDBError(err)
}

func (r *AuditRepo) List(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditEntry, int64, error) {
	var (
		conds []string
		args  []any
	)
	if filter.ActorID != nil {
		conds = append(conds, "actor_id = ?")
		args = append(args, *filter.ActorID)
	}
	if filter.Action != nil {
		conds = append(conds, "action = ?")
		args = append(args, *filter.Action)
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	total, err := countRows(ctx, r.db, r.q(`SELECT COUNT(*) FROM access_audit_log`+where), args...)
	if err != nil {
		return nil, 0, err
	}

	args = append(args, filter.Page.Limit(), filter.Page.Offset())
	rows, err := r.db.QueryContext(ctx, r.q(`SELECT id, actor_id, action, entity_type, entity_id,
		subject_type, subject_id, detail, created_at
		FROM access_audit_log`+where+` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close() //nolint:errcheck

	var entries []domain.AuditEntry
	for rows.Next() {
		var (
			e                                           domain.AuditEntry
			entityType, entityID, subjectType, subjectID sql.NullString
			detail                                      sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.ActorID, &e.Action, &entityType, &entityID,
			&subjectType, &subjectID, &detail, &e.CreatedAt); err != nil {
			return nil, 0, err
		}
		e.EntityType = stringPtr(entityType)
		e.EntityID = stringPtr(entityID)
		e.SubjectType = stringPtr(subjectType)
		e.SubjectID = stringPtr(subjectID)
		e.Detail = stringPtr(detail)
		e.CreatedAt = e.CreatedAt.UTC()
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}
