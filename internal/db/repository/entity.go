package repository

import (
	"context"
	"database/sql"
	"errors"

	internaldb "github.com/SharedMindsApp/SharedMindsMobileApp-sub009/internal/db"
	"github.com/SharedMindsApp/SharedMindsMobileApp-sub009/internal/domain"
)

var (
	_ domain.EntityLoader = (*TrackRepo)(nil)
	_ domain.EntityLoader = (*SubtrackRepo)(nil)
	_ domain.EntityLoader = (*TrackerRepo)(nil)
)

// EntityLoaders returns one loader per entity type, keyed by type tag.
func EntityLoaders(db *sql.DB, dialect internaldb.Dialect) map[domain.EntityType]domain.EntityLoader {
	return map[domain.EntityType]domain.EntityLoader{
		domain.EntityTrack:    NewTrackRepo(db, dialect),
		domain.EntitySubtrack: NewSubtrackRepo(db, dialect),
		domain.EntityTracker:  NewTrackerRepo(db, dialect),
	}
}

// TrackRepo reads and writes tracks.
type TrackRepo struct {
	store
}

func NewTrackRepo(db *sql.DB, dialect internaldb.Dialect) *TrackRepo {
	return &TrackRepo{store: newStore(db, dialect)}
}

// Create inserts a track. An empty ID is generated.
func (r *TrackRepo) Create(ctx context.Context, t *domain.TrackEntity) (*domain.TrackEntity, error) {
	out := *t
	if out.ID == "" {
		out.ID = domain.NewID()
	}
	out.CreatedAt = now()
	_, err := r.db.ExecContext(ctx, r.q(`INSERT INTO tracks (id, owner_id, title, created_at) VALUES (?, ?, ?, ?)`),
		out.ID, out.OwnerID, out.Title, out.CreatedAt)
	if err != nil {
		return nil, mapEntityWriteError(err, domain.Track(out.ID))
	}
	return &out, nil
}

func (r *TrackRepo) Get(ctx context.Context, id string) (*domain.TrackEntity, error) {
	var (
		t          domain.TrackEntity
		archivedAt sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, r.q(`SELECT id, owner_id, title, created_at, archived_at
		FROM tracks WHERE id = ?`), id).Scan(&t.ID, &t.OwnerID, &t.Title, &t.CreatedAt, &archivedAt)
	if err != nil {
		return nil, mapEntityReadError(err, domain.Track(id))
	}
	t.CreatedAt = t.CreatedAt.UTC()
	t.ArchivedAt = timePtr(archivedAt)
	return &t, nil
}

func (r *TrackRepo) Load(ctx context.Context, id string) (domain.Entity, error) {
	t, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Archive marks a track archived. Its subtracks become archived with it.
func (r *TrackRepo) Archive(ctx context.Context, id string) error {
	return archiveRow(ctx, r.store, "tracks", domain.Track(id))
}

// SubtrackRepo reads and writes subtracks. Loads join the parent track for
// ownership and archive state.
type SubtrackRepo struct {
	store
}

func NewSubtrackRepo(db *sql.DB, dialect internaldb.Dialect) *SubtrackRepo {
	return &SubtrackRepo{store: newStore(db, dialect)}
}

func (r *SubtrackRepo) Create(ctx context.Context, s *domain.SubtrackEntity) (*domain.SubtrackEntity, error) {
	out := *s
	if out.ID == "" {
		out.ID = domain.NewID()
	}
	out.CreatedAt = now()
	_, err := r.db.ExecContext(ctx, r.q(`INSERT INTO subtracks (id, track_id, title, created_at) VALUES (?, ?, ?, ?)`),
		out.ID, out.TrackID, out.Title, out.CreatedAt)
	if err != nil {
		return nil, mapEntityWriteError(err, domain.Subtrack(out.ID))
	}
	return r.Get(ctx, out.ID)
}

func (r *SubtrackRepo) Get(ctx context.Context, id string) (*domain.SubtrackEntity, error) {
	var (
		s                   domain.SubtrackEntity
		archivedAt, trackAt sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, r.q(`SELECT s.id, s.track_id, t.owner_id, s.title, s.created_at,
		s.archived_at, t.archived_at
		FROM subtracks s JOIN tracks t ON t.id = s.track_id
		WHERE s.id = ?`), id).Scan(&s.ID, &s.TrackID, &s.OwnerID, &s.Title, &s.CreatedAt, &archivedAt, &trackAt)
	if err != nil {
		return nil, mapEntityReadError(err, domain.Subtrack(id))
	}
	s.CreatedAt = s.CreatedAt.UTC()
	s.ArchivedAt = timePtr(archivedAt)
	s.TrackArchivedAt = timePtr(trackAt)
	return &s, nil
}

func (r *SubtrackRepo) Load(ctx context.Context, id string) (domain.Entity, error) {
	s, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *SubtrackRepo) Archive(ctx context.Context, id string) error {
	return archiveRow(ctx, r.store, "subtracks", domain.Subtrack(id))
}

// TrackerRepo reads and writes trackers.
type TrackerRepo struct {
	store
}

func NewTrackerRepo(db *sql.DB, dialect internaldb.Dialect) *TrackerRepo {
	return &TrackerRepo{store: newStore(db, dialect)}
}

func (r *TrackerRepo) Create(ctx context.Context, t *domain.TrackerEntity) (*domain.TrackerEntity, error) {
	out := *t
	if out.ID == "" {
		out.ID = domain.NewID()
	}
	out.CreatedAt = now()
	_, err := r.db.ExecContext(ctx, r.q(`INSERT INTO trackers (id, owner_id, name, created_at) VALUES (?, ?, ?, ?)`),
		out.ID, out.OwnerID, out.Name, out.CreatedAt)
	if err != nil {
		return nil, mapEntityWriteError(err, domain.Tracker(out.ID))
	}
	return &out, nil
}

func (r *TrackerRepo) Get(ctx context.Context, id string) (*domain.TrackerEntity, error) {
	var (
		t          domain.TrackerEntity
		archivedAt sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, r.q(`SELECT id, owner_id, name, created_at, archived_at
		FROM trackers WHERE id = ?`), id).Scan(&t.ID, &t.OwnerID, &t.Name, &t.CreatedAt, &archivedAt)
	if err != nil {
		return nil, mapEntityReadError(err, domain.Tracker(id))
	}
	t.CreatedAt = t.CreatedAt.UTC()
	t.ArchivedAt = timePtr(archivedAt)
	return &t, nil
}

func (r *TrackerRepo) Load(ctx context.Context, id string) (domain.Entity, error) {
	t, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *TrackerRepo) Archive(ctx context.Context, id string) error {
	return archiveRow(ctx, r.store, "trackers", domain.Tracker(id))
}

// archiveRow stamps archived_at on table; an already archived row is left as is.
func archiveRow(ctx context.Context, s store, table string, ref domain.EntityRef) error {
	if _, err := s.db.ExecContext(ctx, s.q(`UPDATE `+table+` SET archived_at = ?
		WHERE id = ? AND archived_at IS NULL`), now(), ref.ID); err != nil {
		return mapDBError(err)
	}
	n, err := countRows(ctx, s.db, s.q(`SELECT COUNT(*) FROM `+table+` WHERE id = ?`), ref.ID)
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound("%s not found", ref)
	}
	return nil
}

func mapEntityReadError(err error, ref domain.EntityRef) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound("%s not found", ref)
	}
	return err
}

func mapEntityWriteError(err error, ref domain.EntityRef) error {
	if isUniqueViolation(err) {
		return domain.ErrConflict("%s already exists", ref)
	}
	if isForeignKeyViolation(err) {
		return domain.ErrValidation("%s references an unknown owner or parent", ref)
	}
	return mapDBError(err)
}
