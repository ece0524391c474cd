package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"
	"go.uber.org/zap"

	"github.com/teranos/QVIZ/errors"
	"github.com/teranos/QVIZ/graph"
	"github.com/teranos/QVIZ/logger"
)

// slugBytes is how much of the uuid feeds the share slug. Eight bytes keeps
// slugs short enough to type while collisions stay negligible at spec-store
// scale.
const slugBytes = 8

// Record is one saved spec row. Payload holds the canonical JSON spec.
type Record struct {
	ID        string    `json:"id"`
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	Payload   []byte    `json:"-"`
	NodeCount int       `json:"node_count"`
	LinkCount int       `json:"link_count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store persists graph specs in SQLite, addressable by share slug.
type Store struct {
	db  *sql.DB
	log *zap.SugaredLogger
}

// NewStore creates a spec store over an open database.
func NewStore(db *sql.DB) *Store {
	return &Store{
		db:  db,
		log: logger.ComponentLogger("store"),
	}
}

// newSlug derives a short base58 share slug from fresh uuid bytes.
func newSlug(id uuid.UUID) string {
	return base58.Encode(id[:slugBytes])
}

// Save persists a spec and returns its record with the generated slug.
func (s *Store) Save(ctx context.Context, spec *graph.Spec) (*Record, error) {
	if spec == nil {
		return nil, errors.Wrap(errors.ErrInvalidRequest, "nil spec")
	}

	payload, err := json.Marshal(spec)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode spec")
	}

	id := uuid.New()
	now := time.Now().UTC()
	rec := &Record{
		ID:        id.String(),
		Slug:      newSlug(id),
		Title:     spec.Title,
		Payload:   payload,
		NodeCount: len(spec.Nodes),
		LinkCount: len(spec.Links),
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO specs (id, slug, title, payload, node_count, link_count, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Slug, rec.Title, rec.Payload, rec.NodeCount, rec.LinkCount, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return nil, errors.Wrap(err, "failed to save spec")
	}

	s.log.Debugw("Spec saved",
		logger.FieldSlug, rec.Slug,
		logger.FieldNodes, rec.NodeCount,
		logger.FieldLinks, rec.LinkCount,
	)
	return rec, nil
}

// GetBySlug loads a saved spec. Missing slugs return ErrNotFound.
func (s *Store) GetBySlug(ctx context.Context, slug string) (*graph.Spec, *Record, error) {
	rec := &Record{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, slug, title, payload, node_count, link_count, created_at, updated_at
		 FROM specs WHERE slug = ?`, slug).
		Scan(&rec.ID, &rec.Slug, &rec.Title, &rec.Payload, &rec.NodeCount, &rec.LinkCount, &rec.CreatedAt, &rec.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil, errors.Wrapf(errors.ErrNotFound, "spec %q", slug)
	}
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to load spec %q", slug)
	}

	spec, err := graph.ParseSpec(rec.Payload)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "stored spec %q is unreadable", slug)
	}
	return spec, rec, nil
}

// List returns saved spec records newest-first, without payloads. A limit
// of 0 means no limit.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	query := `SELECT id, slug, title, node_count, link_count, created_at, updated_at
		 FROM specs ORDER BY created_at DESC`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list specs")
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.Slug, &rec.Title, &rec.NodeCount, &rec.LinkCount, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan spec row")
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate spec rows")
	}
	return records, nil
}

// Delete removes a saved spec. Missing slugs return ErrNotFound.
func (s *Store) Delete(ctx context.Context, slug string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM specs WHERE slug = ?", slug)
	if err != nil {
		return errors.Wrapf(err, "failed to delete spec %q", slug)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to confirm delete")
	}
	if affected == 0 {
		return errors.Wrapf(errors.ErrNotFound, "spec %q", slug)
	}

	s.log.Debugw("Spec deleted", logger.FieldSlug, slug)
	return nil
}
