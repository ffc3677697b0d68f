package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dd0wney/campusnav/pkg/campus"
)

// PGStore keeps every published document as a revision in PostgreSQL.
// Load returns the newest revision.
type PGStore struct {
	pool *pgxpool.Pool
}

// Revision describes one stored document
type Revision struct {
	ID          int64     `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	EditedBy    string    `json:"edited_by"`
	Fingerprint string    `json:"fingerprint"`
}

// NewPGStore creates a new PostgreSQL-backed snapshot store
func NewPGStore(ctx context.Context, databaseURL string) (*PGStore, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	// Connection pooling configuration
	config.MaxConns = 10
	config.MinConns = 1
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	s := &PGStore{pool: pool}

	// Create tables if they don't exist
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return s, nil
}

func (s *PGStore) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS campus_snapshots (
		id BIGSERIAL PRIMARY KEY,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		edited_by TEXT NOT NULL DEFAULT '',
		fingerprint TEXT NOT NULL,
		body JSONB NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_campus_snapshots_fingerprint ON campus_snapshots(fingerprint);
	`

	_, err := s.pool.Exec(ctx, schema)
	return err
}

// Kind returns "postgres"
func (s *PGStore) Kind() string { return "postgres" }

// Ping checks database connectivity
func (s *PGStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the database connection pool
func (s *PGStore) Close() error {
	s.pool.Close()
	return nil
}

// Load returns the newest stored document
func (s *PGStore) Load(ctx context.Context) (*campus.Document, error) {
	var body []byte
	err := s.pool.QueryRow(ctx,
		`SELECT body FROM campus_snapshots ORDER BY id DESC LIMIT 1`,
	).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("campus_snapshots: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	return Decode(body)
}

// Save inserts doc as a new revision. A document identical to the newest
// revision is not stored again.
func (s *PGStore) Save(ctx context.Context, doc *campus.Document) error {
	fp, err := Fingerprint(doc)
	if err != nil {
		return err
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO campus_snapshots (edited_by, fingerprint, body)
		SELECT $1::text, $2::text, $3::jsonb
		WHERE NOT EXISTS (
			SELECT 1 FROM (
				SELECT fingerprint FROM campus_snapshots ORDER BY id DESC LIMIT 1
			) latest WHERE latest.fingerprint = $2::text
		)`,
		doc.Meta.EditedBy, fp, body,
	)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// Revisions lists the newest revisions first
func (s *PGStore) Revisions(ctx context.Context, limit int) ([]Revision, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, created_at, edited_by, fingerprint
		FROM campus_snapshots ORDER BY id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list revisions: %w", err)
	}
	defer rows.Close()

	var revisions []Revision
	for rows.Next() {
		var r Revision
		if err := rows.Scan(&r.ID, &r.CreatedAt, &r.EditedBy, &r.Fingerprint); err != nil {
			return nil, fmt.Errorf("failed to scan revision: %w", err)
		}
		revisions = append(revisions, r)
	}
	return revisions, rows.Err()
}
