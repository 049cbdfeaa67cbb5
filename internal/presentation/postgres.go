package presentation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Schema is the SQL DDL for the presentations table. Execute it via
// [PostgresStore.Migrate] or apply it manually during deployment.
//
// Slides (with their takes and scripts) are serialised as one JSONB column:
// the snapshot is always written and read whole, so there is nothing to gain
// from relational decomposition.
const Schema = `
CREATE TABLE IF NOT EXISTS presentations (
    id                        TEXT PRIMARY KEY,
    name                      TEXT NOT NULL,
    document_ref              TEXT NOT NULL DEFAULT '',
    page_count                INTEGER NOT NULL DEFAULT 0,
    slides                    JSONB NOT NULL DEFAULT '[]',
    full_script               TEXT NOT NULL DEFAULT '',
    full_script_generated_at  TIMESTAMPTZ,
    created_at                TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at                TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// DB is the database interface used by [PostgresStore]. Both *pgxpool.Pool
// and *pgx.Conn satisfy this interface.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore is a [Store] backed by a PostgreSQL database.
type PostgresStore struct {
	db DB
}

// Compile-time interface check.
var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a new [PostgresStore] that uses the given database
// connection or pool. The caller is responsible for calling
// [PostgresStore.Migrate] to ensure the schema exists before issuing queries.
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate executes the [Schema] DDL against the database, creating the
// presentations table if it does not already exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.Exec(ctx, Schema)
	if err != nil {
		return fmt.Errorf("presentation: migrate: %w", err)
	}
	return nil
}

// Save implements [Store.Save] as an upsert.
func (s *PostgresStore) Save(ctx context.Context, p Presentation) error {
	slidesJSON, err := json.Marshal(emptySlides(p.Slides))
	if err != nil {
		return fmt.Errorf("presentation: marshal slides: %w", err)
	}

	const query = `
		INSERT INTO presentations (
			id, name, document_ref, page_count, slides,
			full_script, full_script_generated_at, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			document_ref = EXCLUDED.document_ref,
			page_count = EXCLUDED.page_count,
			slides = EXCLUDED.slides,
			full_script = EXCLUDED.full_script,
			full_script_generated_at = EXCLUDED.full_script_generated_at,
			updated_at = now()`

	_, err = s.db.Exec(ctx, query,
		p.ID, p.Name, p.DocumentRef, p.PageCount, slidesJSON,
		p.FullScript, nullableTime(p.FullScriptGeneratedAt), p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("presentation: save: %w", err)
	}
	return nil
}

// Get implements [Store.Get].
func (s *PostgresStore) Get(ctx context.Context, id string) (Presentation, error) {
	const query = `
		SELECT id, name, document_ref, page_count, slides,
		       full_script, full_script_generated_at, created_at
		FROM presentations
		WHERE id = $1`

	p, err := scanPresentation(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Presentation{}, ErrNotFound
		}
		return Presentation{}, fmt.Errorf("presentation: get: %w", err)
	}
	return p, nil
}

// List implements [Store.List].
func (s *PostgresStore) List(ctx context.Context) ([]Presentation, error) {
	const query = `
		SELECT id, name, document_ref, page_count, slides,
		       full_script, full_script_generated_at, created_at
		FROM presentations
		ORDER BY created_at`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("presentation: list: %w", err)
	}
	defer rows.Close()

	var result []Presentation
	for rows.Next() {
		p, err := scanPresentation(rows)
		if err != nil {
			return nil, fmt.Errorf("presentation: list: %w", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("presentation: list: %w", err)
	}
	return result, nil
}

// Delete implements [Store.Delete].
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM presentations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("presentation: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPresentation(row rowScanner) (Presentation, error) {
	var p Presentation
	var slidesJSON []byte
	var generatedAt *time.Time

	err := row.Scan(
		&p.ID, &p.Name, &p.DocumentRef, &p.PageCount, &slidesJSON,
		&p.FullScript, &generatedAt, &p.CreatedAt,
	)
	if err != nil {
		return Presentation{}, err
	}
	if err := json.Unmarshal(slidesJSON, &p.Slides); err != nil {
		return Presentation{}, fmt.Errorf("unmarshal slides: %w", err)
	}
	if generatedAt != nil {
		p.FullScriptGeneratedAt = *generatedAt
	}
	return p, nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func emptySlides(s []Slide) []Slide {
	if s == nil {
		return []Slide{}
	}
	return s
}
