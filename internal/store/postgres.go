package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
)

// Pool is the subset of pgxpool.Pool the store needs. pgxmock satisfies it
// in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore implements ProjectStore using pgx.
type PostgresStore struct {
	pool Pool
}

// NewPostgres connects a pgx pool to the given URL.
func NewPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool (used by tests).
func NewPostgresWithPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS artifacts (
	project_id TEXT NOT NULL,
	name       TEXT NOT NULL,
	idx        INTEGER NOT NULL DEFAULT 0,
	data       JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (project_id, name)
);

CREATE TABLE IF NOT EXISTS progress (
	project_id TEXT NOT NULL,
	name       TEXT NOT NULL,
	data       JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (project_id, name)
);
`

// Migrate applies the schema.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) ReadJSON(ctx context.Context, projectID, name string, out any) error {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM artifacts WHERE project_id = $1 AND name = $2`,
		projectID, name,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return eris.Wrapf(err, "postgres: read artifact %s/%s", projectID, name)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return eris.Wrapf(err, "postgres: decode artifact %s/%s", projectID, name)
	}
	return nil
}

func (s *PostgresStore) WriteJSON(ctx context.Context, projectID string, index int, name string, data any) (string, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return "", eris.Wrapf(err, "postgres: encode artifact %s/%s", projectID, name)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO artifacts (project_id, name, idx, data, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (project_id, name) DO UPDATE SET
			idx = EXCLUDED.idx,
			data = EXCLUDED.data,
			updated_at = now()`,
		projectID, name, index, raw,
	)
	if err != nil {
		return "", eris.Wrapf(err, "postgres: write artifact %s/%s", projectID, name)
	}
	return "artifacts/" + projectID + "/" + name, nil
}

func (s *PostgresStore) ReadProgress(ctx context.Context, projectID, name string, out any) error {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM progress WHERE project_id = $1 AND name = $2`,
		projectID, name,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return eris.Wrapf(err, "postgres: read progress %s/%s", projectID, name)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return eris.Wrapf(err, "postgres: decode progress %s/%s", projectID, name)
	}
	return nil
}

func (s *PostgresStore) WriteProgress(ctx context.Context, projectID, name string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return eris.Wrapf(err, "postgres: encode progress %s/%s", projectID, name)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO progress (project_id, name, data, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (project_id, name) DO UPDATE SET
			data = EXCLUDED.data,
			updated_at = now()`,
		projectID, name, raw,
	)
	return eris.Wrapf(err, "postgres: write progress %s/%s", projectID, name)
}

func (s *PostgresStore) ListProjects(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT project_id FROM (
			SELECT project_id FROM artifacts
			UNION
			SELECT project_id FROM progress
		) p ORDER BY project_id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list projects")
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, eris.Wrap(err, "postgres: scan project id")
		}
		out = append(out, id)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate projects")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
