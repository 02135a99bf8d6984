package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements ProjectStore using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS artifacts (
	project_id TEXT NOT NULL,
	name       TEXT NOT NULL,
	idx        INTEGER NOT NULL DEFAULT 0,
	data       TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (project_id, name)
);

CREATE TABLE IF NOT EXISTS progress (
	project_id TEXT NOT NULL,
	name       TEXT NOT NULL,
	data       TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (project_id, name)
);

CREATE INDEX IF NOT EXISTS idx_artifacts_project ON artifacts(project_id);
CREATE INDEX IF NOT EXISTS idx_progress_project ON progress(project_id);
`

// Migrate applies the schema.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) ReadJSON(ctx context.Context, projectID, name string, out any) error {
	var raw []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM artifacts WHERE project_id = ? AND name = ?`,
		projectID, name,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return eris.Wrapf(err, "sqlite: read artifact %s/%s", projectID, name)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return eris.Wrapf(err, "sqlite: decode artifact %s/%s", projectID, name)
	}
	return nil
}

func (s *SQLiteStore) WriteJSON(ctx context.Context, projectID string, index int, name string, data any) (string, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return "", eris.Wrapf(err, "sqlite: encode artifact %s/%s", projectID, name)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO artifacts (project_id, name, idx, data, updated_at)
		VALUES (?, ?, ?, ?, datetime('now'))
		ON CONFLICT (project_id, name) DO UPDATE SET
			idx = excluded.idx,
			data = excluded.data,
			updated_at = datetime('now')`,
		projectID, name, index, string(raw),
	)
	if err != nil {
		return "", eris.Wrapf(err, "sqlite: write artifact %s/%s", projectID, name)
	}
	return "artifacts/" + projectID + "/" + name, nil
}

func (s *SQLiteStore) ReadProgress(ctx context.Context, projectID, name string, out any) error {
	var raw []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM progress WHERE project_id = ? AND name = ?`,
		projectID, name,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return eris.Wrapf(err, "sqlite: read progress %s/%s", projectID, name)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return eris.Wrapf(err, "sqlite: decode progress %s/%s", projectID, name)
	}
	return nil
}

func (s *SQLiteStore) WriteProgress(ctx context.Context, projectID, name string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return eris.Wrapf(err, "sqlite: encode progress %s/%s", projectID, name)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO progress (project_id, name, data, updated_at)
		VALUES (?, ?, ?, datetime('now'))
		ON CONFLICT (project_id, name) DO UPDATE SET
			data = excluded.data,
			updated_at = datetime('now')`,
		projectID, name, string(raw),
	)
	return eris.Wrapf(err, "sqlite: write progress %s/%s", projectID, name)
}

func (s *SQLiteStore) ListProjects(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT project_id FROM (
			SELECT project_id FROM artifacts
			UNION
			SELECT project_id FROM progress
		) ORDER BY project_id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list projects")
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan project id")
		}
		out = append(out, id)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate projects")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
