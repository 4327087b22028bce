package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/outreach-engine/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
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
CREATE TABLE IF NOT EXISTS analysis_results (
	id         TEXT PRIMARY KEY,
	result     TEXT NOT NULL,
	saved_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS knowledge_snapshots (
	instance   TEXT PRIMARY KEY,
	records    TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_analysis_results_saved_at ON analysis_results(saved_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveResult(ctx context.Context, job *model.Job) error {
	resultJSON, err := json.Marshal(job)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal result")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO analysis_results (id, result, saved_at) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET result = excluded.result, saved_at = excluded.saved_at`,
		job.ID, string(resultJSON), time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: save result %s", job.ID)
}

func (s *SQLiteStore) GetResult(ctx context.Context, jobID string) (*model.Job, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT result FROM analysis_results WHERE id = ?`,
		jobID,
	)

	var resultJSON string
	err := row.Scan(&resultJSON)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get result")
	}

	var job model.Job
	if err := json.Unmarshal([]byte(resultJSON), &job); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal result")
	}
	return &job, nil
}

func (s *SQLiteStore) SaveKnowledge(ctx context.Context, instance string, records []model.KnowledgeRecord) error {
	recordsJSON, err := json.Marshal(records)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal knowledge")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO knowledge_snapshots (instance, records, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(instance) DO UPDATE SET records = excluded.records, updated_at = excluded.updated_at`,
		instance, string(recordsJSON), time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: save knowledge %s", instance)
}

func (s *SQLiteStore) LoadKnowledge(ctx context.Context, instance string) ([]model.KnowledgeRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT records FROM knowledge_snapshots WHERE instance = ?`,
		instance,
	)

	var recordsJSON string
	err := row.Scan(&recordsJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: load knowledge")
	}

	var records []model.KnowledgeRecord
	if err := json.Unmarshal([]byte(recordsJSON), &records); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal knowledge")
	}
	return records, nil
}
