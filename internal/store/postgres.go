package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/outreach-engine/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses; satisfied by pgxmock
// in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS analysis_results (
	id       TEXT PRIMARY KEY,
	result   JSONB NOT NULL,
	saved_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS knowledge_snapshots (
	instance   TEXT PRIMARY KEY,
	records    JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_analysis_results_saved_at ON analysis_results(saved_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) SaveResult(ctx context.Context, job *model.Job) error {
	resultJSON, err := json.Marshal(job)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal result")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO analysis_results (id, result, saved_at) VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO UPDATE SET result = EXCLUDED.result, saved_at = EXCLUDED.saved_at`,
		job.ID, resultJSON, time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: save result %s", job.ID)
}

func (s *PostgresStore) GetResult(ctx context.Context, jobID string) (*model.Job, error) {
	var resultJSON []byte
	err := s.pool.QueryRow(ctx,
		`SELECT result FROM analysis_results WHERE id = $1`,
		jobID,
	).Scan(&resultJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get result")
	}

	var job model.Job
	if err := json.Unmarshal(resultJSON, &job); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal result")
	}
	return &job, nil
}

func (s *PostgresStore) SaveKnowledge(ctx context.Context, instance string, records []model.KnowledgeRecord) error {
	recordsJSON, err := json.Marshal(records)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal knowledge")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO knowledge_snapshots (instance, records, updated_at) VALUES ($1, $2, $3)
		 ON CONFLICT (instance) DO UPDATE SET records = EXCLUDED.records, updated_at = EXCLUDED.updated_at`,
		instance, recordsJSON, time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: save knowledge %s", instance)
}

func (s *PostgresStore) LoadKnowledge(ctx context.Context, instance string) ([]model.KnowledgeRecord, error) {
	var recordsJSON []byte
	err := s.pool.QueryRow(ctx,
		`SELECT records FROM knowledge_snapshots WHERE instance = $1`,
		instance,
	).Scan(&recordsJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: load knowledge")
	}

	var records []model.KnowledgeRecord
	if err := json.Unmarshal(recordsJSON, &records); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal knowledge")
	}
	return records, nil
}
