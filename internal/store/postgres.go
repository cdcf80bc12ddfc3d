package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/klug-labs/closing-cli/internal/db"
	"github.com/klug-labs/closing-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool db.Pool
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

// NewPostgresWithPool wraps an existing pool. Used by tests with pgxmock.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS enrichment_cache (
	cnpj      TEXT PRIMARY KEY,
	found     BOOLEAN NOT NULL,
	data      JSONB,
	cached_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS prediction_runs (
	id          TEXT PRIMARY KEY,
	status      TEXT NOT NULL,
	total       INTEGER NOT NULL,
	excluded    INTEGER NOT NULL,
	predictions JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_prediction_runs_created_at ON prediction_runs(created_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) GetEnrichment(ctx context.Context, cnpj string) (*model.Enrichment, bool, error) {
	var found bool
	var data *string
	err := s.pool.QueryRow(ctx,
		`SELECT found, data FROM enrichment_cache WHERE cnpj = $1`, cnpj,
	).Scan(&found, &data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrap(err, "postgres: get enrichment")
	}

	if !found || data == nil {
		return nil, true, nil
	}
	var e model.Enrichment
	if err := json.Unmarshal([]byte(*data), &e); err != nil {
		return nil, false, eris.Wrap(err, "postgres: unmarshal enrichment")
	}
	return &e, true, nil
}

func (s *PostgresStore) SetEnrichment(ctx context.Context, cnpj string, e *model.Enrichment) error {
	var data any
	if e != nil {
		b, err := json.Marshal(e)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal enrichment")
		}
		data = string(b)
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO enrichment_cache (cnpj, found, data, cached_at) VALUES ($1, $2, $3, now())
		 ON CONFLICT (cnpj) DO NOTHING`,
		cnpj, e != nil, data,
	)
	return eris.Wrap(err, "postgres: set enrichment")
}

func (s *PostgresStore) SavePredictionRun(ctx context.Context, run *model.PredictionRun) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	predictionsJSON, err := json.Marshal(run.Predictions)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal predictions")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO prediction_runs (id, status, total, excluded, predictions, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		run.ID, string(run.Status), run.Total, run.Excluded, string(predictionsJSON), run.CreatedAt,
	)
	return eris.Wrap(err, "postgres: insert prediction run")
}

func (s *PostgresStore) GetPredictionRun(ctx context.Context, id string) (*model.PredictionRun, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, status, total, excluded, predictions, created_at FROM prediction_runs WHERE id = $1`, id,
	)
	return scanPredictionRunPG(row)
}

func (s *PostgresStore) LatestPredictionRun(ctx context.Context) (*model.PredictionRun, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, status, total, excluded, predictions, created_at FROM prediction_runs
		 ORDER BY created_at DESC LIMIT 1`,
	)
	return scanPredictionRunPG(row)
}

func (s *PostgresStore) ListPredictionRuns(ctx context.Context, limit int) ([]model.PredictionRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, status, total, excluded, predictions, created_at FROM prediction_runs
		 ORDER BY created_at DESC LIMIT $1`, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list prediction runs")
	}
	defer rows.Close()

	var runs []model.PredictionRun
	for rows.Next() {
		r, err := scanPredictionRunPG(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list prediction runs iterate")
}

func scanPredictionRunPG(row scannable) (*model.PredictionRun, error) {
	var r model.PredictionRun
	var predictionsJSON string

	err := row.Scan(&r.ID, &r.Status, &r.Total, &r.Excluded, &predictionsJSON, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan prediction run")
	}

	if err := json.Unmarshal([]byte(predictionsJSON), &r.Predictions); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal predictions")
	}
	return &r, nil
}
