package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/klug-labs/closing-cli/internal/model"
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
CREATE TABLE IF NOT EXISTS enrichment_cache (
	cnpj      TEXT PRIMARY KEY,
	found     INTEGER NOT NULL,
	data      TEXT,
	cached_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS prediction_runs (
	id          TEXT PRIMARY KEY,
	status      TEXT NOT NULL,
	total       INTEGER NOT NULL,
	excluded    INTEGER NOT NULL,
	predictions TEXT NOT NULL,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_prediction_runs_created_at ON prediction_runs(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) GetEnrichment(ctx context.Context, cnpj string) (*model.Enrichment, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT found, data FROM enrichment_cache WHERE cnpj = ?`, cnpj,
	)

	var found bool
	var data sql.NullString
	err := row.Scan(&found, &data)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrap(err, "sqlite: get enrichment")
	}

	if !found || !data.Valid {
		return nil, true, nil
	}
	var e model.Enrichment
	if err := json.Unmarshal([]byte(data.String), &e); err != nil {
		return nil, false, eris.Wrap(err, "sqlite: unmarshal enrichment")
	}
	return &e, true, nil
}

func (s *SQLiteStore) SetEnrichment(ctx context.Context, cnpj string, e *model.Enrichment) error {
	var data any
	if e != nil {
		b, err := json.Marshal(e)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal enrichment")
		}
		data = string(b)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO enrichment_cache (cnpj, found, data, cached_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (cnpj) DO NOTHING`,
		cnpj, e != nil, data, time.Now().UTC(),
	)
	return eris.Wrap(err, "sqlite: set enrichment")
}

func (s *SQLiteStore) SavePredictionRun(ctx context.Context, run *model.PredictionRun) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	predictionsJSON, err := json.Marshal(run.Predictions)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal predictions")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO prediction_runs (id, status, total, excluded, predictions, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, string(run.Status), run.Total, run.Excluded, string(predictionsJSON), run.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: insert prediction run")
}

func (s *SQLiteStore) GetPredictionRun(ctx context.Context, id string) (*model.PredictionRun, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, status, total, excluded, predictions, created_at FROM prediction_runs WHERE id = ?`, id,
	)
	return scanPredictionRun(row)
}

func (s *SQLiteStore) LatestPredictionRun(ctx context.Context) (*model.PredictionRun, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, status, total, excluded, predictions, created_at FROM prediction_runs
		 ORDER BY created_at DESC LIMIT 1`,
	)
	return scanPredictionRun(row)
}

func (s *SQLiteStore) ListPredictionRuns(ctx context.Context, limit int) ([]model.PredictionRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, status, total, excluded, predictions, created_at FROM prediction_runs
		 ORDER BY created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list prediction runs")
	}
	defer rows.Close()

	var runs []model.PredictionRun
	for rows.Next() {
		r, err := scanPredictionRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list prediction runs iterate")
}

// ErrRunNotFound signals a missing prediction run.
var ErrRunNotFound = eris.New("store: prediction run not found")

type scannable interface {
	Scan(dest ...any) error
}

func scanPredictionRun(row scannable) (*model.PredictionRun, error) {
	var r model.PredictionRun
	var predictionsJSON string

	err := row.Scan(&r.ID, &r.Status, &r.Total, &r.Excluded, &predictionsJSON, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan prediction run")
	}

	if err := json.Unmarshal([]byte(predictionsJSON), &r.Predictions); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal predictions")
	}
	return &r, nil
}
