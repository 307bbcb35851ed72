package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/supplier-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock satisfies it.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// NewPostgres creates a PostgresStore with a small connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 4
	pgxCfg.MinConns = 1
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
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS feedback (
	id            TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	supplier_name TEXT NOT NULL,
	comment       TEXT NOT NULL DEFAULT '',
	rating        SMALLINT NOT NULL CHECK (rating BETWEEN 1 AND 5),
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_feedback_supplier ON feedback(supplier_name);
CREATE INDEX IF NOT EXISTS idx_feedback_created_at ON feedback(created_at DESC);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) SaveFeedback(ctx context.Context, fb model.Feedback) (*model.Feedback, error) {
	fb, err := prepare(fb, uuid.NewString, time.Now)
	if err != nil {
		return nil, err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO feedback (id, supplier_name, comment, rating, created_at) VALUES ($1, $2, $3, $4, $5)`,
		fb.ID, fb.SupplierName, fb.Comment, fb.Rating, fb.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert feedback")
	}
	return &fb, nil
}

func (s *PostgresStore) GetFeedback(ctx context.Context, id string) (*model.Feedback, error) {
	var fb model.Feedback
	err := s.pool.QueryRow(ctx,
		`SELECT id, supplier_name, comment, rating, created_at FROM feedback WHERE id = $1`, id,
	).Scan(&fb.ID, &fb.SupplierName, &fb.Comment, &fb.Rating, &fb.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: feedback %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get feedback %s", id)
	}
	fb.CreatedAt = fb.CreatedAt.UTC()
	return &fb, nil
}

func (s *PostgresStore) ListFeedback(ctx context.Context, filter FeedbackFilter) ([]model.Feedback, error) {
	query := `SELECT id, supplier_name, comment, rating, created_at FROM feedback`
	var args []any
	if filter.SupplierName != "" {
		query += ` WHERE supplier_name = $1 ORDER BY created_at DESC, id DESC LIMIT $2`
		args = append(args, filter.SupplierName, filter.limit())
	} else {
		query += ` ORDER BY created_at DESC, id DESC LIMIT $1`
		args = append(args, filter.limit())
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list feedback")
	}
	defer rows.Close()

	out := []model.Feedback{}
	for rows.Next() {
		var fb model.Feedback
		if err := rows.Scan(&fb.ID, &fb.SupplierName, &fb.Comment, &fb.Rating, &fb.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan feedback")
		}
		fb.CreatedAt = fb.CreatedAt.UTC()
		out = append(out, fb)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate feedback")
}
