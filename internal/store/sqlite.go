package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/supplier-cli/internal/model"
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
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS feedback (
	id            TEXT PRIMARY KEY,
	supplier_name TEXT NOT NULL,
	comment       TEXT NOT NULL DEFAULT '',
	rating        INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
	created_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_feedback_supplier ON feedback(supplier_name);
CREATE INDEX IF NOT EXISTS idx_feedback_created_at ON feedback(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveFeedback(ctx context.Context, fb model.Feedback) (*model.Feedback, error) {
	fb, err := prepare(fb, uuid.NewString, time.Now)
	if err != nil {
		return nil, err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO feedback (id, supplier_name, comment, rating, created_at) VALUES (?, ?, ?, ?, ?)`,
		fb.ID, fb.SupplierName, fb.Comment, fb.Rating, fb.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert feedback")
	}
	return &fb, nil
}

func (s *SQLiteStore) GetFeedback(ctx context.Context, id string) (*model.Feedback, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, supplier_name, comment, rating, created_at FROM feedback WHERE id = ?`, id)
	fb, err := scanFeedback(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: feedback %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get feedback %s", id)
	}
	return fb, nil
}

func (s *SQLiteStore) ListFeedback(ctx context.Context, filter FeedbackFilter) ([]model.Feedback, error) {
	query := `SELECT id, supplier_name, comment, rating, created_at FROM feedback`
	var args []any
	if filter.SupplierName != "" {
		query += ` WHERE supplier_name = ?`
		args = append(args, filter.SupplierName)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, filter.limit())

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list feedback")
	}
	defer rows.Close() //nolint:errcheck

	out := []model.Feedback{}
	for rows.Next() {
		fb, err := scanFeedback(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan feedback")
		}
		out = append(out, *fb)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate feedback")
}

type scannable interface {
	Scan(dest ...any) error
}

func scanFeedback(row scannable) (*model.Feedback, error) {
	var fb model.Feedback
	if err := row.Scan(&fb.ID, &fb.SupplierName, &fb.Comment, &fb.Rating, &fb.CreatedAt); err != nil {
		return nil, err
	}
	fb.CreatedAt = fb.CreatedAt.UTC()
	return &fb, nil
}
