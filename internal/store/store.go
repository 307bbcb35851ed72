// Package store persists supplier feedback.
package store

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/supplier-cli/internal/model"
)

// ErrNotFound is returned when a feedback entry does not exist.
var ErrNotFound = eris.New("store: not found")

// DefaultListLimit caps ListFeedback when the filter sets no limit.
const DefaultListLimit = 100

// FeedbackFilter specifies criteria for listing feedback.
type FeedbackFilter struct {
	SupplierName string `json:"supplier_name,omitempty"`
	Limit        int    `json:"limit,omitempty"`
}

func (f FeedbackFilter) limit() int {
	if f.Limit <= 0 {
		return DefaultListLimit
	}
	return f.Limit
}

// Store defines feedback persistence.
type Store interface {
	// SaveFeedback validates fb, assigns an id and timestamp, and stores it.
	SaveFeedback(ctx context.Context, fb model.Feedback) (*model.Feedback, error)
	GetFeedback(ctx context.Context, id string) (*model.Feedback, error)
	// ListFeedback returns entries newest first.
	ListFeedback(ctx context.Context, filter FeedbackFilter) ([]model.Feedback, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open returns the Store for driver ("sqlite" or "postgres") and runs its
// migration.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	var (
		s   Store
		err error
	)
	switch strings.ToLower(driver) {
	case "", "sqlite":
		s, err = NewSQLite(dsn)
	case "postgres":
		s, err = NewPostgres(ctx, dsn)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// prepare validates fb and stamps it for insertion.
func prepare(fb model.Feedback, newID func() string, now func() time.Time) (model.Feedback, error) {
	if err := fb.Validate(); err != nil {
		return fb, err
	}
	fb.ID = newID()
	fb.SupplierName = strings.TrimSpace(fb.SupplierName)
	fb.Comment = strings.TrimSpace(fb.Comment)
	fb.CreatedAt = now().UTC()
	return fb, nil
}
