package model

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Rating bounds for supplier feedback.
const (
	MinRating = 1
	MaxRating = 5
)

// Feedback is free-text user feedback on one recommended supplier.
type Feedback struct {
	ID           string    `json:"id"`
	SupplierName string    `json:"supplier_name"`
	Comment      string    `json:"comment"`
	Rating       int       `json:"rating"`
	CreatedAt    time.Time `json:"created_at"`
}

// Validate checks the required fields and the rating range.
func (f Feedback) Validate() error {
	if strings.TrimSpace(f.SupplierName) == "" {
		return eris.New("feedback: supplier name is required")
	}
	if f.Rating < MinRating || f.Rating > MaxRating {
		return eris.Errorf("feedback: rating must be between %d and %d, got %d", MinRating, MaxRating, f.Rating)
	}
	return nil
}
