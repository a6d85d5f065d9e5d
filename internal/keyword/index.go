// Package keyword provides full-text title search used to pick seed titles.
package keyword

import (
	"context"

	"github.com/hyperjump/animerec/internal/models"
)

// TitleIndex defines title search operations.
type TitleIndex interface {
	// IndexTitles adds titles to the index, keyed by name.
	IndexTitles(ctx context.Context, titles []models.Title) error
	// Search returns up to limit titles matching query, best first.
	Search(ctx context.Context, query string, limit int) ([]*TitleHit, error)
	// Suggest returns up to limit indexed names closest to a name that did not resolve.
	Suggest(ctx context.Context, name string, limit int) ([]string, error)
	// DocCount returns the total number of indexed titles.
	DocCount() (uint64, error)
	Close() error
}

// TitleHit is a single title search hit.
type TitleHit struct {
	Name  string
	Score float64
}
