package search

import (
	"errors"
	"fmt"

	"github.com/hyperjump/animerec/internal/config"
	"github.com/hyperjump/animerec/internal/models"
)

// ErrInvalidQuery wraps every query validation failure.
var ErrInvalidQuery = errors.New("invalid query")

// ProcessFilterQuery validates the filter query and applies the configured defaults.
func ProcessFilterQuery(q *models.FilterQuery, cfg *config.SearchConfig) error {
	if err := q.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	if q.Sort == models.SortDefault {
		q.Sort = cfg.FilterSort
	}
	q.Limit = clampLimit(q.Limit, cfg)
	return nil
}

// ProcessSimilarQuery validates the similarity query and applies the configured defaults.
func ProcessSimilarQuery(q *models.SimilarQuery, cfg *config.SearchConfig) error {
	if q.Limit <= 0 {
		q.Limit = cfg.DefaultLimit
	}
	if err := q.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	q.Limit = clampLimit(q.Limit, cfg)
	return nil
}

func clampLimit(limit int, cfg *config.SearchConfig) int {
	if limit <= 0 {
		limit = cfg.DefaultLimit
	}
	if cfg.MaxLimit > 0 && limit > cfg.MaxLimit {
		limit = cfg.MaxLimit
	}
	if limit <= 0 {
		limit = models.DefaultLimit
	}
	return limit
}
