package models

// RankedResult is a title prepared for display. Similarity is nil for filter results.
// ExcludedForDisplay tells display collaborators to show a placeholder image and skip
// synopsis-derived content; the title itself stays in the results.
type RankedResult struct {
	Title
	Similarity         *float64 `json:"similarity,omitempty"`
	ExcludedForDisplay bool     `json:"excluded_for_display"`
	ImageURL           string   `json:"image_url,omitempty"`
	Synopsis           string   `json:"synopsis,omitempty"`
	Rank               int      `json:"rank"`
}

// TitleInfo is what an image/synopsis lookup returns for one title.
type TitleInfo struct {
	Name     string `json:"name"`
	ImageURL string `json:"image_url"`
	Synopsis string `json:"synopsis"`
}

// FilterResponse is the response for a filter request.
type FilterResponse struct {
	Results   []*RankedResult `json:"results"`
	Total     int             `json:"total"`
	Empty     bool            `json:"empty"`
	QueryTime int64           `json:"query_time_ms"`
}

// RecommendResponse is the response for a similarity request.
type RecommendResponse struct {
	Results []*RankedResult `json:"results"`
	Seeds   []string        `json:"seeds"`
	// Unresolved are requested seed names that matched no catalog title.
	Unresolved []string `json:"unresolved,omitempty"`
	// Suggestions are close title names for unresolved seeds.
	Suggestions []string `json:"suggestions,omitempty"`
	Empty       bool     `json:"empty"`
	QueryTime   int64    `json:"query_time_ms"`
}

// TitleMatch is a title search hit used for seed selection.
type TitleMatch struct {
	Name       string  `json:"name"`
	SeriesName string  `json:"series_name"`
	Score      float64 `json:"score"`
}
