// Package cli renders query results for the command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/animerec/internal/models"
	"github.com/hyperjump/animerec/internal/search"
	"github.com/hyperjump/animerec/pkg/utils"
)

// OutputFormat is the format for result output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

const synopsisWords = 40

// ParseFormat returns the format named s. Anything but "json" is text.
func ParseFormat(s string) OutputFormat {
	if strings.EqualFold(strings.TrimSpace(s), string(OutputJSON)) {
		return OutputJSON
	}
	return OutputText
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteFilterResults writes a filter response to w in the given format.
func WriteFilterResults(w io.Writer, response *models.FilterResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, response)
	}
	if response.Empty {
		fmt.Fprintf(w, "\nNo titles match the filter (%dms)\n", response.QueryTime)
		return nil
	}
	fmt.Fprintf(w, "\nShowing %d of %d matching titles (%dms)\n\n", len(response.Results), response.Total, response.QueryTime)
	for _, r := range response.Results {
		writeOneResult(w, r)
	}
	return nil
}

// WriteRecommendResults writes a recommendation response to w in the given format.
func WriteRecommendResults(w io.Writer, response *models.RecommendResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, response)
	}
	if len(response.Seeds) > 0 {
		fmt.Fprintf(w, "\nTitles similar to %s (%dms)\n", strings.Join(response.Seeds, ", "), response.QueryTime)
	}
	if len(response.Unresolved) > 0 {
		fmt.Fprintf(w, "Not in catalog: %s\n", strings.Join(response.Unresolved, ", "))
		if len(response.Suggestions) > 0 {
			fmt.Fprintf(w, "Did you mean: %s\n", strings.Join(response.Suggestions, ", "))
		}
	}
	if response.Empty {
		fmt.Fprintln(w, "\nNo recommendations")
		return nil
	}
	fmt.Fprintln(w)
	for _, r := range response.Results {
		writeOneResult(w, r)
	}
	return nil
}

func writeOneResult(w io.Writer, r *models.RankedResult) {
	fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
	if r.Similarity != nil {
		fmt.Fprintf(w, "Rank: %d | Similarity: %.4f\n", r.Rank, *r.Similarity)
	} else {
		fmt.Fprintf(w, "Rank: %d\n", r.Rank)
	}
	fmt.Fprintf(w, "Title: %s\n", r.Name)
	if r.SeriesName != "" && r.SeriesName != r.Name {
		fmt.Fprintf(w, "Series: %s\n", r.SeriesName)
	}
	fmt.Fprintf(w, "%s | %d episodes | rating %.2f | %d members\n",
		utils.JoinNonEmpty([]string{r.Type, strings.Join(r.Genres, ", ")}, " | "), r.Episodes, r.Rating, r.Members)
	if r.ExcludedForDisplay {
		fmt.Fprintln(w, "(image and synopsis hidden)")
	} else if r.Synopsis != "" {
		fmt.Fprintf(w, "\n%s\n", TruncateWords(r.Synopsis, synopsisWords))
	}
	fmt.Fprintln(w)
}

// WriteStatus writes an engine status report to w in the given format.
func WriteStatus(w io.Writer, st *search.Status, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, st)
	}
	fmt.Fprintf(w, "Dataset:      %s\n", st.DatasetPath)
	fmt.Fprintf(w, "Snapshot:     %s (built %s)\n", st.SnapshotID, st.BuiltAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Fingerprint:  %s\n", utils.Truncate(st.Fingerprint, 24))
	fmt.Fprintf(w, "Titles:       %d (%d indexed)\n", st.Titles, st.IndexedTitles)
	fmt.Fprintf(w, "Rows read:    %d, duplicates %d, dropped %d\n", st.Stats.RowsRead, st.Stats.Duplicates, st.Stats.TotalDropped())
	fmt.Fprintf(w, "Features:     %d dimensions, %d genres, %d types\n", st.Dimensions, st.Genres, st.Types)
	fmt.Fprintf(w, "Members:      %d - %d\n", st.MembersMin, st.MembersMax)
	fmt.Fprintf(w, "Rating:       %.2f - %.2f\n", st.Rating.Min, st.Rating.Max)
	fmt.Fprintf(w, "Lookups:      %d cached, %d bytes on disk\n", st.LookupEntries, st.DiskUsageBytes)
	fmt.Fprintf(w, "Reloads:      %d\n", st.Reloads)
	return nil
}

// WriteList writes a named vocabulary (genres, types) to w in the given format.
func WriteList(w io.Writer, name string, items []string, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, map[string][]string{name: items})
	}
	for _, item := range items {
		fmt.Fprintln(w, item)
	}
	return nil
}

// TruncateWords returns up to maxWords from the space-separated string.
func TruncateWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return s
	}
	return strings.Join(words[:maxWords], " ") + "..."
}
