// Package features encodes catalog titles as fixed-length numeric vectors.
//
// A vector is a multi-hot genre block over the sorted genre vocabulary followed by the
// min-max scaled rating, members and episodes of the title. Scaling uses the minimum and
// maximum of the encoded set itself, so vectors are only comparable within one Matrix.
package features

import (
	"sort"

	"github.com/hyperjump/animerec/internal/models"
	"github.com/hyperjump/animerec/pkg/utils"
)

// Numeric column names, in vector order after the genre block.
const (
	ColumnRating   = models.ColumnRating
	ColumnMembers  = models.ColumnMembers
	ColumnEpisodes = models.ColumnEpisodes
)

var numericColumns = []string{ColumnRating, ColumnMembers, ColumnEpisodes}

// Bounds is the observed range of one numeric column.
type Bounds struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Constant reports whether the column has zero variance.
func (b Bounds) Constant() bool {
	return b.Max <= b.Min
}

// Matrix holds one vector per encoded title, aligned by index with the input slice.
type Matrix struct {
	vectors    [][]float64
	vocabulary []string
	genreIndex map[string]int
	bounds     []Bounds
	valid      []int
}

// Encode builds the feature matrix for titles. Titles with a non-finite numeric value
// get a nil vector and are left out of ValidIndices and of the scaling bounds.
func Encode(titles []models.Title) *Matrix {
	m := &Matrix{genreIndex: make(map[string]int)}

	seen := make(map[string]struct{})
	for _, t := range titles {
		for _, g := range t.Genres {
			seen[g] = struct{}{}
		}
	}
	m.vocabulary = make([]string, 0, len(seen))
	for g := range seen {
		m.vocabulary = append(m.vocabulary, g)
	}
	sort.Strings(m.vocabulary)
	for i, g := range m.vocabulary {
		m.genreIndex[g] = i
	}

	raw := make([][]float64, len(titles))
	m.bounds = make([]Bounds, len(numericColumns))
	first := true
	for i, t := range titles {
		vals := numericValues(t)
		ok := true
		for _, v := range vals {
			if !utils.IsFinite(v) {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		raw[i] = vals
		m.valid = append(m.valid, i)
		for c, v := range vals {
			if first || v < m.bounds[c].Min {
				m.bounds[c].Min = v
			}
			if first || v > m.bounds[c].Max {
				m.bounds[c].Max = v
			}
		}
		first = false
	}

	dim := len(m.vocabulary) + len(numericColumns)
	m.vectors = make([][]float64, len(titles))
	for _, i := range m.valid {
		vec := make([]float64, dim)
		for _, g := range titles[i].Genres {
			vec[m.genreIndex[g]] = 1
		}
		off := len(m.vocabulary)
		for c, v := range raw[i] {
			vec[off+c] = utils.MinMaxScale(v, m.bounds[c].Min, m.bounds[c].Max)
		}
		m.vectors[i] = vec
	}
	return m
}

func numericValues(t models.Title) []float64 {
	return []float64{t.Rating, float64(t.Members), float64(t.Episodes)}
}

// Dimensions returns the shared vector length.
func (m *Matrix) Dimensions() int {
	return len(m.vocabulary) + len(numericColumns)
}

// Len returns the number of rows, including invalid ones.
func (m *Matrix) Len() int {
	return len(m.vectors)
}

// Vector returns the vector of row i, or nil if the row is out of range or invalid.
func (m *Matrix) Vector(i int) []float64 {
	if i < 0 || i >= len(m.vectors) {
		return nil
	}
	return m.vectors[i]
}

// Valid reports whether row i has a vector.
func (m *Matrix) Valid(i int) bool {
	return m.Vector(i) != nil
}

// ValidIndices returns the rows that have a vector, ascending.
func (m *Matrix) ValidIndices() []int {
	return m.valid
}

// Vocabulary returns the sorted genre tags of the genre block.
func (m *Matrix) Vocabulary() []string {
	return m.vocabulary
}

// Columns names every vector coordinate: genre tags, then rating, members, episodes.
func (m *Matrix) Columns() []string {
	cols := make([]string, 0, m.Dimensions())
	cols = append(cols, m.vocabulary...)
	return append(cols, numericColumns...)
}

// Bounds returns the scaling range of a numeric column.
func (m *Matrix) Bounds(column string) (Bounds, bool) {
	for c, name := range numericColumns {
		if name == column {
			return m.bounds[c], true
		}
	}
	return Bounds{}, false
}
