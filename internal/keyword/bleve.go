package keyword

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/hyperjump/animerec/internal/models"
)

const (
	// DefaultFuzziness is the edit distance tolerated per query term.
	DefaultFuzziness = 1
	suggestFuzziness = 2
	suggestPool      = 50
	batchSize        = 500
)

// BleveIndex implements TitleIndex with an in-memory Bleve index. It is rebuilt with
// every catalog snapshot, so nothing is persisted.
type BleveIndex struct {
	index     bleve.Index
	fuzziness int
}

type titleDoc struct {
	Name   string `json:"name"`
	Series string `json:"series"`
	Genres string `json:"genres"`
	Type   string `json:"type"`
}

// NewBleveIndex creates an empty in-memory title index.
func NewBleveIndex() (*BleveIndex, error) {
	im := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()
	// Standard analyzer (lowercase + tokenize, no stemming) so partial titles match whole words.
	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("name", textFieldMapping)
	docMapping.AddFieldMappingsAt("genres", textFieldMapping)
	keywordFieldMapping := bleve.NewKeywordFieldMapping()
	docMapping.AddFieldMappingsAt("series", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("type", keywordFieldMapping)
	im.AddDocumentMapping("title", docMapping)
	im.DefaultType = "title"
	im.DefaultMapping = docMapping

	index, err := bleve.NewMemOnly(im)
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{index: index, fuzziness: DefaultFuzziness}, nil
}

// IndexTitles indexes titles in batches.
func (b *BleveIndex) IndexTitles(ctx context.Context, titles []models.Title) error {
	batch := b.index.NewBatch()
	for i := range titles {
		t := &titles[i]
		doc := titleDoc{Name: t.Name, Series: t.SeriesName, Genres: strings.Join(t.Genres, " "), Type: t.Type}
		if err := batch.Index(t.Name, doc); err != nil {
			return fmt.Errorf("index %q: %w", t.Name, err)
		}
		if batch.Size() >= batchSize {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := b.index.Batch(batch); err != nil {
				return fmt.Errorf("Bleve batch failed: %w", err)
			}
			batch = b.index.NewBatch()
		}
	}
	if batch.Size() > 0 {
		if err := b.index.Batch(batch); err != nil {
			return fmt.Errorf("Bleve batch failed: %w", err)
		}
	}
	return nil
}

// Search matches query against title names. Whole terms score highest, then term
// prefixes (so "shing" finds "Shingeki no Kyojin"), then fuzzy matches for typos.
func (b *BleveIndex) Search(ctx context.Context, query string, limit int) ([]*TitleHit, error) {
	terms := tokenizeQuery(query)
	if len(terms) == 0 || limit <= 0 {
		return []*TitleHit{}, nil
	}
	q := b.buildNameQuery(query, terms, b.fuzziness)
	return b.run(ctx, q, limit)
}

// Suggest returns the indexed names closest to name by edit distance among fuzzy
// candidates. It is used to propose alternatives for seed names that did not resolve.
func (b *BleveIndex) Suggest(ctx context.Context, name string, limit int) ([]string, error) {
	terms := tokenizeQuery(name)
	if len(terms) == 0 || limit <= 0 {
		return []string{}, nil
	}
	hits, err := b.run(ctx, b.buildNameQuery(name, terms, suggestFuzziness), suggestPool)
	if err != nil {
		return nil, err
	}

	type candidate struct {
		name     string
		distance int
		score    float64
	}
	cands := make([]candidate, 0, len(hits))
	for _, h := range hits {
		cands = append(cands, candidate{
			name:     h.Name,
			distance: TitleDistance(name, h.Name),
			score:    h.Score,
		})
	}
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].distance != cands[j].distance {
			return cands[i].distance < cands[j].distance
		}
		return cands[i].score > cands[j].score
	})
	if len(cands) > limit {
		cands = cands[:limit]
	}
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.name
	}
	return out, nil
}

func (b *BleveIndex) run(ctx context.Context, q blevequery.Query, limit int) ([]*TitleHit, error) {
	req := bleve.NewSearchRequest(q)
	req.Size = limit
	results, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}
	out := make([]*TitleHit, len(results.Hits))
	for i, hit := range results.Hits {
		out[i] = &TitleHit{Name: hit.ID, Score: hit.Score}
	}
	return out, nil
}

// buildNameQuery ORs a boosted match on the whole query with per-term prefix and fuzzy queries.
func (b *BleveIndex) buildNameQuery(query string, terms []string, fuzziness int) blevequery.Query {
	match := bleve.NewMatchQuery(query)
	match.SetField("name")
	match.SetBoost(3)
	queries := []blevequery.Query{match}
	for _, term := range terms {
		pq := bleve.NewPrefixQuery(term)
		pq.SetField("name")
		pq.SetBoost(1.5)
		queries = append(queries, pq)

		if fuzziness > 0 && len([]rune(term)) > fuzziness {
			fq := bleve.NewFuzzyQuery(term)
			fq.SetFuzziness(fuzziness)
			fq.SetField("name")
			queries = append(queries, fq)
		}
	}
	return bleve.NewDisjunctionQuery(queries...)
}

// tokenizeQuery splits query into lowercase terms, dropping punctuation-only pieces.
func tokenizeQuery(query string) []string {
	words := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return r == ' ' || r == '\t' || r == ':' || r == '!' || r == '(' || r == ')' || r == ',' || r == '.'
	})
	terms := make([]string, 0, len(words))
	for _, w := range words {
		if w = strings.TrimSpace(w); w != "" {
			terms = append(terms, w)
		}
	}
	return terms
}

// DocCount returns the total number of indexed titles.
func (b *BleveIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}

// Close closes the Bleve index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}
