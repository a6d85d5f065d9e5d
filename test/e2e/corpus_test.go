package e2e

import (
	"testing"
)

func TestBuildCorpus_Counts(t *testing.T) {
	c := BuildCorpus()
	if c.Kept != len(Families)*TitlesPerFamily {
		t.Errorf("Kept = %d", c.Kept)
	}
	if got := c.Kept + c.Duplicates + c.Dropped; got != len(c.Rows) {
		t.Errorf("kept+duplicates+dropped = %d, rows = %d", got, len(c.Rows))
	}
	for i, row := range c.Rows {
		if len(row) != len(c.Header) {
			t.Fatalf("row %d has %d fields", i, len(row))
		}
	}
}

func TestBuildCorpus_NamesUnique(t *testing.T) {
	seen := make(map[string]bool)
	for _, row := range BuildCorpus().Rows {
		if seen[row[1]] {
			t.Errorf("duplicate name %q", row[1])
		}
		seen[row[1]] = true
	}
}

func TestCases_ReferenceCorpusTitles(t *testing.T) {
	names := make(map[string]bool)
	for f := range Families {
		for _, n := range FamilyTitles(f) {
			names[n] = true
		}
	}
	for _, tc := range RecommendCases() {
		for _, n := range append(append([]string(nil), tc.Seeds...), tc.ExpectedTop...) {
			if !names[n] {
				t.Errorf("%s: unknown title %q", tc.Description, n)
			}
		}
		if len(tc.ExpectedTop) != tc.Limit {
			t.Errorf("%s: %d expected titles for limit %d", tc.Description, len(tc.ExpectedTop), tc.Limit)
		}
	}
	for _, tc := range FilterCases() {
		for _, n := range tc.Expected {
			if !names[n] {
				t.Errorf("%s: unknown title %q", tc.Description, n)
			}
		}
	}
}
