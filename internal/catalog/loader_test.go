package catalog

import (
	"math/rand"
	"reflect"
	"strconv"
	"testing"

	"github.com/hyperjump/animerec/internal/models"
)

func raw(line int, name, genre, typ, episodes, rating, members string) models.RawRow {
	fields := map[string]string{}
	set := func(k, v string) {
		if v != "-" {
			fields[k] = v
		}
	}
	set("name", name)
	set("genre", genre)
	set("type", typ)
	set("episodes", episodes)
	set("rating", rating)
	set("members", members)
	return models.RawRow{Line: line, Fields: fields}
}

func TestLoad_DropsAndCounts(t *testing.T) {
	rows := []models.RawRow{
		raw(2, "Cowboy Bebop", "Action, Sci-Fi", "TV", "26", "8.82", "486824"),
		raw(3, "-", "Action", "TV", "12", "7.0", "100"),
		raw(4, "No Genre", "-", "TV", "12", "7.0", "100"),
		raw(5, "No Type", "Action", "-", "12", "7.0", "100"),
		raw(6, "No Rating", "Action", "TV", "12", "-", "100"),
		raw(7, "Airing", "Action", "TV", "Unknown", "7.0", "100"),
		raw(8, "Bad Members", "Action", "TV", "12", "7.0", "n/a"),
		raw(9, "Bad Rating", "Action", "TV", "12", "eleven", "100"),
		raw(10, "Trigun", " , ", "TV", "26", "8.3", "251996"),
	}
	cat := Load(rows, Options{})
	stats := cat.Stats()
	if stats.RowsRead != 9 || stats.Kept != 2 {
		t.Errorf("stats = %+v", stats)
	}
	want := map[models.DropReason]int{
		models.DropMissingField: 4,
		models.DropBadEpisodes:  1,
		models.DropBadMembers:   1,
		models.DropBadRating:    1,
	}
	if !reflect.DeepEqual(stats.Dropped, want) {
		t.Errorf("Dropped = %v, want %v", stats.Dropped, want)
	}
	if stats.RowsRead != stats.Kept+stats.Duplicates+stats.TotalDropped() {
		t.Errorf("rows not accounted for: %+v", stats)
	}

	titles := cat.Titles()
	if titles[0].Name != "Cowboy Bebop" || titles[1].Name != "Trigun" {
		t.Errorf("order should be members descending: %v, %v", titles[0].Name, titles[1].Name)
	}
	if !reflect.DeepEqual(titles[1].Genres, []string{models.UnknownGenre}) {
		t.Errorf("empty genre split should yield Unknown: %v", titles[1].Genres)
	}
}

func TestLoad_DedupKeepsMostPopularVariant(t *testing.T) {
	rows := []models.RawRow{
		raw(2, "Gintama°", "Action, Comedy", "TV", "51", "9.25", "114262"),
		raw(3, "Gintama", "Action, Comedy", "TV", "201", "9.04", "336376"),
		raw(4, "Gintama Movie: Kanketsu-hen", "Action", "Movie", "1", "8.9", "72000"),
		raw(5, "Shingeki no Kyojin", "Action, Drama", "TV", "25", "8.54", "896229"),
		raw(6, "Shingeki no Kyojin: Kuinaki Sentaku", "Action", "OVA", "2", "8.1", "80000"),
		raw(7, "Haikyuu!!", "Comedy, Sports", "TV", "25", "8.61", "279616"),
	}
	cat := Load(rows, Options{})
	var names []string
	for _, tt := range cat.Titles() {
		names = append(names, tt.Name)
	}
	want := []string{"Shingeki no Kyojin", "Gintama", "Haikyuu!!"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("titles = %v, want %v", names, want)
	}
	if cat.Stats().Duplicates != 3 {
		t.Errorf("Duplicates = %d, want 3", cat.Stats().Duplicates)
	}
}

func TestLoad_DedupInvariantRandomized(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	prefixes := []string{"Naruto", "Bleach", "One Piece", "Monster", "Gintama"}
	suffixes := []string{"", ": Movie", " (TV)", "!! Special", ": Part 2"}
	for round := 0; round < 20; round++ {
		var rows []models.RawRow
		maxBySeries := map[string]int64{}
		for i := 0; i < 60; i++ {
			name := prefixes[rng.Intn(len(prefixes))] + suffixes[rng.Intn(len(suffixes))] + strconv.Itoa(rng.Intn(3))
			members := int64(rng.Intn(5000))
			rows = append(rows, raw(i+2, name, "Action", "TV", "12", "7.5", strconv.FormatInt(members, 10)))
			s := SeriesName(name, DefaultFranchises)
			if m, ok := maxBySeries[s]; !ok || members > m {
				maxBySeries[s] = members
			}
		}
		cat := Load(rows, Options{})
		seen := map[string]bool{}
		for _, tt := range cat.Titles() {
			if seen[tt.SeriesName] {
				t.Fatalf("round %d: series %q retained twice", round, tt.SeriesName)
			}
			seen[tt.SeriesName] = true
			if tt.Members != maxBySeries[tt.SeriesName] {
				t.Fatalf("round %d: series %q kept members %d, max is %d", round, tt.SeriesName, tt.Members, maxBySeries[tt.SeriesName])
			}
		}
		if len(seen) != len(maxBySeries) {
			t.Fatalf("round %d: %d series retained, want %d", round, len(seen), len(maxBySeries))
		}
	}
}

func TestLoad_TiesKeepInputOrder(t *testing.T) {
	rows := []models.RawRow{
		raw(2, "Alpha: One", "Action", "TV", "12", "7.0", "500"),
		raw(3, "Alpha: Two", "Action", "TV", "12", "8.0", "500"),
		raw(4, "Beta", "Action", "TV", "12", "8.0", "500"),
	}
	titles := Load(rows, Options{}).Titles()
	if len(titles) != 2 || titles[0].Name != "Alpha: One" || titles[1].Name != "Beta" {
		t.Errorf("got %v", titles)
	}
}

func TestCatalog_Accessors(t *testing.T) {
	cat := New([]models.Title{
		{Name: "A", SeriesName: "A", Genres: []string{"Drama", "Action"}, Type: "TV", Members: 10},
		{Name: "B", SeriesName: "B", Genres: []string{"Comedy"}, Type: "Movie", Members: 90},
	})
	if got := cat.Genres(); !reflect.DeepEqual(got, []string{"Action", "Comedy", "Drama"}) {
		t.Errorf("Genres() = %v", got)
	}
	if got := cat.Types(); !reflect.DeepEqual(got, []string{"Movie", "TV"}) {
		t.Errorf("Types() = %v", got)
	}
	lo, hi := cat.MembersBounds()
	if lo != 10 || hi != 90 {
		t.Errorf("MembersBounds() = %d, %d", lo, hi)
	}
	if i, ok := cat.Index("B"); !ok || i != 1 {
		t.Errorf("Index(B) = %d, %v", i, ok)
	}
	if _, ok := cat.Index("missing"); ok {
		t.Error("Index(missing) should not resolve")
	}
	if cat.Len() != 2 {
		t.Errorf("Len() = %d", cat.Len())
	}
}

func TestCatalog_EmptyBounds(t *testing.T) {
	lo, hi := New(nil).MembersBounds()
	if lo != 0 || hi != 0 {
		t.Errorf("empty bounds = %d, %d", lo, hi)
	}
}
