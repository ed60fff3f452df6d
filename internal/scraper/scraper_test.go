package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"trailerhub/internal/movies"
	"trailerhub/pkg/database"
	"trailerhub/pkg/models"
)

type staticSource struct {
	name   string
	movies []models.CanonicalMovie
	err    error
}

func (s staticSource) Name() string { return s.name }

func (s staticSource) FetchAll(context.Context) ([]models.CanonicalMovie, error) {
	return s.movies, s.err
}

func TestFetchAndMerge(t *testing.T) {
	a := staticSource{name: "a", movies: []models.CanonicalMovie{
		{Title: "Inception", Year: 2010, Genres: []string{"Sci-Fi"}, SourceIDs: map[string]string{"a": "1"}},
		{Title: "Heat", Year: 1995},
	}}
	broken := staticSource{name: "broken", err: errors.New("boom")}
	b := staticSource{name: "b", movies: []models.CanonicalMovie{
		{Title: "inception!", Year: 2010, PosterURL: "https://p/inception.jpg", Genres: []string{"sci-fi", "Action"}, Description: "dreams within dreams", SourceIDs: map[string]string{"b": "x"}},
		{Title: "Heat", Year: 0, TrailerURL: "https://yt/heat"},
		{Title: "Heat", Year: 1986},
		{Title: "  "},
	}}

	got, err := NewAggregator(a, broken, b).FetchAndMerge(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("merged = %d entries: %+v", len(got), got)
	}

	inc := got[0]
	if inc.Title != "Inception" || inc.PosterURL != "https://p/inception.jpg" || inc.Description != "dreams within dreams" {
		t.Fatalf("inception = %+v", inc)
	}
	if strings.Join(inc.Genres, ",") != "Sci-Fi,Action" {
		t.Fatalf("genres = %v", inc.Genres)
	}
	if inc.SourceIDs["a"] != "1" || inc.SourceIDs["b"] != "x" {
		t.Fatalf("source ids = %v", inc.SourceIDs)
	}
	if got[1].Title != "Heat" || got[1].Year != 1995 || got[1].TrailerURL != "https://yt/heat" {
		t.Fatalf("heat 1995 = %+v", got[1])
	}
	if got[2].Year != 1986 {
		t.Fatalf("heat 1986 = %+v", got[2])
	}
}

const listing = `<html><body>
<section data-category="Bollywood">
  <article data-movie="m1">
    <h2 class="title"> Dangal </h2><span class="year">2016</span>
    <img data-src="/posters/dangal.jpg">
    <a class="trailer" href="https://www.youtube.com/watch?v=x_7YlGv9u1g">Trailer</a>
    <span class="genre">Drama</span><span class="genre">Sport</span>
    <p class="description">  A wrestler trains his daughters. </p>
  </article>
  <article data-movie="m2" data-category="korean"><h2 class="title">Parasite</h2><span class="year">2019</span></article>
  <article data-movie="m3"><h2 class="title"></h2></article>
</section>
</body></html>`

func TestParseListing(t *testing.T) {
	got, err := ParseListing(strings.NewReader(listing), "https://example.com/movies/")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d movies", len(got))
	}
	d := got[0]
	if d.Title != "Dangal" || d.Year != 2016 || d.Category != "Bollywood" {
		t.Fatalf("dangal = %+v", d)
	}
	if d.PosterURL != "https://example.com/posters/dangal.jpg" {
		t.Fatalf("poster = %q", d.PosterURL)
	}
	if d.Description != "A wrestler trains his daughters." || len(d.Genres) != 2 || d.SourceIDs["html"] != "m1" {
		t.Fatalf("dangal = %+v", d)
	}
	if got[1].Category != "korean" || got[1].PosterURL != "" {
		t.Fatalf("parasite = %+v", got[1])
	}
}

func TestMirrorSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/titles" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`[{"slug":"heat","name":"Heat","year":"1995","tags":["Crime"]},{"slug":"","name":"nameless"}]`))
	}))
	defer srv.Close()

	got, err := NewMirrorSource(srv.URL).FetchAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Year != 1995 || got[0].SourceIDs["mirror"] != "heat" {
		t.Fatalf("got %+v", got)
	}
}

func TestToMirror(t *testing.T) {
	rec := models.MovieRecord{
		ID:         "db-1",
		Title:      "The Dark Knight",
		Year:       2008,
		Category:   "dc-universe",
		TrailerURL: "https://yt/tdk",
	}
	m := ToMirror(rec)
	if m.Slug != "the-dark-knight-2008" || m.Year != "2008" || m.Trailer != "https://yt/tdk" {
		t.Fatalf("mirror = %+v", m)
	}
	if m.Tags == nil || m.AltNames == nil {
		t.Fatal("slices must encode as [] not null")
	}

	back := FromMirror([]models.MirrorTitle{m})
	if len(back) != 1 || back[0].Title != rec.Title || back[0].Year != 2008 || back[0].Category != "dc-universe" {
		t.Fatalf("round trip = %+v", back)
	}

	if ToMirror(models.MovieRecord{Title: "Untitled Project"}).Slug != "untitled-project" {
		t.Fatal("yearless slug")
	}
}

func TestSaveToDatabase(t *testing.T) {
	db, err := database.OpenMigrated(database.Config{Path: filepath.Join(t.TempDir(), "ingest.db")})
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	repo := movies.NewRepo(db)
	ctx := context.Background()

	curated := models.MovieRecord{ID: "db-1", Title: "Heat", Year: 1995, PosterURL: "https://curated/heat.jpg", Category: "hollywood"}
	if err := repo.Create(ctx, curated); err != nil {
		t.Fatal(err)
	}

	entries := []models.CanonicalMovie{
		{Title: "heat", Year: 1995, PosterURL: "https://other/heat.jpg", TrailerURL: "https://yt/heat", SourceIDs: map[string]string{"tmdb": "949"}},
		{Title: "Parasite", Year: 2019, Category: "World Cinema", SourceIDs: map[string]string{"mirror": "parasite"}},
		{Title: "Dangal", Year: 2016},
	}
	stats, err := SaveToDatabase(ctx, repo, entries, "imported")
	if err != nil {
		t.Fatal(err)
	}
	if stats.Created != 2 || stats.Updated != 1 {
		t.Fatalf("stats = %+v", stats)
	}

	heat, _ := repo.GetByID(ctx, "db-1")
	if heat.PosterURL != "https://curated/heat.jpg" || heat.TrailerURL != "https://yt/heat" {
		t.Fatalf("heat = %+v", heat)
	}
	parasite, _ := repo.FindByTitleYear(ctx, "Parasite", 2019)
	if parasite == nil || parasite.Category != "world-cinema" || !strings.HasPrefix(parasite.ID, "db-") {
		t.Fatalf("parasite = %+v", parasite)
	}
	dangal, _ := repo.FindByTitleYear(ctx, "dangal", 2016)
	if dangal == nil || dangal.Category != "imported" {
		t.Fatalf("dangal = %+v", dangal)
	}

	again, err := SaveToDatabase(ctx, repo, entries, "imported")
	if err != nil {
		t.Fatal(err)
	}
	if again.Created != 0 || again.Updated != 0 || again.Unchanged != 3 {
		t.Fatalf("second run = %+v", again)
	}
}
