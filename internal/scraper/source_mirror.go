package scraper

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gosimple/slug"

	"trailerhub/internal/remote"
	"trailerhub/internal/retry"
	"trailerhub/pkg/models"
)

// MirrorSource reads the JSON dataset served by cmd/mirror-server:
//
//	GET {BaseURL}/titles -> [{"slug": "...", "name": "...", "year": "2010", ...}]
type MirrorSource struct {
	BaseURL string
	doer    *remote.Doer
}

func NewMirrorSource(baseURL string) *MirrorSource {
	return &MirrorSource{
		BaseURL: strings.TrimRight(baseURL, "/"),
		doer:    remote.NewDoer("mirror", 10*time.Second, retry.DefaultPolicy),
	}
}

func (s *MirrorSource) Name() string { return "mirror" }

func (s *MirrorSource) FetchAll(ctx context.Context) ([]models.CanonicalMovie, error) {
	body, err := s.doer.Do(ctx, "titles", func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+"/titles", nil)
	})
	if err != nil {
		return nil, fmt.Errorf("mirror: %w", err)
	}

	var raw []models.MirrorTitle
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("mirror: decode json: %w", err)
	}
	return FromMirror(raw), nil
}

// FromMirror maps mirror entries, dropping those without a slug or name.
func FromMirror(raw []models.MirrorTitle) []models.CanonicalMovie {
	out := make([]models.CanonicalMovie, 0, len(raw))
	for _, r := range raw {
		if r.Slug == "" || r.Name == "" {
			continue
		}
		out = append(out, models.CanonicalMovie{
			Title:       r.Name,
			AltTitles:   r.AltNames,
			Year:        parseIntOrZero(r.Year),
			PosterURL:   r.ImageURL,
			TrailerURL:  r.Trailer,
			Category:    r.Category,
			Genres:      r.Tags,
			Description: r.Summary,
			SourceIDs:   map[string]string{"mirror": r.Slug},
		})
	}
	return out
}

// ToMirror is the inverse of FromMirror for a stored movie. The slug is
// derived from title and year so that it is stable across databases.
func ToMirror(rec models.MovieRecord) models.MirrorTitle {
	year := ""
	if rec.Year > 0 {
		year = strconv.Itoa(rec.Year)
	}
	tags := rec.Genres
	if tags == nil {
		tags = []string{}
	}
	return models.MirrorTitle{
		Slug:     slug.Make(strings.TrimSpace(rec.Title + " " + year)),
		Name:     rec.Title,
		AltNames: []string{},
		Tags:     tags,
		Category: rec.Category,
		Summary:  rec.Description,
		ImageURL: rec.PosterURL,
		Trailer:  rec.TrailerURL,
		Year:     year,
	}
}
