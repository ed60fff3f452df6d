package scraper

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"trailerhub/internal/remote"
	"trailerhub/internal/retry"
	"trailerhub/pkg/models"
)

// HTMLSource scrapes a listing page. Each movie is an element carrying
// data-movie; inside it:
//
//	.title            title text
//	.year             release year
//	img               poster (src or data-src)
//	a.trailer         trailer link
//	.genre            one element per genre
//	.description      synopsis
//
// The listing element may set data-category; a movie's own data-category
// overrides it.
type HTMLSource struct {
	PageURL string
	doer    *remote.Doer
}

func NewHTMLSource(pageURL string) *HTMLSource {
	return &HTMLSource{
		PageURL: pageURL,
		doer:    remote.NewDoer("html", 15*time.Second, retry.DefaultPolicy),
	}
}

func (s *HTMLSource) Name() string { return "html" }

func (s *HTMLSource) FetchAll(ctx context.Context) ([]models.CanonicalMovie, error) {
	body, err := s.doer.Do(ctx, "listing", func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.PageURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "text/html")
		return req, nil
	})
	if err != nil {
		return nil, fmt.Errorf("html: %w", err)
	}
	return ParseListing(bytes.NewReader(body), s.PageURL)
}

// ParseListing extracts movies from a listing page. Relative poster and
// trailer links are resolved against pageURL.
func ParseListing(r io.Reader, pageURL string) ([]models.CanonicalMovie, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("html: parse: %w", err)
	}
	base, _ := url.Parse(pageURL)

	var out []models.CanonicalMovie
	doc.Find("[data-movie]").Each(func(_ int, sel *goquery.Selection) {
		title := normSpace(sel.Find(".title").First().Text())
		if title == "" {
			return
		}

		m := models.CanonicalMovie{
			Title:       title,
			Year:        parseIntOrZero(sel.Find(".year").First().Text()),
			Description: normSpace(sel.Find(".description").First().Text()),
			Category:    categoryOf(sel),
		}

		img := sel.Find("img").First()
		src, ok := img.Attr("src")
		if !ok || strings.TrimSpace(src) == "" {
			src, _ = img.Attr("data-src")
		}
		m.PosterURL = resolveURL(base, src)

		if href, ok := sel.Find("a.trailer").First().Attr("href"); ok {
			m.TrailerURL = resolveURL(base, href)
		}

		sel.Find(".genre").Each(func(_ int, g *goquery.Selection) {
			if name := normSpace(g.Text()); name != "" {
				m.Genres = appendIfMissing(m.Genres, name)
			}
		})

		id, _ := sel.Attr("data-movie")
		if id = strings.TrimSpace(id); id != "" {
			m.SourceIDs = map[string]string{"html": id}
		}
		out = append(out, m)
	})
	return out, nil
}

func categoryOf(sel *goquery.Selection) string {
	if c, ok := sel.Attr("data-category"); ok && strings.TrimSpace(c) != "" {
		return strings.TrimSpace(c)
	}
	if c, ok := sel.Closest("[data-category]").Attr("data-category"); ok {
		return strings.TrimSpace(c)
	}
	return ""
}

func resolveURL(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if base == nil || u.IsAbs() {
		return u.String()
	}
	return base.ResolveReference(u).String()
}

func normSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
