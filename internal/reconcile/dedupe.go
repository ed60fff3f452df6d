package reconcile

import (
	"strings"

	"trailerhub/pkg/models"
)

// Key identifies a movie across sources.
type Key struct {
	Title string
	Year  int
}

func KeyOf(m models.Movie) Key {
	return Key{Title: strings.ToLower(strings.TrimSpace(m.Title)), Year: m.Year}
}

// Dedupe merges preferred ahead of fallback and removes repeats.
func Dedupe(preferred, fallback []models.Movie) []models.Movie {
	all := make([]models.Movie, 0, len(preferred)+len(fallback))
	all = append(all, preferred...)
	all = append(all, fallback...)
	return DedupeList(all)
}

// DedupeList keeps one movie per Key, in order of first appearance. A later
// duplicate replaces the kept one in place only when it carries a backend id
// and the kept one does not.
func DedupeList(movies []models.Movie) []models.Movie {
	out := make([]models.Movie, 0, len(movies))
	pos := make(map[Key]int, len(movies))

	for _, m := range movies {
		k := KeyOf(m)
		i, dup := pos[k]
		if !dup {
			pos[k] = len(out)
			out = append(out, m)
			continue
		}
		if IsBackendID(m.ID) && !IsBackendID(out[i].ID) {
			out[i] = m
		}
	}
	return out
}
