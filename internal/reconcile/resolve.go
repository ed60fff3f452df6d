// Package reconcile unifies backend movie records with the curated catalog.
// Everything here is pure: no I/O, no errors, no shared mutable state.
package reconcile

import (
	"strings"

	"trailerhub/internal/catalog"
	"trailerhub/pkg/models"
)

// BackendIDPrefix marks ids minted by the content API.
//
// Stripping it to find a catalog entry is a plain string operation, so a
// backend id whose suffix happens to equal a catalog id ("db-h-4") resolves
// to that entry.
const BackendIDPrefix = "db-"

// Resolver finds the catalog entry a backend record refers to.
type Resolver struct {
	Catalog catalog.Repository
}

func NewResolver(c catalog.Repository) *Resolver {
	return &Resolver{Catalog: c}
}

// Resolve tries, in order: the id as given, the id without BackendIDPrefix,
// and finally the title (case-insensitive, trimmed). The first hit wins.
func (r *Resolver) Resolve(id, title string) (models.Movie, bool) {
	if id != "" {
		if m, ok := r.Catalog.FindByID(id); ok {
			return m, true
		}
		if stripped, ok := strings.CutPrefix(id, BackendIDPrefix); ok && stripped != "" {
			if m, ok := r.Catalog.FindByID(stripped); ok {
				return m, true
			}
		}
	}
	if strings.TrimSpace(title) != "" {
		return r.Catalog.FindByTitle(title)
	}
	return models.Movie{}, false
}

// IsBackendID reports whether id was minted by the content API.
func IsBackendID(id string) bool {
	return strings.HasPrefix(id, BackendIDPrefix)
}
