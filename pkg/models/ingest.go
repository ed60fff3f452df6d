package models

// CanonicalMovie is what ingest sources produce before it is written to the
// movies table. SourceIDs maps a source name to that source's own id.
type CanonicalMovie struct {
	Title       string
	AltTitles   []string
	Year        int
	PosterURL   string
	TrailerURL  string
	Category    string
	Genres      []string
	Description string
	SourceIDs   map[string]string
}

// MirrorTitle is one entry of the JSON mirror dataset served by
// cmd/mirror-server and written by cmd/export-mirror.
type MirrorTitle struct {
	Slug     string   `json:"slug"`
	Name     string   `json:"name"`
	AltNames []string `json:"alt_names"`
	Tags     []string `json:"tags"`
	Category string   `json:"category"`
	Summary  string   `json:"summary"`
	ImageURL string   `json:"image_url"`
	Trailer  string   `json:"trailer"`
	Year     string   `json:"year"`
}
