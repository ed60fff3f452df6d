package database

import (
	"path/filepath"
	"testing"
)

func TestOpenMigrated_CreatesSchema(t *testing.T) {
	cfg := Config{Path: filepath.Join(t.TempDir(), "nested", "test.db")}
	db, err := OpenMigrated(cfg)
	if err != nil {
		t.Fatalf("OpenMigrated: %v", err)
	}
	defer db.Close()

	for _, table := range []string{"users", "movies", "upcoming_trailers", "watchlist", "reviews", "comments", "newsletter_subscribers"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}

	// idempotent
	if err := Migrate(db); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
}

func TestOpen_ForeignKeysEnabled(t *testing.T) {
	db, err := Open(Config{Path: filepath.Join(t.TempDir(), "fk.db")})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	var on int
	if err := db.QueryRow(`PRAGMA foreign_keys`).Scan(&on); err != nil {
		t.Fatal(err)
	}
	if on != 1 {
		t.Fatalf("foreign_keys = %d, want 1", on)
	}
}

func TestOpen_UnicodeLower(t *testing.T) {
	db, err := Open(Config{Path: filepath.Join(t.TempDir(), "lower.db")})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	var got string
	if err := db.QueryRow(`SELECT unicode_lower(?)`, "ÉLITE Ñu").Scan(&got); err != nil {
		t.Fatal(err)
	}
	if got != "élite ñu" {
		t.Errorf("unicode_lower = %q", got)
	}
}
