package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"trailerhub/internal/retry"
	"trailerhub/pkg/models"
)

type flakyLister struct {
	failures int
	calls    int
}

func (f *flakyLister) ListComments(_ context.Context, movieID string) ([]models.Comment, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("503 service unavailable")
	}
	return []models.Comment{{ID: 1, MovieID: movieID, Body: "first"}}, nil
}

var fastPolicy = retry.Policy{MaxAttempts: 3, Initial: time.Millisecond, Max: 2 * time.Millisecond}

func TestLoadComments_RecoversAfterTransientFailures(t *testing.T) {
	lister := &flakyLister{failures: 2}
	var progress bytes.Buffer

	snap := loadComments(context.Background(), lister, "h-4", fastPolicy, &progress)
	if snap.State != retry.Success {
		t.Fatalf("state = %s, want success", snap.State)
	}
	if len(snap.Items) != 1 || snap.Items[0].MovieID != "h-4" {
		t.Fatalf("items = %+v", snap.Items)
	}
	if lister.calls != 3 {
		t.Fatalf("calls = %d, want 3", lister.calls)
	}
	if strings.Count(progress.String(), "retrying") != 2 {
		t.Fatalf("progress = %q", progress.String())
	}
}

func TestLoadComments_GivesUp(t *testing.T) {
	lister := &flakyLister{failures: 10}
	var progress bytes.Buffer

	snap := loadComments(context.Background(), lister, "h-4", fastPolicy, &progress)
	if snap.State != retry.PersistentError || snap.Err == nil {
		t.Fatalf("snapshot = %+v", snap)
	}
	if lister.calls != 3 {
		t.Fatalf("calls = %d, want 3", lister.calls)
	}
}

func TestPrintThread(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	thread := []models.Comment{{
		ID: 1, Username: "ann", Body: "great", CreatedAt: at,
		Replies: []models.Comment{{ID: 2, UserID: "u-2", Body: "agreed", CreatedAt: at}},
	}}
	var buf bytes.Buffer
	printThread(&buf, thread, 0)

	want := "#1 ann (2024-05-01 12:30): great\n  #2 u-2 (2024-05-01 12:30): agreed\n"
	if buf.String() != want {
		t.Fatalf("got %q, want %q", buf.String(), want)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token.json")
	if err := saveToken(path, "abc"); err != nil {
		t.Fatal(err)
	}
	got, err := readToken(path)
	if err != nil || got != "abc" {
		t.Fatalf("readToken = %q, %v", got, err)
	}
	if err := clearToken(path); err != nil {
		t.Fatal(err)
	}
	if err := clearToken(path); err != nil {
		t.Fatalf("clearing a missing token should succeed: %v", err)
	}
	if err := saveToken(path, ""); err == nil {
		t.Fatal("empty token should be rejected")
	}
}
