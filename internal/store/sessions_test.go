package store

import (
	"context"
	"testing"
	"time"
)

// createTestStore creates an in-memory SQLite store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}

	t.Cleanup(func() {
		_ = s.Close()
	})

	return s
}

func testSession(trackID string, start time.Time) Session {
	return Session{
		TrackID:    trackID,
		TrackName:  "Track " + trackID,
		Artists:    "Artist One, Artist Two",
		AlbumName:  "Album",
		AlbumImage: "https://img.example/a.jpg",
		StartTime:  start,
	}
}

func TestStore_OpenAndLookup(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	start := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	id, err := s.Open(ctx, testSession("t1", start))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if id <= 0 {
		t.Errorf("expected positive id, got %d", id)
	}

	open, err := s.OpenSession(ctx, "t1")
	if err != nil {
		t.Fatalf("OpenSession: %v", err)
	}
	if open == nil {
		t.Fatal("expected an open session")
	}
	if open.ID != id || open.TrackID != "t1" {
		t.Errorf("unexpected session: %+v", open)
	}
	if !open.StartTime.Equal(start) {
		t.Errorf("expected start %v, got %v", start, open.StartTime)
	}
	if open.EndTime != nil {
		t.Errorf("expected open session, got end %v", open.EndTime)
	}

	if open, err := s.OpenSession(ctx, "other"); err != nil || open != nil {
		t.Errorf("expected no open session for unknown track, got %+v (err %v)", open, err)
	}
}

func TestStore_CloseOpen_Conditional(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	start := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	end := start.Add(3 * time.Minute)

	if _, err := s.Open(ctx, testSession("t1", start)); err != nil {
		t.Fatalf("Open: %v", err)
	}

	closed, err := s.CloseOpen(ctx, "t1", end)
	if err != nil {
		t.Fatalf("CloseOpen: %v", err)
	}
	if !closed {
		t.Error("expected first close to affect a row")
	}

	// A duplicate close is a no-op, not a rewrite of the closed row.
	closedAgain, err := s.CloseOpen(ctx, "t1", end.Add(time.Hour))
	if err != nil {
		t.Fatalf("CloseOpen (duplicate): %v", err)
	}
	if closedAgain {
		t.Error("expected duplicate close to be a no-op")
	}

	latest, err := s.LatestForTrack(ctx, "t1")
	if err != nil {
		t.Fatalf("LatestForTrack: %v", err)
	}
	if latest.EndTime == nil || !latest.EndTime.Equal(end) {
		t.Errorf("expected end %v, got %v", end, latest.EndTime)
	}
}

func TestStore_CloseOpen_UnknownTrack(t *testing.T) {
	s := createTestStore(t)

	closed, err := s.CloseOpen(context.Background(), "missing", time.Now())
	if err != nil {
		t.Fatalf("CloseOpen: %v", err)
	}
	if closed {
		t.Error("expected close of unknown track to be a no-op")
	}
}

func TestStore_LatestForTrack_PicksMostRecent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	start := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	if _, err := s.Open(ctx, testSession("t1", start)); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := s.CloseOpen(ctx, "t1", start.Add(time.Minute)); err != nil {
		t.Fatalf("CloseOpen: %v", err)
	}
	second, err := s.Open(ctx, testSession("t1", start.Add(10*time.Minute)))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	latest, err := s.LatestForTrack(ctx, "t1")
	if err != nil {
		t.Fatalf("LatestForTrack: %v", err)
	}
	if latest == nil || latest.ID != second {
		t.Errorf("expected latest session id %d, got %+v", second, latest)
	}
}

func TestStore_CountOpen(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	start := time.Now().UTC()

	if _, err := s.Open(ctx, testSession("t1", start)); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := s.Open(ctx, testSession("t2", start)); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := s.CloseOpen(ctx, "t1", start.Add(time.Minute)); err != nil {
		t.Fatalf("CloseOpen: %v", err)
	}

	count, err := s.CountOpen(ctx)
	if err != nil {
		t.Fatalf("CountOpen: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 open session, got %d", count)
	}
}
