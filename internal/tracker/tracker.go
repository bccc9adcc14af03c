package tracker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/spinlog/spinlog/internal/store"
)

// DefaultFallbackDuration is reported for a track whose real duration
// is unknown, and restored whenever playback stops so a stale duration
// is never shown for a track no longer playing.
const DefaultFallbackDuration = 180 * time.Second

// SessionStore is the persistence contract the tracker needs. Closing
// must be conditional on the session still being open so duplicate
// closes are no-ops.
type SessionStore interface {
	Open(ctx context.Context, sess store.Session) (int64, error)
	CloseOpen(ctx context.Context, trackID string, end time.Time) (bool, error)
}

// State is a copy of the tracker's in-memory view of what is playing
// right now. TrackID empty means nothing is playing.
type State struct {
	TrackID   string
	StartTime time.Time
	Duration  time.Duration
}

// Playing reports whether a session is currently open.
func (s State) Playing() bool {
	return s.TrackID != ""
}

// Tracker is the session state machine. It consumes snapshots in
// sequence and opens/closes sessions in the store on transitions. The
// poller is the sole caller of Observe; readers use State.
type Tracker struct {
	mu        sync.RWMutex
	openTrack string
	openStart time.Time
	duration  time.Duration

	sessions SessionStore
	fallback time.Duration
	logger   zerolog.Logger

	now func() time.Time // injectable for tests
}

// New creates a Tracker writing sessions to the given store.
func New(sessions SessionStore, fallback time.Duration, logger zerolog.Logger) *Tracker {
	if fallback <= 0 {
		fallback = DefaultFallbackDuration
	}
	return &Tracker{
		sessions: sessions,
		fallback: fallback,
		duration: fallback,
		logger:   logger.With().Str("component", "tracker").Logger(),
		now:      time.Now,
	}
}

// State returns a copy of the current in-memory state.
func (t *Tracker) State() State {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return State{
		TrackID:   t.openTrack,
		StartTime: t.openStart,
		Duration:  t.duration,
	}
}

// Observe advances the state machine with one snapshot.
//
// Transitions:
//   - idle + non-playing: no-op
//   - idle + playing: open a session
//   - open + non-playing: close the session (pause and stop are
//     indistinguishable upstream, both end the session)
//   - open + same track playing: no-op
//   - open + different track playing: close then open
//
// Store failures are returned for logging but leave the in-memory
// state already advanced: the conditional close makes a retry on the
// next tick safe, and the in-memory state is the interim source of
// truth.
func (t *Tracker) Observe(ctx context.Context, snap Snapshot) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !snap.active() {
		return t.handleStopped(ctx)
	}

	if snap.Track.Duration > 0 {
		t.duration = snap.Track.Duration
	}
	now := t.now()

	switch {
	case t.openTrack == "":
		return t.open(ctx, snap.Track, now)

	case t.openTrack == snap.Track.ID:
		// Same track continues. The start time can only be missing if
		// it was cleared by an earlier resume edge; restore it so
		// seconds-played stays meaningful.
		if t.openStart.IsZero() {
			t.openStart = now
			t.logger.Info().
				Str("track_id", t.openTrack).
				Msg("Resumed tracking for open session")
		}
		return nil

	default:
		prev := t.openTrack
		closed, closeErr := t.sessions.CloseOpen(ctx, prev, now)
		if closeErr == nil && closed {
			t.logger.Info().
				Str("track_id", prev).
				Msg("Closed session on track change")
		}

		if err := t.open(ctx, snap.Track, now); err != nil {
			if closeErr != nil {
				return fmt.Errorf("close %s: %v; %w", prev, closeErr, err)
			}
			return err
		}
		if closeErr != nil {
			return fmt.Errorf("close %s: %w", prev, closeErr)
		}
		return nil
	}
}

// handleStopped closes any open session. Must be called with the lock
// held.
func (t *Tracker) handleStopped(ctx context.Context) error {
	t.duration = t.fallback

	if t.openTrack == "" {
		return nil
	}

	trackID := t.openTrack
	t.openTrack = ""
	t.openStart = time.Time{}

	closed, err := t.sessions.CloseOpen(ctx, trackID, t.now())
	if err != nil {
		return fmt.Errorf("close %s: %w", trackID, err)
	}
	if closed {
		t.logger.Info().
			Str("track_id", trackID).
			Msg("Closed session on stop")
	}
	return nil
}

// open inserts a new session and points the in-memory state at it.
// Must be called with the lock held.
func (t *Tracker) open(ctx context.Context, track TrackInfo, now time.Time) error {
	t.openTrack = track.ID
	t.openStart = now

	_, err := t.sessions.Open(ctx, store.Session{
		TrackID:    track.ID,
		TrackName:  track.Name,
		Artists:    track.Artists,
		AlbumName:  track.Album,
		AlbumImage: track.AlbumImage,
		StartTime:  now,
	})
	if err != nil {
		return fmt.Errorf("open %s: %w", track.ID, err)
	}

	t.logger.Info().
		Str("track_id", track.ID).
		Str("track", track.Name).
		Str("artists", track.Artists).
		Msg("Opened session")
	return nil
}
