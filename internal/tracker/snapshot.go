// Package tracker derives listening sessions from a stream of
// now-playing snapshots.
package tracker

import (
	"time"
)

// Kind tags a Snapshot.
type Kind int

const (
	// KindNoContent means the player reported nothing (HTTP 204).
	KindNoContent Kind = iota
	// KindPlaying means the player reported an item; check IsPlaying.
	KindPlaying
	// KindError means the poll failed; Status holds the HTTP status,
	// or 0 for transport failures.
	KindError
)

// String returns a human-readable representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindNoContent:
		return "no-content"
	case KindPlaying:
		return "playing"
	case KindError:
		return "error"
	default:
		return "unknown"
	}
}

// TrackInfo is the track metadata carried by a playing snapshot.
type TrackInfo struct {
	ID         string
	Name       string
	Artists    string // display form, joined with ", "
	Album      string
	AlbumImage string
	Duration   time.Duration
}

// Snapshot is one poll's normalized read of the remote player. It is
// never persisted; the tracker consumes it and moves on.
type Snapshot struct {
	Kind      Kind
	Status    int       // set for KindError
	IsPlaying bool      // set for KindPlaying
	Track     TrackInfo // set for KindPlaying when an item was reported
}

// NoContent returns a snapshot for an empty player.
func NoContent() Snapshot {
	return Snapshot{Kind: KindNoContent}
}

// Errored returns a snapshot for a failed poll.
func Errored(status int) Snapshot {
	return Snapshot{Kind: KindError, Status: status}
}

// Playing returns a snapshot for a reported item.
func Playing(track TrackInfo, isPlaying bool) Snapshot {
	return Snapshot{Kind: KindPlaying, IsPlaying: isPlaying, Track: track}
}

// active reports whether the snapshot shows a track actively playing.
// Paused and errored snapshots are treated the same as an empty
// player: the upstream API does not reliably distinguish a deliberate
// pause from playback ending.
func (s Snapshot) active() bool {
	return s.Kind == KindPlaying && s.IsPlaying && s.Track.ID != ""
}
