package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ArtistCount is an artist with the number of sessions it appears in.
type ArtistCount struct {
	Artist string
	Count  int
}

// TrackCount is a track+artists pair with its play count.
type TrackCount struct {
	TrackName  string
	Artists    string
	AlbumImage string
	Count      int
}

// TotalMinutes sums the elapsed time of all closed sessions, floored
// to whole minutes. Rows with unparseable timestamps are skipped
// rather than aborting the aggregation.
func (s *Store) TotalMinutes(ctx context.Context) (int64, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT start_time, end_time FROM sessions WHERE end_time IS NOT NULL")
	if err != nil {
		return 0, fmt.Errorf("failed to query session times: %w", err)
	}
	defer rows.Close()

	var totalSeconds int64
	for rows.Next() {
		var start, end string
		if err := rows.Scan(&start, &end); err != nil {
			return 0, fmt.Errorf("failed to scan session times: %w", err)
		}

		startTime, err := time.Parse(timeLayout, start)
		if err != nil {
			continue
		}
		endTime, err := time.Parse(timeLayout, end)
		if err != nil {
			continue
		}
		if endTime.Before(startTime) {
			continue
		}
		totalSeconds += int64(endTime.Sub(startTime).Seconds())
	}

	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("error iterating session times: %w", err)
	}

	return totalSeconds / 60, nil
}

// TopArtists counts individual artists across all sessions, splitting
// the joined artists column, and returns the top limit entries.
func (s *Store) TopArtists(ctx context.Context, limit int) ([]ArtistCount, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT artists FROM sessions")
	if err != nil {
		return nil, fmt.Errorf("failed to query artists: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var artists string
		if err := rows.Scan(&artists); err != nil {
			return nil, fmt.Errorf("failed to scan artists: %w", err)
		}
		for _, artist := range strings.Split(artists, ",") {
			artist = strings.TrimSpace(artist)
			if artist != "" {
				counts[artist]++
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating artists: %w", err)
	}

	result := make([]ArtistCount, 0, len(counts))
	for artist, count := range counts {
		result = append(result, ArtistCount{Artist: artist, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Artist < result[j].Artist
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// TopTracks counts sessions per track+artists pair and returns the top
// limit entries with their album art.
func (s *Store) TopTracks(ctx context.Context, limit int) ([]TrackCount, error) {
	query := `
		SELECT track_name, artists, COALESCE(album_image, ''), COUNT(*) AS plays
		FROM sessions
		GROUP BY track_name, artists
		ORDER BY plays DESC, track_name ASC
	`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query top tracks: %w", err)
	}
	defer rows.Close()

	var result []TrackCount
	for rows.Next() {
		var tc TrackCount
		if err := rows.Scan(&tc.TrackName, &tc.Artists, &tc.AlbumImage, &tc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan top track: %w", err)
		}
		result = append(result, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating top tracks: %w", err)
	}

	return result, nil
}

// InsertRaw inserts a session row with raw timestamp strings. It
// exists so tests can seed malformed rows; production writes go
// through Open/CloseOpen.
func (s *Store) InsertRaw(ctx context.Context, trackID, trackName, artists, start string, end *string) error {
	var endVal sql.NullString
	if end != nil {
		endVal = sql.NullString{String: *end, Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO sessions (track_id, track_name, artists, start_time, end_time) VALUES (?, ?, ?, ?, ?)",
		trackID, trackName, artists, start, endVal)
	if err != nil {
		return fmt.Errorf("failed to insert raw session: %w", err)
	}
	return nil
}
