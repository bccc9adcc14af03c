package tracker

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spinlog/spinlog/pkg/spotify"
)

// Fetcher reads the currently-playing endpoint and normalizes the
// result into a Snapshot. It never lets an upstream failure escape as
// an error; callers always receive a tagged snapshot.
type Fetcher struct {
	client *spotify.Client
	logger zerolog.Logger
}

// NewFetcher creates a Fetcher over the given API client.
func NewFetcher(client *spotify.Client, logger zerolog.Logger) *Fetcher {
	return &Fetcher{
		client: client,
		logger: logger.With().Str("component", "fetcher").Logger(),
	}
}

// Fetch polls the player once with the given bearer token.
func (f *Fetcher) Fetch(ctx context.Context, bearerToken string) Snapshot {
	np, err := f.client.Player().CurrentlyPlaying(ctx, bearerToken)
	if err != nil {
		var apiErr *spotify.Error
		if errors.As(err, &apiErr) {
			f.logger.Warn().
				Int("status", apiErr.Status).
				Str("message", apiErr.Message).
				Msg("currently-playing returned an error status")
			return Errored(apiErr.Status)
		}
		f.logger.Debug().Err(err).Msg("currently-playing request failed")
		return Errored(0)
	}

	if np == nil {
		return NoContent()
	}
	if np.Item == nil {
		// 200 with no item carries no track to attribute time to.
		return Playing(TrackInfo{}, false)
	}

	return Playing(trackInfo(np.Item), np.IsPlaying)
}

// trackInfo flattens the API track object into the display form the
// store keeps.
func trackInfo(item *spotify.Track) TrackInfo {
	names := make([]string, 0, len(item.Artists))
	for _, artist := range item.Artists {
		if artist.Name != "" {
			names = append(names, artist.Name)
		}
	}

	var image string
	if len(item.Album.Images) > 0 {
		image = item.Album.Images[0].URL
	}

	return TrackInfo{
		ID:         item.ID,
		Name:       item.Name,
		Artists:    strings.Join(names, ", "),
		Album:      item.Album.Name,
		AlbumImage: image,
		Duration:   time.Duration(item.DurationMs) * time.Millisecond,
	}
}
