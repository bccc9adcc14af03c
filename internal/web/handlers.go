package web

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/spinlog/spinlog/internal/auth"
	"github.com/spinlog/spinlog/internal/store"
	"github.com/spinlog/spinlog/internal/tracker"
	"github.com/spinlog/spinlog/pkg/spotify"
)

// Handlers contains the HTTP handlers for the web application.
type Handlers struct {
	manager   *auth.Manager
	tracker   *tracker.Tracker
	sessions  *store.Store
	spotify   *spotify.Client
	templates *Templates
	logger    zerolog.Logger

	now func() time.Time // injectable for tests
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(manager *auth.Manager, tr *tracker.Tracker, sessions *store.Store, client *spotify.Client, templates *Templates, logger zerolog.Logger) *Handlers {
	return &Handlers{
		manager:   manager,
		tracker:   tr,
		sessions:  sessions,
		spotify:   client,
		templates: templates,
		logger:    logger.With().Str("component", "web").Logger(),
		now:       time.Now,
	}
}

// Login redirects to the Spotify consent screen (GET /).
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	url := h.spotify.Accounts().AuthURL(spotify.ScopesNowPlaying)
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

// Callback completes the authorization flow (GET /callback).
func (h *Handlers) Callback(w http.ResponseWriter, r *http.Request) {
	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Error().Str("error", errParam).Msg("Authorization denied upstream")
		http.Error(w, "Spotify returned error: "+errParam, http.StatusBadRequest)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "Missing code in callback", http.StatusBadRequest)
		return
	}

	if err := h.manager.Exchange(r.Context(), code); err != nil {
		h.logger.Error().Err(err).Msg("Code exchange failed")
		http.Error(w, "Failed to exchange code for token", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// profileData is the dashboard header block.
type profileData struct {
	DisplayName string
	ImageURL    string
}

// dashboardData is the template payload for the dashboard page.
type dashboardData struct {
	TotalMinutes int64
	TopArtists   []store.ArtistCount
	TopTracks    []store.TrackCount
	Profile      *profileData
}

// Dashboard renders the aggregate listening report (GET /dashboard).
func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	minutes, err := h.sessions.TotalMinutes(ctx)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to aggregate minutes")
		http.Error(w, "Failed to load dashboard", http.StatusInternalServerError)
		return
	}

	artists, err := h.sessions.TopArtists(ctx, 10)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to aggregate artists")
		http.Error(w, "Failed to load dashboard", http.StatusInternalServerError)
		return
	}

	tracks, err := h.sessions.TopTracks(ctx, 50)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to aggregate tracks")
		http.Error(w, "Failed to load dashboard", http.StatusInternalServerError)
		return
	}

	data := dashboardData{
		TotalMinutes: minutes,
		TopArtists:   artists,
		TopTracks:    tracks,
		Profile:      h.profile(r),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.Render(w, "dashboard.html", data); err != nil {
		h.logger.Error().Err(err).Msg("Failed to render dashboard")
	}
}

// profile fetches the user profile for the dashboard header. Failures
// degrade to an anonymous header.
func (h *Handlers) profile(r *http.Request) *profileData {
	bearer, ok := h.manager.BearerToken()
	if !ok {
		return nil
	}

	p, err := h.spotify.Player().Me(r.Context(), bearer)
	if err != nil {
		h.logger.Warn().Err(err).Msg("Failed to fetch user profile")
		return nil
	}

	data := &profileData{DisplayName: p.DisplayName}
	if data.DisplayName == "" {
		data.DisplayName = "Spotify User"
	}
	if len(p.Images) > 0 {
		data.ImageURL = p.Images[0].URL
	}
	return data
}

// currentTrackResponse is the JSON payload for /current-track.
type currentTrackResponse struct {
	TrackName     string `json:"track_name"`
	Artists       string `json:"artists"`
	AlbumName     string `json:"album_name"`
	AlbumImage    string `json:"album_image"`
	SecondsPlayed int64  `json:"seconds_played"`
	Duration      int64  `json:"duration"`
}

// CurrentTrack reports what is playing right now (GET /current-track).
func (h *Handlers) CurrentTrack(w http.ResponseWriter, r *http.Request) {
	if !h.manager.Authenticated() {
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"error": "User not authenticated",
		})
		return
	}

	state := h.tracker.State()
	if !state.Playing() || state.StartTime.IsZero() {
		writeJSON(w, http.StatusOK, map[string]string{
			"message": "No track currently playing",
		})
		return
	}

	sess, err := h.sessions.LatestForTrack(r.Context(), state.TrackID)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to look up current track")
		http.Error(w, "Failed to look up current track", http.StatusInternalServerError)
		return
	}
	if sess == nil {
		writeJSON(w, http.StatusOK, map[string]string{
			"message": "Track info not found",
		})
		return
	}

	writeJSON(w, http.StatusOK, currentTrackResponse{
		TrackName:     sess.TrackName,
		Artists:       sess.Artists,
		AlbumName:     sess.AlbumName,
		AlbumImage:    sess.AlbumImage,
		SecondsPlayed: int64(h.now().Sub(state.StartTime).Seconds()),
		Duration:      int64(state.Duration.Seconds()),
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
