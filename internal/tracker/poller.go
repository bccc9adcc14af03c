package tracker

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/spinlog/spinlog/internal/auth"
)

// DefaultPollInterval is how often the player is polled.
const DefaultPollInterval = 5 * time.Second

// ErrAlreadyStarted is returned by Run when the poller is already
// running. A second loop would race on the tracker state and
// double-write sessions.
var ErrAlreadyStarted = errors.New("tracker: poller already started")

// Poller drives the token manager, fetcher, and tracker on a fixed
// cadence. Exactly one Run may be active per process.
type Poller struct {
	manager  *auth.Manager
	fetcher  *Fetcher
	tracker  *Tracker
	interval time.Duration
	logger   zerolog.Logger

	started atomic.Bool
}

// NewPoller creates a new Poller instance.
func NewPoller(manager *auth.Manager, fetcher *Fetcher, tracker *Tracker, interval time.Duration, logger zerolog.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{
		manager:  manager,
		fetcher:  fetcher,
		tracker:  tracker,
		interval: interval,
		logger:   logger.With().Str("component", "poller").Logger(),
	}
}

// Run starts the polling loop and blocks until the context is
// cancelled. A second concurrent call returns ErrAlreadyStarted.
func (p *Poller) Run(ctx context.Context) error {
	if !p.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	defer p.started.Store(false)

	p.logger.Info().
		Dur("interval", p.interval).
		Msg("Starting poller")

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	// Poll immediately on start
	p.cycle(ctx)

	for {
		select {
		case <-ctx.Done():
			p.logger.Info().Msg("Poller stopped")
			return ctx.Err()
		case <-ticker.C:
			p.cycle(ctx)
		}
	}
}

// cycle runs one poll: refresh credentials if needed, fetch a
// snapshot, feed it to the tracker. No failure here may end the loop;
// everything degrades to a logged skip or an error snapshot.
func (p *Poller) cycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error().Interface("panic", r).Msg("Poll cycle panicked")
			if err := p.tracker.Observe(ctx, Errored(0)); err != nil {
				p.logger.Error().Err(err).Msg("Failed to record error snapshot")
			}
		}
	}()

	if err := p.manager.EnsureFresh(ctx); err != nil {
		if errors.Is(err, auth.ErrNoCredentials) {
			p.logger.Debug().Msg("Not authenticated yet; skipping poll")
			return
		}
		// Transient refresh failure: keep the stale token, skip this
		// cycle's fetch, retry on the next tick.
		p.logger.Warn().Err(err).Msg("Token refresh failed; will retry")
		return
	}

	bearer, ok := p.manager.BearerToken()
	if !ok {
		return
	}

	snap := p.fetcher.Fetch(ctx, bearer)
	p.logger.Debug().
		Str("kind", snap.Kind.String()).
		Bool("is_playing", snap.IsPlaying).
		Str("track", snap.Track.Name).
		Msg("Poll snapshot")

	if err := p.tracker.Observe(ctx, snap); err != nil {
		p.logger.Error().Err(err).Msg("Failed to apply snapshot")
	}
}
