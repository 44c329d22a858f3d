package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/driftline/voicerelay/internal/domain"
)

// Reaper periodically evicts sessions that stopped polling. Eviction
// failures are contained per session: one bad record is logged and
// skipped, never aborting the rest of the sweep or the loop itself.
type Reaper struct {
	engine   *Engine
	interval time.Duration
	ttl      time.Duration
}

func NewReaper(engine *Engine, interval, ttl time.Duration) *Reaper {
	return &Reaper{engine: engine, interval: interval, ttl: ttl}
}

// Run blocks until ctx is cancelled, sweeping once per interval.
func (r *Reaper) Run(ctx context.Context) {
	log.Info().Str("module", "app.reaper").Dur("interval", r.interval).Dur("ttl", r.ttl).Msg("reaper started")
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "app.reaper").Msg("reaper stopped")
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// Sweep evicts every currently expired session.
func (r *Reaper) Sweep() {
	expired := r.engine.ExpiredSessions(r.ttl)
	if len(expired) == 0 {
		return
	}
	evicted := 0
	for _, sid := range expired {
		if err := r.evictOne(sid); err != nil {
			log.Error().Str("module", "app.reaper").Str("sid", string(sid)).Err(err).Msg("eviction failed, skipping")
			continue
		}
		evicted++
	}
	log.Info().Str("module", "app.reaper").Int("expired", len(expired)).Int("evicted", evicted).Msg("sweep done")
}

func (r *Reaper) evictOne(sid domain.SessionID) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("evict %s: %v", sid, p)
		}
	}()
	return r.engine.Evict(sid)
}
