package stats

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/pixelbattle/pixel-battle-backend/internal/hub"
	"github.com/pixelbattle/pixel-battle-backend/internal/store"
)

// Publisher is the slice of the hub the aggregator needs.
type Publisher interface {
	Publish(e hub.Event)
}

// Aggregator pushes per-team pixel counts to every subscriber on a
// fixed interval, independent of request traffic.
type Aggregator struct {
	store    *store.Store
	pub      Publisher
	clock    clockwork.Clock
	interval time.Duration
	log      *zap.Logger
}

func New(st *store.Store, pub Publisher, clock clockwork.Clock, interval time.Duration, log *zap.Logger) *Aggregator {
	return &Aggregator{store: st, pub: pub, clock: clock, interval: interval, log: log}
}

// Run ticks until ctx is cancelled. A failed tick is logged and the
// next one still happens.
func (a *Aggregator) Run(ctx context.Context) {
	ticker := a.clock.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			a.tick(ctx)
		}
	}
}

func (a *Aggregator) tick(ctx context.Context) {
	counts, err := a.store.TeamCounts(ctx)
	if err != nil {
		a.log.Error("widget update failed", zap.Error(err))
		return
	}
	a.pub.Publish(hub.WidgetUpdateEvent(counts))
	a.log.Debug("widget update", zap.Int("teams", len(counts)))
}
