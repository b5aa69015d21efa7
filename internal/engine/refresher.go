package engine

import (
	"context"
	"log/slog"
	"time"

	"bazi-backend/internal/rules"
)

// Refresher polls the store's rule version on a background interval and
// reloads the registry when it moved. Imports done in this process
// reload the registry directly; the refresher picks up bumps made
// elsewhere, a second replica or the CLI against the same database.
type Refresher struct {
	source   rules.Source
	registry *rules.Registry
	interval time.Duration
	ticker   *time.Ticker
	done     chan struct{}
}

func NewRefresher(src rules.Source, reg *rules.Registry, interval time.Duration) *Refresher {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Refresher{source: src, registry: reg, interval: interval}
}

// Start begins the background ticker.
func (r *Refresher) Start() {
	r.ticker = time.NewTicker(r.interval)
	r.done = make(chan struct{})
	go r.run()
	slog.Info("rule refresher started", "interval", r.interval)
}

// Stop halts the background ticker.
func (r *Refresher) Stop() {
	if r.ticker != nil {
		r.ticker.Stop()
	}
	if r.done != nil {
		close(r.done)
	}
}

func (r *Refresher) run() {
	for {
		select {
		case <-r.done:
			return
		case <-r.ticker.C:
			r.refresh()
		}
	}
}

func (r *Refresher) refresh() {
	ctx := context.Background()

	version, err := r.source.RuleVersion(ctx)
	if err != nil {
		slog.Error("rule version check failed", "error", err)
		return
	}
	if version == r.registry.Version() {
		return
	}
	if err := rules.LoadAll(ctx, r.source, r.registry); err != nil {
		slog.Error("rule registry reload failed", "error", err)
		return
	}
	slog.Info("rule registry reloaded", "version", r.registry.Version(), "rules", r.registry.Len())
}
