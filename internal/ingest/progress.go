package ingest

import (
	"context"
	"fmt"
	"log/slog"
)

// emitProgress invokes the progress callback, shielding the run from
// callback panics. A broken progress consumer must never abort ingestion.
func (p *Processor) emitProgress(event Progress) {
	if p.opts.OnProgress == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil && p.logger != nil {
			p.logger.Error("progress callback panicked",
				"phase", event.Phase,
				"panic", fmt.Sprint(r))
		}
	}()

	p.opts.OnProgress(event)
}

// emitEarlyReady invokes the early-ready callback at most once per run.
// Errors and panics are logged, never fatal.
func (p *Processor) emitEarlyReady() {
	if p.opts.OnEarlyReady == nil || p.earlyReadySent {
		return
	}
	p.earlyReadySent = true

	defer func() {
		if r := recover(); r != nil && p.logger != nil {
			p.logger.Error("early-ready callback panicked", "panic", fmt.Sprint(r))
		}
	}()

	event := EarlyReady{
		ItemsLoaded: p.stats.TotalItems,
		LiveCount:   p.stats.LiveCount,
		MovieCount:  p.stats.MovieCount,
		SeriesCount: p.stats.SeriesCount,
	}

	if err := p.opts.OnEarlyReady(event); err != nil && p.logger != nil {
		p.logger.Warn("early-ready callback failed", "error", err)
	}

	if p.logger != nil {
		p.logger.LogAttrs(context.Background(), slog.LevelInfo, "early-ready signaled",
			slog.Int("items_loaded", event.ItemsLoaded))
	}
}
