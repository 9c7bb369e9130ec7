package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/streamvault/streamvault-server/internal/classify"
	"github.com/streamvault/streamvault-server/internal/domain"
	"github.com/streamvault/streamvault-server/internal/m3u"
	"github.com/streamvault/streamvault-server/internal/serieskey"
	"github.com/streamvault/streamvault-server/internal/store"
	"github.com/streamvault/streamvault-server/internal/validation"
)

// Processor is a single-use streaming batch processor. It consumes one
// lazy entry sequence, classifies and aggregates in source order, and
// persists in bounded batches. All aggregate state is private to the
// run; concurrent runs never share a Processor.
type Processor struct {
	store      store.Collections
	classifier *classify.Classifier
	validator  *validation.Validator
	logger     *slog.Logger
	opts       Options

	playlistID string
	state      State

	stats   domain.PlaylistStats
	groups  map[domain.GroupKey]*domain.Group
	series  map[string]*domain.Series       // run-local cache, authoritative for this run
	pending map[string]*domain.SeriesUpdate // coalesced updates since the last flush

	batch          []*domain.Item
	batchesFlushed int
	earlyReadySent bool
	skipped        int
	index          int
}

// NewProcessor creates a processor for one ingestion run.
func NewProcessor(st store.Collections, validator *validation.Validator, logger *slog.Logger, opts Options) *Processor {
	opts.applyDefaults()
	return &Processor{
		store:      st,
		classifier: classify.New(),
		validator:  validator,
		logger:     logger,
		opts:       opts,
		state:      StateIdle,
		groups:     make(map[domain.GroupKey]*domain.Group),
		series:     make(map[string]*domain.Series),
		pending:    make(map[string]*domain.SeriesUpdate),
		batch:      make([]*domain.Item, 0, opts.BatchSize),
	}
}

// State returns the processor's current run state.
func (p *Processor) State() State {
	return p.state
}

// Run consumes the source until exhaustion. Entries failing shape
// validation are skipped before classification. A source error is
// fatal: the run transitions to failed, an error-phase progress event
// is emitted, and the error is returned. Partially-ingested data stays
// in the store; there is no rollback.
func (p *Processor) Run(ctx context.Context, playlistID string, source <-chan m3u.Result) (*Result, error) {
	if p.state != StateIdle {
		return nil, fmt.Errorf("processor already used (state %s)", p.state)
	}
	p.playlistID = playlistID
	p.state = StateConsuming

	for res := range source {
		select {
		case <-ctx.Done():
			return nil, p.fail(ctx.Err())
		default:
		}

		if res.Err != nil {
			return nil, p.fail(res.Err)
		}

		if err := p.validator.Validate(&res.Entry); err != nil {
			p.skipped++
			continue
		}

		p.processEntry(ctx, res.Entry)

		if len(p.batch) >= p.opts.BatchSize {
			if err := p.flushBatch(ctx); err != nil {
				return nil, p.fail(err)
			}
		}
	}

	return p.finalize(ctx)
}

// processEntry classifies one entry, updates the run aggregates and
// appends the classified item to the current batch.
func (p *Processor) processEntry(ctx context.Context, entry domain.RawEntry) {
	kind := p.classifier.Classify(entry.Name, entry.Group)
	parsed := classify.ParseTitle(entry.Name)

	item := &domain.Item{
		ID:          itemID(entry.URL, p.index),
		PlaylistID:  p.playlistID,
		Name:        entry.Name,
		URL:         entry.URL,
		Logo:        entry.Logo,
		Group:       entry.Group,
		MediaKind:   kind,
		ParsedTitle: &parsed,
		EPGID:       entry.EPGID,
	}
	p.index++

	p.stats.Count(kind)
	p.countGroup(entry, kind)

	// Series linkage requires a detected season; episodes without one
	// keep the series kind but join no aggregate.
	if kind == domain.MediaKindSeries {
		if info := p.classifier.ExtractSeriesInfo(entry.Name); info != nil && info.Season > 0 {
			p.linkSeries(ctx, item, entry, info, &parsed)
		}
	}

	p.batch = append(p.batch, item)
}

// countGroup updates or creates the (group, kind) aggregate.
func (p *Processor) countGroup(entry domain.RawEntry, kind domain.MediaKind) {
	key := domain.GroupKey{Name: entry.Group, MediaKind: kind}
	group, ok := p.groups[key]
	if !ok {
		group = &domain.Group{
			ID:         key.ID(),
			PlaylistID: p.playlistID,
			Name:       entry.Group,
			MediaKind:  kind,
			Logo:       entry.Logo,
		}
		p.groups[key] = group
	}
	group.ItemCount++
}

// linkSeries attaches the item to its series aggregate, creating and
// persisting the aggregate on first sight of the series key. Updates
// are coalesced per series ID until the next flush.
func (p *Processor) linkSeries(ctx context.Context, item *domain.Item, entry domain.RawEntry, info *domain.SeriesInfo, parsed *domain.ParsedTitle) {
	normalized := serieskey.Normalize(info.SeriesName)
	if normalized == "" {
		return
	}
	seriesID := serieskey.Key(entry.Group, normalized)

	agg, ok := p.series[seriesID]
	if !ok {
		agg = &domain.Series{
			ID:         seriesID,
			PlaylistID: p.playlistID,
			Name:       classify.CleanTitle(info.SeriesName),
			Logo:       entry.Logo,
			Group:      entry.Group,
			Year:       parsed.Year,
			Quality:    parsed.Quality,
			CreatedAt:  time.Now(),
		}

		if err := p.store.CreateSeries(ctx, agg); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				// A prior run already wrote this series. Counters describe
				// the current playlist content, not the import history, so
				// the stale record is replaced and this run recounts from
				// zero.
				if perr := p.store.PutSeries(ctx, agg); perr != nil && p.logger != nil {
					p.logger.Warn("replace series failed, keeping run-local aggregate",
						"series_id", seriesID, "error", perr)
				}
			} else if p.logger != nil {
				p.logger.Warn("create series failed, keeping run-local aggregate",
					"series_id", seriesID, "error", err)
			}
		}
		p.series[seriesID] = agg
	}

	upd, ok := p.pending[seriesID]
	if !ok {
		upd = &domain.SeriesUpdate{SeriesID: seriesID}
		p.pending[seriesID] = upd
	}
	upd.Record(info.Season, info.Episode)

	item.SeriesID = seriesID
	season, episode := info.Season, info.Episode
	item.Season = &season
	if episode > 0 {
		item.Episode = &episode
	}
}

// flushBatch persists the current batch and pending series updates,
// emits progress, and yields to the scheduler. Returns only unrecoverable
// errors; constraint violations are absorbed by the fallback chain.
func (p *Processor) flushBatch(ctx context.Context) error {
	p.state = StatePersisting

	if err := p.persistItems(ctx, p.batch); err != nil {
		return err
	}
	p.flushSeriesUpdates(ctx)

	p.batchesFlushed++
	p.batch = p.batch[:0]

	// Total mirrors current during indexing: the stream length is unknown.
	p.emitProgress(Progress{
		Phase:   PhaseIndexing,
		Current: p.stats.TotalItems,
		Total:   p.stats.TotalItems,
		Message: fmt.Sprintf("Indexed %d items", p.stats.TotalItems),
	})

	if p.stats.TotalItems >= p.opts.EarlyReadyThreshold {
		p.emitEarlyReady()
	}

	if p.batchesFlushed%p.opts.ReclaimEvery == 0 {
		debug.FreeOSMemory()
		time.Sleep(time.Millisecond)
	}
	runtime.Gosched()

	p.state = StateConsuming
	return nil
}

// persistItems walks the three-level fallback: bulk insert, then bulk
// upsert, then per-record writes with per-record error isolation. Only
// a context cancellation escapes as an error.
func (p *Processor) persistItems(ctx context.Context, items []*domain.Item) error {
	if len(items) == 0 {
		return nil
	}

	err := p.store.InsertItems(ctx, items)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if p.logger != nil {
		p.logger.Warn("bulk insert failed, falling back to upsert",
			"count", len(items), "error", err)
	}

	err = p.store.UpsertItems(ctx, items)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if p.logger != nil {
		p.logger.Warn("bulk upsert failed, falling back to per-record writes",
			"count", len(items), "error", err)
	}

	for _, item := range items {
		if perr := p.store.PutItem(ctx, item); perr != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// One bad record never blocks its siblings.
			if p.logger != nil {
				p.logger.Error("skipping unpersistable item",
					"item_id", item.ID, "error", perr)
			}
		}
	}
	return nil
}

// flushSeriesUpdates applies all coalesced series updates and folds
// them into the run-local snapshots. A failing series is retried in
// isolation so it cannot block updates to its siblings.
func (p *Processor) flushSeriesUpdates(ctx context.Context) {
	if len(p.pending) == 0 {
		return
	}

	updates := make([]*domain.SeriesUpdate, 0, len(p.pending))
	for _, upd := range p.pending {
		updates = append(updates, upd)
	}

	if err := p.store.ApplySeriesUpdates(ctx, p.playlistID, updates); err != nil {
		if p.logger != nil {
			p.logger.Warn("bulk series update failed, applying individually", "error", err)
		}
		for _, upd := range updates {
			if uerr := p.store.ApplySeriesUpdates(ctx, p.playlistID, []*domain.SeriesUpdate{upd}); uerr != nil && p.logger != nil {
				p.logger.Error("skipping series update",
					"series_id", upd.SeriesID, "error", uerr)
			}
		}
	}

	// The cache stays authoritative for this run: fold the same deltas
	// into the local snapshots.
	for seriesID, upd := range p.pending {
		if agg := p.series[seriesID]; agg != nil {
			agg.Apply(upd)
		}
	}
	clear(p.pending)
}

// finalize persists the trailing partial batch and the group
// aggregates, emits the completion event and assembles the result.
func (p *Processor) finalize(ctx context.Context) (*Result, error) {
	if len(p.batch) > 0 || len(p.pending) > 0 {
		if err := p.flushBatch(ctx); err != nil {
			return nil, p.fail(err)
		}
	}
	p.state = StateFinalizing

	p.stats.GroupCount = len(p.groups)

	groups := make([]*domain.Group, 0, len(p.groups))
	for _, group := range p.groups {
		groups = append(groups, group)
	}

	if err := p.store.UpsertGroups(ctx, groups); err != nil {
		if ctx.Err() != nil {
			return nil, p.fail(ctx.Err())
		}
		if p.logger != nil {
			p.logger.Warn("bulk group upsert failed, applying individually", "error", err)
		}
		for _, group := range groups {
			if gerr := p.store.UpsertGroups(ctx, []*domain.Group{group}); gerr != nil && p.logger != nil {
				p.logger.Error("skipping unpersistable group",
					"group_id", group.ID, "error", gerr)
			}
		}
	}

	seriesList := make([]*domain.Series, 0, len(p.series))
	for _, series := range p.series {
		seriesList = append(seriesList, series)
	}

	if p.skipped > 0 && p.logger != nil {
		p.logger.Info("skipped entries failing shape validation", "count", p.skipped)
	}

	p.emitProgress(Progress{
		Phase:      PhaseComplete,
		Current:    p.stats.TotalItems,
		Total:      p.stats.TotalItems,
		Percentage: 100,
		Message:    fmt.Sprintf("Ingestion complete: %d items", p.stats.TotalItems),
	})
	p.state = StateComplete

	return &Result{
		Stats:  p.stats,
		Groups: groups,
		Series: seriesList,
	}, nil
}

// fail transitions the run to the failed state, emits the error-phase
// progress event and hands the error back for the caller to rethrow.
func (p *Processor) fail(err error) error {
	p.state = StateFailed

	p.emitProgress(Progress{
		Phase:   PhaseError,
		Current: p.stats.TotalItems,
		Total:   p.stats.TotalItems,
		Message: err.Error(),
	})

	if p.logger != nil {
		p.logger.Error("ingestion failed",
			"playlist_id", p.playlistID,
			"items_processed", p.stats.TotalItems,
			"error", err)
	}
	return err
}
