package ingest

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamvault/streamvault-server/internal/domain"
	"github.com/streamvault/streamvault-server/internal/m3u"
	"github.com/streamvault/streamvault-server/internal/store"
	"github.com/streamvault/streamvault-server/internal/validation"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.NewInMemory(nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func feed(entries []domain.RawEntry, terminalErr error) <-chan m3u.Result {
	ch := make(chan m3u.Result, 32)
	go func() {
		defer close(ch)
		for _, e := range entries {
			ch <- m3u.Result{Entry: e}
		}
		if terminalErr != nil {
			ch <- m3u.Result{Err: terminalErr}
		}
	}()
	return ch
}

func entry(name, url, group string) domain.RawEntry {
	return domain.RawEntry{Name: name, URL: url, Group: group}
}

// syntheticFeed builds the standard end-to-end corpus: 1,000 movies with
// two textual signals each, 200 live channels with 24h markers, and 50
// series episodes spanning 5 series keys with 2 seasons each.
func syntheticFeed() []domain.RawEntry {
	entries := make([]domain.RawEntry, 0, 1250)

	for i := 0; i < 1000; i++ {
		entries = append(entries, entry(
			fmt.Sprintf("Filme %d (2015) Dublado", i),
			fmt.Sprintf("http://provider.example/movie/%d.mp4", i),
			"Filmes | Ação"))
	}
	for i := 0; i < 200; i++ {
		entries = append(entries, entry(
			fmt.Sprintf("Canal %d 24h", i),
			fmt.Sprintf("http://provider.example/live/%d.m3u8", i),
			"Canais 24h"))
	}
	for s := 0; s < 5; s++ {
		for season := 1; season <= 2; season++ {
			for ep := 1; ep <= 5; ep++ {
				entries = append(entries, entry(
					fmt.Sprintf("Serie Alfa%d S%02dE%02d", s, season, ep),
					fmt.Sprintf("http://provider.example/series/%d/%d/%d.mp4", s, season, ep),
					"Séries | Drama"))
			}
		}
	}
	return entries
}

func TestEndToEndScenario(t *testing.T) {
	st := newTestStore(t)

	var (
		progressEvents []Progress
		earlyReady     []EarlyReady
	)
	p := NewProcessor(st, validation.New(), nil, Options{
		BatchSize: 500,
		OnProgress: func(pr Progress) {
			progressEvents = append(progressEvents, pr)
		},
		OnEarlyReady: func(r EarlyReady) error {
			earlyReady = append(earlyReady, r)
			return nil
		},
	})

	result, err := p.Run(context.Background(), "pl1", feed(syntheticFeed(), nil))
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, StateComplete, p.State())

	// Exact stats.
	assert.Equal(t, 1250, result.Stats.TotalItems)
	assert.Equal(t, 1000, result.Stats.MovieCount)
	assert.Equal(t, 200, result.Stats.LiveCount)
	assert.Equal(t, 50, result.Stats.SeriesCount)
	assert.Equal(t, 0, result.Stats.UnknownCount)
	assert.Equal(t, 3, result.Stats.GroupCount)

	// 500 + 500 + 250 means exactly 3 batch flushes: three indexing
	// events plus the final complete event.
	require.Len(t, progressEvents, 4)
	assert.Equal(t, PhaseIndexing, progressEvents[0].Phase)
	assert.Equal(t, 500, progressEvents[0].Current)
	assert.Equal(t, 500, progressEvents[0].Total) // indeterminate: total mirrors current
	assert.Equal(t, PhaseIndexing, progressEvents[1].Phase)
	assert.Equal(t, 1000, progressEvents[1].Current)
	assert.Equal(t, PhaseIndexing, progressEvents[2].Phase)
	assert.Equal(t, 1250, progressEvents[2].Current)
	assert.Equal(t, PhaseComplete, progressEvents[3].Phase)
	assert.Equal(t, 100, progressEvents[3].Percentage)

	// Early-ready fires exactly once, at the flush crossing 1000 items.
	require.Len(t, earlyReady, 1)
	assert.Equal(t, 1000, earlyReady[0].ItemsLoaded)

	// Exactly 5 series aggregates with correct bounds.
	require.Len(t, result.Series, 5)
	for _, series := range result.Series {
		assert.Equal(t, 10, series.TotalEpisodes, series.Name)
		assert.Equal(t, 2, series.TotalSeasons, series.Name)
		assert.Equal(t, 1, series.FirstSeason, series.Name)
		assert.Equal(t, 2, series.LastSeason, series.Name)
		assert.Equal(t, 1, series.FirstEpisode, series.Name)
		assert.Equal(t, 5, series.LastEpisode, series.Name)
	}

	// The persisted records agree with the run-local snapshots.
	persisted, err := st.ListSeries(context.Background(), "pl1")
	require.NoError(t, err)
	require.Len(t, persisted, 5)
	for _, series := range persisted {
		assert.Equal(t, 10, series.TotalEpisodes, series.Name)
	}

	count, err := st.CountItems(context.Background(), "pl1")
	require.NoError(t, err)
	assert.Equal(t, 1250, count)

	groups, err := st.ListGroups(context.Background(), "pl1")
	require.NoError(t, err)
	assert.Len(t, groups, 3)
	for _, group := range groups {
		switch group.MediaKind {
		case domain.MediaKindMovie:
			assert.Equal(t, 1000, group.ItemCount)
		case domain.MediaKindLive:
			assert.Equal(t, 200, group.ItemCount)
		case domain.MediaKindSeries:
			assert.Equal(t, 50, group.ItemCount)
		}
	}
}

func TestSkipsEntriesFailingValidation(t *testing.T) {
	st := newTestStore(t)
	p := NewProcessor(st, validation.New(), nil, Options{})

	entries := []domain.RawEntry{
		entry("Globo SP", "http://provider.example/1.ts", "Canais"),
		entry("", "http://provider.example/2.ts", "Canais"),
		entry("Sem URL", "", "Canais"),
		entry("SBT", "http://provider.example/3.ts", "Canais"),
	}

	result, err := p.Run(context.Background(), "pl1", feed(entries, nil))
	require.NoError(t, err)

	// Only entries with both name and url count.
	assert.Equal(t, 2, result.Stats.TotalItems)
}

func TestSourceErrorFailsRun(t *testing.T) {
	st := newTestStore(t)

	var events []Progress
	p := NewProcessor(st, validation.New(), nil, Options{
		OnProgress: func(pr Progress) { events = append(events, pr) },
	})

	entries := []domain.RawEntry{
		entry("Globo SP", "http://provider.example/1.ts", "Canais"),
	}
	srcErr := errors.New("connection reset by provider")

	_, err := p.Run(context.Background(), "pl1", feed(entries, srcErr))
	require.Error(t, err)
	assert.ErrorIs(t, err, srcErr)
	assert.Equal(t, StateFailed, p.State())

	// The last event carries the error phase and a displayable message.
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, PhaseError, last.Phase)
	assert.Contains(t, last.Message, "connection reset")

	// Partially-ingested data stays; there is no rollback. The single
	// entry was still in the unflushed batch here, so just verify the
	// playlist namespace is readable.
	_, err = st.ListGroups(context.Background(), "pl1")
	assert.NoError(t, err)
}

func TestProcessorIsSingleUse(t *testing.T) {
	st := newTestStore(t)
	p := NewProcessor(st, validation.New(), nil, Options{})

	_, err := p.Run(context.Background(), "pl1", feed(nil, nil))
	require.NoError(t, err)

	_, err = p.Run(context.Background(), "pl1", feed(nil, nil))
	require.Error(t, err)
}

func TestFallbackOverwritesCollidingItem(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	entries := []domain.RawEntry{
		entry("Filme Velho (2010) Dublado", "http://provider.example/movie/1.mp4", "Filmes"),
		entry("Canal Um 24h", "http://provider.example/live/1.m3u8", "Canais"),
	}

	// First run persists both items.
	p1 := NewProcessor(st, validation.New(), nil, Options{})
	_, err := p1.Run(ctx, "pl1", feed(entries, nil))
	require.NoError(t, err)

	// Second run re-feeds the same URLs at the same positions, so the
	// derived IDs collide. Bulk insert fails wholesale, upsert wins, and
	// the collision items end up with the new values.
	renamed := []domain.RawEntry{
		entry("Filme Novo (2020) Dublado", "http://provider.example/movie/1.mp4", "Filmes"),
		entry("Canal Um 24h", "http://provider.example/live/1.m3u8", "Canais"),
	}
	p2 := NewProcessor(st, validation.New(), nil, Options{})
	result, err := p2.Run(ctx, "pl1", feed(renamed, nil))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Stats.TotalItems)

	count, err := st.CountItems(ctx, "pl1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	items, err := st.ListItemsByGroup(ctx, "pl1",
		domain.GroupKey{Name: "Filmes", MediaKind: domain.MediaKindMovie}.ID(), 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Filme Novo (2020) Dublado", items[0].Name)
}

func TestSeriesAggregationOrderIndependent(t *testing.T) {
	st := newTestStore(t)

	// Episodes arrive out of order; the aggregate bounds must not care.
	entries := []domain.RawEntry{
		entry("Dark S02E03", "http://provider.example/s/1.mp4", "Séries"),
		entry("Dark S01E08", "http://provider.example/s/2.mp4", "Séries"),
		entry("Dark S02E01", "http://provider.example/s/3.mp4", "Séries"),
		entry("Dark S01E01", "http://provider.example/s/4.mp4", "Séries"),
	}

	p := NewProcessor(st, validation.New(), nil, Options{})
	result, err := p.Run(context.Background(), "pl1", feed(entries, nil))
	require.NoError(t, err)

	require.Len(t, result.Series, 1)
	series := result.Series[0]
	assert.Equal(t, 4, series.TotalEpisodes)
	assert.Equal(t, 2, series.TotalSeasons)
	assert.Equal(t, 1, series.FirstSeason)
	assert.Equal(t, 2, series.LastSeason)
	assert.Equal(t, 1, series.FirstEpisode)
	assert.Equal(t, 8, series.LastEpisode)
	assert.LessOrEqual(t, series.FirstSeason, series.LastSeason)
}

func TestReingestReplacesSeriesCounters(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	entries := []domain.RawEntry{
		entry("Dark S01E01", "http://provider.example/s/1.mp4", "Séries"),
		entry("Dark S01E02", "http://provider.example/s/2.mp4", "Séries"),
		entry("Dark S02E01", "http://provider.example/s/3.mp4", "Séries"),
	}

	p1 := NewProcessor(st, validation.New(), nil, Options{})
	_, err := p1.Run(ctx, "pl1", feed(entries, nil))
	require.NoError(t, err)

	// Importing the identical feed again must recount, not accumulate:
	// the aggregate describes the playlist content, not the import
	// history. Items stay deduplicated through the upsert path.
	p2 := NewProcessor(st, validation.New(), nil, Options{})
	result, err := p2.Run(ctx, "pl1", feed(entries, nil))
	require.NoError(t, err)

	require.Len(t, result.Series, 1)
	assert.Equal(t, 3, result.Series[0].TotalEpisodes)
	assert.Equal(t, 2, result.Series[0].TotalSeasons)

	persisted, err := st.ListSeries(ctx, "pl1")
	require.NoError(t, err)
	require.Len(t, persisted, 1)
	assert.Equal(t, 3, persisted[0].TotalEpisodes)
	assert.Equal(t, 2, persisted[0].TotalSeasons)
	assert.Equal(t, 1, persisted[0].FirstSeason)
	assert.Equal(t, 2, persisted[0].LastSeason)

	count, err := st.CountItems(ctx, "pl1")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestSeriesItemWithoutSeasonHasNoLinkage(t *testing.T) {
	st := newTestStore(t)

	entries := []domain.RawEntry{
		// Series by group, but no episode pattern in the name.
		entry("Documentario da Semana", "http://provider.example/s/1.mp4", "Séries | Docs"),
	}

	p := NewProcessor(st, validation.New(), nil, Options{})
	result, err := p.Run(context.Background(), "pl1", feed(entries, nil))
	require.NoError(t, err)

	assert.Equal(t, 1, result.Stats.SeriesCount)
	assert.Empty(t, result.Series)

	items, err := st.ListItemsByGroup(context.Background(), "pl1",
		domain.GroupKey{Name: "Séries | Docs", MediaKind: domain.MediaKindSeries}.ID(), 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, domain.MediaKindSeries, items[0].MediaKind)
	assert.Empty(t, items[0].SeriesID)
	assert.Nil(t, items[0].Season)
}

func TestCallbackPanicsDoNotAbortIngestion(t *testing.T) {
	st := newTestStore(t)

	p := NewProcessor(st, validation.New(), nil, Options{
		BatchSize:           2,
		EarlyReadyThreshold: 2,
		OnProgress:          func(Progress) { panic("progress consumer broke") },
		OnEarlyReady:        func(EarlyReady) error { panic("early-ready consumer broke") },
	})

	entries := []domain.RawEntry{
		entry("Canal Um 24h", "http://provider.example/1.ts", "Canais"),
		entry("Canal Dois 24h", "http://provider.example/2.ts", "Canais"),
		entry("Canal Tres 24h", "http://provider.example/3.ts", "Canais"),
	}

	result, err := p.Run(context.Background(), "pl1", feed(entries, nil))
	require.NoError(t, err)
	assert.Equal(t, 3, result.Stats.TotalItems)
	assert.Equal(t, StateComplete, p.State())
}

func TestItemIDStability(t *testing.T) {
	assert.Equal(t, itemID("http://a/1.ts", 0), itemID("http://a/1.ts", 0))
	assert.NotEqual(t, itemID("http://a/1.ts", 0), itemID("http://a/1.ts", 1))
	assert.NotEqual(t, itemID("http://a/1.ts", 0), itemID("http://a/2.ts", 0))
}
