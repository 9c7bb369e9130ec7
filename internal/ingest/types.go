// Package ingest implements the streaming batch processor that turns a
// lazy sequence of raw playlist entries into persisted, classified,
// aggregated records. One Processor serves exactly one ingestion run.
package ingest

import (
	"github.com/streamvault/streamvault-server/internal/domain"
)

// Batch sizing and scheduling defaults. Constrained targets use the
// smaller batch to keep peak memory down.
const (
	DefaultBatchSize     = 500
	ConstrainedBatchSize = 250

	// DefaultEarlyReadyThreshold is the processed-item count at which
	// consumers are told enough data exists to start rendering.
	DefaultEarlyReadyThreshold = 1000

	// DefaultReclaimEvery is how many batch flushes pass between memory
	// reclaim hints to the runtime.
	DefaultReclaimEvery = 8
)

// Phase identifies the stage a progress event was emitted from.
type Phase string

// Progress phases.
const (
	PhaseIndexing Phase = "indexing"
	PhaseComplete Phase = "complete"
	PhaseError    Phase = "error"
)

// State is the processor's run state. Transitions are strictly forward:
// idle → consuming → (persisting → consuming)* → finalizing → complete,
// with failed reachable from any state on an unrecoverable error.
type State string

// Processor states.
const (
	StateIdle       State = "idle"
	StateConsuming  State = "consuming"
	StatePersisting State = "persisting"
	StateFinalizing State = "finalizing"
	StateComplete   State = "complete"
	StateFailed     State = "failed"
)

// Progress is one progress event. During indexing the total is reported
// equal to current, signaling an indeterminate stream; percentage is
// meaningful only in the complete phase.
type Progress struct {
	Phase      Phase  `json:"phase"`
	Current    int    `json:"current"`
	Total      int    `json:"total"`
	Percentage int    `json:"percentage"`
	Message    string `json:"message"`
}

// EarlyReady carries the counters passed to the early-ready callback.
type EarlyReady struct {
	ItemsLoaded int `json:"items_loaded"`
	LiveCount   int `json:"live_count"`
	MovieCount  int `json:"movie_count"`
	SeriesCount int `json:"series_count"`
}

// ProgressFunc receives progress events. It is called synchronously
// from the ingestion loop; failures are logged and never abort the run.
type ProgressFunc func(p Progress)

// EarlyReadyFunc is invoked at most once per run when the early-ready
// threshold is crossed. An error return is logged, never fatal.
type EarlyReadyFunc func(r EarlyReady) error

// Options tunes one ingestion run. Zero values fall back to defaults.
type Options struct {
	BatchSize           int
	EarlyReadyThreshold int
	ReclaimEvery        int

	OnProgress   ProgressFunc
	OnEarlyReady EarlyReadyFunc
}

func (o *Options) applyDefaults() {
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.EarlyReadyThreshold <= 0 {
		o.EarlyReadyThreshold = DefaultEarlyReadyThreshold
	}
	if o.ReclaimEvery <= 0 {
		o.ReclaimEvery = DefaultReclaimEvery
	}
}

// Result is what a completed run hands back. Items are not included;
// they already reside in the store and retaining them in memory would
// defeat the bounded-memory goal.
type Result struct {
	Stats  domain.PlaylistStats
	Groups []*domain.Group
	Series []*domain.Series
}
