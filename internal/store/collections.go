package store

import (
	"context"

	"github.com/streamvault/streamvault-server/internal/domain"
)

// Collections is the persistence surface the ingestion engine and API
// depend on. Two drivers implement it: the Badger store in this package
// and the SQLite store in store/sqlite.
type Collections interface {
	// Playlists.
	CreatePlaylist(ctx context.Context, p *domain.Playlist) error
	GetPlaylist(ctx context.Context, id string) (*domain.Playlist, error)
	UpdatePlaylist(ctx context.Context, p *domain.Playlist) error
	ListPlaylists(ctx context.Context) ([]*domain.Playlist, error)

	// Items. InsertItems fails wholesale when any item already exists;
	// UpsertItems overwrites unconditionally; PutItem writes one item in
	// isolation. The ingestion engine walks these three levels in order
	// when a batch flush fails.
	InsertItems(ctx context.Context, items []*domain.Item) error
	UpsertItems(ctx context.Context, items []*domain.Item) error
	PutItem(ctx context.Context, item *domain.Item) error
	GetItem(ctx context.Context, playlistID, id string) (*domain.Item, error)
	CountItems(ctx context.Context, playlistID string) (int, error)
	ListItemsByGroup(ctx context.Context, playlistID, groupID string, limit int) ([]*domain.Item, error)

	// Groups are aggregates recomputed during ingestion; every flush
	// overwrites them with the latest counts.
	UpsertGroups(ctx context.Context, groups []*domain.Group) error
	GetGroup(ctx context.Context, playlistID, id string) (*domain.Group, error)
	ListGroups(ctx context.Context, playlistID string) ([]*domain.Group, error)

	// Series. PutSeries writes unconditionally; a re-ingested playlist
	// replaces stale aggregates with fresh ones instead of accumulating
	// on top of old counters.
	CreateSeries(ctx context.Context, s *domain.Series) error
	PutSeries(ctx context.Context, s *domain.Series) error
	GetSeries(ctx context.Context, playlistID, id string) (*domain.Series, error)
	ApplySeriesUpdates(ctx context.Context, playlistID string, updates []*domain.SeriesUpdate) error
	ListSeries(ctx context.Context, playlistID string) ([]*domain.Series, error)

	Close() error
}
