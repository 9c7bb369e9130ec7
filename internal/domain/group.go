package domain

import (
	"hash/fnv"
	"strconv"
)

// Group aggregates all items sharing a (group name, media kind) pair
// within one playlist. ItemCount is incremented additively for the
// lifetime of a single ingestion run.
type Group struct {
	ID         string    `json:"id"`
	PlaylistID string    `json:"playlist_id"`
	Name       string    `json:"name"`
	MediaKind  MediaKind `json:"media_kind"`
	ItemCount  int       `json:"item_count"`
	Logo       string    `json:"logo,omitempty"`
}

// GroupKey identifies a group aggregate within a run.
type GroupKey struct {
	Name      string
	MediaKind MediaKind
}

// ID derives the deterministic group identifier. The same (name, kind)
// pair always maps to the same ID so repeated ingestions of a playlist
// update the same aggregate records.
func (k GroupKey) ID() string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(k.MediaKind))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(k.Name))
	return "group_" + strconv.FormatUint(h.Sum64(), 16)
}
