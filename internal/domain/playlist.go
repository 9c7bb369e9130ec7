package domain

import (
	"crypto/sha1" //#nosec G505 -- identity hash, not used for security
	"encoding/hex"
	"time"
)

// PlaylistStatus tracks the lifecycle of a playlist import.
type PlaylistStatus string

// Playlist import statuses.
const (
	PlaylistStatusPending  PlaylistStatus = "pending"
	PlaylistStatusIndexing PlaylistStatus = "indexing"
	PlaylistStatusReady    PlaylistStatus = "ready"
	PlaylistStatusFailed   PlaylistStatus = "failed"
)

// Playlist is the record for one imported playlist source.
// Its ID is derived from the source URL so repeat imports of the same
// URL resolve to the same record.
type Playlist struct {
	ID        string         `json:"id"`
	URL       string         `json:"url"`
	Status    PlaylistStatus `json:"status"`
	Stats     PlaylistStats  `json:"stats"`
	Error     string         `json:"error,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Touch updates the UpdatedAt timestamp to the current time.
func (p *Playlist) Touch() {
	p.UpdatedAt = time.Now()
}

// PlaylistIDFromURL derives the stable playlist identifier for a source
// URL. Importing the same URL twice updates the existing record instead
// of creating a second one.
func PlaylistIDFromURL(url string) string {
	sum := sha1.Sum([]byte(url)) //#nosec G401 -- identity hash, not used for security
	return "pl_" + hex.EncodeToString(sum[:8])
}
