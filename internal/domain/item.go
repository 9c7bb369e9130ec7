// Package domain defines the core entities for playlist ingestion:
// raw entries, classified items, group and series aggregates, and stats.
package domain

// RawEntry is a single unclassified playlist entry as produced by the
// playlist parser. One per stream URL; never persisted directly.
type RawEntry struct {
	Name  string `json:"name" validate:"required"`
	URL   string `json:"url" validate:"required"`
	Group string `json:"group"`
	Logo  string `json:"logo,omitempty"`
	EPGID string `json:"epg_id,omitempty"`
}

// ParsedTitle holds metadata extracted from a raw entry name.
// Absent numeric fields are nil, never zero.
type ParsedTitle struct {
	Title        string `json:"title"`
	Year         *int   `json:"year,omitempty"`
	Season       *int   `json:"season,omitempty"`
	Episode      *int   `json:"episode,omitempty"`
	Quality      string `json:"quality,omitempty"`
	Language     string `json:"language,omitempty"`
	IsDubbed     bool   `json:"is_dubbed"`
	IsSubbed     bool   `json:"is_subbed"`
	IsMultiAudio bool   `json:"is_multi_audio"`
}

// Item is a classified playlist entry ready for persistence.
// SeriesID is set if and only if MediaKind is series AND a season number
// was detected; series items without a detectable season are persisted
// with the series kind but no aggregate linkage.
type Item struct {
	ID          string       `json:"id"`
	PlaylistID  string       `json:"playlist_id"`
	Name        string       `json:"name"`
	URL         string       `json:"url"`
	Logo        string       `json:"logo,omitempty"`
	Group       string       `json:"group"`
	MediaKind   MediaKind    `json:"media_kind"`
	ParsedTitle *ParsedTitle `json:"parsed_title,omitempty"`
	EPGID       string       `json:"epg_id,omitempty"`
	SeriesID    string       `json:"series_id,omitempty"`
	Season      *int         `json:"season,omitempty"`
	Episode     *int         `json:"episode,omitempty"`
}

// GroupID returns the ID of the group aggregate this item belongs to,
// or "" for items without a group.
func (i *Item) GroupID() string {
	if i.Group == "" {
		return ""
	}
	return GroupKey{Name: i.Group, MediaKind: i.MediaKind}.ID()
}

// SeriesInfo is the result of detecting an episode pattern in an entry name.
type SeriesInfo struct {
	SeriesName string `json:"series_name"`
	Season     int    `json:"season"`
	Episode    int    `json:"episode"`
	IsSeries   bool   `json:"is_series"`
}
