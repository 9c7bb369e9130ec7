package domain

// MediaKind is the classification assigned to a playlist entry.
type MediaKind string

// MediaKind values. Unknown is the default when no heuristic matches.
const (
	MediaKindLive    MediaKind = "live"
	MediaKindMovie   MediaKind = "movie"
	MediaKindSeries  MediaKind = "series"
	MediaKindUnknown MediaKind = "unknown"
)

// String returns the string representation of the media kind.
func (k MediaKind) String() string {
	return string(k)
}

// Valid reports whether k is one of the known media kinds.
func (k MediaKind) Valid() bool {
	switch k {
	case MediaKindLive, MediaKindMovie, MediaKindSeries, MediaKindUnknown:
		return true
	}
	return false
}
