package domain

// PlaylistStats holds the per-kind counters for one ingestion run.
// Counters are only ever incremented.
type PlaylistStats struct {
	TotalItems   int `json:"total_items"`
	LiveCount    int `json:"live_count"`
	MovieCount   int `json:"movie_count"`
	SeriesCount  int `json:"series_count"`
	UnknownCount int `json:"unknown_count"`
	GroupCount   int `json:"group_count"`
}

// Count increments the counter for the given media kind.
func (s *PlaylistStats) Count(kind MediaKind) {
	s.TotalItems++
	switch kind {
	case MediaKindLive:
		s.LiveCount++
	case MediaKindMovie:
		s.MovieCount++
	case MediaKindSeries:
		s.SeriesCount++
	case MediaKindUnknown:
		s.UnknownCount++
	}
}
