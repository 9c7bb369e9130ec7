package domain

import "time"

// Series aggregates every episode sharing one series key within a playlist.
// Counters are monotonic: totals and last-season/last-episode only grow,
// first-season/first-episode only shrink.
type Series struct {
	ID            string    `json:"id"`
	PlaylistID    string    `json:"playlist_id"`
	Name          string    `json:"name"`
	Logo          string    `json:"logo,omitempty"`
	Group         string    `json:"group"`
	TotalEpisodes int       `json:"total_episodes"`
	TotalSeasons  int       `json:"total_seasons"`
	FirstSeason   int       `json:"first_season"`
	LastSeason    int       `json:"last_season"`
	FirstEpisode  int       `json:"first_episode"`
	LastEpisode   int       `json:"last_episode"`
	Year          *int      `json:"year,omitempty"`
	Quality       string    `json:"quality,omitempty"`
	CreatedAt     time.Time `json:"created_at"`

	// SeasonsSeen records every distinct season number encountered so
	// TotalSeasons stays a distinct count across incremental updates.
	SeasonsSeen map[int]bool `json:"seasons_seen,omitempty"`
}

// Apply folds one coalesced update into the aggregate. Totals only
// grow, first markers only shrink, last markers only grow; an update
// can never regress a counter.
func (s *Series) Apply(u *SeriesUpdate) {
	s.TotalEpisodes += u.EpisodesAdded

	if u.FirstSeason > 0 && (s.FirstSeason == 0 || u.FirstSeason < s.FirstSeason) {
		s.FirstSeason = u.FirstSeason
	}
	if u.LastSeason > s.LastSeason {
		s.LastSeason = u.LastSeason
	}
	if u.FirstEpisode > 0 && (s.FirstEpisode == 0 || u.FirstEpisode < s.FirstEpisode) {
		s.FirstEpisode = u.FirstEpisode
	}
	if u.LastEpisode > s.LastEpisode {
		s.LastEpisode = u.LastEpisode
	}

	if s.SeasonsSeen == nil && len(u.Seasons) > 0 {
		s.SeasonsSeen = make(map[int]bool, len(u.Seasons))
	}
	for season := range u.Seasons {
		s.SeasonsSeen[season] = true
	}
	s.TotalSeasons = len(s.SeasonsSeen)
}

// SeriesUpdate carries the coalesced incremental changes for one series
// accumulated between two persistence flushes. Applying an update never
// rewrites the full record; only these counters move.
type SeriesUpdate struct {
	SeriesID      string
	EpisodesAdded int
	FirstSeason   int
	LastSeason    int
	FirstEpisode  int
	LastEpisode   int
	Seasons       map[int]struct{} // distinct seasons seen since the last flush
}

// Record merges one episode sighting into the pending update.
func (u *SeriesUpdate) Record(season, episode int) {
	u.EpisodesAdded++

	if season > 0 {
		if u.FirstSeason == 0 || season < u.FirstSeason {
			u.FirstSeason = season
		}
		if season > u.LastSeason {
			u.LastSeason = season
		}
		if u.Seasons == nil {
			u.Seasons = make(map[int]struct{})
		}
		u.Seasons[season] = struct{}{}
	}

	if episode > 0 {
		if u.FirstEpisode == 0 || episode < u.FirstEpisode {
			u.FirstEpisode = episode
		}
		if episode > u.LastEpisode {
			u.LastEpisode = episode
		}
	}
}
