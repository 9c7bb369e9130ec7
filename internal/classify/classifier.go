// Package classify implements the heuristic content classifier and title
// metadata extractor for playlist entries. Classification is pure and
// deterministic: identical inputs always yield the same media kind.
package classify

import (
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/streamvault/streamvault-server/internal/domain"
)

// seriesCacheSize bounds the episode-detection cache. Large playlists
// repeat the same episode names across quality variants, so the hit
// rate is high in practice.
const seriesCacheSize = 10_000

// Classifier decides the media kind of playlist entries and detects
// episode patterns. It is safe for use by a single ingestion run;
// construct one per run rather than sharing a process-wide instance.
type Classifier struct {
	seriesCache *lru.Cache[string, *domain.SeriesInfo]
}

// New creates a Classifier with a fresh episode-detection cache.
func New() *Classifier {
	cache, _ := lru.New[string, *domain.SeriesInfo](seriesCacheSize)
	return &Classifier{seriesCache: cache}
}

// Classify maps an entry name and group title to a media kind.
// Override rules run first, then group-based classification, then
// title-based classification. First match wins.
func (c *Classifier) Classify(name, group string) domain.MediaKind {
	// Adult content is forced to live so clients hide it with the
	// channel list instead of surfacing it under movies or series.
	if group != "" && adultContentPattern.MatchString(group) {
		return domain.MediaKindLive
	}

	// URLs ending in /ts are raw IPTV transport streams.
	if tsStreamPattern.MatchString(group) || tsStreamPattern.MatchString(name) {
		return domain.MediaKindLive
	}

	combined := strings.ToLower(name + " " + group)
	if pattern24h.MatchString(combined) || pattern247.MatchString(combined) {
		return domain.MediaKindLive
	}

	// Franchise collections number their movies with SxxExx tokens
	// (Harry Potter S01E01..E08 are movies), so this must run before
	// any series pattern.
	if group != "" && coletaneaPattern.MatchString(group) {
		return domain.MediaKindMovie
	}

	// Thematic continuous channels.
	if group != "" && cine24hPattern.MatchString(group) {
		return domain.MediaKindLive
	}
	if name != "" && canal24hPrefix.MatchString(name) {
		return domain.MediaKindLive
	}
	if name != "" && cineTematicoPattern.MatchString(name) {
		return domain.MediaKindLive
	}

	// Scheduled live events ("19:30 Juventude X Bahia").
	if name != "" && eventoHorarioPrefix.MatchString(name) {
		return domain.MediaKindLive
	}

	// The group title is the more reliable signal when present.
	if kind := c.ClassifyByGroup(group); kind != domain.MediaKindUnknown {
		return kind
	}

	return c.ClassifyByTitle(name, group)
}

// ClassifyByGroup classifies based on the group title alone.
func (c *Classifier) ClassifyByGroup(group string) domain.MediaKind {
	if group == "" {
		return domain.MediaKindUnknown
	}

	lower := strings.ToLower(group)

	hasSeries := seriesCheckPattern.MatchString(lower)
	hasMovies := moviesCheckPattern.MatchString(lower)
	has24h := pattern24h.MatchString(lower) || pattern247.MatchString(lower)

	// A series group running a 24h loop is a live channel.
	if hasSeries && has24h {
		return domain.MediaKindLive
	}

	// Series before live so "Apple TV" does not fall into live via "tv".
	if hasSeries || hashSeriesNovelas.MatchString(group) {
		return domain.MediaKindSeries
	}

	// Movies before live so "Filmes | Apple TV" does not fall into live.
	if hasMovies || hashFilmesPattern.MatchString(group) {
		return domain.MediaKindMovie
	}

	for _, p := range groupLivePatterns {
		if p.MatchString(lower) {
			return domain.MediaKindLive
		}
	}
	for _, p := range groupSeriesPatterns {
		if p.MatchString(lower) {
			return domain.MediaKindSeries
		}
	}
	for _, p := range groupMoviePatterns {
		if p.MatchString(lower) {
			return domain.MediaKindMovie
		}
	}

	return domain.MediaKindUnknown
}

// ClassifyByTitle classifies based on the entry name, consulting the
// group title only to decide how many movie signals are required.
func (c *Classifier) ClassifyByTitle(name, group string) domain.MediaKind {
	if name == "" {
		return domain.MediaKindUnknown
	}

	// Explicit provider prefixes carry the highest weight:
	// "S • Netflix" marks series groups, "F • Legendados" marks movies.
	if group != "" && sPrefixPattern.MatchString(group) {
		return domain.MediaKindSeries
	}
	if group != "" && fPrefixPattern.MatchString(group) {
		return domain.MediaKindMovie
	}

	for _, p := range titleSeriesPatterns {
		if p.MatchString(name) {
			return domain.MediaKindSeries
		}
	}

	// When the group clearly indicates movies and the name carries no
	// SxxExx token, a single textual signal is enough. Otherwise at
	// least two independent signals are required: a bare year alone is
	// too weak (many series carry one too).
	hasMovieGroup := group != "" && movieGroupCheck.MatchString(group)
	hasSeriesToken := seriesPatternCheck.MatchString(name)

	if hasMovieGroup && !hasSeriesToken {
		return domain.MediaKindMovie
	}

	movieScore := 0
	for _, p := range titleMoviePatterns {
		if p.MatchString(name) {
			movieScore++
		}
	}
	if movieScore >= 2 {
		return domain.MediaKindMovie
	}

	for _, p := range titleLivePatterns {
		if p.MatchString(name) {
			return domain.MediaKindLive
		}
	}

	return domain.MediaKindUnknown
}
