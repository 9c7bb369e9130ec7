package classify

import (
	"strconv"
	"strings"

	"github.com/streamvault/streamvault-server/internal/domain"
)

// ExtractSeriesInfo detects an episode pattern in an entry name and
// returns the series base name plus season/episode numbers, or nil when
// no pattern matches. Results are cached per classifier instance since
// large playlists repeat names across quality variants.
func (c *Classifier) ExtractSeriesInfo(name string) *domain.SeriesInfo {
	if cached, ok := c.seriesCache.Get(name); ok {
		return cached
	}

	info := extractSeriesInfo(name)
	c.seriesCache.Add(name, info)
	return info
}

func extractSeriesInfo(name string) *domain.SeriesInfo {
	clean := removePrefixes(name)

	// "Breaking Bad S01E05", then "Breaking Bad 1x05",
	// then "La Casa de Papel T01E05".
	if m := seriesMainPattern.FindStringSubmatch(clean); m != nil {
		return seriesInfoFromMatch(m)
	}
	if m := seriesAltPattern.FindStringSubmatch(clean); m != nil {
		return seriesInfoFromMatch(m)
	}
	if m := seriesPTPattern.FindStringSubmatch(clean); m != nil {
		return seriesInfoFromMatch(m)
	}

	return nil
}

func seriesInfoFromMatch(m []string) *domain.SeriesInfo {
	season, _ := strconv.Atoi(m[2])
	episode, _ := strconv.Atoi(m[3])
	return &domain.SeriesInfo{
		SeriesName: strings.TrimSpace(m[1]),
		Season:     season,
		Episode:    episode,
		IsSeries:   true,
	}
}

// removePrefixes strips a leading tag, emoji, or numbering prefix
// ("[HD] ", "⭐ ", "1. ") so episode detection sees the bare name.
func removePrefixes(name string) string {
	s := prefixCleaner.ReplaceAllString(name, "")
	s = numberingCleaner.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
