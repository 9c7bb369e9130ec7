package classify

import (
	"strconv"
	"strings"
	"time"

	"github.com/streamvault/streamvault-server/internal/domain"
)

// ParseTitle extracts structured metadata from a raw entry name.
// It never fails: fields that cannot be detected are simply absent.
func ParseTitle(name string) domain.ParsedTitle {
	working := name
	parsed := domain.ParsedTitle{}

	// Year: a bracketed year is authoritative and is stripped from the
	// working title; a bare 4-digit token is accepted only inside a
	// plausible range and left in place.
	if m := extractorYear.FindStringSubmatch(name); m != nil {
		if y, err := strconv.Atoi(m[1]); err == nil {
			parsed.Year = &y
		}
		working = strings.Replace(working, m[0], "", 1)
	} else if m := extractorYearStandalone.FindString(name); m != "" {
		if y, err := strconv.Atoi(m); err == nil {
			if y >= 1900 && y <= time.Now().Year()+1 {
				parsed.Year = &y
			}
		}
	}

	// Season/episode: S01E01 first, then 1x01, then separate tokens
	// (either of which may appear alone).
	if m := extractorSeasonEpisode.FindStringSubmatch(name); m != nil {
		parsed.Season = parseNumber(m[1])
		parsed.Episode = parseNumber(m[2])
		working = strings.Replace(working, m[0], "", 1)
	} else if m := extractorAltSeasonEp.FindStringSubmatch(name); m != nil {
		parsed.Season = parseNumber(m[1])
		parsed.Episode = parseNumber(m[2])
		working = strings.Replace(working, m[0], "", 1)
	} else {
		if m := extractorSeason.FindStringSubmatch(name); m != nil {
			parsed.Season = parseNumber(m[1])
		}
		if m := extractorEpisode.FindStringSubmatch(name); m != nil {
			parsed.Episode = parseNumber(m[1])
		}
	}

	if m := extractorQuality.FindStringSubmatch(name); m != nil {
		parsed.Quality = strings.ToUpper(m[1])
		working = strings.Replace(working, m[0], "", 1)
	}

	// Audio flags test the original name: they are independent and not
	// mutually exclusive ("Dual Áudio Legendado" sets all three).
	parsed.IsMultiAudio = extractorMultiAudio.MatchString(name)
	parsed.IsDubbed = extractorDubbed.MatchString(name)
	parsed.IsSubbed = extractorSubbed.MatchString(name)

	if m := extractorLanguage.FindStringSubmatch(name); m != nil {
		parsed.Language = strings.ToUpper(m[1])
	}

	parsed.Title = CleanTitle(working)

	return parsed
}

// CleanTitle strips bracket groups, quality/codec tokens, audio markers
// and pipes, then collapses whitespace and trims trailing punctuation.
func CleanTitle(title string) string {
	s := cleanBrackets.ReplaceAllString(title, "")
	s = extractorQuality.ReplaceAllString(s, "")
	s = cleanFormats.ReplaceAllString(s, "")
	s = cleanAudio.ReplaceAllString(s, "")
	s = cleanPipes.ReplaceAllString(s, " ")
	s = cleanMultiSpaces.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	s = cleanTrailingPunct.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// parseNumber converts a base-10 token to an int pointer. Unparseable
// tokens are treated as absent, never as zero.
func parseNumber(token string) *int {
	n, err := strconv.Atoi(token)
	if err != nil {
		return nil
	}
	return &n
}
