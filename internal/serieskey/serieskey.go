// Package serieskey derives stable grouping keys for series names.
// Episodes of one series arrive with inconsistent formatting (emoji,
// numbering prefixes, quality tags, bracket groups); normalization folds
// that noise away so all of them converge on a single key. The key is
// the sole join point between episode items and their series aggregate.
package serieskey

import (
	"crypto/sha1"
	"encoding/hex"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	leadingPrefix  = regexp.MustCompile(`^(\[.*?\]|\(.*?\)|⭐|★|•|\+|-|=|#)\s*`)
	leadingNumber  = regexp.MustCompile(`^\d+\.\s+`)
	bracketGroups  = regexp.MustCompile(`[\[(][^\])]*[\])]`)
	noiseTokens    = regexp.MustCompile(`(?i)\b(4k|2160p|1080p|720p|480p|360p|hd|fhd|uhd|sd|web-?dl|bluray|bdrip|webrip|hdrip|dvdrip|x264|x265|hevc|h264|h265)\b`)
	nonWordRuns    = regexp.MustCompile(`[^\p{L}\p{N}]+`)
	multipleSpaces = regexp.MustCompile(`\s+`)
)

// Normalize folds a series name to a canonical form: leading prefixes
// and bracket groups removed, quality/release tokens stripped, accents
// decomposed and dropped, case folded, punctuation collapsed to single
// spaces. Tightening or loosening this is a precision/recall trade-off:
// too aggressive and distinct series collide, too weak and one series
// fragments into several aggregates.
func Normalize(name string) string {
	s := name
	// Prefixes may stack ("1. ⭐ Breaking Bad"); strip until stable.
	for {
		stripped := leadingPrefix.ReplaceAllString(s, "")
		stripped = leadingNumber.ReplaceAllString(stripped, "")
		if stripped == s {
			break
		}
		s = stripped
	}

	s = bracketGroups.ReplaceAllString(s, "")
	s = noiseTokens.ReplaceAllString(s, "")

	// Decompose accents and drop the combining marks so "Pasárgada"
	// and "Pasargada" normalize identically.
	s = norm.NFKD.String(s)
	s = strings.Map(func(r rune) rune {
		if unicode.Is(unicode.Mn, r) {
			return -1
		}
		return r
	}, s)

	s = strings.ToLower(s)
	s = nonWordRuns.ReplaceAllString(s, " ")
	s = multipleSpaces.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Key derives the deterministic series identifier for a normalized name
// within a group. The hash is for stable, collision-resistant grouping
// scoped to one playlist; it carries no cryptographic intent.
func Key(group, normalized string) string {
	sum := sha1.Sum([]byte(group + "_" + normalized))
	return "series_" + hex.EncodeToString(sum[:])
}
