// Package m3u provides streaming M3U playlist parsing and retrieval.
// The parser emits entries on a channel as they are read so callers can
// process playlists far larger than memory.
package m3u

import (
	"bufio"
	"context"
	"fmt"
	"hash/fnv"
	"io"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/streamvault/streamvault-server/internal/domain"
)

const (
	// maxLineBytes protects against maliciously long playlist lines.
	maxLineBytes = 32 * 1024

	// defaultGroup is assigned to entries without a group-title attribute.
	defaultGroup = "Sem Grupo"
)

var (
	attrPattern     = regexp.MustCompile(`(\w+(?:-\w+)*)="([^"]*)"`)
	durationPattern = regexp.MustCompile(`^-?\d+`)
	multiSpace      = regexp.MustCompile(`\s{2,}`)
)

// Result is one parse outcome: either an entry or a terminal error.
// After a Result with a non-nil Err, the channel is closed.
type Result struct {
	Entry domain.RawEntry
	Err   error
}

// Parser streams raw entries out of M3U playlist text.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a parser.
func NewParser(logger *slog.Logger) *Parser {
	return &Parser{logger: logger}
}

// Parse reads M3U text from r and emits one Result per stream entry.
// Duplicate stream URLs are skipped. A missing #EXTM3U header or an
// oversized line terminates the stream with an error result. The
// channel is closed when the source is exhausted or ctx is canceled.
func (p *Parser) Parse(ctx context.Context, r io.Reader) <-chan Result {
	out := make(chan Result, 64)

	go func() {
		defer close(out)

		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 4096), maxLineBytes)

		var (
			current     *extinfData
			foundHeader bool
			seenURLs    = make(map[uint64]struct{})
			duplicates  int
		)

		for scanner.Scan() {
			select {
			case <-ctx.Done():
				return
			default:
			}

			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}

			if strings.HasPrefix(line, "#EXTM3U") {
				foundHeader = true
				continue
			}

			if strings.HasPrefix(line, "#EXTINF:") {
				current = parseExtinf(line)
				continue
			}

			// Skip other comment lines.
			if strings.HasPrefix(line, "#") {
				continue
			}

			// URL line completes the pending EXTINF.
			if current == nil || !strings.HasPrefix(line, "http") {
				continue
			}
			extinf := current
			current = nil

			if !foundHeader {
				out <- Result{Err: fmt.Errorf("invalid playlist format (missing #EXTM3U header)")}
				return
			}

			urlHash := hashURL(line)
			if _, dup := seenURLs[urlHash]; dup {
				duplicates++
				continue
			}
			seenURLs[urlHash] = struct{}{}

			group := normalizeText(extinf.attributes["group-title"])
			if group == "" {
				group = defaultGroup
			}

			entry := domain.RawEntry{
				Name:  normalizeText(extinf.title),
				URL:   line,
				Group: group,
				Logo:  extinf.attributes["tvg-logo"],
				EPGID: extinf.attributes["tvg-id"],
			}

			select {
			case out <- Result{Entry: entry}:
			case <-ctx.Done():
				return
			}
		}

		if err := scanner.Err(); err != nil {
			if err == bufio.ErrTooLong {
				out <- Result{Err: fmt.Errorf("playlist line exceeds max length of %d bytes", maxLineBytes)}
				return
			}
			out <- Result{Err: fmt.Errorf("read playlist: %w", err)}
			return
		}

		if !foundHeader {
			out <- Result{Err: fmt.Errorf("invalid playlist format (missing #EXTM3U header)")}
			return
		}

		if duplicates > 0 && p.logger != nil {
			p.logger.Info("skipped duplicate stream urls", "count", duplicates)
		}
	}()

	return out
}

// extinfData is a parsed #EXTINF line.
type extinfData struct {
	duration   int
	attributes map[string]string
	title      string
}

// parseExtinf parses a line of the form
// #EXTINF:duration tvg-id="..." tvg-logo="..." group-title="...",Title
func parseExtinf(line string) *extinfData {
	content := strings.TrimPrefix(line, "#EXTINF:")

	comma := titleComma(content)
	if comma < 0 {
		return nil
	}

	header := content[:comma]
	title := strings.TrimSpace(content[comma+1:])

	duration := -1
	if m := durationPattern.FindString(header); m != "" {
		if d, err := strconv.Atoi(m); err == nil {
			duration = d
		}
	}

	attributes := make(map[string]string)
	for _, m := range attrPattern.FindAllStringSubmatch(header, -1) {
		attributes[m[1]] = m[2]
	}

	return &extinfData{
		duration:   duration,
		attributes: attributes,
		title:      title,
	}
}

// titleComma returns the index of the comma separating the EXTINF
// header from the display name: the first comma outside quoted
// attribute values. Commas inside quotes (group-title="Movies, Classics")
// and in the display name itself stay intact.
func titleComma(content string) int {
	inQuotes := false
	for i, r := range content {
		switch r {
		case '"':
			inQuotes = !inQuotes
		case ',':
			if !inQuotes {
				return i
			}
		}
	}
	return -1
}

// normalizeText trims and collapses runs of whitespace to single spaces.
func normalizeText(s string) string {
	return multiSpace.ReplaceAllString(strings.TrimSpace(s), " ")
}

// hashURL produces the dedup hash for a stream URL.
func hashURL(url string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(url))
	return h.Sum64()
}
