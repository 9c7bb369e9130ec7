// Package main is a one-shot ingestion CLI. It runs a playlist through
// the full pipeline against an in-memory store and prints the results,
// useful for checking classification quality without a server.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/streamvault/streamvault-server/internal/domain"
	"github.com/streamvault/streamvault-server/internal/ingest"
	"github.com/streamvault/streamvault-server/internal/m3u"
	"github.com/streamvault/streamvault-server/internal/store"
	"github.com/streamvault/streamvault-server/internal/validation"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: ingest <playlist-file-or-url>")
		os.Exit(1)
	}
	source := os.Args[1]

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()

	body, err := openSource(ctx, source, logger)
	if err != nil {
		logger.Error("failed to open playlist", "error", err)
		os.Exit(1)
	}
	defer body.Close()

	st, err := store.NewInMemory(logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	parser := m3u.NewParser(logger)
	processor := ingest.NewProcessor(st, validation.New(), logger, ingest.Options{
		OnProgress: func(p ingest.Progress) {
			fmt.Printf("[%s] %d items\n", p.Phase, p.Current)
		},
		OnEarlyReady: func(r ingest.EarlyReady) error {
			fmt.Printf("early ready: %d items (%d live, %d movies, %d series)\n",
				r.ItemsLoaded, r.LiveCount, r.MovieCount, r.SeriesCount)
			return nil
		},
	})

	started := time.Now()
	result, err := processor.Run(ctx, domain.PlaylistIDFromURL(source), parser.Parse(ctx, body))
	if err != nil {
		logger.Error("ingestion failed", "error", err)
		os.Exit(1)
	}

	fmt.Printf("\n=== Ingestion Complete ===\n")
	fmt.Printf("Duration: %s\n", time.Since(started).Round(time.Millisecond))
	fmt.Printf("Total:    %d\n", result.Stats.TotalItems)
	fmt.Printf("Live:     %d\n", result.Stats.LiveCount)
	fmt.Printf("Movies:   %d\n", result.Stats.MovieCount)
	fmt.Printf("Series:   %d\n", result.Stats.SeriesCount)
	fmt.Printf("Unknown:  %d\n", result.Stats.UnknownCount)
	fmt.Printf("Groups:   %d\n", result.Stats.GroupCount)

	fmt.Printf("\nTop groups:\n")
	for i, g := range result.Groups {
		if i == 15 {
			fmt.Printf("  ... and %d more\n", len(result.Groups)-i)
			break
		}
		fmt.Printf("  %-40s %-8s %d items\n", g.Name, g.MediaKind, g.ItemCount)
	}

	if len(result.Series) > 0 {
		fmt.Printf("\nSeries aggregates: %d\n", len(result.Series))
	}
}

func openSource(ctx context.Context, source string, logger *slog.Logger) (io.ReadCloser, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		fetcher := m3u.NewFetcher(m3u.FetcherConfig{}, logger)
		return fetcher.Fetch(ctx, source)
	}
	return os.Open(source) //#nosec G304 -- path comes from the CLI argument
}
