package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlaylistIDFromURL(t *testing.T) {
	a := PlaylistIDFromURL("http://provider.example/playlist.m3u")
	b := PlaylistIDFromURL("http://provider.example/playlist.m3u")
	c := PlaylistIDFromURL("http://provider.example/other.m3u")

	assert.Equal(t, a, b, "same url yields same id")
	assert.NotEqual(t, a, c)
	assert.True(t, strings.HasPrefix(a, "pl_"))
	assert.Len(t, a, len("pl_")+16)
}

func TestGroupKeyID(t *testing.T) {
	movies := GroupKey{Name: "FILMES | AÇÃO", MediaKind: MediaKindMovie}
	series := GroupKey{Name: "FILMES | AÇÃO", MediaKind: MediaKindSeries}

	assert.Equal(t, movies.ID(), movies.ID())
	assert.NotEqual(t, movies.ID(), series.ID(), "kind is part of the key")
	assert.True(t, strings.HasPrefix(movies.ID(), "group_"))
}

func TestItemGroupID(t *testing.T) {
	item := &Item{Group: "CANAIS | ABERTOS", MediaKind: MediaKindLive}
	assert.Equal(t, GroupKey{Name: "CANAIS | ABERTOS", MediaKind: MediaKindLive}.ID(), item.GroupID())

	ungrouped := &Item{MediaKind: MediaKindLive}
	assert.Empty(t, ungrouped.GroupID())
}

func TestPlaylistStatsCount(t *testing.T) {
	var s PlaylistStats

	s.Count(MediaKindLive)
	s.Count(MediaKindLive)
	s.Count(MediaKindMovie)
	s.Count(MediaKindSeries)
	s.Count(MediaKindUnknown)

	assert.Equal(t, 5, s.TotalItems)
	assert.Equal(t, 2, s.LiveCount)
	assert.Equal(t, 1, s.MovieCount)
	assert.Equal(t, 1, s.SeriesCount)
	assert.Equal(t, 1, s.UnknownCount)
}

func TestMediaKindValid(t *testing.T) {
	assert.True(t, MediaKindLive.Valid())
	assert.True(t, MediaKindUnknown.Valid())
	assert.False(t, MediaKind("music").Valid())
}
