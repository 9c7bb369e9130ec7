package m3u

import (
	"context"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamvault/streamvault-server/internal/domain"
)

func collect(t *testing.T, input string) ([]domain.RawEntry, error) {
	t.Helper()
	p := NewParser(nil)

	var entries []domain.RawEntry
	for res := range p.Parse(context.Background(), strings.NewReader(input)) {
		if res.Err != nil {
			return entries, res.Err
		}
		entries = append(entries, res.Entry)
	}
	return entries, nil
}

func TestParseBasicPlaylist(t *testing.T) {
	input := `#EXTM3U
#EXTINF:-1 tvg-id="globo.br" tvg-logo="http://logo/globo.png" group-title="Canais | Abertos",Globo SP
http://provider.example/live/1.ts
#EXTINF:-1 group-title="Filmes | Ação",Mad Max (2015)
http://provider.example/movie/2.mp4
`

	entries, err := collect(t, input)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "Globo SP", entries[0].Name)
	assert.Equal(t, "http://provider.example/live/1.ts", entries[0].URL)
	assert.Equal(t, "Canais | Abertos", entries[0].Group)
	assert.Equal(t, "http://logo/globo.png", entries[0].Logo)
	assert.Equal(t, "globo.br", entries[0].EPGID)

	assert.Equal(t, "Mad Max (2015)", entries[1].Name)
	assert.Equal(t, "Filmes | Ação", entries[1].Group)
}

func TestParseMissingHeader(t *testing.T) {
	input := `#EXTINF:-1 group-title="Filmes",Mad Max
http://provider.example/movie/1.mp4
`

	_, err := collect(t, input)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "#EXTM3U")
}

func TestParseEmptyInputMissingHeader(t *testing.T) {
	_, err := collect(t, "")
	require.Error(t, err)
}

func TestParseDefaultGroup(t *testing.T) {
	input := `#EXTM3U
#EXTINF:-1,Canal Sem Categoria
http://provider.example/live/9.ts
`

	entries, err := collect(t, input)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Sem Grupo", entries[0].Group)
}

func TestParseSkipsDuplicateURLs(t *testing.T) {
	input := `#EXTM3U
#EXTINF:-1 group-title="Canais",Globo SP
http://provider.example/live/1.ts
#EXTINF:-1 group-title="Canais",Globo SP (espelho)
http://provider.example/live/1.ts
#EXTINF:-1 group-title="Canais",SBT
http://provider.example/live/2.ts
`

	entries, err := collect(t, input)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Globo SP", entries[0].Name)
	assert.Equal(t, "SBT", entries[1].Name)
}

func TestParseNormalizesWhitespace(t *testing.T) {
	input := "#EXTM3U\n#EXTINF:-1 group-title=\"Filmes   |   Ação\",  Mad   Max  \nhttp://provider.example/movie/1.mp4\n"

	entries, err := collect(t, input)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Mad Max", entries[0].Name)
	assert.Equal(t, "Filmes | Ação", entries[0].Group)
}

func TestParseIgnoresStrayLines(t *testing.T) {
	input := `#EXTM3U
#EXTVLCOPT:network-caching=1000
#EXTINF:-1 group-title="Canais",Globo SP

http://provider.example/live/1.ts
not-a-url-line
http://provider.example/live/orphan.ts
`

	entries, err := collect(t, input)
	require.NoError(t, err)
	// The orphan URL has no pending EXTINF and must be dropped.
	require.Len(t, entries, 1)
	assert.Equal(t, "Globo SP", entries[0].Name)
}

func TestParseOversizedLine(t *testing.T) {
	long := strings.Repeat("x", maxLineBytes+1)
	input := "#EXTM3U\n#EXTINF:-1," + long + "\nhttp://provider.example/live/1.ts\n"

	_, err := collect(t, input)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max length")
}

func TestParseContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var sb strings.Builder
	sb.WriteString("#EXTM3U\n")
	for i := 0; i < 1000; i++ {
		sb.WriteString("#EXTINF:-1 group-title=\"Canais\",Canal\n")
		sb.WriteString("http://provider.example/live/" + strconv.Itoa(i) + ".ts\n")
	}

	p := NewParser(nil)
	count := 0
	for range p.Parse(ctx, strings.NewReader(sb.String())) {
		count++
	}
	// Cancellation closes the stream early; the full playlist never drains.
	assert.Less(t, count, 1000)
}

func TestParseExtinf(t *testing.T) {
	e := parseExtinf(`#EXTINF:-1 tvg-id="id1" tvg-name="Name" tvg-logo="http://l.png" group-title="Grupo",O Título, com vírgula`)
	require.NotNil(t, e)
	assert.Equal(t, -1, e.duration)
	assert.Equal(t, "id1", e.attributes["tvg-id"])
	assert.Equal(t, "Grupo", e.attributes["group-title"])
	assert.Equal(t, "O Título, com vírgula", e.title)

	assert.Nil(t, parseExtinf("#EXTINF:-1 no comma here"))
}

func TestParseExtinfCommaInsideQuotedAttribute(t *testing.T) {
	e := parseExtinf(`#EXTINF:-1 tvg-logo="http://l.png" group-title="Movies, Classics",Die Hard`)
	require.NotNil(t, e)
	assert.Equal(t, "Movies, Classics", e.attributes["group-title"])
	assert.Equal(t, "Die Hard", e.title)
	assert.Equal(t, -1, e.duration)
}
