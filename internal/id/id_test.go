package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	got, err := Generate(PrefixJob)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(got, "job-"))
	// NanoID default length is 21.
	assert.Len(t, got, len("job-")+21)
}

func TestGenerateUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		got, err := Generate(PrefixJob)
		require.NoError(t, err)
		assert.False(t, seen[got], "duplicate id %s", got)
		seen[got] = true
	}
}

func TestNewJobID(t *testing.T) {
	got, err := NewJobID()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, "job-"))
}
