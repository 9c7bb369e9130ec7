package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllowWithinBurst(t *testing.T) {
	krl := New(1, 3)
	defer krl.Stop()

	assert.True(t, krl.Allow("client-a"))
	assert.True(t, krl.Allow("client-a"))
	assert.True(t, krl.Allow("client-a"))
	assert.False(t, krl.Allow("client-a"))
}

func TestKeysAreIndependent(t *testing.T) {
	krl := New(1, 1)
	defer krl.Stop()

	assert.True(t, krl.Allow("client-a"))
	assert.False(t, krl.Allow("client-a"))
	// A different key has its own bucket.
	assert.True(t, krl.Allow("client-b"))
}

func TestWaitRespectsContext(t *testing.T) {
	krl := New(0.01, 1)
	defer krl.Stop()

	require.True(t, krl.Allow("slow"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := krl.Wait(ctx, "slow")
	assert.Error(t, err)
}

func TestLenTracksKeys(t *testing.T) {
	krl := New(10, 1)
	defer krl.Stop()

	krl.Allow("a")
	krl.Allow("b")
	assert.Equal(t, 2, krl.Len())
}

func TestStopIsIdempotent(t *testing.T) {
	krl := New(10, 1)
	krl.Stop()
	krl.Stop()
}
