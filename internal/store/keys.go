package store

import "sync"

// Key prefixes. Items, groups and series are scoped per playlist so an
// ingestion run only ever touches its own namespace.
const (
	playlistPrefix = "playlist:"
	itemPrefix     = "item:"
	groupPrefix    = "group:"
	seriesPrefix   = "series:"
)

// keyPool provides reusable byte slices for building database keys.
// This reduces allocations on the hot path of batch persistence.
var keyPool = sync.Pool{
	New: func() any {
		// 256 bytes covers prefix + playlist ID + entity ID.
		return make([]byte, 0, 256)
	},
}

// buildKey constructs a database key from prefix and suffix using a
// pooled buffer. Callers MUST call releaseKey when done with the key.
func buildKey(prefix, suffix string) []byte {
	buf, _ := keyPool.Get().([]byte)
	buf = buf[:0]
	buf = append(buf, prefix...)
	buf = append(buf, suffix...)
	return buf
}

// buildScopedKey constructs a playlist-scoped key: prefix + playlistID
// + ":" + id. Callers MUST call releaseKey when done with the key.
func buildScopedKey(prefix, playlistID, id string) []byte {
	buf, _ := keyPool.Get().([]byte)
	buf = buf[:0]
	buf = append(buf, prefix...)
	buf = append(buf, playlistID...)
	buf = append(buf, ':')
	buf = append(buf, id...)
	return buf
}

// releaseKey returns a key buffer to the pool for reuse.
// After calling this, the key slice must not be used.
func releaseKey(key []byte) {
	// Avoid keeping oversized buffers in the pool.
	if cap(key) <= 512 {
		keyPool.Put(key[:0])
	}
}
