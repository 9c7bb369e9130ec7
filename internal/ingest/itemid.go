package ingest

import "fmt"

// itemID derives the deterministic item identifier from the stream URL
// and the entry's position in the source. Including the position keeps
// IDs unique even when a provider repeats a URL across entries.
func itemID(url string, index int) string {
	return fmt.Sprintf("item_%d_%d", urlHash(url), index)
}

// urlHash is a 32-bit string hash of the form h = h*31 + c folded into
// the positive range. Chosen for stability, not collision resistance;
// the entry index disambiguates collisions.
func urlHash(url string) uint32 {
	var h int32
	for _, c := range url {
		h = (h << 5) - h + int32(c)
	}
	if h < 0 {
		// Two's-complement negation overflows for MinInt32; the uint32
		// conversion below keeps that case well defined.
		return uint32(-int64(h))
	}
	return uint32(h)
}
