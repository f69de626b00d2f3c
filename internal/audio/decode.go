// Package audio turns transport-encoded chunk payloads into raw bytes.
package audio

import (
	"encoding/base64"
	"strings"
)

// DefaultMinChunkBytes is the threshold below which a decoded chunk is
// considered too small to carry analyzable speech.
const DefaultMinChunkBytes = 1000

// DecodePayload strips an optional data-URI header ("data:audio/webm;base64,")
// and decodes the remainder as standard base64. It is a pure function; the
// caller owns the returned bytes.
func DecodePayload(payload string) ([]byte, error) {
	raw := payload
	if i := strings.Index(raw, ","); i >= 0 {
		raw = raw[i+1:]
	}
	return base64.StdEncoding.DecodeString(raw)
}

// TooSmall reports whether a decoded chunk is below the minimum size and
// should be skipped without a provider call. min <= 0 falls back to
// DefaultMinChunkBytes.
func TooSmall(chunk []byte, min int) bool {
	if min <= 0 {
		min = DefaultMinChunkBytes
	}
	return len(chunk) < min
}
