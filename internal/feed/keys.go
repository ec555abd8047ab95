package feed

import (
	"encoding/binary"
	"strings"
)

// Keyspace helpers for Pebble keys.
//
// Query keys may contain '/', so a NUL byte separates the key from the
// record kind; sanitizeKey strips NULs from caller input to keep the
// layout unambiguous.

var feedPrefix = []byte("feed/")

func sanitizeKey(key string) string {
	if strings.IndexByte(key, 0x00) < 0 {
		return key
	}
	return strings.ReplaceAll(key, "\x00", "")
}

func appendBE8(dst []byte, v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return append(dst, b[:]...)
}

// keyMeta builds the feed metadata key.
func keyMeta(key string) []byte {
	k := make([]byte, 0, len(feedPrefix)+len(key)+2)
	k = append(k, feedPrefix...)
	k = append(k, key...)
	k = append(k, 0x00, 'm')
	return k
}

// keyEntry builds an entry key with a big-endian version for ordering.
func keyEntry(key string, ver uint64) []byte {
	k := make([]byte, 0, len(feedPrefix)+len(key)+10)
	k = append(k, feedPrefix...)
	k = append(k, key...)
	k = append(k, 0x00, 'e')
	k = appendBE8(k, ver)
	return k
}

// entryBounds returns the [low, hi) iteration bounds for a feed's entries.
func entryBounds(key string) (low, hi []byte) {
	low = keyEntry(key, 0)
	hi = keyEntry(key, ^uint64(0))
	hi = append(hi, 0x00)
	return low, hi
}

// entryVersion extracts the version from an entry key.
func entryVersion(k []byte) uint64 {
	if len(k) < 8 {
		return 0
	}
	return binary.BigEndian.Uint64(k[len(k)-8:])
}
