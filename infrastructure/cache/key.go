package cache

import (
	"encoding/hex"
	"strings"

	"github.com/spaolacci/murmur3"
)

// Key hashes parts into a fixed-length cache key. Parts are joined with a separator that cannot
// appear in decimal ids, so ("1", "23") and ("12", "3") differ.
func Key(prefix string, parts ...string) string {
	h1, h2 := murmur3.Sum128([]byte(strings.Join(parts, "\x1f")))
	var buf [16]byte
	for i := range 8 {
		buf[i] = byte(h1 >> (56 - 8*i))
		buf[8+i] = byte(h2 >> (56 - 8*i))
	}
	return prefix + hex.EncodeToString(buf[:])
}
