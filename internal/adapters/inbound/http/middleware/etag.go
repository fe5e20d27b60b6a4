package middleware

import (
	"encoding/binary"
	"encoding/hex"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// ETagGenerator derives strong validators from response bodies.
type ETagGenerator struct{}

func NewETagGenerator() *ETagGenerator {
	return &ETagGenerator{}
}

// Generate returns the quoted hex form of the body's xxhash digest.
func (g *ETagGenerator) Generate(content []byte) string {
	var sum [8]byte
	binary.BigEndian.PutUint64(sum[:], xxhash.Sum64(content))

	return `"` + hex.EncodeToString(sum[:]) + `"`
}

// etagMatches applies the weak comparison of If-None-Match against etag.
func etagMatches(ifNoneMatch, etag string) bool {
	ifNoneMatch = strings.TrimSpace(ifNoneMatch)
	if ifNoneMatch == "*" {
		return true
	}

	opaque := strings.TrimPrefix(etag, "W/")

	for candidate := range strings.SplitSeq(ifNoneMatch, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == opaque {
			return true
		}
	}

	return false
}
