package tracelog

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// ComputeLogHash computes a deterministic fingerprint of a tag-sorted
// LongestPath result, independent of wall-clock timing, so the shape of a
// critical path can be compared across two runs of the same program, where
// the set of tags on the path must match even though absolute timings
// never will.
func ComputeLogHash(path []int64) string {
	if len(path) == 0 {
		return ""
	}
	var b strings.Builder
	for i, tag := range path {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatInt(tag, 10))
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
