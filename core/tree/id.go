package tree

import (
	"crypto/rand"
	"math/big"
)

const (
	idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	idLength   = 8
	// idWideLength is the fallback width after repeated collisions.
	idWideLength    = 16
	idMaxShortTries = 5
)

// GenerateID produces a short identifier absent from existing. It retries a
// bounded number of times at the short width before widening, so identifier
// generation terminates even in a pathologically dense log.
func GenerateID(existing map[string]struct{}) string {
	for attempt := 0; attempt < idMaxShortTries; attempt++ {
		candidate := randomID(idLength)
		if _, taken := existing[candidate]; !taken {
			return candidate
		}
	}
	for {
		candidate := randomID(idWideLength)
		if _, taken := existing[candidate]; !taken {
			return candidate
		}
	}
}

// GenerateIDFor is GenerateID against an index's entry set.
func (x *Index) GenerateIDFor() string {
	existing := make(map[string]struct{}, len(x.byID))
	for id := range x.byID {
		existing[id] = struct{}{}
	}
	return GenerateID(existing)
}

func randomID(length int) string {
	max := big.NewInt(int64(len(idAlphabet)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails when the platform's entropy source is
			// broken; fall back to a fixed rune rather than panicking.
			out[i] = idAlphabet[0]
			continue
		}
		out[i] = idAlphabet[n.Int64()]
	}
	return string(out)
}
