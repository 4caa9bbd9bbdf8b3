package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/gowebpki/jcs"
)

// HeaderDigest returns a sha256 hex digest over the RFC 8785 canonical form
// of one header record line. Key order and insignificant whitespace do not
// affect the digest, so a header keeps its fingerprint across re-encodes.
// Forked sessions record the source header's digest for provenance.
func HeaderDigest(headerLine []byte) (string, error) {
	canonical, err := jcs.Transform(headerLine)
	if err != nil {
		return "", fmt.Errorf("canonicalize header: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
