package rentri

import (
	"crypto/sha256"
	"encoding/base64"
)

// ContentDigest computes the RFC 3230 style digest header value over the
// exact bytes that will be transmitted. Callers must pass the same byte slice
// to the integrity signature and the request body; serializing twice risks a
// divergent digest the Registry will reject.
func ContentDigest(body []byte) string {
	sum := sha256.Sum256(body)
	return "SHA-256=" + base64.StdEncoding.EncodeToString(sum[:])
}
