package aggregates

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

const certificateHashSeparator = ":"

var certificateHashPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

// certificateURLHasher binds a certificate URL to its public hash. The salt
// never leaves the server, so a hash cannot be forged from a URL alone.
type certificateURLHasher struct {
	salt string
}

func (h certificateURLHasher) Hash(certificateURL string) string {
	sum := sha256.Sum256([]byte(h.salt + certificateHashSeparator + certificateURL))
	return hex.EncodeToString(sum[:])
}

// NormalizeCertificateHash lowercases raw and reports whether it has the
// shape of a certificate hash.
func NormalizeCertificateHash(raw string) (string, bool) {
	h := strings.ToLower(strings.TrimSpace(raw))
	return h, certificateHashPattern.MatchString(h)
}
