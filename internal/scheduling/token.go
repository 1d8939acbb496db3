package scheduling

import (
	"crypto/rand"
	"strings"
)

const (
	tokenPrefix       = "APT-"
	tokenSuffixLength = 8
	tokenAlphabet     = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// NewBookingToken produces a public booking identifier of the form
// APT-XXXXXXXX with an 8-character uppercase alphanumeric suffix. Collisions
// are not prevented here; the appointments table has a unique index on the
// token and Book retries with a fresh token when an insert loses to one.
func NewBookingToken() string {
	buf := make([]byte, tokenSuffixLength)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms
		panic("scheduling: read random bytes: " + err.Error())
	}
	var sb strings.Builder
	sb.WriteString(tokenPrefix)
	for _, b := range buf {
		sb.WriteByte(tokenAlphabet[int(b)%len(tokenAlphabet)])
	}
	return sb.String()
}

// NormalizeToken trims surrounding whitespace and uppercases a caller-supplied
// token so lookups are forgiving about how the token was typed.
func NormalizeToken(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}
