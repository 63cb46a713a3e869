// Package roomcode generates and normalizes the short codes people type to join a room.
package roomcode

import (
	"crypto/rand"
	"math/big"
	"strings"
)

const (
	// Length is the number of characters in a generated code.
	Length = 6
	// Alphabet is the set of characters codes are drawn from.
	Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// Generate returns a random code. Collisions are caught by room creation, not here.
func Generate() string {
	max := big.NewInt(int64(len(Alphabet)))
	out := make([]byte, Length)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand does not fail on supported platforms
			n = big.NewInt(0)
		}
		out[i] = Alphabet[n.Int64()]
	}
	return string(out)
}

// Normalize makes codes case-insensitive.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
