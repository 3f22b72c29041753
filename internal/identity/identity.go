// Package identity generates the participant identifier presented to the tracker.
package identity

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const (
	// Prefix marks identities minted by this client.
	Prefix = "VM-"

	suffixLen = 8
	alphabet  = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// Identity is the process-lifetime participant id. It is generated once at
// startup and never reassigned.
type Identity string

// String returns the raw token.
func (id Identity) String() string {
	return string(id)
}

// Generate returns a fresh identity of the form VM-xxxxxxxx (base36).
func Generate() (Identity, error) {
	var b strings.Builder
	b.Grow(len(Prefix) + suffixLen)
	b.WriteString(Prefix)
	max := big.NewInt(int64(len(alphabet)))
	for i := 0; i < suffixLen; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate identity: %w", err)
		}
		b.WriteByte(alphabet[n.Int64()])
	}
	return Identity(b.String()), nil
}

// Valid reports whether s has the shape produced by Generate.
func Valid(s string) bool {
	if !strings.HasPrefix(s, Prefix) {
		return false
	}
	suffix := s[len(Prefix):]
	if len(suffix) != suffixLen {
		return false
	}
	for i := 0; i < len(suffix); i++ {
		if !strings.ContainsRune(alphabet, rune(suffix[i])) {
			return false
		}
	}
	return true
}
