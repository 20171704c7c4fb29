package license

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"strings"
)

// keyAlphabet omits ambiguous characters (0/O, 1/I/L) so keys survive
// being read over the phone.
const keyAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const (
	keyPrefix    = "GG"
	keyGroups    = 3
	keyGroupSize = 5
)

// GenerateKey mints a license key in the form GG-XXXXX-XXXXX-XXXXX-CC,
// where CC is a checksum over the preceding characters.
func GenerateKey() (string, error) {
	buf := make([]byte, keyGroups*keyGroupSize)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate key material: %w", err)
	}

	groups := make([]string, 0, keyGroups+1)
	groups = append(groups, keyPrefix)
	for g := 0; g < keyGroups; g++ {
		var b strings.Builder
		for i := 0; i < keyGroupSize; i++ {
			b.WriteByte(keyAlphabet[int(buf[g*keyGroupSize+i])%len(keyAlphabet)])
		}
		groups = append(groups, b.String())
	}

	body := strings.Join(groups, "-")
	return fmt.Sprintf("%s-%s", body, keyChecksum(body)), nil
}

// keyChecksum computes the two-character typo guard appended to keys.
func keyChecksum(body string) string {
	h := sha256.Sum256([]byte(body))
	return fmt.Sprintf("%02X", h[0])
}

// ValidKeyFormat reports whether key is well formed and its checksum
// matches. Verification does not use this: an unknown but well-formed key
// and a malformed one both end up NOT_FOUND against the registry.
func ValidKeyFormat(key string) bool {
	parts := strings.Split(key, "-")
	if len(parts) != keyGroups+2 {
		return false
	}
	if parts[0] != keyPrefix {
		return false
	}

	for _, group := range parts[1 : keyGroups+1] {
		if len(group) != keyGroupSize {
			return false
		}
		for _, c := range group {
			if !strings.ContainsRune(keyAlphabet, c) {
				return false
			}
		}
	}

	body := strings.Join(parts[:keyGroups+1], "-")
	return strings.EqualFold(parts[keyGroups+1], keyChecksum(body))
}
