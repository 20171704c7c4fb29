package license

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateKey(t *testing.T) {
	t.Run("produces well-formed keys", func(t *testing.T) {
		key, err := GenerateKey()
		require.NoError(t, err)

		parts := strings.Split(key, "-")
		require.Len(t, parts, 5)
		assert.Equal(t, "GG", parts[0])
		for _, group := range parts[1:4] {
			assert.Len(t, group, 5)
		}
		assert.Len(t, parts[4], 2)
		assert.True(t, ValidKeyFormat(key))
	})

	t.Run("avoids ambiguous characters", func(t *testing.T) {
		key, err := GenerateKey()
		require.NoError(t, err)
		assert.NotContainsf(t, key, "0", "key %s", key)
		assert.NotContainsf(t, key, "O", "key %s", key)
		assert.NotContainsf(t, key, "1", "key %s", key)
		assert.NotContainsf(t, key, "I", "key %s", key)
		assert.NotContainsf(t, key, "L", "key %s", key)
	})

	t.Run("keys do not repeat", func(t *testing.T) {
		seen := make(map[string]bool)
		for i := 0; i < 100; i++ {
			key, err := GenerateKey()
			require.NoError(t, err)
			assert.False(t, seen[key], "duplicate key %s", key)
			seen[key] = true
		}
	})
}

func TestValidKeyFormat(t *testing.T) {
	valid, err := GenerateKey()
	require.NoError(t, err)

	tests := []struct {
		name string
		key  string
		want bool
	}{
		{"generated key", valid, true},
		{"lowercase checksum accepted", strings.ToUpper(valid[:len(valid)-2]) + strings.ToLower(valid[len(valid)-2:]), true},
		{"empty", "", false},
		{"wrong prefix", "XX" + valid[2:], false},
		{"missing checksum", valid[:len(valid)-3], false},
		{"corrupted checksum", valid[:len(valid)-2] + "zz", false},
		{"short group", "GG-AAAA-BBBBB-CCCCC-2F", false},
		{"ambiguous character", "GG-AAAA0-BBBBB-CCCCC-2F", false},
		{"too many groups", "GG-AAAAA-BBBBB-CCCCC-DDDDD-2F", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidKeyFormat(tt.key))
		})
	}
}
