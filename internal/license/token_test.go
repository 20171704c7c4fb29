package license

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIssuer(t *testing.T) {
	t.Run("rejects empty secret", func(t *testing.T) {
		iss, err := NewIssuer("")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMissingSigningSecret)
		assert.Nil(t, iss)
	})

	t.Run("accepts configured secret", func(t *testing.T) {
		iss, err := NewIssuer("test-signing-secret")
		require.NoError(t, err)
		require.NotNil(t, iss)
	})
}

func TestIssuerIssue(t *testing.T) {
	newFixedIssuer := func(t *testing.T, at time.Time) *Issuer {
		t.Helper()
		iss, err := NewIssuer("test-signing-secret")
		require.NoError(t, err)
		iss.now = func() time.Time { return at }
		return iss
	}

	t.Run("payload carries key, status, expiry and issue time in order", func(t *testing.T) {
		issued := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		expires := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		iss := newFixedIssuer(t, issued)

		tok := iss.Issue("GG-AAAAA-BBBBB-CCCCC-2F", "ACTIVE", &expires)

		assert.Equal(t, "GG-AAAAA-BBBBB-CCCCC-2F|ACTIVE|2026-01-01T00:00:00Z|2025-06-01T12:00:00Z", tok.Payload)
		assert.Equal(t, issued, tok.IssuedAt)
		assert.NotEmpty(t, tok.Signature)
	})

	t.Run("perpetual license leaves expiry field empty", func(t *testing.T) {
		issued := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		iss := newFixedIssuer(t, issued)

		tok := iss.Issue("GG-AAAAA-BBBBB-CCCCC-2F", "ACTIVE", nil)

		assert.Equal(t, "GG-AAAAA-BBBBB-CCCCC-2F|ACTIVE||2025-06-01T12:00:00Z", tok.Payload)
	})

	t.Run("signature verifies against payload", func(t *testing.T) {
		iss := newFixedIssuer(t, time.Now())

		tok := iss.Issue("GG-AAAAA-BBBBB-CCCCC-2F", "ACTIVE", nil)

		assert.True(t, iss.Verify(tok.Payload, tok.Signature))
	})

	t.Run("successive issues for the same license sign differently", func(t *testing.T) {
		iss, err := NewIssuer("test-signing-secret")
		require.NoError(t, err)

		base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		calls := 0
		iss.now = func() time.Time {
			calls++
			return base.Add(time.Duration(calls) * time.Millisecond)
		}

		first := iss.Issue("GG-AAAAA-BBBBB-CCCCC-2F", "ACTIVE", nil)
		second := iss.Issue("GG-AAAAA-BBBBB-CCCCC-2F", "ACTIVE", nil)

		assert.NotEqual(t, first.Signature, second.Signature)
		assert.True(t, iss.Verify(first.Payload, first.Signature))
		assert.True(t, iss.Verify(second.Payload, second.Signature))
	})
}

func TestIssuerVerify(t *testing.T) {
	iss, err := NewIssuer("test-signing-secret")
	require.NoError(t, err)
	tok := iss.Issue("GG-AAAAA-BBBBB-CCCCC-2F", "ACTIVE", nil)

	t.Run("rejects tampered payload", func(t *testing.T) {
		tampered := strings.Replace(tok.Payload, "ACTIVE", "REVOKED", 1)
		assert.False(t, iss.Verify(tampered, tok.Signature))
	})

	t.Run("rejects tampered signature", func(t *testing.T) {
		assert.False(t, iss.Verify(tok.Payload, tok.Signature[:len(tok.Signature)-2]+"00"))
	})

	t.Run("rejects empty signature", func(t *testing.T) {
		assert.False(t, iss.Verify(tok.Payload, ""))
	})

	t.Run("rejects signature from another secret", func(t *testing.T) {
		other, err := NewIssuer("different-secret")
		require.NoError(t, err)
		foreign := other.Issue("GG-AAAAA-BBBBB-CCCCC-2F", "ACTIVE", nil)
		assert.False(t, iss.Verify(foreign.Payload, foreign.Signature))
	})
}
