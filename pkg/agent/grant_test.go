package agent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/realghost120/ghostgaurd-becakd/internal/license"
)

// The grant check must mirror the server's issuer byte for byte: a token
// issued there has to verify here under the same secret.
func TestGrantVerifyMirrorsIssuer(t *testing.T) {
	issuer, err := license.NewIssuer("shared-secret")
	require.NoError(t, err)

	expiry := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	token := issuer.Issue("GG-AAAAA-BBBBB-CCCCC-DD", "ACTIVE", &expiry)

	grant := &Grant{
		Payload:   token.Payload,
		Signature: token.Signature,
		IssuedAt:  token.IssuedAt,
	}

	assert.True(t, grant.Verify("shared-secret"))
	assert.False(t, grant.Verify("wrong-secret"))
}

func TestGrantVerifyRejectsTampering(t *testing.T) {
	issuer, err := license.NewIssuer("shared-secret")
	require.NoError(t, err)
	token := issuer.Issue("GG-AAAAA-BBBBB-CCCCC-DD", "ACTIVE", nil)

	tampered := &Grant{
		Payload:   token.Payload + "x",
		Signature: token.Signature,
	}
	assert.False(t, tampered.Verify("shared-secret"))
}

func TestGrantVerifyGuards(t *testing.T) {
	var nilGrant *Grant
	assert.False(t, nilGrant.Verify("secret"))

	assert.False(t, (&Grant{Payload: "p", Signature: "sig"}).Verify(""))
	assert.False(t, (&Grant{Payload: "p"}).Verify("secret"))
}
