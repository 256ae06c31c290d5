package wssec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("UsernameToken Signature Encrypt")
	require.NoError(t, err)
	assert.True(t, p.Requires(ActionUsernameToken))
	assert.True(t, p.Requires(ActionSignature))
	assert.True(t, p.Requires(ActionEncrypt))
}

func TestParsePolicy_Partial(t *testing.T) {
	p, err := ParsePolicy("Signature")
	require.NoError(t, err)
	assert.False(t, p.Requires(ActionUsernameToken))
	assert.True(t, p.Requires(ActionSignature))
	assert.False(t, p.Requires(ActionEncrypt))
}

func TestParsePolicy_Unknown(t *testing.T) {
	_, err := ParsePolicy("UsernameToken Timestamp")
	assert.ErrorContains(t, err, "Timestamp")
}

func TestParsePolicy_Empty(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.True(t, p.IsEmpty())
}

func TestPolicy_Without(t *testing.T) {
	full, err := ParsePolicy("UsernameToken Signature Encrypt")
	require.NoError(t, err)

	response := full.Without(ActionUsernameToken)
	assert.False(t, response.Requires(ActionUsernameToken))
	assert.True(t, response.Requires(ActionSignature))
	assert.True(t, response.Requires(ActionEncrypt))

	// Original is untouched
	assert.True(t, full.Requires(ActionUsernameToken))
}

func TestPolicy_String(t *testing.T) {
	p := NewPolicy(ActionEncrypt, ActionUsernameToken, ActionSignature)
	assert.Equal(t, "UsernameToken Signature Encrypt", p.String())
}
