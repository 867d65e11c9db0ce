package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateInvitationCode(t *testing.T) {
	code := GenerateInvitationCode(8)
	assert.Len(t, code, 8)

	for _, c := range code {
		valid := (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
		assert.True(t, valid, "unexpected character %q", c)
	}
}

func TestGenerateInvitationCodeIsRandom(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		seen[GenerateInvitationCode(8)] = true
	}
	assert.Greater(t, len(seen), 99)
}

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("tw-42", "user@example.com", "someone", time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "tw-42", claims.ExternalID)
	assert.Equal(t, "user@example.com", claims.Email)
	assert.Equal(t, "someone", claims.Handle)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	token, err := GenerateToken("tw-42", "", "", -time.Hour)
	require.NoError(t, err)

	_, err = ValidateToken(token)
	assert.Error(t, err)
}
