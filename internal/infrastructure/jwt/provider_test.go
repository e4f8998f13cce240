package jwtinfra

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider_EmptySecret(t *testing.T) {
	_, err := NewProvider("", time.Hour)
	assert.Error(t, err)
}

func TestSignVerify_RoundTrip(t *testing.T) {
	p, err := NewProvider("s3cret", time.Hour)
	require.NoError(t, err)

	tok, err := p.Sign("u1")
	require.NoError(t, err)

	c, err := p.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", c.UID)
	assert.Equal(t, "u1", c.Subject)
	assert.NotEmpty(t, c.ID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), c.ExpiresAt.Time, 5*time.Second)
}

func TestVerify_WrongSecret(t *testing.T) {
	a, _ := NewProvider("one", time.Hour)
	b, _ := NewProvider("two", time.Hour)
	tok, err := a.Sign("u1")
	require.NoError(t, err)
	_, err = b.Verify(tok)
	assert.Error(t, err)
}

func TestVerify_Expired(t *testing.T) {
	p, _ := NewProvider("s3cret", time.Hour)
	p.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	tok, err := p.Sign("u1")
	require.NoError(t, err)

	p.now = time.Now
	_, err = p.Verify(tok)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestVerify_RejectsNoneAlg(t *testing.T) {
	p, _ := NewProvider("s3cret", time.Hour)
	tok := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UID: "u1"})
	s, err := tok.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = p.Verify(s)
	assert.Error(t, err)
}

func TestVerify_Garbage(t *testing.T) {
	p, _ := NewProvider("s3cret", time.Hour)
	_, err := p.Verify("not-a-token")
	assert.Error(t, err)
}
