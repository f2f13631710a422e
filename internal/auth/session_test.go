package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/sitetrack-backend-go/internal/config"
)

func newSessions(t *testing.T, secret string) *Sessions {
	t.Helper()
	s, err := NewSessions(config.AuthConfig{JWTSecret: secret, AdminPassword: "admin888", SessionTTL: time.Hour})
	require.NoError(t, err)
	return s
}

func TestUnlockAndVerify(t *testing.T) {
	s := newSessions(t, "secret")

	sess, err := s.Unlock("admin888")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), sess.ExpiresAt, 5*time.Second)

	claims, err := s.Verify(sess.Token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Subject)
}

func TestUnlockRejectsWrongPassword(t *testing.T) {
	s := newSessions(t, "secret")

	_, err := s.Unlock("guess")
	assert.ErrorIs(t, err, ErrBadPassword)

	_, err = s.Unlock("")
	assert.ErrorIs(t, err, ErrBadPassword)

	noPassword, err := NewSessions(config.AuthConfig{JWTSecret: "secret"})
	require.NoError(t, err)
	_, err = noPassword.Unlock("")
	assert.ErrorIs(t, err, ErrBadPassword)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	s := newSessions(t, "secret")
	sess, err := s.Unlock("admin888")
	require.NoError(t, err)

	s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = s.Verify(sess.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	s := newSessions(t, "secret")
	sess, err := s.Unlock("admin888")
	require.NoError(t, err)

	other := newSessions(t, "another-secret")
	_, err = other.Verify(sess.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	tampered := sess.Token[:len(sess.Token)-2] + "xx"
	_, err = s.Verify(tampered)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = s.Verify("")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRandomSecretWhenUnset(t *testing.T) {
	a, err := NewSessions(config.AuthConfig{AdminPassword: "pw"})
	require.NoError(t, err)
	b, err := NewSessions(config.AuthConfig{AdminPassword: "pw"})
	require.NoError(t, err)

	sess, err := a.Unlock("pw")
	require.NoError(t, err)
	_, err = b.Verify(sess.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
