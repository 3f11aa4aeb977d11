package token_test

import (
	"errors"
	"testing"
	"time"

	"github.com/ErlanBelekov/notes-service/internal/token"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "token-test-secret-at-least-32-chars!"

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newService(c *clock) *token.Service {
	return token.NewService([]byte(testKey), 24*time.Hour, token.WithClock(c.now))
}

func TestSession_RoundTrip(t *testing.T) {
	c := &clock{t: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	svc := newService(c)

	raw, err := svc.IssueSession("user-1", 3)
	require.NoError(t, err)

	sess, err := svc.VerifySession(raw)
	require.NoError(t, err)
	assert.Equal(t, "user-1", sess.IdentityID)
	assert.Equal(t, int64(3), sess.Epoch)
	assert.True(t, c.t.Add(24*time.Hour).Equal(sess.ExpiresAt), "expires_at = %s", sess.ExpiresAt)
}

func TestSession_ExpiresAfterTTL(t *testing.T) {
	c := &clock{t: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	svc := newService(c)

	raw, err := svc.IssueSession("user-1", 0)
	require.NoError(t, err)

	c.t = c.t.Add(24*time.Hour + time.Second)
	_, err = svc.VerifySession(raw)
	assert.ErrorIs(t, err, token.ErrExpired)
}

func TestSession_WrongKeyRejected(t *testing.T) {
	c := &clock{t: time.Now()}
	other := token.NewService([]byte("another-secret-that-is-32-chars!!"), time.Hour, token.WithClock(c.now))

	raw, err := other.IssueSession("user-1", 0)
	require.NoError(t, err)

	_, err = newService(c).VerifySession(raw)
	assert.ErrorIs(t, err, token.ErrInvalid)
}

func TestSession_MalformedRejected(t *testing.T) {
	svc := newService(&clock{t: time.Now()})

	for _, raw := range []string{"", "not.a.jwt", "a.b"} {
		_, err := svc.VerifySession(raw)
		assert.ErrorIs(t, err, token.ErrInvalid, "raw=%q", raw)
	}
}

func TestSession_NoneAlgRejected(t *testing.T) {
	tok := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "user-1",
		"aud": "session",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	raw, err := tok.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = newService(&clock{t: time.Now()}).VerifySession(raw)
	assert.ErrorIs(t, err, token.ErrInvalid)
}

func TestTokenClassesAreNotInterchangeable(t *testing.T) {
	svc := newService(&clock{t: time.Now()})

	recovery, err := svc.IssueRecovery("a@example.com", "$2a$hash")
	require.NoError(t, err)
	_, err = svc.VerifySession(recovery)
	assert.ErrorIs(t, err, token.ErrInvalid)

	session, err := svc.IssueSession("user-1", 0)
	require.NoError(t, err)
	_, err = svc.VerifyRecovery(session)
	assert.ErrorIs(t, err, token.ErrInvalid)
}

func TestRecovery_ExpiresAfterTenMinutes(t *testing.T) {
	c := &clock{t: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	svc := newService(c)

	raw, err := svc.IssueRecovery("a@example.com", "$2a$hash")
	require.NoError(t, err)

	c.t = c.t.Add(9*time.Minute + 59*time.Second)
	rec, err := svc.VerifyRecovery(raw)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", rec.Email)
	assert.Equal(t, token.Fingerprint("$2a$hash"), rec.Fingerprint)

	c.t = c.t.Add(2 * time.Second)
	_, err = svc.VerifyRecovery(raw)
	assert.True(t, errors.Is(err, token.ErrExpired))
}

func TestFingerprint_ChangesWithHash(t *testing.T) {
	assert.Equal(t, token.Fingerprint("h1"), token.Fingerprint("h1"))
	assert.NotEqual(t, token.Fingerprint("h1"), token.Fingerprint("h2"))
}
