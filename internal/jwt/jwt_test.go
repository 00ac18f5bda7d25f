package jwt_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/IgnacioAroza/reservation-api/internal/domain"
	customjwt "github.com/IgnacioAroza/reservation-api/internal/jwt"
)

const (
	testSecret = "jwt-test-secret-0123456789abcdefghij"
	secretOne  = "jwt-secret-one-0123456789abcdefghijk"
	secretTwo  = "jwt-secret-two-0123456789abcdefghijk"
)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func newGenerator(t *testing.T, secret string, c *clock) *customjwt.Generator {
	t.Helper()
	key, err := customjwt.NewSigningKey(secret)
	require.NoError(t, err)
	return customjwt.NewGenerator(key, 7*24*time.Hour, "reservation-api", c.Now)
}

func sampleClaim() domain.SessionClaim {
	return domain.SessionClaim{
		Subject:   "7c3b0c52-8f0e-4d8b-9a57-0e8f0a7f1d11",
		Email:     "ana@acme.test",
		Role:      domain.RoleAgent,
		CompanyID: "a1f7c9e2-1b57-4d6c-8c2e-3b9e4d5f6a7b",
	}
}

func TestGeneratorRoundTrip(t *testing.T) {
	c := &clock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	generator := newGenerator(t, testSecret, c)

	token, err := generator.Issue(sampleClaim())
	require.NoError(t, err)
	require.Len(t, strings.Split(token, "."), 3)

	c.now = c.now.Add(6 * 24 * time.Hour)
	claim, err := generator.Verify(token)
	require.NoError(t, err)
	require.Equal(t, sampleClaim().Subject, claim.Subject)
	require.Equal(t, "ana@acme.test", claim.Email)
	require.Equal(t, domain.RoleAgent, claim.Role)
	require.Equal(t, sampleClaim().CompanyID, claim.CompanyID)
	require.Equal(t, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), claim.IssuedAt)
	require.Equal(t, time.Date(2024, 3, 8, 12, 0, 0, 0, time.UTC), claim.ExpiresAt)
}

func TestGeneratorExpired(t *testing.T) {
	c := &clock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	generator := newGenerator(t, testSecret, c)

	token, err := generator.Issue(sampleClaim())
	require.NoError(t, err)

	c.now = c.now.Add(7*24*time.Hour + time.Second)
	_, err = generator.Verify(token)
	require.ErrorIs(t, err, customjwt.ErrTokenExpired)
}

func TestGeneratorRejectsTampering(t *testing.T) {
	c := &clock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	generator := newGenerator(t, testSecret, c)

	token, err := generator.Issue(sampleClaim())
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	_, err = generator.Verify(tampered)
	require.ErrorIs(t, err, customjwt.ErrTokenInvalid)

	_, err = generator.Verify("not-a-token")
	require.ErrorIs(t, err, customjwt.ErrTokenInvalid)

	_, err = generator.Verify("")
	require.ErrorIs(t, err, customjwt.ErrTokenInvalid)
}

func TestGeneratorRejectsForeignSecret(t *testing.T) {
	c := &clock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	issuer := newGenerator(t, secretOne, c)
	verifier := newGenerator(t, secretTwo, c)

	token, err := issuer.Issue(sampleClaim())
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, customjwt.ErrTokenInvalid)
}

func TestGeneratorDeterministic(t *testing.T) {
	c := &clock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	generator := newGenerator(t, testSecret, c)

	first, err := generator.Issue(sampleClaim())
	require.NoError(t, err)
	second, err := generator.Issue(sampleClaim())
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestNewSigningKeyRequiresSecret(t *testing.T) {
	_, err := customjwt.NewSigningKey("")
	require.Error(t, err)

	_, err = customjwt.NewSigningKey("test-secret")
	require.EqualError(t, err, "jwt secret must be at least 32 bytes, got 11")

	_, err = customjwt.NewSigningKey(strings.Repeat("k", customjwt.MinSecretLength))
	require.NoError(t, err)

	a, err := customjwt.NewSigningKey(secretOne)
	require.NoError(t, err)
	b, err := customjwt.NewSigningKey(secretTwo)
	require.NoError(t, err)
	require.NotEqual(t, a.KID, b.KID)
}
