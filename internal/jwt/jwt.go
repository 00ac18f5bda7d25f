package jwt

import (
	"errors"
	"fmt"
	"time"

	gojose "github.com/go-jose/go-jose/v4"
	gojwt "github.com/go-jose/go-jose/v4/jwt"

	"github.com/IgnacioAroza/reservation-api/internal/domain"
)

var (
	// ErrTokenInvalid covers malformed tokens, bad signatures and unexpected algorithms.
	ErrTokenInvalid = errors.New("token invalid")
	// ErrTokenExpired is returned once the expiry instant has passed.
	ErrTokenExpired = errors.New("token expired")
)

// Generator is responsible for signing and validating JWTs.
type Generator struct {
	key    SigningKey
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// NewGenerator constructs a JWT generator. A nil clock uses time.Now.
func NewGenerator(key SigningKey, ttl time.Duration, issuer string, now func() time.Time) *Generator {
	if now == nil {
		now = time.Now
	}
	return &Generator{key: key, ttl: ttl, issuer: issuer, now: now}
}

// sessionClaims is the private part of the JWT payload.
type sessionClaims struct {
	Email     string `json:"email"`
	Role      string `json:"role"`
	CompanyID string `json:"companyId"`
}

// TTL returns the lifetime of issued tokens.
func (g *Generator) TTL() time.Duration {
	return g.ttl
}

// Issue signs a token for the claim. IssuedAt and ExpiresAt are set from the clock.
func (g *Generator) Issue(claim domain.SessionClaim) (string, error) {
	signer, err := gojose.NewSigner(
		gojose.SigningKey{Algorithm: g.key.Algorithm, Key: g.key.Secret},
		(&gojose.SignerOptions{}).WithType("JWT").WithHeader("kid", g.key.KID),
	)
	if err != nil {
		return "", fmt.Errorf("new signer: %w", err)
	}

	now := g.now().UTC()
	std := gojwt.Claims{
		Subject:  claim.Subject,
		Issuer:   g.issuer,
		IssuedAt: gojwt.NewNumericDate(now),
		Expiry:   gojwt.NewNumericDate(now.Add(g.ttl)),
	}
	custom := sessionClaims{
		Email:     claim.Email,
		Role:      claim.Role.String(),
		CompanyID: claim.CompanyID,
	}

	token, err := gojwt.Signed(signer).Claims(std).Claims(custom).Serialize()
	if err != nil {
		return "", fmt.Errorf("serialize jwt: %w", err)
	}
	return token, nil
}

// Verify checks the signature and expiry of token and returns its claim.
func (g *Generator) Verify(token string) (domain.SessionClaim, error) {
	parsed, err := gojwt.ParseSigned(token, []gojose.SignatureAlgorithm{g.key.Algorithm})
	if err != nil {
		return domain.SessionClaim{}, fmt.Errorf("%w: parse: %v", ErrTokenInvalid, err)
	}

	var std gojwt.Claims
	var custom sessionClaims
	if err := parsed.Claims(g.key.Secret, &std, &custom); err != nil {
		return domain.SessionClaim{}, fmt.Errorf("%w: verify: %v", ErrTokenInvalid, err)
	}

	err = std.ValidateWithLeeway(gojwt.Expected{Issuer: g.issuer, Time: g.now()}, 0)
	switch {
	case errors.Is(err, gojwt.ErrExpired):
		return domain.SessionClaim{}, ErrTokenExpired
	case err != nil:
		return domain.SessionClaim{}, fmt.Errorf("%w: claims: %v", ErrTokenInvalid, err)
	}
	if std.Expiry == nil || std.IssuedAt == nil || std.Subject == "" {
		return domain.SessionClaim{}, fmt.Errorf("%w: missing registered claims", ErrTokenInvalid)
	}

	role, ok := domain.ParseRole(custom.Role)
	if !ok {
		return domain.SessionClaim{}, fmt.Errorf("%w: unknown role %q", ErrTokenInvalid, custom.Role)
	}

	return domain.SessionClaim{
		Subject:   std.Subject,
		Email:     custom.Email,
		Role:      role,
		CompanyID: custom.CompanyID,
		IssuedAt:  std.IssuedAt.Time().UTC(),
		ExpiresAt: std.Expiry.Time().UTC(),
	}, nil
}
