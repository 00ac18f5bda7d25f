package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/IgnacioAroza/reservation-api/internal/authz"
	"github.com/IgnacioAroza/reservation-api/internal/domain"
	"github.com/IgnacioAroza/reservation-api/internal/http/response"
)

const principalKey = "principal"

// Authenticator resolves a bearer token into a live principal.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.Principal, error)
}

// Auth validates Authorization header and attaches the principal.
type Auth struct {
	authenticator Authenticator
}

// NewAuth creates the bearer token middleware.
func NewAuth(authenticator Authenticator) *Auth {
	return &Auth{authenticator: authenticator}
}

// ValidateJWT ensures the request has a valid bearer token for an active user and company.
func (m *Auth) ValidateJWT(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if header == "" {
		response.Abort(c, domain.Unauthorized(domain.CodeInvalidToken, "Authorization header required."))
		return
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		response.Abort(c, domain.Unauthorized(domain.CodeInvalidToken, "Bearer token required."))
		return
	}

	principal, err := m.authenticator.Authenticate(c.Request.Context(), strings.TrimSpace(parts[1]))
	if err != nil {
		response.Abort(c, err)
		return
	}
	c.Set(principalKey, principal)
	c.Next()
}

// RequireRoles rejects principals whose role is not in roles. It must run after ValidateJWT.
func RequireRoles(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, _ := GetPrincipal(c)
		if err := authz.Authorize(principal, roles, ""); err != nil {
			response.Abort(c, err)
			return
		}
		c.Next()
	}
}

// GetPrincipal exposes the authenticated principal to handlers.
func GetPrincipal(c *gin.Context) (*domain.Principal, bool) {
	value, ok := c.Get(principalKey)
	if !ok {
		return nil, false
	}
	principal, ok := value.(*domain.Principal)
	return principal, ok && principal != nil
}
