// Package authz decides whether an authenticated principal may act on a
// resource given the roles a route requires and the resource's company.
package authz

import (
	"slices"

	"github.com/IgnacioAroza/reservation-api/internal/domain"
)

// Authorize returns nil when principal may proceed. An empty required set
// admits any role; an empty resourceCompanyID skips the tenant check.
// Cross-tenant roles bypass the tenant check only.
func Authorize(principal *domain.Principal, required []domain.Role, resourceCompanyID string) error {
	if principal == nil {
		return domain.Unauthorized(domain.CodeInvalidToken, "Authentication required")
	}
	if len(required) > 0 && !slices.Contains(required, principal.Role) {
		return domain.Forbidden(domain.CodeInsufficientRole, "Insufficient role")
	}
	if resourceCompanyID != "" && !principal.Role.CrossTenant() && resourceCompanyID != principal.CompanyID {
		return domain.Forbidden(domain.CodeTenantMismatch, "Resource belongs to another company")
	}
	return nil
}

// Self reports whether the principal is acting on its own user record.
func Self(principal *domain.Principal, userID string) bool {
	return principal != nil && principal.UserID == userID
}
