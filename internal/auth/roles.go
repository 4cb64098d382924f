package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/repeat-complaints/internal/domain"
	apperrors "github.com/spec-kit/repeat-complaints/pkg/util/errorutil"
)

// RequireRole ensures the principal holds one of the allowed roles.
// With no roles given any authenticated client passes.
func RequireRole(allowed ...domain.ClientRole) fiber.Handler {
	allowedSet := make(map[domain.ClientRole]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[principal.Role]; !exists {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}

// ValidRole reports whether r is a known client role.
func ValidRole(r domain.ClientRole) bool {
	switch r {
	case domain.RoleAnalyst, domain.RoleOperator:
		return true
	}
	return false
}
