package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/cleantrack/cleantrack-api/internal/domain"
	apperrors "github.com/cleantrack/cleantrack-api/pkg/util/errorutil"
)

// RequireRoles admits only principals whose role is in allowed. It is the one
// place role checks happen; handlers behind it can assume the role.
func RequireRoles(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if _, exists := allowedSet[principal.Role]; !exists {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}

// RequireStudent admits students only.
func RequireStudent() fiber.Handler {
	return RequireRoles(domain.RoleStudent)
}

// RequireStaff admits caretakers and wardens.
func RequireStaff() fiber.Handler {
	return RequireRoles(domain.RoleCaretaker, domain.RoleWarden)
}

// RequireAnyRole ensures the caller is authenticated.
func RequireAnyRole() fiber.Handler {
	return RequireRoles(domain.RoleStudent, domain.RoleCaretaker, domain.RoleWarden)
}
