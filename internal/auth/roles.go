package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/officeflow/attendance-bot/pkg/util/errorutil"
)

// RequireAdmin ensures the caller's stored profile carries the admin flag.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return errorutil.NewUnauthorized("authentication required")
		}
		if principal.Profile == nil || !principal.Profile.IsAdmin {
			return errorutil.NewPermissionDenied("administrator access required")
		}
		return c.Next()
	}
}
