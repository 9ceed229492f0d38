package middleware

import (
	"github.com/gofiber/fiber/v2"
	"teamroster/apperr"
	"teamroster/models"
	"teamroster/utils"
)

// RequireRole lets the request through only when the authenticated role is
// one of roles. It must run after Authenticate.
func RequireRole(message string, roles ...models.Role) fiber.Handler {
	allowed := make(map[models.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		claims, ok := ClaimsFrom(c)
		if !ok {
			return utils.ErrorResponse(c, apperr.Unauthenticated("User authentication failed."))
		}
		if _, ok := allowed[claims.Role]; !ok {
			return utils.ErrorResponse(c, apperr.Forbidden(message))
		}
		return c.Next()
	}
}

// AdminOnly is the guard for admin-only routes.
func AdminOnly() fiber.Handler {
	return RequireRole("Admin access required.", models.RoleAdmin)
}

// TeamManagerOnly is the guard for routes acting on the caller's own team.
func TeamManagerOnly() fiber.Handler {
	return RequireRole("Only team managers can manage teams.", models.RoleTeamManager)
}
