package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"teamroster/apperr"
	"teamroster/utils"
)

const claimsKey = "claims"

// AuthOptions controls how much of the token payload the verifier demands.
type AuthOptions struct {
	// RequireRole rejects correctly signed tokens that carry no role claim.
	RequireRole bool
}

// Authenticate verifies the bearer token and stores its claims in the
// request context. It never reads from the database.
func Authenticate(tokens *utils.TokenService, opts AuthOptions) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return utils.ErrorResponse(c, apperr.Unauthenticated("Authorization token required"))
		}

		// Check if it's a Bearer token
		tokenParts := strings.Fields(authHeader)
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
			return utils.ErrorResponse(c, apperr.Wrap(apperr.ErrInvalidToken, "Invalid authorization format", nil))
		}

		var (
			claims *utils.Claims
			err    error
		)
		if opts.RequireRole {
			claims, err = tokens.Verify(tokenParts[1])
		} else {
			claims, err = tokens.Decode(tokenParts[1])
		}
		if err != nil {
			return utils.ErrorResponse(c, apperr.Wrap(apperr.ErrInvalidToken, "Invalid token.", err))
		}

		c.Locals(claimsKey, claims)
		return c.Next()
	}
}

// Strict requires a role claim. Used by the teams and profiles routes.
func Strict(tokens *utils.TokenService) fiber.Handler {
	return Authenticate(tokens, AuthOptions{RequireRole: true})
}

// Lenient accepts any correctly signed payload. Used by the users routes.
func Lenient(tokens *utils.TokenService) fiber.Handler {
	return Authenticate(tokens, AuthOptions{})
}

// ClaimsFrom returns the claims attached by Authenticate.
func ClaimsFrom(c *fiber.Ctx) (*utils.Claims, bool) {
	claims, ok := c.Locals(claimsKey).(*utils.Claims)
	return claims, ok && claims != nil
}
