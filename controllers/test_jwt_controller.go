package controller

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"teamroster/apperr"
	"teamroster/utils"
)

// TestJWTController exposes token diagnostics. The signed payload is nested
// under "user" and does not match the claims the rest of the API issues.
type TestJWTController struct {
	tokens *utils.TokenService
	logger logrus.FieldLogger
}

func NewTestJWTController(tokens *utils.TokenService, logger logrus.FieldLogger) *TestJWTController {
	return &TestJWTController{tokens: tokens, logger: logger}
}

func (tc *TestJWTController) SignToken(c *fiber.Ctx) error {
	token, err := tc.tokens.IssueRaw(jwt.MapClaims{
		"user": map[string]interface{}{
			"id":       1,
			"username": "test",
		},
	})
	if err != nil {
		return fail(c, tc.logger, err)
	}
	return c.JSON(TokenResponse{Token: token})
}

func (tc *TestJWTController) VerifyToken(c *fiber.Ctx) error {
	parts := strings.Fields(c.Get(fiber.HeaderAuthorization))
	if len(parts) != 2 {
		return utils.ErrorResponse(c, apperr.Wrap(apperr.ErrInvalidToken, "Invalid token.", nil))
	}

	decoded, err := tc.tokens.DecodeRaw(parts[1])
	if err != nil {
		return utils.ErrorResponse(c, apperr.Wrap(apperr.ErrInvalidToken, "Invalid token.", err))
	}
	return c.JSON(fiber.Map{"decoded": decoded})
}
