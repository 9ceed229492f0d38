package controller

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"teamroster/apperr"
	"teamroster/models"
	"teamroster/store"
	"teamroster/utils"
)

// SignUpRequest is the body of both sign-up routes. An empty Role takes the
// route's default.
type SignUpRequest struct {
	Username string      `json:"username" validate:"required,max=64"`
	Email    string      `json:"email" validate:"required"`
	Password string      `json:"password" validate:"required"`
	Role     models.Role `json:"role" validate:"omitempty,oneof=user admin teamManager"`
	TeamID   *uint       `json:"team"`
}

// SignInRequest is the sign-in body.
type SignInRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// SignUpResponse returns the new user with a token for it.
type SignUpResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// TokenResponse carries a freshly issued token.
type TokenResponse struct {
	Token string `json:"token"`
}

type AuthController struct {
	users      store.UserStore
	tokens     *utils.TokenService
	bcryptCost int
	logger     logrus.FieldLogger
}

func NewAuthController(users store.UserStore, tokens *utils.TokenService, bcryptCost int, logger logrus.FieldLogger) *AuthController {
	return &AuthController{
		users:      users,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

// SignUp registers an account. Each sign-up path passes its own default role
// for requests that do not name one.
func (ac *AuthController) SignUp(defaultRole models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req SignUpRequest
		if err := c.BodyParser(&req); err != nil {
			return utils.ErrorResponse(c, apperr.Validation("Invalid request body"))
		}
		if err := utils.ValidateStruct(req); err != nil {
			return utils.ErrorResponse(c, err)
		}
		if err := utils.ValidateEmail(req.Email); err != nil {
			return utils.ErrorResponse(c, err)
		}

		role := req.Role
		if role == "" {
			role = defaultRole
		}

		hashed, err := utils.HashPassword(req.Password, ac.bcryptCost)
		if err != nil {
			return fail(c, ac.logger, apperr.OperationFailed("Failed to hash password", err))
		}

		user := &models.User{
			Username:     req.Username,
			Email:        req.Email,
			PasswordHash: hashed,
			Role:         role,
			TeamID:       req.TeamID,
		}
		if err := ac.users.CreateUser(c.UserContext(), user); err != nil {
			return fail(c, ac.logger, storeError(err, apperr.ErrOperationFailed,
				"User not found", "Username or email already exists", "Failed to create user"))
		}

		token, err := ac.tokens.Issue(utils.ClaimsFor(user))
		if err != nil {
			return fail(c, ac.logger, err)
		}

		utils.LogEvent(ac.logger, "user_signed_up", map[string]interface{}{
			"user_id": user.ID,
			"role":    user.Role,
		})

		return c.Status(fiber.StatusCreated).JSON(SignUpResponse{User: user, Token: token})
	}
}

// SignIn exchanges a username and password for a token.
func (ac *AuthController) SignIn(c *fiber.Ctx) error {
	var req SignInRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, apperr.Validation("Invalid request body"))
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, err)
	}

	invalid := apperr.Unauthenticated("Invalid username or password.")

	user, err := ac.users.FindUserByUsername(c.UserContext(), req.Username)
	if errors.Is(err, store.ErrNotFound) {
		return utils.ErrorResponse(c, invalid)
	}
	if err != nil {
		return fail(c, ac.logger, apperr.OperationFailed("Failed to sign in", err))
	}

	if err := utils.CheckPassword(user.PasswordHash, req.Password); err != nil {
		return utils.ErrorResponse(c, invalid)
	}

	token, err := ac.tokens.Issue(utils.ClaimsFor(user))
	if err != nil {
		return fail(c, ac.logger, err)
	}
	return c.JSON(TokenResponse{Token: token})
}
