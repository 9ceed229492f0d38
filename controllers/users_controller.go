package controller

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"teamroster/apperr"
	"teamroster/models"
	"teamroster/policy"
	"teamroster/store"
	"teamroster/utils"
)

// CreateUserRequest is the admin create-user body.
type CreateUserRequest struct {
	Username string      `json:"username" validate:"required,max=64"`
	Email    string      `json:"email" validate:"required"`
	Password string      `json:"password" validate:"required"`
	Role     models.Role `json:"role" validate:"omitempty,oneof=user admin teamManager"`
	TeamID   *uint       `json:"team"`
}

// UpdateUserRequest carries the fields a PUT may change. Absent fields are
// left untouched; "team": null removes the user from their team. Role and
// Team are checked as policy.OpAssign.
type UpdateUserRequest struct {
	Username *string      `json:"username"`
	Email    *string      `json:"email"`
	Password *string      `json:"password"`
	Role     *models.Role `json:"role"`
	Team     OptionalID   `json:"team"`
}

type UsersController struct {
	store      store.Store
	engine     *policy.Engine
	bcryptCost int
	logger     logrus.FieldLogger
}

func NewUsersController(s store.Store, engine *policy.Engine, bcryptCost int, logger logrus.FieldLogger) *UsersController {
	return &UsersController{
		store:      s,
		engine:     engine,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

func (uc *UsersController) ListUsers(c *fiber.Ctx) error {
	actor, err := identity(c, uc.store)
	if err != nil {
		return fail(c, uc.logger, err)
	}

	scope, err := uc.engine.ListScope(actor, policy.KindUser)
	if err != nil {
		return utils.ErrorResponse(c, err)
	}

	users, err := uc.store.ListUsers(c.UserContext(), scope)
	if err != nil {
		return fail(c, uc.logger, apperr.OperationFailed("Failed to fetch users", err))
	}
	return c.JSON(users)
}

func (uc *UsersController) GetUser(c *fiber.Ctx) error {
	target, _, err := uc.resolve(c, c.Params("id"), policy.OpRead)
	if err != nil {
		return fail(c, uc.logger, err)
	}
	return c.JSON(target)
}

func (uc *UsersController) UpdateUser(c *fiber.Ctx) error {
	user, err := uc.update(c, c.Params("id"), apperr.ErrOperationFailed)
	if err != nil {
		return fail(c, uc.logger, err)
	}
	return c.JSON(user)
}

func (uc *UsersController) DeleteUser(c *fiber.Ctx) error {
	target, actor, err := uc.resolve(c, c.Params("id"), policy.OpDelete)
	if err != nil {
		return fail(c, uc.logger, err)
	}

	if err := uc.store.DeleteUser(c.UserContext(), target.ID); err != nil {
		return fail(c, uc.logger, storeError(err, apperr.ErrOperationFailed,
			"User not found", "User could not be deleted", "Failed to delete user"))
	}

	utils.LogEvent(uc.logger, "user_deleted", map[string]interface{}{
		"user_id":  target.ID,
		"actor_id": actor.ID,
	})
	return c.JSON(utils.MessageResponse("User deleted successfully"))
}

// CreateUser is the administrative create path.
func (uc *UsersController) CreateUser(c *fiber.Ctx) error {
	actor, err := identity(c, uc.store)
	if err != nil {
		return fail(c, uc.logger, err)
	}

	var req CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, apperr.Validation("Invalid request body"))
	}

	if err := uc.engine.Authorize(actor, policy.Resource{Kind: policy.KindUser, TeamID: req.TeamID}, policy.OpCreate); err != nil {
		return utils.ErrorResponse(c, err)
	}

	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, err)
	}
	if err := utils.ValidateEmail(req.Email); err != nil {
		return utils.ErrorResponse(c, err)
	}

	role := req.Role
	if role == "" {
		role = models.RoleUser
	}
	hashed, err := utils.HashPassword(req.Password, uc.bcryptCost)
	if err != nil {
		return fail(c, uc.logger, apperr.OperationFailed("Failed to hash password", err))
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hashed,
		Role:         role,
		TeamID:       req.TeamID,
	}
	if err := uc.store.CreateUser(c.UserContext(), user); err != nil {
		return fail(c, uc.logger, storeError(err, apperr.ErrOperationFailed,
			"User not found", "Username or email already exists", "Failed to create user"))
	}

	return c.Status(fiber.StatusCreated).JSON(user)
}

// resolve loads the user named by rawID and checks op against the policy.
// Unparseable ids are reported as NotFound.
func (uc *UsersController) resolve(c *fiber.Ctx, rawID string, op policy.Operation) (*models.User, policy.Identity, error) {
	actor, err := identity(c, uc.store)
	if err != nil {
		return nil, actor, err
	}

	id, ok := utils.ParseID(rawID)
	if !ok {
		return nil, actor, apperr.NotFound("User not found")
	}
	target, err := uc.store.FindUserByID(c.UserContext(), id)
	if err != nil {
		return nil, actor, storeError(err, apperr.ErrOperationFailed,
			"User not found", "User not found", "Failed to fetch user")
	}

	if err := uc.engine.Authorize(actor, policy.UserResource(target), op); err != nil {
		return nil, actor, err
	}
	return target, actor, nil
}

// update applies a PUT body to the user named by rawID. Store failures other
// than NotFound and Duplicate are reported with failureKind.
func (uc *UsersController) update(c *fiber.Ctx, rawID string, failureKind error) (*models.User, error) {
	target, actor, err := uc.resolve(c, rawID, policy.OpWrite)
	if err != nil {
		return nil, err
	}

	var req UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, apperr.Validation("Invalid request body")
	}

	if req.Role != nil || req.Team.Set {
		if err := uc.engine.Authorize(actor, policy.UserResource(target), policy.OpAssign); err != nil {
			return nil, apperr.Wrap(apperr.ErrForbidden, "Only admins can change roles or teams.", err)
		}
	}

	fields, err := uc.updateFields(req)
	if err != nil {
		return nil, err
	}

	updated, err := uc.store.UpdateUser(c.UserContext(), target.ID, fields)
	if err != nil {
		return nil, storeError(err, failureKind,
			"User not found", "Username or email already exists", "Failed to update user")
	}
	return updated, nil
}

func (uc *UsersController) updateFields(req UpdateUserRequest) (map[string]interface{}, error) {
	fields := map[string]interface{}{}

	if req.Username != nil {
		username := strings.TrimSpace(*req.Username)
		if username == "" {
			return nil, apperr.Validation("username is required")
		}
		fields["username"] = username
	}
	if req.Email != nil {
		if err := utils.ValidateEmail(*req.Email); err != nil {
			return nil, err
		}
		fields["email"] = *req.Email
	}
	if req.Password != nil {
		if *req.Password == "" {
			return nil, apperr.Validation("password is required")
		}
		hashed, err := utils.HashPassword(*req.Password, uc.bcryptCost)
		if err != nil {
			return nil, apperr.OperationFailed("Failed to hash password", err)
		}
		fields["password_hash"] = hashed
	}
	if req.Role != nil {
		if !req.Role.Valid() {
			return nil, apperr.Validation("role must be one of user admin teamManager")
		}
		fields["role"] = *req.Role
	}
	if req.Team.Set {
		fields["team_id"] = req.Team.Value
	}
	return fields, nil
}
