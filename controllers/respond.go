package controller

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"teamroster/apperr"
	"teamroster/middleware"
	"teamroster/models"
	"teamroster/policy"
	"teamroster/store"
	"teamroster/utils"
)

// fail writes err and reports server-side failures.
func fail(c *fiber.Ctx, logger logrus.FieldLogger, err error) error {
	if status, _ := apperr.Status(err); status >= fiber.StatusInternalServerError {
		utils.LogError(logger, "request_failed", err, map[string]interface{}{
			"method":     c.Method(),
			"path":       c.Path(),
			"request_id": c.Locals("requestid"),
		})
	}
	return utils.ErrorResponse(c, err)
}

// storeError maps a store failure onto the taxonomy. Errors that are neither
// NotFound nor Duplicate take kind, so routes can choose 400 or 500.
func storeError(err error, kind error, notFound, duplicate, failed string) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return apperr.NotFound(notFound)
	case errors.Is(err, store.ErrDuplicate):
		return apperr.Wrap(apperr.ErrValidation, duplicate, err)
	default:
		return apperr.Wrap(kind, failed, err)
	}
}

// identity builds the acting principal from the verified claims. A team
// manager whose token predates their team gets TeamID from the store; the
// role always comes from the token.
func identity(c *fiber.Ctx, users store.UserStore) (policy.Identity, error) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		return policy.Identity{}, apperr.Unauthenticated("User authentication failed.")
	}

	id := policy.Identity{ID: claims.UserID, Role: claims.Role, TeamID: claims.TeamID}
	if id.Role == models.RoleTeamManager && id.TeamID == nil && users != nil {
		stored, err := users.FindUserByID(c.UserContext(), id.ID)
		switch {
		case err == nil:
			id.TeamID = stored.TeamID
		case errors.Is(err, store.ErrNotFound):
		default:
			return policy.Identity{}, apperr.OperationFailed("Failed to resolve user", err)
		}
	}
	return id, nil
}

// OptionalID distinguishes an absent JSON field from an explicit null.
type OptionalID struct {
	Set   bool
	Value *uint
}

func (o *OptionalID) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var v uint
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}
