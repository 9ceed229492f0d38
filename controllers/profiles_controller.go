package controller

import (
	"github.com/gofiber/fiber/v2"
	"teamroster/apperr"
)

// ProfilesController edits user profiles. It shares the users update path
// but reports store failures as 400.
type ProfilesController struct {
	users *UsersController
}

func NewProfilesController(users *UsersController) *ProfilesController {
	return &ProfilesController{users: users}
}

func (pc *ProfilesController) UpdateProfile(c *fiber.Ctx) error {
	user, err := pc.users.update(c, c.Params("userId"), apperr.ErrValidation)
	if err != nil {
		return fail(c, pc.users.logger, err)
	}
	return c.JSON(user)
}
