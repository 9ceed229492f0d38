package controller

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"teamroster/apperr"
	"teamroster/models"
	"teamroster/policy"
	"teamroster/store"
	"teamroster/utils"
)

// TeamRequest is the body of team create and rename.
type TeamRequest struct {
	TeamName string `json:"teamName"`
}

// TeamResponse wraps a freshly created team.
type TeamResponse struct {
	Team CreatedTeam `json:"team"`
}

// CreatedTeam is a team as stored, with the manager left as an id. Read
// routes embed the manager's public fields instead.
type CreatedTeam struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Manager   uint      `json:"manager"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type TeamsController struct {
	store  store.Store
	engine *policy.Engine
	logger logrus.FieldLogger
}

func NewTeamsController(s store.Store, engine *policy.Engine, logger logrus.FieldLogger) *TeamsController {
	return &TeamsController{
		store:  s,
		engine: engine,
		logger: logger,
	}
}

// CreateTeam creates a team managed by the caller and links the caller to it.
func (tc *TeamsController) CreateTeam(c *fiber.Ctx) error {
	actor, err := identity(c, nil)
	if err != nil {
		return fail(c, tc.logger, err)
	}

	var req TeamRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, apperr.Validation("Invalid request body"))
	}
	name := strings.TrimSpace(req.TeamName)
	if name == "" {
		return utils.ErrorResponse(c, apperr.Validation("Team name is required."))
	}

	team := &models.Team{Name: name, ManagerID: actor.ID}
	if err := tc.engine.Authorize(actor, policy.TeamResource(team), policy.OpCreate); err != nil {
		return utils.ErrorResponse(c, err)
	}

	if err := tc.store.CreateTeam(c.UserContext(), team); err != nil {
		return fail(c, tc.logger, storeError(err, apperr.ErrOperationFailed,
			"Team not found.", "Team name already exists.", "Failed to create team"))
	}

	utils.LogEvent(tc.logger, "team_created", map[string]interface{}{
		"team_id":    team.ID,
		"manager_id": team.ManagerID,
	})
	return c.Status(fiber.StatusCreated).JSON(TeamResponse{Team: CreatedTeam{
		ID:        team.ID,
		Name:      team.Name,
		Manager:   team.ManagerID,
		CreatedAt: team.CreatedAt,
		UpdatedAt: team.UpdatedAt,
	}})
}

func (tc *TeamsController) ListTeams(c *fiber.Ctx) error {
	actor, err := identity(c, nil)
	if err != nil {
		return fail(c, tc.logger, err)
	}

	scope, err := tc.engine.ListScope(actor, policy.KindTeam)
	if err != nil {
		return utils.ErrorResponse(c, err)
	}

	teams, err := tc.store.ListTeams(c.UserContext(), scope)
	if err != nil {
		return fail(c, tc.logger, apperr.OperationFailed("Failed to fetch teams", err))
	}
	return c.JSON(teams)
}

func (tc *TeamsController) GetMyTeam(c *fiber.Ctx) error {
	team, _, err := tc.myTeam(c, policy.OpRead)
	if err != nil {
		return fail(c, tc.logger, err)
	}
	return c.JSON(team)
}

func (tc *TeamsController) UpdateMyTeam(c *fiber.Ctx) error {
	team, _, err := tc.myTeam(c, policy.OpWrite)
	if err != nil {
		return fail(c, tc.logger, err)
	}
	return tc.rename(c, team)
}

func (tc *TeamsController) DeleteMyTeam(c *fiber.Ctx) error {
	team, actor, err := tc.myTeam(c, policy.OpDelete)
	if err != nil {
		return fail(c, tc.logger, err)
	}
	return tc.delete(c, team, actor)
}

func (tc *TeamsController) GetTeam(c *fiber.Ctx) error {
	team, _, err := tc.byID(c, policy.OpRead)
	if err != nil {
		return fail(c, tc.logger, err)
	}
	return c.JSON(team)
}

func (tc *TeamsController) UpdateTeam(c *fiber.Ctx) error {
	team, _, err := tc.byID(c, policy.OpWrite)
	if err != nil {
		return fail(c, tc.logger, err)
	}
	return tc.rename(c, team)
}

func (tc *TeamsController) DeleteTeam(c *fiber.Ctx) error {
	team, actor, err := tc.byID(c, policy.OpDelete)
	if err != nil {
		return fail(c, tc.logger, err)
	}
	return tc.delete(c, team, actor)
}

func (tc *TeamsController) myTeam(c *fiber.Ctx, op policy.Operation) (*models.Team, policy.Identity, error) {
	actor, err := identity(c, nil)
	if err != nil {
		return nil, actor, err
	}

	team, err := tc.store.FindTeamByManager(c.UserContext(), actor.ID)
	if err != nil {
		return nil, actor, storeError(err, apperr.ErrOperationFailed,
			"No team found for this manager.", "No team found for this manager.", "Failed to fetch team")
	}
	if err := tc.engine.Authorize(actor, policy.TeamResource(team), op); err != nil {
		return nil, actor, err
	}
	return team, actor, nil
}

func (tc *TeamsController) byID(c *fiber.Ctx, op policy.Operation) (*models.Team, policy.Identity, error) {
	actor, err := identity(c, nil)
	if err != nil {
		return nil, actor, err
	}

	id, ok := utils.ParseID(c.Params("id"))
	if !ok {
		return nil, actor, apperr.NotFound("Team not found.")
	}
	team, err := tc.store.FindTeamByID(c.UserContext(), id)
	if err != nil {
		return nil, actor, storeError(err, apperr.ErrOperationFailed,
			"Team not found.", "Team not found.", "Failed to fetch team")
	}
	if err := tc.engine.Authorize(actor, policy.TeamResource(team), op); err != nil {
		return nil, actor, err
	}
	return team, actor, nil
}

// rename applies an optional teamName. An empty name leaves the team as is.
func (tc *TeamsController) rename(c *fiber.Ctx, team *models.Team) error {
	var req TeamRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, apperr.Validation("Invalid request body"))
	}

	name := strings.TrimSpace(req.TeamName)
	if name == "" || name == team.Name {
		return c.JSON(team)
	}

	updated, err := tc.store.RenameTeam(c.UserContext(), team.ID, name)
	if err != nil {
		return fail(c, tc.logger, storeError(err, apperr.ErrOperationFailed,
			"Team not found.", "Team name already exists.", "Failed to update team"))
	}
	return c.JSON(updated)
}

func (tc *TeamsController) delete(c *fiber.Ctx, team *models.Team, actor policy.Identity) error {
	detached, err := tc.store.DeleteTeam(c.UserContext(), team)
	if err != nil {
		return fail(c, tc.logger, storeError(err, apperr.ErrOperationFailed,
			"Team not found.", "Team could not be deleted.", "Failed to delete team"))
	}

	utils.LogEvent(tc.logger, "team_deleted", map[string]interface{}{
		"team_id":  team.ID,
		"actor_id": actor.ID,
		"detached": len(detached),
	})
	return c.JSON(utils.MessageResponse("Team successfully deleted."))
}
