package routes

import (
	"errors"

	"teamroster/apperr"
	controller "teamroster/controllers"
	"teamroster/middleware"
	"teamroster/models"
	"teamroster/policy"
	"teamroster/store"
	"teamroster/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Dependencies are the process-scoped services the handlers are built from.
type Dependencies struct {
	Store       store.Store
	Tokens      *utils.TokenService
	Engine      *policy.Engine
	Logger      logrus.FieldLogger
	BcryptCost  int
	CORSOrigins []string
	// AccessLog enables the per-request log line.
	AccessLog bool
}

// NewApp builds the Fiber application with the global middleware and every
// route registered.
func NewApp(deps Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "teamroster",
		ErrorHandler: errorHandler(deps.Logger),
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))
	if deps.AccessLog {
		app.Use(logger.New(logger.Config{
			Format: "[${time}] ${status} - ${latency} ${method} ${path} ${locals:requestid}\n",
		}))
	}

	cors := middleware.DefaultCORSConfig()
	if len(deps.CORSOrigins) > 0 {
		cors.AllowedOrigins = deps.CORSOrigins
		cors.AllowCredentials = true
	}
	app.Use(middleware.CORS(cors))

	SetupRoutes(app, deps)
	return app
}

func SetupRoutes(app *fiber.App, deps Dependencies) {
	if deps.Engine == nil {
		deps.Engine = policy.NewEngine()
	}

	authController := controller.NewAuthController(deps.Store, deps.Tokens, deps.BcryptCost, deps.Logger.WithField("component", "auth"))
	usersController := controller.NewUsersController(deps.Store, deps.Engine, deps.BcryptCost, deps.Logger.WithField("component", "users"))
	teamsController := controller.NewTeamsController(deps.Store, deps.Engine, deps.Logger.WithField("component", "teams"))
	profilesController := controller.NewProfilesController(usersController)
	testJWTController := controller.NewTestJWTController(deps.Tokens, deps.Logger.WithField("component", "test-jwt"))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "running",
			"version": "1.0.0",
		})
	})

	// Generic sign-up path
	auth := app.Group("/auth")
	auth.Post("/signup", authController.SignUp(models.RoleUser))
	auth.Post("/signin", authController.SignIn)

	// Diagnostics
	testJWT := app.Group("/test-jwt")
	testJWT.Get("/sign-token", testJWTController.SignToken)
	testJWT.Post("/verify-token", testJWTController.VerifyToken)

	// Users: public sign-up/sign-in, everything else behind the lenient verifier
	users := app.Group("/users")
	users.Post("/signup", authController.SignUp(models.RoleTeamManager))
	users.Post("/signin", authController.SignIn)

	protectedUsers := users.Group("", middleware.Lenient(deps.Tokens))
	protectedUsers.Get("/", usersController.ListUsers)
	protectedUsers.Post("/", usersController.CreateUser)
	protectedUsers.Get("/:id", usersController.GetUser)
	protectedUsers.Put("/:id", usersController.UpdateUser)
	protectedUsers.Delete("/:id", usersController.DeleteUser)

	// Teams: my-team routes must be registered before /:id
	teams := app.Group("/teams", middleware.Strict(deps.Tokens))
	teams.Post("/", middleware.TeamManagerOnly(), teamsController.CreateTeam)
	teams.Get("/", middleware.AdminOnly(), teamsController.ListTeams)
	teams.Get("/my-team", middleware.TeamManagerOnly(), teamsController.GetMyTeam)
	teams.Put("/my-team", middleware.TeamManagerOnly(), teamsController.UpdateMyTeam)
	teams.Delete("/my-team", middleware.TeamManagerOnly(), teamsController.DeleteMyTeam)
	teams.Get("/:id", middleware.AdminOnly(), teamsController.GetTeam)
	teams.Put("/:id", middleware.AdminOnly(), teamsController.UpdateTeam)
	teams.Delete("/:id", middleware.AdminOnly(), teamsController.DeleteTeam)

	profiles := app.Group("/profiles", middleware.Strict(deps.Tokens))
	profiles.Put("/:userId", profilesController.UpdateProfile)

	deps.Logger.Info("Routes initialized successfully")
}

// errorHandler renders errors that escape a handler, including unmatched
// routes, in the API's error shape.
func errorHandler(log logrus.FieldLogger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			switch fe.Code {
			case fiber.StatusNotFound:
				return utils.ErrorResponse(c, apperr.NotFound("Route not found"))
			case fiber.StatusMethodNotAllowed:
				return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message, "code": "METHOD_NOT_ALLOWED"})
			}
			if fe.Code < fiber.StatusInternalServerError {
				return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message, "code": "VALIDATION_ERROR"})
			}
		}

		log.WithError(err).WithField("path", c.Path()).Error("Unhandled error")
		return utils.ErrorResponse(c, apperr.OperationFailed("Internal server error", err))
	}
}
