package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"teamroster/models"
	"teamroster/utils"
)

const testSecret = "middleware-test-secret"

func newApp(tokens *utils.TokenService, guards ...fiber.Handler) *fiber.App {
	app := fiber.New()
	handlers := append(guards, func(c *fiber.Ctx) error {
		claims, ok := ClaimsFrom(c)
		if !ok {
			return c.SendStatus(fiber.StatusTeapot)
		}
		return c.JSON(claims)
	})
	app.Get("/protected", handlers...)
	return app
}

func doGet(t *testing.T, app *fiber.App, authHeader string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var decoded map[string]interface{}
	if len(body) > 0 {
		_ = json.Unmarshal(body, &decoded)
	}
	return resp.StatusCode, decoded
}

func TestAuthenticate_MissingHeader(t *testing.T) {
	tokens := utils.NewTokenService(testSecret)
	for name, mw := range map[string]fiber.Handler{"strict": Strict(tokens), "lenient": Lenient(tokens)} {
		t.Run(name, func(t *testing.T) {
			status, body := doGet(t, newApp(tokens, mw), "")
			assert.Equal(t, fiber.StatusUnauthorized, status)
			assert.Equal(t, "UNAUTHENTICATED", body["code"])
		})
	}
}

func TestAuthenticate_MalformedHeader(t *testing.T) {
	tokens := utils.NewTokenService(testSecret)
	app := newApp(tokens, Strict(tokens))

	for _, header := range []string{"Bearer", "Token abc", "Bearer a b", "abc"} {
		status, body := doGet(t, app, header)
		assert.Equal(t, fiber.StatusUnauthorized, status, header)
		assert.Equal(t, "INVALID_TOKEN", body["code"], header)
	}
}

func TestAuthenticate_InvalidSignature(t *testing.T) {
	tokens := utils.NewTokenService(testSecret)
	forged, err := utils.NewTokenService("other").Issue(utils.Claims{UserID: 1, Role: models.RoleAdmin})
	require.NoError(t, err)

	status, body := doGet(t, newApp(tokens, Lenient(tokens)), "Bearer "+forged)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "Invalid token.", body["error"])
}

func TestAuthenticate_ValidTokenAttachesClaims(t *testing.T) {
	tokens := utils.NewTokenService(testSecret)
	teamID := uint(4)
	token, err := tokens.Issue(utils.Claims{UserID: 9, Role: models.RoleTeamManager, TeamID: &teamID})
	require.NoError(t, err)

	status, body := doGet(t, newApp(tokens, Strict(tokens)), "Bearer "+token)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(9), body["id"])
	assert.Equal(t, "teamManager", body["role"])
	assert.Equal(t, float64(4), body["teamId"])
}

func TestAuthenticate_StrictnessOnRolelessToken(t *testing.T) {
	tokens := utils.NewTokenService(testSecret)
	token, err := tokens.IssueRaw(jwt.MapClaims{"id": 3})
	require.NoError(t, err)

	status, _ := doGet(t, newApp(tokens, Strict(tokens)), "Bearer "+token)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, body := doGet(t, newApp(tokens, Lenient(tokens)), "Bearer "+token)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(3), body["id"])
}

func TestAuthenticate_LenientAcceptsMistypedClaims(t *testing.T) {
	tokens := utils.NewTokenService(testSecret)
	token, err := tokens.IssueRaw(jwt.MapClaims{"id": "abc", "role": 5})
	require.NoError(t, err)

	status, body := doGet(t, newApp(tokens, Strict(tokens)), "Bearer "+token)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "INVALID_TOKEN", body["code"])

	status, body = doGet(t, newApp(tokens, Lenient(tokens)), "Bearer "+token)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(0), body["id"])
	assert.Equal(t, "", body["role"])
}

func TestRequireRole(t *testing.T) {
	tokens := utils.NewTokenService(testSecret)
	app := newApp(tokens, Strict(tokens), AdminOnly())

	admin, err := tokens.Issue(utils.Claims{UserID: 1, Role: models.RoleAdmin})
	require.NoError(t, err)
	manager, err := tokens.Issue(utils.Claims{UserID: 2, Role: models.RoleTeamManager})
	require.NoError(t, err)

	status, _ := doGet(t, app, "Bearer "+admin)
	assert.Equal(t, fiber.StatusOK, status)

	status, body := doGet(t, app, "Bearer "+manager)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "Admin access required.", body["error"])
	assert.Equal(t, "FORBIDDEN", body["code"])
}

func TestRequireRole_WithoutAuthenticate(t *testing.T) {
	tokens := utils.NewTokenService(testSecret)
	status, _ := doGet(t, newApp(tokens, TeamManagerOnly()), "")
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestCORS(t *testing.T) {
	app := fiber.New()
	app.Use(CORS(CORSConfig{
		AllowedOrigins:   []string{"https://roster.example.com"},
		AllowCredentials: true,
		AllowedMethods:   []string{"GET"},
		AllowedHeaders:   []string{"Authorization"},
		MaxAge:           600,
	}))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://roster.example.com")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "https://roster.example.com", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "600", resp.Header.Get("Access-Control-Max-Age"))
	assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestCORS_DefaultAllowsAnyOrigin(t *testing.T) {
	app := fiber.New()
	app.Use(CORS())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://anywhere.example.com")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
