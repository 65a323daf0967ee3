package app

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	errprocess "smart_cycle_market/pkg/err"
	"smart_cycle_market/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestApp(f *fixture) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: errprocess.ErrorHandler})
	h := NewMemberHandler(f.uc)
	isAuth := IsAuth(f.uc)

	app.Post("/auth/sign-up", h.SignUp)
	app.Post("/auth/sign-in", h.SignIn)
	app.Get("/auth/profile", isAuth, h.Profile)
	app.Get("/auth/profile/:id", h.PublicProfile)
	app.Get("/whoami", isAuth, func(c *fiber.Ctx) error {
		return c.SendString(middlewares.MemberID(c))
	})
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, body, bearer string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if bearer != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+bearer)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]interface{}{}
	_ = json.Unmarshal(raw, &out)
	return resp.StatusCode, out
}

func TestSignUpHandler_Validation(t *testing.T) {
	app := newTestApp(newFixture())

	tests := []struct {
		name string
		body string
		msg  string
	}{
		{name: "short name", body: `{"name":"An","email":"ann@example.com","password":"Secret#123"}`, msg: "name must be at least 3 characters long!"},
		{name: "bad email", body: `{"name":"Ann","email":"ann","password":"Secret#123"}`, msg: "Invalid email!"},
		{name: "weak password", body: `{"name":"Ann","email":"ann@example.com","password":"secret123"}`, msg: "Password is too simple!"},
		{name: "missing email", body: `{"name":"Ann","password":"Secret#123"}`, msg: "email is missing!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := doJSON(t, app, fiber.MethodPost, "/auth/sign-up", tt.body, "")
			assert.Equal(t, fiber.StatusUnprocessableEntity, code)
			assert.Equal(t, tt.msg, body["message"])
		})
	}

	code, body := doJSON(t, app, fiber.MethodPost, "/auth/sign-up", `{`, "")
	assert.Equal(t, fiber.StatusBadRequest, code)
	assert.Equal(t, "Invalid request body!", body["message"])
}

func TestSignUpHandler_Created(t *testing.T) {
	f := newFixture()
	f.members.On("CreateMember", mock.Anything, mock.Anything).Return(nil)
	f.oneTime.On("Save", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.mail.On("Enqueue", mock.Anything, mock.Anything).Return(nil)

	code, body := doJSON(t, newTestApp(f), fiber.MethodPost, "/auth/sign-up",
		`{"name":"Ann","email":"ann@example.com","password":"Secret#123"}`, "")
	assert.Equal(t, fiber.StatusCreated, code)
	assert.Equal(t, "Please check your inbox.", body["message"])
}

func TestSignInHandler(t *testing.T) {
	f := newFixture()
	f.members.On("FindByMember", mock.Anything, byEmail("ann@example.com")).Return(testMember(t), nil)
	f.sessions.On("Create", mock.Anything, mock.Anything).Return(nil)

	code, body := doJSON(t, newTestApp(f), fiber.MethodPost, "/auth/sign-in",
		`{"email":"ann@example.com","password":"Secret#123"}`, "")
	require.Equal(t, fiber.StatusOK, code)

	profile := body["profile"].(map[string]interface{})
	assert.Equal(t, testMemberID, profile["id"])
	tokens := body["tokens"].(map[string]interface{})
	assert.NotEmpty(t, tokens["access"])
	assert.NotEmpty(t, tokens["refresh"])
}

func TestIsAuth(t *testing.T) {
	f := newFixture()
	app := newTestApp(f)
	access, err := f.tokens.GenerateAccess(testMemberID)
	require.NoError(t, err)

	t.Run("no token", func(t *testing.T) {
		code, body := doJSON(t, app, fiber.MethodGet, "/whoami", "", "")
		assert.Equal(t, fiber.StatusUnauthorized, code)
		assert.Equal(t, "Unauthorized request!", body["message"])
	})

	t.Run("member and profile in locals", func(t *testing.T) {
		f.members.On("FindByMember", mock.Anything, byMemberID(testMemberID)).Return(testMember(t), nil)

		req := httptest.NewRequest(fiber.MethodGet, "/whoami", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+access)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		raw, _ := io.ReadAll(resp.Body)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, testMemberID, string(raw))

		code, body := doJSON(t, app, fiber.MethodGet, "/auth/profile", "", access)
		assert.Equal(t, fiber.StatusOK, code)
		profile := body["profile"].(map[string]interface{})
		assert.Equal(t, "ann@example.com", profile["email"])
		assert.Equal(t, false, profile["verified"])
	})
}

func TestPublicProfileHandler(t *testing.T) {
	f := newFixture()
	f.members.On("FindByMember", mock.Anything, byMemberID(testMemberID)).Return(testMember(t), nil)
	app := newTestApp(f)

	code, body := doJSON(t, app, fiber.MethodGet, "/auth/profile/"+testMemberID, "", "")
	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, map[string]interface{}{"id": testMemberID, "name": "Ann"}, body["profile"])

	code, body = doJSON(t, app, fiber.MethodGet, "/auth/profile/nope", "", "")
	assert.Equal(t, fiber.StatusNotFound, code)
	assert.Equal(t, "User not found!", body["message"])
}
