package serverutils

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"memory-beads-be/pkg/apperr"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJwtMiddleware(t *testing.T) {
	app := fiber.New()
	app.Get("/me", NewJwtMiddleware("secret"), func(ctx *fiber.Ctx) error {
		return ctx.SendString(UserId(ctx))
	})

	token, err := IssueToken("user-1", "secret", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	res, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, res.StatusCode)

	forged, err := IssueToken("user-1", "other", time.Hour)
	require.NoError(t, err)
	req = httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+forged)
	res, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 401, res.StatusCode)

	res, err = app.Test(httptest.NewRequest("GET", "/me", nil))
	require.NoError(t, err)
	assert.Equal(t, 401, res.StatusCode)
}

func TestErrorHandlerMiddleware(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"user input", apperr.UserInput("bad file"), 400},
		{"device", apperr.DeviceAccess("busy"), 423},
		{"stale", apperr.Stale("b1"), 409},
		{"wrapped", errors.Join(errors.New("ctx"), apperr.UserInput("x")), 400},
		{"fiber", fiber.ErrNotFound, 404},
		{"internal", errors.New("db down"), 500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Use(ErrorHandlerMiddleware())
			app.Get("/", func(*fiber.Ctx) error { return tt.err })

			res, err := app.Test(httptest.NewRequest("GET", "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, res.StatusCode)

			var body Response[any]
			require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
			assert.False(t, body.Success)
			assert.Equal(t, tt.status, body.Code)
			if tt.status == 500 {
				assert.Equal(t, "Internal server error", body.Message)
			}
		})
	}
}

type sampleRequest struct {
	Tab string `json:"tab" validate:"required,oneof=collection echo create"`
}

func TestValidateRequest(t *testing.T) {
	assert.NoError(t, ValidateRequest(sampleRequest{Tab: "echo"}))

	err := ValidateRequest(sampleRequest{Tab: "grid"})
	require.Error(t, err)
	assert.Equal(t, apperr.KindUserInput, apperr.KindOf(err))

	var ae *apperr.Error
	require.True(t, errors.As(err, &ae))
	assert.Contains(t, ae.Details["Tab"], "one of")
}
