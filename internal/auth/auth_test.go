package auth_test

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/driveturbo/transcriber/internal/auth"
)

func newVerifier(t *testing.T, username, password string) auth.BcryptVerifier {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return auth.BcryptVerifier{Username: username, PasswordHash: string(hash)}
}

func TestBcryptVerifier(t *testing.T) {
	v := newVerifier(t, "admin", "s3cret")

	assert.True(t, v.Verify("admin", "s3cret"))
	assert.False(t, v.Verify("admin", "wrong"))
	assert.False(t, v.Verify("other", "s3cret"))
}

func TestJWTRoundTrip(t *testing.T) {
	svc := auth.NewJWTService("test-secret", time.Hour)

	token, err := svc.GenerateToken("admin")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Username)
}

func TestJWTRejectsExpiredToken(t *testing.T) {
	svc := auth.NewJWTService("test-secret", -time.Hour)

	token, err := svc.GenerateToken("admin")
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTRejectsWrongSecret(t *testing.T) {
	token, err := auth.NewJWTService("secret-a", time.Hour).GenerateToken("admin")
	require.NoError(t, err)

	_, err = auth.NewJWTService("secret-b", time.Hour).ValidateToken(token)
	assert.Error(t, err)
}

func TestMiddleware(t *testing.T) {
	svc := auth.NewJWTService("test-secret", time.Hour)

	app := fiber.New()
	app.Use(auth.Middleware(svc))
	app.Get("/protected", func(c *fiber.Ctx) error {
		claims := auth.ClaimsFromCtx(c)
		require.NotNil(t, claims)
		return c.JSON(fiber.Map{"username": claims.Username})
	})

	t.Run("missing header", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/protected", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, 401, resp.StatusCode)
	})

	t.Run("malformed header", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/protected", nil)
		req.Header.Set("Authorization", "Basic abc")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, 401, resp.StatusCode)
	})

	t.Run("invalid token", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/protected", nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, 401, resp.StatusCode)
	})

	t.Run("valid token", func(t *testing.T) {
		token, err := svc.GenerateToken("admin")
		require.NoError(t, err)

		req := httptest.NewRequest("GET", "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
	})
}
