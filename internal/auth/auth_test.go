package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/repeat-complaints/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 30)
	tok, err := tm.GenerateToken("ops-dashboard", domain.RoleOperator)
	require.NoError(t, err)
	assert.Equal(t, "ops-dashboard", tok.SubjectID)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), tok.ExpiresAt, 5*time.Second)

	claims, err := tm.ParseToken(tok.Value)
	require.NoError(t, err)
	assert.Equal(t, "ops-dashboard", claims.RegisteredClaims.Subject)
	assert.Equal(t, domain.RoleOperator, claims.Role)
	assert.Equal(t, domain.SubjectTypeClient, claims.Subject)
}

func TestTokenRejectsWrongSecretAndExpiry(t *testing.T) {
	tm := NewTokenManager("secret", 1)
	tok, err := tm.GenerateToken("c1", domain.RoleAnalyst)
	require.NoError(t, err)

	_, err = NewTokenManager("other", 1).ParseToken(tok.Value)
	assert.Error(t, err)

	later := NewTokenManager("secret", 1)
	later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = later.ParseToken(tok.Value)
	assert.Error(t, err)
}

func TestSecretHashing(t *testing.T) {
	hash, err := HashSecret("s3cret", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NoError(t, CompareSecret(hash, "s3cret"))
	assert.Error(t, CompareSecret(hash, "wrong"))
}

func newProtectedApp(tm *TokenManager, roles ...domain.ClientRole) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			status := http.StatusInternalServerError
			switch err.Error() {
			case "insufficient role":
				status = http.StatusForbidden
			case "missing authorization header", "invalid authorization header", "invalid token":
				status = http.StatusUnauthorized
			}
			return c.SendStatus(status)
		},
	})
	mw := NewAuthMiddleware(tm)
	app.Get("/p", mw.Handle, RequireRole(roles...), func(c *fiber.Ctx) error {
		p, ok := PrincipalFromContext(c)
		if !ok {
			return c.SendStatus(http.StatusInternalServerError)
		}
		return c.SendString(p.ClientID)
	})
	return app
}

func TestMiddleware(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	analyst, err := tm.GenerateToken("a1", domain.RoleAnalyst)
	require.NoError(t, err)
	operator, err := tm.GenerateToken("o1", domain.RoleOperator)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		roles  []domain.ClientRole
		status int
	}{
		{"missing header", "", nil, http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", nil, http.StatusUnauthorized},
		{"garbage token", "Bearer abc", nil, http.StatusUnauthorized},
		{"any role", "Bearer " + analyst.Value, nil, http.StatusOK},
		{"role denied", "Bearer " + analyst.Value, []domain.ClientRole{domain.RoleOperator}, http.StatusForbidden},
		{"role allowed", "Bearer " + operator.Value, []domain.ClientRole{domain.RoleOperator}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newProtectedApp(tm, tt.roles...)
			req := httptest.NewRequest(http.MethodGet, "/p", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}
