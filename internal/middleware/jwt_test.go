package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sunu_bank/internal/models"
	"sunu_bank/internal/policy"
)

type fakeDenylist struct {
	revoked map[string]bool
}

func (f *fakeDenylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	return f.revoked[jti], nil
}

func testUser() *models.User {
	clientID := uuid.New()
	return &models.User{
		ID:          uuid.New(),
		Role:        models.RoleClient,
		Permissions: []string{models.PermCompteRead, models.PermTransactionRead},
		Client:      &models.Client{ID: clientID},
	}
}

func authRouter(denylist Denylist, capture *policy.Actor) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", RequireAuth(denylist), func(c *gin.Context) {
		*capture = CurrentActor(c)
		c.Status(http.StatusOK)
	})
	return r
}

func TestRequireAuthAcceptsIssuedToken(t *testing.T) {
	user := testUser()
	token, jti, expiresIn, err := GenerateToken(user)
	require.NoError(t, err)
	require.NotEmpty(t, jti)
	require.Greater(t, expiresIn, int64(0))

	var actor policy.Actor
	router := authRouter(&fakeDenylist{}, &actor)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, user.ID, actor.UserID)
	assert.Equal(t, models.RoleClient, actor.Role)
	assert.Equal(t, []string{models.PermCompteRead, models.PermTransactionRead}, actor.Permissions)
	if assert.NotNil(t, actor.ClientID) {
		assert.Equal(t, user.Client.ID, *actor.ClientID)
	}
}

func TestRequireAuthRejectsRevokedToken(t *testing.T) {
	token, jti, _, err := GenerateToken(testUser())
	require.NoError(t, err)

	var actor policy.Actor
	router := authRouter(&fakeDenylist{revoked: map[string]bool{jti: true}}, &actor)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuthRejectsMissingOrMalformedHeader(t *testing.T) {
	var actor policy.Actor
	router := authRouter(&fakeDenylist{}, &actor)

	for _, header := range []string{"", "Basic abc", "Bearer not-a-token"} {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "header %q", header)
	}
}

func TestRequireRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/admin", RequireRole(&fakeDenylist{}, models.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	clientToken, _, _, err := GenerateToken(testUser())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+clientToken)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	admin := testUser()
	admin.Role = models.RoleAdmin
	adminToken, _, _, err := GenerateToken(admin)
	require.NoError(t, err)

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
