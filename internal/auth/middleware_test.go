package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func sessionRouter(secret string) *gin.Engine {
	router := gin.New()
	router.Use(SessionMiddleware(secret))
	router.GET("/account", func(c *gin.Context) {
		id, _ := GetUserID(c)
		email, _ := GetUserEmail(c)
		c.JSON(http.StatusOK, gin.H{"id": id, "email": email})
	})

	ops := router.Group("/ops")
	ops.Use(RequireRole(RoleOperator))
	ops.GET("/stock-report", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func TestSessionMiddlewareNoCookie(t *testing.T) {
	router := sessionRouter("secret")

	req := httptest.NewRequest("GET", "/account", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func TestSessionMiddlewareBadToken(t *testing.T) {
	router := sessionRouter("secret")

	req := httptest.NewRequest("GET", "/account", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "garbage"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func TestSessionMiddlewareValidCookie(t *testing.T) {
	router := sessionRouter("secret")

	token, err := GenerateSessionToken(7, "alice@example.com", RoleMember, "secret")
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/account", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":7`)
	assert.Contains(t, w.Body.String(), "alice@example.com")
}

func TestRequireRoleForbidsMembers(t *testing.T) {
	router := sessionRouter("secret")

	token, err := GenerateSessionToken(7, "alice@example.com", RoleMember, "secret")
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/ops/stock-report", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireRoleAllowsOperators(t *testing.T) {
	router := sessionRouter("secret")

	token, err := GenerateSessionToken(8, "ops@example.com", RoleOperator, "secret")
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/ops/stock-report", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
