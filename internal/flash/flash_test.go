package flash

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

func TestSetThenPop(t *testing.T) {
	router := gin.New()
	router.GET("/set", func(c *gin.Context) {
		Set(c, "You have updated your user information.")
		c.Status(http.StatusOK)
	})
	router.GET("/show", func(c *gin.Context) {
		message, ok := Pop(c)
		require.True(t, ok)
		c.String(http.StatusOK, message)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/set", nil))

	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)

	req := httptest.NewRequest("GET", "/show", nil)
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "You have updated your user information.", w.Body.String())

	// Pop clears the cookie so the notice renders only once.
	cleared := false
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == cookieName && cookie.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared)
}

func TestPopWithoutNotice(t *testing.T) {
	router := gin.New()
	router.GET("/show", func(c *gin.Context) {
		message, ok := Pop(c)
		assert.False(t, ok)
		assert.Empty(t, message)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/show", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
