// Package flash carries one-shot user notices across the POST/redirect/GET
// boundary using a short-lived cookie.
package flash

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
)

const cookieName = "g2g_flash"

// Set queues a notice for the next rendered page.
func Set(c *gin.Context, message string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cookieName, url.QueryEscape(message), 60, "/", "", false, true)
}

// Pop returns the pending notice, if any, and clears it.
func Pop(c *gin.Context) (string, bool) {
	raw, err := c.Cookie(cookieName)
	if err != nil || raw == "" {
		return "", false
	}

	c.SetCookie(cookieName, "", -1, "/", "", false, true)

	message, err := url.QueryUnescape(raw)
	if err != nil {
		return "", false
	}
	return message, true
}
