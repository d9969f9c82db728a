package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	ContextFlashSessionKey = "flash_session"
	FlashCookieName        = "flash_session"
)

// FlashSession makes sure every browser carries an id to key its flash state.
func FlashSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(FlashCookieName)
		if err == nil {
			_, err = uuid.Parse(id)
		}
		if err != nil {
			id = uuid.NewString()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(FlashCookieName, id, 0, "/", "", false, true)
		}
		c.Set(ContextFlashSessionKey, id)
		c.Next()
	}
}

func FlashSessionID(c *gin.Context) string {
	return c.GetString(ContextFlashSessionKey)
}
