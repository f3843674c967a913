package admin

import (
	handlershared "github.com/fupan-admin/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
)

func getAdminID(c *gin.Context) (uint, bool) {
	return handlershared.GetContextUint(c, "admin_id")
}

func getAdminUsername(c *gin.Context) string {
	if value, ok := c.Get("username"); ok {
		if username, ok := value.(string); ok {
			return username
		}
	}
	return ""
}

func getRequestID(c *gin.Context) string {
	if value, ok := c.Get("request_id"); ok {
		if id, ok := value.(string); ok {
			return id
		}
	}
	return ""
}
