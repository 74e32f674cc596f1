package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// respondError emits the uniform {error:{message,status}} body used by
// every failure path, logging server-side errors.
func respondError(c *gin.Context, status int, message string) {
	if status >= http.StatusInternalServerError {
		log.Printf("%s %s failed: %s", c.Request.Method, c.Request.URL.Path, message)
	}
	c.JSON(status, gin.H{
		"error": gin.H{
			"message": message,
			"status":  status,
		},
	})
}

// RegisterNotFound installs the catch-all 404 for unmatched routes.
func RegisterNotFound(r *gin.Engine) {
	r.NoRoute(func(c *gin.Context) {
		respondError(c, http.StatusNotFound, "Route not found")
	})
}
