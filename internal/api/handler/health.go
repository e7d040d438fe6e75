package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const serviceName = "chachat-backend"

// Health reports liveness and a few live counters.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"service":     serviceName,
		"waiting":     count(h.counters.Waiting),
		"activeRooms": count(h.counters.ActiveRooms),
		"connections": count(h.counters.Connections),
	})
}

func count(f func() int) int {
	if f == nil {
		return 0
	}
	return f()
}
