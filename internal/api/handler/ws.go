package handler

import (
	"chachat/backend/internal/chathub"

	"github.com/gin-gonic/gin"
)

// ServeWebSocket оновлює HTTP-з'єднання до WebSocket.
// Query parameters: token (optional resume token), lang (error message language).
func (h *Handler) ServeWebSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error response.
		h.logger.Warn("websocket upgrade failed", "remote_addr", c.ClientIP(), "error", err)
		return
	}

	client := chathub.NewWebSocketClient(conn, h.gateway, c.Query("lang"), h.logger)
	h.gateway.Connect(client, c.Query("token"))

	// client.Run() сам запустить необхідні goroutines
	client.Run()
}
