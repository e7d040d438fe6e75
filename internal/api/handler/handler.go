package handler

import (
	"chachat/backend/internal/chathub"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/samber/lo"
)

// Gateway accepts new connections and handles their frames.
type Gateway interface {
	chathub.FrameHandler
	Connect(c chathub.Client, resumeToken string)
}

// Counters report live figures for the health endpoint.
type Counters struct {
	Waiting     func() int
	ActiveRooms func() int
	Connections func() int
}

// Handler містить посилання на Gateway
type Handler struct {
	gateway  Gateway
	counters Counters
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewHandler creates the HTTP handlers. An empty allowedOrigins accepts any origin.
func NewHandler(gw Gateway, counters Counters, allowedOrigins []string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		gateway:  gw,
		counters: counters,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if len(allowed) == 0 || origin == "" {
			return true
		}
		return lo.Contains(allowed, origin)
	}
}
