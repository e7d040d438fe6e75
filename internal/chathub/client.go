package chathub

import "chachat/backend/internal/models"

// Client is the interface for any type of connection. It abstracts the
// underlying communication mechanism so the hub can address connections uniformly.
type Client interface {
	// GetConnectionID returns the transport identity of this connection.
	GetConnectionID() models.ConnectionID
	// GetLanguage returns the language requested for user-facing messages.
	GetLanguage() string

	// Send queues an event for delivery. It never blocks; false means the
	// event was dropped because the client is closed or its buffer is full.
	Send(event models.Event) bool

	// Run starts the client's read and write pumps.
	Run()
	// Close shuts the outbound side down. It is safe to call more than once.
	Close()
}

// FrameHandler receives the raw frames read from a client and is told when the client goes away.
type FrameHandler interface {
	HandleFrame(c Client, data []byte)
	Disconnected(c Client)
}
