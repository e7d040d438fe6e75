package models

import "time"

// Session binds an anonymous participant to the transport connection currently serving it.
type Session struct {
	SessionID    SessionID
	ConnectionID ConnectionID
	CreatedAt    time.Time
}
