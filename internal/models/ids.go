package models

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// uuidV4Regex matches the canonical textual form of a random (version 4) UUID.
var uuidV4Regex = regexp.MustCompile(`(?i)^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

func parseUUIDv4(kind, value string) (string, error) {
	if !uuidV4Regex.MatchString(value) {
		return "", fmt.Errorf("%w: %s %q", ErrInvalidID, kind, value)
	}
	return strings.ToLower(value), nil
}

func newUUIDv4(kind string) (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate %s: %w", kind, err)
	}
	return parseUUIDv4(kind, id.String())
}

// SessionID identifies one anonymous participant for the lifetime of a connection.
// The zero value is not a valid identifier.
type SessionID struct{ value string }

// ParseSessionID validates value and wraps it.
func ParseSessionID(value string) (SessionID, error) {
	v, err := parseUUIDv4("session id", value)
	if err != nil {
		return SessionID{}, err
	}
	return SessionID{value: v}, nil
}

// NewSessionID generates a fresh random SessionID.
func NewSessionID() (SessionID, error) {
	v, err := newUUIDv4("session id")
	if err != nil {
		return SessionID{}, err
	}
	return SessionID{value: v}, nil
}

func (id SessionID) String() string { return id.value }
func (id SessionID) IsZero() bool   { return id.value == "" }

func (id SessionID) MarshalText() ([]byte, error) { return []byte(id.value), nil }

func (id *SessionID) UnmarshalText(b []byte) error {
	parsed, err := ParseSessionID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// RoomID identifies an active chat room.
type RoomID struct{ value string }

func ParseRoomID(value string) (RoomID, error) {
	v, err := parseUUIDv4("room id", value)
	if err != nil {
		return RoomID{}, err
	}
	return RoomID{value: v}, nil
}

func NewRoomID() (RoomID, error) {
	v, err := newUUIDv4("room id")
	if err != nil {
		return RoomID{}, err
	}
	return RoomID{value: v}, nil
}

func (id RoomID) String() string { return id.value }
func (id RoomID) IsZero() bool   { return id.value == "" }

func (id RoomID) MarshalText() ([]byte, error) { return []byte(id.value), nil }

func (id *RoomID) UnmarshalText(b []byte) error {
	parsed, err := ParseRoomID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// MessageID identifies one retained chat message.
type MessageID struct{ value string }

func ParseMessageID(value string) (MessageID, error) {
	v, err := parseUUIDv4("message id", value)
	if err != nil {
		return MessageID{}, err
	}
	return MessageID{value: v}, nil
}

func NewMessageID() (MessageID, error) {
	v, err := newUUIDv4("message id")
	if err != nil {
		return MessageID{}, err
	}
	return MessageID{value: v}, nil
}

func (id MessageID) String() string { return id.value }
func (id MessageID) IsZero() bool   { return id.value == "" }

func (id MessageID) MarshalText() ([]byte, error) { return []byte(id.value), nil }

func (id *MessageID) UnmarshalText(b []byte) error {
	parsed, err := ParseMessageID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ReportID identifies a recorded report.
type ReportID struct{ value string }

func ParseReportID(value string) (ReportID, error) {
	v, err := parseUUIDv4("report id", value)
	if err != nil {
		return ReportID{}, err
	}
	return ReportID{value: v}, nil
}

func NewReportID() (ReportID, error) {
	v, err := newUUIDv4("report id")
	if err != nil {
		return ReportID{}, err
	}
	return ReportID{value: v}, nil
}

func (id ReportID) String() string { return id.value }

// ConnectionID identifies one transport connection. Unlike the other
// identifiers it is opaque: any non-empty string is accepted.
type ConnectionID struct{ value string }

func ParseConnectionID(value string) (ConnectionID, error) {
	if strings.TrimSpace(value) == "" {
		return ConnectionID{}, fmt.Errorf("%w: empty connection id", ErrInvalidID)
	}
	return ConnectionID{value: value}, nil
}

// NewConnectionID returns a random connection identifier.
func NewConnectionID() ConnectionID {
	return ConnectionID{value: uuid.NewString()}
}

func (id ConnectionID) String() string { return id.value }
func (id ConnectionID) IsZero() bool   { return id.value == "" }
