package models

import "time"

// CloseReason records why a room ended.
type CloseReason string

const (
	CloseReasonTimeout  CloseReason = "timeout"
	CloseReasonUserLeft CloseReason = "user_left"
	CloseReasonReported CloseReason = "reported"
)

// ActiveChatRoom is a live, time-boxed pairing of two sessions. Closed rooms are
// not kept in memory; a closure is only observable as a roomClosed event and an
// audit record.
type ActiveChatRoom struct {
	RoomID         RoomID
	User1SessionID SessionID
	User2SessionID SessionID
	CreatedAt      time.Time
	ExpiresAt      time.Time
}

// HasParticipant reports whether sessionID is one of the two room members.
func (r ActiveChatRoom) HasParticipant(sessionID SessionID) bool {
	return r.User1SessionID == sessionID || r.User2SessionID == sessionID
}

// PartnerOf returns the other participant. ok is false when sessionID is not in the room.
func (r ActiveChatRoom) PartnerOf(sessionID SessionID) (partner SessionID, ok bool) {
	switch sessionID {
	case r.User1SessionID:
		return r.User2SessionID, true
	case r.User2SessionID:
		return r.User1SessionID, true
	}
	return SessionID{}, false
}

// RemainingSeconds is the room lifetime left at now, rounded to whole seconds and clamped at zero.
func (r ActiveChatRoom) RemainingSeconds(now time.Time) int {
	remaining := r.ExpiresAt.Sub(now).Round(time.Second)
	if remaining < 0 {
		return 0
	}
	return int(remaining / time.Second)
}

const (
	RoomStatusActive = "active"
	RoomStatusClosed = "closed"
)

// ChatRoom is the audit record of a room in the chat_rooms table.
type ChatRoom struct {
	// RoomID is the unique identifier for the chat room (UUID).
	RoomID string `gorm:"primaryKey;type:uuid"`
	// User1SessionID is the session that waited longest when the pair was popped.
	User1SessionID string    `gorm:"type:text;not null"`
	User2SessionID string    `gorm:"type:text;not null"`
	CreatedAt      time.Time `gorm:"not null"`
	ExpiresAt      time.Time `gorm:"not null"`
	// Status is "active" until the room closes.
	Status      string     `gorm:"type:text;not null;default:active;index"`
	ClosedAt    *time.Time `gorm:"default:null"`
	CloseReason *string    `gorm:"type:text"`
}

func (ChatRoom) TableName() string { return "chat_rooms" }

// NewChatRoomRecord converts a live room into its audit record.
func NewChatRoomRecord(room ActiveChatRoom) *ChatRoom {
	return &ChatRoom{
		RoomID:         room.RoomID.String(),
		User1SessionID: room.User1SessionID.String(),
		User2SessionID: room.User2SessionID.String(),
		CreatedAt:      room.CreatedAt,
		ExpiresAt:      room.ExpiresAt,
		Status:         RoomStatusActive,
	}
}
