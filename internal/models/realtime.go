package models

import (
	"encoding/json"
	"time"
)

// EventType names a frame exchanged over the WebSocket connection.
type EventType string

// Inbound (client -> server)
const (
	EventRequestMatch  EventType = "requestMatch"
	EventSendMessage   EventType = "sendMessage"
	EventLeaveRoom     EventType = "leaveRoom"
	EventReportContent EventType = "reportContent"
)

// Outbound (server -> client)
const (
	EventSessionCreated      EventType = "sessionCreated"
	EventWaiting             EventType = "waiting"
	EventMatchFound          EventType = "matchFound"
	EventNewMessage          EventType = "newMessage"
	EventMessageDeleted      EventType = "messageDeleted"
	EventRoomClosed          EventType = "roomClosed"
	EventPartnerDisconnected EventType = "partnerDisconnected"
	EventTimerUpdate         EventType = "timerUpdate"
	EventError               EventType = "error"
)

// Event is an outbound frame.
type Event struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload,omitempty"`
}

// InboundFrame is a frame read from a client before its payload is decoded.
type InboundFrame struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type SessionCreatedPayload struct {
	SessionID SessionID `json:"sessionId"`
	Token     string    `json:"token"`
	Resumed   bool      `json:"resumed,omitempty"`
}

type MatchFoundPayload struct {
	RoomID           RoomID    `json:"roomId"`
	PartnerSessionID SessionID `json:"partnerSessionId"`
}

type NewMessagePayload struct {
	MessageID       MessageID `json:"messageId"`
	SenderSessionID SessionID `json:"senderSessionId"`
	Text            string    `json:"text"`
	CreatedAt       time.Time `json:"createdAt"`
}

type MessageDeletedPayload struct {
	MessageID MessageID `json:"messageId"`
}

type RoomClosedPayload struct {
	RoomID RoomID      `json:"roomId"`
	Reason CloseReason `json:"reason"`
}

type PartnerDisconnectedPayload struct {
	RoomID RoomID `json:"roomId"`
}

type TimerUpdatePayload struct {
	RoomID           RoomID `json:"roomId"`
	RemainingSeconds int    `json:"remainingSeconds"`
}

type ErrorPayload struct {
	Code      Code   `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

func NewSessionCreatedEvent(sessionID SessionID, token string, resumed bool) Event {
	return Event{Type: EventSessionCreated, Payload: SessionCreatedPayload{SessionID: sessionID, Token: token, Resumed: resumed}}
}

func NewWaitingEvent() Event {
	return Event{Type: EventWaiting}
}

func NewMatchFoundEvent(roomID RoomID, partner SessionID) Event {
	return Event{Type: EventMatchFound, Payload: MatchFoundPayload{RoomID: roomID, PartnerSessionID: partner}}
}

func NewMessageEvent(m Message) Event {
	return Event{Type: EventNewMessage, Payload: NewMessagePayload{
		MessageID:       m.MessageID,
		SenderSessionID: m.SenderSessionID,
		Text:            m.Text.String(),
		CreatedAt:       m.CreatedAt,
	}}
}

func NewMessageDeletedEvent(id MessageID) Event {
	return Event{Type: EventMessageDeleted, Payload: MessageDeletedPayload{MessageID: id}}
}

func NewRoomClosedEvent(roomID RoomID, reason CloseReason) Event {
	return Event{Type: EventRoomClosed, Payload: RoomClosedPayload{RoomID: roomID, Reason: reason}}
}

func NewPartnerDisconnectedEvent(roomID RoomID) Event {
	return Event{Type: EventPartnerDisconnected, Payload: PartnerDisconnectedPayload{RoomID: roomID}}
}

func NewTimerUpdateEvent(roomID RoomID, remainingSeconds int) Event {
	return Event{Type: EventTimerUpdate, Payload: TimerUpdatePayload{RoomID: roomID, RemainingSeconds: remainingSeconds}}
}

func NewErrorEvent(code Code, message string, retryable bool) Event {
	return Event{Type: EventError, Payload: ErrorPayload{Code: code, Message: message, Retryable: retryable}}
}

// SendMessageRequest is the payload of a sendMessage frame.
type SendMessageRequest struct {
	RoomID string `json:"roomId" validate:"required"`
	Text   string `json:"text" validate:"required"`
}

// LeaveRoomRequest is the payload of a leaveRoom frame.
type LeaveRoomRequest struct {
	RoomID string `json:"roomId" validate:"required"`
}

// ReportContentRequest is the payload of a reportContent frame.
type ReportContentRequest struct {
	RoomID string `json:"roomId" validate:"required"`
	Reason string `json:"reason" validate:"required,oneof=spam harassment inappropriate_content other"`
}
