// Package gateway translates transport frames into calls against the chat core
// and turns the results into outbound events.
package gateway

import (
	"chachat/backend/internal/chathub"
	"chachat/backend/internal/models"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type Sessions interface {
	GenerateSession(connID models.ConnectionID) (models.Session, error)
	GetSession(id models.SessionID) (models.Session, error)
	InvalidateSession(id models.SessionID) error
	BindSocketToSession(id models.SessionID, connID models.ConnectionID) error
}

type Tokens interface {
	Issue(id models.SessionID) (string, error)
	Verify(token string) (models.SessionID, error)
}

type Matcher interface {
	EnqueueUser(id models.SessionID) error
	DequeueUser(id models.SessionID) error
	TryMatch() (*chathub.MatchResult, error)
}

type Rooms interface {
	GetRoom(roomID models.RoomID) (models.ActiveChatRoom, error)
	GetRoomBySessionID(id models.SessionID) (models.ActiveChatRoom, error)
	CloseRoom(roomID models.RoomID, reason models.CloseReason) error
	HandleUserDisconnect(id models.SessionID, roomID models.RoomID) error
}

type Messages interface {
	SendMessage(sender models.SessionID, roomID models.RoomID, text models.MessageText) (chathub.SendResult, error)
}

// Transport is the connection registry and room groups.
type Transport interface {
	Register(c chathub.Client)
	Unregister(connID models.ConnectionID)
	Client(connID models.ConnectionID) (chathub.Client, bool)
	Join(roomID models.RoomID, connID models.ConnectionID)
	EmitTo(connID models.ConnectionID, event models.Event) bool
	BroadcastToRoom(roomID models.RoomID, event models.Event)
}

type Reports interface {
	HandleReport(ctx context.Context, reporter models.SessionID, roomID models.RoomID, reason models.ReportReason) (models.Report, error)
}

type Localizer interface {
	GetString(lang, key string) string
}

// Deps groups the collaborators of a Gateway.
type Deps struct {
	Sessions  Sessions
	Tokens    Tokens
	Matcher   Matcher
	Rooms     Rooms
	Messages  Messages
	Transport Transport
	Reports   Reports
	Localizer Localizer
	Logger    *slog.Logger
}

// Gateway is the adapter between client connections and the chat core.
// It implements chathub.FrameHandler.
type Gateway struct {
	sessions  Sessions
	tokens    Tokens
	matcher   Matcher
	rooms     Rooms
	messages  Messages
	transport Transport
	reports   Reports
	localizer Localizer
	validate  *validator.Validate
	logger    *slog.Logger

	mu       sync.Mutex
	bindings map[models.ConnectionID]models.SessionID
}

func New(d Deps) *Gateway {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		sessions:  d.Sessions,
		tokens:    d.Tokens,
		matcher:   d.Matcher,
		rooms:     d.Rooms,
		messages:  d.Messages,
		transport: d.Transport,
		reports:   d.Reports,
		localizer: d.Localizer,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		logger:    logger,
		bindings:  make(map[models.ConnectionID]models.SessionID),
	}
}

// Connect registers a new connection and gives it a session. A valid resume
// token for a live session rebinds that session instead of creating one.
func (g *Gateway) Connect(c chathub.Client, resumeToken string) {
	connID := c.GetConnectionID()
	g.transport.Register(c)

	if resumeToken != "" && g.resume(connID, resumeToken) {
		return
	}

	s, err := g.sessions.GenerateSession(connID)
	if err != nil {
		g.emitError(connID, err)
		c.Close()
		return
	}
	g.bind(connID, s.SessionID)

	token, err := g.tokens.Issue(s.SessionID)
	if err != nil {
		g.logger.Warn("failed to issue resume token", "session_id", s.SessionID.String(), "error", err)
	}
	g.logger.Info("session created", "session_id", s.SessionID.String(), "connection_id", connID.String())
	g.transport.EmitTo(connID, models.NewSessionCreatedEvent(s.SessionID, token, false))
}

func (g *Gateway) resume(connID models.ConnectionID, token string) bool {
	sessionID, err := g.tokens.Verify(token)
	if err != nil {
		g.logger.Debug("resume token rejected", "connection_id", connID.String(), "error", err)
		return false
	}
	if err := g.sessions.BindSocketToSession(sessionID, connID); err != nil {
		g.logger.Debug("resume target is gone", "session_id", sessionID.String(), "error", err)
		return false
	}
	g.bind(connID, sessionID)

	if room, err := g.rooms.GetRoomBySessionID(sessionID); err == nil {
		g.transport.Join(room.RoomID, connID)
	}

	fresh, err := g.tokens.Issue(sessionID)
	if err != nil {
		g.logger.Warn("failed to issue resume token", "session_id", sessionID.String(), "error", err)
	}
	g.logger.Info("session resumed", "session_id", sessionID.String(), "connection_id", connID.String())
	g.transport.EmitTo(connID, models.NewSessionCreatedEvent(sessionID, fresh, true))
	return true
}

// HandleFrame decodes one inbound frame and runs the matching operation.
// Failures are answered with an error event to the sender only.
func (g *Gateway) HandleFrame(c chathub.Client, data []byte) {
	connID := c.GetConnectionID()

	var frame models.InboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		g.emitError(connID, fmt.Errorf("%w: %w", models.ErrInvalidPayload, err))
		return
	}

	sessionID, ok := g.sessionOf(connID)
	if !ok {
		g.emitError(connID, models.ErrSessionNotFound)
		return
	}

	var err error
	switch frame.Type {
	case models.EventRequestMatch:
		err = g.requestMatch(connID, sessionID)
	case models.EventSendMessage:
		err = g.sendMessage(sessionID, frame.Payload)
	case models.EventLeaveRoom:
		err = g.leaveRoom(sessionID, frame.Payload)
	case models.EventReportContent:
		err = g.reportContent(sessionID, frame.Payload)
	default:
		err = fmt.Errorf("%w: %q", models.ErrUnknownEvent, frame.Type)
	}
	if err != nil {
		g.emitError(connID, err)
	}
}

// Disconnected tears down the session behind a closed connection. A connection
// whose session was already resumed elsewhere is only unregistered.
func (g *Gateway) Disconnected(c chathub.Client) {
	connID := c.GetConnectionID()
	g.transport.Unregister(connID)

	sessionID, ok := g.unbind(connID)
	if !ok {
		return
	}
	s, err := g.sessions.GetSession(sessionID)
	if err != nil {
		return
	}
	if s.ConnectionID != connID {
		g.logger.Debug("superseded connection closed", "session_id", sessionID.String(), "connection_id", connID.String())
		return
	}

	if err := g.matcher.DequeueUser(sessionID); err != nil && !errors.Is(err, models.ErrNotInQueue) {
		g.logger.Warn("failed to dequeue disconnected session", "session_id", sessionID.String(), "error", err)
	}
	if err := g.sessions.InvalidateSession(sessionID); err != nil {
		g.logger.Debug("session already invalidated", "session_id", sessionID.String(), "error", err)
	}

	room, err := g.rooms.GetRoomBySessionID(sessionID)
	if err != nil {
		g.logger.Info("session closed", "session_id", sessionID.String())
		return
	}
	if err := g.rooms.HandleUserDisconnect(sessionID, room.RoomID); err != nil && !errors.Is(err, models.ErrRoomNotFound) {
		g.logger.Error("failed to close room after disconnect", "room_id", room.RoomID.String(), "error", err)
	}
	g.logger.Info("session closed", "session_id", sessionID.String(), "room_id", room.RoomID.String())
}

func (g *Gateway) requestMatch(connID models.ConnectionID, sessionID models.SessionID) error {
	if _, err := g.rooms.GetRoomBySessionID(sessionID); err == nil {
		return models.ErrAlreadyInRoom
	}
	if err := g.matcher.EnqueueUser(sessionID); err != nil {
		return err
	}
	g.transport.EmitTo(connID, models.NewWaitingEvent())

	result, err := g.matcher.TryMatch()
	if err != nil {
		var rce *chathub.RoomCreationError
		if errors.As(err, &rce) {
			// Обидва користувачі знову в черзі, повідомляємо їх про повторну спробу.
			g.emitErrorToSession(rce.User1, err)
			g.emitErrorToSession(rce.User2, err)
			return nil
		}
		return err
	}
	if result != nil {
		g.announceMatch(result)
	}
	return nil
}

// announceMatch joins both participants to the room group and tells each who their partner is.
func (g *Gateway) announceMatch(result *chathub.MatchResult) {
	pairs := [][2]models.SessionID{{result.User1, result.User2}, {result.User2, result.User1}}
	for _, p := range pairs {
		s, err := g.sessions.GetSession(p[0])
		if err != nil {
			// The session disconnected between the pop and the room creation.
			g.logger.Warn("matched session is gone", "session_id", p[0].String(), "room_id", result.RoomID.String())
			if err := g.rooms.HandleUserDisconnect(p[0], result.RoomID); err != nil && !errors.Is(err, models.ErrRoomNotFound) {
				g.logger.Error("failed to close orphaned room", "room_id", result.RoomID.String(), "error", err)
			}
			return
		}
		g.transport.Join(result.RoomID, s.ConnectionID)
	}
	for _, p := range pairs {
		if s, err := g.sessions.GetSession(p[0]); err == nil {
			g.transport.EmitTo(s.ConnectionID, models.NewMatchFoundEvent(result.RoomID, p[1]))
		}
	}
}

func (g *Gateway) sendMessage(sessionID models.SessionID, raw json.RawMessage) error {
	var req models.SendMessageRequest
	if err := g.decode(raw, &req); err != nil {
		return err
	}
	roomID, err := models.ParseRoomID(req.RoomID)
	if err != nil {
		return err
	}
	text, err := models.ParseMessageText(req.Text)
	if err != nil {
		return err
	}

	room, err := g.rooms.GetRoom(roomID)
	if err != nil || !room.HasParticipant(sessionID) {
		return models.ErrMessageRoomNotFound
	}

	res, err := g.messages.SendMessage(sessionID, roomID, text)
	if err != nil {
		return err
	}
	g.transport.BroadcastToRoom(roomID, models.NewMessageEvent(res.Message))
	if res.EvictedMessageID != nil {
		g.transport.BroadcastToRoom(roomID, models.NewMessageDeletedEvent(*res.EvictedMessageID))
	}
	return nil
}

func (g *Gateway) leaveRoom(sessionID models.SessionID, raw json.RawMessage) error {
	var req models.LeaveRoomRequest
	if err := g.decode(raw, &req); err != nil {
		return err
	}
	roomID, err := models.ParseRoomID(req.RoomID)
	if err != nil {
		return err
	}

	room, err := g.rooms.GetRoom(roomID)
	if err != nil {
		return err
	}
	if !room.HasParticipant(sessionID) {
		return models.ErrRoomNotFound
	}
	g.logger.Info("participant left room", "room_id", roomID.String(), "session_id", sessionID.String())
	return g.rooms.CloseRoom(roomID, models.CloseReasonUserLeft)
}

func (g *Gateway) reportContent(sessionID models.SessionID, raw json.RawMessage) error {
	var req models.ReportContentRequest
	if err := g.decode(raw, &req); err != nil {
		return err
	}
	roomID, err := models.ParseRoomID(req.RoomID)
	if err != nil {
		return err
	}
	reason, err := models.ParseReportReason(req.Reason)
	if err != nil {
		return err
	}

	_, err = g.reports.HandleReport(context.Background(), sessionID, roomID, reason)
	return err
}

func (g *Gateway) decode(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return fmt.Errorf("%w: missing payload", models.ErrInvalidPayload)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %w", models.ErrInvalidPayload, err)
	}
	if err := g.validate.Struct(dst); err != nil {
		return fmt.Errorf("%w: %w", models.ErrInvalidPayload, err)
	}
	return nil
}

func (g *Gateway) emitErrorToSession(sessionID models.SessionID, err error) {
	s, lookupErr := g.sessions.GetSession(sessionID)
	if lookupErr != nil {
		return
	}
	g.emitError(s.ConnectionID, err)
}

// emitError logs err according to its category and sends a localized error event.
// Internal details never reach the client.
func (g *Gateway) emitError(connID models.ConnectionID, err error) {
	traceID := uuid.NewString()
	ec := models.NewErrorContext(err, traceID)

	attrs := []any{
		"trace_id", traceID,
		"category", string(ec.Category),
		"code", string(ec.Code),
		"connection_id", connID.String(),
		"error", err.Error(),
	}
	switch ec.Category {
	case models.CategoryFatal:
		g.logger.Error("request failed", attrs...)
	case models.CategoryTransient:
		g.logger.Warn("request failed", attrs...)
	default:
		g.logger.Debug("request rejected", attrs...)
	}

	lang := ""
	if c, ok := g.transport.Client(connID); ok {
		lang = c.GetLanguage()
	}
	message := g.localizer.GetString(lang, "error."+string(ec.Category))
	g.transport.EmitTo(connID, models.NewErrorEvent(ec.Code, message, ec.Retryable))
}

func (g *Gateway) bind(connID models.ConnectionID, sessionID models.SessionID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.bindings[connID] = sessionID
}

func (g *Gateway) unbind(connID models.ConnectionID) (models.SessionID, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	id, ok := g.bindings[connID]
	delete(g.bindings, connID)
	return id, ok
}

func (g *Gateway) sessionOf(connID models.ConnectionID) (models.SessionID, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	id, ok := g.bindings[connID]
	return id, ok
}
