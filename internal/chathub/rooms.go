package chathub

import (
	"chachat/backend/internal/models"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const (
	DefaultRoomDuration = 600 * time.Second
	DefaultTickInterval = 60 * time.Second
)

// Broadcaster delivers an event to every connection joined to a room group.
type Broadcaster interface {
	BroadcastToRoom(roomID models.RoomID, event models.Event)
}

// MessagePurger drops the retained messages of a closed room.
type MessagePurger interface {
	DeleteAllMessages(roomID models.RoomID) error
}

// RoomRecorder receives room lifecycle notifications for auditing. It must not block.
type RoomRecorder interface {
	RecordRoomCreated(room models.ActiveChatRoom)
	RecordRoomClosed(roomID models.RoomID, reason models.CloseReason, at time.Time)
}

type roomEntry struct {
	room   models.ActiveChatRoom
	expiry Timer
	tick   Timer
}

// RoomManager owns the live rooms and their expiry and countdown timers.
// Timer callbacks only carry the room id and re-resolve the room when they fire.
type RoomManager struct {
	mu      sync.Mutex
	rooms   map[models.RoomID]*roomEntry
	stopped bool

	broadcaster  Broadcaster
	messages     MessagePurger
	recorder     RoomRecorder
	clock        Clock
	newID        func() (models.RoomID, error)
	duration     time.Duration
	tickInterval time.Duration
	logger       *slog.Logger
}

type RoomManagerOption func(*RoomManager)

func WithClock(c Clock) RoomManagerOption {
	return func(m *RoomManager) { m.clock = c }
}

func WithRoomIDGenerator(gen func() (models.RoomID, error)) RoomManagerOption {
	return func(m *RoomManager) { m.newID = gen }
}

func WithRecorder(r RoomRecorder) RoomManagerOption {
	return func(m *RoomManager) { m.recorder = r }
}

func WithLogger(l *slog.Logger) RoomManagerOption {
	return func(m *RoomManager) { m.logger = l }
}

// WithRoomTiming overrides the room duration and countdown interval.
func WithRoomTiming(duration, tick time.Duration) RoomManagerOption {
	return func(m *RoomManager) {
		m.duration = duration
		m.tickInterval = tick
	}
}

// NewRoomManager creates a room manager. The broadcaster must already exist;
// it is never rebound after construction.
func NewRoomManager(b Broadcaster, messages MessagePurger, opts ...RoomManagerOption) *RoomManager {
	m := &RoomManager{
		rooms:        make(map[models.RoomID]*roomEntry),
		broadcaster:  b,
		messages:     messages,
		clock:        RealClock(),
		newID:        models.NewRoomID,
		duration:     DefaultRoomDuration,
		tickInterval: DefaultTickInterval,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CreateRoom registers a room for the pair and starts its timers.
func (m *RoomManager) CreateRoom(user1, user2 models.SessionID) (models.RoomID, error) {
	id, err := m.newID()
	if err != nil {
		return models.RoomID{}, fmt.Errorf("%w: %w", models.ErrRoomDatabase, err)
	}

	now := m.clock.Now()
	room := models.ActiveChatRoom{
		RoomID:         id,
		User1SessionID: user1,
		User2SessionID: user2,
		CreatedAt:      now,
		ExpiresAt:      now.Add(m.duration),
	}

	m.mu.Lock()
	if _, exists := m.rooms[id]; exists {
		m.mu.Unlock()
		return models.RoomID{}, fmt.Errorf("%w: duplicate room id %s", models.ErrRoomDatabase, id)
	}
	entry := &roomEntry{room: room}
	entry.expiry = m.clock.AfterFunc(m.duration, func() { m.onExpiry(id) })
	entry.tick = m.clock.AfterFunc(m.tickInterval, func() { m.onTick(id) })
	m.rooms[id] = entry
	m.mu.Unlock()

	m.logger.Info("room created", "room_id", id.String(), "expires_at", room.ExpiresAt)
	if m.recorder != nil {
		m.recorder.RecordRoomCreated(room)
	}
	return id, nil
}

// CloseRoom stops the room's timers, removes it, purges its messages and
// broadcasts roomClosed. Closing an unknown room returns ErrRoomNotFound.
func (m *RoomManager) CloseRoom(roomID models.RoomID, reason models.CloseReason) error {
	m.mu.Lock()
	entry, ok := m.rooms[roomID]
	if !ok {
		m.mu.Unlock()
		return models.ErrRoomNotFound
	}
	entry.expiry.Stop()
	entry.tick.Stop()
	delete(m.rooms, roomID)
	m.mu.Unlock()

	// Помилка очищення повідомлень не зупиняє закриття кімнати.
	if err := m.messages.DeleteAllMessages(roomID); err != nil {
		m.logger.Warn("failed to purge room messages", "room_id", roomID.String(), "error", err)
	}

	closedAt := m.clock.Now()
	if m.recorder != nil {
		m.recorder.RecordRoomClosed(roomID, reason, closedAt)
	}

	m.logger.Info("room closed", "room_id", roomID.String(), "reason", string(reason))
	m.broadcaster.BroadcastToRoom(roomID, models.NewRoomClosedEvent(roomID, reason))
	return nil
}

// GetRoom returns an active room. Closed rooms are not retained.
func (m *RoomManager) GetRoom(roomID models.RoomID) (models.ActiveChatRoom, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.rooms[roomID]
	if !ok {
		return models.ActiveChatRoom{}, models.ErrRoomNotFound
	}
	return entry.room, nil
}

// GetRoomBySessionID returns the active room that sessionID belongs to.
func (m *RoomManager) GetRoomBySessionID(sessionID models.SessionID) (models.ActiveChatRoom, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, entry := range m.rooms {
		if entry.room.HasParticipant(sessionID) {
			return entry.room, nil
		}
	}
	return models.ActiveChatRoom{}, models.ErrRoomNotFound
}

// HandleUserDisconnect tells the room the partner is gone, then closes it as user_left.
func (m *RoomManager) HandleUserDisconnect(sessionID models.SessionID, roomID models.RoomID) error {
	if _, err := m.GetRoom(roomID); err != nil {
		return err
	}

	m.logger.Info("participant disconnected", "room_id", roomID.String(), "session_id", sessionID.String())
	m.broadcaster.BroadcastToRoom(roomID, models.NewPartnerDisconnectedEvent(roomID))
	return m.CloseRoom(roomID, models.CloseReasonUserLeft)
}

// ActiveCount returns the number of live rooms.
func (m *RoomManager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rooms)
}

// Shutdown cancels every room timer. Rooms are left in place; nothing fires afterwards.
func (m *RoomManager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopped = true
	for _, entry := range m.rooms {
		entry.expiry.Stop()
		entry.tick.Stop()
	}
	m.logger.Info("room timers stopped", "rooms", len(m.rooms))
}

func (m *RoomManager) onExpiry(roomID models.RoomID) {
	err := m.CloseRoom(roomID, models.CloseReasonTimeout)
	if err != nil && !errors.Is(err, models.ErrRoomNotFound) {
		m.logger.Error("failed to close expired room", "room_id", roomID.String(), "error", err)
	}
}

// onTick broadcasts the countdown and schedules the next tick while the room is alive.
func (m *RoomManager) onTick(roomID models.RoomID) {
	m.mu.Lock()
	entry, ok := m.rooms[roomID]
	if !ok || m.stopped {
		m.mu.Unlock()
		return
	}
	remaining := entry.room.RemainingSeconds(m.clock.Now())
	entry.tick = m.clock.AfterFunc(m.tickInterval, func() { m.onTick(roomID) })
	m.mu.Unlock()

	m.broadcaster.BroadcastToRoom(roomID, models.NewTimerUpdateEvent(roomID, remaining))
}
