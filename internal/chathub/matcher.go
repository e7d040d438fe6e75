package chathub

import (
	"chachat/backend/internal/models"
	"fmt"
	"log/slog"
)

// RoomCreator is the part of the room manager the matcher needs.
type RoomCreator interface {
	CreateRoom(user1, user2 models.SessionID) (models.RoomID, error)
}

// MatchResult describes a freshly created room. User1 waited longest.
type MatchResult struct {
	RoomID models.RoomID
	User1  models.SessionID
	User2  models.SessionID
}

// RoomCreationError is returned by TryMatch when the popped pair could not get a room.
// Both sessions are back in the queue by the time it is returned.
type RoomCreationError struct {
	User1 models.SessionID
	User2 models.SessionID
	Err   error
}

func (e *RoomCreationError) Error() string {
	return fmt.Sprintf("%s: %s and %s: %v", models.ErrRoomCreationFailed.Error(), e.User1, e.User2, e.Err)
}

func (e *RoomCreationError) Unwrap() []error {
	return []error{models.ErrRoomCreationFailed, e.Err}
}

// MatcherService відповідає за алгоритм пошуку співрозмовників:
// черга очікування плюс створення кімнати для пари.
type MatcherService struct {
	queue  *Queue
	rooms  RoomCreator
	logger *slog.Logger
}

func NewMatcherService(queue *Queue, rooms RoomCreator, logger *slog.Logger) *MatcherService {
	if logger == nil {
		logger = slog.Default()
	}
	return &MatcherService{queue: queue, rooms: rooms, logger: logger}
}

func (m *MatcherService) EnqueueUser(id models.SessionID) error {
	return m.queue.Enqueue(id)
}

func (m *MatcherService) DequeueUser(id models.SessionID) error {
	return m.queue.Dequeue(id)
}

// IsWaiting reports whether id is in the queue.
func (m *MatcherService) IsWaiting(id models.SessionID) bool {
	return m.queue.Includes(id)
}

func (m *MatcherService) Waiting() int {
	return m.queue.Len()
}

// TryMatch pops the two longest-waiting sessions and creates a room for them.
// It returns (nil, nil) when fewer than two sessions are waiting. On room
// creation failure both sessions are re-enqueued at the tail before the
// *RoomCreationError is returned.
func (m *MatcherService) TryMatch() (*MatchResult, error) {
	user1, user2, ok := m.queue.TryPopPair()
	if !ok {
		return nil, nil
	}

	roomID, err := m.rooms.CreateRoom(user1, user2)
	if err != nil {
		m.rollback(user1, user2)
		m.logger.Warn("room creation failed, pair re-queued",
			"user1", user1.String(), "user2", user2.String(), "error", err)
		return nil, &RoomCreationError{User1: user1, User2: user2, Err: err}
	}

	m.logger.Info("match found", "room_id", roomID.String(), "user1", user1.String(), "user2", user2.String())
	return &MatchResult{RoomID: roomID, User1: user1, User2: user2}, nil
}

func (m *MatcherService) rollback(users ...models.SessionID) {
	for _, id := range users {
		if err := m.queue.Enqueue(id); err != nil {
			m.logger.Error("failed to re-queue session after room creation failure",
				"session_id", id.String(), "error", err)
		}
	}
}
