package chathub

import (
	"chachat/backend/internal/models"
	"fmt"
	"sync"
	"time"

	"github.com/samber/lo"
)

// DefaultMaxMessagesPerSender is how many messages one sender keeps in a room.
const DefaultMaxMessagesPerSender = 3

// SendResult is the outcome of MessageStore.SendMessage.
type SendResult struct {
	Message models.Message
	// EvictedMessageID is set when the send pushed the sender's oldest message out of the window.
	EvictedMessageID *models.MessageID
}

// MessageStore keeps the live messages of each room in send order.
type MessageStore struct {
	mu           sync.Mutex
	rooms        map[models.RoomID][]models.Message
	maxPerSender int

	newID func() (models.MessageID, error)
	now   func() time.Time
}

type MessageStoreOption func(*MessageStore)

func WithMaxPerSender(n int) MessageStoreOption {
	return func(s *MessageStore) { s.maxPerSender = n }
}

func WithMessageIDGenerator(gen func() (models.MessageID, error)) MessageStoreOption {
	return func(s *MessageStore) { s.newID = gen }
}

func WithMessageClock(now func() time.Time) MessageStoreOption {
	return func(s *MessageStore) { s.now = now }
}

func NewMessageStore(opts ...MessageStoreOption) *MessageStore {
	s := &MessageStore{
		rooms:        make(map[models.RoomID][]models.Message),
		maxPerSender: DefaultMaxMessagesPerSender,
		newID:        models.NewMessageID,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SendMessage appends the message and trims the sender's history in that room
// to the retention window. Other senders' messages are never touched.
func (s *MessageStore) SendMessage(sender models.SessionID, roomID models.RoomID, text models.MessageText) (SendResult, error) {
	id, err := s.newID()
	if err != nil {
		return SendResult{}, fmt.Errorf("%w: %w", models.ErrMessageDatabase, err)
	}

	msg := models.Message{
		MessageID:       id,
		RoomID:          roomID,
		SenderSessionID: sender,
		Text:            text,
		CreatedAt:       s.now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	messages := append(s.rooms[roomID], msg)
	result := SendResult{Message: msg}

	fromSender := lo.CountBy(messages, func(m models.Message) bool { return m.SenderSessionID == sender })
	if fromSender > s.maxPerSender {
		oldest, idx, _ := lo.FindIndexOf(messages, func(m models.Message) bool { return m.SenderSessionID == sender })
		messages = append(messages[:idx], messages[idx+1:]...)
		evicted := oldest.MessageID
		result.EvictedMessageID = &evicted
	}

	s.rooms[roomID] = messages
	return result, nil
}

// GetMessages returns a copy of the room's messages in send order.
func (s *MessageStore) GetMessages(roomID models.RoomID) []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Message{}, s.rooms[roomID]...)
}

// DeleteAllMessages drops everything held for the room. Unknown rooms are a no-op.
func (s *MessageStore) DeleteAllMessages(roomID models.RoomID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, roomID)
	return nil
}

// RoomCount returns how many rooms currently hold messages.
func (s *MessageStore) RoomCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rooms)
}
