package chathub

import (
	"chachat/backend/internal/models"
	"sync"

	"github.com/samber/lo"
)

// Queue is the FIFO waiting set of sessions looking for a partner.
// All operations are serialised by one mutex, so a popped pair is never handed out twice.
type Queue struct {
	mu      sync.Mutex
	order   []models.SessionID
	members map[models.SessionID]struct{}
}

func NewQueue() *Queue {
	return &Queue{members: make(map[models.SessionID]struct{})}
}

// Enqueue appends id to the back of the queue.
func (q *Queue) Enqueue(id models.SessionID) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.members[id]; ok {
		return models.ErrAlreadyInQueue
	}
	q.order = append(q.order, id)
	q.members[id] = struct{}{}
	return nil
}

// Dequeue removes id wherever it is in the queue.
func (q *Queue) Dequeue(id models.SessionID) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.members[id]; !ok {
		return models.ErrNotInQueue
	}
	idx := lo.IndexOf(q.order, id)
	q.order = append(q.order[:idx], q.order[idx+1:]...)
	delete(q.members, id)
	return nil
}

// TryPopPair removes and returns the two longest-waiting sessions, earliest first.
// ok is false when fewer than two sessions are waiting.
func (q *Queue) TryPopPair() (first, second models.SessionID, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.order) < 2 {
		return models.SessionID{}, models.SessionID{}, false
	}
	first, second = q.order[0], q.order[1]
	q.order = q.order[2:]
	delete(q.members, first)
	delete(q.members, second)
	return first, second, true
}

func (q *Queue) Includes(id models.SessionID) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.members[id]
	return ok
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.order)
}

// Snapshot returns the waiting sessions in queue order.
func (q *Queue) Snapshot() []models.SessionID {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]models.SessionID(nil), q.order...)
}
