package chathub_test

import (
	"chachat/backend/internal/chathub"
	"chachat/backend/internal/models"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeClock fires due timers synchronously from Advance, ordered by deadline
// and then by creation order.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	seq    int
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Time
	seq     int
	fn      func()
	stopped bool
	fired   bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) chathub.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	t := &fakeTimer{clock: c, at: c.now.Add(d), seq: c.seq, fn: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves the clock forward by d, running every timer that falls due on the way.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		pending := make([]*fakeTimer, 0, len(c.timers))
		for _, t := range c.timers {
			if !t.stopped && !t.fired {
				pending = append(pending, t)
			}
		}
		c.timers = pending
		sort.Slice(pending, func(i, j int) bool {
			if pending[i].at.Equal(pending[j].at) {
				return pending[i].seq < pending[j].seq
			}
			return pending[i].at.Before(pending[j].at)
		})
		if len(pending) == 0 || pending[0].at.After(target) {
			c.now = target
			c.mu.Unlock()
			return
		}
		next := pending[0]
		next.fired = true
		c.now = next.at
		c.mu.Unlock()

		next.fn()
	}
}

// Pending returns the number of timers that have neither fired nor been stopped.
func (c *fakeClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// recordingBroadcaster captures room broadcasts in order.
type recordingBroadcaster struct {
	mu     sync.Mutex
	events []roomEvent
}

type roomEvent struct {
	roomID models.RoomID
	event  models.Event
}

func (b *recordingBroadcaster) BroadcastToRoom(roomID models.RoomID, event models.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, roomEvent{roomID: roomID, event: event})
}

func (b *recordingBroadcaster) Types() []models.EventType {
	b.mu.Lock()
	defer b.mu.Unlock()
	types := make([]models.EventType, 0, len(b.events))
	for _, e := range b.events {
		types = append(types, e.event.Type)
	}
	return types
}

func (b *recordingBroadcaster) OfType(t models.EventType) []models.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []models.Event
	for _, e := range b.events {
		if e.event.Type == t {
			out = append(out, e.event)
		}
	}
	return out
}

type failingPurger struct{}

func (failingPurger) DeleteAllMessages(models.RoomID) error {
	return errors.New("purge failed")
}

func newSessionID(t *testing.T) models.SessionID {
	t.Helper()
	id, err := models.NewSessionID()
	require.NoError(t, err)
	return id
}

func newText(t *testing.T, v string) models.MessageText {
	t.Helper()
	text, err := models.ParseMessageText(v)
	require.NoError(t, err)
	return text
}

func failingRoomIDs() (models.RoomID, error) {
	return models.RoomID{}, errors.New("id source unavailable")
}
