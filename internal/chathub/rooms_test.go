package chathub_test

import (
	"chachat/backend/internal/chathub"
	"chachat/backend/internal/models"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) RecordRoomCreated(room models.ActiveChatRoom) {
	m.Called(room)
}

func (m *MockRecorder) RecordRoomClosed(roomID models.RoomID, reason models.CloseReason, at time.Time) {
	m.Called(roomID, reason, at)
}

type roomFixture struct {
	clock       *fakeClock
	broadcaster *recordingBroadcaster
	messages    *chathub.MessageStore
	rooms       *chathub.RoomManager
}

func newRoomFixture(opts ...chathub.RoomManagerOption) *roomFixture {
	f := &roomFixture{
		clock:       newFakeClock(),
		broadcaster: &recordingBroadcaster{},
		messages:    chathub.NewMessageStore(),
	}
	opts = append([]chathub.RoomManagerOption{chathub.WithClock(f.clock)}, opts...)
	f.rooms = chathub.NewRoomManager(f.broadcaster, f.messages, opts...)
	return f
}

// TestCreateRoom verifies that a room is retrievable by id and by either participant.
func TestCreateRoom(t *testing.T) {
	// Arrange
	f := newRoomFixture()
	a, b := newSessionID(t), newSessionID(t)

	// Act
	roomID, err := f.rooms.CreateRoom(a, b)

	// Assert
	require.NoError(t, err)
	room, err := f.rooms.GetRoom(roomID)
	require.NoError(t, err)
	assert.Equal(t, a, room.User1SessionID)
	assert.Equal(t, b, room.User2SessionID)
	assert.Equal(t, 600*time.Second, room.ExpiresAt.Sub(room.CreatedAt))

	byA, err := f.rooms.GetRoomBySessionID(a)
	require.NoError(t, err)
	assert.Equal(t, roomID, byA.RoomID)
	byB, err := f.rooms.GetRoomBySessionID(b)
	require.NoError(t, err)
	assert.Equal(t, roomID, byB.RoomID)

	_, err = f.rooms.GetRoomBySessionID(newSessionID(t))
	assert.ErrorIs(t, err, models.ErrRoomNotFound)
	assert.Equal(t, 1, f.rooms.ActiveCount())
}

// TestCreateRoom_IDFailure verifies that a failed id allocation leaves no partial state.
func TestCreateRoom_IDFailure(t *testing.T) {
	f := newRoomFixture(chathub.WithRoomIDGenerator(failingRoomIDs))
	a := newSessionID(t)

	_, err := f.rooms.CreateRoom(a, newSessionID(t))

	assert.ErrorIs(t, err, models.ErrRoomDatabase)
	assert.Equal(t, 0, f.rooms.ActiveCount())
	assert.Equal(t, 0, f.clock.Pending())
	_, err = f.rooms.GetRoomBySessionID(a)
	assert.ErrorIs(t, err, models.ErrRoomNotFound)
}

// TestRoomExpires verifies that advancing just past the room duration closes it exactly once with reason timeout.
func TestRoomExpires(t *testing.T) {
	f := newRoomFixture()
	roomID, err := f.rooms.CreateRoom(newSessionID(t), newSessionID(t))
	require.NoError(t, err)

	f.clock.Advance(600001 * time.Millisecond)

	closed := f.broadcaster.OfType(models.EventRoomClosed)
	require.Len(t, closed, 1)
	assert.Equal(t, models.RoomClosedPayload{RoomID: roomID, Reason: models.CloseReasonTimeout}, closed[0].Payload)
	_, err = f.rooms.GetRoom(roomID)
	assert.ErrorIs(t, err, models.ErrRoomNotFound)
	assert.Equal(t, 0, f.clock.Pending())

	f.clock.Advance(10 * time.Minute)
	assert.Len(t, f.broadcaster.OfType(models.EventRoomClosed), 1)
}

// TestRoomTicks verifies the countdown broadcast every 60 seconds.
func TestRoomTicks(t *testing.T) {
	f := newRoomFixture()
	roomID, err := f.rooms.CreateRoom(newSessionID(t), newSessionID(t))
	require.NoError(t, err)

	f.clock.Advance(60000 * time.Millisecond)
	ticks := f.broadcaster.OfType(models.EventTimerUpdate)
	require.Len(t, ticks, 1)
	assert.Equal(t, models.TimerUpdatePayload{RoomID: roomID, RemainingSeconds: 540}, ticks[0].Payload)

	f.clock.Advance(60000 * time.Millisecond)
	ticks = f.broadcaster.OfType(models.EventTimerUpdate)
	require.Len(t, ticks, 2)
	assert.Equal(t, models.TimerUpdatePayload{RoomID: roomID, RemainingSeconds: 480}, ticks[1].Payload)
}

// TestRoomTicks_StopAtExpiry verifies that no tick is broadcast at or after the expiry instant.
func TestRoomTicks_StopAtExpiry(t *testing.T) {
	f := newRoomFixture()
	_, err := f.rooms.CreateRoom(newSessionID(t), newSessionID(t))
	require.NoError(t, err)

	f.clock.Advance(20 * time.Minute)

	ticks := f.broadcaster.OfType(models.EventTimerUpdate)
	require.Len(t, ticks, 9)
	assert.Equal(t, 60, ticks[8].Payload.(models.TimerUpdatePayload).RemainingSeconds)
	types := f.broadcaster.Types()
	assert.Equal(t, models.EventRoomClosed, types[len(types)-1])
}

// TestCloseRoom_Twice verifies that the second close fails and nothing is broadcast again.
func TestCloseRoom_Twice(t *testing.T) {
	f := newRoomFixture()
	roomID, err := f.rooms.CreateRoom(newSessionID(t), newSessionID(t))
	require.NoError(t, err)

	require.NoError(t, f.rooms.CloseRoom(roomID, models.CloseReasonUserLeft))
	err = f.rooms.CloseRoom(roomID, models.CloseReasonUserLeft)

	assert.ErrorIs(t, err, models.ErrRoomNotFound)
	assert.Len(t, f.broadcaster.OfType(models.EventRoomClosed), 1)
}

// TestCloseRoom_CancelsTimers verifies that no tick or second closure fires after an explicit close.
func TestCloseRoom_CancelsTimers(t *testing.T) {
	f := newRoomFixture()
	roomID, err := f.rooms.CreateRoom(newSessionID(t), newSessionID(t))
	require.NoError(t, err)
	f.clock.Advance(90 * time.Second)

	require.NoError(t, f.rooms.CloseRoom(roomID, models.CloseReasonUserLeft))
	assert.Equal(t, 0, f.clock.Pending())
	f.clock.Advance(15 * time.Minute)

	closed := f.broadcaster.OfType(models.EventRoomClosed)
	require.Len(t, closed, 1)
	assert.Equal(t, models.CloseReasonUserLeft, closed[0].Payload.(models.RoomClosedPayload).Reason)
	assert.Len(t, f.broadcaster.OfType(models.EventTimerUpdate), 1)
}

// TestCloseRoom_PurgesMessages verifies that closing a room drops its retained messages.
func TestCloseRoom_PurgesMessages(t *testing.T) {
	f := newRoomFixture()
	a := newSessionID(t)
	roomID, err := f.rooms.CreateRoom(a, newSessionID(t))
	require.NoError(t, err)
	_, err = f.messages.SendMessage(a, roomID, newText(t, "hello"))
	require.NoError(t, err)

	require.NoError(t, f.rooms.CloseRoom(roomID, models.CloseReasonReported))

	assert.Empty(t, f.messages.GetMessages(roomID))
}

// TestCloseRoom_PurgeFailureStillBroadcasts verifies that a purge error does not stop closure.
func TestCloseRoom_PurgeFailureStillBroadcasts(t *testing.T) {
	clock := newFakeClock()
	broadcaster := &recordingBroadcaster{}
	rooms := chathub.NewRoomManager(broadcaster, failingPurger{}, chathub.WithClock(clock))
	roomID, err := rooms.CreateRoom(newSessionID(t), newSessionID(t))
	require.NoError(t, err)

	err = rooms.CloseRoom(roomID, models.CloseReasonUserLeft)

	assert.NoError(t, err)
	assert.Len(t, broadcaster.OfType(models.EventRoomClosed), 1)
	assert.Equal(t, 0, rooms.ActiveCount())
}

// TestHandleUserDisconnect verifies partnerDisconnected is broadcast before roomClosed and messages are purged.
func TestHandleUserDisconnect(t *testing.T) {
	f := newRoomFixture()
	a, b := newSessionID(t), newSessionID(t)
	roomID, err := f.rooms.CreateRoom(a, b)
	require.NoError(t, err)
	_, err = f.messages.SendMessage(b, roomID, newText(t, "are you there?"))
	require.NoError(t, err)

	err = f.rooms.HandleUserDisconnect(a, roomID)

	require.NoError(t, err)
	assert.Equal(t, []models.EventType{models.EventPartnerDisconnected, models.EventRoomClosed}, f.broadcaster.Types())
	closed := f.broadcaster.OfType(models.EventRoomClosed)
	assert.Equal(t, models.CloseReasonUserLeft, closed[0].Payload.(models.RoomClosedPayload).Reason)
	assert.Empty(t, f.messages.GetMessages(roomID))
}

func TestHandleUserDisconnect_UnknownRoom(t *testing.T) {
	f := newRoomFixture()
	roomID, _ := models.NewRoomID()

	err := f.rooms.HandleUserDisconnect(newSessionID(t), roomID)

	assert.ErrorIs(t, err, models.ErrRoomNotFound)
	assert.Empty(t, f.broadcaster.Types())
}

// TestRoomRecorder verifies that creation and closure are reported to the recorder.
func TestRoomRecorder(t *testing.T) {
	recorder := new(MockRecorder)
	f := newRoomFixture(chathub.WithRecorder(recorder))
	a, b := newSessionID(t), newSessionID(t)

	recorder.On("RecordRoomCreated", mock.MatchedBy(func(r models.ActiveChatRoom) bool {
		return r.User1SessionID == a && r.User2SessionID == b
	})).Return().Once()
	recorder.On("RecordRoomClosed", mock.AnythingOfType("models.RoomID"), models.CloseReasonTimeout, mock.AnythingOfType("time.Time")).Return().Once()

	_, err := f.rooms.CreateRoom(a, b)
	require.NoError(t, err)
	f.clock.Advance(601 * time.Second)

	recorder.AssertExpectations(t)
}

// TestShutdown_StopsTimers verifies that no timer fires after Shutdown.
func TestShutdown_StopsTimers(t *testing.T) {
	f := newRoomFixture()
	_, err := f.rooms.CreateRoom(newSessionID(t), newSessionID(t))
	require.NoError(t, err)

	f.rooms.Shutdown()
	f.clock.Advance(20 * time.Minute)

	assert.Empty(t, f.broadcaster.Types())
	assert.Equal(t, 0, f.clock.Pending())
}
