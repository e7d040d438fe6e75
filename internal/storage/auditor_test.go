package storage_test

import (
	"chachat/backend/internal/models"
	"chachat/backend/internal/storage"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newActiveRoom(t *testing.T, created time.Time) models.ActiveChatRoom {
	t.Helper()
	roomID, err := models.NewRoomID()
	require.NoError(t, err)
	a, _ := models.NewSessionID()
	b, _ := models.NewSessionID()
	return models.ActiveChatRoom{
		RoomID:         roomID,
		User1SessionID: a,
		User2SessionID: b,
		CreatedAt:      created,
		ExpiresAt:      created.Add(10 * time.Minute),
	}
}

// TestAuditor_WritesLifecycle verifies that creation and closure reach the database in order.
func TestAuditor_WritesLifecycle(t *testing.T) {
	// Arrange
	s := setupTestStorage(t)
	auditor := storage.NewAuditor(s, 16, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go auditor.Run(ctx)

	created := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	room := newActiveRoom(t, created)

	// Act
	auditor.RecordRoomCreated(room)
	auditor.RecordRoomClosed(room.RoomID, models.CloseReasonTimeout, created.Add(10*time.Minute))

	// Assert
	assert.Eventually(t, func() bool {
		stored, err := s.GetRoomByID(context.Background(), room.RoomID.String())
		return err == nil && stored.Status == models.RoomStatusClosed
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-auditor.Done()
}

// TestAuditor_DrainsOnShutdown verifies that buffered records are flushed when Run stops.
func TestAuditor_DrainsOnShutdown(t *testing.T) {
	s := setupTestStorage(t)
	auditor := storage.NewAuditor(s, 16, nil)
	created := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	rooms := []models.ActiveChatRoom{newActiveRoom(t, created), newActiveRoom(t, created.Add(time.Minute))}
	for _, r := range rooms {
		auditor.RecordRoomCreated(r)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	auditor.Run(ctx)

	stored, err := s.ListRooms(context.Background(), models.RoomStatusActive)
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

// TestAuditor_DropsWhenFull verifies that recording never blocks on a full buffer.
func TestAuditor_DropsWhenFull(t *testing.T) {
	s := setupTestStorage(t)
	auditor := storage.NewAuditor(s, 1, nil)
	created := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	first, second := newActiveRoom(t, created), newActiveRoom(t, created)

	done := make(chan struct{})
	go func() {
		auditor.RecordRoomCreated(first)
		auditor.RecordRoomCreated(second)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("recording blocked on a full buffer")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	auditor.Run(ctx)

	stored, err := s.ListRooms(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}
