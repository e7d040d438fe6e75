package storage

import (
	"chachat/backend/internal/models"
	"context"
	"log/slog"
	"time"
)

const auditWriteTimeout = 5 * time.Second

type auditJob struct {
	name  string
	event AuditEvent
	write func(ctx context.Context) error
}

// Auditor writes room lifecycle records in the background so the room manager
// never waits on the database. When the buffer is full records are dropped.
type Auditor struct {
	store  Storage
	jobs   chan auditJob
	done   chan struct{}
	logger *slog.Logger
}

func NewAuditor(store Storage, buffer int, logger *slog.Logger) *Auditor {
	if logger == nil {
		logger = slog.Default()
	}
	if buffer <= 0 {
		buffer = 1
	}
	return &Auditor{
		store:  store,
		jobs:   make(chan auditJob, buffer),
		done:   make(chan struct{}),
		logger: logger,
	}
}

func (a *Auditor) RecordRoomCreated(room models.ActiveChatRoom) {
	record := models.NewChatRoomRecord(room)
	a.enqueue(auditJob{
		name:  AuditRoomCreated,
		event: AuditEvent{Kind: AuditRoomCreated, RoomID: record.RoomID, At: record.CreatedAt},
		write: func(ctx context.Context) error { return a.store.SaveRoom(ctx, record) },
	})
}

func (a *Auditor) RecordRoomClosed(roomID models.RoomID, reason models.CloseReason, at time.Time) {
	id := roomID.String()
	a.enqueue(auditJob{
		name:  AuditRoomClosed,
		event: AuditEvent{Kind: AuditRoomClosed, RoomID: id, Reason: string(reason), At: at},
		write: func(ctx context.Context) error { return a.store.CloseRoom(ctx, id, reason, at) },
	})
}

func (a *Auditor) enqueue(job auditJob) {
	select {
	case a.jobs <- job:
	default:
		a.logger.Warn("audit buffer full, record dropped", "kind", job.name, "room_id", job.event.RoomID)
	}
}

// Run processes records until ctx is cancelled, then flushes what is still buffered.
func (a *Auditor) Run(ctx context.Context) {
	defer close(a.done)
	for {
		select {
		case job := <-a.jobs:
			a.process(ctx, job)
		case <-ctx.Done():
			a.drain()
			return
		}
	}
}

// Done is closed once Run has returned.
func (a *Auditor) Done() <-chan struct{} {
	return a.done
}

func (a *Auditor) drain() {
	for {
		select {
		case job := <-a.jobs:
			a.process(context.Background(), job)
		default:
			return
		}
	}
}

func (a *Auditor) process(parent context.Context, job auditJob) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), auditWriteTimeout)
	defer cancel()

	if err := job.write(ctx); err != nil {
		a.logger.Error("failed to write audit record", "kind", job.name, "room_id", job.event.RoomID, "error", err)
		return
	}
	if err := a.store.PublishEvent(ctx, job.event); err != nil {
		a.logger.Warn("failed to publish audit event", "kind", job.name, "room_id", job.event.RoomID, "error", err)
	}
}
