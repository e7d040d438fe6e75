package storage

import (
	"chachat/backend/internal/models"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/lo"
	"gorm.io/gorm"
)

// AuditChannel is the Redis channel audit events are published on.
const AuditChannel = "chat:audit"

var ErrRoomRecordNotFound = errors.New("chat room record not found")

// Storage is the audit sink. Chat messages are never persisted.
type Storage interface {
	SaveRoom(ctx context.Context, room *models.ChatRoom) error
	CloseRoom(ctx context.Context, roomID string, reason models.CloseReason, closedAt time.Time) error
	SaveReport(ctx context.Context, report *models.ReportRecord) error

	GetRoomByID(ctx context.Context, roomID string) (*models.ChatRoom, error)
	ListRooms(ctx context.Context, status string) ([]models.ChatRoom, error)
	ListReports(ctx context.Context, roomID string) ([]models.ReportRecord, error)

	PublishEvent(ctx context.Context, event AuditEvent) error
}

// AuditEvent is the JSON message published on AuditChannel.
type AuditEvent struct {
	Kind   string    `json:"kind"`
	RoomID string    `json:"roomId"`
	Reason string    `json:"reason,omitempty"`
	At     time.Time `json:"at"`
}

const (
	AuditRoomCreated   = "room_created"
	AuditRoomClosed    = "room_closed"
	AuditReportCreated = "report_created"
)

type Service struct {
	DB     *gorm.DB
	Redis  *redis.Client
	logger *slog.Logger
}

// NewStorageService Constructor. rdb may be nil, in which case events are not published.
func NewStorageService(db *gorm.DB, rdb *redis.Client, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{DB: db, Redis: rdb, logger: logger}
}

// SaveRoom зберігає кімнату в базі даних
func (s *Service) SaveRoom(ctx context.Context, room *models.ChatRoom) error {
	return s.DB.WithContext(ctx).Save(room).Error
}

// CloseRoom позначає кімнату закритою та записує причину і час закриття
func (s *Service) CloseRoom(ctx context.Context, roomID string, reason models.CloseReason, closedAt time.Time) error {
	result := s.DB.WithContext(ctx).Model(&models.ChatRoom{}).
		Where("room_id = ?", roomID).
		Updates(map[string]interface{}{
			"status":       models.RoomStatusClosed,
			"closed_at":    closedAt,
			"close_reason": string(reason),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrRoomRecordNotFound, roomID)
	}
	return nil
}

// SaveReport stores the report and announces it on the audit channel.
func (s *Service) SaveReport(ctx context.Context, report *models.ReportRecord) error {
	if err := s.DB.WithContext(ctx).Create(report).Error; err != nil {
		s.logger.Error("failed to save report", "room_id", report.RoomID, "error", err)
		return err
	}

	event := AuditEvent{Kind: AuditReportCreated, RoomID: report.RoomID, Reason: report.Reason, At: report.CreatedAt}
	if err := s.PublishEvent(ctx, event); err != nil {
		s.logger.Warn("failed to publish report event", "room_id", report.RoomID, "error", err)
	}
	return nil
}

func (s *Service) GetRoomByID(ctx context.Context, roomID string) (*models.ChatRoom, error) {
	var room models.ChatRoom

	err := s.DB.WithContext(ctx).Where("room_id = ?", roomID).First(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrRoomRecordNotFound, roomID)
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// ListRooms returns rooms newest first. An empty status returns every room.
func (s *Service) ListRooms(ctx context.Context, status string) ([]models.ChatRoom, error) {
	var rooms []models.ChatRoom

	q := s.DB.WithContext(ctx).Order("created_at desc")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Find(&rooms).Error; err != nil {
		return nil, err
	}
	return rooms, nil
}

// ListReports returns reports oldest first, optionally restricted to one room.
func (s *Service) ListReports(ctx context.Context, roomID string) ([]models.ReportRecord, error) {
	var reports []models.ReportRecord

	q := s.DB.WithContext(ctx).Order("created_at asc")
	if roomID != "" {
		q = q.Where("room_id = ?", roomID)
	}
	if err := q.Find(&reports).Error; err != nil {
		return nil, err
	}
	return reports, nil
}

// CountReportsByReason groups a room's reports by reason.
func (s *Service) CountReportsByReason(ctx context.Context, roomID string) (map[string]int, error) {
	reports, err := s.ListReports(ctx, roomID)
	if err != nil {
		return nil, err
	}
	return lo.CountValuesBy(reports, func(r models.ReportRecord) string { return r.Reason }), nil
}

// PublishEvent публікує подію аудиту в Redis Pub/Sub
func (s *Service) PublishEvent(ctx context.Context, event AuditEvent) error {
	if s.Redis == nil {
		return nil
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return s.Redis.Publish(ctx, AuditChannel, data).Err()
}

// SubscribeAudit слухає канал аудиту. The returned channel is closed when ctx
// is cancelled or the subscription ends.
func (s *Service) SubscribeAudit(ctx context.Context) (<-chan AuditEvent, error) {
	if s.Redis == nil {
		return nil, errors.New("redis is not configured")
	}

	pubsub := s.Redis.Subscribe(ctx, AuditChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", AuditChannel, err)
	}

	out := make(chan AuditEvent)
	go func() {
		defer close(out)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var event AuditEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					s.logger.Warn("malformed audit event", "error", err)
					continue
				}
				select {
				case out <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
