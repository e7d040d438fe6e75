// Package report records user reports against a room and ends the reported room.
package report

import (
	"chachat/backend/internal/models"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Store persists reports.
type Store interface {
	SaveReport(ctx context.Context, report *models.ReportRecord) error
}

// Rooms is the part of the room manager reports need.
type Rooms interface {
	GetRoom(roomID models.RoomID) (models.ActiveChatRoom, error)
	CloseRoom(roomID models.RoomID, reason models.CloseReason) error
}

// Service handles the business logic for reports.
type Service struct {
	store  Store
	rooms  Rooms
	logger *slog.Logger

	newID func() (models.ReportID, error)
	now   func() time.Time
}

// NewService creates a new report service.
func NewService(store Store, rooms Rooms, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  store,
		rooms:  rooms,
		logger: logger,
		newID:  models.NewReportID,
		now:    time.Now,
	}
}

// HandleReport records the report and closes the room with reason "reported".
// The reporter must be a participant of the active room. If the report cannot
// be stored the room stays open.
func (s *Service) HandleReport(ctx context.Context, reporter models.SessionID, roomID models.RoomID, reason models.ReportReason) (models.Report, error) {
	room, err := s.rooms.GetRoom(roomID)
	if err != nil || !room.HasParticipant(reporter) {
		return models.Report{}, models.ErrReportRoomNotFound
	}

	id, err := s.newID()
	if err != nil {
		return models.Report{}, fmt.Errorf("%w: %w", models.ErrReportDatabase, err)
	}
	report := models.Report{
		ReportID:          id,
		RoomID:            roomID,
		ReporterSessionID: reporter,
		Reason:            reason,
		CreatedAt:         s.now(),
	}

	if err := s.store.SaveReport(ctx, models.NewReportRecord(report)); err != nil {
		return models.Report{}, fmt.Errorf("%w: %w", models.ErrReportDatabase, err)
	}
	s.logger.Info("report recorded", "report_id", id.String(), "room_id", roomID.String(), "reason", string(reason))

	// The room may have closed while the report was being saved.
	if err := s.rooms.CloseRoom(roomID, models.CloseReasonReported); err != nil && !errors.Is(err, models.ErrRoomNotFound) {
		return report, err
	}
	return report, nil
}
