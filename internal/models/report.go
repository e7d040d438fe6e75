package models

import (
	"fmt"
	"time"
)

// ReportReason is the closed set of reasons a participant may give when reporting a room.
type ReportReason string

const (
	ReportReasonSpam                 ReportReason = "spam"
	ReportReasonHarassment           ReportReason = "harassment"
	ReportReasonInappropriateContent ReportReason = "inappropriate_content"
	ReportReasonOther                ReportReason = "other"
)

func ParseReportReason(value string) (ReportReason, error) {
	switch r := ReportReason(value); r {
	case ReportReasonSpam, ReportReasonHarassment, ReportReasonInappropriateContent, ReportReasonOther:
		return r, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidReportReason, value)
}

type Report struct {
	ReportID          ReportID
	RoomID            RoomID
	ReporterSessionID SessionID
	Reason            ReportReason
	CreatedAt         time.Time
}

// ReportRecord is the audit row stored in the reports table. It has no foreign
// key to chat_rooms.
type ReportRecord struct {
	ReportID          string    `gorm:"primaryKey;type:uuid"`
	RoomID            string    `gorm:"type:uuid;not null;index"`
	ReporterSessionID string    `gorm:"type:text;not null"`
	Reason            string    `gorm:"type:text;not null"`
	CreatedAt         time.Time `gorm:"not null;index"`
}

func (ReportRecord) TableName() string { return "reports" }

func NewReportRecord(r Report) *ReportRecord {
	return &ReportRecord{
		ReportID:          r.ReportID.String(),
		RoomID:            r.RoomID.String(),
		ReporterSessionID: r.ReporterSessionID.String(),
		Reason:            string(r.Reason),
		CreatedAt:         r.CreatedAt,
	}
}
