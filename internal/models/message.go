package models

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxMessageLength is the longest accepted message, counted in characters after trimming.
const MaxMessageLength = 500

var (
	scriptBlockRegex = regexp.MustCompile(`(?is)<(script|style)\b[^>]*>.*?</(script|style)\s*>`)
	markupTagRegex   = regexp.MustCompile(`<[^>]*>`)
)

// MessageText is chat text that passed validation and sanitization.
type MessageText struct{ value string }

// ParseMessageText trims value, enforces the length bounds and strips markup.
// Script and style elements are removed together with their content; any
// other tag is removed and its inner text kept.
func ParseMessageText(value string) (MessageText, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return MessageText{}, ErrEmptyMessage
	}
	if utf8.RuneCountInString(trimmed) > MaxMessageLength {
		return MessageText{}, ErrMessageTooLong
	}

	sanitized := scriptBlockRegex.ReplaceAllString(trimmed, "")
	sanitized = strings.TrimSpace(markupTagRegex.ReplaceAllString(sanitized, ""))
	if sanitized == "" {
		return MessageText{}, ErrEmptyMessage
	}
	return MessageText{value: sanitized}, nil
}

func (t MessageText) String() string { return t.value }

// Message is one chat line held by the retention store. It never outlives its room.
type Message struct {
	MessageID       MessageID
	RoomID          RoomID
	SenderSessionID SessionID
	Text            MessageText
	CreatedAt       time.Time
}
