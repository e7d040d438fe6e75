package models

import "errors"

// Code is the machine-readable error code sent to clients in the error event.
type Code string

const (
	CodeQueueError           Code = "QUEUE_ERROR"
	CodeAlreadyInQueue       Code = "ALREADY_IN_QUEUE"
	CodeRoomCreationFailed   Code = "ROOM_CREATION_FAILED"
	CodeRoomNotFound         Code = "ROOM_NOT_FOUND"
	CodeRoomDatabaseError    Code = "ROOM_DATABASE_ERROR"
	CodeAlreadyInRoom        Code = "ALREADY_IN_ROOM"
	CodeMessageRoomNotFound  Code = "MESSAGE_ROOM_NOT_FOUND"
	CodeMessageDatabaseError Code = "MESSAGE_DATABASE_ERROR"
	CodeSessionNotFound      Code = "SESSION_NOT_FOUND"
	CodeSessionError         Code = "SESSION_ERROR"
	CodeReportRoomNotFound   Code = "REPORT_ROOM_NOT_FOUND"
	CodeReportDatabaseError  Code = "REPORT_DATABASE_ERROR"
	CodeValidation           Code = "VALIDATION_ERROR"
	CodeUnknownEvent         Code = "UNKNOWN_EVENT"
)

// Error is a domain error. Instances are sentinels: compare them with errors.Is
// and attach causes with fmt.Errorf("%w: %w", sentinel, cause).
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return string(e.Code) + ": " + e.Message
}

var (
	// Validation
	ErrInvalidID           = &Error{Code: CodeValidation, Message: "identifier must be a UUID v4"}
	ErrEmptyMessage        = &Error{Code: CodeValidation, Message: "message text must not be empty"}
	ErrMessageTooLong      = &Error{Code: CodeValidation, Message: "message text exceeds the maximum length"}
	ErrInvalidReportReason = &Error{Code: CodeValidation, Message: "unknown report reason"}
	ErrInvalidPayload      = &Error{Code: CodeValidation, Message: "malformed event payload"}
	ErrUnknownEvent        = &Error{Code: CodeUnknownEvent, Message: "unknown event type"}

	// Matching
	ErrAlreadyInQueue     = &Error{Code: CodeAlreadyInQueue, Message: "session is already waiting for a match"}
	ErrNotInQueue         = &Error{Code: CodeQueueError, Message: "session is not in the queue"}
	ErrRoomCreationFailed = &Error{Code: CodeRoomCreationFailed, Message: "failed to create a room for the matched pair"}
	ErrAlreadyInRoom      = &Error{Code: CodeAlreadyInRoom, Message: "session is already in an active room"}

	// Rooms
	ErrRoomNotFound = &Error{Code: CodeRoomNotFound, Message: "room not found"}
	ErrRoomDatabase = &Error{Code: CodeRoomDatabaseError, Message: "failed to allocate a room"}

	// Messages
	ErrMessageRoomNotFound = &Error{Code: CodeMessageRoomNotFound, Message: "sender is not in this room"}
	ErrMessageDatabase     = &Error{Code: CodeMessageDatabaseError, Message: "failed to store the message"}

	// Sessions
	ErrSessionNotFound   = &Error{Code: CodeSessionNotFound, Message: "session not found"}
	ErrSessionGeneration = &Error{Code: CodeSessionError, Message: "failed to create a session"}

	// Reports
	ErrReportRoomNotFound = &Error{Code: CodeReportRoomNotFound, Message: "reporter is not in this room"}
	ErrReportDatabase     = &Error{Code: CodeReportDatabaseError, Message: "failed to record the report"}
)

// Category groups error codes by how callers should react to them.
type Category string

const (
	CategoryValidation    Category = "validation"
	CategoryBusinessLogic Category = "business_logic"
	CategoryTransient     Category = "transient"
	CategoryFatal         Category = "fatal"
)

// CodeOf returns the code of the first domain error in err's chain, or "" if there is none.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// CategoryOf classifies err. Errors carrying no domain code are treated as fatal.
func CategoryOf(err error) Category {
	switch CodeOf(err) {
	case CodeValidation, CodeUnknownEvent:
		return CategoryValidation
	case CodeRoomCreationFailed:
		return CategoryTransient
	case CodeRoomDatabaseError, CodeMessageDatabaseError, CodeReportDatabaseError, CodeSessionError, "":
		return CategoryFatal
	default:
		return CategoryBusinessLogic
	}
}

// ErrorContext is the translated form of an error, ready to be logged and sent to a client.
type ErrorContext struct {
	Category  Category
	Code      Code
	Message   string
	Retryable bool
	TraceID   string
}

func NewErrorContext(err error, traceID string) ErrorContext {
	category := CategoryOf(err)
	code := CodeOf(err)
	if code == "" {
		code = "INTERNAL_ERROR"
	}
	return ErrorContext{
		Category:  category,
		Code:      code,
		Message:   err.Error(),
		Retryable: category == CategoryTransient,
		TraceID:   traceID,
	}
}
