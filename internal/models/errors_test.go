package models_test

import (
	"chachat/backend/internal/models"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestCategoryOf verifies the mapping from error codes to categories.
func TestCategoryOf(t *testing.T) {
	cases := []struct {
		err      error
		category models.Category
	}{
		{models.ErrInvalidID, models.CategoryValidation},
		{models.ErrMessageTooLong, models.CategoryValidation},
		{models.ErrUnknownEvent, models.CategoryValidation},
		{models.ErrAlreadyInQueue, models.CategoryBusinessLogic},
		{models.ErrNotInQueue, models.CategoryBusinessLogic},
		{models.ErrRoomNotFound, models.CategoryBusinessLogic},
		{models.ErrMessageRoomNotFound, models.CategoryBusinessLogic},
		{models.ErrReportRoomNotFound, models.CategoryBusinessLogic},
		{models.ErrSessionNotFound, models.CategoryBusinessLogic},
		{models.ErrRoomCreationFailed, models.CategoryTransient},
		{models.ErrRoomDatabase, models.CategoryFatal},
		{models.ErrMessageDatabase, models.CategoryFatal},
		{models.ErrReportDatabase, models.CategoryFatal},
		{models.ErrSessionGeneration, models.CategoryFatal},
		{errors.New("boom"), models.CategoryFatal},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.category, models.CategoryOf(tc.err), tc.err.Error())
	}
}

// TestNewErrorContext_Wrapped verifies that codes survive wrapping and only transient errors are retryable.
func TestNewErrorContext_Wrapped(t *testing.T) {
	err := fmt.Errorf("%w: %w", models.ErrRoomCreationFailed, errors.New("id source exhausted"))

	ctx := models.NewErrorContext(err, "trace-1")

	assert.Equal(t, models.CodeRoomCreationFailed, ctx.Code)
	assert.Equal(t, models.CategoryTransient, ctx.Category)
	assert.True(t, ctx.Retryable)
	assert.Equal(t, "trace-1", ctx.TraceID)

	plain := models.NewErrorContext(errors.New("boom"), "trace-2")
	assert.Equal(t, models.Code("INTERNAL_ERROR"), plain.Code)
	assert.False(t, plain.Retryable)
}

func TestParseReportReason(t *testing.T) {
	reason, err := models.ParseReportReason("harassment")
	assert.NoError(t, err)
	assert.Equal(t, models.ReportReasonHarassment, reason)

	_, err = models.ParseReportReason("boring")
	assert.ErrorIs(t, err, models.ErrInvalidReportReason)
}
