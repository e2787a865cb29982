package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSwiftIndexError_Unwrap_PreservesOriginalError(t *testing.T) {
	originalErr := errors.New("original error")

	wrapped := New(ErrCodeStoreIO, "store io failed", originalErr)

	require.NotNil(t, wrapped)
	assert.Equal(t, originalErr, errors.Unwrap(wrapped))
	assert.True(t, errors.Is(wrapped, originalErr))
}

func TestSwiftIndexError_Error_ReturnsFormattedMessage(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		message  string
		expected string
	}{
		{
			name:     "store error",
			code:     ErrCodeIndexNotFound,
			message:  "index directory not found",
			expected: "[ERR_101_INDEX_NOT_FOUND] index directory not found",
		},
		{
			name:     "capacity error",
			code:     ErrCodeCapacityExhausted,
			message:  "vector store at capacity",
			expected: "[ERR_201_CAPACITY_EXHAUSTED] vector store at capacity",
		},
		{
			name:     "parse error",
			code:     ErrCodeParseError,
			message:  "unexpected token",
			expected: "[ERR_301_PARSE_ERROR] unexpected token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, tt.message, nil)
			assert.Equal(t, tt.expected, err.Error())
		})
	}
}

func TestSwiftIndexError_Is_MatchesByCode(t *testing.T) {
	err1 := New(ErrCodeIndexNotFound, "index A not found", nil)
	err2 := New(ErrCodeIndexNotFound, "index B not found", nil)

	assert.True(t, errors.Is(err1, err2))
}

func TestSwiftIndexError_Is_DoesNotMatchDifferentCodes(t *testing.T) {
	err1 := New(ErrCodeIndexNotFound, "index not found", nil)
	err2 := New(ErrCodeSchemaMismatch, "schema mismatch", nil)

	assert.False(t, errors.Is(err1, err2))
}

func TestSwiftIndexError_WithDetails_AddsContext(t *testing.T) {
	err := New(ErrCodeIndexNotFound, "index not found", nil)

	err = err.WithDetail("path", "/foo/bar/.swiftindex")
	err = err.WithDetail("size", "1024")

	assert.Equal(t, "/foo/bar/.swiftindex", err.Details["path"])
	assert.Equal(t, "1024", err.Details["size"])
}

func TestSwiftIndexError_WithSuggestion_AddsSuggestion(t *testing.T) {
	err := New(ErrCodeEmbedderUnavailable, "embedder unreachable", nil)

	err = err.WithSuggestion("Check that the embedding endpoint is running")

	assert.Equal(t, "Check that the embedding endpoint is running", err.Suggestion)
}

func TestSwiftIndexError_CategoryFromCode(t *testing.T) {
	tests := []struct {
		code         string
		wantCategory Category
	}{
		{ErrCodeIndexNotFound, CategoryStore},
		{ErrCodeSchemaMismatch, CategoryStore},
		{ErrCodeChecksum, CategoryStore},
		{ErrCodeCapacityExhausted, CategoryCapacity},
		{ErrCodeDimensionMismatch, CategoryCapacity},
		{ErrCodeParseError, CategoryParse},
		{ErrCodeEmbedderUnavailable, CategoryParse},
		{ErrCodeInvalidArgument, CategoryValidation},
		{ErrCodeInternal, CategoryInternal},
		{ErrCodeCancelled, CategoryInternal},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := New(tt.code, "test message", nil)
			assert.Equal(t, tt.wantCategory, err.Category)
		})
	}
}

func TestSwiftIndexError_SeverityFromCode(t *testing.T) {
	tests := []struct {
		code         string
		wantSeverity Severity
	}{
		{ErrCodeChecksum, SeverityFatal},
		{ErrCodeIndexNotFound, SeverityError},
		{ErrCodeCapacityExhausted, SeverityWarning},
		{ErrCodeEmbedderUnavailable, SeverityWarning},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := New(tt.code, "test message", nil)
			assert.Equal(t, tt.wantSeverity, err.Severity)
		})
	}
}

func TestSwiftIndexError_RetryableFromCode(t *testing.T) {
	tests := []struct {
		code          string
		wantRetryable bool
	}{
		{ErrCodeCapacityExhausted, true},
		{ErrCodeEmbedderUnavailable, true},
		{ErrCodeIndexNotFound, false},
		{ErrCodeSchemaMismatch, false},
		{ErrCodeChecksum, false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := New(tt.code, "test message", nil)
			assert.Equal(t, tt.wantRetryable, err.Retryable)
		})
	}
}

func TestWrap_CreatesSwiftIndexErrorFromError(t *testing.T) {
	originalErr := errors.New("something went wrong")

	wrapped := Wrap(ErrCodeInternal, originalErr)

	require.NotNil(t, wrapped)
	assert.Equal(t, ErrCodeInternal, wrapped.Code)
	assert.Equal(t, "something went wrong", wrapped.Message)
	assert.Equal(t, originalErr, wrapped.Cause)
}

func TestIndexNotFound_CreatesStoreCategoryError(t *testing.T) {
	err := IndexNotFound("no .swiftindex directory here", nil)

	assert.Equal(t, CategoryStore, err.Category)
	assert.Contains(t, err.Code, "INDEX_NOT_FOUND")
}

func TestStoreIO_CreatesStoreCategoryError(t *testing.T) {
	err := StoreIO("cannot read chunk store", nil)

	assert.Equal(t, CategoryStore, err.Category)
}

func TestCapacityExhausted_CreatesRetryableError(t *testing.T) {
	err := CapacityExhausted("vector store full", nil)

	assert.Equal(t, CategoryCapacity, err.Category)
	assert.True(t, err.Retryable)
}

func TestInvalidArgument_CreatesValidationCategoryError(t *testing.T) {
	err := InvalidArgument("query cannot be empty", nil)

	assert.Equal(t, CategoryValidation, err.Category)
}

func TestIsRetryable_ChecksRetryableFlag(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "retryable SwiftIndexError",
			err:      New(ErrCodeCapacityExhausted, "full", nil),
			expected: true,
		},
		{
			name:     "non-retryable SwiftIndexError",
			err:      New(ErrCodeIndexNotFound, "not found", nil),
			expected: false,
		},
		{
			name:     "wrapped retryable error",
			err:      Wrap(ErrCodeCapacityExhausted, errors.New("wrapped")),
			expected: true,
		},
		{
			name:     "standard error",
			err:      errors.New("standard error"),
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsRetryable(tt.err))
		})
	}
}

func TestIsFatal_ChecksFatalSeverity(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "checksum error is fatal",
			err:      New(ErrCodeChecksum, "index corrupt", nil),
			expected: true,
		},
		{
			name:     "non-fatal error",
			err:      New(ErrCodeIndexNotFound, "not found", nil),
			expected: false,
		},
		{
			name:     "standard error",
			err:      errors.New("standard error"),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsFatal(tt.err))
		})
	}
}
