package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError(t *testing.T) {
	t.Run("Error returns formatted string", func(t *testing.T) {
		err := New(ErrCodeNotFound, "Bill not found")
		assert.Equal(t, "NOT_FOUND: Bill not found", err.Error())
	})

	t.Run("Error with cause includes cause", func(t *testing.T) {
		cause := errors.New("database connection failed")
		err := Wrap(ErrCodeDatabase, "Database error", cause)
		assert.Contains(t, err.Error(), "DATABASE_ERROR")
		assert.Contains(t, err.Error(), "Database error")
		assert.Contains(t, err.Error(), "database connection failed")
	})

	t.Run("WithCause adds cause to error", func(t *testing.T) {
		cause := errors.New("original error")
		err := New(ErrCodeInternal, "Something went wrong").WithCause(cause)
		assert.Equal(t, cause, err.Unwrap())
	})

	t.Run("WithDetails adds details to error", func(t *testing.T) {
		details := map[string]string{"field": "quantity", "reason": "must be positive"}
		err := New(ErrCodeValidation, "Validation failed").WithDetails(details)
		assert.Equal(t, details, err.Details)
	})
}

func TestErrorConstructors(t *testing.T) {
	tests := []struct {
		name         string
		constructor  func() *AppError
		expectedCode ErrorCode
	}{
		{"Unauthorized", func() *AppError { return Unauthorized("test") }, ErrCodeUnauthorized},
		{"Forbidden", func() *AppError { return Forbidden("test") }, ErrCodeForbidden},
		{"InvalidToken", func() *AppError { return InvalidToken("test") }, ErrCodeInvalidToken},
		{"NotFound", func() *AppError { return NotFound("Bill") }, ErrCodeNotFound},
		{"AlreadyExists", func() *AppError { return AlreadyExists("Product") }, ErrCodeAlreadyExists},
		{"ValidationError", func() *AppError { return ValidationError("test") }, ErrCodeValidation},
		{"InvalidInput", func() *AppError { return InvalidInput("quantity", "invalid") }, ErrCodeInvalidInput},
		{"MissingRequired", func() *AppError { return MissingRequired("identifier") }, ErrCodeMissingRequired},
		{"NoActivePairing", func() *AppError { return NoActivePairing() }, ErrCodeNoActivePairing},
		{"QueueFull", func() *AppError { return QueueFull(500) }, ErrCodeQueueFull},
		{"ProductNotFound", func() *AppError { return ProductNotFound("cola") }, ErrCodeProductNotFound},
		{"InsufficientStock", func() *AppError { return InsufficientStock("Cola", 2) }, ErrCodeInsufficientStock},
		{"RateLimitExceeded", func() *AppError { return RateLimitExceeded() }, ErrCodeRateLimitExceeded},
		{"Internal", func() *AppError { return Internal("test") }, ErrCodeInternal},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.constructor()
			assert.Equal(t, tc.expectedCode, err.Code)
			assert.NotEmpty(t, err.Message)
		})
	}
}

func TestDatabase(t *testing.T) {
	t.Run("wraps database error", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := Database(cause)
		assert.Equal(t, ErrCodeDatabase, err.Code)
		assert.Equal(t, cause, err.Unwrap())
	})
}

func TestIsAppError(t *testing.T) {
	t.Run("returns true for AppError", func(t *testing.T) {
		err := New(ErrCodeNotFound, "test")
		assert.True(t, IsAppError(err))
	})

	t.Run("returns false for standard error", func(t *testing.T) {
		err := errors.New("standard error")
		assert.False(t, IsAppError(err))
	})
}

func TestAsAppError(t *testing.T) {
	t.Run("extracts AppError", func(t *testing.T) {
		original := New(ErrCodeNotFound, "Bill not found")
		extracted, ok := AsAppError(original)
		assert.True(t, ok)
		assert.Equal(t, original, extracted)
	})

	t.Run("returns false for non-AppError", func(t *testing.T) {
		err := errors.New("standard error")
		extracted, ok := AsAppError(err)
		assert.False(t, ok)
		assert.Nil(t, extracted)
	})
}

func TestGetCode(t *testing.T) {
	t.Run("returns code for AppError", func(t *testing.T) {
		err := New(ErrCodeNotFound, "test")
		assert.Equal(t, ErrCodeNotFound, GetCode(err))
	})

	t.Run("returns ErrCodeInternal for standard error", func(t *testing.T) {
		err := errors.New("standard error")
		assert.Equal(t, ErrCodeInternal, GetCode(err))
	})
}

func TestDomainMessages(t *testing.T) {
	t.Run("product not found names the identifier", func(t *testing.T) {
		err := ProductNotFound("4901234567890")
		assert.Contains(t, err.Message, "4901234567890")
	})

	t.Run("insufficient stock names product and count", func(t *testing.T) {
		err := InsufficientStock("Cola 500ml", 3)
		assert.Contains(t, err.Message, "Cola 500ml")
		assert.Contains(t, err.Message, "3")
	})

	t.Run("queue full names the depth", func(t *testing.T) {
		err := QueueFull(500)
		assert.Contains(t, err.Message, "500")
	})
}
