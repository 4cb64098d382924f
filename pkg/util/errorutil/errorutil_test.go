package errorutil

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestToDomainError(t *testing.T) {
	cause := errors.New("disk on fire")
	tests := []struct {
		name   string
		err    error
		code   string
		status int
	}{
		{"domain error passes through", NewValidationError("bad", nil), "VALIDATION_FAILED", http.StatusBadRequest},
		{"wrapped domain error", fmt.Errorf("ctx: %w", NewNotFound("report", nil)), "NOT_FOUND", http.StatusNotFound},
		{"deadline", fmt.Errorf("run: %w", context.DeadlineExceeded), "TIMEOUT", http.StatusGatewayTimeout},
		{"fiber error", fiber.NewError(http.StatusRequestEntityTooLarge, "too big"), "PAYLOAD_TOO_LARGE", http.StatusRequestEntityTooLarge},
		{"unavailable", NewUnavailable("postgres down", cause), "DEPENDENCY_UNAVAILABLE", http.StatusServiceUnavailable},
		{"plain error", cause, "INTERNAL_ERROR", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			de := ToDomainError(tt.err)
			assert.Equal(t, tt.code, de.Code)
			assert.Equal(t, tt.status, de.HTTPStatus)
		})
	}
	assert.Nil(t, ToDomainError(nil))
}

func TestDomainErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := NewInternalError(cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "internal server error: boom", err.Error())
}
