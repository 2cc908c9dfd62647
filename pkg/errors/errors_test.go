package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err    *AppError
		status int
	}{
		{Validation("bad input"), http.StatusBadRequest},
		{Conflict("already closed"), http.StatusBadRequest},
		{Unauthenticated("who are you"), http.StatusUnauthorized},
		{Forbidden("not yours"), http.StatusForbidden},
		{NotFound("consultation"), http.StatusNotFound},
		{Upstream("storage down", errors.New("timeout")), http.StatusBadGateway},
		{Internal(errors.New("boom")), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.status, tt.err.HTTPStatus(), tt.err.Message)
	}
}

func TestNotFoundMessage(t *testing.T) {
	assert.Equal(t, "patient not found", NotFound("patient").Error())
}

func TestIsCodeThroughWrapping(t *testing.T) {
	err := fmt.Errorf("handling request: %w", Conflict("already closed"))

	assert.True(t, IsCode(err, ErrConflict))
	assert.False(t, IsCode(err, ErrNotFound))
	assert.False(t, IsCode(errors.New("plain"), ErrConflict))
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Upstream("storage down", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
}
