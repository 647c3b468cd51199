package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBadRequestAlert(t *testing.T) {
	err := BadRequestAlert("A new subject cannot already have an ID", "subject", KeyIDExists)

	assert.Equal(t, http.StatusBadRequest, err.HTTPStatus)
	assert.Equal(t, "subject", err.EntityName)
	assert.Equal(t, KeyIDExists, err.ErrorKey)
	assert.True(t, err.IsAlert())
	assert.Equal(t, "A new subject cannot already have an ID", err.Error())
}

func TestAsWrapsUnknownErrors(t *testing.T) {
	cause := errors.New("connection refused")
	svcErr := As(fmt.Errorf("save subject: %w", cause))

	assert.Equal(t, http.StatusInternalServerError, svcErr.HTTPStatus)
	assert.Equal(t, "internal server error", svcErr.Message)
	assert.ErrorIs(t, svcErr, cause)
	assert.False(t, svcErr.IsAlert())
}

func TestAsKeepsServiceErrors(t *testing.T) {
	original := NotFound("subject")
	wrapped := fmt.Errorf("lookup: %w", original)

	assert.Same(t, original, As(wrapped))
	assert.Equal(t, http.StatusNotFound, As(wrapped).HTTPStatus)
}

func TestRateLimitExceeded(t *testing.T) {
	err := RateLimitExceeded(10, "1s")
	assert.Equal(t, http.StatusTooManyRequests, err.HTTPStatus)
	assert.Contains(t, err.Error(), "10 requests per 1s")
}
