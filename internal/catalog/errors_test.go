package catalog

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorForStatus(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, ErrAuth},
		{http.StatusNotFound, ErrNotFound},
		{http.StatusTooManyRequests, ErrRateLimited},
		{http.StatusInternalServerError, ErrServiceUnavailable},
		{http.StatusServiceUnavailable, ErrServiceUnavailable},
		{http.StatusBadGateway, ErrUnknownAPI},
		{http.StatusBadRequest, ErrUnknownAPI},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			err := errorForStatus("detail", tt.status, "boom")
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, tt.status, err.Status)
			assert.Contains(t, err.Error(), "boom")
		})
	}
}

func TestRetryable(t *testing.T) {
	retryable := []error{ErrNetwork, ErrTimeout, ErrServiceUnavailable, ErrRateLimited}
	for _, kind := range retryable {
		err := fmt.Errorf("wrapped: %w", &APIError{Kind: kind})
		assert.True(t, Retryable(err), kind.Error())
	}

	terminal := []error{ErrAuth, ErrNotFound, ErrValidation, ErrUnknownAPI, errors.New("plain")}
	for _, kind := range terminal {
		assert.False(t, Retryable(&APIError{Kind: kind}), kind.Error())
	}
}

func TestUserMessageAndKind(t *testing.T) {
	assert.Equal(t, "This movie has vanished into the void...", UserMessage(&APIError{Kind: ErrNotFound}))
	assert.Equal(t, "Connection lost in the fog...", UserMessage(&APIError{Kind: ErrNetwork}))
	assert.Equal(t, "Something sinister happened...", UserMessage(errors.New("odd")))
	assert.Equal(t, "Something sinister happened...", UserMessage(&APIError{Kind: ErrUnknownAPI, Status: 418}))

	assert.Equal(t, "timeout", Kind(&APIError{Kind: ErrTimeout}))
	assert.Equal(t, "unknown", Kind(errors.New("odd")))
}

func TestAPIErrorUnwrapsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := &APIError{Kind: ErrNetwork, Op: "genres", Err: cause}

	assert.ErrorIs(t, err, ErrNetwork)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrTimeout)
}
