package catalog

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds surfaced by the transport and normalizer. Match them with
// errors.Is; the concrete value is always an *APIError.
var (
	ErrAuth               = errors.New("catalog: credential rejected")
	ErrNotFound           = errors.New("catalog: not found")
	ErrRateLimited        = errors.New("catalog: rate limited by upstream")
	ErrServiceUnavailable = errors.New("catalog: service unavailable")
	ErrNetwork            = errors.New("catalog: network failure")
	ErrTimeout            = errors.New("catalog: request timed out")
	ErrUnknownAPI         = errors.New("catalog: unexpected api response")
	ErrValidation         = errors.New("catalog: invalid payload")
)

type APIError struct {
	Kind    error
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *APIError) Error() string {
	msg := e.Kind.Error()
	if e.Op != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Op)
	}
	if e.Status != 0 {
		msg = fmt.Sprintf("%s: status %d", msg, e.Status)
	}
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Message)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *APIError) Is(target error) bool {
	return target == e.Kind
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// errorForStatus maps a non-2xx status to its kind.
func errorForStatus(op string, status int, message string) *APIError {
	var kind error
	switch status {
	case http.StatusUnauthorized:
		kind = ErrAuth
	case http.StatusNotFound:
		kind = ErrNotFound
	case http.StatusTooManyRequests:
		kind = ErrRateLimited
	case http.StatusInternalServerError, http.StatusServiceUnavailable:
		kind = ErrServiceUnavailable
	default:
		kind = ErrUnknownAPI
	}
	return &APIError{Kind: kind, Op: op, Status: status, Message: message}
}

func validationError(op, message string, err error) *APIError {
	return &APIError{Kind: ErrValidation, Op: op, Message: message, Err: err}
}

// Retryable reports whether a failure is transient enough to try again.
func Retryable(err error) bool {
	return errors.Is(err, ErrNetwork) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrRateLimited)
}

// Kind returns a short stable name for the error kind, "unknown" otherwise.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrAuth):
		return "auth"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrServiceUnavailable):
		return "service_unavailable"
	case errors.Is(err, ErrNetwork):
		return "network"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrUnknownAPI):
		return "api"
	default:
		return "unknown"
	}
}

// UserMessage returns the human-readable message category for err.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrNetwork):
		return "Connection lost in the fog..."
	case errors.Is(err, ErrTimeout):
		return "The spirits took too long to respond..."
	case errors.Is(err, ErrNotFound):
		return "This movie has vanished into the void..."
	case errors.Is(err, ErrAuth):
		return "The crypt keeper denies entry. Check your API key."
	case errors.Is(err, ErrRateLimited):
		return "Too many requests. The crypt is overwhelmed..."
	case errors.Is(err, ErrServiceUnavailable):
		return "The crypt is locked. Try again later."
	default:
		return "Something sinister happened..."
	}
}
