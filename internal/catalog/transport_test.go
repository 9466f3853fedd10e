package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"horrorvault/internal/logger"
)

type countingAdmitter struct {
	calls atomic.Int32
	err   error
}

func (a *countingAdmitter) Admit(ctx context.Context) error {
	a.calls.Add(1)
	return a.err
}

func newTestTransport(t *testing.T, handler http.HandlerFunc, timeout time.Duration) (*Transport, *countingAdmitter) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	admitter := &countingAdmitter{}
	return NewTransport(TransportConfig{
		BaseURL:   srv.URL,
		APIKey:    "test-key",
		Timeout:   timeout,
		Throttler: admitter,
		Logger:    logger.Discard(),
	}), admitter
}

func TestTransportReturnsRawPayload(t *testing.T) {
	payload := `{"genres":[{"id":27,"name":"Horror"}],"extra":true}`
	var gotKey, gotAccept string

	tr, admitter := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.URL.Query().Get("api_key")
		gotAccept = r.Header.Get("Accept")
		_, _ = w.Write([]byte(payload))
	}, time.Second)

	body, err := tr.Get(context.Background(), "genres", "/genre/movie/list", nil)
	require.NoError(t, err)

	assert.Equal(t, payload, string(body))
	assert.Equal(t, "test-key", gotKey)
	assert.Equal(t, "application/json", gotAccept)
	assert.Equal(t, int32(1), admitter.calls.Load())
}

func TestTransportMapsStatuses(t *testing.T) {
	tr, _ := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"status_code":7,"status_message":"Invalid API key: You must be granted a valid key."}`))
	}, time.Second)

	_, err := tr.Get(context.Background(), "detail", "/movie/1", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAuth)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Contains(t, apiErr.Message, "Invalid API key")
}

func TestTransportTimeout(t *testing.T) {
	release := make(chan struct{})
	tr, _ := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, 50*time.Millisecond)
	defer close(release)

	_, err := tr.Get(context.Background(), "detail", "/movie/1", nil)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestTransportNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	tr := NewTransport(TransportConfig{
		BaseURL:   base,
		Throttler: &countingAdmitter{},
		Logger:    logger.Discard(),
	})

	_, err := tr.Get(context.Background(), "genres", "/genre/movie/list", nil)
	assert.ErrorIs(t, err, ErrNetwork)
}

func TestTransportKeepsKeyOutOfErrors(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	log, hook := test.NewNullLogger()
	tr := NewTransport(TransportConfig{
		BaseURL:   base,
		APIKey:    "SUPERSECRET",
		Throttler: &countingAdmitter{},
		Logger:    log,
	})

	_, err := tr.Get(context.Background(), "genres", "/genre/movie/list", url.Values{"page": {"1"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNetwork)
	assert.NotContains(t, err.Error(), "SUPERSECRET")
	assert.Contains(t, err.Error(), "/genre/movie/list")

	require.NotEmpty(t, hook.AllEntries())
	for _, entry := range hook.AllEntries() {
		line, lerr := entry.String()
		require.NoError(t, lerr)
		assert.NotContains(t, line, "SUPERSECRET")
	}
}

func TestCredentialDoesNotMutateCall(t *testing.T) {
	original := url.Values{"page": {"2"}}
	var seen url.Values

	h := Credential("secret")(func(ctx context.Context, call *Call) (*Response, error) {
		seen = call.Query
		return &Response{StatusCode: http.StatusOK}, nil
	})

	_, err := h(context.Background(), &Call{Path: "/x", Query: original})
	require.NoError(t, err)

	assert.Equal(t, "secret", seen.Get("api_key"))
	assert.Equal(t, "2", seen.Get("page"))
	assert.Empty(t, original.Get("api_key"))
}

func TestThrottleStageStopsOnAdmitError(t *testing.T) {
	admitter := &countingAdmitter{err: context.Canceled}
	called := false

	h := Throttle(admitter)(func(ctx context.Context, call *Call) (*Response, error) {
		called = true
		return &Response{StatusCode: http.StatusOK}, nil
	})

	_, err := h(context.Background(), &Call{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestErrorMapStage(t *testing.T) {
	tests := []struct {
		name string
		next Handler
		want error
	}{
		{
			name: "deadline",
			next: func(ctx context.Context, call *Call) (*Response, error) {
				return nil, context.DeadlineExceeded
			},
			want: ErrTimeout,
		},
		{
			name: "connection refused",
			next: func(ctx context.Context, call *Call) (*Response, error) {
				return nil, errors.New("dial tcp: connection refused")
			},
			want: ErrNetwork,
		},
		{
			name: "too many requests",
			next: func(ctx context.Context, call *Call) (*Response, error) {
				return &Response{StatusCode: http.StatusTooManyRequests}, nil
			},
			want: ErrRateLimited,
		},
		{
			name: "teapot",
			next: func(ctx context.Context, call *Call) (*Response, error) {
				return &Response{StatusCode: http.StatusTeapot, Body: []byte("nope")}, nil
			},
			want: ErrUnknownAPI,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ErrorMap()(tt.next)(context.Background(), &Call{Op: "test"})
			assert.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("caller cancellation passes through", func(t *testing.T) {
		_, err := ErrorMap()(func(ctx context.Context, call *Call) (*Response, error) {
			return nil, context.Canceled
		})(context.Background(), &Call{})
		assert.ErrorIs(t, err, context.Canceled)

		var apiErr *APIError
		assert.False(t, errors.As(err, &apiErr))
	})
}

func TestChainOrder(t *testing.T) {
	var order []string
	stage := func(name string) Middleware {
		return func(next Handler) Handler {
			return func(ctx context.Context, call *Call) (*Response, error) {
				order = append(order, name)
				return next(ctx, call)
			}
		}
	}

	h := Chain(func(ctx context.Context, call *Call) (*Response, error) {
		order = append(order, "send")
		return &Response{StatusCode: http.StatusOK}, nil
	}, stage("queue"), stage("credential"), stage("timeout"), stage("error-map"))

	_, err := h(context.Background(), &Call{})
	require.NoError(t, err)
	assert.Equal(t, []string{"queue", "credential", "timeout", "error-map", "send"}, order)
}
