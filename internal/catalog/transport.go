package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"horrorvault/internal/throttle"
)

const (
	defaultTimeout  = 10 * time.Second
	userAgent       = "HorrorVault/1.0"
	apiKeyParam     = "api_key"
	maxResponseSize = 5 * 1024 * 1024 // 5MB
)

// Call is one logical catalog request as it moves through the pipeline.
type Call struct {
	ID    string
	Op    string
	Path  string
	Query url.Values
}

// Response is the raw upstream answer; Body is fully read.
type Response struct {
	StatusCode int
	Body       []byte
}

type Handler func(ctx context.Context, call *Call) (*Response, error)

type Middleware func(Handler) Handler

// Chain wraps h so that mws[0] runs first.
func Chain(h Handler, mws ...Middleware) Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// Admitter is satisfied by *throttle.Throttler.
type Admitter interface {
	Admit(ctx context.Context) error
}

// Throttle queues the call until the admitter lets it through.
func Throttle(a Admitter) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, call *Call) (*Response, error) {
			if err := a.Admit(ctx); err != nil {
				return nil, err
			}
			return next(ctx, call)
		}
	}
}

// Credential attaches the API key as a query parameter.
func Credential(apiKey string) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, call *Call) (*Response, error) {
			query := url.Values{}
			for k, v := range call.Query {
				query[k] = append([]string(nil), v...)
			}
			query.Set(apiKeyParam, apiKey)

			withKey := *call
			withKey.Query = query
			return next(ctx, &withKey)
		}
	}
}

// Timeout bounds everything downstream by d.
func Timeout(d time.Duration) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, call *Call) (*Response, error) {
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()
			return next(ctx, call)
		}
	}
}

// ErrorMap converts transport failures and non-2xx statuses into *APIError.
// A caller cancellation is passed through untouched.
func ErrorMap() Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, call *Call) (*Response, error) {
			resp, err := next(ctx, call)
			if err != nil {
				var apiErr *APIError
				var netErr net.Error
				switch {
				case errors.As(err, &apiErr):
					return nil, err
				case errors.Is(err, context.DeadlineExceeded),
					errors.As(err, &netErr) && netErr.Timeout():
					return nil, &APIError{Kind: ErrTimeout, Op: call.Op, Err: err}
				case errors.Is(err, context.Canceled):
					return nil, err
				default:
					return nil, &APIError{Kind: ErrNetwork, Op: call.Op, Err: err}
				}
			}

			if resp.StatusCode < 200 || resp.StatusCode > 299 {
				return nil, errorForStatus(call.Op, resp.StatusCode, upstreamMessage(resp))
			}
			return resp, nil
		}
	}
}

// Send performs the HTTP GET and reads the body with a size cap.
func Send(client *http.Client, baseURL, agent string, logger *logrus.Logger) Handler {
	base := strings.TrimRight(baseURL, "/")

	return func(ctx context.Context, call *Call) (*Response, error) {
		endpoint := base + call.Path
		if len(call.Query) > 0 {
			endpoint += "?" + call.Query.Encode()
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("User-Agent", agent)
		req.Header.Set("Accept", "application/json")

		started := time.Now()
		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to make HTTP request: %w", redactURLError(err, base+call.Path))
		}
		defer resp.Body.Close()

		body, err := readRespBody(resp)
		if err != nil {
			return nil, fmt.Errorf("failed to read response body: %w", err)
		}

		logger.WithFields(logrus.Fields{
			"request_id":    call.ID,
			"op":            call.Op,
			"path":          call.Path,
			"status":        resp.StatusCode,
			"response_size": len(body),
			"elapsed":       time.Since(started),
		}).Debug("Catalog request completed")

		return &Response{StatusCode: resp.StatusCode, Body: body}, nil
	}
}

// redactURLError drops the query string, and with it the API key, from the
// URL that net/http embeds in its errors.
func redactURLError(err error, endpoint string) error {
	var uerr *url.Error
	if !errors.As(err, &uerr) {
		return err
	}
	return &url.Error{Op: uerr.Op, URL: endpoint, Err: uerr.Err}
}

func readRespBody(resp *http.Response) ([]byte, error) {
	if resp.ContentLength > maxResponseSize {
		return nil, fmt.Errorf("response too large: %d bytes", resp.ContentLength)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize+1))
	if err != nil {
		return nil, err
	}
	if len(body) > maxResponseSize {
		return nil, fmt.Errorf("response too large: exceeded %d bytes", maxResponseSize)
	}
	return body, nil
}

// upstreamMessage pulls TMDB's status_message out of an error body.
func upstreamMessage(resp *Response) string {
	var payload struct {
		StatusMessage string `json:"status_message"`
	}
	if err := json.Unmarshal(resp.Body, &payload); err == nil && payload.StatusMessage != "" {
		return payload.StatusMessage
	}
	return http.StatusText(resp.StatusCode)
}

type TransportConfig struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	UserAgent  string
	Throttler  Admitter
	HTTPClient *http.Client
	Logger     *logrus.Logger
}

// Transport issues catalog calls through the fixed pipeline
// throttle, credential, timeout, error-map, send.
type Transport struct {
	handler Handler
	logger  *logrus.Logger
}

func NewTransport(config TransportConfig) *Transport {
	if config.Logger == nil {
		config.Logger = logrus.New()
	}
	if config.Timeout <= 0 {
		config.Timeout = defaultTimeout
	}
	if config.UserAgent == "" {
		config.UserAgent = userAgent
	}
	if config.Throttler == nil {
		config.Throttler = throttle.New(throttle.DefaultLimit, throttle.DefaultWindow)
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				MaxIdleConns:          100,
				MaxIdleConnsPerHost:   10,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
			},
		}
	}

	handler := Chain(
		Send(config.HTTPClient, config.BaseURL, config.UserAgent, config.Logger),
		Throttle(config.Throttler),
		Credential(config.APIKey),
		Timeout(config.Timeout),
		ErrorMap(),
	)

	return &Transport{handler: handler, logger: config.Logger}
}

// Get runs one catalog call and returns the raw payload.
func (t *Transport) Get(ctx context.Context, op, path string, query url.Values) ([]byte, error) {
	call := &Call{
		ID:    uuid.NewString(),
		Op:    op,
		Path:  path,
		Query: query,
	}

	resp, err := t.handler(ctx, call)
	if err != nil {
		t.logger.WithFields(logrus.Fields{
			"request_id": call.ID,
			"op":         op,
			"path":       path,
			"error":      err.Error(),
		}).Warn("Catalog request failed")
		return nil, err
	}
	return resp.Body, nil
}
