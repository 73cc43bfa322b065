// Package http is the JSON transport shared by the backend API clients.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"shopping-assistant/internal/common/errors"
	"shopping-assistant/internal/common/logger"
	"shopping-assistant/internal/common/metrics"
)

const (
	HeaderRequestID = "X-Request-ID"
	maxBodyBytes    = 4 << 20
)

type Options struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	// Transport overrides the default round tripper, mainly for tests.
	Transport http.RoundTripper
}

type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	logger     logger.Logger
}

// Response is a successful (2xx) backend reply.
type Response struct {
	StatusCode int
	Body       []byte
	RequestID  string
}

func NewClient(opts Options, log logger.Logger) *Client {
	return &Client{
		baseURL:   strings.TrimSuffix(opts.BaseURL, "/"),
		userAgent: opts.UserAgent,
		httpClient: &http.Client{
			Timeout:   opts.Timeout,
			Transport: opts.Transport,
		},
		logger: log,
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do sends a JSON request and returns the raw body of a 2xx reply. operation
// names the call for metrics, spans and error details. Non-2xx replies become
// typed StandardErrors.
func (c *Client) Do(ctx context.Context, operation, method, path string, body interface{}) (*Response, error) {
	ctx, span := otel.Tracer("shopping-assistant/http").Start(ctx, operation)
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("http.path", path),
	)

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, errors.NewInvalidInputError("request body", err.Error())
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, errors.NewInvalidInputError("request", err.Error())
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(HeaderRequestID, requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	log := c.logger.WithFields(map[string]interface{}{
		"operation": operation,
		"method":    method,
		"path":      path,
		"requestId": requestID,
	})

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.BackendRequestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.BackendRequests.WithLabelValues(operation, "error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport error")
		log.Warn("backend request failed", map[string]interface{}{"error": err.Error()})
		if ctx.Err() != nil || isTimeout(err) {
			return nil, errors.NewBackendTimeoutError(path)
		}
		return nil, errors.NewBackendUnavailableError(path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		metrics.BackendRequests.WithLabelValues(operation, "error").Inc()
		return nil, errors.NewBackendUnavailableError(path, fmt.Errorf("read body: %w", err))
	}

	status := strconv.Itoa(resp.StatusCode)
	metrics.BackendRequests.WithLabelValues(operation, status).Inc()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	log.Debug("backend request completed", map[string]interface{}{
		"status":     resp.StatusCode,
		"durationMs": time.Since(start).Milliseconds(),
	})

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		span.SetStatus(codes.Error, status)
		return nil, statusError(path, resp.StatusCode, data)
	}

	return &Response{StatusCode: resp.StatusCode, Body: data, RequestID: requestID}, nil
}

func statusError(path string, status int, body []byte) *errors.StandardError {
	switch status {
	case http.StatusNotFound:
		return errors.NewResourceNotFoundError("resource", path)
	case http.StatusUnauthorized, http.StatusForbidden:
		return errors.NewAuthenticationError(fmt.Sprintf("status %d: %s", status, backendMessage(body)))
	case http.StatusTooManyRequests:
		return errors.NewRateLimitedError(backendMessage(body))
	default:
		return errors.NewBackendRequestFailedError(path, status, string(body))
	}
}

// backendMessage extracts a human readable message from an error body.
func backendMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Detail  string `json:"detail"`
		Error   struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		switch {
		case payload.Message != "":
			return payload.Message
		case payload.Detail != "":
			return payload.Detail
		case payload.Error.Message != "":
			return payload.Error.Message
		}
	}
	return strings.TrimSpace(string(body))
}

func isTimeout(err error) bool {
	var netErr interface{ Timeout() bool }
	return stderrors.As(err, &netErr) && netErr.Timeout()
}
