package registration

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-regform/internal/sanitize"
	"github.com/goliatone/go-regform/pkg/model"
)

// DefaultEndpoint is the public registration endpoint the form posts to.
const DefaultEndpoint = "https://apis.codante.io/api/register-user/register"

// RequestIDHeader carries a per-submission identifier.
const RequestIDHeader = "X-Request-Id"

const defaultTimeout = 15 * time.Second

// ErrEndpointMissing is returned when the client has no endpoint configured.
var ErrEndpointMissing = errors.New("registration: endpoint is required")

// Client sends validated registrations to the remote endpoint.
type Client interface {
	Register(ctx context.Context, reg model.Registration) (Response, error)
}

// Response is the decoded success payload.
type Response struct {
	Status    int
	RequestID string
	Message   string
	Data      json.RawMessage
}

// ServerError is a non-2xx answer. Fields holds per-field messages as sent by
// the server, keyed by the server's own paths.
type ServerError struct {
	Status    int
	RequestID string
	Message   string
	Fields    map[string][]string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("registration: server returned status %d", e.Status)
	}
	return fmt.Sprintf("registration: server returned status %d: %s", e.Status, e.Message)
}

// Option configures the HTTP client.
type Option func(*HTTPClient)

// WithEndpoint overrides the registration URL.
func WithEndpoint(endpoint string) Option {
	return func(c *HTTPClient) {
		c.endpoint = strings.TrimSpace(endpoint)
	}
}

// WithHTTPClient overrides the underlying *http.Client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *HTTPClient) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithLogger attaches a logger; the client is silent by default.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *HTTPClient) {
		c.logger = logger
	}
}

// WithRequestID overrides how submission identifiers are generated.
func WithRequestID(fn func() string) Option {
	return func(c *HTTPClient) {
		if fn != nil {
			c.requestID = fn
		}
	}
}

// HTTPClient posts registrations as JSON.
type HTTPClient struct {
	endpoint   string
	httpClient *http.Client
	logger     zerolog.Logger
	requestID  func() string
}

// NewHTTPClient constructs a registration client for DefaultEndpoint unless
// overridden.
func NewHTTPClient(options ...Option) *HTTPClient {
	c := &HTTPClient{
		endpoint:   DefaultEndpoint,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     zerolog.Nop(),
		requestID:  uuid.NewString,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(c)
	}
	return c
}

type payload struct {
	Message string                     `json:"message"`
	Data    json.RawMessage            `json:"data"`
	Errors  map[string]json.RawMessage `json:"errors"`
}

// Register POSTs reg to the endpoint.
func (c *HTTPClient) Register(ctx context.Context, reg model.Registration) (Response, error) {
	if c.endpoint == "" {
		return Response{}, ErrEndpointMissing
	}

	body, err := json.Marshal(reg)
	if err != nil {
		return Response{}, fmt.Errorf("registration: marshal: %w", err)
	}

	requestID := c.requestID()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return Response{}, fmt.Errorf("registration: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)

	log := c.logger.With().Str("request_id", requestID).Logger()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn().Err(err).Msg("registration request failed")
		return Response{}, fmt.Errorf("registration: do request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Response{}, fmt.Errorf("registration: read body: %w", err)
	}

	var decoded payload
	decodeErr := json.Unmarshal(raw, &decoded)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		serverErr := &ServerError{
			Status:    resp.StatusCode,
			RequestID: requestID,
			Message:   sanitize.Message(decoded.Message),
			Fields:    decodeFieldErrors(decoded.Errors),
		}
		log.Info().
			Int("status", resp.StatusCode).
			Int("field_errors", len(serverErr.Fields)).
			Msg("registration rejected")
		return Response{}, serverErr
	}

	if decodeErr != nil && len(bytes.TrimSpace(raw)) > 0 {
		log.Debug().Err(decodeErr).Msg("registration response is not JSON")
	}
	log.Info().Int("status", resp.StatusCode).Msg("registration accepted")
	return Response{
		Status:    resp.StatusCode,
		RequestID: requestID,
		Message:   sanitize.Message(decoded.Message),
		Data:      decoded.Data,
	}, nil
}

// decodeFieldErrors accepts both `{"email": "taken"}` and Laravel-style
// `{"email": ["taken", ...]}` shapes.
func decodeFieldErrors(raw map[string]json.RawMessage) map[string][]string {
	if len(raw) == 0 {
		return nil
	}
	out := make(map[string][]string, len(raw))
	for field, value := range raw {
		var single string
		if err := json.Unmarshal(value, &single); err == nil {
			out[field] = appendMessage(out[field], single)
			continue
		}
		var many []string
		if err := json.Unmarshal(value, &many); err == nil {
			for _, msg := range many {
				out[field] = appendMessage(out[field], msg)
			}
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func appendMessage(list []string, msg string) []string {
	if cleaned := sanitize.Message(msg); cleaned != "" {
		return append(list, cleaned)
	}
	return list
}
