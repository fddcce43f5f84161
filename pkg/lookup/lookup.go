package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-regform/internal/sanitize"
)

// DefaultBaseURL is the BrasilAPI CEP v2 endpoint.
const DefaultBaseURL = "https://brasilapi.com.br/api/cep/v2"

const defaultTimeout = 10 * time.Second

var (
	// ErrNotFound matches lookups the service answered with 404.
	ErrNotFound = errors.New("lookup: zipcode not found")
	// ErrEmptyZipcode is returned before any request is made.
	ErrEmptyZipcode = errors.New("lookup: zipcode is required")
)

// Client resolves a postal code into an address.
type Client interface {
	Lookup(ctx context.Context, zipcode string) (Address, error)
}

// Address is the subset of the lookup payload the form consumes.
type Address struct {
	CEP          string `json:"cep"`
	State        string `json:"state"`
	City         string `json:"city"`
	Neighborhood string `json:"neighborhood"`
	Street       string `json:"street"`
	Service      string `json:"service,omitempty"`
}

// Line formats the street part shown in the address field.
func (a Address) Line() string {
	return a.Street + ", " + a.Neighborhood
}

// Locality formats the value shown in the city field.
func (a Address) Locality() string {
	return a.City + ", " + a.State
}

// Error carries a non-2xx answer from the lookup service.
type Error struct {
	Status  int
	Type    string
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("lookup: service returned status %d", e.Status)
	}
	return fmt.Sprintf("lookup: service returned status %d: %s", e.Status, e.Message)
}

// Is lets errors.Is(err, ErrNotFound) match 404 answers.
func (e *Error) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

// Message extracts the user-facing message of a lookup failure, if the service
// supplied one.
func Message(err error) string {
	var lookupErr *Error
	if errors.As(err, &lookupErr) {
		return lookupErr.Message
	}
	return ""
}

// Option configures the HTTP client.
type Option func(*HTTPClient)

// WithBaseURL points the client at another lookup service exposing the same
// `GET {base}/{zipcode}` contract.
func WithBaseURL(base string) Option {
	return func(c *HTTPClient) {
		if trimmed := strings.TrimSpace(base); trimmed != "" {
			c.baseURL = strings.TrimRight(trimmed, "/")
		}
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

// HTTPClient talks to a BrasilAPI-compatible CEP service.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewHTTPClient constructs a lookup client with a 10s timeout unless an
// *http.Client is supplied.
func NewHTTPClient(options ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     zerolog.Nop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(c)
	}
	return c
}

type errorPayload struct {
	Name    string `json:"name"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

// Lookup issues GET {base}/{zipcode}.
func (c *HTTPClient) Lookup(ctx context.Context, zipcode string) (Address, error) {
	zipcode = strings.TrimSpace(zipcode)
	if zipcode == "" {
		return Address{}, ErrEmptyZipcode
	}

	reqURL := c.baseURL + "/" + url.PathEscape(zipcode)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return Address{}, fmt.Errorf("lookup: new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Str("zipcode", zipcode).Msg("lookup request failed")
		return Address{}, fmt.Errorf("lookup: do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Address{}, fmt.Errorf("lookup: read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var payload errorPayload
		_ = json.Unmarshal(body, &payload)
		lookupErr := &Error{
			Status:  resp.StatusCode,
			Type:    payload.Type,
			Message: sanitize.Message(payload.Message),
		}
		c.logger.Debug().
			Int("status", resp.StatusCode).
			Str("zipcode", zipcode).
			Str("type", payload.Type).
			Msg("lookup rejected")
		return Address{}, lookupErr
	}

	var addr Address
	if err := json.Unmarshal(body, &addr); err != nil {
		return Address{}, fmt.Errorf("lookup: decode: %w", err)
	}
	c.logger.Debug().Str("zipcode", zipcode).Str("service", addr.Service).Msg("lookup resolved")
	return addr, nil
}
