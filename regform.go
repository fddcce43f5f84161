package regform

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-regform/pkg/form"
	"github.com/goliatone/go-regform/pkg/lookup"
	"github.com/goliatone/go-regform/pkg/messages"
	"github.com/goliatone/go-regform/pkg/registration"
	"github.com/goliatone/go-regform/pkg/schema"
)

// Controller aliases form.Controller so callers can stay on the root package.
type Controller = form.Controller

// Notification aliases form.Notification.
type Notification = form.Notification

// Notifier aliases form.Notifier.
type Notifier = form.Notifier

// Recorder aliases form.Recorder.
type Recorder = form.Recorder

// Option configures New.
type Option func(*builder)

type builder struct {
	catalog     *messages.Catalog
	schema      *schema.Schema
	lookup      lookup.Client
	registrar   registration.Client
	lookupURL   string
	registerURL string
	httpClient  *http.Client
	logger      zerolog.Logger
	notifier    form.Notifier
	recorder    form.Recorder
}

// WithCatalog selects the message catalog for validation and notifications.
func WithCatalog(catalog *messages.Catalog) Option {
	return func(b *builder) {
		b.catalog = catalog
	}
}

// WithSchema replaces the registration schema.
func WithSchema(s *schema.Schema) Option {
	return func(b *builder) {
		b.schema = s
	}
}

// WithLookupClient replaces the HTTP zipcode lookup client.
func WithLookupClient(client lookup.Client) Option {
	return func(b *builder) {
		b.lookup = client
	}
}

// WithRegistrationClient replaces the HTTP registration client.
func WithRegistrationClient(client registration.Client) Option {
	return func(b *builder) {
		b.registrar = client
	}
}

// WithLookupURL points the default lookup client at another base URL.
func WithLookupURL(base string) Option {
	return func(b *builder) {
		b.lookupURL = base
	}
}

// WithRegisterURL points the default registration client at another endpoint.
func WithRegisterURL(endpoint string) Option {
	return func(b *builder) {
		b.registerURL = endpoint
	}
}

// WithHTTPClient shares one *http.Client between the default clients.
func WithHTTPClient(client *http.Client) Option {
	return func(b *builder) {
		b.httpClient = client
	}
}

// WithLogger hands a logger to the controller and the default clients.
func WithLogger(logger zerolog.Logger) Option {
	return func(b *builder) {
		b.logger = logger
	}
}

// WithNotifier registers the receiver of submission notifications.
func WithNotifier(notifier form.Notifier) Option {
	return func(b *builder) {
		b.notifier = notifier
	}
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(recorder form.Recorder) Option {
	return func(b *builder) {
		b.recorder = recorder
	}
}

// New wires a form controller with the default catalog, the registration
// schema and HTTP clients for BrasilAPI and the registration endpoint. Options
// override each piece.
func New(options ...Option) (*form.Controller, error) {
	b := &builder{logger: zerolog.Nop()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(b)
	}
	b.applyDefaults()

	formOpts := []form.Option{
		form.WithCatalog(b.catalog),
		form.WithLogger(b.logger),
		form.WithNotifier(b.notifier),
		form.WithRecorder(b.recorder),
	}
	return form.New(b.schema, b.lookup, b.registrar, formOpts...)
}

func (b *builder) applyDefaults() {
	if b.catalog == nil {
		b.catalog = messages.Default()
	}
	if b.schema == nil {
		b.schema = schema.Registration(b.catalog)
	}
	if b.lookup == nil {
		opts := []lookup.Option{
			lookup.WithLogger(b.logger.With().Str("component", "lookup").Logger()),
			lookup.WithHTTPClient(b.httpClient),
		}
		if b.lookupURL != "" {
			opts = append(opts, lookup.WithBaseURL(b.lookupURL))
		}
		b.lookup = lookup.NewHTTPClient(opts...)
	}
	if b.registrar == nil {
		opts := []registration.Option{
			registration.WithLogger(b.logger.With().Str("component", "registration").Logger()),
			registration.WithHTTPClient(b.httpClient),
		}
		if b.registerURL != "" {
			opts = append(opts, registration.WithEndpoint(b.registerURL))
		}
		b.registrar = registration.NewHTTPClient(opts...)
	}
}
