package form

import (
	"github.com/rs/zerolog"

	"github.com/goliatone/go-regform/pkg/messages"
)

// Option configures a Controller.
type Option func(*Controller)

// WithCatalog selects the messages used for notifications and lookup
// fallbacks. When the controller builds its own schema, the schema uses it too.
func WithCatalog(catalog *messages.Catalog) Option {
	return func(c *Controller) {
		if catalog != nil {
			c.catalog = catalog
		}
	}
}

// WithNotifier registers the receiver of success and failure notifications.
func WithNotifier(notifier Notifier) Option {
	return func(c *Controller) {
		if notifier != nil {
			c.notifier = notifier
		}
	}
}

// WithLogger attaches a logger. The default discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(recorder Recorder) Option {
	return func(c *Controller) {
		if recorder != nil {
			c.recorder = recorder
		}
	}
}
