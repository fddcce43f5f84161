package form

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-regform/pkg/lookup"
	"github.com/goliatone/go-regform/pkg/messages"
	"github.com/goliatone/go-regform/pkg/model"
	"github.com/goliatone/go-regform/pkg/registration"
	"github.com/goliatone/go-regform/pkg/schema"
)

var zipcodeRe = regexp.MustCompile(schema.ZipcodePattern)

// Phase is the submission state of the form.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseSubmitting Phase = "submitting"
)

// Controller owns the form values and field errors. All methods are safe for
// concurrent use; network calls run without the lock held.
type Controller struct {
	schema    *schema.Schema
	lookup    lookup.Client
	registrar registration.Client
	catalog   *messages.Catalog
	notifier  Notifier
	recorder  Recorder
	logger    zerolog.Logger
	now       func() time.Time
	fields    map[string]struct{}

	mu        sync.Mutex
	values    map[string]any
	errors    model.FieldErrors
	phase     Phase
	lookupSeq uint64
	last      *Notification
}

// New builds a controller with an empty form. A nil schema selects the
// registration schema rendered with the controller's catalog.
func New(s *schema.Schema, lookupClient lookup.Client, registrar registration.Client, options ...Option) (*Controller, error) {
	if lookupClient == nil {
		return nil, errors.New("form: lookup client is required")
	}
	if registrar == nil {
		return nil, errors.New("form: registration client is required")
	}

	c := &Controller{
		schema:    s,
		lookup:    lookupClient,
		registrar: registrar,
		catalog:   messages.Default(),
		notifier:  noopNotifier{},
		recorder:  noopRecorder{},
		logger:    zerolog.Nop(),
		now:       time.Now,
		values:    make(map[string]any),
		errors:    model.FieldErrors{},
		phase:     PhaseIdle,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(c)
	}
	if c.schema == nil {
		c.schema = schema.Registration(c.catalog)
	}

	names := c.schema.Fields()
	c.fields = make(map[string]struct{}, len(names))
	for _, name := range names {
		c.fields[name] = struct{}{}
	}
	return c, nil
}

// Catalog returns the messages the controller reports with.
func (c *Controller) Catalog() *messages.Catalog {
	return c.catalog
}

// Values returns a copy of the current values.
func (c *Controller) Values() map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneValues(c.values)
}

// Value returns the current value of field.
func (c *Controller) Value(field string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[field]
	return deepCopy(v), ok
}

// Errors returns a copy of the current field errors.
func (c *Controller) Errors() model.FieldErrors {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errors.Clone()
}

// Phase reports whether a submission is in flight.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// LastNotification returns the most recent notification, if any.
func (c *Controller) LastNotification() (Notification, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last == nil {
		return Notification{}, false
	}
	n := *c.last
	n.FormErrors = append([]string(nil), n.FormErrors...)
	return n, true
}

// SetValue writes a field. A field that currently shows an error is
// re-validated right away, together with any field whose cross-field rule
// depends on it, so corrections clear their message.
func (c *Controller) SetValue(field string, value any) error {
	if _, ok := c.fields[field]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setLocked(field, value)
	return nil
}

// Reset empties values and errors and invalidates in-flight lookups. It does
// not interrupt a running submission.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
}

// ChangeZipcode stores a new zipcode. A value that does not match the zipcode
// pattern clears address and city without a lookup. A matching value is
// resolved through the lookup client: success fills address and city, failure
// puts the service message on the zipcode field and clears both. A response
// that no longer belongs to the current zipcode is dropped with ErrStaleLookup.
func (c *Controller) ChangeZipcode(ctx context.Context, value string) error {
	seq, ok := c.beginLookup(value)
	if !ok {
		return nil
	}
	return c.finishLookup(ctx, seq, value)
}

// ChangeZipcodeAsync is ChangeZipcode without waiting for the lookup. The value
// is stored before it returns; the channel yields the lookup result once.
func (c *Controller) ChangeZipcodeAsync(ctx context.Context, value string) <-chan error {
	done := make(chan error, 1)
	seq, ok := c.beginLookup(value)
	if !ok {
		done <- nil
		close(done)
		return done
	}
	go func() {
		defer close(done)
		done <- c.finishLookup(ctx, seq, value)
	}()
	return done
}

func (c *Controller) beginLookup(value string) (uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lookupSeq++
	c.setLocked(model.FieldZipcode, value)
	if !zipcodeRe.MatchString(value) {
		c.values[model.FieldAddress] = ""
		c.values[model.FieldCity] = ""
		return c.lookupSeq, false
	}
	return c.lookupSeq, true
}

func (c *Controller) finishLookup(ctx context.Context, seq uint64, zipcode string) error {
	c.logger.Debug().Str("zipcode", zipcode).Uint64("seq", seq).Msg("zipcode lookup started")

	started := c.now()
	addr, err := c.lookup.Lookup(ctx, zipcode)
	took := c.now().Sub(started)

	c.mu.Lock()
	defer c.mu.Unlock()

	if seq != c.lookupSeq || c.values[model.FieldZipcode] != zipcode {
		c.logger.Debug().Str("zipcode", zipcode).Uint64("seq", seq).Msg("zipcode lookup superseded")
		c.recorder.LookupCompleted(OutcomeStale, took)
		return ErrStaleLookup
	}

	if err != nil {
		c.recorder.LookupCompleted(OutcomeFailed, took)
		if ctx.Err() != nil {
			return fmt.Errorf("form: zipcode lookup: %w", err)
		}
		msg := lookup.Message(err)
		if msg == "" {
			msg = c.catalog.Text(messages.KeyLookupFailed)
		}
		c.errors.Set(model.FieldZipcode, msg)
		c.values[model.FieldAddress] = ""
		c.values[model.FieldCity] = ""
		c.logger.Warn().Err(err).Str("zipcode", zipcode).Msg("zipcode lookup failed")
		return fmt.Errorf("form: zipcode lookup: %w", err)
	}

	c.values[model.FieldAddress] = addr.Line()
	c.values[model.FieldCity] = addr.Locality()
	c.errors.Clear(model.FieldZipcode, model.FieldAddress, model.FieldCity)
	c.recorder.LookupCompleted(OutcomeOK, took)
	c.logger.Debug().Str("zipcode", zipcode).Dur("took", took).Msg("zipcode resolved")
	return nil
}

// Submit replaces the form values with raw and submits them.
func (c *Controller) Submit(ctx context.Context, raw map[string]any) error {
	return c.submit(ctx, func() {
		c.values = cloneValues(raw)
	})
}

// SubmitCurrent submits the values already held by the form.
//
// Local validation failures replace the field errors and return a
// *ValidationError without contacting the server. A success raises a success
// notification and resets the form. A failure raises an error notification and
// distributes the server's field messages into the field errors. Calls made
// while a submission is in flight return ErrSubmitInProgress.
func (c *Controller) SubmitCurrent(ctx context.Context) error {
	return c.submit(ctx, nil)
}

func (c *Controller) submit(ctx context.Context, load func()) error {
	c.mu.Lock()
	if c.phase == PhaseSubmitting {
		c.mu.Unlock()
		return ErrSubmitInProgress
	}
	if load != nil {
		load()
	}

	reg, errs := schema.ValidateRegistration(c.schema, c.values)
	if errs != nil {
		c.errors = errs.Clone()
		c.mu.Unlock()

		for _, field := range errs.Fields() {
			c.recorder.ValidationFailed(field)
		}
		c.recorder.SubmissionCompleted(OutcomeInvalid, 0)
		c.logger.Debug().Strs("fields", errs.Fields()).Msg("registration rejected locally")
		return &ValidationError{Errors: errs}
	}
	c.errors = model.FieldErrors{}
	c.phase = PhaseSubmitting
	c.mu.Unlock()

	started := c.now()
	resp, err := c.registrar.Register(ctx, reg)
	took := c.now().Sub(started)

	c.mu.Lock()
	c.phase = PhaseIdle
	var (
		note    Notification
		outcome string
	)
	if err == nil {
		c.resetLocked()
		note = Notification{
			Kind:   KindSuccess,
			Text:   c.catalog.Text(messages.KeySubmitSuccess),
			Detail: resp.Message,
		}
		outcome = OutcomeOK
	} else {
		note, outcome = c.failureLocked(err)
	}
	c.last = &note
	c.mu.Unlock()

	c.recorder.SubmissionCompleted(outcome, took)
	c.notifier.Notify(note)

	if err != nil {
		c.logger.Warn().Err(err).Str("outcome", outcome).Msg("registration failed")
		return fmt.Errorf("form: submit: %w", err)
	}
	c.logger.Info().Str("request_id", resp.RequestID).Dur("took", took).Msg("registration accepted")
	return nil
}

func (c *Controller) failureLocked(err error) (Notification, string) {
	var serverErr *registration.ServerError
	if !errors.As(err, &serverErr) {
		detail := c.catalog.Text(messages.KeySubmitUnavailable)
		return Notification{
			Kind:   KindError,
			Text:   c.catalog.Format(messages.KeySubmitFailure, detail),
			Detail: detail,
		}, OutcomeFailed
	}

	mapping := registration.MapErrorPayload(c.schema.Fields(), serverErr.Fields)
	c.errors.Merge(mapping.FieldErrors())

	detail := serverErr.Message
	if detail == "" && len(mapping.Form) > 0 {
		detail = mapping.Form[0]
	}
	if detail == "" {
		detail = c.catalog.Text(messages.KeySubmitUnavailable)
	}
	return Notification{
		Kind:       KindError,
		Text:       c.catalog.Format(messages.KeySubmitFailure, detail),
		Detail:     detail,
		FormErrors: mapping.Form,
	}, OutcomeRejected
}

func (c *Controller) setLocked(field string, value any) {
	c.values[field] = value
	c.revalidateLocked(field)
	c.revalidateLocked(c.schema.Dependents(field)...)
}

func (c *Controller) revalidateLocked(fields ...string) {
	for _, field := range fields {
		if !c.errors.Has(field) {
			continue
		}
		if msg, ok := c.schema.ValidateField(field, c.values); ok {
			c.errors.Clear(field)
		} else {
			c.errors.Set(field, msg)
		}
	}
}

func (c *Controller) resetLocked() {
	c.values = make(map[string]any)
	c.errors = model.FieldErrors{}
	c.lookupSeq++
}
