package tui

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-regform/pkg/form"
	"github.com/goliatone/go-regform/pkg/messages"
	"github.com/goliatone/go-regform/pkg/model"
)

// promptOrder lists the fields the user types. Address and city are derived
// from the zipcode lookup and never prompted.
var promptOrder = []string{
	model.FieldName,
	model.FieldEmail,
	model.FieldPassword,
	model.FieldPasswordConfirmation,
	model.FieldPhone,
	model.FieldCPF,
	model.FieldZipcode,
	model.FieldTerms,
}

// Runner drives a form.Controller from the terminal.
type Runner struct {
	controller *form.Controller
	catalog    *messages.Catalog
	driver     PromptDriver
	out        io.Writer
	theme      Theme
	logger     zerolog.Logger
}

// New constructs a runner with defaults (survey driver writing to stdout).
func New(controller *form.Controller, options ...Option) (*Runner, error) {
	if controller == nil {
		return nil, errors.New("tui: form controller is required")
	}

	r := &Runner{
		controller: controller,
		catalog:    controller.Catalog(),
		logger:     zerolog.Nop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	if r.driver == nil {
		r.driver = newSurveyDriver(r.out)
	}
	return r, nil
}

// Run collects every field, submits, and keeps going until a registration
// succeeds and the user declines another one. Rejected submissions re-prompt
// only the failing fields. Ctrl+C returns ErrAborted.
func (r *Runner) Run(ctx context.Context) error {
	if ctx == nil {
		return errors.New("tui: context is required")
	}

	fields := promptOrder
	for {
		if err := r.collect(ctx, fields); err != nil {
			return err
		}
		next, done, err := r.submit(ctx)
		if done || err != nil {
			return err
		}
		fields = next
	}
}

func (r *Runner) collect(ctx context.Context, fields []string) error {
	errs := r.controller.Errors()
	for _, field := range fields {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.showFieldError(ctx, field, errs); err != nil {
			return err
		}

		var err error
		switch field {
		case model.FieldPassword, model.FieldPasswordConfirmation:
			err = r.promptPassword(ctx, field)
		case model.FieldZipcode:
			err = r.promptZipcode(ctx)
		case model.FieldTerms:
			err = r.promptTerms(ctx)
		default:
			err = r.promptText(ctx, field)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) showFieldError(ctx context.Context, field string, errs model.FieldErrors) error {
	related := []string{field}
	if field == model.FieldZipcode {
		related = append(related, model.FieldAddress, model.FieldCity)
	}
	for _, name := range related {
		if msg := errs.Get(name); msg != "" {
			if err := r.info(ctx, r.theme.ErrorPrefix+r.catalog.Label(name)+": "+msg); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Runner) promptText(ctx context.Context, field string) error {
	answer, err := r.driver.Input(ctx, InputConfig{
		Message: r.label(field),
		Default: r.currentString(field),
	})
	if err != nil {
		return err
	}
	return r.controller.SetValue(field, answer)
}

func (r *Runner) promptPassword(ctx context.Context, field string) error {
	answer, err := r.driver.Password(ctx, InputConfig{Message: r.label(field)})
	if err != nil {
		return err
	}
	return r.controller.SetValue(field, answer)
}

func (r *Runner) promptTerms(ctx context.Context) error {
	current, _ := r.controller.Value(model.FieldTerms)
	accepted, _ := current.(bool)
	answer, err := r.driver.Confirm(ctx, ConfirmConfig{
		Message: r.theme.PromptPrefix + r.catalog.Text(messages.KeyPromptTerms),
		Default: accepted,
	})
	if err != nil {
		return err
	}
	return r.controller.SetValue(model.FieldTerms, answer)
}

// promptZipcode resolves the zipcode right away so the derived address is shown
// before the form is submitted.
func (r *Runner) promptZipcode(ctx context.Context) error {
	answer, err := r.driver.Input(ctx, InputConfig{
		Message: r.label(model.FieldZipcode),
		Default: r.currentString(model.FieldZipcode),
	})
	if err != nil {
		return err
	}

	lookupErr := r.controller.ChangeZipcode(ctx, answer)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if lookupErr != nil {
		if errors.Is(lookupErr, form.ErrStaleLookup) {
			return nil
		}
		return r.showFieldError(ctx, model.FieldZipcode, r.controller.Errors())
	}

	address := r.currentString(model.FieldAddress)
	if address == "" {
		return nil
	}
	if err := r.info(ctx, r.theme.InfoPrefix+r.catalog.Format(messages.KeyDerivedAddress, address)); err != nil {
		return err
	}
	return r.info(ctx, r.theme.InfoPrefix+r.catalog.Format(messages.KeyDerivedCity, r.currentString(model.FieldCity)))
}

// submit returns the fields to prompt next, or done once the session is over.
func (r *Runner) submit(ctx context.Context) ([]string, bool, error) {
	if err := r.info(ctx, r.theme.InfoPrefix+r.catalog.Text(messages.KeySubmitBusy)); err != nil {
		return nil, true, err
	}

	err := r.controller.SubmitCurrent(ctx)

	var validationErr *form.ValidationError
	switch {
	case err == nil:
		r.logger.Info().Msg("registration submitted")
		if err := r.showNotification(ctx); err != nil {
			return nil, true, err
		}
		another, err := r.driver.Confirm(ctx, ConfirmConfig{
			Message: r.theme.PromptPrefix + r.catalog.Text(messages.KeyPromptAnother),
		})
		if err != nil || !another {
			return nil, true, err
		}
		return promptOrder, false, nil

	case errors.As(err, &validationErr):
		r.logger.Debug().Strs("fields", validationErr.Errors.Fields()).Msg("registration incomplete")
		return fieldsToPrompt(validationErr.Errors), false, nil

	case ctx.Err() != nil:
		return nil, true, ctx.Err()

	case errors.Is(err, form.ErrSubmitInProgress):
		return nil, true, err
	}

	r.logger.Warn().Err(err).Msg("registration failed")
	if err := r.showNotification(ctx); err != nil {
		return nil, true, err
	}
	if errs := r.controller.Errors(); len(errs) > 0 {
		return fieldsToPrompt(errs), false, nil
	}

	retry, confirmErr := r.driver.Confirm(ctx, ConfirmConfig{
		Message: r.theme.PromptPrefix + r.catalog.Text(messages.KeyPromptRetry),
		Default: true,
	})
	if confirmErr != nil {
		return nil, true, confirmErr
	}
	if !retry {
		return nil, true, fmt.Errorf("%w: %w", ErrDeclined, err)
	}
	return nil, false, nil
}

func (r *Runner) showNotification(ctx context.Context) error {
	note, ok := r.controller.LastNotification()
	if !ok {
		return nil
	}
	prefix := r.theme.InfoPrefix
	if note.Kind == form.KindError {
		prefix = r.theme.ErrorPrefix
	}
	if err := r.info(ctx, prefix+note.Text); err != nil {
		return err
	}
	for _, msg := range note.FormErrors {
		if msg == note.Detail {
			continue
		}
		if err := r.info(ctx, prefix+msg); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) info(ctx context.Context, msg string) error {
	return r.driver.Info(ctx, msg)
}

func (r *Runner) label(field string) string {
	return r.theme.PromptPrefix + r.catalog.Label(field)
}

func (r *Runner) currentString(field string) string {
	v, _ := r.controller.Value(field)
	s, _ := v.(string)
	return s
}

// fieldsToPrompt maps errored fields back onto prompts. Address and city
// errors send the user back to the zipcode.
func fieldsToPrompt(errs model.FieldErrors) []string {
	var out []string
	for _, field := range promptOrder {
		switch {
		case errs.Has(field):
			out = append(out, field)
		case field == model.FieldZipcode && (errs.Has(model.FieldAddress) || errs.Has(model.FieldCity)):
			out = append(out, field)
		}
	}
	return out
}
