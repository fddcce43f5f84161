package form

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-regform/pkg/model"
)

var (
	// ErrSubmitInProgress is returned when Submit is called while a previous
	// submission is still waiting for the server.
	ErrSubmitInProgress = errors.New("form: submission already in progress")
	// ErrStaleLookup reports a lookup response that arrived after the zipcode
	// changed again or the form was reset. The response is discarded.
	ErrStaleLookup = errors.New("form: stale zipcode lookup discarded")
	// ErrUnknownField is returned when writing a field the schema does not know.
	ErrUnknownField = errors.New("form: unknown field")
)

// ValidationError carries the local validation failures of a submit attempt.
// No request was sent.
type ValidationError struct {
	Errors model.FieldErrors
}

func (e *ValidationError) Error() string {
	fields := e.Errors.Fields()
	if len(fields) == 0 {
		return "form: validation failed"
	}
	return fmt.Sprintf("form: validation failed: %s", strings.Join(fields, ", "))
}
