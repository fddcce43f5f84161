// Package registration submits validated registrations to the remote endpoint
// and decodes its error payloads (`{message, errors}`) into field-keyed
// messages that can be merged back into the form's FieldErrors.
package registration
