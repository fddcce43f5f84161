// Package model defines the registration record shared by the schema, the form
// controller and the registration client. Field names are the snake_case keys
// used on the wire (`name`, `password_confirmation`, `zipcode`, ...) and are
// reused verbatim as FieldErrors keys so server-reported errors and local
// validation errors land in the same channel. Raw records (`map[string]any`)
// are what a form holds before validation; Registration is what leaves it.
package model
