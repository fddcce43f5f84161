// Package schema implements a small declarative validation rule set: an
// ordered list of predicate+message rules per field, plus cross-field
// refinements that run only after the fields they read have passed. The first
// failing rule of a field wins; fields never short-circuit each other.
//
// Registration builds the user-registration schema. Length and email checks
// delegate to go-playground/validator tags; pattern rules are always anchored.
package schema
