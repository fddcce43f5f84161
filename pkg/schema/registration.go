package schema

import (
	"github.com/goliatone/go-regform/pkg/messages"
	"github.com/goliatone/go-regform/pkg/model"
)

// Patterns for the masked registration inputs.
const (
	PhonePattern   = `^\(\d{2}\) \d{5}-\d{4}$`
	CPFPattern     = `^\d{3}\.\d{3}\.\d{3}-\d{2}$`
	ZipcodePattern = `^\d{5}-\d{3}$`
)

// Length bounds enforced on the registration fields.
const (
	NameMinLength     = 3
	NameMaxLength     = 255
	PasswordMinLength = 8
)

// Registration returns the registration schema with messages resolved from
// catalog. A nil catalog uses the built-in defaults.
func Registration(catalog *messages.Catalog) *Schema {
	if catalog == nil {
		catalog = messages.Default()
	}
	required := func(field string) Rule {
		return MinLen(1, catalog.Required(field))
	}
	passwordMin := MinLen(PasswordMinLength, catalog.Text(messages.KeyPasswordMin))

	fields := []Field{
		{Name: model.FieldName, Rules: []Rule{
			required(model.FieldName),
			MinLen(NameMinLength, catalog.Text(messages.KeyNameMin)),
			MaxLen(NameMaxLength, catalog.Text(messages.KeyNameMax)),
		}},
		{Name: model.FieldEmail, Rules: []Rule{
			required(model.FieldEmail),
			Email(catalog.Text(messages.KeyEmailInvalid)),
		}},
		{Name: model.FieldPassword, Rules: []Rule{passwordMin}},
		{Name: model.FieldPasswordConfirmation, Rules: []Rule{passwordMin}},
		{Name: model.FieldPhone, Rules: []Rule{
			required(model.FieldPhone),
			Pattern(PhonePattern, catalog.Text(messages.KeyPhoneInvalid)),
		}},
		{Name: model.FieldCPF, Rules: []Rule{
			required(model.FieldCPF),
			Pattern(CPFPattern, catalog.Text(messages.KeyCPFInvalid)),
		}},
		{Name: model.FieldZipcode, Rules: []Rule{
			required(model.FieldZipcode),
			Pattern(ZipcodePattern, catalog.Text(messages.KeyZipcodeInvalid)),
		}},
		{Name: model.FieldCity, Rules: []Rule{required(model.FieldCity)}},
		{Name: model.FieldAddress, Rules: []Rule{required(model.FieldAddress)}},
		{Name: model.FieldTerms, Rules: []Rule{
			Literal(true, catalog.Text(messages.KeyTermsRequired)),
		}},
	}

	passwordsMatch := Refinement{
		Path:      model.FieldPasswordConfirmation,
		DependsOn: []string{model.FieldPassword},
		Message:   catalog.Text(messages.KeyPasswordMismatch),
		Check: func(values map[string]any) bool {
			return values[model.FieldPassword] == values[model.FieldPasswordConfirmation]
		},
	}

	return New(fields, passwordsMatch)
}

// ValidateRegistration runs raw through s. On success it returns the typed
// record and nil errors; otherwise the zero record and the field errors.
func ValidateRegistration(s *Schema, raw map[string]any) (model.Registration, model.FieldErrors) {
	errs := s.Validate(raw)
	if len(errs) > 0 {
		return model.Registration{}, errs
	}
	return model.RegistrationFromValues(raw), nil
}
