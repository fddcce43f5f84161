package model

// Field names double as JSON keys, raw record keys and FieldErrors keys.
const (
	FieldName                 = "name"
	FieldEmail                = "email"
	FieldPassword             = "password"
	FieldPasswordConfirmation = "password_confirmation"
	FieldPhone                = "phone"
	FieldCPF                  = "cpf"
	FieldZipcode              = "zipcode"
	FieldAddress              = "address"
	FieldCity                 = "city"
	FieldTerms                = "terms"
)

var fieldOrder = []string{
	FieldName,
	FieldEmail,
	FieldPassword,
	FieldPasswordConfirmation,
	FieldPhone,
	FieldCPF,
	FieldZipcode,
	FieldAddress,
	FieldCity,
	FieldTerms,
}

// FieldNames returns the registration fields in display order.
func FieldNames() []string {
	return append([]string(nil), fieldOrder...)
}

// IsField reports whether name is one of the registration fields.
func IsField(name string) bool {
	return fieldIndex(name) >= 0
}

func fieldIndex(name string) int {
	for i, f := range fieldOrder {
		if f == name {
			return i
		}
	}
	return -1
}

// Registration is the typed record accepted by the registration schema and
// sent to the registration endpoint. Address and City are derived from the
// zipcode lookup but validated like any other field.
type Registration struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
	Phone                string `json:"phone"`
	CPF                  string `json:"cpf"`
	Zipcode              string `json:"zipcode"`
	Address              string `json:"address"`
	City                 string `json:"city"`
	Terms                bool   `json:"terms"`
}

// Values flattens the record into a raw value map keyed by field name.
func (r Registration) Values() map[string]any {
	return map[string]any{
		FieldName:                 r.Name,
		FieldEmail:                r.Email,
		FieldPassword:             r.Password,
		FieldPasswordConfirmation: r.PasswordConfirmation,
		FieldPhone:                r.Phone,
		FieldCPF:                  r.CPF,
		FieldZipcode:              r.Zipcode,
		FieldAddress:              r.Address,
		FieldCity:                 r.City,
		FieldTerms:                r.Terms,
	}
}

// RegistrationFromValues copies the known fields out of a raw record. Values of
// the wrong type are left at their zero value; callers are expected to run the
// record through the schema first.
func RegistrationFromValues(values map[string]any) Registration {
	terms, _ := values[FieldTerms].(bool)
	return Registration{
		Name:                 stringValue(values, FieldName),
		Email:                stringValue(values, FieldEmail),
		Password:             stringValue(values, FieldPassword),
		PasswordConfirmation: stringValue(values, FieldPasswordConfirmation),
		Phone:                stringValue(values, FieldPhone),
		CPF:                  stringValue(values, FieldCPF),
		Zipcode:              stringValue(values, FieldZipcode),
		Address:              stringValue(values, FieldAddress),
		City:                 stringValue(values, FieldCity),
		Terms:                terms,
	}
}

func stringValue(values map[string]any, key string) string {
	s, _ := values[key].(string)
	return s
}
