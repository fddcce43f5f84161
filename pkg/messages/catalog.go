package messages

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Message keys understood by the schema, the form controller and the TUI.
const (
	KeyRequired          = "validation.required"
	KeyNameMin           = "validation.name.min"
	KeyNameMax           = "validation.name.max"
	KeyEmailInvalid      = "validation.email.invalid"
	KeyPasswordMin       = "validation.password.min"
	KeyPasswordMismatch  = "validation.password.mismatch"
	KeyPhoneInvalid      = "validation.phone.invalid"
	KeyCPFInvalid        = "validation.cpf.invalid"
	KeyZipcodeInvalid    = "validation.zipcode.invalid"
	KeyTermsRequired     = "validation.terms.required"
	KeySubmitSuccess     = "submit.success"
	KeySubmitFailure     = "submit.failure"
	KeySubmitUnavailable = "submit.unavailable"
	KeySubmitBusy        = "submit.busy"
	KeyLookupFailed      = "lookup.failed"
	KeyPromptAnother     = "prompt.another"
	KeyPromptRetry       = "prompt.retry"
	KeyPromptTerms       = "prompt.terms"
	KeyDerivedAddress    = "derived.address"
	KeyDerivedCity       = "derived.city"
)

const (
	labelPrefix      = "label."
	defaultLocale    = "pt-BR"
	fieldPlaceholder = "{field}"
)

var defaults = map[string]string{
	KeyRequired:          "O campo {field} precisa ser preenchido",
	KeyNameMin:           "O nome deve ter no mínimo 3 caracteres",
	KeyNameMax:           "O nome deve ter no máximo 255 caracteres",
	KeyEmailInvalid:      "Email inválido",
	KeyPasswordMin:       "A senha deve ter no minimo 8 caracteres",
	KeyPasswordMismatch:  "As senhas devem coincidir",
	KeyPhoneInvalid:      "Telefone inválido",
	KeyCPFInvalid:        "CPF inválido",
	KeyZipcodeInvalid:    "CEP inválido",
	KeyTermsRequired:     "Voce precisa aceitar os termos de uso",
	KeySubmitSuccess:     "Usuário cadastrado com sucesso!",
	KeySubmitFailure:     "Erro ao cadastrar o usuário: %s",
	KeySubmitUnavailable: "não foi possível contatar o servidor",
	KeySubmitBusy:        "Cadastrando...",
	KeyLookupFailed:      "Não foi possível consultar o CEP",
	KeyPromptAnother:     "Cadastrar outro usuário?",
	KeyPromptRetry:       "Tentar novamente?",
	KeyPromptTerms:       "Aceito os termos e condições",
	KeyDerivedAddress:    "Endereço: %s",
	KeyDerivedCity:       "Cidade: %s",

	labelPrefix + "name":                  "Nome Completo",
	labelPrefix + "email":                 "E-mail",
	labelPrefix + "password":              "Senha",
	labelPrefix + "password_confirmation": "Confirmar Senha",
	labelPrefix + "phone":                 "Telefone Celular",
	labelPrefix + "cpf":                   "CPF",
	labelPrefix + "zipcode":               "CEP",
	labelPrefix + "address":               "Endereço",
	labelPrefix + "city":                  "Cidade",
	labelPrefix + "terms":                 "Termos",

	// Field names as they appear inside the required message.
	"required.name":    "nome",
	"required.email":   "email",
	"required.phone":   "telefone",
	"required.cpf":     "CPF",
	"required.zipcode": "CEP",
	"required.address": "endereço",
	"required.city":    "cidade",
}

// Catalog resolves message keys into display text. The zero value is not
// usable; start from Default.
type Catalog struct {
	locale   string
	messages map[string]string
}

// Default returns a catalog seeded with the built-in pt-BR messages.
func Default() *Catalog {
	c := &Catalog{locale: defaultLocale, messages: make(map[string]string, len(defaults))}
	for k, v := range defaults {
		c.messages[k] = v
	}
	return c
}

// Locale reports the catalog locale.
func (c *Catalog) Locale() string {
	if c == nil {
		return defaultLocale
	}
	return c.locale
}

// Text returns the message for key, or the key itself when unknown.
func (c *Catalog) Text(key string) string {
	if c != nil {
		if msg, ok := c.messages[key]; ok {
			return msg
		}
	}
	if msg, ok := defaults[key]; ok {
		return msg
	}
	return key
}

// Format applies fmt-style arguments to the message for key.
func (c *Catalog) Format(key string, args ...any) string {
	return fmt.Sprintf(c.Text(key), args...)
}

// Label returns the display label of a form field.
func (c *Catalog) Label(field string) string {
	label := c.Text(labelPrefix + field)
	if label == labelPrefix+field {
		return field
	}
	return label
}

// Required renders the "field must be filled" message for field.
func (c *Catalog) Required(field string) string {
	name := c.Text("required." + field)
	if name == "required."+field {
		name = field
	}
	return strings.ReplaceAll(c.Text(KeyRequired), fieldPlaceholder, name)
}

// Set overrides a single message.
func (c *Catalog) Set(key, text string) {
	if c == nil || strings.TrimSpace(key) == "" {
		return
	}
	c.messages[key] = text
}

type catalogFile struct {
	Locale   string            `yaml:"locale"`
	Messages map[string]string `yaml:"messages"`
}

// Load overlays a YAML (or JSON) document on top of the default catalog:
//
//	locale: en
//	messages:
//	  validation.cpf.invalid: Invalid CPF
func Load(data []byte) (*Catalog, error) {
	var doc catalogFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("messages: parse catalog: %w", err)
	}
	c := Default()
	if locale := strings.TrimSpace(doc.Locale); locale != "" {
		c.locale = locale
	}
	for key, text := range doc.Messages {
		c.Set(strings.TrimSpace(key), text)
	}
	return c, nil
}

// LoadFile reads a catalog document from disk. An empty path yields Default.
func LoadFile(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("messages: read %s: %w", path, err)
	}
	return Load(data)
}
