package schema

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func tagValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Rule is a single predicate paired with the message reported when it fails.
type Rule struct {
	Message string
	Check   func(value any) bool
}

// Passes evaluates the rule. Rules without a predicate always pass.
func (r Rule) Passes(value any) bool {
	if r.Check == nil {
		return true
	}
	return r.Check(value)
}

// Text builds a rule over string values. Missing values are seen as "" and
// values of any other type fail.
func Text(msg string, check func(string) bool) Rule {
	return Rule{
		Message: msg,
		Check: func(value any) bool {
			s, ok := textValue(value)
			if !ok {
				return false
			}
			return check(s)
		},
	}
}

// Tag validates a string value against a go-playground/validator tag such as
// "min=3" or "email".
func Tag(tag, msg string) Rule {
	return Text(msg, func(s string) bool {
		return tagValidator().Var(s, tag) == nil
	})
}

// MinLen requires at least n characters (runes).
func MinLen(n int, msg string) Rule {
	return Tag(fmt.Sprintf("min=%d", n), msg)
}

// MaxLen allows at most n characters (runes).
func MaxLen(n int, msg string) Rule {
	return Tag(fmt.Sprintf("max=%d", n), msg)
}

// Email requires a syntactically valid email address.
func Email(msg string) Rule {
	return Tag("email", msg)
}

// Pattern requires the whole value to match expr. Unanchored expressions are
// anchored on both ends.
func Pattern(expr, msg string) Rule {
	re := regexp.MustCompile(anchor(expr))
	return Text(msg, re.MatchString)
}

// Literal requires the value to be exactly want, type included: the string
// "true" does not satisfy Literal(true, ...).
func Literal(want any, msg string) Rule {
	wantType := reflect.TypeOf(want)
	return Rule{
		Message: msg,
		Check: func(value any) bool {
			if value == nil || reflect.TypeOf(value) != wantType {
				return false
			}
			return value == want
		},
	}
}

func textValue(value any) (string, bool) {
	switch v := value.(type) {
	case nil:
		return "", true
	case string:
		return v, true
	default:
		return "", false
	}
}

func anchor(expr string) string {
	body := strings.TrimPrefix(expr, "^")
	if strings.HasSuffix(body, "$") && !strings.HasSuffix(body, `\$`) {
		body = strings.TrimSuffix(body, "$")
	}
	return "^(?:" + body + ")$"
}
