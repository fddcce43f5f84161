package sanitize

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	policyOnce sync.Once
	policy     *bluemonday.Policy
)

// Message strips any markup from a server-supplied message and collapses
// whitespace so it can be shown in a terminal or stored as a field error.
func Message(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	cleaned := html.UnescapeString(strictPolicy().Sanitize(trimmed))
	return strings.Join(strings.Fields(cleaned), " ")
}

func strictPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		policy = bluemonday.StrictPolicy()
	})
	return policy
}
