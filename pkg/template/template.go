// Package template renders {{placeholder}} tokens in node-configured
// text against the execution context.
package template

import (
	"regexp"

	"github.com/caredesk/slaflow/pkg/models"
)

var placeholderPattern = regexp.MustCompile(`\{\{\s*(\w+)\s*\}\}`)

// Render substitutes every {{key}} token with the matching execution
// context value. Tokens without a context value are left untouched so
// misconfigured templates stay visible in the delivered text.
func Render(input string, ectx models.ExecutionContext) string {
	if input == "" {
		return input
	}

	return placeholderPattern.ReplaceAllStringFunc(input, func(token string) string {
		key := placeholderPattern.FindStringSubmatch(token)[1]

		if _, ok := ectx.Get(key); !ok {
			return token
		}

		return ectx.GetString(key)
	})
}

// NeedsRendering reports whether input contains placeholder tokens.
func NeedsRendering(input string) bool {
	return placeholderPattern.MatchString(input)
}
