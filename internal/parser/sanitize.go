package parser

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	textPolicyOnce sync.Once
	textPolicy     *bluemonday.Policy
)

// plainText trims labels, titles, options and hints and rejects text that
// carries markup. Text is kept as written: a line is markup free when the
// strict policy, with its entity escaping undone, leaves it unchanged.
func plainText(line int, raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", nil
	}
	if html.UnescapeString(textSanitizer().Sanitize(trimmed)) != trimmed {
		return "", syntaxError(line, "markup is not allowed")
	}
	return trimmed, nil
}

func textSanitizer() *bluemonday.Policy {
	textPolicyOnce.Do(func() {
		textPolicy = bluemonday.StrictPolicy()
	})
	return textPolicy
}
