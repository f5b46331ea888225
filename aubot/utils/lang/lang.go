// Package lang turns the client's language preference into a name the model understands.
package lang

import (
	"regexp"
	"strings"

	"aubot/aubot/utils/errs"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

const Default = "English"

// Only letters, spaces, hyphens and parentheses; the value ends up in the system prompt.
var namePattern = regexp.MustCompile(`^\p{L}[\p{L} ()\-]{0,39}$`)

// Resolve accepts a BCP 47 tag ("te", "pt-BR") or a language name ("telugu")
// and returns an English display name. Empty input means Default.
func Resolve(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return Default, nil
	}
	if tag, err := language.Parse(input); err == nil && tag != language.Und {
		if name := display.English.Tags().Name(tag); name != "" {
			return name, nil
		}
	}
	if !namePattern.MatchString(input) {
		return "", errs.Validation("unsupported language %q", input)
	}
	// a Caser keeps state and must not be shared between goroutines
	return cases.Title(language.English).String(strings.ToLower(input)), nil
}
