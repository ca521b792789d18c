package tolgee

import "fmt"

// Format selects the message formatting strategy. Fixed per Config, not per call.
type Format int

const (
	// FormatICU renders ICU MessageFormat templates with locale aware plural
	// and select rules.
	FormatICU Format = iota
	// FormatSprintf performs positional printf style substitution.
	FormatSprintf
)

// String implements fmt.Stringer for logging.
func (f Format) String() string {
	switch f {
	case FormatICU:
		return "icu"
	case FormatSprintf:
		return "sprintf"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// Formatter renders a translation template with a parameter set and a locale
// into final text.
type Formatter interface {
	Format(template string, locale Locale, params Params) (string, error)
}

// FormatterFunc adapters allow bare functions to implement Formatter.
type FormatterFunc func(template string, locale Locale, params Params) (string, error)

// Format implements Formatter for FormatterFunc.
func (fn FormatterFunc) Format(template string, locale Locale, params Params) (string, error) {
	return fn(template, locale, params)
}

// formatterFor maps the configured strategy to its implementation.
func formatterFor(format Format) Formatter {
	if format == FormatSprintf {
		return FormatterFunc(sprintfFormat)
	}
	return FormatterFunc(icuFormat)
}

// sprintfFormat substitutes positional arguments in order. Mismatches follow
// printf leniency: fmt annotates rather than fails, and a template without
// parameters passes through unchanged.
func sprintfFormat(template string, _ Locale, params Params) (string, error) {
	args := params.Args()
	if len(args) == 0 {
		return template, nil
	}
	return fmt.Sprintf(template, args...), nil
}
