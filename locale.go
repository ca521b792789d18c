package tolgee

import (
	"strings"

	"golang.org/x/text/language"
)

// Locale identifies a language and optional region, looked up by normalized tag.
type Locale struct {
	Language string
	Region   string
}

// ParseLocale builds a Locale from a BCP-47 style tag. Underscores are
// accepted in place of hyphens. Unparseable input falls back to a raw
// language/region split so lookups still behave predictably.
func ParseLocale(tag string) Locale {
	normalized := normalizeLocale(tag)
	if normalized == "" {
		return Locale{}
	}

	if parsed, err := language.Parse(normalized); err == nil {
		base, confidence := parsed.Base()
		if confidence != language.No {
			locale := Locale{Language: base.String()}
			if region, regionConfidence := parsed.Region(); regionConfidence == language.Exact && region.IsCountry() {
				locale.Region = region.String()
			}
			return locale
		}
	}

	parts := strings.SplitN(normalized, "-", 2)
	locale := Locale{Language: strings.ToLower(parts[0])}
	if len(parts) > 1 {
		locale.Region = strings.ToUpper(parts[1])
	}
	return locale
}

// Tag renders the normalized locale identifier, e.g. "en" or "en-US".
func (l Locale) Tag() string {
	if l.Language == "" {
		return ""
	}
	if l.Region == "" {
		return l.Language
	}
	return l.Language + "-" + l.Region
}

// IsZero reports whether the locale carries no language.
func (l Locale) IsZero() bool {
	return l.Language == ""
}

// languageTag resolves the x/text tag used for locale sensitive formatting.
func (l Locale) languageTag() language.Tag {
	if l.IsZero() {
		return language.Und
	}
	tag, err := language.Parse(l.Tag())
	if err != nil {
		return language.Und
	}
	return tag
}

// normalizeLocale normalizes a single locale identifier by replacing
// underscores with hyphens and trimming whitespace.
func normalizeLocale(locale string) string {
	return strings.ReplaceAll(strings.TrimSpace(locale), "_", "-")
}

// localeParentTag returns the immediate parent tag, e.g. "en" for "en-US",
// and "" at the root.
func localeParentTag(locale string) string {
	if locale == "" {
		return ""
	}

	tag, err := language.Parse(locale)
	if err == nil {
		parent := tag.Parent()
		if parent == language.Und {
			return ""
		}
		value := parent.String()
		if value == "" || value == "und" {
			return ""
		}
		return value
	}

	if idx := strings.LastIndex(locale, "-"); idx > 0 {
		return locale[:idx]
	}

	return ""
}
