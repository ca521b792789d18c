package tolgee

import (
	"fmt"
	"sort"
)

// providerEntry is one (key, template) pair inside a locale provider.
type providerEntry struct {
	key  string
	text string
}

// provider is the ordered per-locale view over a bundle's keys.
type provider struct {
	locale  string
	entries []providerEntry
	index   map[string]int
}

func (p *provider) lookup(key string) (string, bool) {
	idx, ok := p.index[key]
	if !ok {
		return "", false
	}
	return p.entries[idx].text, true
}

// Bundle is the immutable in-memory index of translation keys. Providers are
// derived once at construction, one per locale present in the key set,
// registered in the order locales first appear while scanning the keys.
type Bundle struct {
	keys      []TranslationKey
	providers []*provider
	byLocale  map[string]*provider
	formatter Formatter
}

// NewBundle indexes the given keys. Entry order within a provider follows key
// order in the source collection; the first entry wins on key collision.
func NewBundle(keys []TranslationKey, formatter Formatter) *Bundle {
	if formatter == nil {
		formatter = formatterFor(FormatICU)
	}

	bundle := &Bundle{
		keys:      keys,
		byLocale:  make(map[string]*provider),
		formatter: formatter,
	}

	for _, key := range keys {
		// variant maps are unordered, so walk tags sorted for a
		// deterministic provider registration order
		tags := make([]string, 0, len(key.Translations))
		variants := make(map[string]KeyTranslation, len(key.Translations))
		for tag, variant := range key.Translations {
			normalized := normalizeLocale(tag)
			if normalized == "" {
				continue
			}
			if _, exists := variants[normalized]; !exists {
				tags = append(tags, normalized)
			}
			variants[normalized] = variant
		}
		sort.Strings(tags)

		for _, tag := range tags {
			variant := variants[tag]
			p, ok := bundle.byLocale[tag]
			if !ok {
				p = &provider{locale: tag, index: make(map[string]int)}
				bundle.byLocale[tag] = p
				bundle.providers = append(bundle.providers, p)
			}
			if _, exists := p.index[key.KeyName]; exists {
				continue
			}
			p.index[key.KeyName] = len(p.entries)
			p.entries = append(p.entries, providerEntry{key: key.KeyName, text: variant.Text})
		}
	}

	return bundle
}

// Keys returns the source key collection.
func (b *Bundle) Keys() []TranslationKey {
	if b == nil {
		return nil
	}
	return b.keys
}

// Locales returns the provider locales in registration order.
func (b *Bundle) Locales() []string {
	if b == nil {
		return nil
	}
	out := make([]string, len(b.providers))
	for i, p := range b.providers {
		out[i] = p.locale
	}
	return out
}

// HasLocale reports whether at least one key carries a translation for the
// locale tag.
func (b *Bundle) HasLocale(locale Locale) bool {
	if b == nil || locale.IsZero() {
		return false
	}
	_, ok := b.byLocale[locale.Tag()]
	return ok
}

// Template returns the raw template for key, searching providers in
// registration order, without rendering it.
func (b *Bundle) Template(key string) (string, error) {
	if b == nil || key == "" {
		return "", ErrMissingTranslation
	}
	for _, p := range b.providers {
		if template, ok := p.lookup(key); ok {
			return template, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrMissingTranslation, key)
}

// Localized resolves key across all providers, first match in registration
// order wins, and renders the template with the requested locale. The
// requested locale drives locale sensitive formatting even when the text came
// from a provider indexed under a different tag. Returns ok=false when the
// key is unknown or rendering fails.
func (b *Bundle) Localized(key string, params Params, locale Locale) (string, bool) {
	template, err := b.Template(key)
	if err != nil {
		return "", false
	}

	rendered, err := b.formatter.Format(template, locale, params)
	if err != nil {
		return "", false
	}
	return rendered, true
}
