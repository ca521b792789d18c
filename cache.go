package tolgee

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// LanguageCache caches the project language set. The mutex is held across the
// whole check-fetch-store sequence so concurrent first loads collapse into a
// single network call and share its result. Once populated the set is served
// without network access; a failed round leaves the cache empty for a later
// retry.
type LanguageCache struct {
	fetcher Fetcher
	log     zerolog.Logger

	mu        sync.Mutex
	languages []Language
}

// NewLanguageCache wires the cache to its fetcher.
func NewLanguageCache(fetcher Fetcher, log zerolog.Logger) *LanguageCache {
	return &LanguageCache{fetcher: fetcher, log: log}
}

// Load returns the cached language set, fetching it on first access.
func (c *LanguageCache) Load(ctx context.Context) ([]Language, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.languages) > 0 {
		return c.languages, nil
	}

	languages, err := c.fetcher.Languages(ctx)
	if err != nil {
		c.log.Debug().Err(err).Msg("language fetch failed")
		return nil, err
	}

	c.log.Debug().Int("count", len(languages)).Msg("languages loaded")
	c.languages = languages
	return c.languages, nil
}

// Cached returns whatever is currently cached, possibly nil, without
// triggering a fetch.
func (c *LanguageCache) Cached() []Language {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.languages
}

// TranslationCache caches the bundle for the active locale. Only one bundle is
// resident at a time: switching locales is detected as a cache miss and the
// replacement bundle discards the previous one. Reload failures keep the stale
// bundle available for cache-only reads.
type TranslationCache struct {
	fetcher   Fetcher
	formatter Formatter
	log       zerolog.Logger

	mu     sync.Mutex
	bundle *Bundle
}

// NewTranslationCache wires the cache to its fetcher and formatter.
func NewTranslationCache(fetcher Fetcher, formatter Formatter, log zerolog.Logger) *TranslationCache {
	return &TranslationCache{fetcher: fetcher, formatter: formatter, log: log}
}

// Load returns a bundle satisfying locale, fetching one scoped to the
// locale's language when the cached bundle does not. A zero locale accepts
// whatever is cached. Same single-flight discipline as LanguageCache.
func (c *TranslationCache) Load(ctx context.Context, locale Locale) (*Bundle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.bundle != nil && (locale.IsZero() || c.bundle.HasLocale(locale)) {
		return c.bundle, nil
	}

	var languages []string
	if !locale.IsZero() {
		languages = []string{locale.Language}
	}

	keys, err := c.fetcher.Translations(ctx, languages)
	if err != nil {
		c.log.Debug().Err(err).Str("locale", locale.Tag()).Msg("translation fetch failed")
		return nil, err
	}

	bundle := NewBundle(keys, c.formatter)
	c.log.Debug().
		Str("locale", locale.Tag()).
		Int("keys", len(keys)).
		Strs("locales", bundle.Locales()).
		Msg("translation bundle loaded")
	c.bundle = bundle
	return bundle, nil
}

// Current returns the cached bundle, possibly nil, without triggering a fetch.
func (c *TranslationCache) Current() *Bundle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bundle
}
