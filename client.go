package tolgee

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// KeyResolver maps a platform string-resource identifier to a translation key
// name. Resolution failure means the caller should fall back to the
// platform's own localized resource lookup; the client is an enhancement
// layer over that guaranteed fallback, never the sole source of truth.
type KeyResolver interface {
	ResolveKey(resourceID string) (string, bool)
}

// KeyResolverFunc adapters allow bare functions to implement KeyResolver.
type KeyResolverFunc func(resourceID string) (string, bool)

// ResolveKey implements KeyResolver for KeyResolverFunc.
func (fn KeyResolverFunc) ResolveKey(resourceID string) (string, bool) {
	return fn(resourceID)
}

// Client composes the caches, the locale state, and the formatter into the
// translation client. Public entry points never let a caching or network
// failure escape: every call degrades to cache-or-nothing.
type Client struct {
	cfg          *Config
	log          zerolog.Logger
	languages    *LanguageCache
	translations *TranslationCache
	locale       *LocaleState
	resolver     KeyResolver
}

// NewClient builds a client from the config. The caches start empty; nothing
// is fetched until the first read or an explicit Preload.
func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil {
		var err error
		cfg, err = NewConfig()
		if err != nil {
			return nil, err
		}
	}

	fetcher := cfg.newFetcher()
	formatter := formatterFor(cfg.Format)

	return &Client{
		cfg:          cfg,
		log:          cfg.Logger,
		languages:    NewLanguageCache(fetcher, cfg.Logger),
		translations: NewTranslationCache(fetcher, formatter, cfg.Logger),
		locale:       NewLocaleState(ParseLocale(cfg.DefaultLocale)),
		resolver:     cfg.Resolver,
	}, nil
}

// Languages returns the project languages, fetching them on first access. On
// any failure it falls back to whatever is currently cached, possibly empty.
func (c *Client) Languages(ctx context.Context) []Language {
	languages, err := c.languages.Load(ctx)
	if err != nil {
		c.log.Debug().Err(err).Msg("serving cached languages after load failure")
		return c.languages.Cached()
	}
	return languages
}

// SetLocale publishes a new active locale; accepts a Locale, a tag string, or
// a project Language. Reloading is lazy: nothing is fetched until the next
// translation read.
func (c *Client) SetLocale(value any) Locale {
	locale := c.locale.Set(value)
	c.log.Debug().Str("locale", locale.Tag()).Msg("locale changed")
	return locale
}

// CurrentLocale returns the active locale.
func (c *Client) CurrentLocale() Locale {
	return c.locale.Current()
}

// Instant resolves key from the cached bundle only; it never touches the
// network. Returns ok=false before any bundle has been loaded, or when the
// cached bundle does not satisfy the active locale. Warm the cache with
// Preload or a prior Translation/Languages call first.
func (c *Client) Instant(key string, params Params) (string, bool) {
	bundle := c.translations.Current()
	if bundle == nil {
		return "", false
	}
	locale := c.locale.Current()
	if !locale.IsZero() && !bundle.HasLocale(locale) {
		return "", false
	}
	return bundle.Localized(key, params, locale)
}

// InstantResource is Instant addressed by a platform resource identifier,
// going through the configured KeyResolver.
func (c *Client) InstantResource(resourceID string, params Params) (string, bool) {
	if c.resolver == nil {
		return "", false
	}
	key, ok := c.resolver.ResolveKey(resourceID)
	if !ok {
		return "", false
	}
	return c.Instant(key, params)
}

// Preload eagerly warms both caches. Failures are swallowed per cache:
// partial success is acceptable and non-fatal.
func (c *Client) Preload(ctx context.Context) {
	var group errgroup.Group

	group.Go(func() error {
		if _, err := c.languages.Load(ctx); err != nil {
			c.log.Debug().Err(err).Msg("preload: languages failed")
		}
		return nil
	})
	group.Go(func() error {
		if _, err := c.translations.Load(ctx, c.locale.Current()); err != nil {
			c.log.Debug().Err(err).Msg("preload: translations failed")
		}
		return nil
	})

	_ = group.Wait()
}

// Translation returns a stream that re-resolves key every time the locale
// changes, starting with the current one. Only renderable strings are
// emitted: if the key cannot be resolved for an update, that update produces
// no value. A locale change that arrives while a reload is in flight
// supersedes it, so stale locales never emit after newer ones. The stream
// closes when ctx is done.
func (c *Client) Translation(ctx context.Context, key string, params Params) <-chan string {
	out := make(chan string, 1)

	go func() {
		defer close(out)

		updates, cancel := c.locale.Subscribe()
		defer cancel()

		var pending *Locale
		for {
			var locale Locale
			if pending != nil {
				locale = *pending
				pending = nil
			} else {
				select {
				case <-ctx.Done():
					return
				case next, ok := <-updates:
					if !ok {
						return
					}
					locale = next
				}
			}

			text, found := c.resolve(ctx, key, params, locale)

			// a newer locale arriving mid-resolve wins; this result
			// is discarded unemitted
			select {
			case next, ok := <-updates:
				if !ok {
					return
				}
				pending = &next
				continue
			default:
			}

			if !found {
				continue
			}

			// conflate for slow consumers, latest value wins
			select {
			case out <- text:
			default:
				select {
				case <-out:
				default:
				}
				out <- text
			}
		}
	}()

	return out
}

// resolve renders key for locale, reloading the translation cache when the
// cached bundle does not satisfy it. After a failed reload the cache is
// checked once more: a concurrent caller may have populated it already.
func (c *Client) resolve(ctx context.Context, key string, params Params, locale Locale) (string, bool) {
	if bundle := c.translations.Current(); bundleSatisfies(bundle, locale) {
		return bundle.Localized(key, params, locale)
	}

	bundle, err := c.translations.Load(ctx, locale)
	if err != nil {
		if cached := c.translations.Current(); bundleSatisfies(cached, locale) {
			return cached.Localized(key, params, locale)
		}
		return "", false
	}

	if !bundleSatisfies(bundle, locale) {
		return "", false
	}
	return bundle.Localized(key, params, locale)
}

func bundleSatisfies(bundle *Bundle, locale Locale) bool {
	if bundle == nil {
		return false
	}
	return locale.IsZero() || bundle.HasLocale(locale)
}
