package tolgee

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// stubFetcher implements Fetcher with pluggable behaviors for tests.
type stubFetcher struct {
	languagesFn    func(ctx context.Context) ([]Language, error)
	translationsFn func(ctx context.Context, languages []string) ([]TranslationKey, error)
}

func (s *stubFetcher) Languages(ctx context.Context) ([]Language, error) {
	if s.languagesFn == nil {
		return nil, ErrNoLanguages
	}
	return s.languagesFn(ctx)
}

func (s *stubFetcher) Translations(ctx context.Context, languages []string) ([]TranslationKey, error) {
	if s.translationsFn == nil {
		return nil, errors.New("no translations configured")
	}
	return s.translationsFn(ctx, languages)
}

// localeScopedFetcher serves keys filtered the way the backend export does:
// only the requested language's variants come back.
func localeScopedFetcher(calls *atomic.Int32) *stubFetcher {
	source := testKeys()
	return &stubFetcher{
		translationsFn: func(_ context.Context, languages []string) ([]TranslationKey, error) {
			if calls != nil {
				calls.Add(1)
			}
			if len(languages) == 0 {
				return source, nil
			}
			var out []TranslationKey
			for _, key := range source {
				scoped := TranslationKey{
					KeyName:      key.KeyName,
					Translations: make(map[string]KeyTranslation),
				}
				for _, tag := range languages {
					if variant, ok := key.Translations[tag]; ok {
						scoped.Translations[tag] = variant
					}
				}
				if len(scoped.Translations) > 0 {
					out = append(out, scoped)
				}
			}
			return out, nil
		},
	}
}

func TestLanguageCacheSingleFlight(t *testing.T) {
	var calls atomic.Int32
	fetcher := &stubFetcher{
		languagesFn: func(ctx context.Context) ([]Language, error) {
			calls.Add(1)
			time.Sleep(20 * time.Millisecond)
			return []Language{{Name: "English", Tag: "en", Base: true}}, nil
		},
	}

	cache := NewLanguageCache(fetcher, zerolog.Nop())

	const concurrency = 8
	var wg sync.WaitGroup
	results := make([][]Language, concurrency)
	errs := make([]error, concurrency)

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = cache.Load(context.Background())
		}(i)
	}
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Fatalf("fetch count = %d, want 1", got)
	}
	for i := 0; i < concurrency; i++ {
		if errs[i] != nil {
			t.Fatalf("Load[%d]: %v", i, errs[i])
		}
		if len(results[i]) != 1 || results[i][0].Tag != "en" {
			t.Fatalf("Load[%d] = %v, want the shared english set", i, results[i])
		}
	}
}

func TestLanguageCacheFailureDoesNotPoison(t *testing.T) {
	var calls atomic.Int32
	fail := errors.New("network down")
	fetcher := &stubFetcher{
		languagesFn: func(ctx context.Context) ([]Language, error) {
			if calls.Add(1) == 1 {
				return nil, fail
			}
			return []Language{{Tag: "en"}}, nil
		},
	}

	cache := NewLanguageCache(fetcher, zerolog.Nop())

	if _, err := cache.Load(context.Background()); !errors.Is(err, fail) {
		t.Fatalf("first Load err = %v, want %v", err, fail)
	}
	if cached := cache.Cached(); cached != nil {
		t.Fatalf("Cached after failure = %v, want nil", cached)
	}

	languages, err := cache.Load(context.Background())
	if err != nil {
		t.Fatalf("retry Load: %v", err)
	}
	if len(languages) != 1 {
		t.Fatalf("retry Load = %v, want one language", languages)
	}
}

func TestTranslationCacheReusesSatisfyingBundle(t *testing.T) {
	var calls atomic.Int32
	cache := NewTranslationCache(localeScopedFetcher(&calls), formatterFor(FormatICU), zerolog.Nop())

	en := Locale{Language: "en"}
	first, err := cache.Load(context.Background(), en)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	second, err := cache.Load(context.Background(), en)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if first != second {
		t.Fatal("second Load should serve the cached bundle")
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("fetch count = %d, want 1", got)
	}

	// zero locale accepts whatever is cached
	third, err := cache.Load(context.Background(), Locale{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if third != first {
		t.Fatal("zero locale should accept the cached bundle")
	}
}

func TestTranslationCacheLocaleSwitchDiscards(t *testing.T) {
	cache := NewTranslationCache(localeScopedFetcher(nil), formatterFor(FormatICU), zerolog.Nop())

	en := Locale{Language: "en"}
	es := Locale{Language: "es"}

	if _, err := cache.Load(context.Background(), en); err != nil {
		t.Fatalf("Load en: %v", err)
	}
	if !cache.Current().HasLocale(en) {
		t.Fatal("bundle should satisfy en after first load")
	}

	if _, err := cache.Load(context.Background(), es); err != nil {
		t.Fatalf("Load es: %v", err)
	}

	current := cache.Current()
	if current.HasLocale(en) {
		t.Fatal("switching locale should discard the prior bundle")
	}
	if !current.HasLocale(es) {
		t.Fatal("bundle should satisfy es after the switch")
	}
}

func TestTranslationCacheFailureKeepsStaleBundle(t *testing.T) {
	var failNext atomic.Bool
	inner := localeScopedFetcher(nil)
	fetcher := &stubFetcher{
		translationsFn: func(ctx context.Context, languages []string) ([]TranslationKey, error) {
			if failNext.Load() {
				return nil, errors.New("network down")
			}
			return inner.Translations(ctx, languages)
		},
	}

	cache := NewTranslationCache(fetcher, formatterFor(FormatICU), zerolog.Nop())

	en := Locale{Language: "en"}
	if _, err := cache.Load(context.Background(), en); err != nil {
		t.Fatalf("Load en: %v", err)
	}

	failNext.Store(true)
	if _, err := cache.Load(context.Background(), Locale{Language: "es"}); err == nil {
		t.Fatal("Load es should fail while the network is down")
	}

	stale := cache.Current()
	if stale == nil || !stale.HasLocale(en) {
		t.Fatal("failed reload should keep the stale bundle for cache-only reads")
	}
}
