package tolgee

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

// CDNFetcher serves translations from a published content delivery export:
// one flat JSON document per locale at {baseURL}/{tag}.json. Content delivery
// publishes no language listing, so Languages degrades to ErrNoLanguages and
// the client falls back to its cached (possibly empty) set.
type CDNFetcher struct {
	baseURL       string
	defaultLocale string
	client        *http.Client
	log           zerolog.Logger
}

var _ Fetcher = (*CDNFetcher)(nil)

// NewCDNFetcher builds a content delivery fetcher from the client config.
func NewCDNFetcher(cfg *Config) *CDNFetcher {
	return &CDNFetcher{
		baseURL:       strings.TrimSuffix(cfg.CDNURL, "/"),
		defaultLocale: cfg.DefaultLocale,
		client:        cfg.HTTPClient,
		log:           cfg.Logger,
	}
}

// Languages implements Fetcher; content delivery cannot serve it.
func (f *CDNFetcher) Languages(ctx context.Context) ([]Language, error) {
	return nil, ErrNoLanguages
}

// Translations fetches one document per requested language tag. With no tags
// requested the configured default locale is used.
func (f *CDNFetcher) Translations(ctx context.Context, languages []string) ([]TranslationKey, error) {
	if len(languages) == 0 {
		if f.defaultLocale == "" {
			return nil, fmt.Errorf("tolgee: content delivery needs a locale to fetch")
		}
		languages = []string{f.defaultLocale}
	}

	var order []string
	byName := make(map[string]*TranslationKey)

	for _, tag := range languages {
		locale := normalizeLocale(tag)
		if locale == "" {
			continue
		}

		body, err := f.fetchDocument(ctx, locale)
		if err != nil {
			return nil, err
		}

		doc := gjson.ParseBytes(body)
		if !doc.IsObject() {
			return nil, fmt.Errorf("tolgee: content delivery document for %s is not a JSON object", locale)
		}

		flattenExport(doc, "", func(keyName, text string) {
			entry, ok := byName[keyName]
			if !ok {
				entry = &TranslationKey{
					KeyName:      keyName,
					Translations: make(map[string]KeyTranslation),
				}
				byName[keyName] = entry
				order = append(order, keyName)
			}
			entry.Translations[locale] = KeyTranslation{Text: text}
		})
	}

	keys := make([]TranslationKey, 0, len(order))
	for _, name := range order {
		keys = append(keys, *byName[name])
	}

	f.log.Debug().Int("keys", len(keys)).Strs("languages", languages).Msg("fetched content delivery export")
	return keys, nil
}

// fetchDocument downloads the export document for a locale tag. When a
// regioned tag has no published document the parent tag is tried, so "en-US"
// can be served by "en.json".
func (f *CDNFetcher) fetchDocument(ctx context.Context, locale string) ([]byte, error) {
	body, err := f.get(ctx, f.baseURL+"/"+locale+".json")
	if err == nil {
		return body, nil
	}

	parent := localeParentTag(locale)
	if parent == "" {
		return nil, err
	}

	f.log.Debug().Str("locale", locale).Str("parent", parent).Msg("falling back to parent locale document")
	body, parentErr := f.get(ctx, f.baseURL+"/"+parent+".json")
	if parentErr != nil {
		return nil, err
	}
	return body, nil
}

func (f *CDNFetcher) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("tolgee: building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tolgee: %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("tolgee: %s: unexpected status %d", endpoint, resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
