package tolgee

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

// Fetcher retrieves languages and translation exports from a remote source.
// The core never owns transport concerns: timeouts and retries belong to the
// injected http.Client.
type Fetcher interface {
	// Languages collects every page of the project language listing.
	Languages(ctx context.Context) ([]Language, error)
	// Translations fetches the export for the given language tags; an empty
	// slice requests every published language.
	Translations(ctx context.Context, languages []string) ([]TranslationKey, error)
}

const languagesPageSize = 100

// pagedLanguages mirrors the HAL shaped language listing response.
type pagedLanguages struct {
	Embedded struct {
		Languages []Language `json:"languages"`
	} `json:"_embedded"`
	Page struct {
		Size          int `json:"size"`
		TotalElements int `json:"totalElements"`
		TotalPages    int `json:"totalPages"`
		Number        int `json:"number"`
	} `json:"page"`
}

// APIFetcher talks to the Tolgee REST API, authenticated with an API key.
type APIFetcher struct {
	apiURL    string
	apiKey    string
	projectID string
	client    *http.Client
	log       zerolog.Logger
}

var _ Fetcher = (*APIFetcher)(nil)

// NewAPIFetcher builds a fetcher from the client config.
func NewAPIFetcher(cfg *Config) *APIFetcher {
	return &APIFetcher{
		apiURL:    cfg.APIURL,
		apiKey:    cfg.APIKey,
		projectID: cfg.ProjectID,
		client:    cfg.HTTPClient,
		log:       cfg.Logger,
	}
}

// Languages walks the paged listing and collects every page into one set.
func (f *APIFetcher) Languages(ctx context.Context) ([]Language, error) {
	var all []Language

	for page := 0; ; page++ {
		query := url.Values{}
		query.Set("page", strconv.Itoa(page))
		query.Set("size", strconv.Itoa(languagesPageSize))

		body, err := f.get(ctx, f.projectPath("languages"), query)
		if err != nil {
			return nil, err
		}

		var parsed pagedLanguages
		if err := json.Unmarshal(body, &parsed); err != nil {
			return nil, fmt.Errorf("tolgee: decoding languages page %d: %w", page, err)
		}

		all = append(all, parsed.Embedded.Languages...)
		if page+1 >= parsed.Page.TotalPages {
			break
		}
	}

	f.log.Debug().Int("count", len(all)).Msg("fetched project languages")
	return all, nil
}

// Translations downloads the flat JSON export, optionally filtered by
// language, and parses it into translation keys.
func (f *APIFetcher) Translations(ctx context.Context, languages []string) ([]TranslationKey, error) {
	query := url.Values{}
	query.Set("format", "JSON")
	query.Set("zip", "false")
	if len(languages) > 0 {
		query.Set("languages", strings.Join(languages, ","))
	}

	body, err := f.get(ctx, f.projectPath("export"), query)
	if err != nil {
		return nil, err
	}

	keys, err := parseExport(body)
	if err != nil {
		return nil, err
	}

	f.log.Debug().Int("keys", len(keys)).Strs("languages", languages).Msg("fetched translation export")
	return keys, nil
}

// projectPath joins the API base with the project scoped endpoint. Without a
// project id the key-scoped endpoints are used instead.
func (f *APIFetcher) projectPath(endpoint string) string {
	base := strings.TrimSuffix(f.apiURL, "/")
	if f.projectID == "" {
		return base + "/projects/" + endpoint
	}
	return base + "/projects/" + f.projectID + "/" + endpoint
}

func (f *APIFetcher) get(ctx context.Context, rawURL string, query url.Values) ([]byte, error) {
	endpoint := rawURL
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("tolgee: building request: %w", err)
	}
	req.Header.Set("X-API-Key", f.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tolgee: %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("tolgee: %s: unexpected status %d", rawURL, resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

// parseExport turns a multi-language export document into translation keys.
// The document shape is {locale: {key: text}} where values may nest; nested
// structures are flattened with a dot delimiter. Key order follows document
// order of first appearance, which fixes provider registration order in the
// resulting bundle.
func parseExport(body []byte) ([]TranslationKey, error) {
	doc := gjson.ParseBytes(body)
	if !doc.IsObject() {
		return nil, fmt.Errorf("tolgee: export is not a JSON object")
	}

	var order []string
	byName := make(map[string]*TranslationKey)

	doc.ForEach(func(localeValue, content gjson.Result) bool {
		locale := normalizeLocale(localeValue.String())
		if locale == "" || !content.IsObject() {
			return true
		}
		flattenExport(content, "", func(keyName, text string) {
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
		return true
	})

	keys := make([]TranslationKey, 0, len(order))
	for _, name := range order {
		keys = append(keys, *byName[name])
	}
	return keys, nil
}

// flattenExport walks nested export values, joining path segments with dots.
func flattenExport(value gjson.Result, prefix string, emit func(key, text string)) {
	value.ForEach(func(keyValue, child gjson.Result) bool {
		name := keyValue.String()
		if prefix != "" {
			name = prefix + "." + name
		}
		switch {
		case child.IsObject():
			flattenExport(child, name, emit)
		case child.Type == gjson.String:
			emit(name, child.String())
		default:
			emit(name, child.Raw)
		}
		return true
	})
}
