package tolgee

import (
	"fmt"
	"net/http"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
)

// DefaultAPIURL is the hosted backend used when no API URL is configured.
const DefaultAPIURL = "https://app.tolgee.io/v2/"

// Config captures client setup. Immutable after NewConfig returns; every
// consumer of one client shares the same instance.
type Config struct {
	APIKey        string
	APIURL        string
	ProjectID     string
	DefaultLocale string
	Format        Format
	CDNURL        string

	HTTPClient *http.Client
	Logger     zerolog.Logger
	Fetcher    Fetcher
	Resolver   KeyResolver
}

// Option mutates Config during construction.
type Option func(*Config) error

// NewConfig builds Config via supplied options. One of an API key, a content
// delivery URL, or a custom fetcher must be present.
func NewConfig(opts ...Option) (*Config, error) {
	cfg := &Config{
		APIURL: DefaultAPIURL,
		Logger: zerolog.Nop(),
	}

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	if cfg.Fetcher == nil && cfg.APIKey == "" && cfg.CDNURL == "" {
		return nil, ErrMissingAPIKey
	}

	return cfg, nil
}

// WithAPIKey sets the backend API key.
func WithAPIKey(key string) Option {
	return func(c *Config) error {
		c.APIKey = key
		return nil
	}
}

// WithAPIURL overrides the backend base URL.
func WithAPIURL(url string) Option {
	return func(c *Config) error {
		c.APIURL = url
		return nil
	}
}

// WithProjectID scopes requests to a project. Optional when the API key is
// already project scoped.
func WithProjectID(id string) Option {
	return func(c *Config) error {
		c.ProjectID = id
		return nil
	}
}

// WithDefaultLocale seeds the locale state.
func WithDefaultLocale(tag string) Option {
	return func(c *Config) error {
		c.DefaultLocale = normalizeLocale(tag)
		return nil
	}
}

// WithHTTPClient injects the transport. Timeouts and retries belong here, not
// in the core.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Config) error {
		c.HTTPClient = client
		return nil
	}
}

// WithFormat selects the message formatting strategy.
func WithFormat(format Format) Option {
	return func(c *Config) error {
		c.Format = format
		return nil
	}
}

// WithContentDelivery points the client at a published content delivery URL
// instead of the REST API.
func WithContentDelivery(url string, format Format) Option {
	return func(c *Config) error {
		c.CDNURL = url
		c.Format = format
		return nil
	}
}

// WithFetcher overrides the network source entirely.
func WithFetcher(fetcher Fetcher) Option {
	return func(c *Config) error {
		c.Fetcher = fetcher
		return nil
	}
}

// WithLogger attaches a structured logger; the default discards everything.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Config) error {
		c.Logger = log
		return nil
	}
}

// WithKeyResolver maps platform string-resource identifiers to key names.
func WithKeyResolver(resolver KeyResolver) Option {
	return func(c *Config) error {
		c.Resolver = resolver
		return nil
	}
}

// envConfig is the environment bootstrap surface.
type envConfig struct {
	APIKey        string `env:"TOLGEE_API_KEY"`
	APIURL        string `env:"TOLGEE_API_URL"`
	ProjectID     string `env:"TOLGEE_PROJECT_ID"`
	DefaultLocale string `env:"TOLGEE_DEFAULT_LOCALE"`
	CDNURL        string `env:"TOLGEE_CDN_URL"`
	Format        string `env:"TOLGEE_FORMAT"`
}

// ConfigFromEnv reads TOLGEE_* variables and applies opts on top, so explicit
// options win over the environment.
func ConfigFromEnv(opts ...Option) (*Config, error) {
	var environment envConfig
	if err := env.Parse(&environment); err != nil {
		return nil, fmt.Errorf("tolgee: parsing environment: %w", err)
	}

	fromEnv := func(c *Config) error {
		c.APIKey = environment.APIKey
		if environment.APIURL != "" {
			c.APIURL = environment.APIURL
		}
		c.ProjectID = environment.ProjectID
		c.DefaultLocale = normalizeLocale(environment.DefaultLocale)
		c.CDNURL = environment.CDNURL
		if environment.Format == "sprintf" {
			c.Format = FormatSprintf
		}
		return nil
	}

	return NewConfig(append([]Option{fromEnv}, opts...)...)
}

// newFetcher resolves the network source for the config: explicit override,
// then content delivery, then the REST API.
func (cfg *Config) newFetcher() Fetcher {
	if cfg.Fetcher != nil {
		return cfg.Fetcher
	}
	if cfg.CDNURL != "" {
		return NewCDNFetcher(cfg)
	}
	return NewAPIFetcher(cfg)
}
