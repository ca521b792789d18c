package tolgee

import (
	"errors"
	"net/http"
	"testing"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg, err := NewConfig(WithAPIKey("secret"))
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}

	if cfg.APIURL != DefaultAPIURL {
		t.Fatalf("APIURL = %q, want %q", cfg.APIURL, DefaultAPIURL)
	}
	if cfg.HTTPClient == nil {
		t.Fatal("HTTPClient should default to a usable client")
	}
	if cfg.Format != FormatICU {
		t.Fatalf("Format = %v, want icu default", cfg.Format)
	}
}

func TestNewConfigRequiresASource(t *testing.T) {
	if _, err := NewConfig(); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("NewConfig() err = %v, want %v", err, ErrMissingAPIKey)
	}

	// any one source is enough
	if _, err := NewConfig(WithContentDelivery("https://cdn.example.com/x", FormatSprintf)); err != nil {
		t.Fatalf("NewConfig with content delivery: %v", err)
	}
	if _, err := NewConfig(WithFetcher(&stubFetcher{})); err != nil {
		t.Fatalf("NewConfig with fetcher: %v", err)
	}
}

func TestNewConfigOptions(t *testing.T) {
	client := &http.Client{}
	cfg, err := NewConfig(
		WithAPIKey("secret"),
		WithAPIURL("https://selfhosted.example.com/v2/"),
		WithProjectID("42"),
		WithDefaultLocale("en_US"),
		WithFormat(FormatSprintf),
		WithHTTPClient(client),
	)
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}

	if cfg.ProjectID != "42" {
		t.Fatalf("ProjectID = %q, want 42", cfg.ProjectID)
	}
	if cfg.DefaultLocale != "en-US" {
		t.Fatalf("DefaultLocale = %q, want normalized en-US", cfg.DefaultLocale)
	}
	if cfg.Format != FormatSprintf {
		t.Fatalf("Format = %v, want sprintf", cfg.Format)
	}
	if cfg.HTTPClient != client {
		t.Fatal("HTTPClient should be the injected client")
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("TOLGEE_API_KEY", "env-key")
	t.Setenv("TOLGEE_API_URL", "https://env.example.com/v2/")
	t.Setenv("TOLGEE_PROJECT_ID", "7")
	t.Setenv("TOLGEE_DEFAULT_LOCALE", "pt_BR")
	t.Setenv("TOLGEE_FORMAT", "sprintf")

	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv: %v", err)
	}

	if cfg.APIKey != "env-key" {
		t.Fatalf("APIKey = %q, want env-key", cfg.APIKey)
	}
	if cfg.APIURL != "https://env.example.com/v2/" {
		t.Fatalf("APIURL = %q, want the env value", cfg.APIURL)
	}
	if cfg.ProjectID != "7" {
		t.Fatalf("ProjectID = %q, want 7", cfg.ProjectID)
	}
	if cfg.DefaultLocale != "pt-BR" {
		t.Fatalf("DefaultLocale = %q, want normalized pt-BR", cfg.DefaultLocale)
	}
	if cfg.Format != FormatSprintf {
		t.Fatalf("Format = %v, want sprintf", cfg.Format)
	}
}

func TestConfigFromEnvExplicitOptionsWin(t *testing.T) {
	t.Setenv("TOLGEE_API_KEY", "env-key")
	t.Setenv("TOLGEE_PROJECT_ID", "7")

	cfg, err := ConfigFromEnv(WithProjectID("override"))
	if err != nil {
		t.Fatalf("ConfigFromEnv: %v", err)
	}
	if cfg.ProjectID != "override" {
		t.Fatalf("ProjectID = %q, want override", cfg.ProjectID)
	}
}

func TestConfigFetcherSelection(t *testing.T) {
	stub := &stubFetcher{}

	tests := []struct {
		name string
		opts []Option
		want string
	}{
		{name: "explicit fetcher wins", opts: []Option{WithAPIKey("k"), WithFetcher(stub)}, want: "stub"},
		{name: "content delivery over api", opts: []Option{WithAPIKey("k"), WithContentDelivery("https://cdn.example.com", FormatICU)}, want: "cdn"},
		{name: "api by default", opts: []Option{WithAPIKey("k")}, want: "api"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := NewConfig(tc.opts...)
			if err != nil {
				t.Fatalf("NewConfig: %v", err)
			}

			switch cfg.newFetcher().(type) {
			case *stubFetcher:
				if tc.want != "stub" {
					t.Fatalf("got stub fetcher, want %s", tc.want)
				}
			case *CDNFetcher:
				if tc.want != "cdn" {
					t.Fatalf("got cdn fetcher, want %s", tc.want)
				}
			case *APIFetcher:
				if tc.want != "api" {
					t.Fatalf("got api fetcher, want %s", tc.want)
				}
			default:
				t.Fatal("unknown fetcher type")
			}
		})
	}
}
