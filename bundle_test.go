package tolgee

import (
	"errors"
	"testing"
)

func testKeys() []TranslationKey {
	return []TranslationKey{
		{
			KeyName: "greeting",
			Translations: map[string]KeyTranslation{
				"en": {Text: "Hello {name}"},
				"es": {Text: "Hola {name}"},
			},
		},
		{
			KeyName: "farewell",
			Translations: map[string]KeyTranslation{
				"en": {Text: "Goodbye"},
			},
		},
	}
}

func TestBundleHasLocale(t *testing.T) {
	bundle := NewBundle(testKeys(), formatterFor(FormatICU))

	tests := []struct {
		name   string
		locale Locale
		want   bool
	}{
		{name: "present locale", locale: Locale{Language: "en"}, want: true},
		{name: "second locale", locale: Locale{Language: "es"}, want: true},
		{name: "absent locale", locale: Locale{Language: "fr"}, want: false},
		{name: "zero locale", locale: Locale{}, want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := bundle.HasLocale(tc.locale); got != tc.want {
				t.Fatalf("HasLocale(%v) = %v, want %v", tc.locale, got, tc.want)
			}
		})
	}
}

func TestBundleLocalized(t *testing.T) {
	bundle := NewBundle(testKeys(), formatterFor(FormatICU))

	tests := []struct {
		name   string
		key    string
		params Params
		locale Locale
		want   string
		found  bool
	}{
		{
			name:   "placeholder free text passes through unchanged",
			key:    "farewell",
			params: NoParams(),
			locale: Locale{Language: "en"},
			want:   "Goodbye",
			found:  true,
		},
		{
			name:   "first provider in registration order wins",
			key:    "greeting",
			params: Indexed("World"),
			locale: Locale{Language: "es"},
			want:   "Hello World",
			found:  true,
		},
		{
			name:   "unknown key",
			key:    "missing",
			params: NoParams(),
			locale: Locale{Language: "en"},
			found:  false,
		},
		{
			name:   "formatting failure reads as missing",
			key:    "greeting",
			params: NoParams(),
			locale: Locale{Language: "en"},
			found:  false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, found := bundle.Localized(tc.key, tc.params, tc.locale)
			if found != tc.found {
				t.Fatalf("Localized found = %v, want %v", found, tc.found)
			}
			if found && got != tc.want {
				t.Fatalf("Localized = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestBundleTemplate(t *testing.T) {
	bundle := NewBundle(testKeys(), formatterFor(FormatICU))

	template, err := bundle.Template("greeting")
	if err != nil {
		t.Fatalf("Template: %v", err)
	}
	if template != "Hello {name}" {
		t.Fatalf("Template = %q, want the raw english template", template)
	}

	if _, err := bundle.Template("missing"); !errors.Is(err, ErrMissingTranslation) {
		t.Fatalf("Template err = %v, want %v", err, ErrMissingTranslation)
	}

	var nilBundle *Bundle
	if _, err := nilBundle.Template("greeting"); !errors.Is(err, ErrMissingTranslation) {
		t.Fatalf("nil bundle Template err = %v, want %v", err, ErrMissingTranslation)
	}
}

func TestBundleProviderOrder(t *testing.T) {
	bundle := NewBundle(testKeys(), formatterFor(FormatICU))

	locales := bundle.Locales()
	want := []string{"en", "es"}
	if len(locales) != len(want) {
		t.Fatalf("Locales = %v, want %v", locales, want)
	}
	for i := range want {
		if locales[i] != want[i] {
			t.Fatalf("Locales = %v, want %v", locales, want)
		}
	}
}

func TestBundleNilAndEmpty(t *testing.T) {
	var nilBundle *Bundle
	if nilBundle.HasLocale(Locale{Language: "en"}) {
		t.Fatal("nil bundle should have no locales")
	}
	if _, found := nilBundle.Localized("any", NoParams(), Locale{}); found {
		t.Fatal("nil bundle should resolve nothing")
	}

	empty := NewBundle(nil, nil)
	if empty.HasLocale(Locale{Language: "en"}) {
		t.Fatal("empty bundle should have no locales")
	}
}
