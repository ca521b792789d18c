package tolgee

import "errors"

// ErrMissingTranslation indicates that no translation was found for locale/key.
var ErrMissingTranslation = errors.New("tolgee: missing translation")

// ErrMissingAPIKey indicates the config carries neither an API key nor a
// content delivery URL nor a custom fetcher.
var ErrMissingAPIKey = errors.New("tolgee: missing api key")

// ErrMalformedTemplate indicates a message template that could not be parsed.
var ErrMalformedTemplate = errors.New("tolgee: malformed message template")

// ErrMissingArgument indicates a template argument with no matching parameter.
var ErrMissingArgument = errors.New("tolgee: missing message argument")

// ErrNoLanguages indicates the active fetcher cannot list project languages.
var ErrNoLanguages = errors.New("tolgee: language listing not available")
