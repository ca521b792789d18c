package tolgee

// Language describes one project language as reported by the backend.
type Language struct {
	Name         string `json:"name"`
	Tag          string `json:"tag"`
	OriginalName string `json:"originalName,omitempty"`
	FlagEmoji    string `json:"flagEmoji,omitempty"`
	Base         bool   `json:"base"`
}

// KeyTranslation is one locale variant of a translation key.
type KeyTranslation struct {
	Text string `json:"text,omitempty"`
}

// TranslationKey groups the locale variants published for one key.
// Immutable once built from a backend response.
type TranslationKey struct {
	KeyName        string
	KeyDescription string
	Translations   map[string]KeyTranslation
}

// Text returns the variant text for a locale tag and ok=false if missing.
func (k TranslationKey) Text(tag string) (string, bool) {
	variant, ok := k.Translations[normalizeLocale(tag)]
	if !ok {
		return "", false
	}
	return variant.Text, true
}

// ParamsKind discriminates the supported parameter payloads.
type ParamsKind int

const (
	// ParamsNone renders templates without substitution.
	ParamsNone ParamsKind = iota
	// ParamsIndexed carries positional arguments, consumed in order.
	ParamsIndexed
)

// Params carries substitution arguments for message rendering. Values are
// passed through to the formatter and never stored.
type Params struct {
	kind ParamsKind
	args []any
}

// NoParams marks a render call without substitution arguments.
func NoParams() Params {
	return Params{kind: ParamsNone}
}

// Indexed wraps positional arguments for printf style or positional
// message-format substitution.
func Indexed(args ...any) Params {
	return Params{kind: ParamsIndexed, args: args}
}

// Kind reports the payload variant.
func (p Params) Kind() ParamsKind {
	return p.kind
}

// Args returns the positional arguments, nil for ParamsNone.
func (p Params) Args() []any {
	if p.kind != ParamsIndexed {
		return nil
	}
	return p.args
}

// Arg returns the positional argument at index and ok=false when out of range.
func (p Params) Arg(index int) (any, bool) {
	if p.kind != ParamsIndexed || index < 0 || index >= len(p.args) {
		return nil, false
	}
	return p.args[index], true
}
