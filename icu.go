package tolgee

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/feature/plural"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// icuFormat renders an ICU MessageFormat template. Supported arguments:
// plain `{name}` / `{0}`, `{arg, number}` (optionally `integer`), `{arg, date}`,
// `{arg, time}`, `{arg, plural, ...}` with `=N` exact selectors and `#`, and
// `{arg, select, ...}`. Named arguments consume positional parameters in order
// of first appearance. Any parse or argument mismatch surfaces as an error so
// callers can treat the key as untranslated.
func icuFormat(template string, locale Locale, params Params) (string, error) {
	nodes, err := parseICU(template)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	if err := renderICU(&sb, nodes, locale, params, nil); err != nil {
		return "", err
	}
	return sb.String(), nil
}

type icuArgKind int

const (
	argPlain icuArgKind = iota
	argNumber
	argNumberInteger
	argDate
	argTime
	argPlural
	argSelect
)

type icuNode interface{}

type icuText string

// icuHash renders the nearest enclosing plural operand.
type icuHash struct{}

type icuArg struct {
	name     string
	index    int
	kind     icuArgKind
	selector []string             // branch selectors in source order
	branches map[string][]icuNode // plural/select branches
}

type icuParser struct {
	input []rune
	pos   int
	order map[string]int
	next  int
}

func parseICU(template string) ([]icuNode, error) {
	parser := &icuParser{
		input: []rune(template),
		order: make(map[string]int),
	}

	nodes, err := parser.parseNodes(0, false)
	if err != nil {
		return nil, err
	}
	if parser.pos < len(parser.input) {
		return nil, fmt.Errorf("%w: unexpected %q at offset %d", ErrMalformedTemplate, parser.input[parser.pos], parser.pos)
	}
	return nodes, nil
}

// parseNodes consumes nodes until end of input, or until an unconsumed `}`
// when depth > 0.
func (p *icuParser) parseNodes(depth int, inPlural bool) ([]icuNode, error) {
	var nodes []icuNode
	var text strings.Builder

	flush := func() {
		if text.Len() > 0 {
			nodes = append(nodes, icuText(text.String()))
			text.Reset()
		}
	}

	for p.pos < len(p.input) {
		c := p.input[p.pos]
		switch {
		case c == '}':
			if depth > 0 {
				flush()
				return nodes, nil
			}
			return nil, fmt.Errorf("%w: unmatched } at offset %d", ErrMalformedTemplate, p.pos)
		case c == '#' && inPlural:
			flush()
			nodes = append(nodes, icuHash{})
			p.pos++
		case c == '\'':
			p.pos++
			if p.pos < len(p.input) && p.input[p.pos] == '\'' {
				text.WriteRune('\'')
				p.pos++
				continue
			}
			if p.pos < len(p.input) && isICUSpecial(p.input[p.pos]) {
				// quoted literal run, closed by the next lone apostrophe
				for p.pos < len(p.input) {
					if p.input[p.pos] == '\'' {
						p.pos++
						if p.pos < len(p.input) && p.input[p.pos] == '\'' {
							text.WriteRune('\'')
							p.pos++
							continue
						}
						break
					}
					text.WriteRune(p.input[p.pos])
					p.pos++
				}
				continue
			}
			text.WriteRune('\'')
		case c == '{':
			flush()
			arg, err := p.parseArgument(inPlural)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, arg)
		default:
			text.WriteRune(c)
			p.pos++
		}
	}

	if depth > 0 {
		return nil, fmt.Errorf("%w: unterminated argument", ErrMalformedTemplate)
	}
	flush()
	return nodes, nil
}

func (p *icuParser) parseArgument(inPlural bool) (*icuArg, error) {
	p.pos++ // consume '{'
	name := p.readWord()
	if name == "" {
		return nil, fmt.Errorf("%w: empty argument name", ErrMalformedTemplate)
	}

	arg := &icuArg{name: name, index: p.argIndex(name)}

	p.skipSpace()
	if p.pos < len(p.input) && p.input[p.pos] == '}' {
		p.pos++
		return arg, nil
	}
	if p.pos >= len(p.input) || p.input[p.pos] != ',' {
		return nil, fmt.Errorf("%w: expected , or } after argument %q", ErrMalformedTemplate, name)
	}
	p.pos++

	p.skipSpace()
	argType := p.readWord()
	p.skipSpace()

	switch argType {
	case "number":
		arg.kind = argNumber
		if p.pos < len(p.input) && p.input[p.pos] == ',' {
			p.pos++
			p.skipSpace()
			style := p.readWord()
			if style == "integer" {
				arg.kind = argNumberInteger
			}
			p.skipSpace()
		}
	case "date":
		arg.kind = argDate
		p.skipStyle()
	case "time":
		arg.kind = argTime
		p.skipStyle()
	case "plural", "select":
		arg.kind = argPlural
		if argType == "select" {
			arg.kind = argSelect
		}
		if p.pos >= len(p.input) || p.input[p.pos] != ',' {
			return nil, fmt.Errorf("%w: %s argument %q has no branches", ErrMalformedTemplate, argType, name)
		}
		p.pos++
		if err := p.parseBranches(arg, inPlural || argType == "plural"); err != nil {
			return nil, err
		}
		if _, ok := arg.branches["other"]; !ok {
			return nil, fmt.Errorf("%w: %s argument %q is missing the other branch", ErrMalformedTemplate, argType, name)
		}
		return arg, nil
	default:
		return nil, fmt.Errorf("%w: unsupported argument type %q", ErrMalformedTemplate, argType)
	}

	if p.pos >= len(p.input) || p.input[p.pos] != '}' {
		return nil, fmt.Errorf("%w: unterminated argument %q", ErrMalformedTemplate, name)
	}
	p.pos++
	return arg, nil
}

func (p *icuParser) parseBranches(arg *icuArg, inPlural bool) error {
	arg.branches = make(map[string][]icuNode)

	for {
		p.skipSpace()
		if p.pos >= len(p.input) {
			return fmt.Errorf("%w: unterminated branches for %q", ErrMalformedTemplate, arg.name)
		}
		if p.input[p.pos] == '}' {
			p.pos++
			return nil
		}

		selector := p.readSelector()
		if selector == "" {
			return fmt.Errorf("%w: invalid branch selector for %q", ErrMalformedTemplate, arg.name)
		}

		p.skipSpace()
		if p.pos >= len(p.input) || p.input[p.pos] != '{' {
			return fmt.Errorf("%w: branch %q of %q has no body", ErrMalformedTemplate, selector, arg.name)
		}
		p.pos++

		body, err := p.parseNodes(1, inPlural)
		if err != nil {
			return err
		}
		if p.pos >= len(p.input) || p.input[p.pos] != '}' {
			return fmt.Errorf("%w: unterminated branch %q of %q", ErrMalformedTemplate, selector, arg.name)
		}
		p.pos++

		if _, exists := arg.branches[selector]; !exists {
			arg.selector = append(arg.selector, selector)
		}
		arg.branches[selector] = body
	}
}

// argIndex assigns positional parameter slots: numeric names address their
// slot directly, named arguments take the next slot in order of first
// appearance.
func (p *icuParser) argIndex(name string) int {
	if index, err := strconv.Atoi(name); err == nil && index >= 0 {
		if index >= p.next {
			p.next = index + 1
		}
		return index
	}
	if index, ok := p.order[name]; ok {
		return index
	}
	index := p.next
	p.next++
	p.order[name] = index
	return index
}

func (p *icuParser) readWord() string {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if unicode.IsLetter(c) || unicode.IsDigit(c) || c == '_' || c == '.' {
			p.pos++
			continue
		}
		break
	}
	return string(p.input[start:p.pos])
}

func (p *icuParser) readSelector() string {
	if p.pos < len(p.input) && p.input[p.pos] == '=' {
		p.pos++
		return "=" + p.readWord()
	}
	return p.readWord()
}

// skipStyle discards an optional `, style` suffix of date/time arguments.
func (p *icuParser) skipStyle() {
	if p.pos < len(p.input) && p.input[p.pos] == ',' {
		p.pos++
		p.skipSpace()
		p.readWord()
		p.skipSpace()
	}
}

func (p *icuParser) skipSpace() {
	for p.pos < len(p.input) && unicode.IsSpace(p.input[p.pos]) {
		p.pos++
	}
}

func isICUSpecial(c rune) bool {
	return c == '{' || c == '}' || c == '#'
}

// pluralOperand carries the numeric value of the nearest enclosing plural
// argument, used to render `#`.
type pluralOperand struct {
	value   any
	integer bool
}

func renderICU(sb *strings.Builder, nodes []icuNode, locale Locale, params Params, operand *pluralOperand) error {
	for _, node := range nodes {
		switch n := node.(type) {
		case icuText:
			sb.WriteString(string(n))
		case icuHash:
			if operand == nil {
				sb.WriteRune('#')
				continue
			}
			sb.WriteString(icuNumber(locale, operand.value, operand.integer))
		case *icuArg:
			if err := renderICUArg(sb, n, locale, params, operand); err != nil {
				return err
			}
		}
	}
	return nil
}

func renderICUArg(sb *strings.Builder, arg *icuArg, locale Locale, params Params, operand *pluralOperand) error {
	value, ok := params.Arg(arg.index)
	if !ok {
		return fmt.Errorf("%w: %q", ErrMissingArgument, arg.name)
	}

	switch arg.kind {
	case argPlain:
		sb.WriteString(fmt.Sprint(value))
	case argNumber, argNumberInteger:
		numeric, intValue, isInt, ok := toNumber(value)
		if !ok {
			return fmt.Errorf("%w: %q is not numeric", ErrMissingArgument, arg.name)
		}
		if isInt {
			sb.WriteString(icuNumber(locale, intValue, true))
		} else {
			sb.WriteString(icuNumber(locale, numeric, arg.kind == argNumberInteger))
		}
	case argDate:
		t, ok := value.(time.Time)
		if !ok {
			return fmt.Errorf("%w: %q is not a time value", ErrMissingArgument, arg.name)
		}
		sb.WriteString(t.Format("2006-01-02"))
	case argTime:
		t, ok := value.(time.Time)
		if !ok {
			return fmt.Errorf("%w: %q is not a time value", ErrMissingArgument, arg.name)
		}
		sb.WriteString(t.Format("15:04"))
	case argPlural:
		numeric, intValue, isInt, ok := toNumber(value)
		if !ok {
			return fmt.Errorf("%w: %q is not numeric", ErrMissingArgument, arg.name)
		}
		branch := pluralBranch(arg, locale, numeric, intValue, isInt)
		var operandValue any = numeric
		if isInt {
			operandValue = intValue
		}
		inner := &pluralOperand{value: operandValue, integer: isInt}
		return renderICU(sb, branch, locale, params, inner)
	case argSelect:
		selector := fmt.Sprint(value)
		branch, ok := arg.branches[selector]
		if !ok {
			branch = arg.branches["other"]
		}
		return renderICU(sb, branch, locale, params, operand)
	}
	return nil
}

// pluralBranch picks the branch for a numeric operand: exact `=N` selectors
// first, then the CLDR cardinal category for the requested locale.
func pluralBranch(arg *icuArg, locale Locale, numeric float64, intValue int64, isInt bool) []icuNode {
	var exact string
	if isInt {
		exact = "=" + strconv.FormatInt(intValue, 10)
	} else {
		exact = "=" + strconv.FormatFloat(numeric, 'f', -1, 64)
	}
	if branch, ok := arg.branches[exact]; ok {
		return branch
	}

	category := pluralCategory(locale, numeric, intValue, isInt)
	if branch, ok := arg.branches[category]; ok {
		return branch
	}
	return arg.branches["other"]
}

func pluralCategory(locale Locale, numeric float64, intValue int64, isInt bool) string {
	i := intValue
	if i < 0 {
		i = -i
	}
	v, f := 0, 0
	if !isInt {
		frac := strconv.FormatFloat(math.Abs(numeric), 'f', -1, 64)
		if idx := strings.IndexByte(frac, '.'); idx >= 0 {
			digits := frac[idx+1:]
			v = len(digits)
			parsed, err := strconv.Atoi(digits)
			if err == nil {
				f = parsed
			}
			whole, err := strconv.ParseInt(frac[:idx], 10, 64)
			if err == nil {
				i = whole
			}
		}
	}

	form := plural.Cardinal.MatchPlural(locale.languageTag(), int(i), v, v, f, f)
	switch form {
	case plural.Zero:
		return "zero"
	case plural.One:
		return "one"
	case plural.Two:
		return "two"
	case plural.Few:
		return "few"
	case plural.Many:
		return "many"
	default:
		return "other"
	}
}

// icuNumber formats a numeric argument for the requested locale.
func icuNumber(locale Locale, value any, integer bool) string {
	printer := message.NewPrinter(locale.languageTag())
	var opts []number.Option
	if integer {
		opts = append(opts, number.MaxFractionDigits(0))
	}
	return printer.Sprint(number.Decimal(value, opts...))
}

// toNumber coerces supported argument types into numeric form.
func toNumber(value any) (numeric float64, intValue int64, isInt bool, ok bool) {
	switch v := value.(type) {
	case int:
		return float64(v), int64(v), true, true
	case int8:
		return float64(v), int64(v), true, true
	case int16:
		return float64(v), int64(v), true, true
	case int32:
		return float64(v), int64(v), true, true
	case int64:
		return float64(v), v, true, true
	case uint:
		return float64(v), int64(v), true, true
	case uint8:
		return float64(v), int64(v), true, true
	case uint16:
		return float64(v), int64(v), true, true
	case uint32:
		return float64(v), int64(v), true, true
	case uint64:
		return float64(v), int64(v), true, true
	case float32:
		return toFloatNumber(float64(v))
	case float64:
		return toFloatNumber(v)
	case string:
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			return float64(parsed), parsed, true, true
		}
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			return toFloatNumber(parsed)
		}
	}
	return 0, 0, false, false
}

func toFloatNumber(v float64) (float64, int64, bool, bool) {
	if v == math.Trunc(v) && !math.IsInf(v, 0) {
		return v, int64(v), true, true
	}
	return v, int64(v), false, true
}
