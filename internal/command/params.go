package command

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Param is one named command parameter.
type Param struct {
	Name  string
	Value string
}

// Params is an ordered parameter list. Names are case-sensitive and unique; Set on an
// existing name keeps its original position.
type Params struct {
	list []Param
}

// NewParams builds a list from name/value pairs.
func NewParams(pairs ...Param) *Params {
	p := &Params{}
	for _, kv := range pairs {
		p.Set(kv.Name, kv.Value)
	}
	return p
}

// Get returns the value of name, empty when absent.
func (p *Params) Get(name string) string {
	v, _ := p.Lookup(name)
	return v
}

// Lookup returns the value of name and whether it is present.
func (p *Params) Lookup(name string) (string, bool) {
	for _, kv := range p.list {
		if kv.Name == name {
			return kv.Value, true
		}
	}
	return "", false
}

// Set adds or replaces name.
func (p *Params) Set(name, value string) {
	for i := range p.list {
		if p.list[i].Name == name {
			p.list[i].Value = value
			return
		}
	}
	p.list = append(p.list, Param{Name: name, Value: value})
}

// Len returns the number of parameters.
func (p *Params) Len() int {
	return len(p.list)
}

// All returns the parameters in insertion order.
func (p *Params) All() []Param {
	return append([]Param(nil), p.list...)
}

// Equal reports whether both lists hold the same non-empty parameters, ignoring order.
func (p *Params) Equal(o *Params) bool {
	a, b := p.nonEmpty(), o.nonEmpty()
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}

func (p *Params) nonEmpty() map[string]string {
	m := map[string]string{}
	for _, kv := range p.list {
		if kv.Value != "" {
			m[kv.Name] = kv.Value
		}
	}
	return m
}

// FormatText produces the canonical command text. Declared parameters come first in
// declared order, then any others in the order they were set. Empty values are omitted.
func FormatText(name string, declared []string, params *Params) string {
	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('(')
	first := true
	write := func(kv Param) {
		if kv.Value == "" {
			return
		}
		if !first {
			b.WriteByte(',')
		}
		first = false
		b.WriteString(kv.Name)
		b.WriteString(`="`)
		b.WriteString(quoteEscaper.Replace(kv.Value))
		b.WriteByte('"')
	}
	known := make(map[string]bool, len(declared))
	for _, d := range declared {
		known[d] = true
		if v, ok := params.Lookup(d); ok {
			write(Param{Name: d, Value: v})
		}
	}
	for _, kv := range params.list {
		if !known[kv.Name] {
			write(kv)
		}
	}
	b.WriteByte(')')
	return b.String()
}

var errNoParens = errors.New("expected Name(...)")

// quoteEscaper escapes a value for a quoted parameter. A backslash is escaped so a
// trailing one cannot swallow the closing quote.
var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// ParseText splits command text of the form Name(k1="v1",k2=v2) into its name and
// parameters. Quoted values may contain commas and the \" and \\ escapes; any other
// backslash is literal; unquoted values run
// to the next comma.
func ParseText(text string) (string, *Params, error) {
	text = strings.TrimSpace(text)
	open := strings.IndexByte(text, '(')
	if open <= 0 || !strings.HasSuffix(text, ")") {
		return "", nil, fmt.Errorf("parse %q: %w", text, errNoParens)
	}
	name := strings.TrimSpace(text[:open])
	if !isIdentifier(name) {
		return "", nil, fmt.Errorf("parse %q: invalid command name %q", text, name)
	}
	params, err := parseParamList(text[open+1 : len(text)-1])
	if err != nil {
		return name, nil, fmt.Errorf("parse %s parameters: %w", name, err)
	}
	return name, params, nil
}

func parseParamList(s string) (*Params, error) {
	params := &Params{}
	i, n := 0, len(s)
	skipSpace := func() {
		for i < n && unicode.IsSpace(rune(s[i])) {
			i++
		}
	}
	for {
		skipSpace()
		if i >= n {
			return params, nil
		}
		eq := strings.IndexByte(s[i:], '=')
		if eq < 0 {
			return nil, fmt.Errorf("missing '=' after %q", strings.TrimSpace(s[i:]))
		}
		key := strings.TrimSpace(s[i : i+eq])
		if !isIdentifier(key) {
			return nil, fmt.Errorf("invalid parameter name %q", key)
		}
		i += eq + 1
		skipSpace()

		var value string
		if i < n && s[i] == '"' {
			var b strings.Builder
			i++
			closed := false
			for i < n {
				c := s[i]
				if c == '\\' && i+1 < n && (s[i+1] == '"' || s[i+1] == '\\') {
					b.WriteByte(s[i+1])
					i += 2
					continue
				}
				if c == '"' {
					closed = true
					i++
					break
				}
				b.WriteByte(c)
				i++
			}
			if !closed {
				return nil, fmt.Errorf("unterminated quote in %s", key)
			}
			value = b.String()
			skipSpace()
			if i < n && s[i] != ',' {
				return nil, fmt.Errorf("unexpected %q after %s value", s[i], key)
			}
		} else {
			end := strings.IndexByte(s[i:], ',')
			if end < 0 {
				end = n - i
			}
			value = strings.TrimSpace(s[i : i+end])
			i += end
		}
		if _, dup := params.Lookup(key); dup {
			return nil, fmt.Errorf("parameter %s given more than once", key)
		}
		params.Set(key, value)
		if i < n && s[i] == ',' {
			i++
		}
	}
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return false
	}
	return true
}
