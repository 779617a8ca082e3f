package processor

import (
	"fmt"
	"strings"

	"github.com/couchcryptid/hydro-tsproc/internal/domain"
	"github.com/couchcryptid/hydro-tsproc/internal/registry"
)

// DateTime resolves token in order: empty or "*" (nil), a period property such as
// OutputStart, a CurrentTo* token against the clock, a named date/time property,
// ${Prop} expansion, and finally a literal.
func (p *Processor) DateTime(token string) (*domain.DateTime, error) {
	token = strings.TrimSpace(token)
	if token == "" || token == "*" {
		return nil, nil
	}
	if prop, ok := registry.DateTimeTokenProperty(token); ok {
		dt, ok := p.reg.DateTimeProperty(prop)
		if !ok {
			return nil, fmt.Errorf("date/time %s: property %s is not set: %w", token, prop, domain.ErrNotFound)
		}
		return &dt, nil
	}
	if dt, ok := domain.CurrentTo(token, p.clock.Now()); ok {
		return &dt, nil
	}
	if dt, ok := p.reg.DateTimeProperty(token); ok {
		return &dt, nil
	}
	if strings.Contains(token, "${") {
		expanded, err := p.ExpandProperties(token)
		if err != nil {
			return nil, err
		}
		if expanded == token {
			return nil, fmt.Errorf("%w: %q", domain.ErrInvalidDateTime, token)
		}
		return p.DateTime(expanded)
	}
	dt, err := domain.ParseDateTime(token)
	if err != nil {
		return nil, err
	}
	return &dt, nil
}

// ExpandProperties replaces each ${Name} in s with the named property. A missing
// property or an unterminated reference is an error.
func (p *Processor) ExpandProperties(s string) (string, error) {
	if !strings.Contains(s, "${") {
		return s, nil
	}
	var b strings.Builder
	rest := s
	for {
		i := strings.Index(rest, "${")
		if i < 0 {
			b.WriteString(rest)
			return b.String(), nil
		}
		b.WriteString(rest[:i])
		end := strings.IndexByte(rest[i+2:], '}')
		if end < 0 {
			return "", fmt.Errorf("unterminated property reference in %q", s)
		}
		name := rest[i+2 : i+2+end]
		v, ok := p.reg.Property(name)
		if !ok {
			return "", fmt.Errorf("property %q is not set: %w", name, domain.ErrNotFound)
		}
		b.WriteString(formatProperty(v))
		rest = rest[i+2+end+1:]
	}
}

func formatProperty(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case domain.DateTime:
		return x.String()
	case *domain.DateTime:
		if x == nil {
			return ""
		}
		return x.String()
	case domain.DataStore:
		return x.Name()
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(v)
	}
}
