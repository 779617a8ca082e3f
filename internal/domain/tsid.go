package domain

import (
	"fmt"
	"strings"
)

// Wildcard matches any value in a TSID part.
const Wildcard = "*"

// TSID is the compound time series identifier
// Location.Source.DataType.Interval[Sequence].
//
// In a pattern, an empty part is ignored and "*" matches anything; any other value must
// match the candidate part case-insensitively.
type TSID struct {
	Location string `json:"location"`
	Source   string `json:"source,omitempty"`
	DataType string `json:"data_type,omitempty"`
	Interval string `json:"interval,omitempty"`
	Sequence string `json:"sequence,omitempty"`
}

// ParseTSID splits an identifier string into its parts. The location may be wrapped in
// single quotes when it contains periods, e.g. 'A.B'.USGS.Streamflow.Day.
func ParseTSID(s string) (TSID, error) {
	s = strings.TrimSpace(s)
	var id TSID

	if strings.HasSuffix(s, "]") {
		open := strings.LastIndex(s, "[")
		if open < 0 {
			return TSID{}, fmt.Errorf("%w: unbalanced sequence brackets in %q", ErrInvalidIdentifier, s)
		}
		id.Sequence = strings.TrimSpace(s[open+1 : len(s)-1])
		s = s[:open]
	} else if strings.Contains(s, "[") {
		return TSID{}, fmt.Errorf("%w: unbalanced sequence brackets in %q", ErrInvalidIdentifier, s)
	}

	parts, err := splitTSIDParts(s)
	if err != nil {
		return TSID{}, err
	}
	if len(parts) > 4 {
		return TSID{}, fmt.Errorf("%w: %q has %d parts, at most 4 allowed", ErrInvalidIdentifier, s, len(parts))
	}

	fields := []*string{&id.Location, &id.Source, &id.DataType, &id.Interval}
	for i, p := range parts {
		*fields[i] = p
	}
	return id, nil
}

// MustParseTSID is ParseTSID for identifiers known to be valid, such as test fixtures.
func MustParseTSID(s string) TSID {
	id, err := ParseTSID(s)
	if err != nil {
		panic(err)
	}
	return id
}

func splitTSIDParts(s string) ([]string, error) {
	if s == "" {
		return nil, nil
	}
	var (
		parts   []string
		current strings.Builder
		quoted  bool
	)
	for _, r := range s {
		switch {
		case r == '\'':
			quoted = !quoted
		case r == '.' && !quoted:
			parts = append(parts, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	if quoted {
		return nil, fmt.Errorf("%w: unterminated quote in %q", ErrInvalidIdentifier, s)
	}
	return append(parts, strings.TrimSpace(current.String())), nil
}

// String serializes the identifier, omitting trailing empty parts.
func (id TSID) String() string {
	loc := id.Location
	if strings.Contains(loc, ".") {
		loc = "'" + loc + "'"
	}
	parts := []string{loc, id.Source, id.DataType, id.Interval}
	n := len(parts)
	for n > 1 && parts[n-1] == "" {
		n--
	}
	s := strings.Join(parts[:n], ".")
	if id.Sequence != "" {
		s += "[" + id.Sequence + "]"
	}
	return s
}

// IsZero reports whether every part is empty.
func (id TSID) IsZero() bool {
	return id == TSID{}
}

// HasWildcard reports whether any part is the wildcard.
func (id TSID) HasWildcard() bool {
	for _, p := range id.parts() {
		if p == Wildcard {
			return true
		}
	}
	return false
}

// Matches reports whether candidate satisfies id used as a pattern.
func (id TSID) Matches(candidate TSID) bool {
	want := id.parts()
	got := candidate.parts()
	for i := range want {
		if !matchPart(want[i], got[i]) {
			return false
		}
	}
	return true
}

func (id TSID) parts() [5]string {
	return [5]string{id.Location, id.Source, id.DataType, id.Interval, id.Sequence}
}

func matchPart(pattern, value string) bool {
	return pattern == "" || pattern == Wildcard || strings.EqualFold(pattern, value)
}

// MatchesString reports whether a record with the given alias and identifier satisfies
// pattern. The alias is compared first, then the parsed identifier. A pattern that
// fails to parse only matches by alias.
func MatchesString(pattern, alias string, id TSID) bool {
	pattern = strings.TrimSpace(pattern)
	if pattern == Wildcard {
		return true
	}
	if alias != "" && strings.EqualFold(pattern, alias) {
		return true
	}
	p, err := ParseTSID(pattern)
	if err != nil {
		return false
	}
	return p.Matches(id)
}
