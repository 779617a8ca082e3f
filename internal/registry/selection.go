package registry

import (
	"fmt"
	"strings"
)

// Selector names a rule for choosing records from the registry.
type Selector string

const (
	AllTS            Selector = "AllTS"
	AllMatchingTSID  Selector = "AllMatchingTSID"
	LastMatchingTSID Selector = "LastMatchingTSID"
	SelectedTS       Selector = "SelectedTS"
)

// Selectors lists the accepted selector names in display order.
var Selectors = []Selector{AllTS, AllMatchingTSID, LastMatchingTSID, SelectedTS}

// ParseSelector maps a parameter value onto a Selector, ignoring case. An empty value
// defaults to AllMatchingTSID when a pattern is given and AllTS otherwise.
func ParseSelector(s, pattern string) (Selector, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		if strings.TrimSpace(pattern) == "" {
			return AllTS, nil
		}
		return AllMatchingTSID, nil
	}
	for _, sel := range Selectors {
		if strings.EqualFold(s, string(sel)) {
			return sel, nil
		}
	}
	return "", fmt.Errorf("unknown TSList value %q", s)
}

// Selection returns the records chosen by selector, in registry order.
// LastMatchingTSID returns at most one entry, the highest matching position.
func (r *Registry) Selection(selector Selector, pattern string) ([]Entry, error) {
	var out []Entry
	switch selector {
	case AllTS:
		for i, ts := range r.series {
			out = append(out, Entry{TimeSeries: ts, Position: i})
		}
	case AllMatchingTSID:
		for _, pos := range r.Resolve(pattern) {
			out = append(out, Entry{TimeSeries: r.series[pos], Position: pos})
		}
	case LastMatchingTSID:
		if pos := r.IndexOf(pattern); pos != NotFound {
			out = append(out, Entry{TimeSeries: r.series[pos], Position: pos})
		}
	case SelectedTS:
		for i, ts := range r.series {
			if ts.Selected {
				out = append(out, Entry{TimeSeries: ts, Position: i})
			}
		}
	default:
		return nil, fmt.Errorf("unknown selector %q", selector)
	}
	return out, nil
}
