package command

import (
	"sort"
	"strings"
)

var commentSpec = &Spec{Name: "#", Summary: "Comment line, ignored when running."}

// builtins is the set of command kinds a script may use.
var builtins = []*Spec{
	setWorkingDirSpec,
	setPropertySpec,
	setOutputPeriodSpec,
	setInputPeriodSpec,
	setOutputYearTypeSpec,
	newTimeSeriesSpec,
	copySpec,
	readWaterMLSpec,
	readWaterOneFlowSpec,
	newDataStoreSpec,
	readTimeSeriesSpec,
	writeTimeSeriesSpec,
	selectTimeSeriesSpec,
	scaleSpec,
	fillConstantSpec,
	convertDataUnitsSpec,
	exitSpec,
}

// Lookup returns the command kind for name, ignoring case.
func Lookup(name string) (*Spec, bool) {
	for _, s := range builtins {
		if strings.EqualFold(s.Name, name) {
			return s, true
		}
	}
	return nil, false
}

// Specs returns every command kind sorted by name.
func Specs() []*Spec {
	out := append([]*Spec(nil), builtins...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Parse builds a command from one line of text. Lines that cannot be parsed, or name
// an unknown command, still yield a Unit; it fails CheckParameters with the reason.
func Parse(text string, proc Processor) *Unit {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "#") {
		return Comment(text, proc)
	}
	name, params, err := ParseText(trimmed)
	if err != nil {
		if name == "" {
			name = trimmed
			if i := strings.IndexByte(name, '('); i > 0 {
				name = strings.TrimSpace(name[:i])
			}
		}
		return &Unit{name: name, text: text, parseErr: err, params: &Params{}, proc: proc}
	}
	spec, ok := Lookup(name)
	if !ok {
		return &Unit{name: name, text: text, params: params, proc: proc}
	}
	u := NewUnit(spec, params, proc)
	u.text = text
	return u
}

// Comment builds a comment unit that keeps text verbatim.
func Comment(text string, proc Processor) *Unit {
	return &Unit{spec: commentSpec, name: commentSpec.Name, text: text, params: &Params{}, proc: proc}
}

// ParseScript builds commands from script lines. Blank lines are skipped. Lines from
// one starting with /* through the next one ending with */ are kept as comments.
func ParseScript(lines []string, proc Processor) []*Unit {
	var out []*Unit
	inBlock := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			continue
		case inBlock:
			out = append(out, Comment(line, proc))
			if strings.HasSuffix(trimmed, "*/") {
				inBlock = false
			}
		case strings.HasPrefix(trimmed, "/*"):
			out = append(out, Comment(line, proc))
			inBlock = len(trimmed) < 4 || !strings.HasSuffix(trimmed, "*/")
		default:
			out = append(out, Parse(line, proc))
		}
	}
	return out
}

// SplitLines splits script text on newlines, dropping carriage returns.
func SplitLines(script string) []string {
	return strings.Split(strings.ReplaceAll(script, "\r\n", "\n"), "\n")
}
