package domain

import (
	"fmt"
	"strings"
)

type conversion struct {
	factor float64
	offset float64
}

// unitAliases folds common spellings onto one canonical code.
var unitAliases = map[string]string{
	"FT3/S": "CFS",
	"M3/S":  "CMS",
	"ACFT":  "AF",
	"INCH":  "IN",
	"DEG F": "DEGF",
	"DEG C": "DEGC",
}

// conversions maps FROM|TO to new = old*factor + offset.
var conversions = map[string]conversion{
	"CFS|CMS":   {factor: 0.028316846592},
	"CMS|CFS":   {factor: 1 / 0.028316846592},
	"IN|MM":     {factor: 25.4},
	"MM|IN":     {factor: 1 / 25.4},
	"FT|M":      {factor: 0.3048},
	"M|FT":      {factor: 1 / 0.3048},
	"AF|M3":     {factor: 1233.48183754752},
	"M3|AF":     {factor: 1 / 1233.48183754752},
	"DEGF|DEGC": {factor: 5.0 / 9.0, offset: -32.0 * 5.0 / 9.0},
	"DEGC|DEGF": {factor: 9.0 / 5.0, offset: 32},
}

func canonicalUnits(u string) string {
	u = strings.ToUpper(strings.TrimSpace(u))
	if a, ok := unitAliases[u]; ok {
		return a
	}
	return u
}

// SameUnits reports whether two unit strings name the same unit.
func SameUnits(a, b string) bool {
	return canonicalUnits(a) == canonicalUnits(b)
}

// ConvertUnits rewrites every non-missing value into newUnits and updates Units.
func ConvertUnits(ts *TimeSeries, newUnits string) error {
	if SameUnits(ts.Units, newUnits) {
		ts.Units = newUnits
		return nil
	}
	c, ok := conversions[canonicalUnits(ts.Units)+"|"+canonicalUnits(newUnits)]
	if !ok {
		return fmt.Errorf("%w: %q to %q", ErrIncompatibleUnits, ts.Units, newUnits)
	}
	for i := range ts.Points {
		if ts.IsMissing(ts.Points[i].Value) {
			continue
		}
		ts.Points[i].Value = ts.Points[i].Value*c.factor + c.offset
	}
	ts.AddGenesis("Converted units from %q to %q", ts.Units, newUnits)
	ts.Units = newUnits
	return nil
}
