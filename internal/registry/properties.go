package registry

import (
	"strings"

	"github.com/couchcryptid/hydro-tsproc/internal/domain"
)

// Well-known property names.
const (
	PropWorkingDir      = "WorkingDir"
	PropOutputStart     = "OutputStart"
	PropOutputEnd       = "OutputEnd"
	PropQueryStart      = "QueryStart"
	PropQueryEnd        = "QueryEnd"
	PropOutputYearType  = "OutputYearType"
	PropTSResultsList   = "TSResultsList"
	PropTSIDListNoInput = "TSIDListNoInput"
	PropDataTestList    = "DataTestList"

	dataStorePrefix = "DataStore:"
)

// dateTimeTokens maps symbolic date/time names, lower-cased, to the property holding
// their value. InputStart and InputEnd are accepted for the query period.
var dateTimeTokens = map[string]string{
	"outputstart": PropOutputStart,
	"outputend":   PropOutputEnd,
	"querystart":  PropQueryStart,
	"queryend":    PropQueryEnd,
	"inputstart":  PropQueryStart,
	"inputend":    PropQueryEnd,
}

// DateTimeTokenProperty returns the property name behind a symbolic date/time token.
func DateTimeTokenProperty(token string) (string, bool) {
	p, ok := dateTimeTokens[strings.ToLower(strings.TrimSpace(token))]
	return p, ok
}

// WorkingDir returns the working directory property, empty when unset.
func (r *Registry) WorkingDir() string {
	s, _ := r.StringProperty(PropWorkingDir)
	return s
}

// StringProperty returns key when it holds a string.
func (r *Registry) StringProperty(key string) (string, bool) {
	v, ok := r.properties[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// DateTimeProperty returns key when it holds a date/time.
func (r *Registry) DateTimeProperty(key string) (domain.DateTime, bool) {
	v, ok := r.properties[key]
	if !ok {
		return domain.DateTime{}, false
	}
	switch dt := v.(type) {
	case domain.DateTime:
		return dt, true
	case *domain.DateTime:
		if dt == nil {
			return domain.DateTime{}, false
		}
		return *dt, true
	default:
		return domain.DateTime{}, false
	}
}

// DataStore returns the named datastore handle. Names compare case-insensitively.
func (r *Registry) DataStore(name string) (domain.DataStore, bool) {
	v, ok := r.properties[dataStoreKey(name)]
	if !ok {
		return nil, false
	}
	ds, ok := v.(domain.DataStore)
	return ds, ok
}

// SetDataStore publishes a datastore handle under its name.
func (r *Registry) SetDataStore(ds domain.DataStore) {
	r.properties[dataStoreKey(ds.Name())] = ds
}

// DataStores returns every published datastore handle in name order.
func (r *Registry) DataStores() []domain.DataStore {
	var out []domain.DataStore
	for _, k := range r.PropertyNames() {
		if !strings.HasPrefix(k, dataStorePrefix) {
			continue
		}
		if ds, ok := r.properties[k].(domain.DataStore); ok {
			out = append(out, ds)
		}
	}
	return out
}

func dataStoreKey(name string) string {
	return dataStorePrefix + strings.ToLower(name)
}
