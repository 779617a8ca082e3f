package waterml

import (
	"encoding/xml"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/couchcryptid/hydro-tsproc/internal/domain"
)

type collectionV2 struct {
	Members []struct {
		Observation observationV2 `xml:"OM_Observation"`
	} `xml:"observationMember"`
}

type observationV2 struct {
	ObservedProperty xlinkRef `xml:"observedProperty"`
	Feature          struct {
		xlinkRef
		Point struct {
			Identifier struct {
				CodeSpace string `xml:"codeSpace,attr"`
				Value     string `xml:",chardata"`
			} `xml:"identifier"`
			Name string `xml:"name"`
		} `xml:"MonitoringPoint"`
	} `xml:"featureOfInterest"`
	Series seriesV2 `xml:"result>MeasurementTimeseries"`
}

type xlinkRef struct {
	Title string `xml:"title,attr"`
	Href  string `xml:"href,attr"`
}

// name returns the title, else the fragment or last path element of the href.
func (r xlinkRef) name() string {
	if t := strings.TrimSpace(r.Title); t != "" {
		return t
	}
	h := strings.TrimSpace(r.Href)
	if i := strings.LastIndexAny(h, "#/"); i >= 0 {
		return h[i+1:]
	}
	return h
}

type seriesV2 struct {
	Default struct {
		UOM struct {
			Code string `xml:"code,attr"`
		} `xml:"uom"`
		AggregationDuration string        `xml:"aggregationDuration"`
		Qualifiers          []qualifierV2 `xml:"qualifier"`
	} `xml:"defaultPointMetadata>DefaultTVPMeasurementMetadata"`
	Points []struct {
		TVP struct {
			Time  string `xml:"time"`
			Value struct {
				Text string `xml:",chardata"`
				Nil  string `xml:"nil,attr"`
			} `xml:"value"`
			Qualifiers []qualifierV2 `xml:"metadata>TVPMeasurementMetadata>qualifier"`
		} `xml:"MeasurementTVP"`
	} `xml:"point"`
}

type qualifierV2 struct {
	xlinkRef
	Category struct {
		Value       string `xml:"value"`
		Description string `xml:"description"`
	} `xml:"Category"`
}

func (q qualifierV2) code() string {
	if v := strings.TrimSpace(q.Category.Value); v != "" {
		return v
	}
	return q.xlinkRef.name()
}

func (q qualifierV2) description() string {
	if d := strings.TrimSpace(q.Category.Description); d != "" {
		return d
	}
	return strings.TrimSpace(q.Title)
}

func (d *Decoder) decodeV2(content []byte, opts domain.DecodeOptions) ([]*domain.TimeSeries, error) {
	var coll collectionV2
	if err := xml.Unmarshal(content, &coll); err != nil {
		return nil, err
	}
	out := make([]*domain.TimeSeries, 0, len(coll.Members))
	for i, m := range coll.Members {
		ts, err := d.seriesV2(m.Observation, opts)
		if err != nil {
			d.logger.Warn("skipping WaterML time series", "provenance", opts.Provenance, "index", i, "error", err)
			continue
		}
		out = append(out, ts)
	}
	return out, nil
}

func (d *Decoder) seriesV2(obs observationV2, opts domain.DecodeOptions) (*domain.TimeSeries, error) {
	ident := obs.Feature.Point.Identifier
	loc := strings.TrimSpace(ident.Value)
	if loc == "" {
		loc = obs.Feature.xlinkRef.name()
	}
	if loc == "" {
		return nil, fmt.Errorf("observation has no monitoring point identifier")
	}
	source := strings.TrimSpace(ident.CodeSpace)
	if strings.Contains(source, "://") {
		source = ""
	}

	s := obs.Series
	id := domain.TSID{
		Location: loc,
		Source:   source,
		DataType: obs.ObservedProperty.name(),
		Interval: intervalOrDefault(opts.Interval, durationInterval(s.Default.AggregationDuration)),
	}
	ts := domain.NewTimeSeries(id)
	ts.Description = strings.TrimSpace(obs.Feature.Point.Name)
	ts.Units = strings.TrimSpace(s.Default.UOM.Code)

	defaultFlag := ""
	for _, q := range s.Default.Qualifiers {
		ts.RegisterFlag(q.code(), q.description())
		if defaultFlag == "" {
			defaultFlag = q.code()
		}
	}
	for i, p := range s.Points {
		when, err := parseTime(p.TVP.Time, "")
		if err != nil {
			d.skip(opts, id, i+1, err)
			continue
		}
		text := p.TVP.Value.Text
		if strings.EqualFold(strings.TrimSpace(p.TVP.Value.Nil), "true") {
			text = ""
		}
		value, err := parseValue(text)
		if err != nil {
			d.skip(opts, id, i+1, err)
			continue
		}
		flag := defaultFlag
		for j, q := range p.TVP.Qualifiers {
			ts.RegisterFlag(q.code(), q.description())
			if j == 0 {
				flag = q.code()
			}
		}
		ts.Points = append(ts.Points, domain.Point{Time: when, Value: value, Flag: flag})
	}
	ts.AddGenesis("Read from WaterML %s document %s.", Version20, opts.Provenance)
	return ts, nil
}

var isoDuration = regexp.MustCompile(`^P(?:(\d+)Y)?(?:(\d+)M)?(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?)?$`)

// durationInterval maps a single-component ISO 8601 duration (P1D, PT15M, P1M) to an
// interval string. Compound durations are not intervals and return "".
func durationInterval(s string) string {
	m := isoDuration.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return ""
	}
	units := []string{"Year", "Month", "Day", "Hour", "Minute"}
	result := ""
	for i, u := range units {
		if m[i+1] == "" {
			continue
		}
		if result != "" {
			return ""
		}
		n, err := strconv.Atoi(m[i+1])
		if err != nil || n <= 0 {
			return ""
		}
		result = strconv.Itoa(n) + u
	}
	return result
}
