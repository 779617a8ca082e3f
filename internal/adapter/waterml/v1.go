package waterml

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/couchcryptid/hydro-tsproc/internal/domain"
)

// WaterML 1.0 and 1.1 share element names; 1.0 carries units as an attribute of
// <units> and qualifier codes as attributes, 1.1 uses child elements.

type responseV1 struct {
	Series []seriesV1 `xml:"timeSeries"`
}

type seriesV1 struct {
	SourceInfo struct {
		SiteName string       `xml:"siteName"`
		SiteCode []siteCodeV1 `xml:"siteCode"`
	} `xml:"sourceInfo"`
	Variable variableV1 `xml:"variable"`
	Values   []valuesV1 `xml:"values"`
}

type siteCodeV1 struct {
	Value      string `xml:",chardata"`
	Network    string `xml:"network,attr"`
	AgencyCode string `xml:"agencyCode,attr"`
}

type variableV1 struct {
	Code []struct {
		Value string `xml:",chardata"`
	} `xml:"variableCode"`
	Name string `xml:"variableName"`
	Unit struct {
		Abbreviation string `xml:"unitAbbreviation"`
		Code         string `xml:"unitCode"`
	} `xml:"unit"`
	Units struct {
		Abbreviation string `xml:"unitsAbbreviation,attr"`
		Name         string `xml:",chardata"`
	} `xml:"units"`
	NoDataValue string `xml:"noDataValue"`
	TimeScale   struct {
		IsRegular string `xml:"isRegular,attr"`
		Unit      struct {
			Name         string `xml:"unitName"`
			Abbreviation string `xml:"unitAbbreviation"`
		} `xml:"unit"`
		TimeSupport string `xml:"timeSupport"`
	} `xml:"timeScale"`
}

type valuesV1 struct {
	Value     []valueV1     `xml:"value"`
	Qualifier []qualifierV1 `xml:"qualifier"`
}

type valueV1 struct {
	DateTime    string `xml:"dateTime,attr"`
	DateTimeUTC string `xml:"dateTimeUTC,attr"`
	TimeOffset  string `xml:"timeOffset,attr"`
	Qualifiers  string `xml:"qualifiers,attr"`
	Text        string `xml:",chardata"`
}

type qualifierV1 struct {
	CodeAttr    string `xml:"qualifierCode,attr"`
	Code        string `xml:"qualifierCode"`
	Description string `xml:"qualifierDescription"`
	Text        string `xml:",chardata"`
}

func (q qualifierV1) code() string {
	if q.Code != "" {
		return strings.TrimSpace(q.Code)
	}
	return strings.TrimSpace(q.CodeAttr)
}

func (q qualifierV1) description() string {
	if q.Description != "" {
		return strings.TrimSpace(q.Description)
	}
	return strings.TrimSpace(q.Text)
}

func (d *Decoder) decodeV1(content []byte, version Version, opts domain.DecodeOptions) ([]*domain.TimeSeries, error) {
	var resp responseV1
	if err := xml.Unmarshal(content, &resp); err != nil {
		return nil, err
	}
	out := make([]*domain.TimeSeries, 0, len(resp.Series))
	for i, s := range resp.Series {
		ts, err := d.seriesV1(s, version, opts)
		if err != nil {
			d.logger.Warn("skipping WaterML time series", "provenance", opts.Provenance, "index", i, "error", err)
			continue
		}
		out = append(out, ts)
	}
	return out, nil
}

func (d *Decoder) seriesV1(s seriesV1, version Version, opts domain.DecodeOptions) (*domain.TimeSeries, error) {
	var site siteCodeV1
	if len(s.SourceInfo.SiteCode) > 0 {
		site = s.SourceInfo.SiteCode[0]
	}
	loc := strings.TrimSpace(site.Value)
	if loc == "" {
		return nil, fmt.Errorf("time series has no siteCode")
	}
	source := strings.TrimSpace(site.AgencyCode)
	if source == "" {
		source = strings.TrimSpace(site.Network)
	}
	dataType := strings.TrimSpace(s.Variable.Name)
	if len(s.Variable.Code) > 0 && strings.TrimSpace(s.Variable.Code[0].Value) != "" {
		dataType = strings.TrimSpace(s.Variable.Code[0].Value)
	}

	id := domain.TSID{
		Location: loc,
		Source:   source,
		DataType: dataType,
		Interval: intervalOrDefault(opts.Interval, s.Variable.timeScaleInterval()),
	}
	ts := domain.NewTimeSeries(id)
	ts.Description = strings.TrimSpace(s.SourceInfo.SiteName)
	ts.Units = s.Variable.units()

	if nd := strings.TrimSpace(s.Variable.NoDataValue); nd != "" {
		if v, err := strconv.ParseFloat(nd, 64); err == nil {
			ts.MissingValue = v
		}
	}

	index := 0
	for _, block := range s.Values {
		for _, q := range block.Qualifier {
			ts.RegisterFlag(q.code(), q.description())
		}
		for _, v := range block.Value {
			index++
			t, off := v.DateTimeUTC, ""
			if t == "" {
				t, off = v.DateTime, v.TimeOffset
			}
			when, err := parseTime(t, off)
			if err != nil {
				d.skip(opts, id, index, err)
				continue
			}
			value, err := parseValue(v.Text)
			if err != nil {
				d.skip(opts, id, index, err)
				continue
			}
			ts.Points = append(ts.Points, domain.Point{Time: when, Value: value, Flag: strings.TrimSpace(v.Qualifiers)})
		}
	}
	ts.AddGenesis("Read from WaterML %s document %s.", version, opts.Provenance)
	return ts, nil
}

func (v variableV1) units() string {
	for _, u := range []string{v.Unit.Abbreviation, v.Unit.Code, v.Units.Abbreviation, v.Units.Name} {
		if u = strings.TrimSpace(u); u != "" {
			return u
		}
	}
	return ""
}

// timeScaleInterval converts a regular timeScale such as unitName=day, timeSupport=1
// into an interval string.
func (v variableV1) timeScaleInterval() string {
	ts := v.TimeScale
	if !strings.EqualFold(strings.TrimSpace(ts.IsRegular), "true") {
		return ""
	}
	unit := strings.TrimSpace(ts.Unit.Name)
	if unit == "" {
		unit = strings.TrimSpace(ts.Unit.Abbreviation)
	}
	if unit == "" {
		return ""
	}
	if n, err := strconv.Atoi(strings.TrimSpace(ts.TimeSupport)); err == nil && n > 1 {
		return strconv.Itoa(n) + unit
	}
	return unit
}
