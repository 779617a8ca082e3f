// Package domain models hydrologic and meteorological time series and the ports the
// command processor uses to reach external data.
//
// # Identifiers
//
// A time series identifier (TSID) has the form
//
//	Location.Source.DataType.Interval[Sequence]
//
// e.g. "01646500.USGS.Streamflow.Day" or "'ST.VRAIN'.NWS.Precip.6Hour[1995]". A location
// containing periods is single-quoted; the optional bracketed sequence distinguishes
// traces of the same identifier. Records may also carry an alias, which commands can use
// instead of the full identifier.
//
// Used as a pattern, each part follows three rules:
//
//	""   the part is ignored
//	"*"  the part matches any value
//	text the part must equal the candidate part, ignoring case
//
// # Values and periods
//
// Points are stored in time order. A missing value is the record's MissingValue
// sentinel (NaN unless the source declares one), never an absent point. Period always
// brackets every stored point; OriginalPeriod keeps the bounds first observed.
//
// # Intervals
//
// Intervals are a base (Minute, Hour, Day, Month, Year, Irregular) and a multiplier,
// written "15Minute", "6Hour", "Day" and so on. See [ParseInterval].
package domain
