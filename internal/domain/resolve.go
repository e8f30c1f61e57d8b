package domain

// Resolve returns the first candidate that coerces to a finite number.
// Candidates are listed in preference order, so an instantaneous reading
// listed before its averaged variant wins whenever both are present.
func Resolve(candidates ...any) *float64 {
	for _, c := range candidates {
		if n := CoerceNumber(c); n != nil {
			return n
		}
	}
	return nil
}

type scope int

const (
	scopeMetric scope = iota // nested "metric" record, or the observation itself
	scopeTop                 // top-level observation fields
)

// path names one place a quantity may be found.
type path struct {
	scope scope
	key   string
}

func m(key string) path { return path{scope: scopeMetric, key: key} }
func o(key string) path { return path{scope: scopeTop, key: key} }

// quantity binds an Observation field to its ordered alias list.
type quantity struct {
	name  string
	paths []path
	field func(*Observation) **float64
}

// candidates collects the raw values along the quantity's paths.
func (q quantity) candidates(top, metric RawObservation) []any {
	out := make([]any, len(q.paths))
	for i, p := range q.paths {
		if p.scope == scopeMetric {
			out[i] = metric.lookup(p.key)
		} else {
			out[i] = top.lookup(p.key)
		}
	}
	return out
}

// quantities is the alias table. Providers are inconsistent about field
// names, so every spelling stays listed even when it looks redundant.
// The trailing history-endpoint names (dewptAvg, windspeedAvg, ...) only
// apply when all earlier aliases are absent.
var quantities = []quantity{
	{
		name:  "temp",
		paths: []path{m("temp"), o("temp"), m("tempAvg"), o("tempAvg"), m("temperature"), o("temperature")},
		field: func(ob *Observation) **float64 { return &ob.Temperature },
	},
	{
		name: "dew",
		paths: []path{
			m("dewPt"), m("dewpoint"), o("dewPt"), o("dewpoint"),
			m("dewPoint"), o("dewPoint"), m("dewpt"), o("dewpt"),
			m("dewptAvg"), o("dewptAvg"),
		},
		field: func(ob *Observation) **float64 { return &ob.DewPoint },
	},
	{
		name:  "humidity",
		paths: []path{m("humidity"), o("humidity"), m("humidityAvg"), o("humidityAvg")},
		field: func(ob *Observation) **float64 { return &ob.Humidity },
	},
	{
		name: "pres",
		paths: []path{
			m("pressure"), o("pressure"), m("pressureAvg"), o("pressureAvg"), m("pressureMean"),
			m("pressureMax"), o("pressureMax"), m("pressureMin"), o("pressureMin"),
		},
		field: func(ob *Observation) **float64 { return &ob.Pressure },
	},
	{
		name: "wind",
		paths: []path{
			m("windSpeed"), o("windSpeed"), m("windSpeedAvg"), o("windSpeedAvg"), m("windAvg"), o("windAvg"),
			m("windspeedAvg"), o("windspeedAvg"),
		},
		field: func(ob *Observation) **float64 { return &ob.WindSpeed },
	},
	{
		name: "gust",
		paths: []path{
			m("windGust"), o("windGust"), m("windGustMax"), o("windGustMax"), m("windHigh"), o("windHigh"),
			m("windgustHigh"), o("windgustHigh"),
		},
		field: func(ob *Observation) **float64 { return &ob.WindGust },
	},
	{
		name: "dirDeg",
		paths: []path{
			o("winddir"), o("windDir"), o("windDirection"), m("winddir"), m("windDirection"),
			o("winddirAvg"), m("winddirAvg"),
		},
		field: func(ob *Observation) **float64 { return &ob.WindDirection },
	},
	{
		name:  "precipRate",
		paths: []path{m("precipRate"), o("precipRate"), m("precipRateMax"), o("precipRateMax")},
		field: func(ob *Observation) **float64 { return &ob.PrecipRate },
	},
	{
		name: "precipTotal",
		paths: []path{
			m("precipTotal"), o("precipTotal"),
			m("precipAccum"), o("precipAccum"),
			m("precipRateSum"), o("precipRateSum"),
			m("precipTotalDaily"), o("precipTotalDaily"),
		},
		field: func(ob *Observation) **float64 { return &ob.PrecipTotal },
	},
	{
		name:  "uv",
		paths: []path{m("uv"), o("uv"), m("uvHigh"), o("uvHigh")},
		field: func(ob *Observation) **float64 { return &ob.UVIndex },
	},
	{
		name:  "rad",
		paths: []path{m("solarRadiation"), o("solarRadiation"), m("solarRadiationHigh"), o("solarRadiationHigh")},
		field: func(ob *Observation) **float64 { return &ob.SolarRadiation },
	},
}

// timestampKeys lists the top-level time fields in priority order.
var timestampKeys = []string{
	"obsTimeUtc", "validTimeUtc",
	"obsTimeLocal", "validTimeLocal",
	"dateTimeIso", "dateTime",
}
