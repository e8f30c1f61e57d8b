package domain

// Summary holds the headline figures shown above the observation table.
type Summary struct {
	Count   int      `json:"count"`
	MinTemp *float64 `json:"minTemp"`
	MaxTemp *float64 `json:"maxTemp"`
}

// Summarize counts observations and finds the temperature range over those
// with a resolved temperature.
func Summarize(observations []Observation) Summary {
	s := Summary{Count: len(observations)}
	for _, ob := range observations {
		if ob.Temperature == nil {
			continue
		}
		t := *ob.Temperature
		if s.MinTemp == nil || t < *s.MinTemp {
			s.MinTemp = &t
		}
		if s.MaxTemp == nil || t > *s.MaxTemp {
			s.MaxTemp = &t
		}
	}
	return s
}
