// Package tally provides rates which distinguish zero from "no data"
// and summaries of repeated estimates.
package tally

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/montanaflynn/stats"
)

// PerHundredThousand is the population scale used for frequencies
// and prevalences.
const PerHundredThousand = 100000

// NA is the textual representation of a missing rate.
const NA = "NA"

// Rate is a proportion or a scaled rate which might be undefined,
// e.g. affected/carriers when there are no carriers.
type Rate struct {
	Value float64
	Valid bool
}

// Of returns a valid rate.
func Of(v float64) Rate {
	return Rate{Value: v, Valid: true}
}

// NoData is an undefined rate.
var NoData = Rate{}

// Ratio returns num/den, or NoData if den is zero.
func Ratio(num, den float64) Rate {
	if den == 0 {
		return NoData
	}
	return Of(num / den)
}

// Count returns num/den scaled by scale, or NoData if den is zero.
func Count(num, den int, scale float64) Rate {
	if den == 0 {
		return NoData
	}
	return Of(float64(num) / float64(den) * scale)
}

// Scale multiplies a valid rate by f.
func (r Rate) Scale(f float64) Rate {
	if !r.Valid {
		return r
	}
	return Of(r.Value * f)
}

// Div returns r/o, undefined if either is undefined or o is zero.
func (r Rate) Div(o Rate) Rate {
	if !r.Valid || !o.Valid {
		return NoData
	}
	return Ratio(r.Value, o.Value)
}

func (r Rate) String() string {
	if !r.Valid {
		return NA
	}
	return strconv.FormatFloat(r.Value, 'g', -1, 64)
}

// MarshalJSON writes undefined rates as null.
func (r Rate) MarshalJSON() ([]byte, error) {
	if !r.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(r.Value)
}

// UnmarshalJSON reads null as an undefined rate.
func (r *Rate) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*r = NoData
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*r = Of(v)
	return nil
}

// ParseRate reads a value written by Rate.String.
func ParseRate(s string) (Rate, error) {
	if s == NA || s == "" {
		return NoData, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return NoData, err
	}
	return Of(v), nil
}

// Values returns valid values only.
func Values(rs []Rate) []float64 {
	v := make([]float64, 0, len(rs))
	for _, r := range rs {
		if r.Valid {
			v = append(v, r.Value)
		}
	}
	return v
}

// Summary describes an empirical distribution of estimates.
type Summary struct {
	N      int  `json:"n"`
	Mean   Rate `json:"mean"`
	SD     Rate `json:"sd"`
	Median Rate `json:"median"`
	Lower  Rate `json:"lower"`
	Upper  Rate `json:"upper"`
	Min    Rate `json:"min"`
	Max    Rate `json:"max"`
}

// Summarize computes mean, sample standard deviation, median and the
// central 95% interval of the valid rates. Undefined rates are
// skipped.
func Summarize(rs []Rate) (s Summary) {
	v := Values(rs)
	s.N = len(v)
	if s.N == 0 {
		return
	}
	data := stats.Float64Data(v)
	if m, err := data.Mean(); err == nil {
		s.Mean = Of(m)
	}
	if s.N > 1 {
		if sd, err := data.StandardDeviationSample(); err == nil {
			s.SD = Of(sd)
		}
	}
	if med, err := data.Median(); err == nil {
		s.Median = Of(med)
	}
	if lo, err := data.Percentile(2.5); err == nil {
		s.Lower = Of(lo)
	}
	if hi, err := data.Percentile(97.5); err == nil {
		s.Upper = Of(hi)
	}
	if mn, err := data.Min(); err == nil {
		s.Min = Of(mn)
	}
	if mx, err := data.Max(); err == nil {
		s.Max = Of(mx)
	}
	return
}

// Mean returns the mean of valid rates, or NoData.
func Mean(rs []Rate) Rate {
	v := Values(rs)
	if len(v) == 0 {
		return NoData
	}
	m, err := stats.Mean(v)
	if err != nil || math.IsNaN(m) {
		return NoData
	}
	return Of(m)
}
