// Package validate compares model outputs with published figures. Every
// check runs independently; a failed or impossible check is reported,
// never fatal.
package validate

import (
	"github.com/op/go-logging"

	"bitbucket.org/Davydov/lhon/tally"
)

var log = logging.MustGetLogger("validate")

// Status is the outcome of a check.
type Status string

const (
	Pass   Status = "PASS"
	Fail   Status = "FAIL"
	NoData Status = "NO_DATA"
)

// Check compares a modelled value with an expected one. Depending on
// the check the window applies to the value itself or to the ratio
// modelled/expected.
type Check struct {
	Name     string     `json:"name"`
	Expected float64    `json:"expected"`
	Modeled  tally.Rate `json:"modeled"`
	Ratio    tally.Rate `json:"ratio"`
	Low      float64    `json:"low"`
	High     float64    `json:"high"`
	Status   Status     `json:"status"`
}

func status(v tally.Rate, low, high float64) Status {
	switch {
	case !v.Valid:
		return NoData
	case low <= v.Value && v.Value <= high:
		return Pass
	}
	return Fail
}

// RatioCheck passes if modeled/expected is within [low, high].
func RatioCheck(name string, modeled tally.Rate, expected, low, high float64) Check {
	c := Check{Name: name, Expected: expected, Modeled: modeled, Low: low, High: high}
	c.Ratio = modeled.Div(tally.Of(expected))
	c.Status = status(c.Ratio, low, high)
	return c
}

// RangeCheck passes if modeled is within [low, high].
func RangeCheck(name string, modeled tally.Rate, expected, low, high float64) Check {
	c := Check{Name: name, Expected: expected, Modeled: modeled, Low: low, High: high}
	c.Ratio = modeled.Div(tally.Of(expected))
	c.Status = status(modeled, low, high)
	return c
}

// FlagCheck reports a boolean outcome; a missing outcome has no data.
func FlagCheck(name string, ok *bool) Check {
	c := Check{Name: name, Expected: 1, Low: 1, High: 1, Status: NoData}
	if ok == nil {
		return c
	}
	c.Modeled = tally.Of(0)
	c.Status = Fail
	if *ok {
		c.Modeled = tally.Of(1)
		c.Status = Pass
	}
	c.Ratio = c.Modeled
	return c
}

// Inputs are the model outputs under validation. Missing values are
// left undefined.
type Inputs struct {
	// Monte Carlo means per 100,000.
	CarrierFrequency tally.Rate
	Prevalence       tally.Rate
	// Penetrance of all carriers, males and females in the network.
	Overall tally.Rate
	Male    tally.Rate
	Female  tally.Rate
	// Calibrated is nil if no calibration was run.
	Calibrated *bool
}

// Theoretical is the prevalence implied by gnomAD and Watson et al.
type Theoretical struct {
	Expected    float64    `json:"expected"`
	Theoretical float64    `json:"theoretical"`
	Ratio       tally.Rate `json:"ratio"`
}

// Report collects all checks.
type Report struct {
	Checks        []Check
	Theoretical   Theoretical
	Discrepancies []Discrepancy
	Revised       []Revised
}

// Windows of acceptable values.
const (
	CarrierLow, CarrierHigh       = 0.8, 1.2
	PenetranceLow, PenetranceHigh = 0.1, 10
	SexRatioLow, SexRatioHigh     = 0.5, 2
)

// Validate runs every check on in.
func Validate(e *Empirical, in Inputs) *Report {
	r := &Report{
		Discrepancies: Discrepancies(e),
		Revised:       RevisedEstimates(e),
	}
	r.Checks = append(r.Checks,
		RatioCheck("Carrier Frequencies", in.CarrierFrequency, e.TotalCarriers(), CarrierLow, CarrierHigh),
		RangeCheck("Population Prevalence", in.Prevalence, e.Average, e.PrevalenceMin, e.PrevalenceMax),
		RatioCheck("Overall Penetrance", in.Overall, e.WatsonPenetrance, PenetranceLow, PenetranceHigh),
	)

	sex := in.Male.Div(in.Female)
	if in.Female.Valid && in.Female.Value <= 0 {
		sex = tally.NoData
	}
	r.Checks = append(r.Checks,
		RatioCheck("Sex Ratio", sex, e.SexRatio, SexRatioLow, SexRatioHigh),
		FlagCheck("Model Calibration", in.Calibrated),
	)

	th := e.Theoretical()
	r.Theoretical = Theoretical{Expected: e.Average, Theoretical: th, Ratio: tally.Ratio(th, e.Average)}

	for _, c := range r.Checks {
		log.Infof("%-22s %s", c.Name, c.Status)
	}
	return r
}

// Count returns the number of checks with status s.
func (r *Report) Count(s Status) (n int) {
	for _, c := range r.Checks {
		if c.Status == s {
			n++
		}
	}
	return
}

// Discrepancy is a known mismatch between data sources.
type Discrepancy struct {
	Type           string     `json:"type"`
	Description    string     `json:"description"`
	Interpretation string     `json:"interpretation"`
	Expected       tally.Rate `json:"expected"`
	Observed       tally.Rate `json:"observed"`
	Ratio          tally.Rate `json:"discrepancy_ratio"`
}

// Discrepancies lists mismatches between gnomAD carrier frequencies,
// observed prevalence and the literature.
func Discrepancies(e *Empirical) []Discrepancy {
	implied := e.TotalCarriers() * e.TraditionalAverage
	return []Discrepancy{
		{
			Type:           "gnomAD_prevalence_mismatch",
			Description:    "gnomAD carrier frequency too high for observed prevalence",
			Interpretation: "Traditional penetrance estimates are too high",
			Expected:       tally.Of(e.Average),
			Observed:       tally.Of(implied),
			Ratio:          tally.Ratio(implied, e.Average),
		},
		{
			Type:           "haplogroup_J_frequency",
			Description:    "14484T>C on haplogroup J is rare in gnomAD",
			Interpretation: "J may be permissive rather than causative",
			Observed:       tally.Of(0.08),
		},
		{
			Type:           "sex_bias_mechanism",
			Description:    "Strong male bias in disease despite equal carrier frequency",
			Interpretation: "Sex-linked modifiers or X-chromosome effects",
			Expected:       tally.Of(1),
			Observed:       tally.Of(e.SexRatio),
			Ratio:          tally.Of(e.SexRatio),
		},
	}
}
