package sensitivity

import (
	"fmt"
	"math"

	"bitbucket.org/Davydov/lhon/liability"
	"bitbucket.org/Davydov/lhon/params"
	"bitbucket.org/Davydov/lhon/risk"
	"bitbucket.org/Davydov/lhon/tally"
)

// Scenario is a named bundle of parameter overrides.
type Scenario struct {
	Name      string
	Overrides map[string]float64
}

// BaseCase is the name of the scenario without overrides.
const BaseCase = "base_case"

// Scenarios returns the optimistic and pessimistic extremes and the base
// case.
func Scenarios() []Scenario {
	return []Scenario{
		{"optimistic", map[string]float64{
			"male_effect":          math.Log(3),
			"smoking_heavy_effect": math.Log(1.5),
			"threshold":            3.0,
			"base_liability_11778": -0.5,
			"base_liability_14484": -1.5,
			"base_liability_3460":  0.5,
		}},
		{"pessimistic", map[string]float64{
			"male_effect":          math.Log(15),
			"smoking_heavy_effect": math.Log(6),
			"threshold":            1.0,
			"base_liability_11778": 1.5,
			"base_liability_14484": 0.5,
			"base_liability_3460":  2.5,
		}},
		{BaseCase, nil},
	}
}

// KeyScenario is a risk profile reported for every scenario bundle.
type KeyScenario struct {
	Name string
	liability.Scenario
}

// KeyScenarios are the profiles reported by Evaluate.
var KeyScenarios = func() []KeyScenario {
	female := liability.Reference(risk.M11778)
	female.Sex = risk.Female
	smoker := liability.Reference(risk.M11778)
	smoker.Smoking = risk.Heavy
	j := liability.Reference(risk.M14484)
	j.Haplogroup = risk.HaploJ
	return []KeyScenario{
		{"male_11778_nonsmoker", liability.Reference(risk.M11778)},
		{"female_11778_nonsmoker", female},
		{"male_11778_heavy_smoker", smoker},
		{"male_14484_j_haplotype", j},
		{"male_3460_nonsmoker", liability.Reference(risk.M3460)},
	}
}()

// ScenarioResult holds prevalence per 100,000 and the penetrance in
// percent of each key scenario, in the order of KeyScenarios.
type ScenarioResult struct {
	Name       string
	Prevalence float64
	Penetrance []float64
	// Ratio of prevalence to the base case.
	Ratio tally.Rate
}

// Evaluate applies every scenario to base.
func Evaluate(base *params.Set, scenarios []Scenario) ([]ScenarioResult, error) {
	res := make([]ScenarioResult, 0, len(scenarios))
	for _, s := range scenarios {
		p, err := base.With(s.Overrides)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
		}
		r := ScenarioResult{Name: s.Name, Prevalence: liability.PopulationPrevalence(p)}
		for _, k := range KeyScenarios {
			r.Penetrance = append(r.Penetrance, 100*liability.ScenarioPenetrance(p, k.Scenario))
		}
		res = append(res, r)
	}
	bp := liability.PopulationPrevalence(base)
	for i := range res {
		res[i].Ratio = tally.Ratio(res[i].Prevalence, bp)
	}
	return res, nil
}
