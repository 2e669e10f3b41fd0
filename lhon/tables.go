package main

import (
	"strings"

	"bitbucket.org/Davydov/lhon/bnmodel"
	"bitbucket.org/Davydov/lhon/calibrate"
	"bitbucket.org/Davydov/lhon/liability"
	"bitbucket.org/Davydov/lhon/network"
	"bitbucket.org/Davydov/lhon/params"
	"bitbucket.org/Davydov/lhon/prevalence"
	"bitbucket.org/Davydov/lhon/report"
	"bitbucket.org/Davydov/lhon/risk"
	"bitbucket.org/Davydov/lhon/sensitivity"
	"bitbucket.org/Davydov/lhon/simulate"
	"bitbucket.org/Davydov/lhon/tally"
	"bitbucket.org/Davydov/lhon/validate"
)

// Table names double as file names; validate reads two of them back.
const (
	samplesTable      = "lhon_bayesian_samples"
	penetranceTable   = "lhon_bayesian_penetrance"
	recoveryTable     = "lhon_bayesian_recovery"
	networkTable      = "lhon_bayesian_network_summary"
	parametersTable   = "table1_summary_parameters"
	liabilityTable    = "lhon_liability_model_results"
	aggregateTable    = "lhon_liability_aggregates"
	hierarchicalTable = "lhon_bayesian_model_results"
	posteriorTable    = "lhon_bayesian_model_summary"
	revisedTable      = "lhon_revised_penetrance_estimates"
	runsTable         = "lhon_monte_carlo_results"
	individualsTable  = "lhon_monte_carlo_individuals"
	convergenceTable  = "lhon_monte_carlo_convergence"
	simSummaryTable   = "lhon_monte_carlo_summary"
	indicesTable      = "lhon_sensitivity_indices"
	curvesTable       = "lhon_sensitivity_curves"
	correlationsTable = "lhon_monte_carlo_correlations"
	scenariosTable    = "lhon_scenario_analysis"
	traceTable        = "lhon_calibration_trace"
	checksTable       = "lhon_validation_checks"
)

func datasetTable(ds *network.Dataset) *report.Table {
	t := report.NewTable(samplesTable, ds.Network.Names()...)
	for i := 0; i < ds.Len(); i++ {
		t.Rows = append(t.Rows, ds.Row(i))
	}
	return t
}

func subgroupTable(name, column string, sg []bnmodel.Subgroup) *report.Table {
	t := report.NewTable(name, "Subgroup", column, "N")
	for _, s := range sg {
		t.Add(s.Name, s.Rate, s.N)
	}
	return t
}

func networkSummaryTable(prev tally.Rate, cf []bnmodel.Subgroup, e *validate.Empirical) *report.Table {
	t := report.NewTable(networkTable, "Measure", "Value")
	t.Add("Population_Prevalence_per_100k", prev)
	for _, s := range cf {
		t.Add("Carrier_Frequency_"+s.Name+"_per_100k", s.Rate)
	}
	within := prev.Valid && e.PrevalenceMin <= prev.Value && prev.Value <= e.PrevalenceMax
	t.Add("Within_Literature_Range", within)
	return t
}

func parameterTable(p *params.Set) *report.Table {
	t := report.NewTable(parametersTable, "Parameter", "Value")
	v := p.Values()
	for _, name := range params.Names() {
		t.Add(name, v[name])
	}
	return t
}

func liabilityResults(p *params.Set) *report.Table {
	t := report.NewTable(liabilityTable, "scenario", "liability", "penetrance")
	for _, ex := range liability.Examples {
		pen, l := liability.Penetrance(p, ex.Profile)
		t.Add(ex.Name, l, pen)
	}
	return t
}

func aggregatesTable(p *params.Set) *report.Table {
	t := report.NewTable(aggregateTable, "Measure", "Value")
	for _, m := range risk.Mutations {
		t.Add("Penetrance_"+m.String(), liability.MutationPenetrance(p, m))
		for _, s := range risk.Sexes {
			t.Add("Penetrance_"+m.String()+"_"+s.String(), liability.SexPenetrance(p, m, s))
		}
	}
	t.Add("Overall_Penetrance", liability.OverallPenetrance(p))
	t.Add("Population_Prevalence_per_100k", liability.PopulationPrevalence(p))
	return t
}

func drawsTable(post []liability.Posterior) *report.Table {
	header := make([]string, len(post))
	for i, p := range post {
		header[i] = p.Scenario.Name
	}
	t := report.NewTable(hierarchicalTable, header...)
	if len(post) == 0 {
		return t
	}
	for d := range post[0].Draws {
		row := make([]any, len(post))
		for i := range post {
			row[i] = post[i].Draws[d]
		}
		t.Add(row...)
	}
	return t
}

func summaryRow(t *report.Table, name string, s tally.Summary) {
	t.Add(name, s.N, s.Mean, s.SD, s.Median, s.Lower, s.Upper)
}

var summaryHeader = []string{"N", "Mean", "SD", "Median", "CI_Lower", "CI_Upper"}

func posteriorTableOf(post []liability.Posterior) *report.Table {
	t := report.NewTable(posteriorTable, append([]string{"Scenario"}, summaryHeader...)...)
	for _, p := range post {
		summaryRow(t, p.Scenario.Name, p.Summary)
	}
	return t
}

func revisedTableOf(rs []validate.Revised) *report.Table {
	t := report.NewTable(revisedTable, "mutation", "carrier_frequency_per_100k",
		"estimated_prevalence_per_100k", "calculated_penetrance_percent",
		"literature_penetrance_percent", "penetrance_ratio_literature_vs_calculated")
	for _, r := range rs {
		t.Add(r.Mutation, r.CarrierFrequency, r.Prevalence, r.Penetrance, r.Literature, r.Ratio)
	}
	return t
}

// Column names of the runs table read back by validate.
const (
	carrierFrequencyColumn = "carrier_frequency"
	prevalenceColumn       = "population_prevalence"
)

func runsTableOf(res *simulate.Result) *report.Table {
	t := report.NewTable(runsTable, "simulation", "population", "total_carriers", "total_affected",
		"overall_penetrance", prevalenceColumn, carrierFrequencyColumn)
	for _, r := range res.Runs {
		t.Add(r.Index, r.Population, r.Carriers, r.Affected, r.Penetrance, r.Prevalence, r.CarrierFrequency)
	}
	return t
}

// Simulated individuals are written with the lower case labels of the
// population model ("male", "other").
func sexLabel(s risk.Sex) string {
	return strings.ToLower(s.String())
}

func haplogroupLabel(h risk.Haplogroup) string {
	if h == risk.HaploOther {
		return "other"
	}
	return h.String()
}

func individualsTableOf(inds []simulate.Individual) *report.Table {
	t := report.NewTable(individualsTable, "id", "mutation", "sex", "age", "haplogroup",
		"smoking_heavy", "smoking_light", "alcohol_heavy", "alcohol_light",
		"liability", "penetrance", "affected")
	for _, ind := range inds {
		t.Add(ind.ID, ind.Mutation, sexLabel(ind.Sex), ind.Age, haplogroupLabel(ind.Haplogroup),
			ind.SmokingHeavy, ind.SmokingLight, ind.AlcoholHeavy, ind.AlcoholLight,
			ind.Liability, ind.Penetrance, ind.Affected)
	}
	return t
}

func simulationSummaryTable(res *simulate.Result) *report.Table {
	t := report.NewTable(simSummaryTable, append([]string{"Measure"}, summaryHeader...)...)
	summaryRow(t, "Carrier_Frequency_per_100k", res.CarrierFrequency)
	summaryRow(t, "Prevalence_per_100k", res.Prevalence)
	summaryRow(t, "Overall_Penetrance", res.Penetrance)
	for _, m := range risk.Mutations {
		t.Add("Penetrance_"+m.String(), "", res.MutationPenetrance(m), "", "", "", "")
	}
	return t
}

func convergenceTableOf(res *simulate.Result) *report.Table {
	t := report.NewTable(convergenceTable, "runs", "mean_prevalence", "stderr")
	for _, p := range res.Convergence {
		t.Add(p.Runs, p.Mean, p.StdErr)
	}
	return t
}

func indicesTableOf(idx []sensitivity.Index) *report.Table {
	t := report.NewTable(indicesTable, "parameter", "sensitivity_index", "coefficient_of_variation",
		"min_prevalence", "max_prevalence", "base_prevalence")
	for _, in := range idx {
		t.Add(in.Name, in.Index, in.CV, in.Min, in.Max, in.Base)
	}
	return t
}

func curvesTableOf(curves []sensitivity.Curve) *report.Table {
	t := report.NewTable(curvesTable, "parameter", "value", "prevalence",
		"penetrance_male_11778", "penetrance_female_11778")
	for _, c := range curves {
		for i, v := range c.Values {
			t.Add(c.Range.Name, v, c.Prevalence[i], c.PenetranceMale[i], c.PenetranceFemale[i])
		}
	}
	return t
}

func correlationsTableOf(mc *sensitivity.MonteCarlo) *report.Table {
	header := []string{"parameter"}
	for _, o := range mc.Outcomes {
		header = append(header, o.Name)
	}
	t := report.NewTable(correlationsTable, header...)
	for i, r := range mc.Ranges {
		row := []any{r.Name}
		for _, c := range mc.Correlations[i] {
			row = append(row, c)
		}
		t.Add(row...)
	}
	return t
}

func scenariosTableOf(rs []sensitivity.ScenarioResult) *report.Table {
	header := []string{"scenario", "prevalence", "ratio_to_base_case"}
	for _, k := range sensitivity.KeyScenarios {
		header = append(header, k.Name)
	}
	t := report.NewTable(scenariosTable, header...)
	for _, r := range rs {
		row := []any{r.Name, r.Prevalence, r.Ratio}
		for _, p := range r.Penetrance {
			row = append(row, p)
		}
		t.Add(row...)
	}
	return t
}

func traceTableOf(res *calibrate.Result, free []params.Range) *report.Table {
	header := []string{"evaluation"}
	for _, r := range free {
		header = append(header, r.Name)
	}
	t := report.NewTable(traceTable, append(header, "loss")...)
	for i, p := range res.Trace {
		row := []any{i}
		for _, v := range p.Values {
			row = append(row, v)
		}
		t.Add(append(row, p.Loss)...)
	}
	return t
}

func prevalenceTables(a *prevalence.Analysis) []*report.Table {
	carriers := report.NewTable("real_carrier_prevalence", "mutation", "frequency_per_100k", "one_in_x", "percentage")
	for _, c := range a.Carriers {
		carriers.Add(c.Mutation, c.Per100k, c.OneIn, c.Percent)
	}
	carriers.Add(a.TotalCarriers.Mutation, a.TotalCarriers.Per100k, a.TotalCarriers.OneIn, a.TotalCarriers.Percent)

	patients := report.NewTable("real_patient_prevalence", "mutation", "carrier_frequency_per_100k",
		"average_penetrance", "patient_prevalence_per_100k", "one_in_x_patients")
	for _, p := range a.Patients {
		patients.Add(p.Mutation, p.CarrierFrequency, p.Penetrance, p.Per100k, p.OneIn)
	}

	subgroups := report.NewTable("real_penetrance_subgroups", "subgroup", "mutation", "sex",
		"smoking", "alcohol", "haplogroup", "penetrance")
	for _, s := range a.Subgroups {
		subgroups.Add(s.Name, s.Mutation, s.Sex, s.Smoking, s.Alcohol, s.Haplogroup, s.Penetrance)
	}

	summary := report.NewTable("real_prevalence_summary", "Measure", "Value")
	summary.Add("Total_Carriers_per_100k", a.TotalCarriers.Per100k)
	summary.Add("Total_Patients_per_100k", a.TotalPatients)
	summary.Add("Patients_One_In_X", a.PatientsOneIn)
	summary.Add("Target_Min", a.Targets.Min)
	summary.Add("Target_Max", a.Targets.Max)
	summary.Add("Within_Target_Range", a.WithinRange)
	summary.Add("Ratio_To_Target_Average", a.RatioToAverage)
	summary.Add("Overall_Penetrance", a.OverallPenetrance)
	summary.Add("Penetrance_Ratio_To_Target", a.PenetranceRatio)
	summary.Add("Patient_Sex_Ratio", a.PatientSexRatio)
	summary.Add("Penetrance_Sex_Ratio", a.PenetranceSexRatio)
	summary.Add("Sex_Ratio_vs_Expected", a.SexRatioComparison)

	sexes := report.NewTable("real_sex_specific_analysis", "sex", "carrier_frequency_per_100k",
		"patient_frequency_per_100k", "overall_penetrance_percent", "carrier_one_in_x", "patient_one_in_x")
	for _, s := range a.Sexes {
		sexes.Add(s.Sex, s.Carriers, s.Patients, s.Penetrance, s.CarrierOneIn, s.PatientOneIn)
	}
	return []*report.Table{carriers, patients, subgroups, summary, sexes}
}

func checksTableOf(r *validate.Report) *report.Table {
	t := report.NewTable(checksTable, "check", "expected", "modeled", "ratio", "low", "high", "status")
	for _, c := range r.Checks {
		t.Add(c.Name, c.Expected, c.Modeled, c.Ratio, c.Low, c.High, string(c.Status))
	}
	return t
}
