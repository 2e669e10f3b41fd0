package main

import (
	"fmt"
	"io"
	"os"
	"time"

	bolt "go.etcd.io/bbolt"

	"bitbucket.org/Davydov/lhon/bnmodel"
	"bitbucket.org/Davydov/lhon/calibrate"
	"bitbucket.org/Davydov/lhon/checkpoint"
	"bitbucket.org/Davydov/lhon/liability"
	"bitbucket.org/Davydov/lhon/params"
	"bitbucket.org/Davydov/lhon/prevalence"
	"bitbucket.org/Davydov/lhon/report"
	"bitbucket.org/Davydov/lhon/risk"
	"bitbucket.org/Davydov/lhon/sensitivity"
	"bitbucket.org/Davydov/lhon/simulate"
	"bitbucket.org/Davydov/lhon/tally"
	"bitbucket.org/Davydov/lhon/validate"
)

// Output files that are not tables.
const (
	calibrationJSON = "lhon_calibration"
	validationJSON  = "lhon_model_validation_report"
)

// session holds what the analyses of one invocation share: the output
// directory, the checkpoint database and the model outputs collected
// for validation.
type session struct {
	*analysisSettings
	out       *report.Writer
	db        *bolt.DB
	empirical validate.Empirical
	inputs    validate.Inputs
	summary   *CallSummary
}

func newSession(s *analysisSettings, summary *CallSummary) (*session, error) {
	out, err := report.NewWriter(s.outDir)
	if err != nil {
		return nil, fmt.Errorf("output directory: %w", err)
	}
	ss := &session{
		analysisSettings: s,
		out:              out,
		empirical:        validate.DefaultEmpirical(),
		summary:          summary,
	}
	if s.checkpointF != "" {
		if ss.db, err = checkpoint.Open(s.checkpointF); err != nil {
			return nil, err
		}
		log.Infof("Using checkpoint %s", s.checkpointF)
	}
	return ss, nil
}

func (ss *session) close() {
	if ss.db != nil {
		if err := ss.db.Close(); err != nil {
			log.Error("Error closing checkpoint:", err)
		}
	}
}

func (ss *session) save(tables ...*report.Table) error {
	for _, t := range tables {
		if err := ss.out.Save(t); err != nil {
			return err
		}
	}
	return nil
}

// runNetwork samples the Bayesian network.
func (ss *session) runNetwork() error {
	log.Notice("Bayesian network")
	p, _, err := ss.parameters(literaturePreset)
	if err != nil {
		return err
	}
	n, err := bnmodel.New(p)
	if err != nil {
		return fmt.Errorf("build network: %w", err)
	}
	for _, g := range n.Coverage() {
		log.Warningf("Missing conditional probabilities, fallback used: %v", g)
	}

	log.Infof("Sampling %d individuals", ss.samples)
	ds, err := n.SampleDataset(ss.samples, ss.seed, ss.threads)
	if err != nil {
		return fmt.Errorf("sample network: %w", err)
	}
	pen := bnmodel.Penetrance(ds)
	rec := bnmodel.RecoveryRates(ds)
	prev := bnmodel.Prevalence(ds)

	ss.inputs.Overall, _ = bnmodel.Find(pen, "Overall")
	ss.inputs.Male, _ = bnmodel.Find(pen, risk.Male.String())
	ss.inputs.Female, _ = bnmodel.Find(pen, risk.Female.String())
	for _, s := range pen {
		log.Noticef("%-35s %v (n=%d)", s.Name, s.Rate, s.N)
	}
	log.Noticef("Prevalence: %v per 100,000", prev)
	ss.summary.Network = &NetworkSummary{Samples: ds.Len(), Prevalence: prev, Penetrance: pen}

	// samples are too many for the workbook
	path := ss.out.Path(samplesTable + ".csv")
	if err := report.WriteCSV(path, datasetTable(ds)); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return ss.save(
		subgroupTable(penetranceTable, "Penetrance", pen),
		subgroupTable(recoveryTable, "Recovery_Rate", rec),
		networkSummaryTable(prev, bnmodel.CarrierFrequencies(ds), &ss.empirical),
	)
}

// runModel evaluates the liability threshold model and draws from the
// hierarchical model.
func (ss *session) runModel() error {
	log.Notice("Liability threshold model")
	p, _, err := ss.parameters(literaturePreset)
	if err != nil {
		return err
	}
	for _, ex := range liability.Examples {
		pen, l := liability.Penetrance(p, ex.Profile)
		log.Noticef("%-40s liability: %.3f penetrance: %.1f%%", ex.Name, l, pen*100)
	}

	log.Infof("Hierarchical model, %d draws", ss.draws)
	post, err := liability.Hierarchical(liability.DefaultPriors(), ss.draws, ss.seed, ss.threads)
	if err != nil {
		return fmt.Errorf("hierarchical model: %w", err)
	}
	for _, ps := range post {
		log.Noticef("%-40s mean: %v (95%% CI: %v-%v)", ps.Scenario.Name, ps.Summary.Mean, ps.Summary.Lower, ps.Summary.Upper)
	}

	return ss.save(
		parameterTable(p),
		liabilityResults(p),
		aggregatesTable(p),
		drawsTable(post),
		posteriorTableOf(post),
		revisedTableOf(validate.RevisedEstimates(&ss.empirical)),
	)
}

// runSimulate simulates populations, resuming from the checkpoint
// unless a restart was requested.
func (ss *session) runSimulate() error {
	log.Notice("Monte Carlo population model")
	p, _, err := ss.parameters(literaturePreset)
	if err != nil {
		return err
	}
	sim := simulate.New(p, ss.seed)
	sim.Population = ss.population
	sim.Runs = ss.runs
	sim.Threads = ss.threads
	sim.KeepIndividuals = ss.individuals

	sum := &SimulationSummary{Population: ss.population, Runs: ss.runs}
	if ss.db != nil {
		fp, err := sim.Fingerprint()
		if err != nil {
			return fmt.Errorf("simulation fingerprint: %w", err)
		}
		sim.Store = checkpoint.NewRuns(ss.db, fp)
		sum.Fingerprint = fp.String()
		log.Infof("Simulation runs stored under %s", fp)
		if ss.restart {
			if err := sim.Store.Clear(); err != nil {
				return fmt.Errorf("discard stored runs: %w", err)
			}
			log.Notice("Stored simulation runs discarded")
		}
	}

	res, err := sim.Simulate()
	if err != nil {
		return err
	}
	ss.inputs.CarrierFrequency = res.CarrierFrequency.Mean
	ss.inputs.Prevalence = res.Prevalence.Mean
	sum.CarrierFrequency = res.CarrierFrequency
	sum.Prevalence = res.Prevalence
	sum.Penetrance = res.Penetrance
	ss.summary.Simulation = sum

	log.Noticef("Average carrier frequency: %v per 100,000", res.CarrierFrequency.Mean)
	log.Noticef("Average population prevalence: %v per 100,000", res.Prevalence.Mean)
	log.Noticef("Average overall penetrance: %v", res.Penetrance.Mean)

	tables := []*report.Table{runsTableOf(res), simulationSummaryTable(res), convergenceTableOf(res)}
	if ss.individuals {
		tables = append(tables, individualsTableOf(res.Individuals))
	}
	return ss.save(tables...)
}

// runSensitivity performs the one-at-a-time, Monte Carlo and scenario
// analyses.
func (ss *session) runSensitivity() error {
	log.Notice("Sensitivity analysis")
	p, ranges, err := ss.parameters(sensitivityPreset)
	if err != nil {
		return err
	}
	if ranges == nil {
		ranges = params.DefaultRanges()
	}

	curves, err := sensitivity.OneAtATime(p, ranges, ss.points)
	if err != nil {
		return err
	}
	idx := sensitivity.Indices(p, curves)
	for _, in := range idx {
		log.Noticef("%-30s index: %v CV: %v", in.Name, in.Index, in.CV)
	}
	ss.summary.Sensitivity = idx

	log.Infof("Monte Carlo sensitivity, %d trials", ss.trials)
	mc, err := sensitivity.Random(p, ranges, ss.trials, ss.seed, ss.threads)
	if err != nil {
		return err
	}

	sc, err := sensitivity.Evaluate(p, sensitivity.Scenarios())
	if err != nil {
		return err
	}
	for _, r := range sc {
		log.Noticef("%-15s prevalence: %.2f per 100,000 (x%v of base case)", r.Name, r.Prevalence, r.Ratio)
	}

	return ss.save(
		indicesTableOf(idx),
		curvesTableOf(curves),
		correlationsTableOf(mc),
		scenariosTableOf(sc),
	)
}

// runCalibrate fits the threshold model to observed penetrance and
// prevalence.
func (ss *session) runCalibrate() error {
	log.Notice("Model calibration")
	p, _, err := ss.parameters(literaturePreset)
	if err != nil {
		return err
	}
	targets, free := calibrate.DefaultTargets(), calibrate.DefaultFree()
	pr, err := calibrate.NewProblem(p, targets, free)
	if err != nil {
		return err
	}

	var cp *checkpoint.Calibration
	if ss.db != nil {
		key, err := checkpoint.Fingerprint(struct {
			Params  *params.Set
			Targets calibrate.Targets
			Free    []params.Range
			Method  string
		}{p, targets, free, ss.method})
		if err != nil {
			return fmt.Errorf("calibration fingerprint: %w", err)
		}
		cp = checkpoint.NewCalibration(ss.db, key, time.Duration(ss.checkpointSec*float64(time.Second)))
		if ss.restart {
			if err := cp.Clear(); err != nil {
				return fmt.Errorf("discard calibration checkpoint: %w", err)
			}
		}
	}

	var traj io.Writer
	if ss.trajF != "" {
		f, err := os.Create(ss.trajF)
		if err != nil {
			return fmt.Errorf("trajectory: %w", err)
		}
		defer f.Close()
		traj = f
	}

	res, err := calibrate.Calibrate(pr, ss.calibration(cp, traj))
	if err != nil {
		return err
	}
	ss.inputs.Calibrated = &res.Success
	ss.summary.Calibration = res

	if err := ss.save(traceTableOf(res, free)); err != nil {
		return err
	}
	return ss.out.SaveJSON(calibrationJSON, res)
}

// runPrevalence computes carrier and patient prevalence with calibrated
// parameters.
func (ss *session) runPrevalence() error {
	log.Notice("Prevalence analysis")
	p, _, err := ss.parameters(calibratedPreset)
	if err != nil {
		return err
	}
	a := prevalence.Analyze(p, prevalence.DefaultTargets())
	log.Noticef("Carriers: %.2f per 100,000 (1 in %v)", a.TotalCarriers.Per100k, a.TotalCarriers.OneIn)
	log.Noticef("Patients: %.2f per 100,000 (1 in %v), within target range: %v",
		a.TotalPatients, a.PatientsOneIn, a.WithinRange)
	log.Noticef("Overall penetrance: %v, male to female patients: %v", a.OverallPenetrance, a.PatientSexRatio)

	ss.summary.Prevalence = &PrevalenceSummary{
		Carriers:          a.TotalCarriers.Per100k,
		Patients:          a.TotalPatients,
		WithinRange:       a.WithinRange,
		OverallPenetrance: a.OverallPenetrance,
		PatientSexRatio:   a.PatientSexRatio,
	}
	return ss.save(prevalenceTables(a)...)
}

// runValidate checks the collected model outputs.
func (ss *session) runValidate() error {
	log.Notice("Model validation")
	r := validate.Validate(&ss.empirical, ss.inputs)
	log.Noticef("Validation: %d passed, %d failed, %d without data",
		r.Count(validate.Pass), r.Count(validate.Fail), r.Count(validate.NoData))
	for _, d := range r.Discrepancies {
		log.Infof("%s: %s", d.Type, d.Description)
	}
	ss.summary.Validation = r

	if err := ss.save(checksTableOf(r)); err != nil {
		return err
	}
	return ss.out.SaveJSON(validationJSON, r)
}

// loadInputs reads network and simulation results written by earlier
// runs. Both files are required.
func (ss *session) loadInputs() error {
	runs, err := report.ReadCSV(ss.out.Path(runsTable + ".csv"))
	if err != nil {
		return err
	}
	if ss.inputs.CarrierFrequency, err = columnMean(runs, carrierFrequencyColumn); err != nil {
		return err
	}
	if ss.inputs.Prevalence, err = columnMean(runs, prevalenceColumn); err != nil {
		return err
	}

	pen, err := report.ReadCSV(ss.out.Path(penetranceTable + ".csv"))
	if err != nil {
		return err
	}
	for _, f := range []struct {
		name string
		r    *tally.Rate
	}{
		{"Overall", &ss.inputs.Overall},
		{risk.Male.String(), &ss.inputs.Male},
		{risk.Female.String(), &ss.inputs.Female},
	} {
		if *f.r, err = subgroupRate(pen, f.name); err != nil {
			return err
		}
	}
	log.Infof("Loaded results of %d simulation runs", len(runs.Rows))
	return nil
}

// columnMean is the mean of the defined rates in a column.
func columnMean(t *report.Table, column string) (tally.Rate, error) {
	rs := make([]tally.Rate, len(t.Rows))
	for i := range t.Rows {
		r, err := t.Rate(i, column)
		if err != nil {
			return tally.NoData, err
		}
		rs[i] = r
	}
	return tally.Mean(rs), nil
}

// subgroupRate finds the penetrance of a subgroup; subgroups without
// data are absent from the table.
func subgroupRate(t *report.Table, name string) (tally.Rate, error) {
	c := t.Column("Subgroup")
	if c < 0 {
		return tally.NoData, fmt.Errorf("table %s: no Subgroup column", t.Name)
	}
	for i, row := range t.Rows {
		if c < len(row) && row[c] == name {
			return t.Rate(i, "Penetrance")
		}
	}
	return tally.NoData, nil
}
