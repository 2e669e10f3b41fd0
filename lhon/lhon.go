/*

Lhon estimates penetrance and prevalence of Leber hereditary optic
neuropathy (LHON). It includes a Bayesian network of risk factors, a
liability threshold model with a hierarchical Bayesian variant, a Monte
Carlo population simulation, sensitivity analyses, calibration of the
threshold model and validation against published figures.

Without arguments lhon runs every analysis with default parameters and
writes the tables to the current directory:

	lhon

A single analysis can be selected with a command:

	lhon -method simplex calibrate

Parameters can be overridden with a YAML file and interrupted
simulations resumed from a checkpoint database:

	lhon -params overrides.yaml -checkpoint lhon.db simulate

Every flag can also be set with an LHON_* environment variable or in a
.env file in the working directory.

To see all the options run:

	lhon -h

*/
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"runtime/pprof"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/op/go-logging"
	"gopkg.in/alecthomas/kingpin.v2"

	"bitbucket.org/Davydov/lhon/calibrate"
	"bitbucket.org/Davydov/lhon/dist"
)

// These three variables are set during the compilation.
var githash = ""
var gitbranch = ""
var buildstamp = ""
var version = fmt.Sprintf("branch: %s, revision: %s, build time: %s", gitbranch, githash, buildstamp)

// Logger settings.
var log = logging.MustGetLogger("lhon")
var formatter = logging.MustStringFormatter(`%{message}`)

// modules are the loggers controlled by -loglevel.
var modules = []string{
	"lhon", "network", "bnmodel", "liability", "simulate", "sensitivity",
	"optimize", "calibrate", "prevalence", "validate", "checkpoint", "report",
}

// command-line options
var (
	// application
	app = kingpin.New("lhon", "LHON penetrance and prevalence models").Version(version)

	// analyses
	networkCmd     = app.Command("network", "sample the Bayesian network, summarize penetrance and recovery")
	modelCmd       = app.Command("model", "liability threshold and hierarchical Bayesian models")
	simulateCmd    = app.Command("simulate", "Monte Carlo population simulation")
	sensitivityCmd = app.Command("sensitivity", "one-at-a-time, Monte Carlo and scenario sensitivity analyses")
	calibrateCmd   = app.Command("calibrate", "fit threshold and sigma to observed penetrance and prevalence")
	prevalenceCmd  = app.Command("prevalence", "carrier and patient prevalence with calibrated parameters")
	validateCmd    = app.Command("validate", "compare saved network and simulation results with published figures")
	allCmd         = app.Command("all", "run every analysis (default)").Default()

	// parameters
	paramsF = app.Flag("params", "YAML file with a preset name, parameter overrides and sensitivity ranges").
		Envar("LHON_PARAMS").String()
	preset = app.Flag("preset", "use this parameter preset for every analysis "+
		"(literature, sensitivity, calibrated); by default each analysis uses its own").
		Envar("LHON_PRESET").Enum("literature", "sensitivity", "calibrated")

	// analysis sizes
	samples     = app.Flag("samples", "number of Bayesian network samples").Envar("LHON_SAMPLES").Default("50000").Int()
	draws       = app.Flag("draws", "number of hierarchical model draws").Envar("LHON_DRAWS").Default("1000").Int()
	population  = app.Flag("population", "simulated population size").Envar("LHON_POPULATION").Default("100000").Int()
	runs        = app.Flag("runs", "number of simulated populations").Envar("LHON_RUNS").Default("100").Int()
	individuals = app.Flag("individuals", "write carriers of the last simulated population").Envar("LHON_INDIVIDUALS").Bool()
	points      = app.Flag("points", "number of values per sensitivity sweep").Envar("LHON_POINTS").Default("20").Int()
	trials      = app.Flag("trials", "number of Monte Carlo sensitivity trials").Envar("LHON_TRIALS").Default("1000").Int()

	// optimizer parameters
	iterations   = app.Flag("iter", "number of iterations").Envar("LHON_ITER").Default("1000").Int()
	reportPeriod = app.Flag("report", "report every N iterations").Default("10").Int()
	method       = app.Flag("method", "optimization method to use "+
		"(lbfgsb: limited-memory Broyden–Fletcher–Goldfarb–Shanno with bounding constraints, "+
		"bfgs: BFGS from gonum, "+
		"simplex: downhill simplex, "+
		"none: just compute the loss, no optimization"+
		")").Envar("LHON_METHOD").Default("lbfgsb").Enum(calibrate.Methods...)
	delta = app.Flag("delta", "initial simplex size for the simplex method").Default("0.1").Float64()

	// technical
	nThreads   = app.Flag("nt", "number of threads to use").Envar("LHON_NT").Int()
	seed       = app.Flag("seed", "random generator seed, default time based").Envar("LHON_SEED").Default("-1").Int64()
	cpuProfile = app.Flag("cpuprofile", "write cpu profile to file").String()

	// input/output
	outDir        = app.Flag("outdir", "directory for result tables").Envar("LHON_OUTDIR").Default(".").String()
	xlsxF         = app.Flag("xlsx", "also write all tables to this workbook in the output directory").Envar("LHON_XLSX").String()
	checkpointF   = app.Flag("checkpoint", "checkpoint database for simulation runs and calibration").Envar("LHON_CHECKPOINT").String()
	restart       = app.Flag("restart", "discard simulation runs and calibration state stored in the checkpoint for this configuration").Bool()
	checkpointSec = app.Flag("checkpointsec", "save calibration checkpoint at most every N seconds").Default("60").Float64()
	outLogF       = app.Flag("log", "write log to a file").Envar("LHON_LOG").String()
	outF          = app.Flag("out", "write calibration trajectory to a file").String()
	logLevel      = app.Flag("loglevel", "set loglevel "+
		"('critical', 'error', 'warning', 'notice', 'info', 'debug')").
		Envar("LHON_LOGLEVEL").
		Default("notice").
		Enum("critical", "error", "warning", "notice", "info", "debug")
	jsonF = app.Flag("json", "write json output to a file").Envar("LHON_JSON").String()
)

// run performs the analyses of a command.
func run(command string, s *analysisSettings, summary *CallSummary) error {
	startTime := time.Now()
	defer func() {
		summary.TotalTime = time.Since(startTime).Seconds()
	}()

	ss, err := newSession(s, summary)
	if err != nil {
		return err
	}
	defer ss.close()

	var steps []func() error
	switch command {
	case networkCmd.FullCommand():
		steps = []func() error{ss.runNetwork}
	case modelCmd.FullCommand():
		steps = []func() error{ss.runModel}
	case simulateCmd.FullCommand():
		steps = []func() error{ss.runSimulate}
	case sensitivityCmd.FullCommand():
		steps = []func() error{ss.runSensitivity}
	case calibrateCmd.FullCommand():
		steps = []func() error{ss.runCalibrate}
	case prevalenceCmd.FullCommand():
		steps = []func() error{ss.runPrevalence}
	case validateCmd.FullCommand():
		steps = []func() error{ss.loadInputs, ss.runCalibrate, ss.runValidate}
	case allCmd.FullCommand():
		steps = []func() error{
			ss.runNetwork,
			ss.runModel,
			ss.runSimulate,
			ss.runSensitivity,
			ss.runCalibrate,
			ss.runPrevalence,
			ss.runValidate,
		}
	default:
		return fmt.Errorf("unknown command: %s", command)
	}

	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	if s.xlsx != "" {
		return ss.out.Workbook(s.xlsx)
	}
	return nil
}

func main() {
	// .env only provides defaults for flags, so a missing file is fine
	envErr := godotenv.Load()
	if errors.Is(envErr, fs.ErrNotExist) {
		envErr = nil
	}

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	// logging
	logging.SetFormatter(formatter)

	var backend *logging.LogBackend
	if *outLogF != "" {
		f, err := os.OpenFile(*outLogF, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			log.Fatal("Error creating log file:", err)
		}
		defer f.Close()
		backend = logging.NewLogBackend(f, "", 0)
	} else {
		backend = logging.NewLogBackend(os.Stderr, "", 0)
	}
	logging.SetBackend(backend)

	level, err := logging.LogLevel(*logLevel)
	if err != nil {
		log.Fatal(err)
	}
	for _, m := range modules {
		logging.SetLevel(level, m)
	}

	if envErr != nil {
		log.Warning("Error reading .env:", envErr)
	}

	// print revision
	log.Info(version)

	// print commandline
	log.Info("Command line:", os.Args)

	runID := uuid.New()
	log.Infof("Run id: %s", runID)

	if *seed == -1 {
		log.Debug("Random seed from time")
	}
	*seed = dist.Seed(*seed)
	log.Infof("Random seed=%v", *seed)

	runtime.GOMAXPROCS(*nThreads)

	effectiveNThreads := runtime.GOMAXPROCS(0)
	log.Infof("Using threads: %d.\n", effectiveNThreads)

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			log.Fatal(err)
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	summary := &CallSummary{
		Version:     version,
		CommandLine: os.Args,
		RunID:       runID.String(),
		Command:     command,
		Seed:        *seed,
		NThreads:    effectiveNThreads,
	}
	if err := run(command, newAnalysisSettings(*seed, effectiveNThreads), summary); err != nil {
		log.Fatal(err)
	}
	log.Noticef("Done in %.1fs", summary.TotalTime)

	// output summary in json format
	if *jsonF != "" {
		j, err := json.Marshal(summary)
		if err != nil {
			log.Error(err)
		} else {
			log.Debug(string(j))
			f, err := os.Create(*jsonF)
			if err != nil {
				log.Error("Error creating json output file:", err)
			} else {
				f.Write(j)
				f.Close()
			}
		}
	}
}
