/*package icprep contains code for preparing the initial conditions of
cosmological N-body simulations and checking that their power spectra are
consistent with the linear theory they were drawn from.*/
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"icprep/cluster"
	"icprep/logging"
	"icprep/parse"
	"icprep/sim"
	"icprep/version"
)

var helpStrings = map[string]string{
	"make": `The make mode generates the solver and realizer parameter files,
runs both tools, and checks the realized power spectra against linear
theory. It needs a config file; type './icprep help config' to see one.`,

	"check": `The check mode re-measures the power spectra of an already
prepared run and checks them against linear theory. The run must have been
prepared by the make mode, which leaves a SimulationICs.json record in the
output directory.`,

	"submit": `The submit mode writes batch-scheduler submission scripts for
an already prepared run. It needs the run's config file and a queue config
file; type './icprep help queue.config' to see one.`,

	"config": `[icprep]
# Every length is in comoving Mpc/h.
OutDir = test_run
Box = 256
NPart = 256

# Templates for the solver and realizer parameter files.
CAMBTemplate = params.ini
GenICTemplate = ngenic.param

# Optional variables, shown here with their default values:
#
# Redshift = 99
# Seed = 9281110
# SeparateGas = false
# SeparateNu = false
# Omega0 = 0.288
# OmegaB = 0.0472
# Hubble = 0.7
# ScalarAmp = 2.427e-9
# NS = 0.97
# MNu = 0
# CAMBExe = camb
# GenICExe = N-GenIC
# GenPKExe = gen-pk
# Tolerance = 0.05
# MinModes = 1
# NoPlots = false`,

	"queue.config": `[queue]
# Kind must be either 'pbs' or 'slurm'.
Kind = slurm
NProc = 256

# Optional variables:
#
# PerNode = 32    # Tasks per node. Zero lets the scheduler decide.
# Memory = 1800   # MB per task. Zero omits memory directives.
# Limit = 24      # Walltime limit in fractional hours.
# Email =
# Partition =`,
}

var modeDescriptions = `My help modes are:
icprep help
icprep help [ make | check | submit | config | queue.config ]

My pipeline modes are:
icprep make   [flags] ____.config
icprep check  [flags] ____.config
icprep submit [flags] ____.config ____.queue.config

My flags are:
-debug`

func main() {
	args, debug := popFlag(os.Args, "-debug")
	if debug {
		logging.Setup(logging.Debug)
	} else {
		logging.Setup(logging.Nil)
	}

	if len(args) <= 1 {
		fmt.Fprintf(
			os.Stderr, "I was not supplied with a mode.\nFor help, type "+
				"'./icprep help'.\n",
		)
		os.Exit(1)
	}

	switch args[1] {
	case "help":
		switch len(args) - 2 {
		case 0:
			fmt.Println(modeDescriptions)
		case 1:
			text, ok := helpStrings[args[2]]
			if !ok {
				fmt.Printf("I don't recognize the help target '%s'\n", args[2])
			} else {
				fmt.Println(text)
			}
		default:
			fmt.Println("The help mode can only take a single argument.")
		}
	case "version":
		fmt.Printf("icprep version %s\n", version.SourceVersion)
	case "make":
		ics := loadRun(args, 1)
		if err := ics.Make(context.Background(), nil); err != nil {
			log.Fatalf("Error running mode make:\n%s\n", err.Error())
		}
	case "check":
		ics := loadRun(args, 1)
		rec, err := sim.LoadRecord(outDir(args))
		if err != nil {
			log.Fatalf(
				"I could not read the run record of %s. Has the make mode "+
					"been run yet?\n%s\n", outDir(args), err.Error(),
			)
		}
		err = ics.CheckSpectra(
			context.Background(), rec.CAMBOutput, rec.GenICOutput,
		)
		if err != nil {
			log.Fatalf("Error running mode check:\n%s\n", err.Error())
		}
	case "submit":
		runSubmit(args)
	default:
		fmt.Fprintf(
			os.Stderr, "You passed me the mode '%s', which I don't "+
				"recognize.\nFor help, type './icprep help'\n", args[1],
		)
		os.Exit(1)
	}
}

// popFlag removes flag from args and reports whether it was present.
func popFlag(args []string, flag string) ([]string, bool) {
	out, found := []string{}, false
	for _, arg := range args {
		if arg == flag {
			found = true
			continue
		}
		out = append(out, arg)
	}
	return out, found
}

// loadRun reads the config file given as the nth argument after the mode
// and validates it into a run.
func loadRun(args []string, n int) *sim.ICs {
	if len(args) <= n+1 {
		log.Fatalf(
			"The %s mode needs a config file.\nFor help, type "+
				"'./icprep help %s'\n", args[1], args[1],
		)
	}
	cfg, err := sim.ReadConfig(args[n+1])
	if err != nil {
		log.Fatalf("Error running mode %s:\n%s\n", args[1], err.Error())
	}
	ics, err := sim.New(cfg)
	if err != nil {
		log.Fatalf("Error running mode %s:\n%s\n", args[1], err.Error())
	}
	return ics
}

func outDir(args []string) string {
	cfg, err := sim.ReadConfig(args[2])
	if err != nil {
		log.Fatalf("Error running mode %s:\n%s\n", args[1], err.Error())
	}
	dir, err := filepath.Abs(cfg.OutDir)
	if err != nil {
		log.Fatalf("Error running mode %s:\n%s\n", args[1], err.Error())
	}
	return dir
}

// runSubmit writes the realizer submission script into the run's output
// directory. Running the simulation itself is outside this pipeline.
func runSubmit(args []string) {
	if len(args) <= 3 {
		log.Fatal(
			"The submit mode needs a config file and a queue config " +
				"file.\nFor help, type './icprep help submit'\n",
		)
	}
	cfg, err := sim.ReadConfig(args[2])
	if err != nil {
		log.Fatalf("Error running mode submit:\n%s\n", err.Error())
	}
	if _, err := sim.New(cfg); err != nil {
		log.Fatalf("Error running mode submit:\n%s\n", err.Error())
	}

	q, err := readQueueConfig(args[3])
	if err != nil {
		log.Fatalf("Error running mode submit:\n%s\n", err.Error())
	}

	genicCmd := cfg.GenICExe + " _genic_params.ini"
	if err := q.WriteSubmit(cfg.OutDir, "mpi_submit_genic", genicCmd); err != nil {
		log.Fatalf("Error running mode submit:\n%s\n", err.Error())
	}
}

// readQueueConfig reads a [queue] config file into a cluster.Queue.
func readQueueConfig(fname string) (*cluster.Queue, error) {
	kind := ""
	var nproc, perNode, memory int64
	q := &cluster.Queue{}

	vars := parse.NewConfigVars("queue")
	vars.String(&kind, "Kind", "pbs")
	vars.String(&q.Email, "Email", "")
	vars.Int(&nproc, "NProc", 0)
	vars.Int(&perNode, "PerNode", 0)
	vars.Int(&memory, "Memory", 0)
	vars.Float(&q.Limit, "Limit", 24)
	vars.String(&q.Partition, "Partition", "")

	if err := parse.ReadConfig(fname, vars); err != nil {
		return nil, err
	}

	k, err := cluster.ParseKind(kind)
	if err != nil {
		return nil, err
	}
	q.Kind = k
	q.NProc, q.PerNode, q.Memory = int(nproc), int(perNode), int(memory)
	return q, nil
}
