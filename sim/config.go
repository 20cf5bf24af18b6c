/*package sim prepares the initial conditions of a single simulation: it
generates the parameter files of the linear-theory solver and the particle
realizer, runs both, and checks that the realized power spectra match the
linear theory they were drawn from.*/
package sim

import (
	"icprep/cosmo"
	"icprep/parse"
)

// Config is the user-facing description of a run, filled in from an
// [icprep] config file.
type Config struct {
	OutDir string

	Box      float64 // Box size in comoving Mpc/h.
	NPart    int64   // Cube root of the particle count per species.
	Redshift float64
	Seed     int64

	SeparateGas bool // Realize baryons as their own particles.
	SeparateNu  bool // Realize massive neutrinos as their own particles.

	Omega0    float64
	OmegaB    float64
	Hubble    float64
	ScalarAmp float64
	NS        float64
	MNu       float64 // Summed neutrino mass in eV.

	// Parameter-file templates for the solver and the realizer.
	CAMBTemplate  string
	GenICTemplate string

	// Executable names, looked up on PATH.
	CAMBExe  string
	GenICExe string
	GenPKExe string

	Tolerance float64
	MinModes  int64
	NoPlots   bool
}

// DefaultConfig returns a Config with every optional variable at its
// default value.
func DefaultConfig() *Config {
	return &Config{
		Redshift: 99,
		Seed:     9281110,

		Omega0:    0.288,
		OmegaB:    0.0472,
		Hubble:    0.7,
		ScalarAmp: 2.427e-9,
		NS:        0.97,

		CAMBExe:  "camb",
		GenICExe: "N-GenIC",
		GenPKExe: "gen-pk",
	}
}

// Vars binds every config variable of cfg to a ConfigVars set, with the
// current field values as defaults.
func (cfg *Config) Vars() *parse.ConfigVars {
	vars := parse.NewConfigVars("icprep")

	vars.String(&cfg.OutDir, "OutDir", cfg.OutDir)
	vars.Float(&cfg.Box, "Box", cfg.Box)
	vars.Int(&cfg.NPart, "NPart", cfg.NPart)
	vars.Float(&cfg.Redshift, "Redshift", cfg.Redshift)
	vars.Int(&cfg.Seed, "Seed", cfg.Seed)

	vars.Bool(&cfg.SeparateGas, "SeparateGas", cfg.SeparateGas)
	vars.Bool(&cfg.SeparateNu, "SeparateNu", cfg.SeparateNu)

	vars.Float(&cfg.Omega0, "Omega0", cfg.Omega0)
	vars.Float(&cfg.OmegaB, "OmegaB", cfg.OmegaB)
	vars.Float(&cfg.Hubble, "Hubble", cfg.Hubble)
	vars.Float(&cfg.ScalarAmp, "ScalarAmp", cfg.ScalarAmp)
	vars.Float(&cfg.NS, "NS", cfg.NS)
	vars.Float(&cfg.MNu, "MNu", cfg.MNu)

	vars.String(&cfg.CAMBTemplate, "CAMBTemplate", cfg.CAMBTemplate)
	vars.String(&cfg.GenICTemplate, "GenICTemplate", cfg.GenICTemplate)
	vars.String(&cfg.CAMBExe, "CAMBExe", cfg.CAMBExe)
	vars.String(&cfg.GenICExe, "GenICExe", cfg.GenICExe)
	vars.String(&cfg.GenPKExe, "GenPKExe", cfg.GenPKExe)

	vars.Float(&cfg.Tolerance, "Tolerance", cfg.Tolerance)
	vars.Int(&cfg.MinModes, "MinModes", cfg.MinModes)
	vars.Bool(&cfg.NoPlots, "NoPlots", cfg.NoPlots)

	return vars
}

// ReadConfig reads an [icprep] config file into a Config, with defaults for
// every variable the file leaves unset.
func ReadConfig(fname string) (*Config, error) {
	cfg := DefaultConfig()
	if err := parse.ReadConfig(fname, cfg.Vars()); err != nil {
		return nil, err
	}
	return cfg, nil
}

// cosmology bundles the cosmological fields into a cosmo.Params value.
func (cfg *Config) cosmology() cosmo.Params {
	return cosmo.Params{
		Omega0: cfg.Omega0, OmegaB: cfg.OmegaB, Hubble: cfg.Hubble,
		ScalarAmp: cfg.ScalarAmp, NS: cfg.NS, MNu: cfg.MNu,
	}
}
