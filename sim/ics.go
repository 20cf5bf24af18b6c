package sim

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"icprep/cosmo"
	"icprep/parse"
)

// File names inside the output directory. The parameter files start with an
// underscore so they sort ahead of the run's output.
const (
	cambOutput  = "camb_linear/ics"
	cambParam   = "_camb_params.ini"
	genicParam  = "_genic_params.ini"
	genicDir    = "ICS"
	recordFname = "SimulationICs.json"
)

// ICs prepares the initial conditions of one simulation.
type ICs struct {
	cfg   *Config
	cosmo cosmo.Params
}

// New validates cfg and returns an ICs value for it. The output directory
// is created if it does not exist; its parent must.
func New(cfg *Config) (*ICs, error) {
	if cfg.Box <= 0 || cfg.Box >= 20000 {
		return nil, fmt.Errorf("The box size is set to %g Mpc/h, but must "+
			"be in (0, 20000).", cfg.Box)
	}
	if cfg.NPart <= 1 || cfg.NPart >= 16000 {
		return nil, fmt.Errorf("The cube root of the particle count is set "+
			"to %d, but must be in (1, 16000).", cfg.NPart)
	}
	if cfg.Redshift <= 1 || cfg.Redshift >= 1100 {
		return nil, fmt.Errorf("The starting redshift is set to %g, but "+
			"must be in (1, 1100).", cfg.Redshift)
	}
	if cfg.SeparateNu && cfg.MNu == 0 {
		return nil, fmt.Errorf("SeparateNu is set, but the neutrino mass " +
			"is zero, so there are no neutrino particles to realize.")
	}
	if cfg.CAMBTemplate == "" || cfg.GenICTemplate == "" {
		return nil, fmt.Errorf("The config variables 'CAMBTemplate' and " +
			"'GenICTemplate' must both be set.")
	}

	cos := cfg.cosmology()
	if err := cos.Validate(); err != nil {
		return nil, err
	}

	outdir, err := filepath.Abs(cfg.OutDir)
	if err != nil {
		return nil, err
	}
	cfg.OutDir = outdir
	if entries, err := os.ReadDir(outdir); os.IsNotExist(err) {
		if err := os.Mkdir(outdir, 0755); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	} else if len(entries) != 0 {
		slog.Warn("output directory is not empty", "dir", outdir)
	}

	return &ICs{cfg: cfg, cosmo: cos}, nil
}

// Cosmology returns the run's cosmological parameters.
func (ics *ICs) Cosmology() cosmo.Params { return ics.cosmo }

// zstr formats a redshift the way the solver names its output files:
// integer above z = 10, one significant digit below.
func zstr(z float64) string {
	if z > 10 {
		return strconv.Itoa(int(z))
	}
	return strconv.FormatFloat(z, 'g', 1, 64)
}

// fileBase is the base name of the realizer output, built from the run
// shape so that runs with different shapes never collide.
func (ics *ICs) fileBase() string {
	return fmt.Sprintf("%g_%d_%g",
		ics.cfg.Box, ics.cfg.NPart, ics.cfg.Redshift)
}

// numFiles is how many files a snapshot is split over: enough to keep a
// roughly constant particle count per file, and never fewer than two.
func (ics *ICs) numFiles() int64 {
	n := ics.cfg.NPart * ics.cfg.NPart * ics.cfg.NPart / (1 << 24)
	if n < 2 {
		return 2
	}
	return n
}

// transferRedshifts lists the redshifts the solver should output at: the
// starting redshift first, then later epochs kept for cross-checking the
// evolved simulation.
func (ics *ICs) transferRedshifts() []float64 {
	return []float64{ics.cfg.Redshift, ics.cfg.Redshift / 2, 0}
}

// CAMBFile writes the solver parameter file into the output directory and
// returns the solver's output root relative to it, along with the path of
// the written parameter file.
func (ics *ICs) CAMBFile() (output, param string, err error) {
	cfg := ics.cfg
	st, err := parse.LoadStore(cfg.CAMBTemplate)
	if err != nil {
		return "", "", err
	}

	// The density parameters below are physical, so the template must not
	// have been switched to the raw Omega convention.
	if phys, err := st.Get("use_physical"); err != nil || phys != "T" {
		return "", "", fmt.Errorf(
			"The solver template %s must set use_physical = T.",
			cfg.CAMBTemplate,
		)
	}

	if err := os.MkdirAll(
		filepath.Join(cfg.OutDir, filepath.Dir(cambOutput)), 0755,
	); err != nil {
		return "", "", err
	}
	st.Set("output_root", filepath.Join(cfg.OutDir, cambOutput))

	st.SetFloat("hubble", ics.cosmo.Hubble*100)
	st.SetFloat("ombh2", ics.cosmo.OmBH2())
	st.SetFloat("omch2", ics.cosmo.OmCH2())
	st.SetFloat("omk", 0)

	// The pivot scale must stay at the WMAP value or the scalar amplitude
	// means something else.
	st.SetFloat("pivot_scalar", 2e-3)
	st.SetFloat("pivot_tensor", 2e-3)
	st.SetFloat("scalar_spectral_index(1)", ics.cosmo.NS)
	st.SetFloat("scalar_amp(1)", ics.cosmo.ScalarAmp)

	// The largest scale the particles resolve is twice the mean
	// interparticle spacing. Double that again for margin.
	st.SetFloat("transfer_kmax", 2*math.Pi*4*float64(cfg.NPart)/cfg.Box)

	zz := ics.transferRedshifts()
	for i, z := range zz {
		n := strconv.Itoa(i + 1)
		st.Set("transfer_redshift("+n+")",
			strconv.FormatFloat(z, 'g', 4, 64))
		st.Set("transfer_filename("+n+")", "transfer_"+zstr(z)+".dat")
		st.Set("transfer_matterpower("+n+")", "matterpow_"+zstr(z)+".dat")
	}
	st.SetInt("transfer_num_redshifts", int64(len(zz)))

	if ics.cosmo.MNu == 0 {
		st.SetFloat("massless_neutrinos", 3.046)
		st.SetInt("massive_neutrinos", 0)
		st.SetFloat("omnuh2", 0)
	} else {
		// Three degenerate massive species.
		st.SetFloat("massless_neutrinos", 0.046)
		st.SetInt("massive_neutrinos", 3)
		st.SetFloat("omnuh2", ics.cosmo.OmNuH2())
	}

	param = filepath.Join(cfg.OutDir, cambParam)
	if err := st.Write(param); err != nil {
		return "", "", err
	}
	return cambOutput, param, nil
}

// GenICFile writes the realizer parameter file into the output directory
// and returns the realizer's output path relative to it, along with the
// path of the written parameter file.
func (ics *ICs) GenICFile(cambOut string) (output, param string, err error) {
	cfg := ics.cfg
	st, err := parse.LoadStore(cfg.GenICTemplate)
	if err != nil {
		return "", "", err
	}

	// The solver tables are in Mpc/h. A template in other units would
	// silently rescale the whole realization.
	unit, err := st.GetFloat("InputSpectrum_UnitLength_in_cm")
	if err != nil || math.Abs(unit/3.085678e24-1) > 1e-6 {
		return "", "", fmt.Errorf(
			"The realizer template %s must set "+
				"InputSpectrum_UnitLength_in_cm = 3.085678e24.",
			cfg.GenICTemplate,
		)
	}

	if err := os.MkdirAll(
		filepath.Join(cfg.OutDir, genicDir), 0755,
	); err != nil {
		return "", "", err
	}

	st.SetFloat("Box", cfg.Box*1000) // kpc/h
	st.SetInt("Nmesh", cfg.NPart*2)
	st.Set("OutputDir", genicDir)
	st.Set("FileBase", ics.fileBase())

	st.SetInt("NCDM", cfg.NPart)
	if cfg.SeparateGas {
		st.SetInt("NBaryon", cfg.NPart)
		// The 2LPT correction is derived for a single fluid and its
		// two-species generalization is unclear, so switch it off.
		st.SetInt("TWOLPT", 0)
	} else {
		st.SetInt("NBaryon", 0)
	}

	st.SetFloat("Omega", ics.cosmo.Omega0) // Total matter, not CDM.
	st.SetFloat("OmegaLambda", ics.cosmo.OmegaLambda())
	st.SetFloat("OmegaBaryon", ics.cosmo.OmegaB)
	st.SetFloat("HubbleParam", ics.cosmo.Hubble)
	st.SetFloat("Redshift", cfg.Redshift)

	zs := zstr(cfg.Redshift)
	st.Set("FileWithInputSpectrum", cambOut+"_matterpow_"+zs+".dat")
	st.Set("FileWithTransfer", cambOut+"_transfer_"+zs+".dat")

	st.SetInt("NumFiles", ics.numFiles())
	st.SetInt("Seed", cfg.Seed)

	if cfg.SeparateNu {
		st.SetInt("NNeutrino", cfg.NPart)
		st.SetInt("NU_Vtherm_On", 1)
	} else {
		st.SetInt("NNeutrino", 0)
		st.SetInt("NU_Vtherm_On", 0)
	}
	st.SetInt("NU_in_DM", 0)
	if ics.cosmo.MNu > 0 {
		st.SetFloat("NU_PartMass_in_ev", ics.cosmo.MNu)
	}

	param = filepath.Join(cfg.OutDir, genicParam)
	if err := st.Write(param); err != nil {
		return "", "", err
	}
	return filepath.Join(genicDir, ics.fileBase()), param, nil
}
