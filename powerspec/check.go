package powerspec

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"
)

// Defaults for Options fields left at zero.
const (
	DefaultTolerance = 0.05
	DefaultMinModes  = 1
)

// maxFailedModes is how many modes may exceed tolerance before a species
// check fails. Single-mode sample-variance spikes are expected; systematic
// mismatch is not.
const maxFailedModes = 3

// nuNoiseFloor marks where a measured neutrino spectrum has collapsed into
// numerical noise, relative to its first bin.
const nuNoiseFloor = 1e-5

// Options configures a consistency check of one realization.
type Options struct {
	// MatterPower and Transfer are the solver's output tables.
	MatterPower, Transfer string

	// GenICOutput is the realizer's output path. Measured spectra are
	// looked up next to it as PK-<species>-<basename>.
	GenICOutput string

	Box   float64 // Box size, same length units as the solver tables.
	NPart int64   // Cube root of the particle number per species.

	SeparateGas bool // Were baryons realized as their own particles?
	SeparateNu  bool // Are neutrinos followed outside the DM particles?

	Tolerance float64 // Fractional tolerance. Zero means DefaultTolerance.
	MinModes  int     // Minimum modes per rebinned bin. Zero means 1.
	NoPlots   bool    // Suppress the diagnostic figures.
}

func (opts *Options) tolerance() float64 {
	if opts.Tolerance == 0 {
		return DefaultTolerance
	}
	return opts.Tolerance
}

// MeasurementPath returns the path of the measured power spectrum of a
// species, which the measurement tool writes next to the realizer output.
func MeasurementPath(genicOutput string, label Species) string {
	dir, base := filepath.Split(genicOutput)
	return filepath.Join(dir, fmt.Sprintf("PK-%s-%s", label, base))
}

// BuildTheory loads the theory model for a check over the window the
// diagnostics need. The model is immutable, so one model can serve
// concurrent CheckSpecies calls.
func BuildTheory(opts *Options) (*Theory, error) {
	return NewTheory(
		opts.MatterPower, opts.Transfer,
		theoryKMin(opts.Box), theoryKMax(opts.Box, opts.NPart),
	)
}

// Check validates every species of a realization against linear theory. It
// returns the first error encountered: a missing mandatory measurement, a
// malformed input table, or an AccuracyError for a species whose realized
// spectrum disagrees with theory.
func Check(opts *Options) error {
	th, err := BuildTheory(opts)
	if err != nil {
		return err
	}

	for _, sc := range Resolve(opts.SeparateGas, opts.SeparateNu) {
		if err := CheckSpecies(th, sc, opts); err != nil {
			return err
		}
	}
	return nil
}

// The theory model is built over a window well beyond the comparison
// window: a fifth of the fundamental mode up to ten times the particle
// Nyquist scale, so the diagnostic figures can show the full measurement.
func theoryKMin(box float64) float64 { return 2 * math.Pi / box / 5 }
func theoryKMax(box float64, npart int64) float64 {
	return float64(npart) * 2 * math.Pi / box * 10
}

// compareWindow returns the index range [imin, imax) of the rebinned
// wavenumbers ks to compare over: between four fundamental modes and a
// quarter of the particle grid's Nyquist-like scale. Below that window the
// box carries too few modes, above it discreteness effects dominate.
func compareWindow(ks []float64, box float64, npart int64) (imin, imax int) {
	fund := 2 * math.Pi / box
	imin = sort.SearchFloat64s(ks, 4*fund)
	imax = sort.SearchFloat64s(ks, float64(npart)*fund/4)
	return imin, imax
}

// CheckSpecies validates a single resolved species against the given theory
// model. The theory model is read-only here, so callers may run several
// species concurrently.
func CheckSpecies(th *Theory, sc SpeciesCheck, opts *Options) error {
	fname := MeasurementPath(opts.GenICOutput, sc.Label)
	if _, err := os.Stat(fname); err != nil {
		if sc.Mandatory {
			return fmt.Errorf(
				"The measured spectrum %s for species %s does not exist.",
				fname, sc.Label,
			)
		}
		slog.Debug("no measured spectrum, skipping species",
			"species", sc.Label.String(), "path", fname)
		return nil
	}

	minModes := opts.MinModes
	if minModes == 0 {
		minModes = DefaultMinModes
	}
	m, err := LoadMeasured(fname, opts.Box, minModes)
	if err != nil {
		return err
	}

	imin, imax := compareWindow(m.K, opts.Box, opts.NPart)

	tol := opts.tolerance()
	if sc.Label == Nu {
		// Free streaming suppresses neutrino clustering, so exact initial
		// power on small scales is both hard to realize and unimportant.
		// Loosen the tolerance and cut the window where the measured
		// spectrum has decayed into noise.
		tol *= 4
		for i := range m.P {
			if m.P[i] < m.P[0]*nuNoiseFloor {
				if i < imax {
					imax = i
				}
				break
			}
		}
	}

	theory, err := th.PowerAt(m.K, sc.Theory)
	if err != nil {
		return fmt.Errorf("Evaluating theory for species %s: %w", sc.Label, err)
	}

	if !opts.NoPlots {
		// Plotting is observability, not correctness: failures are logged
		// and the check continues.
		if err := plotRatio(fname+"-diff.pdf", m, theory, imin, imax); err != nil {
			slog.Warn("could not write diagnostic plot",
				"path", fname+"-diff.pdf", "err", err)
		}
		if err := plotAbs(fname+"-abs.pdf", m, theory); err != nil {
			slog.Warn("could not write diagnostic plot",
				"path", fname+"-abs.pdf", "err", err)
		}
	}

	if imin >= imax {
		slog.Warn("empty comparison window, nothing to check",
			"species", sc.Label.String(), "imin", imin, "imax", imax)
		return nil
	}

	devs := make([]float64, imax-imin)
	ratios := make([]float64, imax-imin)
	failed := 0
	for i := imin; i < imax; i++ {
		ratios[i-imin] = m.P[i] / theory[i]
		devs[i-imin] = math.Abs(ratios[i-imin] - 1)
		if devs[i-imin] > tol {
			failed++
		}
	}

	median, _ := stats.Median(ratios)
	mean, _ := stats.Mean(ratios)
	slog.Info("species power spectrum checked",
		"species", sc.Label.String(), "theory", sc.Theory.String(),
		"bins", imax-imin, "failed", failed,
		"ratioMedian", median, "ratioMean", mean,
		"maxDev", floats.Max(devs))

	if failed > maxFailedModes {
		return &AccuracyError{
			Species: sc.Label, MaxErr: floats.Max(devs), Failed: failed,
		}
	}
	return nil
}
