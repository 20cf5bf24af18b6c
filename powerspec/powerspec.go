/*package powerspec checks that a realized particle distribution reproduces
the linear-theory power spectrum it was drawn from.

The linear-theory solver writes a matter power spectrum and a set of
per-species transfer functions. The particle realizer turns those into a
discrete snapshot, and a measurement tool bins the snapshot back into a raw
power spectrum per particle species. This package builds smooth theory
curves from the solver tables, rebins the measurement into physical units,
and compares the two over the wavenumber window where the comparison is
meaningful. A disagreement beyond tolerance signals a defect in the IC
generation and is reported as an error.*/
package powerspec

import (
	"errors"
	"fmt"
)

// Species labels a particle species or a theory composition. The labels
// match the species tags in the measurement tool's output file names.
type Species int

const (
	// Tot is the total matter power spectrum.
	Tot Species = iota
	// DM is cold dark matter. Depending on the run configuration the DM
	// particles may absorb the baryons and/or the neutrinos, in which case
	// the measured "DM" spectrum must be compared against a combined theory
	// curve. Resolve handles that mapping.
	DM
	// Baryon is the gas component, tagged "by" in measurement files.
	Baryon
	// Nu is the massive neutrino component.
	Nu
	// DMBaryon is the combined dark matter + baryon theory curve.
	DMBaryon
)

func (s Species) String() string {
	switch s {
	case Tot:
		return "tot"
	case DM:
		return "DM"
	case Baryon:
		return "by"
	case Nu:
		return "nu"
	case DMBaryon:
		return "DMby"
	}
	panic("Impossible")
}

var (
	// ErrBadTable reports a solver table with the wrong shape: wrong column
	// count, non-monotonic wavenumbers, or too few rows for interpolation.
	ErrBadTable = errors.New("malformed table")

	// ErrCorruptSpectrum reports a measured spectrum with non-positive
	// wavenumbers or powers after rebinning.
	ErrCorruptSpectrum = errors.New("corrupt measured spectrum")
)

// AccuracyError reports that the realized power spectrum of a species
// disagrees with linear theory in too many modes.
type AccuracyError struct {
	Species Species
	MaxErr  float64 // Largest fractional deviation inside the window.
	Failed  int     // Number of modes beyond tolerance.
}

func (e *AccuracyError) Error() string {
	return fmt.Sprintf(
		"Power spectrum accuracy check failed for %s: %d modes beyond "+
			"tolerance, max error %g.", e.Species, e.Failed, e.MaxErr,
	)
}

// SpeciesCheck pairs a measured species label with the theory composition it
// must be compared against.
type SpeciesCheck struct {
	Label  Species // Tag of the measured spectrum file.
	Theory Species // Theory curve the measurement must match.

	// Mandatory species must have a measurement file. A missing optional
	// species (neutrinos, when the realizer produced none) is skipped.
	Mandatory bool
}

// Resolve returns the species which must be checked for a run and the theory
// composition each one compares against.
//
// The measured "DM" spectrum may incorporate other components: with no gas
// particles and no separate neutrinos, DM particles carry the total matter
// power; with no gas particles but separate (or linear-response) neutrinos,
// they carry the combined dark matter + baryon power. With gas particles
// separated, the DM particles carry the dark matter power alone; that run
// configuration is assumed to have no massive neutrinos.
func Resolve(separateGas, separateNu bool) []SpeciesCheck {
	dm := SpeciesCheck{Label: DM, Theory: DM, Mandatory: true}
	switch {
	case !separateGas && !separateNu:
		dm.Theory = Tot
	case !separateGas && separateNu:
		dm.Theory = DMBaryon
	}

	checks := []SpeciesCheck{dm}
	if separateGas {
		checks = append(checks,
			SpeciesCheck{Label: Baryon, Theory: Baryon, Mandatory: true})
	}
	checks = append(checks, SpeciesCheck{Label: Nu, Theory: Nu})
	return checks
}
