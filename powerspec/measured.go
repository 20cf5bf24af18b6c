package powerspec

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// Measured is a rebinned power spectrum measured from a realized snapshot,
// in physical units, ordered by increasing wavenumber.
type Measured struct {
	K []float64 // Wavenumber in the solver's units.
	P []float64 // Power.
}

// LoadMeasured reads a raw binned power spectrum as written by the
// measurement tool: three whitespace-delimited columns holding wavenumber
// and power in dimensionless box units plus the number of Fourier modes in
// the bin.
//
// Units are converted with scale = 2 pi / box, and consecutive bins are
// merged until each output bin aggregates at least minModes modes. The
// output wavenumber and power of a merged bin are the mode-count weighted
// means of its inputs. A trailing run of bins that never reaches minModes
// is dropped.
func LoadMeasured(fname string, box float64, minModes int) (*Measured, error) {
	if box <= 0 {
		return nil, fmt.Errorf("The box size %g is not positive.", box)
	}
	if minModes < 1 {
		minModes = 1
	}

	cols, err := readTable(fname)
	if err != nil {
		return nil, err
	}
	if len(cols) != 3 {
		return nil, fmt.Errorf(
			"%w: the measured spectrum %s has %d columns instead of 3.",
			ErrBadTable, fname, len(cols),
		)
	}

	ks, ps, counts := cols[0], cols[1], cols[2]
	scale := 2 * math.Pi / box
	// The measurement is made on the dimensionless box grid. Lengths scale
	// by 2 pi / box and the power picks up the box volume.
	for i := range ks {
		ks[i] *= scale
		ps[i] = ps[i] / (scale * scale * scale) *
			(2 * math.Pi) * (2 * math.Pi) * (2 * math.Pi)
	}

	m := &Measured{}
	lcount := 0.0
	istart := 0
	for iend := 0; iend < len(ks); iend++ {
		lcount += counts[iend]
		if lcount < float64(minModes) {
			continue
		}

		k := stat.Mean(ks[istart:iend+1], counts[istart:iend+1])
		p := stat.Mean(ps[istart:iend+1], counts[istart:iend+1])
		if k <= 0 || p <= 0 {
			return nil, fmt.Errorf(
				"%w: bin %d of %s rebinned to (k, P) = (%g, %g).",
				ErrCorruptSpectrum, len(m.K), fname, k, p,
			)
		}
		m.K = append(m.K, k)
		m.P = append(m.P, p)

		istart = iend + 1
		lcount = 0
	}

	return m, nil
}
