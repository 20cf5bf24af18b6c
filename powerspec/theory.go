package powerspec

import (
	"fmt"
	"math"
	"sort"

	"icprep/math/interpolate"
)

// Column layout of the solver's transfer function table. Columns are
// assigned by fixed position; the total column is the normalizing reference
// for every species, which keeps the ratios unit-independent.
const (
	transferKCol      = 0
	transferCDMCol    = 1
	transferBaryonCol = 2
	transferNuCol     = 5
	transferTotCol    = 6
	transferDMByCol   = 7

	transferMinCols = 8
)

// A cubic spline needs this many table rows after truncation.
const minTableRows = 4

// Theory holds smooth per-species power spectrum curves built from the
// linear-theory solver's output tables. It is immutable after construction
// and safe for concurrent reads.
type Theory struct {
	pk    *interpolate.Spline             // log10 P_tot over log10 k.
	ratio map[Species]*interpolate.Spline // (T_s / T_tot)^2 over log10 k.
}

// NewTheory builds a Theory from a matter power table and a transfer
// function table, truncated to [kMin, kMax) before interpolation so that
// later lookups never extrapolate.
//
// The matter power table must have exactly two columns, wavenumber and
// power, with strictly increasing wavenumbers. The transfer table must have
// at least eight columns with the wavenumber in the first.
func NewTheory(matterPower, transfer string, kMin, kMax float64) (*Theory, error) {
	th := &Theory{ratio: map[Species]*interpolate.Spline{}}

	if err := th.loadMatterPower(matterPower, kMin, kMax); err != nil {
		return nil, err
	}
	if err := th.loadTransfer(transfer, kMin, kMax); err != nil {
		return nil, err
	}
	return th, nil
}

func (th *Theory) loadMatterPower(fname string, kMin, kMax float64) error {
	cols, err := readTable(fname)
	if err != nil {
		return err
	}
	if len(cols) != 2 {
		return fmt.Errorf(
			"%w: the matter power table %s has %d columns instead of 2.",
			ErrBadTable, fname, len(cols),
		)
	}

	ks, ps := cols[0], cols[1]
	logk := make([]float64, len(ks))
	logp := make([]float64, len(ps))
	for i := range ks {
		if ks[i] <= 0 || ps[i] <= 0 {
			return fmt.Errorf(
				"%w: row %d of the matter power table %s is not positive.",
				ErrBadTable, i+1, fname,
			)
		}
		logk[i] = math.Log10(ks[i])
		logp[i] = math.Log10(ps[i])
	}

	lo := sort.SearchFloat64s(logk, math.Log10(kMin))
	hi := sort.SearchFloat64s(logk, math.Log10(kMax))
	if err := checkAbscissa(fname, logk[lo:hi]); err != nil {
		return err
	}

	th.pk = interpolate.NewSpline(logk[lo:hi], logp[lo:hi])
	return nil
}

func (th *Theory) loadTransfer(fname string, kMin, kMax float64) error {
	cols, err := readTable(fname)
	if err != nil {
		return err
	}
	if len(cols) < transferMinCols {
		return fmt.Errorf(
			"%w: the transfer table %s has %d columns, but at least %d "+
				"are needed.", ErrBadTable, fname, len(cols), transferMinCols,
		)
	}

	ks := cols[transferKCol]
	lo := sort.SearchFloat64s(ks, kMin)
	hi := sort.SearchFloat64s(ks, kMax)

	logk := make([]float64, hi-lo)
	for i := lo; i < hi; i++ {
		if ks[i] <= 0 {
			return fmt.Errorf(
				"%w: row %d of the transfer table %s has a non-positive "+
					"wavenumber.", ErrBadTable, i+1, fname,
			)
		}
		logk[i-lo] = math.Log10(ks[i])
	}
	if err := checkAbscissa(fname, logk); err != nil {
		return err
	}

	ref := cols[transferTotCol]
	speciesCols := []struct {
		s   Species
		col int
	}{
		{DM, transferCDMCol},
		{Baryon, transferBaryonCol},
		{Nu, transferNuCol},
		{DMBaryon, transferDMByCol},
	}
	for _, sc := range speciesCols {
		ratio := make([]float64, hi-lo)
		for i := lo; i < hi; i++ {
			if ref[i] == 0 {
				return fmt.Errorf(
					"%w: row %d of the transfer table %s has a zero "+
						"reference amplitude.", ErrBadTable, i+1, fname,
				)
			}
			r := cols[sc.col][i] / ref[i]
			ratio[i-lo] = r * r
		}
		th.ratio[sc.s] = interpolate.NewSpline(logk, ratio)
	}

	return nil
}

// checkAbscissa verifies that a truncated abscissa can back a cubic spline.
func checkAbscissa(fname string, logk []float64) error {
	if len(logk) < minTableRows {
		return fmt.Errorf(
			"%w: only %d rows of %s fall inside the requested wavenumber "+
				"window; at least %d are needed.",
			ErrBadTable, len(logk), fname, minTableRows,
		)
	}
	for i := 0; i < len(logk)-1; i++ {
		if logk[i+1] <= logk[i] {
			return fmt.Errorf(
				"%w: the wavenumbers of %s are not strictly increasing.",
				ErrBadTable, fname,
			)
		}
	}
	return nil
}

// PowerAt evaluates the theory power spectrum of the given species at every
// wavenumber in ks. Wavenumbers outside the range the model was built over
// are an error: the model never extrapolates.
func (th *Theory) PowerAt(ks []float64, s Species) ([]float64, error) {
	ratio := th.ratio[s]
	if s != Tot && ratio == nil {
		return nil, fmt.Errorf("No theory curve for species %s.", s)
	}

	out := make([]float64, len(ks))
	for i, k := range ks {
		lk := math.Log10(k)
		if !th.pk.Contains(lk) {
			return nil, fmt.Errorf(
				"Wavenumber %g is outside the theory model's range "+
					"[%g, %g].", k, math.Pow(10, th.pk.Lo()),
				math.Pow(10, th.pk.Hi()),
			)
		}
		p := math.Pow(10, th.pk.Eval(lk))
		if s != Tot {
			if !ratio.Contains(lk) {
				return nil, fmt.Errorf(
					"Wavenumber %g is outside the transfer table's range "+
						"for species %s.", k, s,
				)
			}
			p *= ratio.Eval(lk)
		}
		out[i] = p
	}
	return out, nil
}
