package powerspec

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// logspace returns n wavenumbers uniform in log10 between lo and hi.
func logspace(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	dlg := (math.Log10(hi) - math.Log10(lo)) / float64(n-1)
	for i := range out {
		out[i] = math.Pow(10, math.Log10(lo)+float64(i)*dlg)
	}
	return out
}

// powerLaw is the analytic spectrum used by the synthetic tables:
// P(k) = 1e-3 k^-2, a straight line in log-log space, which a natural
// cubic spline reproduces exactly.
func powerLaw(k float64) float64 { return 1e-3 * math.Pow(k, -2) }

// writeMatterPower writes a two-column matter power table for powerLaw.
func writeMatterPower(t *testing.T, dir string, ks []float64) string {
	t.Helper()
	b := &strings.Builder{}
	for _, k := range ks {
		fmt.Fprintf(b, "%g %g\n", k, powerLaw(k))
	}
	fname := filepath.Join(dir, "ics_matterpow_99.dat")
	require.NoError(t, os.WriteFile(fname, []byte(b.String()), 0644))
	return fname
}

// writeTransfer writes a transfer table whose species columns all equal the
// reference column scaled by the given per-species ratios, so the squared
// normalized transfer ratio of species s is ratios[s]^2.
func writeTransfer(
	t *testing.T, dir string, ks []float64, ratios map[Species]float64,
) string {
	t.Helper()
	ratio := func(s Species) float64 {
		if r, ok := ratios[s]; ok {
			return r
		}
		return 1
	}

	b := &strings.Builder{}
	for _, k := range ks {
		// The reference amplitude decays like a crude transfer function;
		// only the ratios matter.
		ref := 1 / (1 + k*k)
		cols := make([]float64, 8)
		cols[transferKCol] = k
		cols[transferCDMCol] = ratio(DM) * ref
		cols[transferBaryonCol] = ratio(Baryon) * ref
		cols[3] = 0
		cols[4] = 0
		cols[transferNuCol] = ratio(Nu) * ref
		cols[transferTotCol] = ref
		cols[transferDMByCol] = ratio(DMBaryon) * ref
		for j, c := range cols {
			if j > 0 {
				fmt.Fprint(b, " ")
			}
			fmt.Fprintf(b, "%g", c)
		}
		fmt.Fprintln(b)
	}
	fname := filepath.Join(dir, "ics_transfer_99.dat")
	require.NoError(t, os.WriteFile(fname, []byte(b.String()), 0644))
	return fname
}

func testTheory(t *testing.T, ratios map[Species]float64) *Theory {
	t.Helper()
	dir := t.TempDir()
	ks := logspace(1e-4, 1e3, 71)
	mp := writeMatterPower(t, dir, ks)
	tk := writeTransfer(t, dir, ks, ratios)

	th, err := NewTheory(mp, tk, 1e-3, 1e2)
	require.NoError(t, err)
	return th
}

func TestTheoryNodesExact(t *testing.T) {
	th := testTheory(t, nil)

	ks := logspace(1e-2, 10, 11)
	ps, err := th.PowerAt(ks, Tot)
	require.NoError(t, err)
	for i, k := range ks {
		assert.InEpsilonf(t, powerLaw(k), ps[i], 1e-6,
			"P(tot) at k = %g", k)
	}
}

func TestTheorySpeciesRatio(t *testing.T) {
	th := testTheory(t, map[Species]float64{Baryon: 0.5, Nu: 0.1})

	ks := logspace(1e-2, 10, 7)
	tot, err := th.PowerAt(ks, Tot)
	require.NoError(t, err)

	for _, test := range []struct {
		s    Species
		want float64 // ratio of species power to total power
	}{
		{DM, 1}, {DMBaryon, 1}, {Baryon, 0.25}, {Nu, 0.01},
	} {
		ps, err := th.PowerAt(ks, test.s)
		require.NoError(t, err)
		for i := range ks {
			assert.InEpsilonf(t, tot[i]*test.want, ps[i], 1e-6,
				"P(%s) at k = %g", test.s, ks[i])
		}
	}
}

func TestTheoryRefusesExtrapolation(t *testing.T) {
	th := testTheory(t, nil)

	_, err := th.PowerAt([]float64{1e-4}, Tot)
	assert.Error(t, err, "below the truncation window")
	_, err = th.PowerAt([]float64{1e3}, Tot)
	assert.Error(t, err, "above the truncation window")
	_, err = th.PowerAt([]float64{1}, Tot)
	assert.NoError(t, err)
}

func TestTheoryBadTables(t *testing.T) {
	dir := t.TempDir()
	ks := logspace(1e-4, 1e3, 41)
	goodMP := writeMatterPower(t, dir, ks)
	goodTK := writeTransfer(t, dir, ks, nil)

	write := func(name, text string) string {
		fname := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(fname, []byte(text), 0644))
		return fname
	}

	t.Run("matter power with three columns", func(t *testing.T) {
		bad := write("mp3.dat", "0.001 1 1\n0.01 2 1\n0.1 3 1\n1 4 1\n")
		_, err := NewTheory(bad, goodTK, 1e-3, 1e2)
		assert.ErrorIs(t, err, ErrBadTable)
	})

	t.Run("non-monotonic matter power", func(t *testing.T) {
		bad := write("mpdup.dat",
			"0.001 1\n0.01 2\n0.01 2\n0.1 3\n1 4\n10 5\n")
		_, err := NewTheory(bad, goodTK, 1e-3, 1e2)
		assert.ErrorIs(t, err, ErrBadTable)
	})

	t.Run("non-positive power", func(t *testing.T) {
		bad := write("mpneg.dat", "0.001 1\n0.01 -2\n0.1 3\n1 4\n10 5\n")
		_, err := NewTheory(bad, goodTK, 1e-3, 1e2)
		assert.ErrorIs(t, err, ErrBadTable)
	})

	t.Run("empty matter power", func(t *testing.T) {
		bad := write("mpempty.dat", "# nothing here\n")
		_, err := NewTheory(bad, goodTK, 1e-3, 1e2)
		assert.ErrorIs(t, err, ErrBadTable)
	})

	t.Run("too few rows in window", func(t *testing.T) {
		bad := write("mpshort.dat", "0.001 1\n0.01 2\n0.1 3\n")
		_, err := NewTheory(bad, goodTK, 1e-3, 1e2)
		assert.ErrorIs(t, err, ErrBadTable)
	})

	t.Run("transfer with seven columns", func(t *testing.T) {
		b := &strings.Builder{}
		for _, k := range ks {
			fmt.Fprintf(b, "%g 1 1 0 0 1 1\n", k)
		}
		bad := write("tk7.dat", b.String())
		_, err := NewTheory(goodMP, bad, 1e-3, 1e2)
		assert.ErrorIs(t, err, ErrBadTable)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := NewTheory(filepath.Join(dir, "nope.dat"), goodTK, 1e-3, 1e2)
		assert.Error(t, err)
	})
}
