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

// writeRawSpectrum writes a three-column raw measurement file.
func writeRawSpectrum(t *testing.T, ks, ps, counts []float64) string {
	t.Helper()
	b := &strings.Builder{}
	for i := range ks {
		fmt.Fprintf(b, "%g %g %g\n", ks[i], ps[i], counts[i])
	}
	fname := filepath.Join(t.TempDir(), "PK-DM-raw")
	require.NoError(t, os.WriteFile(fname, []byte(b.String()), 0644))
	return fname
}

func TestLoadMeasuredUnitRoundTrip(t *testing.T) {
	// With box = 2 pi the length scale factor is 1, so wavenumbers
	// round-trip unchanged and the power scales by the box volume alone.
	ks := []float64{1, 2, 3, 4}
	ps := []float64{100, 50, 25, 12.5}
	counts := []float64{6, 12, 18, 24}
	fname := writeRawSpectrum(t, ks, ps, counts)

	m, err := LoadMeasured(fname, 2*math.Pi, 1)
	require.NoError(t, err)
	require.Len(t, m.K, 4)
	vol := math.Pow(2*math.Pi, 3)
	for i := range ks {
		assert.InDelta(t, ks[i], m.K[i], 1e-12)
		assert.InDelta(t, ps[i]*vol, m.P[i], 1e-9)
	}
}

func TestLoadMeasuredUnits(t *testing.T) {
	box := 100.0
	scale := 2 * math.Pi / box
	fname := writeRawSpectrum(t,
		[]float64{1, 2}, []float64{8, 4}, []float64{1, 1})

	m, err := LoadMeasured(fname, box, 1)
	require.NoError(t, err)
	require.Len(t, m.K, 2)
	assert.InDelta(t, 1*scale, m.K[0], 1e-12)
	assert.InDelta(t, 8/(scale*scale*scale)*math.Pow(2*math.Pi, 3),
		m.P[0], 1e-6)
}

func TestLoadMeasuredRebin(t *testing.T) {
	// Mode-sparse bins must merge until each output bin holds at least
	// minModes modes; the merged k and P are count-weighted means.
	ks := []float64{1, 2, 3, 4, 5}
	ps := []float64{10, 20, 30, 40, 50}
	counts := []float64{2, 4, 6, 5, 1}
	fname := writeRawSpectrum(t, ks, ps, counts)

	m, err := LoadMeasured(fname, 2*math.Pi, 6)
	require.NoError(t, err)

	// Bins merge as {1, 2}, {3}, {4, 5}... but the trailing {4, 5} pair
	// only reaches 6 modes, so it survives: groups are (2+4), (6), (5+1).
	// With box = 2 pi the wavenumbers are unchanged and every power picks
	// up the box volume (2 pi)^3.
	vol := math.Pow(2*math.Pi, 3)
	require.Len(t, m.K, 3)
	assert.InDelta(t, (2*1+4*2)/6.0, m.K[0], 1e-12)
	assert.InDelta(t, (2*10+4*20)/6.0*vol, m.P[0], 1e-8)
	assert.InDelta(t, 3, m.K[1], 1e-12)
	assert.InDelta(t, 30*vol, m.P[1], 1e-8)
	assert.InDelta(t, (5*4+1*5)/6.0, m.K[2], 1e-12)
	assert.InDelta(t, (5*40+1*50)/6.0*vol, m.P[2], 1e-8)
}

func TestLoadMeasuredTrailingDrop(t *testing.T) {
	ks := []float64{1, 2, 3}
	ps := []float64{10, 20, 30}
	counts := []float64{5, 5, 3}
	fname := writeRawSpectrum(t, ks, ps, counts)

	m, err := LoadMeasured(fname, 2*math.Pi, 5)
	require.NoError(t, err)

	// The final bin never accumulates 5 modes and is silently dropped.
	require.Len(t, m.K, 2)
	assert.InDelta(t, 1, m.K[0], 1e-12)
	assert.InDelta(t, 2, m.K[1], 1e-12)
}

func TestLoadMeasuredModeCountInvariant(t *testing.T) {
	ks := logspace(1, 100, 40)
	ps := make([]float64, len(ks))
	counts := make([]float64, len(ks))
	for i := range ks {
		ps[i] = 1000 / ks[i]
		counts[i] = float64(1 + i%7)
	}

	for _, minModes := range []int{1, 3, 10, 25} {
		fname := writeRawSpectrum(t, ks, ps, counts)
		m, err := LoadMeasured(fname, 2*math.Pi, minModes)
		require.NoError(t, err)

		assert.LessOrEqual(t, len(m.K), len(ks),
			"rebinning may never grow the spectrum")
		for i := 1; i < len(m.K); i++ {
			assert.Greater(t, m.K[i], m.K[i-1],
				"rebinned wavenumbers must increase")
		}
	}
}

func TestLoadMeasuredCorrupt(t *testing.T) {
	t.Run("negative power", func(t *testing.T) {
		fname := writeRawSpectrum(t,
			[]float64{1, 2}, []float64{10, -1}, []float64{1, 1})
		_, err := LoadMeasured(fname, 100, 1)
		assert.ErrorIs(t, err, ErrCorruptSpectrum)
	})

	t.Run("zero wavenumber", func(t *testing.T) {
		fname := writeRawSpectrum(t,
			[]float64{0, 2}, []float64{10, 10}, []float64{1, 1})
		_, err := LoadMeasured(fname, 100, 1)
		assert.ErrorIs(t, err, ErrCorruptSpectrum)
	})

	t.Run("wrong column count", func(t *testing.T) {
		fname := filepath.Join(t.TempDir(), "PK-DM-bad")
		require.NoError(t,
			os.WriteFile(fname, []byte("1 10\n2 20\n"), 0644))
		_, err := LoadMeasured(fname, 100, 1)
		assert.ErrorIs(t, err, ErrBadTable)
	})
}
