package snap

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSnapshot(
	t *testing.T, order binary.ByteOrder, raw *rawHeader,
) string {
	t.Helper()

	b := &bytes.Buffer{}
	require.NoError(t, binary.Write(b, order, uint32(headerSize)))
	require.NoError(t, binary.Write(b, order, raw))
	require.NoError(t, binary.Write(b, order, uint32(headerSize)))

	fname := filepath.Join(t.TempDir(), "256_256_99")
	require.NoError(t, os.WriteFile(fname, b.Bytes(), 0644))
	return fname
}

func testRawHeader() *rawHeader {
	raw := &rawHeader{
		Redshift:    99,
		Time:        1.0 / (1 + 99),
		BoxSize:     256000,
		Omega0:      0.288,
		OmegaLambda: 0.712,
		HubbleParam: 0.7,
	}
	raw.NPartTotal[CDMType] = 256 * 256 * 256
	raw.NPart[CDMType] = 256 * 256 * 256
	raw.Mass[CDMType] = 7.71739
	return raw
}

func TestReadHeader(t *testing.T) {
	for _, test := range []struct {
		name  string
		order binary.ByteOrder
	}{
		{"little endian", binary.LittleEndian},
		{"big endian", binary.BigEndian},
	} {
		t.Run(test.name, func(t *testing.T) {
			fname := writeSnapshot(t, test.order, testRawHeader())

			h, err := ReadHeader(fname)
			require.NoError(t, err)
			assert.Equal(t, int64(256*256*256), h.NPart[CDMType])
			assert.Equal(t, 99.0, h.Redshift)
			assert.Equal(t, 256000.0, h.BoxSize)
			assert.Equal(t, 0.288, h.Omega0)
			assert.InDelta(t, 7.71739, h.Mass[CDMType], 1e-12)
			assert.False(t, h.HasGas())
			assert.False(t, h.HasNeutrinos())
		})
	}
}

func TestReadHeaderNeutrinos(t *testing.T) {
	raw := testRawHeader()
	raw.NPartTotal[NuType] = 256 * 256 * 256
	raw.Mass[NuType] = 0.12345
	fname := writeSnapshot(t, binary.LittleEndian, raw)

	h, err := ReadHeader(fname)
	require.NoError(t, err)
	assert.True(t, h.HasNeutrinos())

	want := 0.12345 / (7.71739 + 0.12345)
	assert.InDelta(t, want, h.NuMassFraction(), 1e-12)
}

func TestReadHeaderRejectsGarbage(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "garbage")
	require.NoError(t,
		os.WriteFile(fname, []byte("this is not a snapshot"), 0644))
	_, err := ReadHeader(fname)
	assert.Error(t, err)

	_, err = ReadHeader(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestNuMassFractionEmpty(t *testing.T) {
	h := &Header{}
	assert.Equal(t, 0.0, h.NuMassFraction())
}
