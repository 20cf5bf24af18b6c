/*package snap reads the header of the particle realizer's output snapshots.

Only the header is parsed: the pipeline needs the per-species particle
counts to decide which measured spectra should exist, and the per-species
masses to cross-check against the configured neutrino mass fraction. The
particle data itself is never touched.*/
package snap

import (
	"encoding/binary"
	"fmt"
	"os"
)

// Particle type slots in a Gadget-format snapshot.
const (
	GasType = 0
	CDMType = 1
	NuType  = 2

	NTypes = 6
)

// headerSize is the fixed size of the on-disk header record.
const headerSize = 256

// rawHeader is the on-disk layout of a Gadget-format snapshot header.
type rawHeader struct {
	NPart                                     [6]uint32
	Mass                                      [6]float64
	Time, Redshift                            float64
	FlagSfr, FlagFeedback                     int32
	NPartTotal                                [6]uint32
	FlagCooling, NumFiles                     int32
	BoxSize, Omega0, OmegaLambda, HubbleParam float64
	FlagStellarAge, HashTabSize               int32

	Padding [88]byte
}

// Header describes a snapshot's meta-information in standardized form.
type Header struct {
	NPart [NTypes]int64   // Total particle count per type slot.
	Mass  [NTypes]float64 // Particle mass per type slot.

	Redshift float64
	BoxSize  float64

	Omega0, OmegaLambda, HubbleParam float64
}

func (raw *rawHeader) standardize() *Header {
	h := &Header{
		Redshift: raw.Redshift,
		BoxSize:  raw.BoxSize,

		Omega0:      raw.Omega0,
		OmegaLambda: raw.OmegaLambda,
		HubbleParam: raw.HubbleParam,
	}
	for i := 0; i < NTypes; i++ {
		h.NPart[i] = int64(raw.NPartTotal[i])
		h.Mass[i] = raw.Mass[i]
	}
	return h
}

// HasGas returns true if the snapshot contains baryon particles.
func (h *Header) HasGas() bool { return h.NPart[GasType] > 0 }

// HasNeutrinos returns true if the snapshot contains neutrino particles.
func (h *Header) HasNeutrinos() bool { return h.NPart[NuType] > 0 }

// NuMassFraction returns the fraction of the particle mass budget carried
// by neutrino particles, m_nu / (m_cdm + m_nu).
func (h *Header) NuMassFraction() float64 {
	mcdm, mnu := h.Mass[CDMType], h.Mass[NuType]
	if mcdm+mnu == 0 {
		return 0
	}
	return mnu / (mcdm + mnu)
}

// ReadHeader reads the header of the snapshot file fname. The byte order is
// detected from the leading record marker, which must decode to the header
// record size in one of the two orders.
func ReadHeader(fname string) (*Header, error) {
	f, err := os.Open(fname)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var markerBytes [4]byte
	if _, err := f.Read(markerBytes[:]); err != nil {
		return nil, fmt.Errorf("%s is too short to be a snapshot.", fname)
	}

	var order binary.ByteOrder
	switch {
	case binary.LittleEndian.Uint32(markerBytes[:]) == headerSize:
		order = binary.LittleEndian
	case binary.BigEndian.Uint32(markerBytes[:]) == headerSize:
		order = binary.BigEndian
	default:
		return nil, fmt.Errorf(
			"%s does not start with a %d byte header record; it is "+
				"probably not a snapshot file.", fname, headerSize,
		)
	}

	raw := &rawHeader{}
	if err := binary.Read(f, order, raw); err != nil {
		return nil, fmt.Errorf(
			"Corruption detected in the snapshot header of %s: %s",
			fname, err.Error(),
		)
	}

	return raw.standardize(), nil
}
