/*package cosmo contains the cosmological parameters of a run and the
derived density fractions handed to the linear-theory solver.*/
package cosmo

import (
	"fmt"
)

// NuOmegaFactor converts a summed neutrino mass in eV into omega_nu h^2.
const NuOmegaFactor = 93.14

// Params holds the cosmological parameters of a single run. Flatness is
// assumed: OmegaLambda is always 1 - Omega0.
type Params struct {
	Omega0 float64 // Total matter density at z=0, massive neutrinos included.
	OmegaB float64 // Baryon density. Set even when no gas particles are made.
	Hubble float64 // H0 / (100 km/s/Mpc)

	ScalarAmp float64 // A_s at the k = 2e-3 pivot scale.
	NS        float64 // Scalar spectral index.

	MNu float64 // Summed neutrino mass in eV. Zero for massless neutrinos.
}

// Validate checks that every parameter is physically reasonable and returns
// an error describing the first one which isn't.
func (p *Params) Validate() error {
	if p.Omega0 <= 0 || p.Omega0 > 1 {
		return fmt.Errorf("The total matter density is set to %g, but must "+
			"be in (0, 1].", p.Omega0)
	}
	if p.OmegaB <= 0 || p.OmegaB >= 1 {
		return fmt.Errorf("The baryon density is set to %g, but must be in "+
			"(0, 1).", p.OmegaB)
	}
	if p.OmegaB >= p.Omega0 {
		return fmt.Errorf("The baryon density %g is not smaller than the "+
			"total matter density %g.", p.OmegaB, p.Omega0)
	}
	if p.Hubble <= 0 || p.Hubble >= 1 {
		return fmt.Errorf("The Hubble parameter is set to %g, but must be "+
			"in (0, 1).", p.Hubble)
	}
	if p.ScalarAmp <= 0 || p.ScalarAmp >= 1e-7 {
		return fmt.Errorf("The scalar amplitude is set to %g, but must be "+
			"in (0, 1e-7).", p.ScalarAmp)
	}
	if p.NS <= 0 || p.NS >= 2 {
		return fmt.Errorf("The spectral index is set to %g, but must be in "+
			"(0, 2).", p.NS)
	}
	if p.MNu < 0 {
		return fmt.Errorf("The neutrino mass is set to %g eV, but must not "+
			"be negative.", p.MNu)
	}
	return nil
}

// OmegaLambda returns the dark energy density of a flat universe.
func (p *Params) OmegaLambda() float64 { return 1 - p.Omega0 }

// OmegaNu returns the massive neutrino density.
func (p *Params) OmegaNu() float64 {
	return p.MNu / NuOmegaFactor / (p.Hubble * p.Hubble)
}

// OmBH2 returns omega_b h^2, the physical baryon density.
func (p *Params) OmBH2() float64 { return p.OmegaB * p.Hubble * p.Hubble }

// OmNuH2 returns omega_nu h^2, the physical neutrino density.
func (p *Params) OmNuH2() float64 { return p.MNu / NuOmegaFactor }

// OmCH2 returns omega_c h^2, the physical cold dark matter density. The
// neutrino density is subtracted out: Omega0 includes it.
func (p *Params) OmCH2() float64 {
	return (p.Omega0-p.OmegaB)*p.Hubble*p.Hubble - p.OmNuH2()
}

// NuMassFraction returns the fraction of the total matter density carried by
// massive neutrinos. The particle masses in a realized snapshot must share
// this ratio.
func (p *Params) NuMassFraction() float64 {
	return p.OmegaNu() / p.Omega0
}
