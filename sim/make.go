package sim

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"icprep/logging"
	"icprep/powerspec"
	"icprep/snap"
)

// AlterPower is an optional hook run between the solver and the realizer.
// It receives the path of the matter power table the realizer will read and
// may rewrite it in place. A nil hook only checks that the table exists.
type AlterPower func(matterPow string) error

// Make prepares the initial conditions end to end: it generates both
// parameter files, runs the solver and the realizer, saves the run record,
// measures the realized power spectra and checks them against theory.
func (ics *ICs) Make(ctx context.Context, alter AlterPower) error {
	cambOut, cambParam, err := ics.CAMBFile()
	if err != nil {
		return err
	}
	cambExe, err := findExec(ics.cfg.CAMBExe)
	if err != nil {
		return err
	}
	// The solver resolves its data files relative to its own directory.
	if err := run(ctx, cambExe, filepath.Dir(cambExe), cambParam); err != nil {
		return err
	}

	matterPow := ics.cambTable(cambOut, "matterpow")
	if alter == nil {
		if _, err := os.Stat(matterPow); err != nil {
			return fmt.Errorf(
				"The solver ran, but did not write the matter power "+
					"table %s.", matterPow,
			)
		}
	} else if err := alter(matterPow); err != nil {
		return err
	}

	genicOut, genicParam, err := ics.GenICFile(cambOut)
	if err != nil {
		return err
	}
	genicExe, err := findExec(ics.cfg.GenICExe)
	if err != nil {
		return err
	}
	if err := run(ctx, genicExe, ics.cfg.OutDir, genicParam); err != nil {
		return err
	}

	if err := ics.WriteRecord(cambOut, genicOut); err != nil {
		return err
	}

	if err := ics.CheckSpectra(ctx, cambOut, genicOut); err != nil {
		return err
	}
	slog.Debug("initial conditions prepared",
		"out", ics.cfg.OutDir, "mem", logging.MemString())
	return nil
}

// cambTable returns the absolute path of a solver output table for the
// starting redshift.
func (ics *ICs) cambTable(cambOut, kind string) string {
	return filepath.Join(ics.cfg.OutDir,
		cambOut+"_"+kind+"_"+zstr(ics.cfg.Redshift)+".dat")
}

// CheckSpectra measures the power spectrum of every realized species and
// checks it against the solver's linear theory. The species run
// concurrently; the first failure wins.
func (ics *ICs) CheckSpectra(
	ctx context.Context, cambOut, genicOut string,
) error {
	genicOut = filepath.Join(ics.cfg.OutDir, genicOut)

	genpkExe, err := findExec(ics.cfg.GenPKExe)
	if err != nil {
		return err
	}
	err = run(ctx, genpkExe, ics.cfg.OutDir,
		"-i", genicOut, "-o", filepath.Dir(genicOut))
	if err != nil {
		return err
	}

	if err := ics.checkSnapshot(genicOut); err != nil {
		return err
	}

	opts := &powerspec.Options{
		MatterPower: ics.cambTable(cambOut, "matterpow"),
		Transfer:    ics.cambTable(cambOut, "transfer"),
		GenICOutput: genicOut,

		Box:   ics.cfg.Box,
		NPart: ics.cfg.NPart,

		SeparateGas: ics.cfg.SeparateGas,
		SeparateNu:  ics.cfg.SeparateNu,

		Tolerance: ics.cfg.Tolerance,
		MinModes:  int(ics.cfg.MinModes),
		NoPlots:   ics.cfg.NoPlots,
	}

	th, err := powerspec.BuildTheory(opts)
	if err != nil {
		return err
	}

	g, _ := errgroup.WithContext(ctx)
	for _, sc := range powerspec.Resolve(opts.SeparateGas, opts.SeparateNu) {
		sc := sc
		g.Go(func() error { return powerspec.CheckSpecies(th, sc, opts) })
	}
	return g.Wait()
}

// nuMassTol is the relative tolerance on the realized neutrino mass
// fraction. The realizer rounds the neutrino density with a slightly
// different mass-to-density constant, so this cannot be machine precision.
const nuMassTol = 1e-3

// checkSnapshot reads the realized snapshot header and checks that its
// particle content matches the run configuration.
func (ics *ICs) checkSnapshot(genicOut string) error {
	h, err := readSnapHeader(genicOut)
	if err != nil {
		return err
	}

	if ics.cfg.SeparateGas && !h.HasGas() {
		return fmt.Errorf(
			"The run is configured with separate baryons, but the realized "+
				"snapshot %s contains no gas particles.", genicOut,
		)
	}
	if !ics.cfg.SeparateNu {
		return nil
	}
	if !h.HasNeutrinos() {
		return fmt.Errorf(
			"The run is configured with particle neutrinos, but the "+
				"realized snapshot %s contains none.", genicOut,
		)
	}

	want := ics.cosmo.NuMassFraction()
	got := h.NuMassFraction()
	if math.Abs(got/want-1) > nuMassTol {
		return fmt.Errorf(
			"The neutrino particles of %s carry a mass fraction of %g, "+
				"but the cosmology implies %g.", genicOut, got, want,
		)
	}
	return nil
}

// readSnapHeader reads the header of the realizer output, which is either a
// single file or split into numbered pieces with identical headers.
func readSnapHeader(genicOut string) (*snap.Header, error) {
	h, err := snap.ReadHeader(genicOut)
	if err == nil {
		return h, nil
	}
	if h2, err2 := snap.ReadHeader(genicOut + ".0"); err2 == nil {
		return h2, nil
	}
	return nil, err
}

// findExec resolves an executable name on PATH.
func findExec(name string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf(
			"I could not find the executable '%s' on your PATH.", name,
		)
	}
	return filepath.Clean(path), nil
}

// run executes an external tool in dir, inheriting the pipeline's stdout
// and stderr so the tool's own progress output stays visible.
func run(ctx context.Context, exe, dir string, args ...string) error {
	slog.Info("running external tool", "exe", exe, "args", args, "dir", dir)
	cmd := exec.CommandContext(ctx, exe, args...)
	cmd.Dir = dir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("The external tool %s failed: %s", exe, err.Error())
	}
	return nil
}
