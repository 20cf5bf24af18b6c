package sim

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"

	"icprep/version"
)

// Record is the reproducibility metadata saved next to a run's output. It
// holds everything needed to regenerate the run byte for byte.
type Record struct {
	Version string  `json:"version"`
	Config  *Config `json:"config"`

	CAMBOutput  string `json:"camb_output"`
	GenICOutput string `json:"genic_output"`
}

// WriteRecord saves the run's metadata into the output directory.
func (ics *ICs) WriteRecord(cambOut, genicOut string) error {
	rec := &Record{
		Version: version.SourceVersion,
		Config:  ics.cfg,

		CAMBOutput:  cambOut,
		GenICOutput: genicOut,
	}
	bs, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(
		filepath.Join(ics.cfg.OutDir, recordFname), bs, 0644,
	)
}

// LoadRecord reads the metadata of a previously prepared run.
func LoadRecord(outdir string) (*Record, error) {
	bs, err := os.ReadFile(filepath.Join(outdir, recordFname))
	if err != nil {
		return nil, err
	}
	rec := &Record{}
	if err := json.Unmarshal(bs, rec); err != nil {
		return nil, err
	}
	if later, err := version.Later(rec.Version, version.SourceVersion); err == nil && later {
		slog.Warn("run record was written by a newer icprep",
			"record", rec.Version, "source", version.SourceVersion)
	}
	return rec, nil
}
