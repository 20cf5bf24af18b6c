/*package logging controls the verbosity of the icprep pipeline and provides
helpers for reporting resource usage.*/
package logging

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
)

type Flag int

const (
	Nil Flag = iota
	Performance
	Debug
)

// This is handled this way so that the run configuration doesn't need to be
// passed to literally every function in the project.
var (
	Mode Flag = Nil
)

// Setup installs the default slog handler for the pipeline. Debug mode
// lowers the level and records the source position of each message.
func Setup(mode Flag) {
	Mode = mode

	level := slog.LevelInfo
	if mode == Debug {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:     level,
		AddSource: mode == Debug,
	})
	slog.SetDefault(slog.New(h))
}

// MemString returns a string containing various statistics on the current
// memory usage of icprep.
func MemString() string {
	ms := runtime.MemStats{}
	runtime.ReadMemStats(&ms)
	return fmt.Sprintf(
		"Alloc - %d MB; Sys - %d MB Integrated - %d MB",
		ms.Alloc>>20, ms.Sys>>20, ms.TotalAlloc>>20,
	)
}
