package powerspec

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// readTable reads a whitespace-delimited numeric text file and returns its
// columns. Blank lines and lines starting with '#' are skipped. Every row
// must have the same number of columns.
func readTable(fname string) ([][]float64, error) {
	bs, err := os.ReadFile(fname)
	if err != nil {
		return nil, err
	}

	var cols [][]float64
	lines := strings.Split(string(bs), "\n")
	row := 0
	for i := range lines {
		line := strings.TrimSpace(lines[i])
		if len(line) == 0 || line[0] == '#' {
			continue
		}

		toks := strings.Fields(line)
		if cols == nil {
			cols = make([][]float64, len(toks))
		} else if len(toks) != len(cols) {
			return nil, fmt.Errorf(
				"%w: line %d of %s has %d columns, but the first row has %d.",
				ErrBadTable, i+1, fname, len(toks), len(cols),
			)
		}

		for j := range toks {
			x, err := strconv.ParseFloat(toks[j], 64)
			if err != nil {
				return nil, fmt.Errorf(
					"%w: line %d of %s contains the non-numeric token '%s'.",
					ErrBadTable, i+1, fname, toks[j],
				)
			}
			cols[j] = append(cols[j], x)
		}
		row++
	}

	if row == 0 {
		return nil, fmt.Errorf("%w: %s contains no data rows.",
			ErrBadTable, fname)
	}
	return cols, nil
}
