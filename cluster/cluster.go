/*package cluster generates submission scripts for batch schedulers.

Machine differences are data, not code: a Queue value describes the
scheduler kind and resource shape of a machine, and SubmitScript renders
the directive block and mpirun line from that description.*/
package cluster

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Kind identifies a batch scheduler flavor.
type Kind int

const (
	PBS Kind = iota
	Slurm
)

// ParseKind converts a config string into a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "pbs":
		return PBS, nil
	case "slurm":
		return Slurm, nil
	}
	return 0, fmt.Errorf(
		"I don't recognize the scheduler kind '%s'. The kinds I know "+
			"about are 'pbs' and 'slurm'.", s,
	)
}

func (k Kind) String() string {
	switch k {
	case PBS:
		return "pbs"
	case Slurm:
		return "slurm"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Queue describes the scheduler and resource shape of a machine.
type Queue struct {
	Kind    Kind
	Email   string
	NProc   int     // Total MPI task count.
	PerNode int     // Tasks per node. Zero means the scheduler decides.
	Memory  int     // Memory per task in MB. Zero omits memory directives.
	Limit   float64 // Walltime limit in fractional hours.

	Partition string // Slurm partition. Ignored for PBS.
}

// timeString converts a fractional hour count into a hr:min:00 walltime.
func timeString(limit float64) string {
	hr := int(limit)
	minute := int((limit - float64(hr)) * 60)
	return fmt.Sprintf("%d:%d:00", hr, minute)
}

// SubmitScript renders a complete submission script that runs command as
// an MPI program under the job name name.
func (q *Queue) SubmitScript(name, command string) (string, error) {
	if q.NProc <= 0 {
		return "", fmt.Errorf(
			"The queue variable 'NProc' was set to %d, but it must be "+
				"positive.", q.NProc,
		)
	}
	if q.PerNode > 0 && q.NProc%q.PerNode != 0 {
		return "", fmt.Errorf(
			"The queue variable 'NProc' was set to %d, which is not a "+
				"multiple of the %d tasks per node, so I cannot request "+
				"complete nodes.", q.NProc, q.PerNode,
		)
	}

	b := &strings.Builder{}
	b.WriteString("#!/bin/bash\n")
	switch q.Kind {
	case Slurm:
		q.slurmDirectives(b, name)
		b.WriteString("export OMP_NUM_THREADS=1\n")
		fmt.Fprintf(b, "mpirun --map-by core %s\n", command)
	default:
		q.pbsDirectives(b, name)
		fmt.Fprintf(b, "mpirun -np %d %s\n", q.NProc, command)
	}
	return b.String(), nil
}

func (q *Queue) pbsDirectives(b *strings.Builder, name string) {
	b.WriteString("#PBS -j eo\n")
	b.WriteString("#PBS -m bae\n")
	if q.Email != "" {
		fmt.Fprintf(b, "#PBS -M %s\n", q.Email)
	}
	fmt.Fprintf(b, "#PBS -N %s\n", name)
	fmt.Fprintf(b, "#PBS -l walltime=%s\n", timeString(q.Limit))
	if q.PerNode > 0 {
		fmt.Fprintf(b, "#PBS -l nodes=%d:ppn=%d\n",
			q.NProc/q.PerNode, q.PerNode)
	}
	if q.Memory > 0 {
		// PBS takes a whole-job memory request in GB.
		fmt.Fprintf(b, "#PBS -l mem=%dg\n", q.Memory*q.NProc/1000)
	}
	b.WriteString("#PBS -V\n")
}

func (q *Queue) slurmDirectives(b *strings.Builder, name string) {
	if q.Partition != "" {
		fmt.Fprintf(b, "#SBATCH --partition=%s\n", q.Partition)
	}
	fmt.Fprintf(b, "#SBATCH --job-name=%s\n", name)
	fmt.Fprintf(b, "#SBATCH --time=%s\n", timeString(q.Limit))
	if q.PerNode > 0 {
		fmt.Fprintf(b, "#SBATCH --nodes=%d\n", q.NProc/q.PerNode)
		fmt.Fprintf(b, "#SBATCH --ntasks-per-node=%d\n", q.PerNode)
	} else {
		fmt.Fprintf(b, "#SBATCH --ntasks=%d\n", q.NProc)
	}
	b.WriteString("#SBATCH --cpus-per-task=1\n")
	if q.Memory > 0 {
		fmt.Fprintf(b, "#SBATCH --mem-per-cpu=%d\n", q.Memory)
	}
	b.WriteString("#SBATCH --mail-type=end\n")
	if q.Email != "" {
		fmt.Fprintf(b, "#SBATCH --mail-user=%s\n", q.Email)
	}
}

// WriteSubmit writes the submission script fname into dir. The job is named
// after the last element of dir, which is the simulation's output directory.
func (q *Queue) WriteSubmit(dir, fname, command string) error {
	name := filepath.Base(filepath.Clean(dir))
	script, err := q.SubmitScript(name, command)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, fname), []byte(script), 0755)
}
