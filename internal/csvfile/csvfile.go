// Package csvfile reads and writes instances as a job file and a constraint
// file.
//
// Job file: header "id,p1,...,pm", one job per line with its processing time
// on 1..m processors. Constraint file: header "id0,id1", one pair per line,
// id0 precedes id1.
package csvfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"malleableSched/internal/malleable"
)

// ErrFormat is matched by every malformed file.
var ErrFormat = errors.New("csvfile: bad format")

var constraintHeader = []string{"id0", "id1"}

// ReadJobs parses a job file. The machine count is the number of time columns.
func ReadJobs(r io.Reader) (int, []malleable.Job, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err == io.EOF {
		return 0, nil, fmt.Errorf("%w: job file is empty", ErrFormat)
	}
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	if len(header) < 2 {
		return 0, nil, fmt.Errorf("%w: job header needs id and at least one time column", ErrFormat)
	}
	if header[0] != "id" {
		return 0, nil, fmt.Errorf("%w: first job column is %q, want \"id\"", ErrFormat, header[0])
	}
	machines := len(header) - 1

	var jobs []malleable.Job
	for row := 2; ; row++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, nil, fmt.Errorf("%w: %v", ErrFormat, err)
		}
		values, err := atoiAll(record, row)
		if err != nil {
			return 0, nil, err
		}
		jobs = append(jobs, malleable.Job{ID: values[0], Times: values[1:]})
	}
	return machines, jobs, nil
}

// ReadConstraints parses a constraint file.
func ReadConstraints(r io.Reader) ([]malleable.Constraint, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = 2
	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	if header[0] != constraintHeader[0] || header[1] != constraintHeader[1] {
		return nil, fmt.Errorf("%w: constraint header is %q, want \"id0,id1\"", ErrFormat, header)
	}

	var constraints []malleable.Constraint
	for row := 2; ; row++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFormat, err)
		}
		values, err := atoiAll(record, row)
		if err != nil {
			return nil, err
		}
		constraints = append(constraints, malleable.Constraint{Before: values[0], After: values[1]})
	}
	return constraints, nil
}

func atoiAll(record []string, row int) ([]int, error) {
	values := make([]int, len(record))
	for col, cell := range record {
		v, err := strconv.Atoi(cell)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d column %d: %q is not an integer", ErrFormat, row, col+1, cell)
		}
		values[col] = v
	}
	return values, nil
}

// ReadInstance loads and validates an instance. width is the declared
// antichain bound, 0 when unknown.
func ReadInstance(jobPath, constraintPath string, width int) (*malleable.Instance, error) {
	jf, err := os.Open(jobPath)
	if err != nil {
		return nil, err
	}
	defer jf.Close()
	machines, jobs, err := ReadJobs(jf)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", jobPath, err)
	}

	cf, err := os.Open(constraintPath)
	if err != nil {
		return nil, err
	}
	defer cf.Close()
	constraints, err := ReadConstraints(cf)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", constraintPath, err)
	}

	return malleable.NewInstance(machines, jobs, constraints, width)
}

func WriteJobs(w io.Writer, inst *malleable.Instance) error {
	cw := csv.NewWriter(w)
	header := []string{"id"}
	for k := 1; k <= inst.Machines; k++ {
		header = append(header, "p"+strconv.Itoa(k))
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, job := range inst.Jobs {
		row := []string{strconv.Itoa(job.ID)}
		for _, p := range job.Times {
			row = append(row, strconv.Itoa(p))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteConstraints(w io.Writer, inst *malleable.Instance) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(constraintHeader); err != nil {
		return err
	}
	for _, c := range inst.Constraints {
		if err := cw.Write([]string{strconv.Itoa(c.Before), strconv.Itoa(c.After)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteInstance writes both files, creating parent directories.
func WriteInstance(jobPath, constraintPath string, inst *malleable.Instance) error {
	if err := writeFile(jobPath, func(w io.Writer) error { return WriteJobs(w, inst) }); err != nil {
		return err
	}
	return writeFile(constraintPath, func(w io.Writer) error { return WriteConstraints(w, inst) })
}

func writeFile(path string, write func(io.Writer) error) error {
	if d := filepath.Dir(path); d != "." {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteResult emits the four field summary "tag,jobs,machines,makespan".
func WriteResult(w io.Writer, tag string, jobs, machines, makespan int) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{tag, strconv.Itoa(jobs), strconv.Itoa(machines), strconv.Itoa(makespan)}); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}
