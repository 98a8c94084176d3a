package csvfile_test

import (
	"bytes"
	"math/rand"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"malleableSched/internal/csvfile"
	"malleableSched/internal/generate"
	"malleableSched/internal/malleable"
)

func TestReadJobs(t *testing.T) {
	machines, jobs, err := csvfile.ReadJobs(strings.NewReader("id,p1,p2\n3,10,6\n 4, 8, 8\n"))
	require.NoError(t, err)
	require.Equal(t, 2, machines)
	require.Equal(t, []malleable.Job{{ID: 3, Times: []int{10, 6}}, {ID: 4, Times: []int{8, 8}}}, jobs)
}

func TestReadJobsRejectsMalformed(t *testing.T) {
	for name, in := range map[string]string{
		"empty":       "",
		"no times":    "id\n1\n",
		"bad header":  "job,p1\n1,2\n",
		"not integer": "id,p1\n1,x\n",
		"short row":   "id,p1,p2\n1,2\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, _, err := csvfile.ReadJobs(strings.NewReader(in))
			require.ErrorIs(t, err, csvfile.ErrFormat)
		})
	}
}

func TestReadConstraints(t *testing.T) {
	constraints, err := csvfile.ReadConstraints(strings.NewReader("id0,id1\n3,4\n"))
	require.NoError(t, err)
	require.Equal(t, []malleable.Constraint{{Before: 3, After: 4}}, constraints)

	constraints, err = csvfile.ReadConstraints(strings.NewReader(""))
	require.NoError(t, err)
	require.Empty(t, constraints)

	_, err = csvfile.ReadConstraints(strings.NewReader("a,b\n1,2\n"))
	require.ErrorIs(t, err, csvfile.ErrFormat)
	_, err = csvfile.ReadConstraints(strings.NewReader("id0,id1\n1,2,3\n"))
	require.ErrorIs(t, err, csvfile.ErrFormat)
}

func TestInstanceFilesRoundTrip(t *testing.T) {
	inst, err := generate.Instance(generate.DefaultConfig(), rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	dir := t.TempDir()
	jobPath := filepath.Join(dir, "nested", "jobs.csv")
	constraintPath := filepath.Join(dir, "nested", "constraints.csv")
	require.NoError(t, csvfile.WriteInstance(jobPath, constraintPath, inst))

	back, err := csvfile.ReadInstance(jobPath, constraintPath, inst.Width)
	require.NoError(t, err)
	require.Equal(t, inst.Jobs, back.Jobs)
	require.Equal(t, inst.Constraints, back.Constraints)
	require.Equal(t, inst.Width, back.Width)
}

func TestReadInstanceValidates(t *testing.T) {
	dir := t.TempDir()
	jobPath := filepath.Join(dir, "jobs.csv")
	constraintPath := filepath.Join(dir, "constraints.csv")
	inst := &malleable.Instance{
		Machines:    1,
		Jobs:        []malleable.Job{{ID: 1, Times: []int{1}}, {ID: 2, Times: []int{1}}},
		Constraints: []malleable.Constraint{{Before: 1, After: 2}, {Before: 2, After: 1}},
	}
	require.NoError(t, csvfile.WriteInstance(jobPath, constraintPath, inst))

	_, err := csvfile.ReadInstance(jobPath, constraintPath, 0)
	require.ErrorIs(t, err, malleable.ErrCyclicPrecedence)
}

func TestWriteResult(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, csvfile.WriteResult(&buf, "dp", 20, 4, 131))
	require.Equal(t, "dp,20,4,131\n", buf.String())
}
