package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestGenerateSolveWidth(t *testing.T) {
	dir := t.TempDir()
	jobs := filepath.Join(dir, "jobs.csv")
	cons := filepath.Join(dir, "constraints.csv")

	run(t, "generate", "--log-level", "error", "-n", "6", "-m", "2", "--omega", "2",
		"--max-chain", "6", "--seed", "3", "--jobs-out", jobs, "--constraints-out", cons)

	line := run(t, "solve", "dp", "--log-level", "error", "-j", jobs, "-c", cons)
	require.True(t, strings.HasPrefix(line, "dp,6,2,"), line)

	width := run(t, "width", "--log-level", "error", "-j", jobs, "-c", cons)
	require.Equal(t, "2\n", width)
}

func TestSolveRender(t *testing.T) {
	dir := t.TempDir()
	jobs := filepath.Join(dir, "jobs.csv")
	cons := filepath.Join(dir, "constraints.csv")
	chart := filepath.Join(dir, "charts", "dp.svg")

	run(t, "generate", "--log-level", "error", "-n", "4", "-m", "2", "--omega", "1",
		"--max-chain", "4", "--jobs-out", jobs, "--constraints-out", cons)
	run(t, "solve", "dp", "--log-level", "error", "-j", jobs, "-c", cons, "--render", "-o", chart)
	require.FileExists(t, chart)
}

func TestUnknownEngine(t *testing.T) {
	rootCmd.SetArgs([]string{"solve", "ga", "-j", "x.csv", "-c", "y.csv"})
	require.Error(t, rootCmd.Execute())
}
