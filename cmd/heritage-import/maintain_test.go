package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testGraph = `
waypoints:
  - {id: a, coordinates: {lat: 0, lon: 0}}
  - {id: b, coordinates: {lat: 0, lon: 1}}
  - {id: c, coordinates: {lat: 0, lon: 2}}
connections:
  - {from: a, to: b}
  - {from: b, to: c}
`

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestRouteCommand(t *testing.T) {
	p := filepath.Join(t.TempDir(), "graph.yaml")
	require.NoError(t, os.WriteFile(p, []byte(testGraph), 0o644))

	out, err := runCLI(t, "route", "--graph", p, "a", "c")
	require.NoError(t, err)
	assert.Contains(t, out, "a -> b -> c")
	assert.Contains(t, out, "distance=2.000000")

	out, err = runCLI(t, "route", "--graph", p, "a", "b", "c")
	require.NoError(t, err)
	assert.Equal(t, "0.000000,0.000000\n0.000000,1.000000\n0.000000,2.000000\n", out)

	_, err = runCLI(t, "route", "--graph", p, "a", "zz")
	assert.ErrorContains(t, err, `unknown waypoint "zz"`)
}

func TestClearRequiresYes(t *testing.T) {
	_, err := runCLI(t, "clear")
	assert.ErrorContains(t, err, "--yes")
}
