package main

import (
	"bytes"
	"encoding/json"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/derekschultz/lol-dfs-optimizer-sub001/pkg/types"
)

func TestSimulateCommand_DemoSlate(t *testing.T) {
	var buf bytes.Buffer
	root := newRootCommand()
	root.SetOut(&buf)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"simulate", "--demo", "-n", "3",
		"--seed", "4", "--iterations", "400", "--workers", "2"})

	require.NoError(t, root.Execute())

	out := buf.String()
	assert.Contains(t, out, "RANK")
	assert.Contains(t, out, "Lineup")
	assert.Contains(t, out, "3/3 lineups")
}

func TestEvolveCommand_DemoSlateJSON(t *testing.T) {
	var buf bytes.Buffer
	root := newRootCommand()
	root.SetOut(&buf)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"evolve", "--demo", "-n", "2", "--seed", "5",
		"--iterations", "300", "--population", "16", "--generations", "3", "--json"})

	require.NoError(t, root.Execute())

	var result types.OptimizationResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &result))
	require.Len(t, result.Lineups, 2)
	assert.Equal(t, "Lineup 1", result.Lineups[0].Name)
	assert.Equal(t, "Lineup 2", result.Lineups[1].Name)
	assert.Equal(t, 300, result.Summary.Iterations)
	require.NotNil(t, result.Evolution)
	assert.Equal(t, 3, result.Evolution.Generations)
}

func TestSimulateCommand_RequiresPoolOrDemo(t *testing.T) {
	root := newRootCommand()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"simulate", "-n", "2"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--pool or --demo")
}
