package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lwmacct/251219-go-pkg-actor/pkg/actor"
	"github.com/lwmacct/251219-go-pkg-actor/pkg/bench"
	"github.com/lwmacct/251219-go-pkg-actor/pkg/config"
)

func TestScenariosCommand(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, newCommand(&out).Run(context.Background(), []string{"actorbench", "scenarios"}))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Len(t, lines, len(bench.AllScenarios()))
	assert.Equal(t, "tell-unbounded", lines[0])
}

func TestRunJSON(t *testing.T) {
	var out bytes.Buffer
	args := []string{
		"actorbench",
		"--scenario", "tell-unbounded",
		"--scenario", "ask-bounded",
		"--actors", "4",
		"--iterations", "2000",
		"--capacity", "16",
		"--dispatcher", "shared",
		"--workers", "2",
		"--log-level", "error",
		"--output", "json",
	}
	require.NoError(t, newCommand(&out).Run(context.Background(), args))

	var results []bench.Result
	require.NoError(t, json.Unmarshal(out.Bytes(), &results))
	require.Len(t, results, 2)
	assert.Equal(t, bench.TellUnbounded, results[0].Scenario)
	assert.Equal(t, bench.AskBounded, results[1].Scenario)
	assert.Equal(t, "shared", results[0].Dispatcher)
	assert.Equal(t, 2000, results[1].Iterations)
}

func TestRunOverflowFailSmallCapacity(t *testing.T) {
	var out bytes.Buffer
	args := []string{
		"actorbench",
		"--scenario", "tell-bounded",
		"--actors", "2",
		"--iterations", "5000",
		"--senders", "4",
		"--capacity", "2",
		"--overflow", "fail",
		"--latency",
		"--log-level", "error",
		"--output", "json",
	}
	require.NoError(t, newCommand(&out).Run(context.Background(), args))

	var results []bench.Result
	require.NoError(t, json.Unmarshal(out.Bytes(), &results))
	require.Len(t, results, 1)
	assert.Less(t, results[0].Dropped, int64(5000))
	assert.Positive(t, results[0].MaxLatency)
}

func TestRunInvalidFlags(t *testing.T) {
	var out bytes.Buffer
	err := newCommand(&out).Run(context.Background(), []string{"actorbench", "--dispatcher", "fiber"})
	assert.ErrorContains(t, err, "invalid config")
}

func TestBuildOptions(t *testing.T) {
	cfg := config.Default()
	cfg.Runtime.Dispatcher = "shared"
	cfg.Runtime.Overflow = "fail"
	cfg.Bench.Scenarios = []string{"all"}
	cfg.Bench.Latency = true

	opts, scenarios, err := buildOptions(&cfg)
	require.NoError(t, err)
	assert.Equal(t, actor.DispatcherShared, opts.Dispatcher)
	assert.Equal(t, actor.OverflowFail, opts.Overflow)
	assert.Equal(t, bench.AllScenarios(), scenarios)
	assert.True(t, opts.Latency)
}
