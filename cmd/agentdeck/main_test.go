package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentdeck/internal/scenario"
	"agentdeck/pkg/tokens"
)

func replayOutput(t *testing.T, sc *scenario.Scenario, closed bool) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, replay(&buf, sc, closed, false))
	return buf.String()
}

// finalView returns the lines printed after the stream closed.
func finalView(out string) []string {
	_, after, found := strings.Cut(out, "-- stream closed\n")
	if !found {
		return nil
	}
	return strings.Split(strings.TrimRight(after, "\n"), "\n")
}

func TestReplay_DefaultScenario(t *testing.T) {
	out := replayOutput(t, scenario.Default(), false)

	assert.True(t, strings.HasPrefix(out, "scenario default: 15 steps\n"))
	assert.Contains(t, out, "-- 1. coordinator running \"planning\"\n[>] Coordinator: planning\n")
	assert.Contains(t, out, "-- 2. coordinator completed \"plan ready\"\n[x] Coordinator: plan ready\n")

	assert.Equal(t, []string{
		"[x] Coordinator: plan ready",
		"[x] Prompt Rewriter",
		"[x] Executor: 2 steps done",
		"[x] Quality Checker: pass",
		"[x] Summarizer",
		"[x] Responder",
	}, finalView(out))
}

func TestReplay_StaleRunningNotShown(t *testing.T) {
	sc := &scenario.Scenario{
		Name: "stale",
		Steps: []scenario.Step{
			{Agent: "executor", Status: "completed", Message: "done"},
			{Agent: "executor", Status: "running", Message: "late"},
		},
	}
	out := replayOutput(t, sc, false)

	assert.Contains(t, out, "-- 2. executor running \"late\"\n[x] Executor: done\n")
	assert.NotContains(t, out, "[>]")
}

func TestReplay_ClosedStreamHasNoCurrent(t *testing.T) {
	sc := &scenario.Scenario{
		Name: "closed",
		Steps: []scenario.Step{
			{Agent: "coordinator", Status: "running"},
			{Agent: "coordinator", Status: "completed"},
		},
	}
	out := replayOutput(t, sc, true)

	assert.Contains(t, out, "-- 1. coordinator running\n(no activity)\n")
	assert.NotContains(t, out, "[>]")
	assert.Equal(t, []string{"[x] Coordinator"}, finalView(out))
}

func TestReplay_EmptyScenario(t *testing.T) {
	out := replayOutput(t, &scenario.Scenario{Name: "empty"}, false)
	assert.Equal(t, "scenario empty: 0 steps\n\n-- stream closed\n(no activity)\n", out)
}

func TestReplay_InvalidScenario(t *testing.T) {
	sc := &scenario.Scenario{
		Name:  "bad",
		Steps: []scenario.Step{{Agent: "janitor", Status: "running"}},
	}
	var buf bytes.Buffer
	err := replay(&buf, sc, false, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step 1")
	assert.Empty(t, buf.String())
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"--data-dir", t.TempDir(), "version"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	assert.True(t, strings.HasPrefix(buf.String(), "agentdeck "))
	assert.Contains(t, buf.String(), "Go version: ")
}

func TestSubcommandsRegistered(t *testing.T) {
	for _, name := range []string{"tui", "ssh-server", "ssh-keys", "demo-server", "replay", "version"} {
		cmd, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}

	keys, _, err := rootCmd.Find([]string{"ssh-keys", "add"})
	require.NoError(t, err)
	assert.Equal(t, "add", keys.Name())
}

func TestDemoServerRequiresToken(t *testing.T) {
	t.Setenv(demoTokenEnv, "")
	demoToken = ""
	demoGenerateToken = false
	err := demoServerCmd.RunE(demoServerCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no token")
}

func TestDemoServerGenerateToken(t *testing.T) {
	var buf bytes.Buffer
	demoServerCmd.SetOut(&buf)
	demoGenerateToken = true
	t.Cleanup(func() {
		demoServerCmd.SetOut(nil)
		demoGenerateToken = false
	})

	require.NoError(t, demoServerCmd.RunE(demoServerCmd, nil))
	assert.True(t, tokens.Valid(strings.TrimSpace(buf.String())))
}
