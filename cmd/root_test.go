package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreerrors "github.com/tyniaiworkspace-dev/poe2-mcp/core/errors"
)

const testTreeJSON = `{
  "100": {"name": "Jewel Socket", "x": 0, "y": 0},
  "101": {"name": "Heart of Flame", "x": 300, "y": 400, "is_notable": true},
  "102": {"name": "Cold Blooded", "x": 600, "y": 0, "is_notable": true},
  "103": {"name": "Resolute Technique", "x": 0, "y": 900, "is_keystone": true},
  "104": {"name": "Strength", "x": -500, "y": 0, "stats": ["+10 to STRENGTH"]},
  "105": {"name": "Life", "x": 0, "y": -700, "stats": ["5% increased maximum Life"]},
  "106": {"name": "Ascendant", "x": 10, "y": 0, "is_ascendancy": true, "is_notable": true},
  "107": {"name": "Far Notable", "x": 9000, "y": 0, "is_notable": true},
  "200": {"name": "Jewel Socket", "x": 9000, "y": 500}
}`

const testWeightsJSON = `{
  "notables": [
    {"id": "a", "name": "Alpha", "spawn_weight": 100},
    {"id": "b", "name": "Bravo", "spawn_weight": 300},
    {"id": "z", "name": "Zulu", "spawn_weight": 0},
    {"id": "c", "name": "Charlie", "spawn_weight": 600}
  ],
  "keystones": [
    {"leader": "Amanamu", "keystone_name": "Sacrifice of Flesh", "id": "ks_flesh"}
  ],
  "small_passive": {"id": "small_tribute", "name": "Tribute"}
}`

// TestMain points every XDG directory at a scratch location so the
// commands never touch the real user config or seed history.
func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "poe2-cmd-test")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	for _, env := range []string{"XDG_CONFIG_HOME", "XDG_DATA_HOME", "XDG_CACHE_HOME", "XDG_STATE_HOME"} {
		os.Setenv(env, filepath.Join(dir, strings.ToLower(env)))
	}
	os.Setenv("NO_COLOR", "1")

	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

// testEnv is a project directory with datasets and a private seed history.
type testEnv struct {
	project string
	tree    string
	weights string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	env := &testEnv{
		project: dir,
		tree:    filepath.Join(dir, "tree.json"),
		weights: filepath.Join(dir, "weights.json"),
	}
	require.NoError(t, os.WriteFile(env.tree, []byte(testTreeJSON), 0o644))
	require.NoError(t, os.WriteFile(env.weights, []byte(testWeightsJSON), 0o644))

	// Absolute store path keeps each test's history separate.
	cfg := fmt.Sprintf("store:\n  name: %s\n", filepath.Join(dir, "history.db"))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".poe2"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".poe2", "config.yaml"), []byte(cfg), 0o644))
	return env
}

// run executes the root command with the env's datasets and returns stdout.
func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	full := append([]string{"--project", e.project, "--tree", e.tree, "--weights", e.weights}, args...)
	return executeCommand(t, full...)
}

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return out.String(), err
}

// resetFlags restores every flag to its default; cobra keeps flag state in
// package variables between executions.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.PersistentFlags().VisitAll(reset)
	c.Flags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func decodeJSON(t *testing.T, out string, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal([]byte(out), v), "output: %s", out)
}

func TestRootCmd_Definition(t *testing.T) {
	assert.Equal(t, "poe2", rootCmd.Use)
	assert.True(t, rootCmd.SilenceUsage)
	assert.True(t, rootCmd.SilenceErrors)

	for _, name := range []string{"project", "tree", "weights", "verbose", "log-json", "no-color"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name), name)
	}
	assert.Equal(t, "v", rootCmd.PersistentFlags().Lookup("verbose").Shorthand)

	var names []string
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"analyze", "compare", "distribution", "sockets", "radius", "find", "audit", "history", "status", "version"} {
		assert.Contains(t, names, want)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"plain", errors.New("boom"), 1},
		{"user fixable", coreerrors.NewTieredError(coreerrors.TierUserFixable, "bad seed", nil), 2},
		{"seed range", fmt.Errorf("seed 5: %w", coreerrors.ErrSeedOutOfRange), 2},
		{"transient", coreerrors.NewTieredError(coreerrors.TierTransient, "locked", nil), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func TestReportError(t *testing.T) {
	t.Run("hint", func(t *testing.T) {
		var buf bytes.Buffer
		reportError(&buf, fmt.Errorf("seed 5: %w", coreerrors.ErrSeedOutOfRange))
		out := buf.String()
		assert.Contains(t, out, "error: seed 5: seed out of range")
		assert.Contains(t, out, "hint: seeds range from 79 to 30977")
	})

	t.Run("transient", func(t *testing.T) {
		var buf bytes.Buffer
		reportError(&buf, coreerrors.NewTieredError(coreerrors.TierTransient, "database is locked", nil))
		assert.Contains(t, buf.String(), "try again")
	})

	t.Run("context", func(t *testing.T) {
		var buf bytes.Buffer
		err := coreerrors.NewTieredError(coreerrors.TierPermanent, "bad data", nil).WithContext("file", "tree.json")
		reportError(&buf, err)
		assert.Contains(t, buf.String(), "file: tree.json")
	})
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, false, false).Info("hidden")
	assert.Empty(t, buf.String())

	newLogger(&buf, true, true).Debug("shown", "k", "v")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
}

func TestVersionCmd(t *testing.T) {
	out, err := executeCommand(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "poe2 dev"), out)
}

func TestMissingDatasets(t *testing.T) {
	dir := t.TempDir()
	_, err := executeCommand(t, "--project", dir,
		"--tree", filepath.Join(dir, "missing.json"),
		"--weights", filepath.Join(dir, "missing-weights.json"),
		"radius", "100")
	require.Error(t, err)
	assert.Equal(t, 2, exitCode(err))
	assert.Contains(t, coreerrors.Hint(err), "--tree/--weights")
}
