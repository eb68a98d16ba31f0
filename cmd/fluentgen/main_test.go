package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"fluentgen/internal/core/config"
	"fluentgen/internal/core/ports"
	"fluentgen/internal/data/catalog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pointJava = `package geo;

public class Point {
    private final int x;
    private final int y;

    public Point(int x, int y) {
        this.x = x;
        this.y = y;
    }
}
`

func writeProject(t *testing.T) (dir, cfgPath string) {
	t.Helper()
	dir = t.TempDir()
	src := filepath.Join(dir, "src", "geo")
	require.NoError(t, os.MkdirAll(src, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "Point.java"), []byte(pointJava), 0o644))

	cfgPath = filepath.Join(dir, "fluentgen.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("[sources]\njava = [\"src\"]\n"), 0o644))
	return dir, cfgPath
}

func TestRunVersion(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-version"}, &stdout, &stderr)
	assert.Equal(t, 0, code)
	assert.Equal(t, "fluentgen v"+versionString+"\n", stdout.String())
}

func TestRunRejectsUnknownFlag(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-nope"}, &stdout, &stderr)
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr.String(), "flag provided but not defined")
}

func TestRunOnce(t *testing.T) {
	dir, cfgPath := writeProject(t)
	dot := filepath.Join(dir, "out", "types.dot")
	db := filepath.Join(dir, "catalog.db")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-config", cfgPath, "-once", "-dot", dot, "-catalog", db, dir}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	out := stdout.String()
	assert.Contains(t, out, "1 selected")
	assert.Contains(t, out, "no failures")
	assert.Contains(t, out, "wrote "+dot)

	data, err := os.ReadFile(dot)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"geo.PointBuilder"`)

	store, err := catalog.Open(db)
	require.NoError(t, err)
	defer store.Close()
	runs, err := store.Runs(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestRunWatchStopsOnCancel(t *testing.T) {
	dir, cfgPath := writeProject(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var stdout, stderr syncBuffer
	done := make(chan int, 1)
	go func() {
		done <- run(ctx, []string{"-config", cfgPath, dir}, &stdout, &stderr)
	}()

	require.Eventually(t, func() bool {
		return strings.Contains(stdout.String(), "1 selected")
	}, 10*time.Second, 20*time.Millisecond)
	cancel()

	select {
	case code := <-done:
		assert.Equal(t, 0, code, stderr.String())
	case <-time.After(10 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}

func TestRunMissingExplicitConfig(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-config", filepath.Join(t.TempDir(), "missing.toml"), "-once"}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "failed to load config")
}

func TestLoadConfigFallsBackToDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := loadConfig(defaultConfigPath)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultBuilderPackage, cfg.BuilderPackage)
	assert.Equal(t, config.DefaultMaxDepth, cfg.Derivation.MaxDepth)
}

func TestApplyOptions(t *testing.T) {
	cfg := config.Default()
	opts := cliOptions{
		set:  mappingFlag{"builder_package=acme.builders", "repository.strict=true"},
		tsv:  "types.tsv",
		args: []string{"./project"},
	}
	require.NoError(t, applyOptions(&opts, cfg))
	assert.Equal(t, "acme.builders", cfg.BuilderPackage)
	assert.True(t, cfg.Repository.Strict)
	assert.Equal(t, "types.tsv", cfg.Output.TSV)
	assert.Equal(t, "./project", cfg.Sources.Root)

	t.Run("unknown key", func(t *testing.T) {
		opts := cliOptions{set: mappingFlag{"nope=1"}}
		assert.Error(t, applyOptions(&opts, config.Default()))
	})

	t.Run("conflicting outputs", func(t *testing.T) {
		opts := cliOptions{dot: "same.out", tsv: "same.out"}
		err := applyOptions(&opts, config.Default())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "output conflict")
	})
}

func TestRenderSummary(t *testing.T) {
	res := ports.RunResult{
		RunID:        "0123456789abcdef",
		Duration:     1500 * time.Millisecond,
		Handles:      3,
		Declarations: 9,
		Selected:     2,
		Derived:      2,
		Cycles:       [][]string{{"a.A", "a.B"}},
		Failures:     []ports.Failure{{Type: "a.C", Stage: "derive", Code: "UNRESOLVED_REFERENCE", Message: "missing a.D"}},
		Diff:         &catalog.Diff{Added: []string{"a.A"}, Changed: []string{"a.B"}},
		Written:      []string{"types.dot"},
	}
	out := renderSummary(res)
	assert.Contains(t, out, "fluentgen run 01234567")
	assert.Contains(t, out, "2 selected")
	assert.Contains(t, out, "a.A -> a.B -> a.A")
	assert.Contains(t, out, "[derive] a.C: missing a.D")
	assert.Contains(t, out, "+1 -0 ~1")
	assert.NotContains(t, out, "no failures")

	clean := renderSummary(ports.RunResult{Diff: &catalog.Diff{}})
	assert.Contains(t, clean, "no failures")
	assert.Contains(t, clean, "unchanged since previous run")
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, exitCode(ports.RunResult{}))
	assert.Equal(t, 3, exitCode(ports.RunResult{Failures: []ports.Failure{{Type: "x"}}}))
}
