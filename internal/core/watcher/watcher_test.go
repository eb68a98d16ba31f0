package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"fluentgen/internal/core/config"
	"fluentgen/internal/shared/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWatcher(t *testing.T, opts Options) (*Watcher, chan []string) {
	t.Helper()
	changed := make(chan []string, 16)
	w, err := NewWatcher(opts, func(paths []string) { changed <- paths })
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })
	return w, changed
}

func waitFor(t *testing.T, changed <-chan []string, want string) {
	t.Helper()
	timeout := time.After(3 * time.Second)
	for {
		select {
		case paths := <-changed:
			for _, p := range paths {
				if p == want {
					return
				}
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s", want)
		}
	}
}

func TestNewWatcherRejectsNilCallback(t *testing.T) {
	w, err := NewWatcher(Options{}, nil)
	assert.ErrorIs(t, err, os.ErrInvalid)
	assert.Nil(t, w)
}

func TestNewWatcherRejectsBadGlob(t *testing.T) {
	_, err := NewWatcher(Options{Exclude: config.Exclude{Files: []string{"[oops"}}}, func([]string) {})
	assert.Error(t, err)
}

func TestWatcher(t *testing.T) {
	dir := t.TempDir()
	w, changed := newTestWatcher(t, Options{
		Debounce:   50 * time.Millisecond,
		Exclude:    config.Exclude{Dirs: []string{"build"}, Files: []string{"*.tmp.java"}},
		Extensions: []string{".java"},
	})
	require.NoError(t, w.Watch([]string{dir}))

	source := filepath.Join(dir, "Person.java")
	require.NoError(t, os.WriteFile(source, []byte("class Person {}"), 0o644))
	waitFor(t, changed, source)

	t.Run("new directories are watched", func(t *testing.T) {
		sub := filepath.Join(dir, "zoo")
		require.NoError(t, os.MkdirAll(sub, 0o755))
		nested := filepath.Join(sub, "Animal.java")
		require.NoError(t, os.WriteFile(nested, []byte("class Animal {}"), 0o644))
		waitFor(t, changed, nested)
	})

	t.Run("rename triggers change", func(t *testing.T) {
		oldPath := filepath.Join(dir, "Old.java")
		newPath := filepath.Join(dir, "New.java")
		require.NoError(t, os.WriteFile(oldPath, []byte("class Old {}"), 0o644))
		require.NoError(t, os.Rename(oldPath, newPath))
		waitFor(t, changed, newPath)
	})
}

func TestShouldExcludeFile(t *testing.T) {
	w, _ := newTestWatcher(t, Options{
		Exclude:    config.Exclude{Files: []string{"*_gen.go"}},
		Extensions: []string{".go", ".JAVA"},
	})
	assert.False(t, w.shouldExcludeFile("src/Person.java"))
	assert.False(t, w.shouldExcludeFile("model/person.go"))
	assert.True(t, w.shouldExcludeFile("model/person_gen.go"))
	assert.True(t, w.shouldExcludeFile("README.md"))

	all, _ := newTestWatcher(t, Options{})
	assert.False(t, all.shouldExcludeFile("anything.txt"))
}

func TestRateLimitedFlushKeepsPending(t *testing.T) {
	w, changed := newTestWatcher(t, Options{Limiter: util.NewLimiter(5, 1)})

	w.scheduleChange("a.java", time.Millisecond)
	assert.Equal(t, []string{"a.java"}, <-changed)

	// the second batch waits for a token instead of being dropped
	w.scheduleChange("b.java", time.Millisecond)
	w.scheduleChange("c.java", time.Millisecond)
	select {
	case paths := <-changed:
		assert.Equal(t, []string{"b.java", "c.java"}, paths)
	case <-time.After(2 * time.Second):
		t.Fatal("rate-limited batch was never flushed")
	}
}
