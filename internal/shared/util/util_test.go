package util

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePatternPath(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "Empty", input: "", expected: ""},
		{name: "Dot", input: ".", expected: ""},
		{name: "Trim", input: "  ./src/main  ", expected: "src/main"},
		{name: "Relative", input: "src/../java", expected: "java"},
		{name: "Backslashes", input: `src\main\java`, expected: "src/main/java"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, NormalizePatternPath(tc.input))
		})
	}
}

func TestHasPathPrefix(t *testing.T) {
	t.Parallel()

	assert.True(t, HasPathPrefix("src/main/Person.java", "src/main"))
	assert.True(t, HasPathPrefix("./src/main", "src/main"))
	assert.False(t, HasPathPrefix("src/mainline/X.java", "src/main"))
	assert.False(t, HasPathPrefix("src", "src/main"))
	assert.True(t, HasPathPrefix("", "."))

	assert.True(t, WithinAny("model/person.go", []string{"src", "model"}))
	assert.False(t, WithinAny("docs/readme.md", []string{"src", "model"}))
	assert.False(t, WithinAny("x", nil))
	assert.True(t, WithinAny("model/person.go", []string{"."}))
}

func TestSortedKeys(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"a", "b", "c"}, SortedStringKeys(map[string]int{"c": 1, "a": 2, "b": 3}))
	assert.Equal(t, []string{"a", "b"}, UniqueSorted([]string{"b", "", "a", "b"}))
	assert.Empty(t, UniqueSorted(nil))
}

func TestWriteFileWithDirs(t *testing.T) {
	t.Parallel()

	target := filepath.Join(t.TempDir(), "reports", "nested", "types.tsv")
	require.NoError(t, WriteFileWithDirs(target, []byte("ok"), 0o644))
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(data))
}

func TestLimiter(t *testing.T) {
	l := NewLimiter(10, 2)
	assert.True(t, l.Allow(1))
	assert.True(t, l.Allow(1), "burst")
	assert.False(t, l.Allow(1), "burst exhausted")
	assert.Greater(t, l.Delay(), time.Duration(0))

	time.Sleep(150 * time.Millisecond)
	assert.True(t, l.Allow(1), "refilled")
}

func TestLimiterUnlimited(t *testing.T) {
	l := NewLimiter(0, 0)
	for i := 0; i < 100; i++ {
		require.True(t, l.Allow(1))
	}
	assert.Zero(t, l.Delay())

	var none *Limiter
	assert.True(t, none.Allow(1))
	assert.NoError(t, none.Wait(context.Background(), 1))
}

func TestLimiterWait(t *testing.T) {
	l := NewLimiter(100, 1)
	l.Allow(1)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	require.NoError(t, l.Wait(ctx, 1))
	assert.GreaterOrEqual(t, time.Since(start), 5*time.Millisecond)
}
