package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sibyllinesoft/valknut/internal/config"
)

func writeFixtureTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"main.go":             "package main\n",
		"internal/util.go":    "package internal\n",
		"internal/util_test.go": "package internal\n",
		"vendor/dep/dep.go":   "package dep\n",
		"assets/logo.png":     "\x89PNG",
		"node_modules/x/y.js": "module.exports = {}\n",
	}
	for rel, content := range files {
		full := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
	return root
}

func TestDiscoverAppliesIncludeExcludeAndBinaryFilter(t *testing.T) {
	root := writeFixtureTree(t)
	cfg := config.Analysis{
		IncludePatterns: []string{"**/*"},
		ExcludePatterns: []string{"**/vendor/**", "**/node_modules/**"},
	}

	paths, err := Discover(root, cfg)
	require.NoError(t, err)

	assert.Contains(t, paths, "main.go")
	assert.Contains(t, paths, "internal/util.go")
	assert.NotContains(t, paths, "vendor/dep/dep.go")
	assert.NotContains(t, paths, "node_modules/x/y.js")
	assert.NotContains(t, paths, "assets/logo.png", "binary extensions are rejected regardless of include patterns")
}

func TestDiscoverIsSortedAndCapped(t *testing.T) {
	root := writeFixtureTree(t)
	cfg := config.Analysis{
		IncludePatterns: []string{"**/*.go"},
		MaxFiles:        1,
	}

	paths, err := Discover(root, cfg)
	require.NoError(t, err)
	assert.Len(t, paths, 1)
	assert.Equal(t, []string{"internal/util.go"}, paths, "the cap keeps the first path in sorted order")
}

func TestDiscoverMissingRootIsDiscoveryError(t *testing.T) {
	_, err := Discover(filepath.Join(t.TempDir(), "does-not-exist"), config.Analysis{})
	assert.Error(t, err)
}

func TestDiscoverRejectsNonDirectoryRoot(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "f.go")
	require.NoError(t, os.WriteFile(file, []byte("package f\n"), 0o644))

	_, err := Discover(file, config.Analysis{})
	assert.Error(t, err)
}

func TestMatchesAnyIgnoresMalformedPattern(t *testing.T) {
	assert.False(t, matchesAny([]string{"["}, "anything"), "a malformed pattern is skipped, not fatal")
	assert.True(t, matchesAny([]string{"**/*.go"}, "internal/util.go"))
}
