package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePaths(t *testing.T) {
	base := t.TempDir()
	cfg := Default()
	cfg.Paths.BaseDir = base
	cfg.Paths.ReportFile = "/opt/reports/portfolio.docx"

	paths, err := cfg.ResolvePaths()
	require.NoError(t, err)

	assert.Equal(t, base, paths.BaseDir)
	assert.Equal(t, filepath.Join(base, "data"), paths.DataDir)
	assert.Equal(t, filepath.Join(base, "data", "exports"), paths.ExportsDir)
	assert.Equal(t, filepath.Join(base, "logs"), paths.LogsDir)
	assert.Equal(t, "/opt/reports/portfolio.docx", paths.ReportFile)
	assert.Equal(t, filepath.Join(base, "data", "investments.xlsx"), paths.DatasetFile)
}

func TestResolvePathsDefaultsToWorkingDir(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)

	paths, err := Default().ResolvePaths()
	require.NoError(t, err)
	assert.Equal(t, wd, paths.BaseDir)
	assert.True(t, filepath.IsAbs(paths.DataDir))
}

func TestResolvePathsNonFileSource(t *testing.T) {
	cfg := Default()
	cfg.Dataset.Source = "sheets"

	paths, err := cfg.ResolvePaths()
	require.NoError(t, err)
	assert.Empty(t, paths.DatasetFile)
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := Default()
	cfg.Paths.BaseDir = base

	paths, err := cfg.ResolvePaths()
	require.NoError(t, err)
	require.NoError(t, paths.EnsureDirectories())

	for _, dir := range []string{paths.DataDir, paths.ExportsDir, paths.LogsDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "report.docx")
	require.NoError(t, os.WriteFile(file, []byte("doc"), 0644))

	assert.True(t, FileExists(file))
	assert.False(t, FileExists(dir))
	assert.False(t, FileExists(filepath.Join(dir, "missing")))
}
