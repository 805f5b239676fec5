package files

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, dir, name string, modTime time.Time) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	require.NoError(t, os.Chtimes(path, modTime, modTime))
	return path
}

func TestDiscovery_FindDatasetFiles(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	touch(t, dir, "march.xlsx", base.Add(2*time.Hour))
	touch(t, dir, "january.CSV", base)
	touch(t, dir, "~$march.xlsx", base.Add(3*time.Hour))
	touch(t, dir, ".hidden.csv", base.Add(4*time.Hour))
	touch(t, dir, "notes.txt", base.Add(5*time.Hour))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "archive.xlsx"), 0755))

	found, err := NewDiscovery("").FindDatasetFiles(dir)
	require.NoError(t, err)

	names := make([]string, len(found))
	for i, f := range found {
		names[i] = f.Name
	}
	assert.Equal(t, []string{"january.CSV", "march.xlsx"}, names)
	assert.Equal(t, int64(1), found[0].Size)
}

func TestDiscovery_RelativeToBase(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(base, "data"), 0755))
	touch(t, filepath.Join(base, "data"), "investments.xlsx", time.Now())

	found, err := NewDiscovery(base).FindDatasetFiles("data")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, filepath.Join(base, "data", "investments.xlsx"), found[0].Path)

	_, err = NewDiscovery(base).FindDatasetFiles("missing")
	assert.Error(t, err)
}

func TestDiscovery_ResolveDataset(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		setup   func(t *testing.T) (path, want string)
		wantErr error
	}{
		{
			name: "file path is returned unchanged",
			setup: func(t *testing.T) (string, string) {
				p := touch(t, t.TempDir(), "investments.xlsx", base)
				return p, p
			},
		},
		{
			name: "missing path is returned unchanged",
			setup: func(t *testing.T) (string, string) {
				p := filepath.Join(t.TempDir(), "missing.xlsx")
				return p, p
			},
		},
		{
			name: "directory resolves to newest file",
			setup: func(t *testing.T) (string, string) {
				dir := t.TempDir()
				touch(t, dir, "old.xlsx", base)
				newest := touch(t, dir, "new.csv", base.Add(time.Hour))
				return dir, newest
			},
		},
		{
			name: "directory without dataset files",
			setup: func(t *testing.T) (string, string) {
				dir := t.TempDir()
				touch(t, dir, "readme.md", base)
				return dir, ""
			},
			wantErr: ErrNoDatasetFiles,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, want := tt.setup(t)
			got, err := NewDiscovery("").ResolveDataset(path)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestLatest(t *testing.T) {
	_, ok := Latest(nil)
	assert.False(t, ok)

	now := time.Now()
	latest, ok := Latest([]FileInfo{
		{Name: "a", ModTime: now.Add(-time.Hour)},
		{Name: "b", ModTime: now},
		{Name: "c", ModTime: now.Add(-2 * time.Hour)},
	})
	require.True(t, ok)
	assert.Equal(t, "b", latest.Name)
}
