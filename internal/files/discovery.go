package files

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// DatasetExtensions are the file types a dataset directory is searched for
var DatasetExtensions = []string{".xlsx", ".xlsm", ".csv"}

// ErrNoDatasetFiles is returned when a directory holds no dataset file
var ErrNoDatasetFiles = errors.New("no dataset files found")

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// Discovery provides file discovery operations
type Discovery struct {
	basePath string
}

// NewDiscovery creates a discovery rooted at basePath. Relative directories
// are resolved against it.
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

// FindDatasetFiles lists the dataset files in dir, oldest first
func (d *Discovery) FindDatasetFiles(dir string) ([]FileInfo, error) {
	return d.FindFilesByExtension(dir, DatasetExtensions...)
}

// FindFilesByExtension lists regular files in dir whose extension matches
// one of exts, case-insensitively. Office lock files ("~$name.xlsx") and
// hidden files are skipped. The result is sorted by modification time,
// oldest first.
func (d *Discovery) FindFilesByExtension(dir string, exts ...string) ([]FileInfo, error) {
	fullPath := dir
	if !filepath.IsAbs(dir) && d.basePath != "" {
		fullPath = filepath.Join(d.basePath, dir)
	}

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, "~$") || strings.HasPrefix(name, ".") {
			continue
		}
		if !hasExtension(name, exts) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Path:    filepath.Join(fullPath, name),
			Name:    name,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.SliceStable(files, func(i, j int) bool {
		if files[i].ModTime.Equal(files[j].ModTime) {
			return files[i].Name < files[j].Name
		}
		return files[i].ModTime.Before(files[j].ModTime)
	})
	return files, nil
}

// ResolveDataset returns path itself when it names a file, or the newest
// dataset file inside it when it names a directory.
func (d *Discovery) ResolveDataset(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return path, nil
	}

	found, err := d.FindDatasetFiles(path)
	if err != nil {
		return "", err
	}
	latest, ok := Latest(found)
	if !ok {
		return "", fmt.Errorf("%w in %s", ErrNoDatasetFiles, path)
	}
	return latest.Path, nil
}

// Latest returns the most recently modified file
func Latest(files []FileInfo) (FileInfo, bool) {
	if len(files) == 0 {
		return FileInfo{}, false
	}
	latest := files[0]
	for _, f := range files[1:] {
		if !f.ModTime.Before(latest.ModTime) {
			latest = f
		}
	}
	return latest, true
}

func hasExtension(name string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}
