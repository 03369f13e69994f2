package fs

import (
	"archive/zip"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/afero"
)

// Workspace wraps an Afero Fs rooted at the artifact output directory. All
// scripts and renders produced by a pipeline run land here.
type Workspace struct {
	Fs   afero.Fs
	root string
}

// NewWorkspace creates a workspace on the given filesystem, creating the root
// directory if needed.
func NewWorkspace(fs afero.Fs, root string) (*Workspace, error) {
	if root == "" {
		root = "outputs"
	}
	if err := fs.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("error creating output directory %s: %w", root, err)
	}
	return &Workspace{Fs: fs, root: root}, nil
}

// NewOsWorkspace creates a workspace backed by the real filesystem.
func NewOsWorkspace(root string) (*Workspace, error) {
	return NewWorkspace(afero.NewOsFs(), root)
}

// NewMemoryWorkspace creates an in-memory workspace, used in tests.
func NewMemoryWorkspace() *Workspace {
	w, _ := NewWorkspace(afero.NewMemMapFs(), "outputs")
	return w
}

// Root returns the workspace root directory.
func (w *Workspace) Root() string {
	return w.root
}

// Path resolves a name relative to the workspace root.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.root, name)
}

// RenderPath returns a timestamped PNG path for a new render.
func (w *Workspace) RenderPath(now time.Time) string {
	return w.Path(fmt.Sprintf("render_%s.png", now.Format("20060102_150405")))
}

// WriteFile writes content to a file under the workspace root, creating parent
// directories as needed.
func (w *Workspace) WriteFile(name, content string) (string, error) {
	path := w.Path(name)
	if err := w.Fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("error creating directory for %s: %w", path, err)
	}
	if err := afero.WriteFile(w.Fs, path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("error writing file %s: %w", path, err)
	}
	return path, nil
}

// ReadFile reads a file under the workspace root.
func (w *Workspace) ReadFile(name string) (string, error) {
	data, err := afero.ReadFile(w.Fs, w.Path(name))
	if err != nil {
		return "", fmt.Errorf("error reading file %s: %w", w.Path(name), err)
	}
	return string(data), nil
}

// Exists reports whether a file exists under the workspace root.
func (w *Workspace) Exists(name string) bool {
	ok, err := afero.Exists(w.Fs, w.Path(name))
	return err == nil && ok
}

// Remove deletes a file under the workspace root.
func (w *Workspace) Remove(name string) error {
	return w.Fs.Remove(w.Path(name))
}

// WriteBundle writes the named session artifacts into a zip file under the
// workspace root and returns its path. Entries are written in sorted order so
// the bundle layout is stable.
func (w *Workspace) WriteBundle(name string, files map[string]string) (string, error) {
	zipPath := w.Path(name)
	zipFile, err := w.Fs.Create(zipPath)
	if err != nil {
		return "", fmt.Errorf("error creating zip file: %w", err)
	}
	defer zipFile.Close()

	zipWriter := zip.NewWriter(zipFile)
	defer zipWriter.Close()

	names := make([]string, 0, len(files))
	for n := range files {
		names = append(names, n)
	}
	sort.Strings(names)

	for _, n := range names {
		f, err := zipWriter.Create(n)
		if err != nil {
			return "", fmt.Errorf("error creating zip entry %s: %w", n, err)
		}
		if _, err := f.Write([]byte(files[n])); err != nil {
			return "", fmt.Errorf("error writing zip entry %s: %w", n, err)
		}
	}

	return zipPath, nil
}
