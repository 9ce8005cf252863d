package store

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/natefinch/atomic"
)

const (
	layoutDir = "layouts"
	pageDir   = "pages"

	// DefaultExt is the file extension FileStore appends to logical names.
	DefaultExt = ".html"
)

// FileStore reads templates from a directory tree:
//
//	<root>/layouts/<name><ext>   layouts
//	<root>/pages/<name><ext>     pages and partials
type FileStore struct {
	root string
	ext  string
}

// NewFileStore returns a FileStore rooted at root. An empty ext selects DefaultExt.
func NewFileStore(root, ext string) *FileStore {
	if ext == "" {
		ext = DefaultExt
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return &FileStore{root: root, ext: ext}
}

// Root returns the directory the store reads from.
func (s *FileStore) Root() string {
	return s.root
}

func (s *FileStore) dir(kind Kind) string {
	if kind == KindLayout {
		return filepath.Join(s.root, layoutDir)
	}
	return filepath.Join(s.root, pageDir)
}

func (s *FileStore) path(kind Kind, name string) (string, bool) {
	p, ok := Normalize(name)
	if !ok {
		return "", false
	}
	return filepath.Join(s.dir(kind), p+s.ext), true
}

// Load implements Store.
func (s *FileStore) Load(kind Kind, name string) (string, error) {
	path, ok := s.path(kind, name)
	if !ok {
		return "", notFound(kind, name)
	}

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", notFound(kind, name)
		}
		return "", fmt.Errorf("error opening %s '%s': %w", kind, name, err)
	}
	defer func(file *os.File) {
		_ = file.Close()
	}(file)

	info, err := file.Stat()
	if err != nil {
		return "", fmt.Errorf("error reading %s '%s': %w", kind, name, err)
	}
	if info.IsDir() {
		return "", notFound(kind, name)
	}

	b, err := io.ReadAll(file)
	if err != nil {
		return "", fmt.Errorf("error reading %s '%s': %w", kind, name, err)
	}
	return string(b), nil
}

// Save writes a template atomically, creating intermediate directories.
func (s *FileStore) Save(kind Kind, name, text string) error {
	path, ok := s.path(kind, name)
	if !ok {
		return fmt.Errorf("invalid %s name '%s'", kind, name)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("error creating directory for %s '%s': %w", kind, name, err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader([]byte(text))); err != nil {
		return fmt.Errorf("error writing %s '%s': %w", kind, name, err)
	}
	return nil
}

// Names lists the logical names available for a kind, sorted. Pages and
// partials share a directory, so both kinds return the same names.
func (s *FileStore) Names(kind Kind) ([]string, error) {
	dir := s.dir(kind)
	names := []string{}
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir && errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			return err
		}

		// skip hidden files and directories.
		if strings.HasPrefix(d.Name(), ".") && path != dir {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), s.ext) {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		names = append(names, filepath.ToSlash(strings.TrimSuffix(rel, s.ext)))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error listing %s templates: %w", kind, err)
	}
	sort.Strings(names)
	return names, nil
}
