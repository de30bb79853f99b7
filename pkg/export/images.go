package export

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sync"
)

// ImageStore persists downloaded post images under a single directory and
// answers duplicate checks so re-runs skip images already on disk
type ImageStore struct {
	dir   string
	saved map[string]bool
	mu    sync.RWMutex
}

// NewImageStore creates the directory if needed and indexes existing files
func NewImageStore(dir string) (*ImageStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create images directory: %w", err)
	}

	store := &ImageStore{
		dir:   dir,
		saved: make(map[string]bool),
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read images directory: %w", err)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			store.saved[entry.Name()] = true
		}
	}

	return store, nil
}

// Has reports whether an image with the given filename is already stored
func (s *ImageStore) Has(filename string) bool {
	s.mu.RLock()
	if s.saved[filename] {
		s.mu.RUnlock()
		return true
	}
	s.mu.RUnlock()

	if _, err := os.Stat(filepath.Join(s.dir, filename)); err == nil {
		s.mu.Lock()
		s.saved[filename] = true
		s.mu.Unlock()
		return true
	}

	return false
}

// Save writes an image under the given filename. The data lands in a
// temporary file first and is renamed into place so readers never see a
// partial image.
func (s *ImageStore) Save(r io.Reader, filename string) error {
	target := filepath.Join(s.dir, filename)
	tempFile := target + ".tmp"

	out, err := os.Create(tempFile)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	_, err = io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to save image data: %w", err)
	}
	if closeErr != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tempFile, target); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	s.mu.Lock()
	s.saved[filename] = true
	s.mu.Unlock()

	return nil
}

// Dir returns the directory images are stored in
func (s *ImageStore) Dir() string {
	return s.dir
}

// Count returns how many images the store holds
func (s *ImageStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.saved)
}

// RelPath returns the path to a stored image relative to the directory the
// markdown document lives in
func (s *ImageStore) RelPath(filename string) string {
	return filepath.ToSlash(filepath.Join(filepath.Base(s.dir), filename))
}

// imageFilename derives the stored filename for one image of one record.
// The extension comes from the URL path, defaulting to .jpg.
func imageFilename(rawURL string, recordIndex, imageIndex int) string {
	ext := ".jpg"
	if u, err := url.Parse(rawURL); err == nil {
		if e := path.Ext(u.Path); e != "" {
			ext = e
		}
	}
	return fmt.Sprintf("post_%04d_img_%d%s", recordIndex, imageIndex, ext)
}
