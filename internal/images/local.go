// Package images caches card images on the local filesystem.
package images

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

var extensions = []string{".jpg", ".png"}

// LocalStorage keeps one file per card code under dir.
type LocalStorage struct {
	dir string
}

// NewLocalStorage creates dir when it does not exist yet.
func NewLocalStorage(dir string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create image dir %s: %w", dir, err)
	}
	return &LocalStorage{dir: dir}, nil
}

// sanitize keeps codes from escaping the image directory.
func sanitize(code string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, code)
}

func (s *LocalStorage) ImagePath(code string) (string, bool) {
	base := filepath.Join(s.dir, sanitize(code))
	for _, ext := range extensions {
		if _, err := os.Stat(base + ext); err == nil {
			return base + ext, true
		}
	}
	return "", false
}

func (s *LocalStorage) ImageExists(code string) bool {
	_, ok := s.ImagePath(code)
	return ok
}

// StoreImage writes data as <code>.png or <code>.jpg depending on its content.
func (s *LocalStorage) StoreImage(code string, data []byte) (string, error) {
	if code == "" || len(data) == 0 {
		return "", fmt.Errorf("store image: empty code or data")
	}
	ext := ".jpg"
	if http.DetectContentType(data) == "image/png" {
		ext = ".png"
	}
	path := filepath.Join(s.dir, sanitize(code)+ext)

	tmp, err := os.CreateTemp(s.dir, ".img-*")
	if err != nil {
		return "", fmt.Errorf("store image %s: %w", code, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("store image %s: %w", code, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("store image %s: %w", code, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("store image %s: %w", code, err)
	}
	return path, nil
}
