package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage keeps media files under Root and serves them from BaseURL.
type LocalStorage struct {
	Root    string
	BaseURL string
}

func NewLocalStorage(root, baseURL string) *LocalStorage {
	return &LocalStorage{Root: root, BaseURL: baseURL}
}

func (s *LocalStorage) Save(ctx context.Context, dir, filename string, r io.Reader) (string, error) {
	ref := objectName(dir, filename)
	dest, err := s.path(ref)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", err
	}

	f, err := os.Create(dest)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(dest)
		return "", fmt.Errorf("io.Copy: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(dest)
		return "", err
	}
	return ref, nil
}

func (s *LocalStorage) Delete(ctx context.Context, ref string) error {
	p, err := s.path(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *LocalStorage) URL(ref string) string {
	return joinURL(s.BaseURL, ref)
}

// path resolves ref inside Root, refusing references that escape it.
func (s *LocalStorage) path(ref string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(ref))
	if clean == "." || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid media reference %q", ref)
	}
	return filepath.Join(s.Root, clean), nil
}
