// Package media stores uploaded images and avatars.
package media

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a stored object does not exist.
var ErrNotFound = errors.New("media object not found")

// Storage saves blobs under a directory prefix and returns a reference
// (a slash separated relative path) to keep in the database.
type Storage interface {
	Save(ctx context.Context, dir, filename string, r io.Reader) (string, error)
	Delete(ctx context.Context, ref string) error
	URL(ref string) string
}

// objectName builds a unique reference that keeps the original extension.
func objectName(dir, filename string) string {
	ext := strings.ToLower(path.Ext(path.Base(strings.ReplaceAll(filename, "\\", "/"))))
	return path.Join(dir, uuid.NewString()+ext)
}

func joinURL(base, ref string) string {
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(ref, "/")
}
