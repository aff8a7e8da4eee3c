package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
)

// GCSStorage keeps media objects in a Google Cloud Storage bucket.
type GCSStorage struct {
	cl         *storage.Client
	bucketName string
	timeout    time.Duration
}

func NewGCSStorage(ctx context.Context, bucketName string) (*GCSStorage, error) {
	if bucketName == "" {
		return nil, errors.New("gcs bucket name is required")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("storage.NewClient: %w", err)
	}
	return &GCSStorage{cl: client, bucketName: bucketName, timeout: 50 * time.Second}, nil
}

func (s *GCSStorage) Save(ctx context.Context, dir, filename string, r io.Reader) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	ref := objectName(dir, filename)
	wc := s.cl.Bucket(s.bucketName).Object(ref).NewWriter(ctx)
	if _, err := io.Copy(wc, r); err != nil {
		wc.Close()
		return "", fmt.Errorf("io.Copy: %w", err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("Writer.Close: %w", err)
	}
	return ref, nil
}

func (s *GCSStorage) Delete(ctx context.Context, ref string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.cl.Bucket(s.bucketName).Object(ref).Delete(ctx); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *GCSStorage) URL(ref string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucketName, ref)
}

func (s *GCSStorage) Close() error {
	return s.cl.Close()
}
