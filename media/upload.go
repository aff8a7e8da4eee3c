package media

import (
	"bytes"
	"errors"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"mime/multipart"

	_ "golang.org/x/image/webp"
)

// ErrNotImage is returned when uploaded bytes do not decode as an image.
var ErrNotImage = errors.New("file is not a supported image")

// Upload is a client file held in memory.
type Upload struct {
	Filename string
	Data     []byte
}

func (u *Upload) Size() int64 {
	return int64(len(u.Data))
}

func (u *Upload) Reader() io.Reader {
	return bytes.NewReader(u.Data)
}

// ReadUpload reads at most limit bytes of a multipart file. A file longer
// than limit is truncated, so callers should pass one byte more than the
// largest size they accept.
func ReadUpload(fh *multipart.FileHeader, limit int64) (*Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, limit))
	if err != nil {
		return nil, err
	}
	return &Upload{Filename: fh.Filename, Data: data}, nil
}

// Sniff decodes the image header and returns the format name
// ("jpeg", "png" or "webp").
func Sniff(r io.Reader) (string, error) {
	_, format, err := image.DecodeConfig(r)
	if err != nil {
		return "", ErrNotImage
	}
	return format, nil
}
