package api

import (
	"context"
	"errors"
	"mime/multipart"

	"github.com/ncgordeev/phone-shop/media"
	"github.com/ncgordeev/phone-shop/models"
)

// SaveImage checks an uploaded image and stores it under dir. Rejections
// are ValidationErrors attributed to field.
func SaveImage(ctx context.Context, store media.Storage, dir, field string, fh *multipart.FileHeader) (string, int64, error) {
	up, err := media.ReadUpload(fh, models.MaxImageSize+1)
	if err != nil {
		return "", 0, err
	}

	if err := models.ValidateImage(up.Filename, up.Size()); err != nil {
		var ve *models.ValidationError
		if errors.As(err, &ve) {
			ve.Field = field
		}
		return "", 0, err
	}
	if _, err := media.Sniff(up.Reader()); err != nil {
		return "", 0, &models.ValidationError{
			Field:   field,
			Message: "Upload a valid image. The file you uploaded was either not an image or a corrupted image.",
		}
	}

	ref, err := store.Save(ctx, dir, up.Filename, up.Reader())
	if err != nil {
		return "", 0, err
	}
	return ref, up.Size(), nil
}
