package models

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// MaxImageSize is the exclusive upper bound for a stored image, in bytes.
const MaxImageSize = 2 * 1024 * 1024

// ImageExtensions lists the accepted image file extensions.
var ImageExtensions = []string{"jpg", "jpeg", "png", "webp"}

// ValidatePrice rejects zero and negative prices.
func ValidatePrice(price decimal.Decimal) error {
	if !price.IsPositive() {
		return &ValidationError{Field: "price", Message: "Price must be positive."}
	}
	return nil
}

// ValidateImage checks an image file name against ImageExtensions
// (case-insensitive) and its size against MaxImageSize.
func ValidateImage(name string, size int64) error {
	ext := strings.ToLower(filepath.Ext(name))
	if !slices.Contains(ImageExtensions, strings.TrimPrefix(ext, ".")) {
		if ext == "" {
			ext = "(none)"
		}
		return &ValidationError{
			Field:   "image",
			Message: fmt.Sprintf("Unsupported file type %s. Supported types: %s", ext, strings.Join(ImageExtensions, ", ")),
		}
	}
	if size >= MaxImageSize {
		return &ValidationError{Field: "image", Message: "Image size must be less than 2 MB."}
	}
	return nil
}

func requireText(field, value string, max int) error {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{Field: field, Message: "This field is required."}
	}
	return maxLength(field, value, max)
}

func maxLength(field, value string, max int) error {
	if n := utf8.RuneCountInString(value); n > max {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("Ensure this value has at most %d characters (it has %d).", max, n),
		}
	}
	return nil
}
