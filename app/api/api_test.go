package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ncgordeev/phone-shop/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock Storage ---

type MockStorage struct {
	Saved   map[string][]byte
	SaveErr error
}

func (m *MockStorage) Save(ctx context.Context, dir, filename string, r io.Reader) (string, error) {
	if m.SaveErr != nil {
		return "", m.SaveErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	if m.Saved == nil {
		m.Saved = map[string][]byte{}
	}
	ref := fmt.Sprintf("%s/%d-%s", dir, len(m.Saved), strings.ToLower(filename))
	m.Saved[ref] = data
	return ref, nil
}

func (m *MockStorage) Delete(ctx context.Context, ref string) error {
	delete(m.Saved, ref)
	return nil
}

func (m *MockStorage) URL(ref string) string {
	return "/media/" + ref
}

// --- Helpers ---

func fileHeader(t *testing.T, filename string, data []byte) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("image", filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&body, w.Boundary()).ReadForm(8 << 20)
	require.NoError(t, err)
	return form.File["image"][0]
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 2, 2))))
	return buf.Bytes()
}

// --- Tests ---

func TestFromError(t *testing.T) {
	testCases := []struct {
		name          string
		err           error
		expectedCode  int
		expectedError string
		expectedField string
	}{
		{"validation", &models.ValidationError{Field: "price", Message: "Price must be positive."}, http.StatusBadRequest, "Price must be positive.", "price"},
		{"wrapped validation", fmt.Errorf("save: %w", &models.ValidationError{Field: "email", Message: "taken"}), http.StatusBadRequest, "taken", "email"},
		{"integrity", &models.IntegrityError{Entity: "product", Message: "category does not exist"}, http.StatusConflict, "product: category does not exist", ""},
		{"transition", &models.InvalidStatusTransition{From: models.StatusCompleted, To: models.StatusNew}, http.StatusConflict, `invalid order status transition from "completed" to "new"`, "status"},
		{"product not found", models.ErrProductNotFound, http.StatusNotFound, "Product not found", ""},
		{"category not found", models.ErrCategoryNotFound, http.StatusNotFound, "Category not found", ""},
		{"user not found", models.ErrUserNotFound, http.StatusNotFound, "User not found", ""},
		{"order not found", models.ErrOrderNotFound, http.StatusNotFound, "Order not found", ""},
		{"empty cart", models.ErrCartEmpty, http.StatusBadRequest, "Cart is empty", "cart"},
		{"unknown", errors.New("db down"), http.StatusInternalServerError, "fallback message", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()

			FromError(rec, tc.err, "fallback message")

			assert.Equal(t, tc.expectedCode, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			var resp ErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, tc.expectedError, resp.Error)
			assert.Equal(t, tc.expectedField, resp.Field)
		})
	}
}

func TestPathID(t *testing.T) {
	testCases := []struct {
		value string
		id    uint
		ok    bool
	}{
		{"7", 7, true},
		{"0", 0, false},
		{"-1", 0, false},
		{"abc", 0, false},
		{"", 0, false},
	}
	for _, tc := range testCases {
		t.Run(tc.value, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.SetPathValue("id", tc.value)

			id, ok := PathID(req, "id")

			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.id, id)
		})
	}
}

func TestSaveImage(t *testing.T) {
	ctx := context.Background()

	t.Run("Stores a valid image", func(t *testing.T) {
		store := &MockStorage{}
		data := pngBytes(t)

		ref, size, err := SaveImage(ctx, store, "products", "image", fileHeader(t, "Photo.PNG", data))

		require.NoError(t, err)
		assert.Equal(t, int64(len(data)), size)
		assert.Equal(t, data, store.Saved[ref])
	})

	t.Run("Rejects unsupported extension before storing", func(t *testing.T) {
		store := &MockStorage{}

		_, _, err := SaveImage(ctx, store, "users", "avatar", fileHeader(t, "photo.exe", pngBytes(t)))

		var ve *models.ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Equal(t, "avatar", ve.Field)
		assert.Contains(t, ve.Message, "jpg, jpeg, png, webp")
		assert.Empty(t, store.Saved)
	})

	t.Run("Rejects files of 2 MiB", func(t *testing.T) {
		store := &MockStorage{}
		data := make([]byte, models.MaxImageSize)

		_, _, err := SaveImage(ctx, store, "products", "image", fileHeader(t, "big.jpg", data))

		var ve *models.ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Equal(t, "Image size must be less than 2 MB.", ve.Message)
		assert.Empty(t, store.Saved)
	})

	t.Run("Rejects bytes that are not an image", func(t *testing.T) {
		store := &MockStorage{}

		_, _, err := SaveImage(ctx, store, "products", "image", fileHeader(t, "fake.png", []byte("not really a png")))

		var ve *models.ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Equal(t, "image", ve.Field)
		assert.Empty(t, store.Saved)
	})

	t.Run("Storage failure", func(t *testing.T) {
		store := &MockStorage{SaveErr: errors.New("disk full")}

		_, _, err := SaveImage(ctx, store, "products", "image", fileHeader(t, "ok.png", pngBytes(t)))

		assert.EqualError(t, err, "disk full")
	})
}
