package users

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ncgordeev/phone-shop/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock Repo ---

type MockUserRepo struct {
	Users      []models.User
	Profiles   []models.UserProfile
	CreateErr  error
	ListErr    error
	LastSaved  *models.User
	LastFilter models.UserFilters

	savedProfile      *models.UserProfile
	lastProfileFilter models.ProfileFilters
}

func (m *MockUserRepo) Register(ctx context.Context, u *models.User, p *models.UserProfile) error {
	m.LastSaved = u
	if m.CreateErr != nil {
		return m.CreateErr
	}
	u.ID = 11
	p.UserID = u.ID
	m.savedProfile = p
	return nil
}

func (m *MockUserRepo) ListUsers(ctx context.Context, filters models.UserFilters) ([]models.User, error) {
	m.LastFilter = filters
	return m.Users, m.ListErr
}

func (m *MockUserRepo) ListProfiles(ctx context.Context, filters models.ProfileFilters) ([]models.UserProfile, error) {
	m.lastProfileFilter = filters
	return m.Profiles, m.ListErr
}

// --- Mock Storage ---

type MockStorage struct {
	Saved   []string
	Deleted []string
}

func (m *MockStorage) Save(ctx context.Context, dir, filename string, r io.Reader) (string, error) {
	if _, err := io.ReadAll(r); err != nil {
		return "", err
	}
	ref := dir + "/" + filename
	m.Saved = append(m.Saved, ref)
	return ref, nil
}

func (m *MockStorage) Delete(ctx context.Context, ref string) error {
	m.Deleted = append(m.Deleted, ref)
	return nil
}

func (m *MockStorage) URL(ref string) string {
	return "/media/" + ref
}

// --- Helpers ---

func registerRequest(t *testing.T, fields map[string]string, avatarName string, avatar []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if avatarName != "" {
		part, err := w.CreateFormFile("avatar", avatarName)
		require.NoError(t, err)
		_, err = part.Write(avatar)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/users", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func validFields() map[string]string {
	return map[string]string{
		"first_name": "Ivan",
		"last_name":  "Petrov",
		"phone":      "+79990001122",
		"email":      " Ivan@Example.com ",
	}
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 3, 3))))
	return buf.Bytes()
}

// --- Tests: POST /users ---

func TestHandleRegister(t *testing.T) {
	testCases := []struct {
		name               string
		request            func(t *testing.T) *http.Request
		mockRepoSetup      func() *MockUserRepo
		expectedStatusCode int
		checkResponse      func(t *testing.T, rec *httptest.ResponseRecorder)
		checkCalls         func(t *testing.T, repo *MockUserRepo, store *MockStorage)
	}{
		{
			name: "Registers with the default avatar",
			request: func(t *testing.T) *http.Request {
				return registerRequest(t, validFields(), "", nil)
			},
			mockRepoSetup:      func() *MockUserRepo { return &MockUserRepo{} },
			expectedStatusCode: http.StatusCreated,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var resp UserResponse
				err := json.NewDecoder(rec.Body).Decode(&resp)
				assert.NoError(t, err)
				assert.Equal(t, uint(11), resp.ID)
				assert.Equal(t, "ivan@example.com", resp.Email)
				assert.Equal(t, string(models.RoleUser), resp.Role)
				assert.Equal(t, "/media/"+models.DefaultAvatar, resp.Avatar)
			},
			checkCalls: func(t *testing.T, repo *MockUserRepo, store *MockStorage) {
				require.NotNil(t, repo.LastSaved)
				assert.True(t, repo.LastSaved.IsActive)
				assert.Empty(t, repo.LastSaved.PasswordHash)
				require.NotNil(t, repo.savedProfile)
				assert.Equal(t, uint(11), repo.savedProfile.UserID)
				assert.Nil(t, repo.savedProfile.DateOfBirth)
				assert.Empty(t, store.Saved)
			},
		},
		{
			name: "Registers with avatar, password and birth date",
			request: func(t *testing.T) *http.Request {
				fields := validFields()
				fields["password"] = "s3cret"
				fields["date_of_birth"] = "1990-05-17"
				return registerRequest(t, fields, "me.png", pngBytes(t))
			},
			mockRepoSetup:      func() *MockUserRepo { return &MockUserRepo{} },
			expectedStatusCode: http.StatusCreated,
			checkCalls: func(t *testing.T, repo *MockUserRepo, store *MockStorage) {
				require.NotNil(t, repo.LastSaved)
				assert.Equal(t, "users/me.png", repo.LastSaved.Avatar)
				assert.True(t, repo.LastSaved.CheckPassword("s3cret"))
				require.NotNil(t, repo.savedProfile.DateOfBirth)
				assert.Equal(t, "1990-05-17", repo.savedProfile.DateOfBirth.Format("2006-01-02"))
				assert.Equal(t, []string{"users/me.png"}, store.Saved)
			},
		},
		{
			name: "Invalid email is reported on its field",
			request: func(t *testing.T) *http.Request {
				fields := validFields()
				fields["email"] = "not-an-email"
				return registerRequest(t, fields, "", nil)
			},
			mockRepoSetup:      func() *MockUserRepo { return &MockUserRepo{} },
			expectedStatusCode: http.StatusBadRequest,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var errResp map[string]string
				err := json.NewDecoder(rec.Body).Decode(&errResp)
				assert.NoError(t, err)
				assert.Equal(t, "email", errResp["field"])
				assert.Equal(t, "Enter a valid email address.", errResp["error"])
			},
			checkCalls: func(t *testing.T, repo *MockUserRepo, store *MockStorage) {
				assert.Nil(t, repo.LastSaved)
			},
		},
		{
			name: "Unsupported avatar type",
			request: func(t *testing.T) *http.Request {
				return registerRequest(t, validFields(), "me.gif", []byte("GIF89a"))
			},
			mockRepoSetup:      func() *MockUserRepo { return &MockUserRepo{} },
			expectedStatusCode: http.StatusBadRequest,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var errResp map[string]string
				err := json.NewDecoder(rec.Body).Decode(&errResp)
				assert.NoError(t, err)
				assert.Equal(t, "avatar", errResp["field"])
			},
			checkCalls: func(t *testing.T, repo *MockUserRepo, store *MockStorage) {
				assert.Nil(t, repo.LastSaved)
				assert.Empty(t, store.Saved)
			},
		},
		{
			name: "Bad birth date",
			request: func(t *testing.T) *http.Request {
				fields := validFields()
				fields["date_of_birth"] = "17.05.1990"
				return registerRequest(t, fields, "", nil)
			},
			mockRepoSetup:      func() *MockUserRepo { return &MockUserRepo{} },
			expectedStatusCode: http.StatusBadRequest,
		},
		{
			name: "Duplicate email removes the uploaded avatar",
			request: func(t *testing.T) *http.Request {
				return registerRequest(t, validFields(), "me.png", pngBytes(t))
			},
			mockRepoSetup: func() *MockUserRepo {
				return &MockUserRepo{CreateErr: &models.ValidationError{Field: "email", Message: "User with this Email already exists."}}
			},
			expectedStatusCode: http.StatusBadRequest,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var errResp map[string]string
				err := json.NewDecoder(rec.Body).Decode(&errResp)
				assert.NoError(t, err)
				assert.Equal(t, "User with this Email already exists.", errResp["error"])
			},
			checkCalls: func(t *testing.T, repo *MockUserRepo, store *MockStorage) {
				assert.Equal(t, []string{"users/me.png"}, store.Deleted)
				assert.Nil(t, repo.savedProfile)
			},
		},
		{
			name: "Failed registration is not reported as created",
			request: func(t *testing.T) *http.Request {
				return registerRequest(t, validFields(), "me.png", pngBytes(t))
			},
			mockRepoSetup: func() *MockUserRepo {
				return &MockUserRepo{CreateErr: errors.New("insert user_profiles: disk full")}
			},
			expectedStatusCode: http.StatusInternalServerError,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var errResp map[string]string
				err := json.NewDecoder(rec.Body).Decode(&errResp)
				assert.NoError(t, err)
				assert.Equal(t, "Failed to create user", errResp["error"])
			},
			checkCalls: func(t *testing.T, repo *MockUserRepo, store *MockStorage) {
				assert.Equal(t, []string{"users/me.png"}, store.Deleted)
				assert.Nil(t, repo.savedProfile)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			mockRepo := tc.mockRepoSetup()
			store := &MockStorage{}
			handler := NewUserHandler(mockRepo, store)
			req := tc.request(t)
			rec := httptest.NewRecorder()

			// Act
			handler.HandleRegister(rec, req)

			// Assert
			assert.Equal(t, tc.expectedStatusCode, rec.Code)
			if tc.checkResponse != nil {
				tc.checkResponse(t, rec)
			}
			if tc.checkCalls != nil {
				tc.checkCalls(t, mockRepo, store)
			}
		})
	}
}

// --- Tests: GET /users, GET /profiles ---

func TestHandleList(t *testing.T) {
	t.Run("Passes filters through", func(t *testing.T) {
		mockRepo := &MockUserRepo{Users: []models.User{{ID: 1, Email: "a@b.co", Role: models.RoleAdmin, Avatar: "users/a.png"}}}
		handler := NewUserHandler(mockRepo, &MockStorage{})
		req := httptest.NewRequest("GET", "/users?email=a@b.co&last_name=Root&search=b.co", nil)
		rec := httptest.NewRecorder()

		handler.HandleList(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, models.UserFilters{Email: "a@b.co", LastName: "Root", Search: "b.co"}, mockRepo.LastFilter)
		var resp []UserResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		require.Len(t, resp, 1)
		assert.Equal(t, string(models.RoleAdmin), resp[0].Role)
		assert.Equal(t, "/media/users/a.png", resp[0].Avatar)
	})

	t.Run("Repository error", func(t *testing.T) {
		handler := NewUserHandler(&MockUserRepo{ListErr: errors.New("db down")}, &MockStorage{})
		rec := httptest.NewRecorder()

		handler.HandleList(rec, httptest.NewRequest("GET", "/users", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestHandleListProfiles(t *testing.T) {
	dob := time.Date(1990, 5, 17, 0, 0, 0, 0, time.UTC)
	mockRepo := &MockUserRepo{Profiles: []models.UserProfile{
		{ID: 1, UserID: 3, User: models.User{ID: 3, Email: "x@y.co", Role: models.RoleUser}, DateOfBirth: &dob},
		{ID: 2, UserID: 4, User: models.User{ID: 4, Email: "z@y.co"}},
	}}
	handler := NewUserHandler(mockRepo, &MockStorage{})
	req := httptest.NewRequest("GET", "/profiles?user=3&registered_after=2024-01-01&registered_before=bogus", nil)
	rec := httptest.NewRecorder()

	handler.HandleListProfiles(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, mockRepo.lastProfileFilter.UserID)
	assert.Equal(t, uint(3), *mockRepo.lastProfileFilter.UserID)
	require.NotNil(t, mockRepo.lastProfileFilter.RegisteredAfter)
	assert.Equal(t, 2024, mockRepo.lastProfileFilter.RegisteredAfter.Year())
	assert.Nil(t, mockRepo.lastProfileFilter.RegisteredBefore)

	var resp []ProfileResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp, 2)
	assert.Equal(t, "1990-05-17", *resp[0].DateOfBirth)
	assert.Equal(t, "x@y.co", resp[0].User.Email)
	assert.Equal(t, "user", resp[0].User.Role)
	assert.Nil(t, resp[1].DateOfBirth)
	assert.Empty(t, resp[1].User.Role, "a user without a role still decodes")
}
