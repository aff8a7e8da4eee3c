package users

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/ncgordeev/phone-shop/app/api"
	"github.com/ncgordeev/phone-shop/media"
	"github.com/ncgordeev/phone-shop/models"
)

const (
	maxUploadMemory = 8 << 20
	dateLayout      = "2006-01-02"
)

type UserResponse struct {
	ID        uint   `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Avatar    string `json:"avatar"`
	Role      string `json:"role"`
}

type ProfileResponse struct {
	ID               uint         `json:"id"`
	User             UserResponse `json:"user"`
	DateOfBirth      *string      `json:"date_of_birth"`
	RegistrationDate time.Time    `json:"registration_date"`
}

type UserProvider interface {
	Register(ctx context.Context, u *models.User, p *models.UserProfile) error
	ListUsers(ctx context.Context, filters models.UserFilters) ([]models.User, error)
	ListProfiles(ctx context.Context, filters models.ProfileFilters) ([]models.UserProfile, error)
}

type UserHandler struct {
	repo  UserProvider
	media media.Storage
}

func NewUserHandler(r UserProvider, store media.Storage) *UserHandler {
	return &UserHandler{repo: r, media: store}
}

// HandleRegister creates a user from a multipart form with the fields
// first_name, last_name, phone, email and the optional password,
// date_of_birth (YYYY-MM-DD) and avatar file.
func (h *UserHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		api.Error(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	var dob *time.Time
	if s := r.FormValue("date_of_birth"); s != "" {
		d, err := time.Parse(dateLayout, s)
		if err != nil {
			api.JSON(w, http.StatusBadRequest, api.ErrorResponse{Error: "Enter a valid date.", Field: "date_of_birth"})
			return
		}
		dob = &d
	}

	user := &models.User{
		FirstName: r.FormValue("first_name"),
		LastName:  r.FormValue("last_name"),
		Phone:     r.FormValue("phone"),
		Email:     r.FormValue("email"),
		Avatar:    models.DefaultAvatar,
		Role:      models.RoleUser,
		IsActive:  true,
	}
	// Reject bad fields before anything is stored.
	if err := user.Validate(); err != nil {
		api.FromError(w, err, "Failed to create user")
		return
	}
	if err := user.SetPassword(r.FormValue("password")); err != nil {
		api.FromError(w, err, "Failed to create user")
		return
	}

	if f, fh, err := r.FormFile("avatar"); err == nil {
		f.Close()
		ref, _, err := api.SaveImage(r.Context(), h.media, "users", "avatar", fh)
		if err != nil {
			api.FromError(w, err, "Failed to store avatar")
			return
		}
		user.Avatar = ref
	} else if !errors.Is(err, http.ErrMissingFile) {
		api.JSON(w, http.StatusBadRequest, api.ErrorResponse{Error: "Invalid avatar upload", Field: "avatar"})
		return
	}

	if err := h.repo.Register(r.Context(), user, &models.UserProfile{DateOfBirth: dob}); err != nil {
		h.discardAvatar(r.Context(), user.Avatar)
		api.FromError(w, err, "Failed to create user")
		return
	}

	api.JSON(w, http.StatusCreated, h.toUser(user))
}

func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	users, err := h.repo.ListUsers(r.Context(), models.UserFilters{
		Email:    q.Get("email"),
		LastName: q.Get("last_name"),
		Search:   q.Get("search"),
	})
	if err != nil {
		api.FromError(w, err, "failed to fetch users")
		return
	}

	response := make([]UserResponse, len(users))
	for i := range users {
		response[i] = h.toUser(&users[i])
	}
	api.JSON(w, http.StatusOK, response)
}

func (h *UserHandler) HandleListProfiles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var filters models.ProfileFilters
	if s := q.Get("user"); s != "" {
		if id, err := strconv.ParseUint(s, 10, 64); err == nil {
			uid := uint(id)
			filters.UserID = &uid
		}
	}
	if s := q.Get("registered_after"); s != "" {
		if d, err := time.Parse(dateLayout, s); err == nil {
			filters.RegisteredAfter = &d
		}
	}
	if s := q.Get("registered_before"); s != "" {
		if d, err := time.Parse(dateLayout, s); err == nil {
			filters.RegisteredBefore = &d
		}
	}

	profiles, err := h.repo.ListProfiles(r.Context(), filters)
	if err != nil {
		api.FromError(w, err, "failed to fetch profiles")
		return
	}

	response := make([]ProfileResponse, len(profiles))
	for i, p := range profiles {
		response[i] = ProfileResponse{
			ID:               p.ID,
			User:             h.toUser(&p.User),
			RegistrationDate: p.RegistrationDate,
		}
		if p.DateOfBirth != nil {
			d := p.DateOfBirth.Format(dateLayout)
			response[i].DateOfBirth = &d
		}
	}
	api.JSON(w, http.StatusOK, response)
}

func (h *UserHandler) discardAvatar(ctx context.Context, ref string) {
	if ref == models.DefaultAvatar {
		return
	}
	if err := h.media.Delete(ctx, ref); err != nil {
		log.Printf("users: removing orphaned avatar %s: %v", ref, err)
	}
}

func (h *UserHandler) toUser(u *models.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Phone:     u.Phone,
		Email:     u.Email,
		Avatar:    h.media.URL(u.Avatar),
		Role:      string(u.Role),
	}
}
