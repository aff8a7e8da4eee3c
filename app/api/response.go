// Package api holds the JSON plumbing shared by the HTTP handlers.
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/ncgordeev/phone-shop/models"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("api: encode response: %v", err)
	}
}

func Error(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, ErrorResponse{Error: msg})
}

// FromError writes err with the status matching its kind. Errors of an
// unknown kind are logged and answered with fallback.
func FromError(w http.ResponseWriter, err error, fallback string) {
	var (
		ve  *models.ValidationError
		ie  *models.IntegrityError
		ist *models.InvalidStatusTransition
	)
	switch {
	case errors.As(err, &ve):
		JSON(w, http.StatusBadRequest, ErrorResponse{Error: ve.Message, Field: ve.Field})
	case errors.As(err, &ie):
		Error(w, http.StatusConflict, ie.Error())
	case errors.As(err, &ist):
		JSON(w, http.StatusConflict, ErrorResponse{Error: ist.Error(), Field: "status"})
	case errors.Is(err, models.ErrProductNotFound):
		Error(w, http.StatusNotFound, "Product not found")
	case errors.Is(err, models.ErrCategoryNotFound):
		Error(w, http.StatusNotFound, "Category not found")
	case errors.Is(err, models.ErrUserNotFound):
		Error(w, http.StatusNotFound, "User not found")
	case errors.Is(err, models.ErrOrderNotFound):
		Error(w, http.StatusNotFound, "Order not found")
	case errors.Is(err, models.ErrCartEmpty):
		JSON(w, http.StatusBadRequest, ErrorResponse{Error: "Cart is empty", Field: "cart"})
	default:
		log.Printf("api: %s: %v", fallback, err)
		Error(w, http.StatusInternalServerError, fallback)
	}
}

// PathID parses the named path value as a positive identifier.
func PathID(r *http.Request, name string) (uint, bool) {
	id, err := strconv.ParseUint(r.PathValue(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
