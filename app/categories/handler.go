package categories

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/ncgordeev/phone-shop/app/api"
	"github.com/ncgordeev/phone-shop/models"
)

type CategoryResponse struct {
	ID          uint   `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image"`
	IsPublished bool   `json:"is_published"`
}

type CategoryProvider interface {
	GetAllCategories(ctx context.Context) ([]models.Category, error)
	CreateCategory(ctx context.Context, category *models.Category) error
	DeleteCategory(ctx context.Context, id uint) error
}

type CategoryHandler struct {
	repo CategoryProvider
}

func NewCategoryHandler(r CategoryProvider) *CategoryHandler {
	return &CategoryHandler{repo: r}
}

func (h *CategoryHandler) HandleGetAll(w http.ResponseWriter, r *http.Request) {
	categories, err := h.repo.GetAllCategories(r.Context())
	if err != nil {
		api.FromError(w, err, "failed to fetch categories")
		return
	}

	response := make([]CategoryResponse, len(categories))
	for i := range categories {
		response[i] = toResponse(&categories[i])
	}

	api.JSON(w, http.StatusOK, response)
}

func (h *CategoryHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Image       string `json:"image"`
		IsPublished *bool  `json:"is_published"`
	}

	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		api.Error(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	category := &models.Category{
		Title:       input.Title,
		Description: input.Description,
		Image:       input.Image,
		IsPublished: input.IsPublished == nil || *input.IsPublished,
	}

	if err := h.repo.CreateCategory(r.Context(), category); err != nil {
		api.FromError(w, err, "Failed to create category")
		return
	}

	api.JSON(w, http.StatusCreated, toResponse(category))
}

// HandleDelete removes the category together with its products.
func (h *CategoryHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := api.PathID(r, "id")
	if !ok {
		api.Error(w, http.StatusNotFound, "Category not found")
		return
	}

	if err := h.repo.DeleteCategory(r.Context(), id); err != nil {
		api.FromError(w, err, "Failed to delete category")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func toResponse(c *models.Category) CategoryResponse {
	return CategoryResponse{
		ID:          c.ID,
		Title:       c.Title,
		Description: c.Description,
		Image:       c.Image,
		IsPublished: c.IsPublished,
	}
}
