package carts

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/ncgordeev/phone-shop/app/api"
	"github.com/ncgordeev/phone-shop/models"
)

type ItemResponse struct {
	ProductID uint    `json:"product_id"`
	Title     string  `json:"title"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
}

type CartResponse struct {
	ID    uint           `json:"id"`
	Items []ItemResponse `json:"items"`
	Total float64        `json:"total"`
}

type CartProvider interface {
	GetOrCreate(ctx context.Context, userID uint) (*models.Cart, error)
	AddProduct(ctx context.Context, userID, productID uint, quantity int) (*models.Cart, error)
	RemoveProduct(ctx context.Context, userID, productID uint) (*models.Cart, error)
}

type CartHandler struct {
	repo CartProvider
}

func NewCartHandler(r CartProvider) *CartHandler {
	return &CartHandler{repo: r}
}

func (h *CartHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := api.PathID(r, "id")
	if !ok {
		api.Error(w, http.StatusNotFound, "User not found")
		return
	}

	cart, err := h.repo.GetOrCreate(r.Context(), userID)
	if err != nil {
		api.FromError(w, err, "Failed to load cart")
		return
	}
	api.JSON(w, http.StatusOK, toResponse(cart))
}

func (h *CartHandler) HandleAddItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := api.PathID(r, "id")
	if !ok {
		api.Error(w, http.StatusNotFound, "User not found")
		return
	}

	var input struct {
		ProductID uint `json:"product_id"`
		Quantity  *int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		api.Error(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	quantity := 1
	if input.Quantity != nil {
		quantity = *input.Quantity
	}

	cart, err := h.repo.AddProduct(r.Context(), userID, input.ProductID, quantity)
	if err != nil {
		api.FromError(w, err, "Failed to update cart")
		return
	}
	api.JSON(w, http.StatusOK, toResponse(cart))
}

func (h *CartHandler) HandleRemoveItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := api.PathID(r, "id")
	if !ok {
		api.Error(w, http.StatusNotFound, "User not found")
		return
	}
	productID, ok := api.PathID(r, "product")
	if !ok {
		api.Error(w, http.StatusNotFound, "Product not found")
		return
	}

	cart, err := h.repo.RemoveProduct(r.Context(), userID, productID)
	if err != nil {
		api.FromError(w, err, "Failed to update cart")
		return
	}
	api.JSON(w, http.StatusOK, toResponse(cart))
}

func toResponse(c *models.Cart) CartResponse {
	items := make([]ItemResponse, len(c.Items))
	for i, item := range c.Items {
		items[i] = ItemResponse{
			ProductID: item.ProductID,
			Title:     item.Product.Title,
			UnitPrice: item.Product.Price.InexactFloat64(),
			Quantity:  item.Quantity,
		}
	}
	return CartResponse{
		ID:    c.ID,
		Items: items,
		Total: c.Total().InexactFloat64(),
	}
}
