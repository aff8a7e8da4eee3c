package orders

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ncgordeev/phone-shop/app/api"
	"github.com/ncgordeev/phone-shop/models"
)

type ItemResponse struct {
	ProductID *uint   `json:"product_id"`
	Title     string  `json:"title"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
}

type OrderResponse struct {
	ID        uint               `json:"id"`
	UserID    uint               `json:"user_id"`
	Status    models.OrderStatus `json:"status"`
	Items     []ItemResponse     `json:"items"`
	Total     float64            `json:"total"`
	CreatedAt time.Time          `json:"created_at"`
}

type OrderProvider interface {
	Checkout(ctx context.Context, userID uint) (*models.Order, error)
	GetByID(ctx context.Context, id uint) (*models.Order, error)
	ListByUser(ctx context.Context, userID uint) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id uint, to models.OrderStatus) (*models.Order, error)
}

type OrderHandler struct {
	repo OrderProvider
}

func NewOrderHandler(r OrderProvider) *OrderHandler {
	return &OrderHandler{repo: r}
}

// HandleCheckout turns the user's cart into a new order.
func (h *OrderHandler) HandleCheckout(w http.ResponseWriter, r *http.Request) {
	userID, ok := api.PathID(r, "id")
	if !ok {
		api.Error(w, http.StatusNotFound, "User not found")
		return
	}

	order, err := h.repo.Checkout(r.Context(), userID)
	if err != nil {
		api.FromError(w, err, "Failed to create order")
		return
	}
	api.JSON(w, http.StatusCreated, toResponse(order))
}

func (h *OrderHandler) HandleListByUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := api.PathID(r, "id")
	if !ok {
		api.Error(w, http.StatusNotFound, "User not found")
		return
	}

	orders, err := h.repo.ListByUser(r.Context(), userID)
	if err != nil {
		api.FromError(w, err, "failed to fetch orders")
		return
	}

	response := make([]OrderResponse, len(orders))
	for i := range orders {
		response[i] = toResponse(&orders[i])
	}
	api.JSON(w, http.StatusOK, response)
}

func (h *OrderHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := api.PathID(r, "id")
	if !ok {
		api.Error(w, http.StatusNotFound, "Order not found")
		return
	}

	order, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		api.FromError(w, err, "Failed to retrieve order")
		return
	}
	api.JSON(w, http.StatusOK, toResponse(order))
}

func (h *OrderHandler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := api.PathID(r, "id")
	if !ok {
		api.Error(w, http.StatusNotFound, "Order not found")
		return
	}

	var input struct {
		Status models.OrderStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		var ve *models.ValidationError
		if errors.As(err, &ve) {
			api.FromError(w, ve, "Invalid JSON body")
			return
		}
		api.Error(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	order, err := h.repo.UpdateStatus(r.Context(), id, input.Status)
	if err != nil {
		api.FromError(w, err, "Failed to update order")
		return
	}
	api.JSON(w, http.StatusOK, toResponse(order))
}

func toResponse(o *models.Order) OrderResponse {
	items := make([]ItemResponse, len(o.Items))
	for i, item := range o.Items {
		items[i] = ItemResponse{
			ProductID: item.ProductID,
			Title:     item.ProductTitle,
			UnitPrice: item.UnitPrice.InexactFloat64(),
			Quantity:  item.Quantity,
		}
	}
	return OrderResponse{
		ID:        o.ID,
		UserID:    o.UserID,
		Status:    o.Status,
		Items:     items,
		Total:     o.Total().InexactFloat64(),
		CreatedAt: o.CreatedAt,
	}
}
