package models

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

type OrdersRepository struct {
	db *gorm.DB
}

func NewOrdersRepository(db *gorm.DB) *OrdersRepository {
	return &OrdersRepository{db: db}
}

// Checkout turns the user's cart into a new order and empties the cart.
// Either both happen or neither does.
func (r *OrdersRepository) Checkout(ctx context.Context, userID uint) (*Order, error) {
	var order Order
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireUser(tx, userID); err != nil {
			return err
		}

		var cart Cart
		if err := tx.
			Preload("Items", func(db *gorm.DB) *gorm.DB {
				return db.Order("cart_items.id")
			}).
			Preload("Items.Product").
			Where("user_id = ?", userID).
			First(&cart).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCartEmpty
			}
			return err
		}
		if len(cart.Items) == 0 {
			return ErrCartEmpty
		}

		order = Order{UserID: userID, Items: make([]OrderItem, 0, len(cart.Items))}
		for _, line := range cart.Items {
			productID := line.ProductID
			order.Items = append(order.Items, OrderItem{
				ProductID:    &productID,
				ProductTitle: line.Product.Title,
				UnitPrice:    line.Product.Price,
				Quantity:     line.Quantity,
			})
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}
		return tx.Where("cart_id = ?", cart.ID).Delete(&CartItem{}).Error
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *OrdersRepository) GetByID(ctx context.Context, id uint) (*Order, error) {
	var order Order
	if err := r.db.WithContext(ctx).Preload("Items").First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

// ListByUser returns the user's orders, newest first.
func (r *OrdersRepository) ListByUser(ctx context.Context, userID uint) ([]Order, error) {
	var orders []Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateStatus moves an order to status to. The write is conditional on
// the status read, so a concurrent change makes it fail instead of being
// overwritten.
func (r *OrdersRepository) UpdateStatus(ctx context.Context, id uint, to OrderStatus) (*Order, error) {
	if !to.Valid() {
		_, err := ParseOrderStatus(string(to))
		return nil, err
	}

	var order Order
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Items").First(&order, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}
		if !order.Status.CanTransitionTo(to) {
			return &InvalidStatusTransition{From: order.Status, To: to}
		}

		res := tx.Model(&Order{}).
			Where("id = ? AND status = ?", id, order.Status).
			UpdateColumn("status", to)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var current Order
			if err := tx.Select("status").First(&current, id).Error; err != nil {
				return err
			}
			return &InvalidStatusTransition{From: current.Status, To: to}
		}
		order.Status = to
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ExpireStale moves new orders created before cutoff to StatusExpired and
// reports how many were moved.
func (r *OrdersRepository) ExpireStale(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&Order{}).
		Where("status = ? AND created_at < ?", StatusNew, cutoff).
		UpdateColumn("status", StatusExpired)
	return res.RowsAffected, res.Error
}
