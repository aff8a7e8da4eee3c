package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cart is a user's current product selection. Each user has at most one
// cart; checkout empties it.
type Cart struct {
	ID        uint       `gorm:"primaryKey"`
	UserID    uint       `gorm:"not null;uniqueIndex"`
	Items     []CartItem `gorm:"foreignKey:CartID"`
	CreatedAt time.Time
}

func (c *Cart) TableName() string {
	return "carts"
}

// Total is the sum of the lines at current product prices.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.Product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// CartItem is one product line of a cart.
type CartItem struct {
	ID        uint      `gorm:"primaryKey"`
	CartID    uint      `gorm:"not null;uniqueIndex:idx_cart_items_cart_product"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_cart_items_cart_product"`
	Product   Product   `gorm:"foreignKey:ProductID"`
	Quantity  int       `gorm:"not null"`
	AddedAt   time.Time `gorm:"autoCreateTime"`
}

func (i *CartItem) TableName() string {
	return "cart_items"
}
