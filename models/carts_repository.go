package models

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

type CartsRepository struct {
	db *gorm.DB
}

func NewCartsRepository(db *gorm.DB) *CartsRepository {
	return &CartsRepository{db: db}
}

// GetOrCreate returns the user's cart, creating an empty one on first use.
func (r *CartsRepository) GetOrCreate(ctx context.Context, userID uint) (*Cart, error) {
	var cart *Cart
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := cartFor(tx, userID)
		if err != nil {
			return err
		}
		cart, err = loadCart(tx, c.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return cart, nil
}

// AddProduct puts quantity units of a product in the user's cart. Adding a
// product that is already there increases the line quantity.
func (r *CartsRepository) AddProduct(ctx context.Context, userID, productID uint, quantity int) (*Cart, error) {
	if quantity < 1 {
		return nil, &ValidationError{Field: "quantity", Message: "Ensure this value is greater than or equal to 1."}
	}

	var cart *Cart
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := cartFor(tx, userID)
		if err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&Product{}).Where("id = ?", productID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrProductNotFound
		}

		var item CartItem
		err = tx.Where("cart_id = ? AND product_id = ?", c.ID, productID).First(&item).Error
		switch {
		case err == nil:
			if err := tx.Model(&item).UpdateColumn("quantity", gorm.Expr("quantity + ?", quantity)).Error; err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			item = CartItem{CartID: c.ID, ProductID: productID, Quantity: quantity}
			if err := tx.Omit("Product").Create(&item).Error; err != nil {
				return err
			}
		default:
			return err
		}

		cart, err = loadCart(tx, c.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return cart, nil
}

// RemoveProduct drops a product line from the user's cart. Removing a
// product that is not in the cart is not an error.
func (r *CartsRepository) RemoveProduct(ctx context.Context, userID, productID uint) (*Cart, error) {
	var cart *Cart
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := cartFor(tx, userID)
		if err != nil {
			return err
		}
		if err := tx.Where("cart_id = ? AND product_id = ?", c.ID, productID).Delete(&CartItem{}).Error; err != nil {
			return err
		}
		cart, err = loadCart(tx, c.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return cart, nil
}

// Clear removes every line from the user's cart. The cart itself stays.
func (r *CartsRepository) Clear(ctx context.Context, userID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := cartFor(tx, userID)
		if err != nil {
			return err
		}
		return tx.Where("cart_id = ?", c.ID).Delete(&CartItem{}).Error
	})
}

func cartFor(tx *gorm.DB, userID uint) (*Cart, error) {
	if err := requireUser(tx, userID); err != nil {
		return nil, err
	}
	var cart Cart
	if err := tx.Where(Cart{UserID: userID}).FirstOrCreate(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

func loadCart(tx *gorm.DB, id uint) (*Cart, error) {
	var cart Cart
	if err := tx.
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("cart_items.id")
		}).
		Preload("Items.Product").
		First(&cart, id).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}
