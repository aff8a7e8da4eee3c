package models

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductsRepository struct {
	db *gorm.DB
}

type ProductFilters struct {
	CategoryID    *uint
	PublishedOnly bool
}

func NewProductsRepository(db *gorm.DB) *ProductsRepository {
	return &ProductsRepository{
		db: db,
	}
}

func (r *ProductsRepository) GetFilteredProducts(ctx context.Context, offset, limit int, filters ProductFilters) ([]Product, int64, error) {
	var products []Product
	var total int64

	query := r.db.WithContext(ctx).Model(&Product{})

	// Filter
	if filters.CategoryID != nil {
		query = query.Where("products.category_id = ?", *filters.CategoryID)
	}
	if filters.PublishedOnly {
		query = query.Where("products.is_published = ?", true)
	}

	// Count total after filtering
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// Apply pagination
	if err := query.
		Preload("Category").
		Order("products.title").
		Order("products.id").
		Offset(offset).
		Limit(limit).
		Find(&products).Error; err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

func (r *ProductsRepository) GetByID(ctx context.Context, id uint) (*Product, error) {
	var product Product
	if err := r.db.WithContext(ctx).
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("product_images.is_main DESC").Order("product_images.id")
		}).
		Preload("Category").
		First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err // Other DB error
	}
	return &product, nil
}

// CreateProduct validates and inserts p. The referenced category must exist.
func (r *ProductsRepository) CreateProduct(ctx context.Context, p *Product) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireCategory(tx, p.CategoryID); err != nil {
			return err
		}
		return tx.Omit(clause.Associations).Create(p).Error
	})
}

// UpdateProduct writes every column of an existing product.
func (r *ProductsRepository) UpdateProduct(ctx context.Context, p *Product) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing Product
		if err := tx.Select("id", "created_at").First(&existing, p.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}
			return err
		}
		if err := requireCategory(tx, p.CategoryID); err != nil {
			return err
		}
		p.CreatedAt = existing.CreatedAt
		return tx.Omit(clause.Associations).Save(p).Error
	})
}

// DeleteProduct removes a product together with its images and cart lines.
// Order lines keep their snapshot and lose the product reference.
func (r *ProductsRepository) DeleteProduct(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product Product
		if err := tx.Select("id").First(&product, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}
			return err
		}
		return deleteProducts(tx, []uint{product.ID})
	})
}

// AddImage attaches img to its product. A main image replaces the
// product's previous main image.
func (r *ProductsRepository) AddImage(ctx context.Context, img *ProductImage) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&Product{}).Where("id = ?", img.ProductID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrProductNotFound
		}
		if err := img.Validate(); err != nil {
			return err
		}
		if img.IsMain {
			if err := tx.Model(&ProductImage{}).
				Where("product_id = ? AND is_main = ?", img.ProductID, true).
				UpdateColumn("is_main", false).Error; err != nil {
				return err
			}
		}
		return tx.Create(img).Error
	})
}

func requireCategory(tx *gorm.DB, id uint) error {
	var count int64
	if err := tx.Model(&Category{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return &IntegrityError{Entity: "product", Message: "category does not exist"}
	}
	return nil
}

// deleteProducts removes the given products and every row that depends on
// them. It must run inside a transaction.
func deleteProducts(tx *gorm.DB, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	if err := tx.Where("product_id IN ?", ids).Delete(&ProductImage{}).Error; err != nil {
		return err
	}
	if err := tx.Where("product_id IN ?", ids).Delete(&CartItem{}).Error; err != nil {
		return err
	}
	if err := tx.Model(&OrderItem{}).Where("product_id IN ?", ids).Update("product_id", nil).Error; err != nil {
		return err
	}
	return tx.Delete(&Product{}, ids).Error
}
