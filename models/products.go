package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product represents a product in the catalog.
// It belongs to one category and owns its images.
type Product struct {
	ID          uint            `gorm:"primaryKey"`
	CategoryID  uint            `gorm:"not null;index"`
	Category    Category        `gorm:"foreignKey:CategoryID"`
	Title       string          `gorm:"size:255;not null"`
	Description *string         `gorm:"type:text"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Quantity    int             `gorm:"not null"`
	IsPublished bool            `gorm:"not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Images      []ProductImage `gorm:"foreignKey:ProductID"`
}

func (p *Product) TableName() string {
	return "products"
}

// Validate checks the product fields before it is written.
func (p *Product) Validate() error {
	if err := requireText("title", p.Title, 255); err != nil {
		return err
	}
	if err := ValidatePrice(p.Price); err != nil {
		return err
	}
	if p.Quantity < 0 {
		return &ValidationError{Field: "quantity", Message: "Ensure this value is greater than or equal to 0."}
	}
	return nil
}

func (p *Product) BeforeSave(tx *gorm.DB) error {
	return p.Validate()
}

// MainImage returns the image flagged as main, or nil.
func (p *Product) MainImage() *ProductImage {
	for i := range p.Images {
		if p.Images[i].IsMain {
			return &p.Images[i]
		}
	}
	return nil
}

// ProductImage is an image reference attached to a product.
type ProductImage struct {
	ID          uint    `gorm:"primaryKey"`
	ProductID   uint    `gorm:"not null;index"`
	Image       string  `gorm:"size:255;not null"`
	SizeBytes   int64   `gorm:"not null"`
	Description *string `gorm:"size:255"`
	IsMain      bool    `gorm:"not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (i *ProductImage) TableName() string {
	return "product_images"
}

// Validate checks the image reference and size before it is written.
func (i *ProductImage) Validate() error {
	if err := ValidateImage(i.Image, i.SizeBytes); err != nil {
		return err
	}
	if i.Description != nil {
		return maxLength("description", *i.Description, 255)
	}
	return nil
}

func (i *ProductImage) BeforeSave(tx *gorm.DB) error {
	return i.Validate()
}
