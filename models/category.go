package models

import (
	"time"

	"gorm.io/gorm"
)

// Category groups products in the catalog.
// Deleting a category deletes its products and their images.
type Category struct {
	ID          uint   `gorm:"primaryKey"`
	Title       string `gorm:"size:255;not null"`
	Description string `gorm:"type:text;not null"`
	Image       string `gorm:"size:255;not null"`
	IsPublished bool   `gorm:"not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (c *Category) TableName() string {
	return "categories"
}

// Validate checks the category fields before it is written.
func (c *Category) Validate() error {
	return requireText("title", c.Title, 255)
}

func (c *Category) BeforeSave(tx *gorm.DB) error {
	return c.Validate()
}
