package models

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// --- Helpers ---

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(t, err)

	// Every connection to :memory: is a separate database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(Tables()...))
	return db
}

func mustCategory(t *testing.T, db *gorm.DB, title string) *Category {
	t.Helper()
	c := &Category{Title: title, Description: title + " description", Image: "categories/" + title + ".png", IsPublished: true}
	require.NoError(t, NewCategoriesRepository(db).CreateCategory(context.Background(), c))
	return c
}

func mustProduct(t *testing.T, db *gorm.DB, categoryID uint, title, price string) *Product {
	t.Helper()
	p := &Product{
		CategoryID:  categoryID,
		Title:       title,
		Price:       decimal.RequireFromString(price),
		Quantity:    10,
		IsPublished: true,
	}
	require.NoError(t, NewProductsRepository(db).CreateProduct(context.Background(), p))
	return p
}

func mustUser(t *testing.T, db *gorm.DB, email string) *User {
	t.Helper()
	u := &User{FirstName: "Ivan", LastName: "Petrov", Phone: "+79990000000", Email: email, Avatar: DefaultAvatar, IsActive: true}
	require.NoError(t, NewUsersRepository(db).CreateUser(context.Background(), u))
	return u
}

func mustImage(t *testing.T, db *gorm.DB, productID uint, name string, main bool) *ProductImage {
	t.Helper()
	img := &ProductImage{ProductID: productID, Image: name, SizeBytes: 1024, IsMain: main}
	require.NoError(t, NewProductsRepository(db).AddImage(context.Background(), img))
	return img
}

func countRows(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}
