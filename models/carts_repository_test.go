package models

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreateCart(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewCartsRepository(db)
	user := mustUser(t, db, "ivan@example.com")

	first, err := repo.GetOrCreate(ctx, user.ID)
	require.NoError(t, err)
	second, err := repo.GetOrCreate(ctx, user.ID)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Empty(t, second.Items)
	assert.Equal(t, int64(1), countRows(t, db, &Cart{}))

	_, err = repo.GetOrCreate(ctx, 999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestAddAndRemoveProduct(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewCartsRepository(db)
	user := mustUser(t, db, "ivan@example.com")
	category := mustCategory(t, db, "Electronics")
	phone := mustProduct(t, db, category.ID, "Phone", "500.00")
	charger := mustProduct(t, db, category.ID, "Charger", "20.00")

	_, err := repo.AddProduct(ctx, user.ID, phone.ID, 1)
	require.NoError(t, err)
	_, err = repo.AddProduct(ctx, user.ID, charger.ID, 3)
	require.NoError(t, err)
	cart, err := repo.AddProduct(ctx, user.ID, phone.ID, 1)
	require.NoError(t, err)

	require.Len(t, cart.Items, 2, "adding the same product twice keeps one line")
	assert.Equal(t, phone.ID, cart.Items[0].ProductID)
	assert.Equal(t, 2, cart.Items[0].Quantity)
	assert.Equal(t, "Phone", cart.Items[0].Product.Title)
	assert.Equal(t, 3, cart.Items[1].Quantity)
	assert.True(t, cart.Total().Equal(decimal.RequireFromString("1060.00")))

	cart, err = repo.RemoveProduct(ctx, user.ID, phone.ID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, charger.ID, cart.Items[0].ProductID)

	cart, err = repo.RemoveProduct(ctx, user.ID, phone.ID)
	require.NoError(t, err, "removing an absent product is a no-op")
	assert.Len(t, cart.Items, 1)

	require.NoError(t, repo.Clear(ctx, user.ID))
	cart, err = repo.GetOrCreate(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestAddProductErrors(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewCartsRepository(db)
	user := mustUser(t, db, "ivan@example.com")
	category := mustCategory(t, db, "Electronics")
	phone := mustProduct(t, db, category.ID, "Phone", "500.00")

	_, err := repo.AddProduct(ctx, user.ID, 999, 1)
	assert.ErrorIs(t, err, ErrProductNotFound)

	_, err = repo.AddProduct(ctx, 999, phone.ID, 1)
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = repo.AddProduct(ctx, user.ID, phone.ID, 0)
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "quantity", ve.Field)

	assert.Equal(t, int64(0), countRows(t, db, &CartItem{}))
}
