package main

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/ncgordeev/phone-shop/app/carts"
	"github.com/ncgordeev/phone-shop/app/catalog"
	"github.com/ncgordeev/phone-shop/app/categories"
	"github.com/ncgordeev/phone-shop/app/orders"
	"github.com/ncgordeev/phone-shop/app/users"
	"github.com/ncgordeev/phone-shop/media"
	"github.com/ncgordeev/phone-shop/models"
	"gorm.io/gorm"
)

// newMux wires the repositories into the HTTP handlers. mediaRoot is
// served under mediaPath when both are set.
func newMux(db *gorm.DB, store media.Storage, mediaRoot, mediaPath string) *http.ServeMux {
	cat := catalog.NewCatalogHandler(models.NewProductsRepository(db), store)
	categoryHandler := categories.NewCategoryHandler(models.NewCategoriesRepository(db))
	userHandler := users.NewUserHandler(models.NewUsersRepository(db), store)
	cartHandler := carts.NewCartHandler(models.NewCartsRepository(db))
	orderHandler := orders.NewOrderHandler(models.NewOrdersRepository(db))

	mux := http.NewServeMux()

	mux.HandleFunc("GET /catalog", cat.HandleGet)
	mux.HandleFunc("POST /catalog", cat.HandleCreate)
	mux.HandleFunc("GET /catalog/{id}", cat.HandleGetProduct)
	mux.HandleFunc("PUT /catalog/{id}", cat.HandleUpdate)
	mux.HandleFunc("DELETE /catalog/{id}", cat.HandleDelete)
	mux.HandleFunc("POST /catalog/{id}/images", cat.HandleUploadImage)

	mux.HandleFunc("GET /categories", categoryHandler.HandleGetAll)
	mux.HandleFunc("POST /categories", categoryHandler.HandleCreate)
	mux.HandleFunc("DELETE /categories/{id}", categoryHandler.HandleDelete)

	mux.HandleFunc("POST /users", userHandler.HandleRegister)
	mux.HandleFunc("GET /users", userHandler.HandleList)
	mux.HandleFunc("GET /profiles", userHandler.HandleListProfiles)

	mux.HandleFunc("GET /users/{id}/cart", cartHandler.HandleGet)
	mux.HandleFunc("POST /users/{id}/cart/items", cartHandler.HandleAddItem)
	mux.HandleFunc("DELETE /users/{id}/cart/items/{product}", cartHandler.HandleRemoveItem)

	mux.HandleFunc("POST /users/{id}/orders", orderHandler.HandleCheckout)
	mux.HandleFunc("GET /users/{id}/orders", orderHandler.HandleListByUser)
	mux.HandleFunc("GET /orders/{id}", orderHandler.HandleGet)
	mux.HandleFunc("PATCH /orders/{id}/status", orderHandler.HandleUpdateStatus)

	if mediaRoot != "" && mediaPath != "" {
		mux.Handle("GET "+mediaPath, http.StripPrefix(mediaPath, http.FileServer(http.Dir(mediaRoot))))
	}

	return mux
}

// mediaPrefix returns the local path media URLs are built on, with a
// trailing slash. URLs on another host are not served by this process.
func mediaPrefix(mediaURL string) (string, bool) {
	u, err := url.Parse(mediaURL)
	if err != nil || u.Host != "" || !strings.HasPrefix(u.Path, "/") {
		return "", false
	}
	return strings.TrimSuffix(u.Path, "/") + "/", true
}
