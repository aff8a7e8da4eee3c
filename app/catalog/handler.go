package catalog

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/ncgordeev/phone-shop/app/api"
	"github.com/ncgordeev/phone-shop/media"
	"github.com/ncgordeev/phone-shop/models"
	"github.com/shopspring/decimal"
)

// maxUploadMemory bounds the multipart form kept in memory.
const maxUploadMemory = 8 << 20

type Response struct {
	Total    int       `json:"total"`
	Products []Product `json:"products"`
}

type Category struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
}

type Product struct {
	ID          uint     `json:"id"`
	Title       string   `json:"title"`
	Price       float64  `json:"price"`
	Quantity    int      `json:"quantity"`
	IsPublished bool     `json:"is_published"`
	Category    Category `json:"category"`
}

type Image struct {
	ID          uint    `json:"id"`
	URL         string  `json:"url"`
	Description *string `json:"description,omitempty"`
	IsMain      bool    `json:"is_main"`
}

type ProductDetail struct {
	Product
	Description *string   `json:"description,omitempty"`
	Images      []Image   `json:"images"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProductInput is the body of create and update requests. Price accepts a
// JSON number or string.
type ProductInput struct {
	CategoryID  uint            `json:"category_id"`
	Title       string          `json:"title"`
	Description *string         `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	IsPublished *bool           `json:"is_published"`
}

type ProductProvider interface {
	GetFilteredProducts(ctx context.Context, offset, limit int, filters models.ProductFilters) ([]models.Product, int64, error)
	GetByID(ctx context.Context, id uint) (*models.Product, error)
	CreateProduct(ctx context.Context, p *models.Product) error
	UpdateProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id uint) error
	AddImage(ctx context.Context, img *models.ProductImage) error
}

type CatalogHandler struct {
	repo  ProductProvider
	media media.Storage
}

func NewCatalogHandler(r ProductProvider, store media.Storage) *CatalogHandler {
	return &CatalogHandler{
		repo:  r,
		media: store,
	}
}

func (h *CatalogHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	// Parse pagination query params
	offset := 0
	limit := 10

	if oStr := r.URL.Query().Get("offset"); oStr != "" {
		if o, err := strconv.Atoi(oStr); err == nil && o >= 0 {
			offset = o
		}
	}

	if lStr := r.URL.Query().Get("limit"); lStr != "" {
		if l, err := strconv.Atoi(lStr); err == nil {
			if l < 1 {
				limit = 1
			} else if l > 100 {
				limit = 100
			} else {
				limit = l
			}
		}
	}

	// Parse filters
	var filters models.ProductFilters
	if cStr := r.URL.Query().Get("category"); cStr != "" {
		if c, err := strconv.ParseUint(cStr, 10, 64); err == nil {
			id := uint(c)
			filters.CategoryID = &id
		}
	}
	if pStr := r.URL.Query().Get("published"); pStr != "" {
		if p, err := strconv.ParseBool(pStr); err == nil {
			filters.PublishedOnly = p
		}
	}

	res, total, err := h.repo.GetFilteredProducts(r.Context(), offset, limit, filters)
	if err != nil {
		api.FromError(w, err, "failed to get products")
		return
	}

	products := make([]Product, len(res))
	for i, p := range res {
		products[i] = toProduct(&p)
	}

	api.JSON(w, http.StatusOK, Response{
		Total:    int(total),
		Products: products,
	})
}

func (h *CatalogHandler) HandleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := api.PathID(r, "id")
	if !ok {
		api.Error(w, http.StatusNotFound, "Product not found")
		return
	}

	product, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		api.FromError(w, err, "Failed to retrieve product")
		return
	}

	api.JSON(w, http.StatusOK, h.toDetail(product))
}

func (h *CatalogHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var input ProductInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		api.Error(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	product := &models.Product{}
	input.apply(product)

	if err := h.repo.CreateProduct(r.Context(), product); err != nil {
		api.FromError(w, err, "Failed to create product")
		return
	}

	h.writeStored(w, r, http.StatusCreated, product.ID)
}

func (h *CatalogHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := api.PathID(r, "id")
	if !ok {
		api.Error(w, http.StatusNotFound, "Product not found")
		return
	}

	var input ProductInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		api.Error(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	product, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		api.FromError(w, err, "Failed to retrieve product")
		return
	}
	input.apply(product)

	if err := h.repo.UpdateProduct(r.Context(), product); err != nil {
		api.FromError(w, err, "Failed to update product")
		return
	}

	h.writeStored(w, r, http.StatusOK, product.ID)
}

// writeStored answers with the product as stored, category and images
// included.
func (h *CatalogHandler) writeStored(w http.ResponseWriter, r *http.Request, status int, id uint) {
	product, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		api.FromError(w, err, "Failed to retrieve product")
		return
	}
	api.JSON(w, status, h.toDetail(product))
}

func (h *CatalogHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := api.PathID(r, "id")
	if !ok {
		api.Error(w, http.StatusNotFound, "Product not found")
		return
	}

	if err := h.repo.DeleteProduct(r.Context(), id); err != nil {
		api.FromError(w, err, "Failed to delete product")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleUploadImage attaches a multipart "image" file to a product.
// Optional form values: description, is_main.
func (h *CatalogHandler) HandleUploadImage(w http.ResponseWriter, r *http.Request) {
	id, ok := api.PathID(r, "id")
	if !ok {
		api.Error(w, http.StatusNotFound, "Product not found")
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		api.Error(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	f, fh, err := r.FormFile("image")
	if err != nil {
		api.JSON(w, http.StatusBadRequest, api.ErrorResponse{Error: "No file was submitted.", Field: "image"})
		return
	}
	f.Close()

	ref, size, err := api.SaveImage(r.Context(), h.media, "products", "image", fh)
	if err != nil {
		api.FromError(w, err, "Failed to store image")
		return
	}

	img := &models.ProductImage{
		ProductID: id,
		Image:     ref,
		SizeBytes: size,
		IsMain:    r.FormValue("is_main") == "true",
	}
	if d := r.FormValue("description"); d != "" {
		img.Description = &d
	}

	if err := h.repo.AddImage(r.Context(), img); err != nil {
		if derr := h.media.Delete(r.Context(), ref); derr != nil {
			log.Printf("catalog: removing orphaned image %s: %v", ref, derr)
		}
		api.FromError(w, err, "Failed to save image")
		return
	}

	api.JSON(w, http.StatusCreated, h.toImage(img))
}

func (in *ProductInput) apply(p *models.Product) {
	if p.CategoryID != in.CategoryID {
		p.CategoryID = in.CategoryID
		p.Category = models.Category{}
	}
	p.Title = in.Title
	p.Description = in.Description
	p.Price = in.Price
	p.Quantity = in.Quantity
	p.IsPublished = in.IsPublished == nil || *in.IsPublished
}

func toProduct(p *models.Product) Product {
	return Product{
		ID:          p.ID,
		Title:       p.Title,
		Price:       p.Price.InexactFloat64(),
		Quantity:    p.Quantity,
		IsPublished: p.IsPublished,
		Category: Category{
			ID:    p.CategoryID,
			Title: p.Category.Title,
		},
	}
}

func (h *CatalogHandler) toImage(img *models.ProductImage) Image {
	return Image{
		ID:          img.ID,
		URL:         h.media.URL(img.Image),
		Description: img.Description,
		IsMain:      img.IsMain,
	}
}

func (h *CatalogHandler) toDetail(p *models.Product) ProductDetail {
	images := make([]Image, len(p.Images))
	for i := range p.Images {
		images[i] = h.toImage(&p.Images[i])
	}
	return ProductDetail{
		Product:     toProduct(p),
		Description: p.Description,
		Images:      images,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
