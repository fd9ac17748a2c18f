package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	DefaultProductImage = "https://placehold.co/600x600/e7e5e4/a8a29e?text=Meti+Tejidos"
	DefaultProductSize  = "Único"
)

// Category is the closed set of catalog sections.
type Category string

const (
	CategoryIndumentaria Category = "indumentaria"
	CategoryAccesorios   Category = "accesorios"
	CategoryDeco         Category = "deco"
	CategoryAmigurumis   Category = "amigurumis"
	CategoryOtros        Category = "otros"
)

var Categories = []Category{
	CategoryIndumentaria,
	CategoryAccesorios,
	CategoryDeco,
	CategoryAmigurumis,
	CategoryOtros,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Product represents a handmade item in the catalog. Stock is the authoritative
// count of sellable units.
type Product struct {
	ID          string          `json:"_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Category    Category        `json:"category"`
	Material    string          `json:"material,omitempty"`
	Size        string          `json:"size,omitempty"`
	Color       string          `json:"color,omitempty"`
	Image       string          `json:"image"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

func (p *Product) IsInStock() bool {
	return p.Stock > 0
}

func (p *Product) IsLowStock(threshold int) bool {
	return p.Stock > 0 && p.Stock < threshold
}

func (p *Product) SetTimestamps() {
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
}

// ApplyDefaults fills the optional descriptors the catalog always shows.
func (p *Product) ApplyDefaults() {
	if strings.TrimSpace(p.Image) == "" {
		p.Image = DefaultProductImage
	}
	if strings.TrimSpace(p.Size) == "" {
		p.Size = DefaultProductSize
	}
	if p.Category == "" {
		p.Category = CategoryOtros
	}
}

type CreateProductRequest struct {
	Name        string          `json:"name" validate:"required,min=2,max=200"`
	Description string          `json:"description" validate:"required,max=2000"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock" validate:"gte=0"`
	Category    Category        `json:"category" validate:"omitempty,oneof=indumentaria accesorios deco amigurumis otros"`
	Material    string          `json:"material" validate:"max=100"`
	Size        string          `json:"size" validate:"max=50"`
	Color       string          `json:"color" validate:"max=50"`
	Image       string          `json:"image" validate:"omitempty,url"`
}

func (req *CreateProductRequest) ToProduct() *Product {
	product := &Product{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		Category:    req.Category,
		Material:    strings.TrimSpace(req.Material),
		Size:        strings.TrimSpace(req.Size),
		Color:       strings.TrimSpace(req.Color),
		Image:       req.Image,
	}
	product.ApplyDefaults()
	product.SetTimestamps()
	return product
}

// UpdateProductRequest carries a partial update: nil fields keep their
// current value.
type UpdateProductRequest struct {
	Name        *string          `json:"name" validate:"omitempty,min=2,max=200"`
	Description *string          `json:"description" validate:"omitempty,max=2000"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock" validate:"omitempty,gte=0"`
	Category    *Category        `json:"category" validate:"omitempty,oneof=indumentaria accesorios deco amigurumis otros"`
	Material    *string          `json:"material" validate:"omitempty,max=100"`
	Size        *string          `json:"size" validate:"omitempty,max=50"`
	Color       *string          `json:"color" validate:"omitempty,max=50"`
	Image       *string          `json:"image" validate:"omitempty,url"`
}

func (req *UpdateProductRequest) IsEmpty() bool {
	return req.Name == nil && req.Description == nil && req.Price == nil &&
		req.Stock == nil && req.Category == nil && req.Material == nil &&
		req.Size == nil && req.Color == nil && req.Image == nil
}

// Apply copies the provided fields onto p.
func (req *UpdateProductRequest) Apply(p *Product) {
	if req.Name != nil {
		p.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.Stock != nil {
		p.Stock = *req.Stock
	}
	if req.Category != nil {
		p.Category = *req.Category
	}
	if req.Material != nil {
		p.Material = strings.TrimSpace(*req.Material)
	}
	if req.Size != nil {
		p.Size = strings.TrimSpace(*req.Size)
	}
	if req.Color != nil {
		p.Color = strings.TrimSpace(*req.Color)
	}
	if req.Image != nil {
		p.Image = *req.Image
	}
	p.ApplyDefaults()
	p.SetTimestamps()
}

// ProductSort names the catalog orderings offered by the shop page.
type ProductSort string

const (
	SortNewest    ProductSort = "newest"
	SortPriceAsc  ProductSort = "price-asc"
	SortPriceDesc ProductSort = "price-desc"
	SortNameAsc   ProductSort = "name-asc"
)

type ProductFilter struct {
	Search   string           `form:"search"`
	Category Category         `form:"cat"`
	MinPrice *decimal.Decimal `form:"-"`
	MaxPrice *decimal.Decimal `form:"-"`
	Sort     ProductSort      `form:"sort"`
}
