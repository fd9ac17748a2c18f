package router

import (
	"context"

	"metitejidos.com.ar/storefront/pkg/checkout"
	"metitejidos.com.ar/storefront/pkg/models"
)

type ProductService interface {
	ListProducts(ctx context.Context, f models.ProductFilter) ([]models.Product, error)
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	CreateProduct(ctx context.Context, p *models.Product) error
	UpdateProduct(ctx context.Context, id string, req *models.UpdateProductRequest) (*models.Product, int, error)
	DeleteProduct(ctx context.Context, id string) (*models.Product, error)
}

// ProductCache serves product detail reads. It is never consulted for stock
// when a cart is mutated.
type ProductCache interface {
	Get(ctx context.Context, id string) (*models.Product, error)
	Set(ctx context.Context, p *models.Product) error
	Invalidate(ctx context.Context, p *models.Product) error
}

type CartStore interface {
	Load(ctx context.Context, sessionID string) (*checkout.Flow, error)
	Save(ctx context.Context, flow *checkout.Flow) error
	Delete(ctx context.Context, sessionID string) error
}

type OrderService interface {
	ListMyOrders(ctx context.Context, userID string) ([]models.Order, error)
	ListOrders(ctx context.Context) ([]models.Order, error)
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	MarkDelivered(ctx context.Context, id string) (*models.Order, error)
	MarkPaid(ctx context.Context, id string) (*models.Order, error)
	Stats(ctx context.Context) (*models.OrderStats, error)
	TopProducts(ctx context.Context, limit int) ([]models.ProductSales, error)
}

type MovementRecorder interface {
	Record(ctx context.Context, movements ...models.StockMovement) error
}

type UserService interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)
	Me(ctx context.Context, id string) (*models.User, error)
}

type TokenParser interface {
	Parse(raw string) (checkout.Authenticated, error)
}

// HealthCheck is one dependency probed by /api/health.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}
