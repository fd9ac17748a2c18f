package mongo

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/v2/bson"

	"metitejidos.com.ar/storefront/pkg/models"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrInvalidID = errors.New("invalid id")
)

func parseID(id string) (bson.ObjectID, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return bson.NilObjectID, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return oid, nil
}

func toDecimal128(d decimal.Decimal) bson.Decimal128 {
	v, err := bson.ParseDecimal128(d.String())
	if err != nil {
		// Prices are range checked before they reach a document.
		return bson.NewDecimal128(0, 0)
	}
	return v
}

func fromDecimal128(v bson.Decimal128) decimal.Decimal {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Zero
	}
	return d
}

type productDocument struct {
	ID          bson.ObjectID   `bson:"_id,omitempty"`
	Name        string          `bson:"name"`
	Description string          `bson:"description"`
	Price       bson.Decimal128 `bson:"price"`
	Stock       int             `bson:"stock"`
	Category    string          `bson:"category"`
	Material    string          `bson:"material,omitempty"`
	Size        string          `bson:"size,omitempty"`
	Color       string          `bson:"color,omitempty"`
	Image       string          `bson:"image"`
	CreatedAt   time.Time       `bson:"createdAt"`
	UpdatedAt   time.Time       `bson:"updatedAt"`
}

func newProductDocument(p *models.Product) productDocument {
	doc := productDocument{
		Name:        p.Name,
		Description: p.Description,
		Price:       toDecimal128(p.Price),
		Stock:       p.Stock,
		Category:    string(p.Category),
		Material:    p.Material,
		Size:        p.Size,
		Color:       p.Color,
		Image:       p.Image,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if oid, err := bson.ObjectIDFromHex(p.ID); err == nil {
		doc.ID = oid
	}
	return doc
}

func (d *productDocument) toModel() models.Product {
	return models.Product{
		ID:          d.ID.Hex(),
		Name:        d.Name,
		Description: d.Description,
		Price:       fromDecimal128(d.Price),
		Stock:       d.Stock,
		Category:    models.Category(d.Category),
		Material:    d.Material,
		Size:        d.Size,
		Color:       d.Color,
		Image:       d.Image,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

type orderItemDocument struct {
	Product  bson.ObjectID   `bson:"product"`
	Name     string          `bson:"name"`
	Image    string          `bson:"image,omitempty"`
	Price    bson.Decimal128 `bson:"price"`
	Quantity int             `bson:"qty"`
	Size     string          `bson:"size,omitempty"`
	Color    string          `bson:"color,omitempty"`
}

type shippingAddressDocument struct {
	Address    string `bson:"address"`
	City       string `bson:"city"`
	PostalCode string `bson:"postalCode"`
	Country    string `bson:"country"`
}

type orderCustomerDocument struct {
	ID    bson.ObjectID `bson:"_id"`
	Name  string        `bson:"name"`
	Email string        `bson:"email"`
}

type orderDocument struct {
	ID              bson.ObjectID           `bson:"_id,omitempty"`
	User            bson.ObjectID           `bson:"user"`
	Customer        *orderCustomerDocument  `bson:"customer,omitempty"`
	OrderItems      []orderItemDocument     `bson:"orderItems"`
	ShippingAddress shippingAddressDocument `bson:"shippingAddress"`
	PaymentMethod   string                  `bson:"paymentMethod"`
	ItemsPrice      bson.Decimal128         `bson:"itemsPrice"`
	TaxPrice        bson.Decimal128         `bson:"taxPrice"`
	ShippingPrice   bson.Decimal128         `bson:"shippingPrice"`
	TotalPrice      bson.Decimal128         `bson:"totalPrice"`
	Currency        string                  `bson:"currency"`
	IsPaid          bool                    `bson:"isPaid"`
	PaidAt          *time.Time              `bson:"paidAt,omitempty"`
	IsDelivered     bool                    `bson:"isDelivered"`
	DeliveredAt     *time.Time              `bson:"deliveredAt,omitempty"`
	CreatedAt       time.Time               `bson:"createdAt"`
	UpdatedAt       time.Time               `bson:"updatedAt"`
}

// newOrderDocument expects every id in o to be a valid hex ObjectID.
func newOrderDocument(o *models.Order) (orderDocument, error) {
	userID, err := parseID(o.UserID)
	if err != nil {
		return orderDocument{}, err
	}

	items := make([]orderItemDocument, 0, len(o.OrderItems))
	for _, it := range o.OrderItems {
		pid, err := parseID(it.ProductID)
		if err != nil {
			return orderDocument{}, err
		}
		items = append(items, orderItemDocument{
			Product:  pid,
			Name:     it.Name,
			Image:    it.Image,
			Price:    toDecimal128(it.Price),
			Quantity: it.Quantity,
			Size:     it.Size,
			Color:    it.Color,
		})
	}

	return orderDocument{
		User:       userID,
		OrderItems: items,
		ShippingAddress: shippingAddressDocument{
			Address:    o.ShippingAddress.Address,
			City:       o.ShippingAddress.City,
			PostalCode: o.ShippingAddress.PostalCode,
			Country:    o.ShippingAddress.Country,
		},
		PaymentMethod: string(o.PaymentMethod),
		ItemsPrice:    toDecimal128(o.ItemsPrice),
		TaxPrice:      toDecimal128(o.TaxPrice),
		ShippingPrice: toDecimal128(o.ShippingPrice),
		TotalPrice:    toDecimal128(o.TotalPrice),
		Currency:      o.Currency,
		IsPaid:        o.IsPaid,
		PaidAt:        o.PaidAt,
		IsDelivered:   o.IsDelivered,
		DeliveredAt:   o.DeliveredAt,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}, nil
}

func (d *orderDocument) toModel() models.Order {
	items := make([]models.OrderItem, 0, len(d.OrderItems))
	for _, it := range d.OrderItems {
		items = append(items, models.OrderItem{
			ProductID: it.Product.Hex(),
			Name:      it.Name,
			Image:     it.Image,
			Price:     fromDecimal128(it.Price),
			Quantity:  it.Quantity,
			Size:      it.Size,
			Color:     it.Color,
		})
	}

	o := models.Order{
		ID:         d.ID.Hex(),
		UserID:     d.User.Hex(),
		OrderItems: items,
		ShippingAddress: models.ShippingAddress{
			Address:    d.ShippingAddress.Address,
			City:       d.ShippingAddress.City,
			PostalCode: d.ShippingAddress.PostalCode,
			Country:    d.ShippingAddress.Country,
		},
		PaymentMethod: models.PaymentMethod(d.PaymentMethod),
		ItemsPrice:    fromDecimal128(d.ItemsPrice),
		TaxPrice:      fromDecimal128(d.TaxPrice),
		ShippingPrice: fromDecimal128(d.ShippingPrice),
		TotalPrice:    fromDecimal128(d.TotalPrice),
		Currency:      d.Currency,
		IsPaid:        d.IsPaid,
		PaidAt:        d.PaidAt,
		IsDelivered:   d.IsDelivered,
		DeliveredAt:   d.DeliveredAt,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
	if d.Customer != nil {
		o.User = &models.OrderCustomer{
			ID:    d.Customer.ID.Hex(),
			Name:  d.Customer.Name,
			Email: d.Customer.Email,
		}
	}
	return o
}

type userDocument struct {
	ID           bson.ObjectID `bson:"_id,omitempty"`
	Name         string        `bson:"name"`
	Email        string        `bson:"email"`
	PasswordHash string        `bson:"password"`
	IsAdmin      bool          `bson:"isAdmin"`
	CreatedAt    time.Time     `bson:"createdAt"`
	UpdatedAt    time.Time     `bson:"updatedAt"`
}

func (d *userDocument) toModel() *models.User {
	return &models.User{
		ID:           d.ID.Hex(),
		Name:         d.Name,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		IsAdmin:      d.IsAdmin,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

type stockMovementDocument struct {
	ID              bson.ObjectID `bson:"_id,omitempty"`
	ProductID       bson.ObjectID `bson:"productId"`
	OrderID         string        `bson:"orderId,omitempty"`
	QuantityBefore  int           `bson:"quantityBefore"`
	QuantityAfter   int           `bson:"quantityAfter"`
	QuantityChanged int           `bson:"quantityChanged"`
	Reason          string        `bson:"reason"`
	PerformedBy     string        `bson:"performedBy"`
	CreatedAt       time.Time     `bson:"createdAt"`
}

func (d *stockMovementDocument) toModel() models.StockMovement {
	return models.StockMovement{
		ID:              d.ID.Hex(),
		ProductID:       d.ProductID.Hex(),
		OrderID:         d.OrderID,
		QuantityBefore:  d.QuantityBefore,
		QuantityAfter:   d.QuantityAfter,
		QuantityChanged: d.QuantityChanged,
		Reason:          d.Reason,
		PerformedBy:     d.PerformedBy,
		CreatedAt:       d.CreatedAt,
	}
}
