package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod is the tag stored on an order for how it will be paid.
type PaymentMethod string

const (
	PaymentMethodCash    PaymentMethod = "Efectivo"
	PaymentMethodGateway PaymentMethod = "MercadoPago"
)

const (
	DefaultShippingCity    = "Córdoba"
	DefaultShippingCountry = "Argentina"
)

// ShippingAddress is where a manual order is delivered.
type ShippingAddress struct {
	Address    string `json:"address" validate:"required,max=200"`
	City       string `json:"city" validate:"required,max=100"`
	PostalCode string `json:"postalCode" validate:"required,max=20"`
	Country    string `json:"country" validate:"required,max=100"`
}

// OrderItem is a line of an order, copied from a cart entry.
type OrderItem struct {
	ProductID string          `json:"product" validate:"required"`
	Name      string          `json:"name" validate:"required"`
	Image     string          `json:"image,omitempty"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"qty" validate:"gte=1"`
	Size      string          `json:"size,omitempty"`
	Color     string          `json:"color,omitempty"`

	// StockAfter is the product stock right after this line reserved its
	// units. It is only set on a freshly created order.
	StockAfter int `json:"-"`
}

func (oi *OrderItem) Subtotal() decimal.Decimal {
	return oi.Price.Mul(decimal.NewFromInt(int64(oi.Quantity)))
}

// OrderSubmission is the payload accepted by the order service.
type OrderSubmission struct {
	OrderItems      []OrderItem     `json:"orderItems" validate:"required,min=1,dive"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod" validate:"required,oneof=Efectivo MercadoPago"`
	ItemsPrice      decimal.Decimal `json:"itemsPrice"`
	TaxPrice        decimal.Decimal `json:"taxPrice"`
	ShippingPrice   decimal.Decimal `json:"shippingPrice"`
	TotalPrice      decimal.Decimal `json:"totalPrice"`
}

// ItemsTotal recomputes the sum of the line subtotals.
func (s *OrderSubmission) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for i := range s.OrderItems {
		total = total.Add(s.OrderItems[i].Subtotal())
	}
	return total
}

// OrderCustomer is the buyer summary shown on admin listings.
type OrderCustomer struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Order represents a placed order.
type Order struct {
	ID              string          `json:"_id"`
	UserID          string          `json:"userId"`
	User            *OrderCustomer  `json:"user,omitempty"`
	OrderItems      []OrderItem     `json:"orderItems"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod"`
	ItemsPrice      decimal.Decimal `json:"itemsPrice"`
	TaxPrice        decimal.Decimal `json:"taxPrice"`
	ShippingPrice   decimal.Decimal `json:"shippingPrice"`
	TotalPrice      decimal.Decimal `json:"totalPrice"`
	Currency        string          `json:"currency"`
	IsPaid          bool            `json:"isPaid"`
	PaidAt          *time.Time      `json:"paidAt,omitempty"`
	IsDelivered     bool            `json:"isDelivered"`
	DeliveredAt     *time.Time      `json:"deliveredAt,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// NewOrder builds an unpaid, undelivered order from a submission.
func NewOrder(userID string, sub *OrderSubmission, currency string) *Order {
	o := &Order{
		UserID:          userID,
		OrderItems:      append([]OrderItem(nil), sub.OrderItems...),
		ShippingAddress: sub.ShippingAddress,
		PaymentMethod:   sub.PaymentMethod,
		ItemsPrice:      sub.ItemsPrice,
		TaxPrice:        sub.TaxPrice,
		ShippingPrice:   sub.ShippingPrice,
		TotalPrice:      sub.TotalPrice,
		Currency:        currency,
	}
	o.SetTimestamps()
	return o
}

func (o *Order) SetTimestamps() {
	now := time.Now().UTC()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now
}

func (o *Order) MarkPaid(at time.Time) {
	if o.IsPaid {
		return
	}
	o.IsPaid = true
	o.PaidAt = &at
	o.UpdatedAt = at
}

func (o *Order) MarkDelivered(at time.Time) {
	if o.IsDelivered {
		return
	}
	o.IsDelivered = true
	o.DeliveredAt = &at
	o.UpdatedAt = at
}

// ShortID is the six character reference shown to buyers.
func (o *Order) ShortID() string {
	if len(o.ID) <= 6 {
		return o.ID
	}
	return o.ID[len(o.ID)-6:]
}

func (o *Order) GetItemCount() int {
	var count int
	for _, item := range o.OrderItems {
		count += item.Quantity
	}
	return count
}

// OrderStats feeds the admin overview.
type OrderStats struct {
	TotalSales    decimal.Decimal `json:"totalSales"`
	TotalOrders   int             `json:"totalOrders"`
	TotalProducts int             `json:"totalProducts"`
}

// ProductSales is one row of the best sellers ranking.
type ProductSales struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Units     int    `json:"units"`
	Orders    int    `json:"orders"`
}
