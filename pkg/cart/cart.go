// Package cart holds the session cart and the stock rules applied to it.
//
// Every mutation is checked against the latest product stock the caller
// passes in. Requests above stock are clamped to stock for both Add and
// UpdateQuantity; the server-side order creation remains the final check.
package cart

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"metitejidos.com.ar/storefront/pkg/models"
)

var (
	ErrOutOfStock      = errors.New("product is out of stock")
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrEntryNotFound   = errors.New("product not in cart")
)

// Entry is one product line. Price, name, image, size and color are a
// snapshot taken when the product was added.
type Entry struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"priceSnapshot"`
	Size      string          `json:"size,omitempty"`
	Color     string          `json:"color,omitempty"`
	Name      string          `json:"name"`
	Image     string          `json:"image,omitempty"`
	Stock     int             `json:"stock"`
	AddedAt   time.Time       `json:"addedAt"`
}

func (e *Entry) Subtotal() decimal.Decimal {
	return e.Price.Mul(decimal.NewFromInt(int64(e.Quantity)))
}

// Cart is owned by a single session.
type Cart struct {
	SessionID string  `json:"sessionId"`
	Entries   []Entry `json:"entries"`
}

func New(sessionID string) *Cart {
	return &Cart{SessionID: sessionID, Entries: []Entry{}}
}

func (c *Cart) index(productID string) int {
	for i := range c.Entries {
		if c.Entries[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// Entry returns the entry for productID, if any.
func (c *Cart) Entry(productID string) (Entry, bool) {
	if i := c.index(productID); i >= 0 {
		return c.Entries[i], true
	}
	return Entry{}, false
}

// Quantity is the amount of productID held in the cart.
func (c *Cart) Quantity(productID string) int {
	if i := c.index(productID); i >= 0 {
		return c.Entries[i].Quantity
	}
	return 0
}

func (c *Cart) IsEmpty() bool {
	return len(c.Entries) == 0
}

// ItemCount is the number of units across all entries.
func (c *Cart) ItemCount() int {
	var n int
	for i := range c.Entries {
		n += c.Entries[i].Quantity
	}
	return n
}

// Add puts quantity units of p in the cart and returns how many were
// actually added. A non-positive quantity is a no-op. ErrOutOfStock is
// returned, leaving the cart unchanged, when nothing more can be added.
func (c *Cart) Add(p models.Product, quantity int) (int, error) {
	if quantity <= 0 {
		return 0, nil
	}
	available := Available(p.Stock, c.Quantity(p.ID))
	if available <= 0 {
		return 0, ErrOutOfStock
	}
	if quantity > available {
		quantity = available
	}

	if i := c.index(p.ID); i >= 0 {
		c.Entries[i].Quantity += quantity
		c.Entries[i].Stock = p.Stock
		return quantity, nil
	}

	c.Entries = append(c.Entries, Entry{
		ProductID: p.ID,
		Quantity:  quantity,
		Price:     p.Price,
		Size:      p.Size,
		Color:     p.Color,
		Name:      p.Name,
		Image:     p.Image,
		Stock:     p.Stock,
		AddedAt:   time.Now().UTC(),
	})
	return quantity, nil
}

// UpdateQuantity sets the quantity of an existing entry, clamped to stock.
// It returns the quantity stored.
func (c *Cart) UpdateQuantity(productID string, quantity, stock int) (int, error) {
	i := c.index(productID)
	if i < 0 {
		return 0, ErrEntryNotFound
	}
	if quantity < 1 {
		return c.Entries[i].Quantity, ErrInvalidQuantity
	}
	if stock <= 0 {
		return c.Entries[i].Quantity, ErrOutOfStock
	}
	if quantity > stock {
		quantity = stock
	}
	c.Entries[i].Quantity = quantity
	c.Entries[i].Stock = stock
	return quantity, nil
}

// Remove deletes the entry for productID. It reports whether one existed.
func (c *Cart) Remove(productID string) bool {
	i := c.index(productID)
	if i < 0 {
		return false
	}
	c.Entries = append(c.Entries[:i], c.Entries[i+1:]...)
	return true
}

func (c *Cart) Clear() {
	c.Entries = []Entry{}
}

// Total is the sum of price times quantity over all entries.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for i := range c.Entries {
		total = total.Add(c.Entries[i].Subtotal())
	}
	return total
}
