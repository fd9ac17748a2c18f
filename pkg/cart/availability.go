package cart

// LowStockThreshold is the available quantity under which buyers are warned.
const LowStockThreshold = 3

// Status classifies how much of a product a session can still add.
type Status string

const (
	StatusInStock  Status = "in_stock"
	StatusLowStock Status = "low_stock"
	// StatusSoldOut means the product has no stock at all.
	StatusSoldOut Status = "sold_out"
	// StatusCartMax means the session cart already holds every unit in stock.
	StatusCartMax Status = "cart_max"
)

// Availability is the purchasable ceiling for one product in one cart.
type Availability struct {
	ProductID string `json:"productId"`
	Stock     int    `json:"stock"`
	InCart    int    `json:"inCart"`
	Available int    `json:"available"`
	Status    Status `json:"status"`
}

// CanAdd reports whether the add action is enabled.
func (a Availability) CanAdd() bool {
	return a.Available > 0
}

func (a Availability) IsLowStock() bool {
	return a.Status == StatusLowStock
}

// Available returns stock minus the quantity already held in the cart.
// The result may be negative when stock dropped below the cart quantity.
func Available(stock, inCart int) int {
	return stock - inCart
}

// Check derives the availability of productID given its authoritative stock
// and the cart contents. It is recomputed on every call.
func Check(productID string, stock int, c *Cart) Availability {
	inCart := 0
	if c != nil {
		inCart = c.Quantity(productID)
	}
	available := Available(stock, inCart)

	a := Availability{
		ProductID: productID,
		Stock:     stock,
		InCart:    inCart,
		Available: available,
	}
	switch {
	case stock <= 0:
		a.Status = StatusSoldOut
	case available <= 0:
		a.Status = StatusCartMax
	case available < LowStockThreshold:
		a.Status = StatusLowStock
	default:
		a.Status = StatusInStock
	}
	return a
}
