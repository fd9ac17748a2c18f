package checkout

import (
	"strings"

	"github.com/shopspring/decimal"

	"metitejidos.com.ar/storefront/pkg/cart"
	"metitejidos.com.ar/storefront/pkg/global"
	"metitejidos.com.ar/storefront/pkg/models"
)

// Assemble turns the cart into an order submission for the given payment
// choice. Lines keep the cart's price snapshot. Tax and shipping are zero.
//
// An empty cart, or a Cash choice with a blank street, city or postal code,
// yields a *ValidationError. The cart is never modified.
func Assemble(c *cart.Cart, choice PaymentChoice) (*models.OrderSubmission, error) {
	if c == nil || c.IsEmpty() {
		return nil, emptyCartError()
	}
	if choice == nil {
		return nil, NewValidationError([]global.ValidationError{{
			Field: "paymentMethod", Message: "paymentMethod is required", Code: "required",
		}})
	}

	sub := &models.OrderSubmission{
		OrderItems:    orderItems(c),
		PaymentMethod: choice.Method(),
		TaxPrice:      decimal.Zero,
		ShippingPrice: decimal.Zero,
	}
	sub.ItemsPrice = c.Total()
	sub.TotalPrice = sub.ItemsPrice.Add(sub.TaxPrice).Add(sub.ShippingPrice)

	if cash, ok := choice.(Cash); ok {
		sub.ShippingAddress = NormalizeAddress(cash.Address)
		if errs := global.ValidateStruct(sub); len(errs) > 0 {
			return nil, NewValidationError(errs)
		}
	}
	return sub, nil
}

func orderItems(c *cart.Cart) []models.OrderItem {
	items := make([]models.OrderItem, 0, len(c.Entries))
	for _, e := range c.Entries {
		items = append(items, models.OrderItem{
			ProductID: e.ProductID,
			Name:      e.Name,
			Image:     e.Image,
			Price:     e.Price,
			Quantity:  e.Quantity,
			Size:      e.Size,
			Color:     e.Color,
		})
	}
	return items
}

// NormalizeAddress trims every field and fills a blank country with the
// store default. City is left for validation.
func NormalizeAddress(a models.ShippingAddress) models.ShippingAddress {
	a.Address = strings.TrimSpace(a.Address)
	a.City = strings.TrimSpace(a.City)
	a.PostalCode = strings.TrimSpace(a.PostalCode)
	a.Country = strings.TrimSpace(a.Country)
	if a.Country == "" {
		a.Country = models.DefaultShippingCountry
	}
	return a
}
