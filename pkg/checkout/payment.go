package checkout

import "metitejidos.com.ar/storefront/pkg/models"

// PaymentChoice selects the fulfillment path: Gateway or Cash.
type PaymentChoice interface {
	Method() models.PaymentMethod
}

// Gateway hands payment to the external processor.
type Gateway struct{}

// Cash places a manual order delivered to Address.
type Cash struct {
	Address models.ShippingAddress
}

func (Gateway) Method() models.PaymentMethod { return models.PaymentMethodGateway }
func (Cash) Method() models.PaymentMethod    { return models.PaymentMethodCash }
