// Package events carries order notifications over RabbitMQ so stock
// movements can be recorded outside the request path.
package events

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"

	"metitejidos.com.ar/storefront/pkg/models"
)

const (
	OrdersQueue = "orders.placed"
	dlxExchange = "orders.dlx"
	dlqQueue    = "orders.placed.dlq"
)

// SetupTopology declares the order queue and its dead letter queue.
func SetupTopology(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(dlxExchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLX: %w", err)
	}
	if _, err := ch.QueueDeclare(dlqQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLQ: %w", err)
	}
	if err := ch.QueueBind(dlqQueue, OrdersQueue, dlxExchange, false, nil); err != nil {
		return fmt.Errorf("bind DLQ: %w", err)
	}
	if _, err := ch.QueueDeclare(OrdersQueue, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    dlxExchange,
		"x-dead-letter-routing-key": OrdersQueue,
	}); err != nil {
		return fmt.Errorf("declare order queue: %w", err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set QoS: %w", err)
	}
	return nil
}

// PlacedItem is one order line with the stock the product was left with.
type PlacedItem struct {
	ProductID  string `json:"productId"`
	Quantity   int    `json:"qty"`
	StockAfter int    `json:"stockAfter"`
}

// OrderPlaced is published once per created order.
type OrderPlaced struct {
	EventID  uuid.UUID       `json:"eventId"`
	OrderID  string          `json:"orderId"`
	UserID   string          `json:"userId"`
	Items    []PlacedItem    `json:"items"`
	Total    decimal.Decimal `json:"total"`
	PlacedAt time.Time       `json:"placedAt"`
}

func NewOrderPlaced(order *models.Order) OrderPlaced {
	items := make([]PlacedItem, 0, len(order.OrderItems))
	for _, item := range order.OrderItems {
		items = append(items, PlacedItem{
			ProductID:  item.ProductID,
			Quantity:   item.Quantity,
			StockAfter: item.StockAfter,
		})
	}
	return OrderPlaced{
		EventID:  uuid.New(),
		OrderID:  order.ID,
		UserID:   order.UserID,
		Items:    items,
		Total:    order.TotalPrice,
		PlacedAt: order.CreatedAt,
	}
}

// Movements turns the event into one sale movement per line.
func (e OrderPlaced) Movements() []models.StockMovement {
	out := make([]models.StockMovement, 0, len(e.Items))
	for _, item := range e.Items {
		m := models.StockMovement{
			ProductID:      item.ProductID,
			OrderID:        e.OrderID,
			QuantityBefore: item.StockAfter + item.Quantity,
			QuantityAfter:  item.StockAfter,
			Reason:         models.StockReasonSale,
			PerformedBy:    e.UserID,
			CreatedAt:      e.PlacedAt,
		}
		m.CalculateQuantityChanged()
		out = append(out, m)
	}
	return out
}
