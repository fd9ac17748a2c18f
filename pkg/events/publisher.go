package events

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"metitejidos.com.ar/storefront/pkg/checkout"
	"metitejidos.com.ar/storefront/pkg/models"
)

// Channel is the publishing half of an *amqp.Channel.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type Publisher struct {
	ch Channel
}

func NewPublisher(ch Channel) *Publisher {
	return &Publisher{ch: ch}
}

func (p *Publisher) Publish(ctx context.Context, event OrderPlaced) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal order event: %w", err)
	}
	err = p.ch.PublishWithContext(ctx, "", OrdersQueue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		MessageId:    event.EventID.String(),
		Timestamp:    event.PlacedAt,
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish order %s: %w", event.OrderID, err)
	}
	return nil
}

// PublishingOrders announces every order the wrapped service creates. A
// failed publish is logged and never fails the order.
type PublishingOrders struct {
	next      checkout.OrderCreator
	publisher *Publisher
	logger    *zap.Logger
}

func NewPublishingOrders(next checkout.OrderCreator, publisher *Publisher, logger *zap.Logger) *PublishingOrders {
	return &PublishingOrders{next: next, publisher: publisher, logger: logger}
}

func (o *PublishingOrders) CreateOrder(ctx context.Context, userID string, sub *models.OrderSubmission) (*models.Order, error) {
	order, err := o.next.CreateOrder(ctx, userID, sub)
	if err != nil {
		return nil, err
	}

	if err := o.publisher.Publish(context.WithoutCancel(ctx), NewOrderPlaced(order)); err != nil {
		o.logger.Warn("order event not published",
			zap.String("order", order.ID),
			zap.Error(err))
	}
	return order, nil
}
