package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.uber.org/zap"

	"metitejidos.com.ar/storefront/pkg/models"
)

// Claimer remembers which orders were already handled.
type Claimer interface {
	Claim(ctx context.Context, id string) (bool, error)
	Release(ctx context.Context, id string) error
}

// MovementRecorder stores stock movements.
type MovementRecorder interface {
	Record(ctx context.Context, movements ...models.StockMovement) error
}

// Worker records a sale movement for every line of a placed order.
type Worker struct {
	claims    Claimer
	movements MovementRecorder
	logger    *zap.Logger
	done      chan struct{}
	stopped   chan struct{}
	stopOnce  sync.Once
}

func NewWorker(claims Claimer, movements MovementRecorder, logger *zap.Logger) *Worker {
	return &Worker{
		claims:    claims,
		movements: movements,
		logger:    logger,
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
	}
}

// Consume starts delivering the order queue to the worker.
func (w *Worker) Consume(ctx context.Context, ch *amqp.Channel) error {
	msgs, err := ch.Consume(OrdersQueue, "stock-movements", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}
	w.Start(ctx, msgs)
	return nil
}

// Start handles deliveries until the channel closes, ctx ends or Stop is
// called.
func (w *Worker) Start(ctx context.Context, msgs <-chan amqp.Delivery) {
	go func() {
		defer close(w.stopped)
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				w.Handle(ctx, msg)
			case <-w.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	w.logger.Info("stock movement worker started")
}

// Stop ends the loop and waits for the message in flight. It is safe to
// call more than once.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.done) })
	<-w.stopped
}

func (w *Worker) Handle(ctx context.Context, msg amqp.Delivery) {
	var event OrderPlaced
	if err := json.Unmarshal(msg.Body, &event); err != nil || event.OrderID == "" {
		w.logger.Error("malformed order event", zap.Error(err))
		_ = msg.Nack(false, false)
		return
	}

	log := w.logger.With(zap.String("order", event.OrderID), zap.String("event", event.EventID.String()))

	claimed, err := w.claims.Claim(ctx, event.OrderID)
	if err != nil {
		log.Error("claim order event", zap.Error(err))
		_ = msg.Nack(false, true)
		return
	}
	if !claimed {
		log.Info("order event already handled")
		_ = msg.Ack(false)
		return
	}

	if err := w.movements.Record(ctx, event.Movements()...); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			log.Info("stock movements already recorded")
			_ = msg.Ack(false)
			return
		}
		log.Error("record stock movements", zap.Error(err))
		if err := w.claims.Release(context.WithoutCancel(ctx), event.OrderID); err != nil {
			log.Warn("release order claim", zap.Error(err))
		}
		_ = msg.Nack(false, false)
		return
	}

	_ = msg.Ack(false)
	log.Debug("stock movements recorded", zap.Int("lines", len(event.Items)))
}
