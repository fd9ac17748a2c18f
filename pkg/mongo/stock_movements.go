package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"metitejidos.com.ar/storefront/pkg/models"
)

// StockMovementStore is the audit trail of stock changes.
type StockMovementStore struct {
	coll *mongo.Collection
}

func NewStockMovementStore(db *DB) *StockMovementStore {
	return &StockMovementStore{coll: db.Collection(StockMovementsCollection)}
}

func (s *StockMovementStore) Record(ctx context.Context, movements ...models.StockMovement) error {
	if len(movements) == 0 {
		return nil
	}

	docs := make([]stockMovementDocument, 0, len(movements))
	for _, m := range movements {
		pid, err := parseID(m.ProductID)
		if err != nil {
			return err
		}
		m.SetTimestamp()
		m.CalculateQuantityChanged()
		docs = append(docs, stockMovementDocument{
			ID:              bson.NewObjectID(),
			ProductID:       pid,
			OrderID:         m.OrderID,
			QuantityBefore:  m.QuantityBefore,
			QuantityAfter:   m.QuantityAfter,
			QuantityChanged: m.QuantityChanged,
			Reason:          m.Reason,
			PerformedBy:     m.PerformedBy,
			CreatedAt:       m.CreatedAt,
		})
	}

	if _, err := s.coll.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("insert stock movements: %w", err)
	}
	return nil
}

// ListByProduct returns the latest movements of a product, newest first.
func (s *StockMovementStore) ListByProduct(ctx context.Context, productID string, limit int64) ([]models.StockMovement, error) {
	pid, err := parseID(productID)
	if err != nil {
		return nil, ErrNotFound
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(limit)
	cursor, err := s.coll.Find(ctx, bson.D{{Key: "productId", Value: pid}}, opts)
	if err != nil {
		return nil, fmt.Errorf("find stock movements: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []stockMovementDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode stock movements: %w", err)
	}
	movements := make([]models.StockMovement, 0, len(docs))
	for i := range docs {
		movements = append(movements, docs[i].toModel())
	}
	return movements, nil
}
