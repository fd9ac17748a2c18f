package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"metitejidos.com.ar/storefront/pkg/models"
)

type salesTotals struct {
	TotalSales  bson.Decimal128 `bson:"totalSales"`
	TotalOrders int             `bson:"totalOrders"`
}

// Stats sums the sales of every order and counts orders and products.
func (s *OrderStore) Stats(ctx context.Context) (*models.OrderStats, error) {
	pipeline := bson.A{
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "totalSales", Value: bson.D{{Key: "$sum", Value: "$totalPrice"}}},
			{Key: "totalOrders", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}

	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate sales: %w", err)
	}
	defer cursor.Close(ctx)

	var totals []salesTotals
	if err := cursor.All(ctx, &totals); err != nil {
		return nil, fmt.Errorf("decode sales: %w", err)
	}

	products, err := s.products.CountProducts(ctx)
	if err != nil {
		return nil, err
	}

	stats := &models.OrderStats{TotalProducts: int(products)}
	if len(totals) > 0 {
		stats.TotalSales = fromDecimal128(totals[0].TotalSales)
		stats.TotalOrders = totals[0].TotalOrders
	}
	return stats, nil
}

type productSalesDocument struct {
	ProductID bson.ObjectID `bson:"_id"`
	Name      string        `bson:"name"`
	Units     int           `bson:"units"`
	Orders    int           `bson:"orders"`
}

// TopProducts ranks products by units sold.
func (s *OrderStore) TopProducts(ctx context.Context, limit int) ([]models.ProductSales, error) {
	pipeline := bson.A{
		bson.D{{Key: "$unwind", Value: "$orderItems"}},
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$orderItems.product"},
			{Key: "name", Value: bson.D{{Key: "$first", Value: "$orderItems.name"}}},
			{Key: "units", Value: bson.D{{Key: "$sum", Value: "$orderItems.qty"}}},
			{Key: "orders", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "units", Value: -1}, {Key: "_id", Value: 1}}}},
		bson.D{{Key: "$limit", Value: limit}},
	}

	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate top products: %w", err)
	}
	return decodeProductSales(ctx, cursor)
}

func decodeProductSales(ctx context.Context, cursor *mongo.Cursor) ([]models.ProductSales, error) {
	defer cursor.Close(ctx)

	var docs []productSalesDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode top products: %w", err)
	}
	out := make([]models.ProductSales, 0, len(docs))
	for _, d := range docs {
		out = append(out, models.ProductSales{ProductID: d.ProductID.Hex(), Name: d.Name, Units: d.Units, Orders: d.Orders})
	}
	return out, nil
}
