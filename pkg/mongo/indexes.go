package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"
)

type IndexConfig struct {
	CollectionName string
	IndexModel     mongo.IndexModel
}

var requiredIndexes = []IndexConfig{
	// Users
	{
		CollectionName: UsersCollection,
		IndexModel: mongo.IndexModel{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_user_email_unique"),
		},
	},

	// Products: category filter, price sort, newest listing
	{
		CollectionName: ProductsCollection,
		IndexModel: mongo.IndexModel{
			Keys:    bson.D{{Key: "category", Value: 1}, {Key: "price", Value: 1}},
			Options: options.Index().SetName("idx_category_price"),
		},
	},
	{
		CollectionName: ProductsCollection,
		IndexModel: mongo.IndexModel{
			Keys:    bson.D{{Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("idx_product_newest"),
		},
	},
	{
		CollectionName: ProductsCollection,
		IndexModel: mongo.IndexModel{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetName("idx_product_name"),
		},
	},

	// Orders: buyer history newest first
	{
		CollectionName: OrdersCollection,
		IndexModel: mongo.IndexModel{
			Keys: bson.D{
				{Key: "user", Value: 1},
				{Key: "createdAt", Value: -1},
			},
			Options: options.Index().SetName("idx_user_orders"),
		},
	},
	{
		CollectionName: OrdersCollection,
		IndexModel: mongo.IndexModel{
			Keys:    bson.D{{Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("idx_order_newest"),
		},
	},

	// Stock movements: product history, one sale record per order line
	{
		CollectionName: StockMovementsCollection,
		IndexModel: mongo.IndexModel{
			Keys: bson.D{
				{Key: "productId", Value: 1},
				{Key: "createdAt", Value: -1},
			},
			Options: options.Index().SetName("idx_product_history"),
		},
	},
	{
		CollectionName: StockMovementsCollection,
		IndexModel: mongo.IndexModel{
			Keys: bson.D{
				{Key: "orderId", Value: 1},
				{Key: "productId", Value: 1},
			},
			Options: options.Index().
				SetName("idx_order_line_unique").
				SetUnique(true).
				SetPartialFilterExpression(bson.D{{Key: "orderId", Value: bson.D{{Key: "$type", Value: "string"}}}}),
		},
	},
}

func (d *DB) EnsureIndexes(ctx context.Context) error {
	d.logger.Info("starting index creation")

	for _, idxConfig := range requiredIndexes {
		indexName, err := d.Collection(idxConfig.CollectionName).Indexes().CreateOne(ctx, idxConfig.IndexModel)
		if err != nil {
			return fmt.Errorf("create index on %s: %w", idxConfig.CollectionName, err)
		}
		d.logger.Debug("index ready",
			zap.String("index", indexName),
			zap.String("collection", idxConfig.CollectionName))
	}

	d.logger.Info("all indexes created", zap.Int("count", len(requiredIndexes)))
	return nil
}
