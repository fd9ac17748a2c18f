package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"

	"metitejidos.com.ar/storefront/pkg/checkout"
	"metitejidos.com.ar/storefront/pkg/global"
	"metitejidos.com.ar/storefront/pkg/models"
)

// OrderStore is the order service. Creating an order is where stock is
// actually taken.
type OrderStore struct {
	coll     *mongo.Collection
	products *ProductStore
	currency string
	logger   *zap.Logger
}

func NewOrderStore(db *DB, products *ProductStore, currency string) *OrderStore {
	return &OrderStore{
		coll:     db.Collection(OrdersCollection),
		products: products,
		currency: currency,
		logger:   db.logger,
	}
}

// CreateOrder validates sub, reserves stock for every line and stores the
// order. If any line cannot be reserved the lines already reserved are
// released and a *checkout.StockConflictError is returned.
func (s *OrderStore) CreateOrder(ctx context.Context, userID string, sub *models.OrderSubmission) (*models.Order, error) {
	if _, err := parseID(userID); err != nil {
		return nil, checkout.ErrAuthenticationRequired
	}
	if errs := validateSubmission(sub); len(errs) > 0 {
		return nil, checkout.NewValidationError(errs)
	}
	if err := s.resolveItems(ctx, sub); err != nil {
		return nil, err
	}

	reserved := make([]models.OrderItem, 0, len(sub.OrderItems))
	for i := range sub.OrderItems {
		item := &sub.OrderItems[i]
		left, err := s.products.DecrementStock(ctx, item.ProductID, item.Quantity)
		if err != nil {
			s.release(ctx, reserved)
			return nil, err
		}
		item.StockAfter = left
		reserved = append(reserved, *item)
	}

	order := models.NewOrder(userID, sub, s.currency)
	doc, err := newOrderDocument(order)
	if err != nil {
		s.release(ctx, reserved)
		return nil, err
	}
	doc.ID = bson.NewObjectID()
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		s.release(ctx, reserved)
		return nil, fmt.Errorf("insert order: %w", err)
	}
	order.ID = doc.ID.Hex()
	return order, nil
}

func validateSubmission(sub *models.OrderSubmission) []global.ValidationError {
	if sub == nil || len(sub.OrderItems) == 0 {
		return []global.ValidationError{{Field: "orderItems", Message: checkout.ErrEmptyCart.Error(), Code: "empty_cart"}}
	}
	if errs := global.ValidateStruct(sub); len(errs) > 0 {
		return errs
	}

	var errs []global.ValidationError
	for i, item := range sub.OrderItems {
		if item.Price.IsNegative() {
			errs = append(errs, global.ValidationError{
				Field: fmt.Sprintf("orderItems[%d].price", i), Message: "price must not be negative", Code: "gte",
			})
		}
	}
	if !sub.ItemsPrice.Equal(sub.ItemsTotal()) {
		errs = append(errs, global.ValidationError{
			Field: "itemsPrice", Message: "itemsPrice does not match the order lines", Code: "mismatch",
		})
	}
	if !sub.TotalPrice.Equal(sub.ItemsPrice.Add(sub.TaxPrice).Add(sub.ShippingPrice)) {
		errs = append(errs, global.ValidationError{
			Field: "totalPrice", Message: "totalPrice does not match itemsPrice plus tax and shipping", Code: "mismatch",
		})
	}
	return errs
}

// resolveItems checks every product exists at the submitted price and fills
// descriptors the submission left out.
func (s *OrderStore) resolveItems(ctx context.Context, sub *models.OrderSubmission) error {
	var errs []global.ValidationError
	for i := range sub.OrderItems {
		item := &sub.OrderItems[i]
		product, err := s.products.GetProduct(ctx, item.ProductID)
		if errors.Is(err, ErrNotFound) {
			errs = append(errs, global.ValidationError{
				Field: fmt.Sprintf("orderItems[%d].product", i), Message: "product no longer exists", Code: "not_found",
			})
			continue
		}
		if err != nil {
			return err
		}
		if !item.Price.Equal(product.Price) {
			errs = append(errs, global.ValidationError{
				Field:   fmt.Sprintf("orderItems[%d].price", i),
				Message: fmt.Sprintf("price of %q changed to %s", product.Name, product.Price.StringFixed(2)),
				Code:    "price_changed",
			})
			continue
		}
		if item.Name == "" {
			item.Name = product.Name
		}
		if item.Image == "" {
			item.Image = product.Image
		}
		if item.Size == "" {
			item.Size = product.Size
		}
		if item.Color == "" {
			item.Color = product.Color
		}
	}
	if len(errs) > 0 {
		return checkout.NewValidationError(errs)
	}
	return nil
}

func (s *OrderStore) release(ctx context.Context, items []models.OrderItem) {
	ctx = context.WithoutCancel(ctx)
	for _, item := range items {
		if err := s.products.IncrementStock(ctx, item.ProductID, item.Quantity); err != nil {
			s.logger.Error("failed to release reserved stock",
				zap.String("product", item.ProductID),
				zap.Int("qty", item.Quantity),
				zap.Error(err))
		}
	}
}

// ListMyOrders returns the user's orders, newest first.
func (s *OrderStore) ListMyOrders(ctx context.Context, userID string) ([]models.Order, error) {
	oid, err := parseID(userID)
	if err != nil {
		return []models.Order{}, nil
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := s.coll.Find(ctx, bson.D{{Key: "user", Value: oid}}, opts)
	if err != nil {
		return nil, fmt.Errorf("find orders: %w", err)
	}
	return decodeOrders(ctx, cursor)
}

func withCustomer(match bson.D) bson.A {
	return bson.A{
		bson.D{{Key: "$match", Value: match}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}}},
		bson.D{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: UsersCollection},
			{Key: "localField", Value: "user"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "customer"},
		}}},
		bson.D{{Key: "$unwind", Value: bson.D{
			{Key: "path", Value: "$customer"},
			{Key: "preserveNullAndEmptyArrays", Value: true},
		}}},
		bson.D{{Key: "$project", Value: bson.D{{Key: "customer.password", Value: 0}}}},
	}
}

// ListOrders returns every order with its buyer, newest first.
func (s *OrderStore) ListOrders(ctx context.Context) ([]models.Order, error) {
	cursor, err := s.coll.Aggregate(ctx, withCustomer(bson.D{}))
	if err != nil {
		return nil, fmt.Errorf("aggregate orders: %w", err)
	}
	return decodeOrders(ctx, cursor)
}

func (s *OrderStore) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, ErrNotFound
	}
	cursor, err := s.coll.Aggregate(ctx, withCustomer(bson.D{{Key: "_id", Value: oid}}))
	if err != nil {
		return nil, fmt.Errorf("aggregate order %s: %w", id, err)
	}
	orders, err := decodeOrders(ctx, cursor)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, ErrNotFound
	}
	return &orders[0], nil
}

func (s *OrderStore) MarkDelivered(ctx context.Context, id string) (*models.Order, error) {
	return s.setFlag(ctx, id, "isDelivered", "deliveredAt")
}

func (s *OrderStore) MarkPaid(ctx context.Context, id string) (*models.Order, error) {
	return s.setFlag(ctx, id, "isPaid", "paidAt")
}

// setFlag sets a status flag and its timestamp once. Repeated calls keep
// the first timestamp.
func (s *OrderStore) setFlag(ctx context.Context, id, flag, stampField string) (*models.Order, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, ErrNotFound
	}
	now := time.Now().UTC()

	filter := bson.D{{Key: "_id", Value: oid}, {Key: flag, Value: bson.D{{Key: "$ne", Value: true}}}}
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: flag, Value: true},
		{Key: stampField, Value: now},
		{Key: "updatedAt", Value: now},
	}}}
	if _, err := s.coll.UpdateOne(ctx, filter, update); err != nil {
		return nil, fmt.Errorf("update order %s: %w", id, err)
	}
	return s.GetOrder(ctx, id)
}

func decodeOrders(ctx context.Context, cursor *mongo.Cursor) ([]models.Order, error) {
	defer cursor.Close(ctx)

	var docs []orderDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}
	orders := make([]models.Order, 0, len(docs))
	for i := range docs {
		orders = append(orders, docs[i].toModel())
	}
	return orders, nil
}
