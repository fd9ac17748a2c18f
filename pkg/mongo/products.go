package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"metitejidos.com.ar/storefront/pkg/checkout"
	"metitejidos.com.ar/storefront/pkg/models"
)

// ProductStore is the catalog and the authoritative stock ledger.
type ProductStore struct {
	coll *mongo.Collection
}

func NewProductStore(db *DB) *ProductStore {
	return &ProductStore{coll: db.Collection(ProductsCollection)}
}

// productQuery translates the shop filter into a find filter and sort.
func productQuery(f models.ProductFilter) (bson.D, bson.D) {
	filter := bson.D{}
	if search := strings.TrimSpace(f.Search); search != "" {
		filter = append(filter, bson.E{Key: "name", Value: bson.Regex{Pattern: regexp.QuoteMeta(search), Options: "i"}})
	}
	if f.Category != "" {
		filter = append(filter, bson.E{Key: "category", Value: string(f.Category)})
	}

	price := bson.D{}
	if f.MinPrice != nil {
		price = append(price, bson.E{Key: "$gte", Value: toDecimal128(*f.MinPrice)})
	}
	if f.MaxPrice != nil {
		price = append(price, bson.E{Key: "$lte", Value: toDecimal128(*f.MaxPrice)})
	}
	if len(price) > 0 {
		filter = append(filter, bson.E{Key: "price", Value: price})
	}

	var sort bson.D
	switch f.Sort {
	case models.SortPriceAsc:
		sort = bson.D{{Key: "price", Value: 1}, {Key: "_id", Value: 1}}
	case models.SortPriceDesc:
		sort = bson.D{{Key: "price", Value: -1}, {Key: "_id", Value: 1}}
	case models.SortNameAsc:
		sort = bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}
	default:
		sort = bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}
	}
	return filter, sort
}

func (s *ProductStore) ListProducts(ctx context.Context, f models.ProductFilter) ([]models.Product, error) {
	filter, sort := productQuery(f)
	cursor, err := s.coll.Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []productDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}

	products := make([]models.Product, 0, len(docs))
	for i := range docs {
		products = append(products, docs[i].toModel())
	}
	return products, nil
}

// GetProduct returns ErrNotFound for unknown or malformed ids.
func (s *ProductStore) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var doc productDocument
	if err := s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find product %s: %w", id, err)
	}
	p := doc.toModel()
	return &p, nil
}

func (s *ProductStore) CreateProduct(ctx context.Context, p *models.Product) error {
	p.ApplyDefaults()
	p.SetTimestamps()
	doc := newProductDocument(p)
	doc.ID = bson.NewObjectID()

	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	p.ID = doc.ID.Hex()
	return nil
}

// UpdateProduct applies a partial update. Only the fields present in req
// are written, so stock taken by concurrent orders is kept unless req sets
// it. It returns the updated product and the stock it had before.
func (s *ProductStore) UpdateProduct(ctx context.Context, id string, req *models.UpdateProductRequest) (*models.Product, int, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, 0, ErrNotFound
	}

	now := time.Now().UTC()
	update := bson.D{{Key: "$set", Value: productUpdate(req, now)}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.Before)

	var doc productDocument
	if err := s.coll.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: oid}}, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, 0, ErrNotFound
		}
		return nil, 0, fmt.Errorf("update product %s: %w", id, err)
	}

	updated := doc.toModel()
	stockBefore := updated.Stock
	req.Apply(&updated)
	updated.UpdatedAt = now
	return &updated, stockBefore, nil
}

// productUpdate builds the $set document for the fields present in req,
// normalized the way UpdateProductRequest.Apply normalizes them.
func productUpdate(req *models.UpdateProductRequest, now time.Time) bson.D {
	set := bson.D{}
	if req.Name != nil {
		set = append(set, bson.E{Key: "name", Value: strings.TrimSpace(*req.Name)})
	}
	if req.Description != nil {
		set = append(set, bson.E{Key: "description", Value: *req.Description})
	}
	if req.Price != nil {
		set = append(set, bson.E{Key: "price", Value: toDecimal128(*req.Price)})
	}
	if req.Stock != nil {
		set = append(set, bson.E{Key: "stock", Value: *req.Stock})
	}
	if req.Category != nil {
		category := *req.Category
		if category == "" {
			category = models.CategoryOtros
		}
		set = append(set, bson.E{Key: "category", Value: string(category)})
	}
	if req.Material != nil {
		set = append(set, bson.E{Key: "material", Value: strings.TrimSpace(*req.Material)})
	}
	if req.Size != nil {
		size := strings.TrimSpace(*req.Size)
		if size == "" {
			size = models.DefaultProductSize
		}
		set = append(set, bson.E{Key: "size", Value: size})
	}
	if req.Color != nil {
		set = append(set, bson.E{Key: "color", Value: strings.TrimSpace(*req.Color)})
	}
	if req.Image != nil {
		image := *req.Image
		if strings.TrimSpace(image) == "" {
			image = models.DefaultProductImage
		}
		set = append(set, bson.E{Key: "image", Value: image})
	}
	return append(set, bson.E{Key: "updatedAt", Value: now})
}

// DeleteProduct removes the product and returns what was stored.
func (s *ProductStore) DeleteProduct(ctx context.Context, id string) (*models.Product, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var doc productDocument
	if err := s.coll.FindOneAndDelete(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("delete product %s: %w", id, err)
	}
	p := doc.toModel()
	return &p, nil
}

func (s *ProductStore) CountProducts(ctx context.Context) (int64, error) {
	n, err := s.coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}

// DecrementStock takes qty units when at least qty remain, in one
// conditional update. It returns the stock left. A shortfall yields a
// *checkout.StockConflictError.
func (s *ProductStore) DecrementStock(ctx context.Context, id string, qty int) (int, error) {
	oid, err := parseID(id)
	if err != nil {
		return 0, ErrNotFound
	}

	filter := bson.D{
		{Key: "_id", Value: oid},
		{Key: "stock", Value: bson.D{{Key: "$gte", Value: qty}}},
	}
	update := bson.D{
		{Key: "$inc", Value: bson.D{{Key: "stock", Value: -qty}}},
		{Key: "$set", Value: bson.D{{Key: "updatedAt", Value: time.Now().UTC()}}},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc productDocument
	err = s.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if err == nil {
		return doc.Stock, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return 0, fmt.Errorf("decrement stock %s: %w", id, err)
	}

	current, err := s.GetProduct(ctx, id)
	if err != nil {
		return 0, err
	}
	return 0, &checkout.StockConflictError{
		ProductID: id,
		Name:      current.Name,
		Requested: qty,
		Available: current.Stock,
	}
}

// IncrementStock returns qty units, used to undo a partial order.
func (s *ProductStore) IncrementStock(ctx context.Context, id string, qty int) error {
	oid, err := parseID(id)
	if err != nil {
		return ErrNotFound
	}
	update := bson.D{
		{Key: "$inc", Value: bson.D{{Key: "stock", Value: qty}}},
		{Key: "$set", Value: bson.D{{Key: "updatedAt", Value: time.Now().UTC()}}},
	}
	if _, err := s.coll.UpdateOne(ctx, bson.D{{Key: "_id", Value: oid}}, update); err != nil {
		return fmt.Errorf("increment stock %s: %w", id, err)
	}
	return nil
}
