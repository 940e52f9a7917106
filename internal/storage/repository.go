package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fintrack/internal/core"
	applog "fintrack/internal/log"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// TransactionsCollection is the backing collection name.
const TransactionsCollection = "transactions"

// ErrNotFound is returned when no transaction matches the given identifier.
var ErrNotFound = errors.New("transaction not found")

// Repository is the Mongo-backed transaction store. Each operation is a
// single document-level command; atomicity beyond that is not provided.
type Repository struct {
	coll   *mongo.Collection
	logger *applog.Logger
}

func NewRepository(db *mongo.Database, logger *applog.Logger) *Repository {
	return &Repository{
		coll:   db.Collection(TransactionsCollection),
		logger: logger.WithComponent(applog.ComponentStorage),
	}
}

// transactionDoc is the stored document shape. Amounts are integer cents so
// pipeline sums stay exact.
type transactionDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Kind        string             `bson:"type"`
	AmountCents int64              `bson:"amount_cents"`
	Description string             `bson:"description"`
	Category    string             `bson:"category"`
	Date        time.Time          `bson:"date"`
	CreatedAt   time.Time          `bson:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"`
}

func (d transactionDoc) toCore() core.Transaction {
	return core.Transaction{
		ID:          d.ID.Hex(),
		Kind:        core.Kind(d.Kind),
		AmountCents: d.AmountCents,
		Description: d.Description,
		Category:    core.Category(d.Category),
		Date:        d.Date,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return oid, nil
}

// Insert persists a new transaction and returns it with the assigned
// identifier and audit timestamps.
func (r *Repository) Insert(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	now := time.Now().UTC()
	doc := transactionDoc{
		Kind:        string(t.Kind),
		AmountCents: t.AmountCents,
		Description: t.Description,
		Category:    string(t.Category),
		Date:        t.Date,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	doc.ID = res.InsertedID.(primitive.ObjectID)

	r.logger.InfoContext(ctx, "Transaction saved",
		"id", doc.ID.Hex(),
		"type", doc.Kind,
		"amount_cents", doc.AmountCents,
		"category", doc.Category)

	return doc.toCore(), nil
}

// Get fetches one transaction by identifier.
func (r *Repository) Get(ctx context.Context, id string) (core.Transaction, error) {
	oid, err := objectID(id)
	if err != nil {
		return core.Transaction{}, err
	}

	var doc transactionDoc
	err = r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return core.Transaction{}, ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("find transaction: %w", err)
	}
	return doc.toCore(), nil
}

// Replace applies a full-record update, preserving created_at and refreshing
// updated_at. Returns the updated record or ErrNotFound.
func (r *Repository) Replace(ctx context.Context, id string, t core.Transaction) (core.Transaction, error) {
	oid, err := objectID(id)
	if err != nil {
		return core.Transaction{}, err
	}

	update := bson.M{"$set": bson.M{
		"type":         string(t.Kind),
		"amount_cents": t.AmountCents,
		"description":  t.Description,
		"category":     string(t.Category),
		"date":         t.Date,
		"updated_at":   time.Now().UTC(),
	}}

	var doc transactionDoc
	err = r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return core.Transaction{}, ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}

	r.logger.InfoContext(ctx, "Transaction updated", "id", id)
	return doc.toCore(), nil
}

// Delete hard-deletes one transaction by identifier.
func (r *Repository) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}

	r.logger.InfoContext(ctx, "Transaction deleted", "id", id)
	return nil
}

// List returns one page of matching transactions, newest date first. The
// _id tiebreak keeps page boundaries stable between requests.
func (r *Repository) List(ctx context.Context, f core.Filter, page, limit int) ([]core.Transaction, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cur, err := r.coll.Find(ctx, BuildMatch(f), opts)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer cur.Close(ctx)

	var docs []transactionDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode transactions: %w", err)
	}

	out := make([]core.Transaction, len(docs))
	for i, d := range docs {
		out[i] = d.toCore()
	}
	return out, nil
}

// Count returns the number of transactions matching the filter.
func (r *Repository) Count(ctx context.Context, f core.Filter) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, BuildMatch(f))
	if err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

type kindGroup struct {
	Kind  string `bson:"_id"`
	Total int64  `bson:"total"`
	Count int64  `bson:"count"`
}

// Summary groups the filtered set by kind and reduces it to income/expense
// totals and counts. It runs over exactly the predicate List uses.
func (r *Repository) Summary(ctx context.Context, f core.Filter) (core.Summary, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: BuildMatch(f)}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$type",
			"total": bson.M{"$sum": "$amount_cents"},
			"count": bson.M{"$sum": 1},
		}}},
	}

	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return core.Summary{}, fmt.Errorf("aggregate summary: %w", err)
	}
	defer cur.Close(ctx)

	var rows []kindGroup
	if err := cur.All(ctx, &rows); err != nil {
		return core.Summary{}, fmt.Errorf("decode summary groups: %w", err)
	}

	groups := make([]core.KindTotal, len(rows))
	for i, row := range rows {
		groups[i] = core.KindTotal{Kind: core.Kind(row.Kind), TotalCents: row.Total, Count: row.Count}
	}
	return core.ReduceSummary(groups), nil
}

type categoryGroup struct {
	ID struct {
		Category string `bson:"category"`
		Kind     string `bson:"type"`
	} `bson:"_id"`
	Total int64 `bson:"total"`
	Count int64 `bson:"count"`
}

// Breakdown groups the filtered set by (category, kind) and regroups per
// kind with percentage shares. The in-pipeline sort keeps category order
// stable within a call.
func (r *Repository) Breakdown(ctx context.Context, f core.Filter) ([]core.KindBreakdown, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: BuildMatch(f)}},
		{{Key: "$group", Value: bson.M{
			"_id":   bson.M{"category": "$category", "type": "$type"},
			"total": bson.M{"$sum": "$amount_cents"},
			"count": bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.D{
			{Key: "_id.type", Value: 1},
			{Key: "_id.category", Value: 1},
		}}},
	}

	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate breakdown: %w", err)
	}
	defer cur.Close(ctx)

	var rows []categoryGroup
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode breakdown groups: %w", err)
	}

	groups := make([]core.CategoryTotal, len(rows))
	for i, row := range rows {
		groups[i] = core.CategoryTotal{
			Kind:       core.Kind(row.ID.Kind),
			Category:   core.Category(row.ID.Category),
			TotalCents: row.Total,
			Count:      row.Count,
		}
	}
	return core.BuildBreakdown(groups), nil
}
