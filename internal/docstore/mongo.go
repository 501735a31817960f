package docstore

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoCollection[T any, P Doc[T]] struct {
	coll *mongo.Collection
}

// NewMongoCollection returns the named collection of db and makes sure a unique index exists
// for every field in unique.
func NewMongoCollection[T any, P Doc[T]](ctx context.Context, db *mongo.Database, name string, unique ...string) (Collection[T], error) {
	coll := db.Collection(name)

	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	}
	for _, field := range unique {
		models = append(models, mongo.IndexModel{
			Keys:    bson.D{{Key: field, Value: 1}},
			Options: options.Index().SetUnique(true),
		})
	}

	if _, err := coll.Indexes().CreateMany(ctx, models); err != nil {
		return nil, fmt.Errorf("could not create indexes on %s: %w", name, err)
	}

	return &mongoCollection[T, P]{coll: coll}, nil
}

func mongoFilter(f Filter) bson.D {
	d := bson.D{}
	if f.Field != "" {
		d = append(d, bson.E{Key: f.Field, Value: f.Value})
	}
	if f.ExcludeID != "" {
		d = append(d, bson.E{Key: IDField, Value: bson.D{{Key: "$ne", Value: f.ExcludeID}}})
	}
	return d
}

func (c *mongoCollection[T, P]) Find(ctx context.Context, filter Filter, page Page) ([]T, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: IDField, Value: -1}}).
		SetSkip(page.Skip)
	if page.Limit > 0 {
		opts.SetLimit(page.Limit)
	}

	cur, err := c.coll.Find(ctx, mongoFilter(filter), opts)
	if err != nil {
		return nil, err
	}

	docs := []T{}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	return docs, nil
}

func (c *mongoCollection[T, P]) Count(ctx context.Context, filter Filter) (int64, error) {
	return c.coll.CountDocuments(ctx, mongoFilter(filter))
}

func (c *mongoCollection[T, P]) FindOne(ctx context.Context, filter Filter) (T, error) {
	var doc T

	err := c.coll.FindOne(ctx, mongoFilter(filter)).Decode(&doc)
	if err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			return doc, ErrNotFound
		default:
			return doc, err
		}
	}

	return doc, nil
}

func (c *mongoCollection[T, P]) Create(ctx context.Context, doc T) (T, error) {
	stamp[T, P](&doc)

	_, err := c.coll.InsertOne(ctx, doc)
	if err != nil {
		var zero T
		switch {
		case mongo.IsDuplicateKeyError(err):
			return zero, ErrDuplicate
		default:
			return zero, err
		}
	}

	return doc, nil
}

func (c *mongoCollection[T, P]) Save(ctx context.Context, doc T) (T, error) {
	touch[T, P](&doc)
	id := P(&doc).Metadata().ID

	res, err := c.coll.ReplaceOne(ctx, bson.D{{Key: IDField, Value: id}}, doc)
	if err != nil {
		var zero T
		switch {
		case mongo.IsDuplicateKeyError(err):
			return zero, ErrDuplicate
		default:
			return zero, err
		}
	}

	if res.MatchedCount == 0 {
		var zero T
		return zero, ErrNotFound
	}

	return doc, nil
}

func (c *mongoCollection[T, P]) DeleteOne(ctx context.Context, filter Filter) error {
	res, err := c.coll.DeleteOne(ctx, mongoFilter(filter))
	if err != nil {
		return err
	}

	if res.DeletedCount == 0 {
		return ErrNotFound
	}

	return nil
}
