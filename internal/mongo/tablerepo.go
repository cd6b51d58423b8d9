package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/appetiteclub/seating/internal/seating"
)

type TableRepo struct {
	collection *mongo.Collection
	seq        sequence
}

func NewTableRepo(db *mongo.Database) *TableRepo {
	return &TableRepo{
		collection: db.Collection(tablesCollection),
		seq:        newSequence(db, tablesCollection),
	}
}

func (r *TableRepo) NextID(ctx context.Context) (int64, error) {
	return r.seq.next(ctx)
}

func (r *TableRepo) Create(ctx context.Context, table *seating.Table) error {
	if table == nil {
		return fmt.Errorf("table is nil")
	}

	if _, err := r.collection.InsertOne(ctx, table); err != nil {
		return fmt.Errorf("cannot create table: %w", err)
	}

	return nil
}

func (r *TableRepo) Get(ctx context.Context, id int64) (*seating.Table, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *TableRepo) GetByNumber(ctx context.Context, number string) (*seating.Table, error) {
	return r.findOne(ctx, bson.M{"number": number})
}

func (r *TableRepo) findOne(ctx context.Context, filter bson.M) (*seating.Table, error) {
	var table seating.Table
	err := r.collection.FindOne(ctx, filter).Decode(&table)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot get table: %w", err)
	}
	return &table, nil
}

func (r *TableRepo) List(ctx context.Context) ([]*seating.Table, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("cannot list tables: %w", err)
	}
	defer cursor.Close(ctx)

	result := []*seating.Table{}
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("cannot decode tables: %w", err)
	}

	return result, nil
}

func (r *TableRepo) Save(ctx context.Context, table *seating.Table) error {
	if table == nil {
		return fmt.Errorf("table is nil")
	}

	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": table.ID}, table)
	if err != nil {
		return fmt.Errorf("cannot update table: %w", err)
	}

	if result.MatchedCount == 0 {
		return fmt.Errorf("table not found")
	}

	return nil
}

func (r *TableRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("cannot delete table: %w", err)
	}

	if result.DeletedCount == 0 {
		return fmt.Errorf("table not found")
	}

	return nil
}
