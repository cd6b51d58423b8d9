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

type QueueRepo struct {
	collection *mongo.Collection
	seq        sequence
}

func NewQueueRepo(db *mongo.Database) *QueueRepo {
	return &QueueRepo{
		collection: db.Collection(queueCollection),
		seq:        newSequence(db, queueCollection),
	}
}

func (r *QueueRepo) NextID(ctx context.Context) (int64, error) {
	return r.seq.next(ctx)
}

func (r *QueueRepo) Create(ctx context.Context, entry *seating.QueueEntry) error {
	if entry == nil {
		return fmt.Errorf("queue entry is nil")
	}

	if _, err := r.collection.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("cannot create queue entry: %w", err)
	}

	return nil
}

func (r *QueueRepo) Get(ctx context.Context, id int64) (*seating.QueueEntry, error) {
	var entry seating.QueueEntry
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot get queue entry: %w", err)
	}
	return &entry, nil
}

func (r *QueueRepo) List(ctx context.Context) ([]*seating.QueueEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("cannot list queue entries: %w", err)
	}
	defer cursor.Close(ctx)

	result := []*seating.QueueEntry{}
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("cannot decode queue entries: %w", err)
	}

	return result, nil
}

func (r *QueueRepo) Save(ctx context.Context, entry *seating.QueueEntry) error {
	if entry == nil {
		return fmt.Errorf("queue entry is nil")
	}

	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": entry.ID}, entry)
	if err != nil {
		return fmt.Errorf("cannot update queue entry: %w", err)
	}

	if result.MatchedCount == 0 {
		return fmt.Errorf("queue entry not found")
	}

	return nil
}

func (r *QueueRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("cannot delete queue entry: %w", err)
	}

	if result.DeletedCount == 0 {
		return fmt.Errorf("queue entry not found")
	}

	return nil
}
