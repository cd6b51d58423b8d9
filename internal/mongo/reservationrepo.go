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

type ReservationRepo struct {
	collection *mongo.Collection
	seq        sequence
}

func NewReservationRepo(db *mongo.Database) *ReservationRepo {
	return &ReservationRepo{
		collection: db.Collection(reservationsCollection),
		seq:        newSequence(db, reservationsCollection),
	}
}

func (r *ReservationRepo) NextID(ctx context.Context) (int64, error) {
	return r.seq.next(ctx)
}

func (r *ReservationRepo) Create(ctx context.Context, reservation *seating.Reservation) error {
	if reservation == nil {
		return fmt.Errorf("reservation is nil")
	}

	if _, err := r.collection.InsertOne(ctx, reservation); err != nil {
		return fmt.Errorf("cannot create reservation: %w", err)
	}

	return nil
}

func (r *ReservationRepo) Get(ctx context.Context, id int64) (*seating.Reservation, error) {
	var reservation seating.Reservation
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&reservation)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot get reservation: %w", err)
	}
	return &reservation, nil
}

func (r *ReservationRepo) List(ctx context.Context) ([]*seating.Reservation, error) {
	return r.find(ctx, bson.M{})
}

func (r *ReservationRepo) ListByDate(ctx context.Context, date string) ([]*seating.Reservation, error) {
	return r.find(ctx, bson.M{"date": date})
}

func (r *ReservationRepo) ListByTable(ctx context.Context, tableID int64) ([]*seating.Reservation, error) {
	return r.find(ctx, bson.M{"table_id": tableID})
}

func (r *ReservationRepo) find(ctx context.Context, filter bson.M) ([]*seating.Reservation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("cannot list reservations: %w", err)
	}
	defer cursor.Close(ctx)

	result := []*seating.Reservation{}
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("cannot decode reservations: %w", err)
	}

	return result, nil
}

func (r *ReservationRepo) Save(ctx context.Context, reservation *seating.Reservation) error {
	if reservation == nil {
		return fmt.Errorf("reservation is nil")
	}

	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": reservation.ID}, reservation)
	if err != nil {
		return fmt.Errorf("cannot update reservation: %w", err)
	}

	if result.MatchedCount == 0 {
		return fmt.Errorf("reservation not found")
	}

	return nil
}

func (r *ReservationRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("cannot delete reservation: %w", err)
	}

	if result.DeletedCount == 0 {
		return fmt.Errorf("reservation not found")
	}

	return nil
}
