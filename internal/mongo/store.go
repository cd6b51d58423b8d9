package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/appetiteclub/apt"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	defaultURL    = "mongodb://localhost:27017"
	defaultDBName = "appetite_seating"

	tablesCollection       = "tables"
	reservationsCollection = "reservations"
	queueCollection        = "queue"
	countersCollection     = "counters"
)

// Store owns the MongoDB connection shared by the seating repositories.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	logger apt.Logger
	config *apt.Config
}

func NewStore(config *apt.Config, logger apt.Logger) *Store {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Store{
		logger: logger,
		config: config,
	}
}

func (s *Store) Start(ctx context.Context) error {
	connString := s.config.GetStringOrDef("db.mongo.url", defaultURL)
	if connString == "" {
		connString = defaultURL
	}
	dbName := s.config.GetStringOrDef("db.mongo.name", defaultDBName)
	if dbName == "" {
		dbName = defaultDBName
	}

	clientOptions := options.Client().ApplyURI(connString).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return fmt.Errorf("cannot connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("cannot ping MongoDB: %w", err)
	}

	s.client = client
	s.db = client.Database(dbName)

	if err := s.ensureIndexes(ctx); err != nil {
		return err
	}

	s.logger.Infof("Connected to MongoDB: %s, database: %s", connString, dbName)
	return nil
}

func (s *Store) Stop(ctx context.Context) error {
	if s.client != nil {
		if err := s.client.Disconnect(ctx); err != nil {
			return fmt.Errorf("cannot disconnect from MongoDB: %w", err)
		}
		s.logger.Info("Disconnected from MongoDB")
	}
	return nil
}

func (s *Store) GetDatabase() *mongo.Database {
	return s.db
}

// Drop removes the whole seating database, sequences included.
func (s *Store) Drop(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("store is not started")
	}
	if err := s.db.Drop(ctx); err != nil {
		return fmt.Errorf("cannot drop database %s: %w", s.db.Name(), err)
	}
	return nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		tablesCollection: {
			{
				Keys:    bson.D{{Key: "number", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		reservationsCollection: {
			{Keys: bson.D{{Key: "date", Value: 1}, {Key: "table_id", Value: 1}}},
			{Keys: bson.D{{Key: "table_id", Value: 1}}},
		},
		queueCollection: {
			{Keys: bson.D{{Key: "phone", Value: 1}, {Key: "state", Value: 1}}},
		},
	}

	for collection, models := range indexes {
		if _, err := s.db.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("cannot create %s indexes: %w", collection, err)
		}
	}
	return nil
}

// sequence hands out ids from a counters document that is only ever
// incremented, so deleted ids are never handed out again.
type sequence struct {
	counters *mongo.Collection
	name     string
}

func newSequence(db *mongo.Database, name string) sequence {
	return sequence{counters: db.Collection(countersCollection), name: name}
}

func (s sequence) next(ctx context.Context) (int64, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var counter struct {
		Value int64 `bson:"value"`
	}
	err := s.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": s.name},
		bson.M{"$inc": bson.M{"value": int64(1)}},
		opts,
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("cannot advance %s sequence: %w", s.name, err)
	}
	return counter.Value, nil
}
