package history

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const collectionName = "search_history"

// MongoStore persists search history in a single MongoDB collection.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoStore wraps an already-connected client. The collection is created
// lazily by the first insert.
func NewMongoStore(client *mongo.Client, dbName string) *MongoStore {
	return &MongoStore{
		client:     client,
		collection: client.Database(dbName).Collection(collectionName),
	}
}

// Record inserts one entry, generating the id and timestamp if unset.
func (s *MongoStore) Record(ctx context.Context, e Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	if _, err := s.collection.InsertOne(ctx, e); err != nil {
		return fmt.Errorf("insert search history: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *MongoStore) Recent(ctx context.Context, limit int) ([]Entry, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "search_timestamp", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := s.collection.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find search history: %w", err)
	}
	defer cursor.Close(ctx)

	entries := make([]Entry, 0, limit)
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("decode search history: %w", err)
	}
	return entries, nil
}

// Popular runs the group/count/max aggregation over the whole log.
func (s *MongoStore) Popular(ctx context.Context, limit int) ([]PopularCity, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.D{
				{Key: "city_name", Value: "$city_name"},
				{Key: "country", Value: "$country"},
				{Key: "region", Value: "$region"},
			}},
			{Key: "search_count", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "last_searched", Value: bson.D{{Key: "$max", Value: "$search_timestamp"}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "search_count", Value: -1}}}},
		{{Key: "$limit", Value: limit}},
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "city_name", Value: "$_id.city_name"},
			{Key: "country", Value: "$_id.country"},
			{Key: "region", Value: "$_id.region"},
			{Key: "search_count", Value: 1},
			{Key: "last_searched", Value: 1},
		}}},
	}

	cursor, err := s.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate popular cities: %w", err)
	}
	defer cursor.Close(ctx)

	cities := make([]PopularCity, 0, limit)
	if err := cursor.All(ctx, &cities); err != nil {
		return nil, fmt.Errorf("decode popular cities: %w", err)
	}
	return cities, nil
}

// Ping checks connectivity against the primary.
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}
