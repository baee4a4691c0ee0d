package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"todo-manager/internal/config"
	"todo-manager/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const opTimeout = 10 * time.Second

// Connect opens a client and verifies connectivity with a ping.
func Connect(cfg config.MongoConfig) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongodb ping failed: %w", err)
	}
	return client, nil
}

// MongoStore persists todos in a single collection.
type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(client *mongo.Client, database string) *MongoStore {
	return &MongoStore{coll: client.Database(database).Collection("todos")}
}

// EnsureIndexes creates the owner-scoped secondary indexes used by list,
// stats and the per-owner filters.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "userEmail", Value: 1}}},
		{Keys: bson.D{{Key: "userEmail", Value: 1}, {Key: "completed", Value: 1}}},
		{Keys: bson.D{{Key: "userEmail", Value: 1}, {Key: "dueDate", Value: 1}}},
		{Keys: bson.D{{Key: "userEmail", Value: 1}, {Key: "priority", Value: 1}}},
	}
	_, err := s.coll.Indexes().CreateMany(ctx, indexes)
	return err
}

func (s *MongoStore) List(ctx context.Context, owner string) ([]models.Todo, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := s.coll.Find(ctx, bson.M{"userEmail": owner}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query todos: %w", err)
	}
	defer cursor.Close(ctx)

	todos := []models.Todo{}
	if err := cursor.All(ctx, &todos); err != nil {
		return nil, fmt.Errorf("failed to decode todos: %w", err)
	}
	return todos, nil
}

func (s *MongoStore) Get(ctx context.Context, id, owner string) (*models.Todo, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, models.ErrNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var todo models.Todo
	err = s.coll.FindOne(ctx, bson.M{"_id": oid, "userEmail": owner}).Decode(&todo)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load todo: %w", err)
	}
	return &todo, nil
}

func (s *MongoStore) Insert(ctx context.Context, todo *models.Todo) error {
	if todo.ID.IsZero() {
		todo.ID = primitive.NewObjectID()
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if _, err := s.coll.InsertOne(ctx, todo); err != nil {
		return fmt.Errorf("failed to insert todo: %w", err)
	}
	return nil
}

func (s *MongoStore) Replace(ctx context.Context, todo *models.Todo) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	filter := bson.M{"_id": todo.ID, "userEmail": todo.OwnerEmail}
	result, err := s.coll.ReplaceOne(ctx, filter, todo)
	if err != nil {
		return fmt.Errorf("failed to update todo: %w", err)
	}
	if result.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, id, owner string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.ErrNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	err = s.coll.FindOneAndDelete(ctx, bson.M{"_id": oid, "userEmail": owner}).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete todo: %w", err)
	}
	return nil
}

func (s *MongoStore) Stats(ctx context.Context, owner string, now time.Time) (*models.Stats, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "userEmail", Value: owner}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "total", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "completed", Value: bson.D{{Key: "$sum", Value: bson.D{
				{Key: "$cond", Value: bson.A{"$completed", 1, 0}},
			}}}},
			{Key: "pending", Value: bson.D{{Key: "$sum", Value: bson.D{
				{Key: "$cond", Value: bson.A{"$completed", 0, 1}},
			}}}},
			{Key: "highPriority", Value: bson.D{{Key: "$sum", Value: bson.D{
				{Key: "$cond", Value: bson.A{
					bson.D{{Key: "$eq", Value: bson.A{"$priority", string(models.PriorityHigh)}}}, 1, 0,
				}},
			}}}},
			{Key: "overdue", Value: bson.D{{Key: "$sum", Value: bson.D{
				{Key: "$cond", Value: bson.A{
					bson.D{{Key: "$and", Value: bson.A{
						bson.D{{Key: "$ne", Value: bson.A{"$dueDate", nil}}},
						bson.D{{Key: "$lt", Value: bson.A{"$dueDate", now}}},
						bson.D{{Key: "$eq", Value: bson.A{"$completed", false}}},
					}}}, 1, 0,
				}},
			}}}},
		}}},
	}

	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate stats: %w", err)
	}
	defer cursor.Close(ctx)

	var results []models.Stats
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode stats: %w", err)
	}
	if len(results) == 0 {
		return &models.Stats{}, nil
	}
	return &results[0], nil
}
