package storage

import (
	"context"
	stderrors "errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/plushie/pkg/cache"
	"github.com/matzehuels/plushie/pkg/errors"
	"github.com/matzehuels/plushie/pkg/graph"
)

// Mongo defaults.
const (
	DefaultMongoDatabase   = "plushie"
	DefaultMongoCollection = "results"

	mongoConnectTimeout = 10 * time.Second
)

// MongoConfig configures a MongoStore.
type MongoConfig struct {
	URI        string
	Database   string // Defaults to DefaultMongoDatabase
	Collection string // Defaults to DefaultMongoCollection
}

// MongoStore keeps results in a MongoDB collection.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	owned  bool
}

// NewMongoStore connects to MongoDB and verifies the connection.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	if cfg.URI == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "mongo uri is required")
	}
	ctx, cancel := context.WithTimeout(ctx, mongoConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "connect to mongo")
	}
	ping := func() error {
		if err := client.Ping(ctx, nil); err != nil {
			if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
				return cache.Retryable(err)
			}
			return err
		}
		return nil
	}
	if err := cache.RetryWithBackoff(ctx, ping); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "ping mongo")
	}
	s := NewMongoStoreFromClient(client, cfg.Database, cfg.Collection)
	s.owned = true
	return s, nil
}

// NewMongoStoreFromClient uses an existing client. Close does not disconnect it.
func NewMongoStoreFromClient(client *mongo.Client, database, collection string) *MongoStore {
	if database == "" {
		database = DefaultMongoDatabase
	}
	if collection == "" {
		collection = DefaultMongoCollection
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(database).Collection(collection),
	}
}

// Save implements Store.
func (s *MongoStore) Save(ctx context.Context, r *graph.Result) (string, error) {
	if err := prepare(r); err != nil {
		return "", err
	}
	opts := options.Replace().SetUpsert(true)
	if _, err := s.coll.ReplaceOne(ctx, bson.M{"_id": r.ID}, r, opts); err != nil {
		return "", errors.Wrap(errors.ErrCodeStorage, err, "save result %s", r.ID)
	}
	return r.ID, nil
}

// Get implements Store.
func (s *MongoStore) Get(ctx context.Context, id string) (*graph.Result, error) {
	var r graph.Result
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&r)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "get result %s", id)
	}
	return &r, nil
}

// List implements Store. The node count is computed by the server so the
// graphs are never transferred.
func (s *MongoStore) List(ctx context.Context, limit int) ([]graph.Summary, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}}},
		{{Key: "$limit", Value: listLimit(limit)}},
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 1},
			{Key: "steps", Value: 1},
			{Key: "relaxed", Value: 1},
			{Key: "created_at", Value: 1},
			{Key: "nodes", Value: bson.D{{Key: "$size", Value: "$graph.nodes"}}},
		}}},
	}
	cur, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "list results")
	}
	defer cur.Close(ctx)

	summaries := []graph.Summary{}
	if err := cur.All(ctx, &summaries); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "decode results")
	}
	return summaries, nil
}

// Delete implements Store.
func (s *MongoStore) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "delete result %s", id)
	}
	if res.DeletedCount == 0 {
		return notFound(id)
	}
	return nil
}

// Close disconnects the client if the store created it.
func (s *MongoStore) Close() error {
	if !s.owned {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), mongoConnectTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
