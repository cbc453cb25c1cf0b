package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Multiscale-Genomics/mg-dm-api/internal/config"
	"github.com/Multiscale-Genomics/mg-dm-api/internal/dmp"
	"github.com/Multiscale-Genomics/mg-dm-api/internal/model"
)

// entriesCollection is the document collection holding all file records.
const entriesCollection = "entries"

// MongoStore backs the catalog with a MongoDB collection, the store
// used by networked deployments. Ids are hex object ids assigned at
// insert so they stay plain strings across every backend.
type MongoStore struct {
	client  *mongo.Client
	entries *mongo.Collection
}

// NewMongoStore connects to the configured MongoDB instance and pings
// it. A connection failure here is unrecoverable for the process;
// callers are expected to fail fast rather than run against a
// half-initialised store.
func NewMongoStore(ctx context.Context, cfg config.StoreConfig) (*MongoStore, error) {
	opts := options.Client().ApplyURI(fmt.Sprintf("mongodb://%s:%d", cfg.Host, cfg.Port))
	if cfg.User != "" {
		opts.SetAuth(options.Credential{
			Username:   cfg.User,
			Password:   cfg.Password,
			AuthSource: cfg.Database,
		})
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongodb unreachable at %s:%d: %w", cfg.Host, cfg.Port, err)
	}

	return &MongoStore{
		client:  client,
		entries: client.Database(cfg.Database).Collection(entriesCollection),
	}, nil
}

func (s *MongoStore) Find(ctx context.Context, filter dmp.Filter) ([]*model.FileRecord, error) {
	cur, err := s.entries.Find(ctx, bson.M(filter))
	if err != nil {
		return nil, fmt.Errorf("finding entries: %w", err)
	}
	recs := []*model.FileRecord{}
	if err := cur.All(ctx, &recs); err != nil {
		return nil, fmt.Errorf("decoding entries: %w", err)
	}
	return recs, nil
}

func (s *MongoStore) FindOne(ctx context.Context, filter dmp.Filter) (*model.FileRecord, error) {
	var rec model.FileRecord
	err := s.entries.FindOne(ctx, bson.M(filter)).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding entry: %w", err)
	}
	return &rec, nil
}

func (s *MongoStore) Insert(ctx context.Context, rec *model.FileRecord) (string, error) {
	stored := rec.Clone()
	stored.ID = primitive.NewObjectID().Hex()
	if _, err := s.entries.InsertOne(ctx, stored); err != nil {
		return "", fmt.Errorf("inserting entry: %w", err)
	}
	return stored.ID, nil
}

func (s *MongoStore) Update(ctx context.Context, filter dmp.Filter, fields map[string]any) error {
	if _, err := s.entries.UpdateMany(ctx, bson.M(filter), bson.M{"$set": bson.M(fields)}); err != nil {
		return fmt.Errorf("updating entries: %w", err)
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, filter dmp.Filter) error {
	if _, err := s.entries.DeleteMany(ctx, bson.M(filter)); err != nil {
		return fmt.Errorf("deleting entries: %w", err)
	}
	return nil
}

// EnsureIndexes creates the composite indexes that keep attribute
// lookups sub-linear: (user_id), (user_id, file_type),
// (user_id, data_type), (user_id, taxon_id).
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: dmp.FieldUserID, Value: 1}}},
		{Keys: bson.D{{Key: dmp.FieldUserID, Value: 1}, {Key: dmp.FieldFileType, Value: 1}}},
		{Keys: bson.D{{Key: dmp.FieldUserID, Value: 1}, {Key: dmp.FieldDataType, Value: 1}}},
		{Keys: bson.D{{Key: dmp.FieldUserID, Value: 1}, {Key: dmp.FieldTaxonID, Value: 1}}},
	}
	if _, err := s.entries.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("creating entry indexes: %w", err)
	}
	return nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

var _ dmp.EntryStore = (*MongoStore)(nil)
