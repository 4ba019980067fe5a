package store

import (
	"context"
	"fmt"
	"time"

	"github.com/syntrixbase/exprcheck/internal/predicate"
	"github.com/syntrixbase/exprcheck/internal/predicate/mongo"
	"github.com/syntrixbase/exprcheck/pkg/schema"
	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore queries one collection per entity.
type MongoStore struct {
	client *mongodriver.Client
	db     *mongodriver.Database
	prefix string
}

var _ Store = (*MongoStore)(nil)

// NewMongoStore connects to MongoDB and verifies the connection.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	clientOpts := options.Client().ApplyURI(cfg.URI)

	if clientOpts.ConnectTimeout == nil {
		clientOpts.SetConnectTimeout(10 * time.Second)
	}
	clientOpts.SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true})

	client, err := mongodriver.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	return &MongoStore{
		client: client,
		db:     client.Database(cfg.DatabaseName),
		prefix: cfg.FieldPrefix,
	}, nil
}

// Find renders p as a Mongo filter and queries the entity's collection.
func (s *MongoStore) Find(ctx context.Context, entity *schema.Entity, p predicate.Predicate, limit int) ([]Document, error) {
	filter, err := mongo.RenderWithPrefix(p, s.prefix)
	if err != nil {
		return nil, err
	}

	findOptions := options.Find().SetLimit(int64(clampLimit(limit)))

	cursor, err := s.db.Collection(entity.StorageName()).Find(ctx, filter, findOptions)
	if err != nil {
		return nil, WrapError(err)
	}
	defer cursor.Close(ctx)

	var raw []bson.M
	if err := cursor.All(ctx, &raw); err != nil {
		return nil, WrapError(err)
	}

	docs := make([]Document, len(raw))
	for i, m := range raw {
		docs[i] = Document(m)
	}
	return docs, nil
}

// Close disconnects the client.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
