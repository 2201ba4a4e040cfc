package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/pkordes/campsite-booking/internal/domain"
)

// Documents stores generated PDFs keyed by Document.Key.
type Documents interface {
	Upsert(ctx context.Context, doc domain.Document) error
	Get(ctx context.Context, key string) (domain.Document, error)
}

// documentDoc keeps the raw PDF bytes as BSON binary.
type documentDoc struct {
	Key       string    `bson:"key"`
	Filename  string    `bson:"filename"`
	Data      []byte    `bson:"data"`
	CreatedAt time.Time `bson:"created_at"`
}

// DocumentStore is the MongoDB implementation of Documents.
type DocumentStore struct {
	coll *mongo.Collection
}

// NewDocumentStore returns a store over the documents collection of db.
func NewDocumentStore(db *mongo.Database) *DocumentStore {
	return &DocumentStore{coll: db.Collection(DocumentsCollection)}
}

// EnsureIndexes creates the unique key index.
func (s *DocumentStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "key", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("key_unique"),
	})
	if err != nil {
		return fmt.Errorf("docstore.DocumentStore.EnsureIndexes: %w", err)
	}
	return nil
}

// Upsert creates or replaces the document stored under doc.Key.
func (s *DocumentStore) Upsert(ctx context.Context, doc domain.Document) error {
	if doc.Key == "" {
		return fmt.Errorf("docstore.DocumentStore.Upsert: %w: document key is required", domain.ErrValidation)
	}
	created := doc.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	d := documentDoc{Key: doc.Key, Filename: doc.Filename, Data: doc.Data, CreatedAt: created.UTC()}
	_, err := s.coll.ReplaceOne(ctx, bson.M{"key": doc.Key}, d, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("docstore.DocumentStore.Upsert: %s: %w", doc.Key, err)
	}
	return nil
}

// Get returns domain.ErrNotFound if nothing is stored under key.
func (s *DocumentStore) Get(ctx context.Context, key string) (domain.Document, error) {
	var d documentDoc
	if err := s.coll.FindOne(ctx, bson.M{"key": key}).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Document{}, fmt.Errorf("docstore.DocumentStore.Get: %s: %w", key, domain.ErrNotFound)
		}
		return domain.Document{}, fmt.Errorf("docstore.DocumentStore.Get: %w", err)
	}
	return domain.Document{Key: d.Key, Filename: d.Filename, Data: d.Data, CreatedAt: d.CreatedAt}, nil
}
