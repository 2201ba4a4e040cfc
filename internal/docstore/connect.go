package docstore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Connect opens a client against uri and verifies it with a ping.
// The caller owns the returned client and must Disconnect it.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("docstore.Connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("docstore.Connect: ping: %w", err)
	}
	return client, nil
}

// EnsureIndexes creates the indexes of both collections.
func EnsureIndexes(ctx context.Context, bookings *BookingStore, documents *DocumentStore) error {
	if err := bookings.EnsureIndexes(ctx); err != nil {
		return err
	}
	return documents.EnsureIndexes(ctx)
}
