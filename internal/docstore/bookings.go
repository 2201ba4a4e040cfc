// Package docstore persists processed bookings and generated documents in
// MongoDB. It is the system of record for everything the allocation run
// produced; the head-office database only learns the campground id.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/pkordes/campsite-booking/internal/domain"
)

// Collection names inside the configured database.
const (
	BookingsCollection  = "bookings"
	DocumentsCollection = "documents"
)

// Bookings is the document-store contract the services depend on.
type Bookings interface {
	// Insert stores b unless a booking with the same id is already stored.
	// It reports whether a new document was written.
	Insert(ctx context.Context, b domain.Booking) (bool, error)

	// Exists reports whether a booking with bookingID is stored.
	Exists(ctx context.Context, bookingID int64) (bool, error)

	// Get returns domain.ErrNotFound if the booking is not stored.
	Get(ctx context.Context, bookingID int64) (domain.BookingRecord, error)

	// List returns one page ordered by booking id, plus the total count.
	List(ctx context.Context, p domain.PaginationParams) ([]domain.BookingRecord, int64, error)

	All(ctx context.Context) ([]domain.BookingRecord, error)
}

// bookingDoc is the stored shape of a processed booking.
type bookingDoc struct {
	ObjectID     primitive.ObjectID `bson:"_id,omitempty"`
	ID           string             `bson:"id"`
	BookingID    int64              `bson:"booking_id"`
	CustomerID   int64              `bson:"customer_id"`
	CustomerName string             `bson:"customer_name"`
	BookingDate  string             `bson:"booking_date"`
	ArrivalDate  string             `bson:"arrival_date"`
	CampsiteSize string             `bson:"campsite_size"`
	NumCampsites int                `bson:"num_campsites"`
	CampgroundID int64              `bson:"campground_id"`
	CampsiteID   *int               `bson:"campsite_id"`
	TotalCost    float64            `bson:"total_cost"`
	CheckIn      string             `bson:"check_in,omitempty"`
	CheckOut     string             `bson:"check_out,omitempty"`
	UpdatedAt    time.Time          `bson:"updated_at"`
}

func toBookingDoc(b domain.Booking, now time.Time) bookingDoc {
	rec := b.Record()
	return bookingDoc{
		BookingID:    rec.BookingID,
		CustomerID:   rec.CustomerID,
		CustomerName: rec.CustomerName,
		BookingDate:  rec.BookingDate,
		ArrivalDate:  rec.ArrivalDate,
		CampsiteSize: rec.CampsiteSize,
		NumCampsites: rec.NumCampsites,
		CampgroundID: rec.CampgroundID,
		CampsiteID:   rec.CampsiteID,
		TotalCost:    rec.TotalCost,
		CheckIn:      rec.CheckIn,
		CheckOut:     rec.CheckOut,
		UpdatedAt:    now.UTC(),
	}
}

func (d bookingDoc) record() domain.BookingRecord {
	return domain.BookingRecord{
		BookingID:    d.BookingID,
		CustomerID:   d.CustomerID,
		CustomerName: d.CustomerName,
		BookingDate:  d.BookingDate,
		ArrivalDate:  d.ArrivalDate,
		CampsiteSize: d.CampsiteSize,
		NumCampsites: d.NumCampsites,
		CampgroundID: d.CampgroundID,
		CampsiteID:   d.CampsiteID,
		TotalCost:    d.TotalCost,
		CheckIn:      d.CheckIn,
		CheckOut:     d.CheckOut,
	}
}

// BookingStore is the MongoDB implementation of Bookings.
type BookingStore struct {
	coll *mongo.Collection
	now  func() time.Time
}

// NewBookingStore returns a store over the bookings collection of db.
func NewBookingStore(db *mongo.Database) *BookingStore {
	return &BookingStore{coll: db.Collection(BookingsCollection), now: time.Now}
}

// EnsureIndexes creates the unique booking_id index. Safe to call on every
// start-up.
func (s *BookingStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "booking_id", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("booking_id_unique"),
	})
	if err != nil {
		return fmt.Errorf("docstore.BookingStore.EnsureIndexes: %w", err)
	}
	return nil
}

// Exists reports whether a booking with bookingID is stored.
func (s *BookingStore) Exists(ctx context.Context, bookingID int64) (bool, error) {
	n, err := s.coll.CountDocuments(ctx, bson.M{"booking_id": bookingID}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("docstore.BookingStore.Exists: %w", err)
	}
	return n > 0, nil
}

func (s *BookingStore) Insert(ctx context.Context, b domain.Booking) (bool, error) {
	if b.BookingID <= 0 {
		return false, fmt.Errorf("docstore.BookingStore.Insert: %w: booking_id is required", domain.ErrValidation)
	}

	exists, err := s.Exists(ctx, b.BookingID)
	if err != nil {
		return false, fmt.Errorf("docstore.BookingStore.Insert: %w", err)
	}
	if exists {
		return false, nil
	}

	doc := toBookingDoc(b, s.now())
	doc.ID = uuid.NewString()
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		// A concurrent writer won the unique index.
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, fmt.Errorf("docstore.BookingStore.Insert: booking %d: %w", b.BookingID, err)
	}
	return true, nil
}

func (s *BookingStore) Get(ctx context.Context, bookingID int64) (domain.BookingRecord, error) {
	var doc bookingDoc
	err := s.coll.FindOne(ctx, bson.M{"booking_id": bookingID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.BookingRecord{}, fmt.Errorf("docstore.BookingStore.Get: booking %d: %w", bookingID, domain.ErrNotFound)
		}
		return domain.BookingRecord{}, fmt.Errorf("docstore.BookingStore.Get: %w", err)
	}
	return doc.record(), nil
}

func (s *BookingStore) List(ctx context.Context, p domain.PaginationParams) ([]domain.BookingRecord, int64, error) {
	total, err := s.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, fmt.Errorf("docstore.BookingStore.List: count: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "booking_id", Value: 1}}).
		SetSkip(int64(p.Offset())).
		SetLimit(int64(p.Limit))

	records, err := s.find(ctx, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("docstore.BookingStore.List: %w", err)
	}
	return records, total, nil
}

func (s *BookingStore) All(ctx context.Context) ([]domain.BookingRecord, error) {
	records, err := s.find(ctx, options.Find().SetSort(bson.D{{Key: "booking_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("docstore.BookingStore.All: %w", err)
	}
	return records, nil
}

func (s *BookingStore) find(ctx context.Context, opts *options.FindOptions) ([]domain.BookingRecord, error) {
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}

	var docs []bookingDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	records := make([]domain.BookingRecord, 0, len(docs))
	for _, d := range docs {
		records = append(records, d.record())
	}
	return records, nil
}
