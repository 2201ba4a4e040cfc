package docstore

import (
	"context"

	"github.com/pkordes/campsite-booking/internal/domain"
	"github.com/pkordes/campsite-booking/internal/retry"
)

// WithRetry wraps every call on b in policy.
func WithRetry(b Bookings, policy retry.Policy) Bookings {
	return &retryingBookings{next: b, policy: policy}
}

// DocumentsWithRetry wraps every call on d in policy.
func DocumentsWithRetry(d Documents, policy retry.Policy) Documents {
	return &retryingDocuments{next: d, policy: policy}
}

type retryingBookings struct {
	next   Bookings
	policy retry.Policy
}

func (r *retryingBookings) Insert(ctx context.Context, b domain.Booking) (bool, error) {
	var inserted bool
	err := r.policy.Do(ctx, "docstore.Insert", func(ctx context.Context) error {
		var err error
		inserted, err = r.next.Insert(ctx, b)
		return err
	})
	return inserted, err
}

func (r *retryingBookings) Exists(ctx context.Context, bookingID int64) (bool, error) {
	var exists bool
	err := r.policy.Do(ctx, "docstore.Exists", func(ctx context.Context) error {
		var err error
		exists, err = r.next.Exists(ctx, bookingID)
		return err
	})
	return exists, err
}

func (r *retryingBookings) Get(ctx context.Context, bookingID int64) (domain.BookingRecord, error) {
	var rec domain.BookingRecord
	err := r.policy.Do(ctx, "docstore.Get", func(ctx context.Context) error {
		var err error
		rec, err = r.next.Get(ctx, bookingID)
		return err
	})
	return rec, err
}

func (r *retryingBookings) List(ctx context.Context, p domain.PaginationParams) ([]domain.BookingRecord, int64, error) {
	var (
		recs  []domain.BookingRecord
		total int64
	)
	err := r.policy.Do(ctx, "docstore.List", func(ctx context.Context) error {
		var err error
		recs, total, err = r.next.List(ctx, p)
		return err
	})
	return recs, total, err
}

func (r *retryingBookings) All(ctx context.Context) ([]domain.BookingRecord, error) {
	var recs []domain.BookingRecord
	err := r.policy.Do(ctx, "docstore.All", func(ctx context.Context) error {
		var err error
		recs, err = r.next.All(ctx)
		return err
	})
	return recs, err
}

type retryingDocuments struct {
	next   Documents
	policy retry.Policy
}

func (r *retryingDocuments) Upsert(ctx context.Context, doc domain.Document) error {
	return r.policy.Do(ctx, "docstore.UpsertDocument", func(ctx context.Context) error {
		return r.next.Upsert(ctx, doc)
	})
}

func (r *retryingDocuments) Get(ctx context.Context, key string) (domain.Document, error) {
	var doc domain.Document
	err := r.policy.Do(ctx, "docstore.GetDocument", func(ctx context.Context) error {
		var err error
		doc, err = r.next.Get(ctx, key)
		return err
	})
	return doc, err
}
