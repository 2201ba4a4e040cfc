package repo

import (
	"context"

	"github.com/pkordes/campsite-booking/internal/domain"
	"github.com/pkordes/campsite-booking/internal/retry"
)

// BookingsWithRetry wraps every call on r in policy.
func BookingsWithRetry(r BookingRepo, policy retry.Policy) BookingRepo {
	return &retryingBookingRepo{next: r, policy: policy}
}

// SummariesWithRetry wraps every call on r in policy.
func SummariesWithRetry(r SummaryRepo, policy retry.Policy) SummaryRepo {
	return &retryingSummaryRepo{next: r, policy: policy}
}

type retryingBookingRepo struct {
	next   BookingRepo
	policy retry.Policy
}

func (r *retryingBookingRepo) ListByCampground(ctx context.Context, campgroundID int64) ([]domain.BookingRecord, error) {
	var recs []domain.BookingRecord
	err := r.policy.Do(ctx, "repo.ListByCampground", func(ctx context.Context) error {
		var err error
		recs, err = r.next.ListByCampground(ctx, campgroundID)
		return err
	})
	return recs, err
}

func (r *retryingBookingRepo) AssignCampground(ctx context.Context, bookingID, campgroundID int64) error {
	return r.policy.Do(ctx, "repo.AssignCampground", func(ctx context.Context) error {
		return r.next.AssignCampground(ctx, bookingID, campgroundID)
	})
}

type retryingSummaryRepo struct {
	next   SummaryRepo
	policy retry.Policy
}

func (r *retryingSummaryRepo) Create(ctx context.Context, s domain.Summary) (int64, error) {
	var id int64
	err := r.policy.Do(ctx, "repo.CreateSummary", func(ctx context.Context) error {
		var err error
		id, err = r.next.Create(ctx, s)
		return err
	})
	return id, err
}
