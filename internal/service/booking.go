package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/pkordes/campsite-booking/internal/domain"
)

// BookingSource supplies raw booking records from the head-office database.
type BookingSource interface {
	ListByCampground(ctx context.Context, campgroundID int64) ([]domain.BookingRecord, error)
}

// BookingReader reads processed bookings back from the document store.
type BookingReader interface {
	Get(ctx context.Context, bookingID int64) (domain.BookingRecord, error)
	List(ctx context.Context, p domain.PaginationParams) ([]domain.BookingRecord, int64, error)
	All(ctx context.Context) ([]domain.BookingRecord, error)
}

// BookingService ties the head-office source, the batch processor and the
// document store together.
type BookingService struct {
	source           BookingSource
	sourceCampground int64
	processor        *Processor
	reader           BookingReader
	confirmer        Confirmer
	log              *slog.Logger
}

// NewBookingService constructs a BookingService. sourceCampground selects
// which head-office bookings are pending for this campground.
func NewBookingService(source BookingSource, sourceCampground int64, processor *Processor, reader BookingReader, confirmer Confirmer, log *slog.Logger) *BookingService {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &BookingService{
		source:           source,
		sourceCampground: sourceCampground,
		processor:        processor,
		reader:           reader,
		confirmer:        confirmer,
		log:              log,
	}
}

// ProcessPending fetches the pending head-office bookings and runs them
// through the processor. Only a failure to reach the source is returned as
// an error; everything else is in the report.
func (s *BookingService) ProcessPending(ctx context.Context) (ProcessingReport, error) {
	records, err := s.source.ListByCampground(ctx, s.sourceCampground)
	if err != nil {
		return ProcessingReport{}, fmt.Errorf("service.BookingService.ProcessPending: fetch: %w", err)
	}
	s.log.InfoContext(ctx, "fetched pending bookings", "count", len(records), "source_campground_id", s.sourceCampground)

	return s.processor.Process(ctx, records), nil
}

// Get returns one stored booking. Returns domain.ErrNotFound if it has not
// been processed.
func (s *BookingService) Get(ctx context.Context, bookingID int64) (domain.Booking, error) {
	rec, err := s.reader.Get(ctx, bookingID)
	if err != nil {
		return domain.Booking{}, fmt.Errorf("service.BookingService.Get: %w", err)
	}
	b, err := domain.NewBooking(rec)
	if err != nil {
		return domain.Booking{}, fmt.Errorf("service.BookingService.Get: stored booking %d: %w", bookingID, err)
	}
	return b, nil
}

// List returns one page of stored bookings. Stored records that no longer
// validate are logged and left out of the page.
func (s *BookingService) List(ctx context.Context, p domain.PaginationParams) (domain.BookingPage, error) {
	recs, total, err := s.reader.List(ctx, p)
	if err != nil {
		return domain.BookingPage{}, fmt.Errorf("service.BookingService.List: %w", err)
	}
	return domain.BookingPage{Bookings: s.toBookings(ctx, recs), Total: total, Params: p}, nil
}

// All returns every stored booking.
func (s *BookingService) All(ctx context.Context) ([]domain.Booking, error) {
	recs, err := s.reader.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.BookingService.All: %w", err)
	}
	return s.toBookings(ctx, recs), nil
}

// Confirmation regenerates the confirmation document of a stored booking.
func (s *BookingService) Confirmation(ctx context.Context, bookingID int64) (domain.Document, error) {
	b, err := s.Get(ctx, bookingID)
	if err != nil {
		return domain.Document{}, err
	}
	doc, err := s.confirmer.Confirmation(ctx, b)
	if err != nil {
		return domain.Document{}, fmt.Errorf("service.BookingService.Confirmation: %w", err)
	}
	return doc, nil
}

func (s *BookingService) toBookings(ctx context.Context, recs []domain.BookingRecord) []domain.Booking {
	out := make([]domain.Booking, 0, len(recs))
	for _, rec := range recs {
		b, err := domain.NewBooking(rec)
		if err != nil {
			s.log.WarnContext(ctx, "skipping malformed stored booking", "booking_id", rec.BookingID, "error", err)
			continue
		}
		out = append(out, b)
	}
	return out
}
