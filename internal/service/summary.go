package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/pkordes/campsite-booking/internal/domain"
)

// SummarySink stores a summary in the relational database and returns its
// internal id.
type SummarySink interface {
	Create(ctx context.Context, s domain.Summary) (int64, error)
}

// SummaryTarget is one relational database a summary is written to.
type SummaryTarget struct {
	Name string
	Sink SummarySink
}

// SummaryDocumenter renders the summary report document.
type SummaryDocumenter interface {
	Summary(ctx context.Context, s domain.Summary) (domain.Document, error)
}

// SummaryService builds and publishes the sales/occupancy summary of a
// campground.
type SummaryService struct {
	inventory    *domain.Inventory
	campgroundID int64
	reader       BookingReader
	targets      []SummaryTarget
	documenter   SummaryDocumenter
	now          func() time.Time
	log          *slog.Logger
}

// NewSummaryService constructs a SummaryService. Publish writes to every
// target in order. now stamps the summary date; pass nil for time.Now.
func NewSummaryService(inventory *domain.Inventory, campgroundID int64, reader BookingReader, targets []SummaryTarget, documenter SummaryDocumenter, now func() time.Time, log *slog.Logger) *SummaryService {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &SummaryService{
		inventory:    inventory,
		campgroundID: campgroundID,
		reader:       reader,
		targets:      targets,
		documenter:   documenter,
		now:          now,
		log:          log,
	}
}

// Generate summarises processed bookings against the current inventory.
// A validation failure is returned wrapped in domain.ErrValidation.
func (s *SummaryService) Generate(ctx context.Context, bookings []domain.Booking) (domain.Summary, error) {
	summary, err := domain.Summarize(bookings, s.inventory.Campsites(), s.campgroundID, s.now())
	if err != nil {
		s.log.ErrorContext(ctx, "summary validation failed", "campground_id", s.campgroundID, "error", err)
		return domain.Summary{}, fmt.Errorf("service.SummaryService.Generate: %w", err)
	}
	s.log.InfoContext(ctx, "summary generated",
		"campground_id", summary.CampgroundID,
		"summary_date", summary.SummaryDate.Format(domain.DateLayout),
		"total_sales", summary.TotalSales,
		"total_bookings", summary.TotalBookings,
		"failed_allocations", summary.FailedAllocations,
	)
	return summary, nil
}

// FromDocumentStore summarises every booking stored so far.
func (s *SummaryService) FromDocumentStore(ctx context.Context) (domain.Summary, error) {
	recs, err := s.reader.All(ctx)
	if err != nil {
		return domain.Summary{}, fmt.Errorf("service.SummaryService.FromDocumentStore: %w", err)
	}

	bookings := make([]domain.Booking, 0, len(recs))
	for _, rec := range recs {
		b, err := domain.NewBooking(rec)
		if err != nil {
			s.log.WarnContext(ctx, "skipping malformed stored booking", "booking_id", rec.BookingID, "error", err)
			continue
		}
		bookings = append(bookings, b)
	}
	return s.Generate(ctx, bookings)
}

// Publish stores the summary in every target database and produces its
// report document. Each step is attempted even if an earlier one failed; the
// failures are joined in the returned error. The document is returned
// whenever it was produced.
func (s *SummaryService) Publish(ctx context.Context, summary domain.Summary) (domain.Document, error) {
	if err := summary.Validate(); err != nil {
		return domain.Document{}, fmt.Errorf("service.SummaryService.Publish: %w", err)
	}

	var errs []error

	for _, t := range s.targets {
		id, err := t.Sink.Create(ctx, summary)
		if err != nil {
			s.log.ErrorContext(ctx, "failed to store summary", "summary", summary.Key(), "database", t.Name, "error", err)
			errs = append(errs, fmt.Errorf("store summary in %s: %w", t.Name, err))
			continue
		}
		s.log.InfoContext(ctx, "summary stored", "summary", summary.Key(), "database", t.Name, "summary_id", id)
	}

	var doc domain.Document
	if s.documenter != nil {
		d, err := s.documenter.Summary(ctx, summary)
		if err != nil {
			s.log.ErrorContext(ctx, "failed to generate summary document", "summary", summary.Key(), "error", err)
			errs = append(errs, fmt.Errorf("summary document: %w", err))
		} else {
			doc = d
		}
	}

	if err := errors.Join(errs...); err != nil {
		return doc, fmt.Errorf("service.SummaryService.Publish: %w", err)
	}
	return doc, nil
}
