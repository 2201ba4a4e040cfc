// Package handler implements the HTTP API of the campsite booking service.
// Handlers are methods on Server, split into per-resource files that share
// the same dependencies.
package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pkordes/campsite-booking/internal/domain"
	"github.com/pkordes/campsite-booking/internal/service"
	"github.com/pkordes/campsite-booking/spec"
)

// BookingServicer defines the booking operations the handlers depend on.
type BookingServicer interface {
	ProcessPending(ctx context.Context) (service.ProcessingReport, error)
	Get(ctx context.Context, bookingID int64) (domain.Booking, error)
	List(ctx context.Context, p domain.PaginationParams) (domain.BookingPage, error)
	Confirmation(ctx context.Context, bookingID int64) (domain.Document, error)
}

// SummaryServicer defines the summary operations the handlers depend on.
type SummaryServicer interface {
	FromDocumentStore(ctx context.Context) (domain.Summary, error)
	Publish(ctx context.Context, s domain.Summary) (domain.Document, error)
}

// CampsiteServicer defines the inventory administration the handlers
// depend on.
type CampsiteServicer interface {
	List(ctx context.Context) []domain.Campsite
	Add(ctx context.Context, c domain.Campsite) (domain.Campsite, error)
	Remove(ctx context.Context, siteNumber int) error
}

// Server holds the dependencies shared by every handler.
type Server struct {
	bookings  BookingServicer
	summaries SummaryServicer
	campsites CampsiteServicer
	log       *slog.Logger
}

// NewServer constructs the Server. Any servicer may be nil when only a
// subset of routes is exercised, as in tests.
func NewServer(bookings BookingServicer, summaries SummaryServicer, campsites CampsiteServicer, log *slog.Logger) *Server {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Server{bookings: bookings, summaries: summaries, campsites: campsites, log: log}
}

// NewHealthHandler returns a Server for health-check-only use.
func NewHealthHandler() *Server {
	return NewServer(nil, nil, nil, nil)
}

// Routes returns the API router. Global middleware is added by the caller.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(spec.OpenAPI)
	})

	r.Route("/bookings", func(r chi.Router) {
		r.Post("/process", s.ProcessBookings)
		r.Get("/", s.ListBookings)
		r.Get("/{bookingID}", s.GetBooking)
		r.Get("/{bookingID}/confirmation", s.GetConfirmation)
	})

	r.Get("/summary", s.GetSummary)
	r.Get("/summary/pdf", s.GetSummaryPDF)

	r.Route("/campsites", func(r chi.Router) {
		r.Get("/", s.ListCampsites)
		r.Post("/", s.CreateCampsite)
		r.Delete("/{siteNumber}", s.DeleteCampsite)
	})

	return r
}
