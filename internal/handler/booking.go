package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/campsite-booking/internal/domain"
	"github.com/pkordes/campsite-booking/internal/service"
)

// Booking is the JSON shape of a processed booking.
type Booking struct {
	BookingID    int64               `json:"booking_id"`
	CustomerID   int64               `json:"customer_id"`
	CustomerName string              `json:"customer_name"`
	BookingDate  openapi_types.Date  `json:"booking_date"`
	ArrivalDate  openapi_types.Date  `json:"arrival_date"`
	CampsiteSize string              `json:"campsite_size"`
	NumCampsites int                 `json:"num_campsites"`
	CampgroundID int64               `json:"campground_id"`
	CampsiteID   *int                `json:"campsite_id"`
	TotalCost    float64             `json:"total_cost"`
	CheckIn      *openapi_types.Date `json:"check_in,omitempty"`
	CheckOut     *openapi_types.Date `json:"check_out,omitempty"`
}

// BookingList is the body of GET /bookings.
type BookingList struct {
	Data       []Booking  `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// Pagination describes the page returned and the total number of items.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// ProcessItem is one entry of a ProcessResult.
type ProcessItem struct {
	BookingID         int64   `json:"booking_id"`
	Outcome           string  `json:"outcome"`
	CampsiteID        *int    `json:"campsite_id,omitempty"`
	TotalCost         float64 `json:"total_cost,omitempty"`
	Error             string  `json:"error,omitempty"`
	ConfirmationError string  `json:"confirmation_error,omitempty"`
}

// ProcessResult is the body of POST /bookings/process.
type ProcessResult struct {
	Total       int           `json:"total"`
	Allocated   int           `json:"allocated"`
	Duplicates  int           `json:"duplicates"`
	Unallocated int           `json:"unallocated"`
	Invalid     int           `json:"invalid"`
	Failed      int           `json:"failed"`
	Items       []ProcessItem `json:"items"`
}

// ProcessBookings handles POST /bookings/process.
// An unreachable head-office source answers 502; per-item failures are
// reported in the body with 200.
func (s *Server) ProcessBookings(w http.ResponseWriter, r *http.Request) {
	report, err := s.bookings.ProcessPending(r.Context())
	if err != nil {
		s.log.ErrorContext(r.Context(), "booking source unavailable", "error", err)
		writeJSON(w, http.StatusBadGateway, upstreamBody("booking source unavailable"))
		return
	}
	writeJSON(w, http.StatusOK, reportToResponse(report))
}

// ListBookings handles GET /bookings.
// Supports ?page= and ?limit= (defaults: page=1, limit=20, max=100).
func (s *Server) ListBookings(w http.ResponseWriter, r *http.Request) {
	page, err := optionalInt(r, "page")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, requestBody(err.Error()))
		return
	}
	limit, err := optionalInt(r, "limit")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, requestBody(err.Error()))
		return
	}

	params := domain.NewPaginationParams(page, limit)
	result, err := s.bookings.List(r.Context(), params)
	if err != nil {
		s.writeInternal(w, r, err)
		return
	}

	data := make([]Booking, len(result.Bookings))
	for i, b := range result.Bookings {
		data[i] = bookingToResponse(b)
	}
	writeJSON(w, http.StatusOK, BookingList{
		Data: data,
		Pagination: Pagination{
			Page:  params.Page,
			Limit: params.Limit,
			Total: int(result.Total),
		},
	})
}

// GetBooking handles GET /bookings/{bookingID}.
func (s *Server) GetBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := bookingIDParam(w, r)
	if !ok {
		return
	}

	b, err := s.bookings.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, notFoundBody("booking not found"))
			return
		}
		s.writeInternal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bookingToResponse(b))
}

// GetConfirmation handles GET /bookings/{bookingID}/confirmation and
// streams the regenerated PDF.
func (s *Server) GetConfirmation(w http.ResponseWriter, r *http.Request) {
	id, ok := bookingIDParam(w, r)
	if !ok {
		return
	}

	doc, err := s.bookings.Confirmation(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			writeJSON(w, http.StatusNotFound, notFoundBody("booking not found"))
		case errors.Is(err, domain.ErrValidation):
			writeJSON(w, http.StatusUnprocessableEntity, validationBody(err))
		default:
			s.writeInternal(w, r, err)
		}
		return
	}
	writePDF(w, doc)
}

func bookingIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "bookingID"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, requestBody("bookingID must be a positive integer"))
		return 0, false
	}
	return id, true
}

func optionalInt(r *http.Request, name string) (*int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be an integer", name)
	}
	return &v, nil
}

func writePDF(w http.ResponseWriter, doc domain.Document) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc.Data)
}

func bookingToResponse(b domain.Booking) Booking {
	resp := Booking{
		BookingID:    b.BookingID,
		CustomerID:   b.CustomerID,
		CustomerName: b.CustomerName,
		BookingDate:  openapi_types.Date{Time: b.BookingDate},
		ArrivalDate:  openapi_types.Date{Time: b.ArrivalDate},
		CampsiteSize: string(b.CampsiteSize),
		NumCampsites: b.NumCampsites,
		CampgroundID: b.CampgroundID,
		CampsiteID:   b.CampsiteID,
		TotalCost:    b.TotalCost,
	}
	if b.Stay != nil {
		resp.CheckIn = &openapi_types.Date{Time: b.Stay.Start}
		resp.CheckOut = &openapi_types.Date{Time: b.Stay.End}
	}
	return resp
}

func reportToResponse(r service.ProcessingReport) ProcessResult {
	out := ProcessResult{
		Total:       r.Total(),
		Allocated:   r.Allocated,
		Duplicates:  r.Duplicates,
		Unallocated: r.Unallocated,
		Invalid:     r.Invalid,
		Failed:      r.Failed,
		Items:       make([]ProcessItem, len(r.Items)),
	}
	for i, item := range r.Items {
		p := ProcessItem{
			BookingID: item.BookingID,
			Outcome:   string(item.Outcome),
			TotalCost: item.TotalCost,
		}
		if item.SiteNumber != 0 {
			site := item.SiteNumber
			p.CampsiteID = &site
		}
		if item.Err != nil {
			p.Error = item.Err.Error()
		}
		if item.ConfirmationErr != nil {
			p.ConfirmationError = item.ConfirmationErr.Error()
		}
		out.Items[i] = p
	}
	return out
}
