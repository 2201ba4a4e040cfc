package handler

import (
	"errors"
	"net/http"
	"sort"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/campsite-booking/internal/domain"
)

// SiteUtilization is one row of Summary.Utilization.
type SiteUtilization struct {
	SiteNumber    int     `json:"site_number"`
	Size          string  `json:"size"`
	RatePerNight  float64 `json:"rate_per_night"`
	BookingsCount int     `json:"bookings_count"`
}

// Summary is the JSON shape of a campground summary.
type Summary struct {
	CampgroundID          int64              `json:"campground_id"`
	SummaryDate           openapi_types.Date `json:"summary_date"`
	TotalSales            float64            `json:"total_sales"`
	TotalBookings         int                `json:"total_bookings"`
	SuccessfulAllocations int                `json:"successful_allocations"`
	FailedAllocations     int                `json:"failed_allocations"`
	Utilization           []SiteUtilization  `json:"utilization"`
}

// GetSummary handles GET /summary. It summarises every booking stored in
// the document store without publishing anything.
func (s *Server) GetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.summaries.FromDocumentStore(r.Context())
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			writeJSON(w, http.StatusUnprocessableEntity, validationBody(err))
			return
		}
		s.writeInternal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summaryToResponse(summary))
}

// GetSummaryPDF handles GET /summary/pdf. The summary is published to the
// relational database and the document store, then streamed back. A sink
// failure is logged; the PDF is still returned when it was produced.
func (s *Server) GetSummaryPDF(w http.ResponseWriter, r *http.Request) {
	summary, err := s.summaries.FromDocumentStore(r.Context())
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			writeJSON(w, http.StatusUnprocessableEntity, validationBody(err))
			return
		}
		s.writeInternal(w, r, err)
		return
	}

	doc, err := s.summaries.Publish(r.Context(), summary)
	if err != nil {
		if len(doc.Data) == 0 {
			s.writeInternal(w, r, err)
			return
		}
		s.log.WarnContext(r.Context(), "summary published with errors", "summary", summary.Key(), "error", err)
	}
	writePDF(w, doc)
}

func summaryToResponse(s domain.Summary) Summary {
	sites := make([]int, 0, len(s.Utilization))
	for site := range s.Utilization {
		sites = append(sites, site)
	}
	sort.Ints(sites)

	util := make([]SiteUtilization, len(sites))
	for i, site := range sites {
		u := s.Utilization[site]
		util[i] = SiteUtilization{
			SiteNumber:    site,
			Size:          string(u.Size),
			RatePerNight:  u.RatePerNight,
			BookingsCount: u.BookingsCount,
		}
	}

	return Summary{
		CampgroundID:          s.CampgroundID,
		SummaryDate:           openapi_types.Date{Time: s.SummaryDate},
		TotalSales:            s.TotalSales,
		TotalBookings:         s.TotalBookings,
		SuccessfulAllocations: s.SuccessfulAllocations,
		FailedAllocations:     s.FailedAllocations,
		Utilization:           util,
	}
}
