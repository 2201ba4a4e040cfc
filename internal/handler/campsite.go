package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/campsite-booking/internal/domain"
)

// Stay is one committed [check_in, check_out) interval.
type Stay struct {
	CheckIn  openapi_types.Date `json:"check_in"`
	CheckOut openapi_types.Date `json:"check_out"`
}

// Campsite is the JSON shape of an inventory entry.
type Campsite struct {
	SiteNumber   int     `json:"site_number"`
	Size         string  `json:"size"`
	RatePerNight float64 `json:"rate_per_night"`
	Bookings     []Stay  `json:"bookings"`
}

// CampsiteInput is the body of POST /campsites.
type CampsiteInput struct {
	SiteNumber   *int     `json:"site_number"`
	Size         string   `json:"size"`
	RatePerNight *float64 `json:"rate_per_night"`
}

// ListCampsites handles GET /campsites.
func (s *Server) ListCampsites(w http.ResponseWriter, r *http.Request) {
	sites := s.campsites.List(r.Context())
	out := make([]Campsite, len(sites))
	for i, c := range sites {
		out[i] = campsiteToResponse(c)
	}
	writeJSON(w, http.StatusOK, out)
}

// CreateCampsite handles POST /campsites.
func (s *Server) CreateCampsite(w http.ResponseWriter, r *http.Request) {
	var in CampsiteInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, requestBody("request body must be a JSON campsite"))
		return
	}
	if in.SiteNumber == nil || in.RatePerNight == nil {
		writeJSON(w, http.StatusUnprocessableEntity, requestBody("site_number and rate_per_night are required"))
		return
	}

	created, err := s.campsites.Add(r.Context(), domain.Campsite{
		SiteNumber:   *in.SiteNumber,
		Size:         domain.Size(in.Size),
		RatePerNight: *in.RatePerNight,
	})
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			writeJSON(w, http.StatusUnprocessableEntity, validationBody(err))
			return
		}
		s.writeInternal(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, campsiteToResponse(created))
}

// DeleteCampsite handles DELETE /campsites/{siteNumber}.
func (s *Server) DeleteCampsite(w http.ResponseWriter, r *http.Request) {
	site, err := strconv.Atoi(chi.URLParam(r, "siteNumber"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, requestBody("siteNumber must be an integer"))
		return
	}

	if err := s.campsites.Remove(r.Context(), site); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, notFoundBody("campsite not found"))
			return
		}
		s.writeInternal(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func campsiteToResponse(c domain.Campsite) Campsite {
	stays := make([]Stay, len(c.Bookings))
	for i, st := range c.Bookings {
		stays[i] = Stay{
			CheckIn:  openapi_types.Date{Time: st.Start},
			CheckOut: openapi_types.Date{Time: st.End},
		}
	}
	return Campsite{
		SiteNumber:   c.SiteNumber,
		Size:         string(c.Size),
		RatePerNight: c.RatePerNight,
		Bookings:     stays,
	}
}
