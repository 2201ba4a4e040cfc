package domain

import (
	"fmt"
	"time"
)

// SiteUtilization is one row of the per-campsite breakdown of a Summary.
type SiteUtilization struct {
	Size          Size    `json:"size"`
	RatePerNight  float64 `json:"rate_per_night"`
	BookingsCount int     `json:"bookings_count"`
}

// Summary is the sales and occupancy roll-up of one processed batch.
// It is immutable once Summarize has validated it.
type Summary struct {
	CampgroundID  int64
	SummaryDate   time.Time
	TotalSales    float64
	TotalBookings int

	// SuccessfulAllocations equals TotalBookings; FailedAllocations counts
	// the processed bookings that never got a site.
	SuccessfulAllocations int
	FailedAllocations     int

	// Utilization is keyed by site number.
	Utilization map[int]SiteUtilization
}

// Validate checks the summary invariants. A summary over zero bookings is
// valid; negative totals are not.
func (s Summary) Validate() error {
	switch {
	case s.CampgroundID == 0:
		return fmt.Errorf("%w: campground id must not be empty", ErrValidation)
	case s.SummaryDate.IsZero():
		return fmt.Errorf("%w: summary date must not be empty", ErrValidation)
	case s.TotalSales < 0:
		return fmt.Errorf("%w: total sales cannot be negative", ErrValidation)
	case s.TotalBookings < 0:
		return fmt.Errorf("%w: total bookings cannot be negative", ErrValidation)
	}
	return nil
}

// Key identifies the summary and its document: "<campground>_<date>".
func (s Summary) Key() string {
	return fmt.Sprintf("%d_%s", s.CampgroundID, s.SummaryDate.Format(DateLayout))
}

// Summarize reduces processed bookings into a validated Summary.
// Only allocated bookings count towards sales and bookings. Every campsite
// in the inventory gets a utilization entry; bookings pointing at a site
// that is no longer in the inventory get an entry with an empty size, so the
// per-site counts always sum to TotalBookings.
func Summarize(bookings []Booking, campsites []Campsite, campgroundID int64, date time.Time) (Summary, error) {
	s := Summary{
		CampgroundID: campgroundID,
		SummaryDate:  time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC),
		Utilization:  make(map[int]SiteUtilization, len(campsites)),
	}

	for _, c := range campsites {
		s.Utilization[c.SiteNumber] = SiteUtilization{Size: c.Size, RatePerNight: c.RatePerNight}
	}

	for _, b := range bookings {
		if !b.Allocated() {
			s.FailedAllocations++
			continue
		}
		s.TotalSales += b.TotalCost
		s.TotalBookings++

		u := s.Utilization[*b.CampsiteID]
		u.BookingsCount++
		s.Utilization[*b.CampsiteID] = u
	}
	s.SuccessfulAllocations = s.TotalBookings

	if err := s.Validate(); err != nil {
		return Summary{}, err
	}
	return s, nil
}
