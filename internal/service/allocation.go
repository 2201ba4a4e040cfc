// Package service contains the business logic of the campsite booking
// engine: campsite allocation, batch processing and summaries.
// No SQL or Mongo lives here; services depend on narrow interfaces that the
// repo, docstore and document packages satisfy.
package service

import (
	"time"

	"github.com/pkordes/campsite-booking/internal/domain"
)

// WeekStart is the day every stay begins and ends on.
const WeekStart = time.Saturday

// AdjustToWeekStart returns d when it already falls on a Saturday, otherwise
// the next Saturday after d.
func AdjustToWeekStart(d time.Time) time.Time {
	days := (int(WeekStart) - int(d.Weekday()) + 7) % 7
	return d.AddDate(0, 0, days)
}

// CanonicalStay is the Saturday-aligned 7-night window for an arrival date.
func CanonicalStay(arrival time.Time) domain.Stay {
	start := AdjustToWeekStart(arrival)
	return domain.Stay{Start: start, End: start.AddDate(0, 0, domain.StayNights)}
}

// Assignment is what a successful allocation hands back to the caller: just
// enough to update the booking without keeping a reference to the campsite.
type Assignment struct {
	SiteNumber   int
	Size         domain.Size
	RatePerNight float64
	Stay         domain.Stay
}

// Engine allocates bookings to campsites with a first-fit scan over the
// inventory's registration order.
//
// When MatchSize is false the scan is size-blind: the first free campsite
// of any size wins. When true only campsites of the booking's requested size
// are considered.
type Engine struct {
	MatchSize bool
}

// NewEngine constructs an Engine.
func NewEngine(matchSize bool) *Engine {
	return &Engine{MatchSize: matchSize}
}

// Allocate computes the booking's canonical stay and reserves the first
// campsite that is free for it. The boolean is false when no campsite is
// available; that is a normal outcome and leaves the inventory untouched.
// Allocate does not modify the booking.
func (e *Engine) Allocate(inv *domain.Inventory, b domain.Booking) (Assignment, bool) {
	stay := CanonicalStay(b.ArrivalDate)

	var accept func(domain.Campsite) bool
	if e.MatchSize {
		accept = func(c domain.Campsite) bool { return c.Size == b.CampsiteSize }
	}

	site, ok := inv.FirstFit(stay, accept)
	if !ok {
		return Assignment{}, false
	}
	return Assignment{
		SiteNumber:   site.SiteNumber,
		Size:         site.Size,
		RatePerNight: site.RatePerNight,
		Stay:         stay,
	}, true
}
