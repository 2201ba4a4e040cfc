// Package domain contains the core data types of the campsite booking engine:
// campsites and their inventory, bookings, stays and summaries.
// It depends only on the standard library and is imported by every other
// internal package (repo, docstore, service, handler).
package domain

import (
	"fmt"
	"strings"
	"time"
)

// Size is the size class of a campsite, also requested by bookings.
type Size string

const (
	SizeSmall  Size = "Small"
	SizeMedium Size = "Medium"
	SizeLarge  Size = "Large"
)

// ParseSize maps a raw size string to a Size, ignoring case and surrounding
// whitespace. Unknown values return ErrValidation.
func ParseSize(s string) (Size, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "small":
		return SizeSmall, nil
	case "medium":
		return SizeMedium, nil
	case "large":
		return SizeLarge, nil
	}
	return "", fmt.Errorf("%w: unknown campsite size %q", ErrValidation, s)
}

// StayNights is the fixed length of every stay.
const StayNights = 7

// Stay is a half-open [Start, End) date range committed on a campsite.
type Stay struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Overlaps reports whether two half-open ranges share at least one instant.
// [a,b) and [c,d) overlap iff a < d and b > c.
func (s Stay) Overlaps(o Stay) bool {
	return s.Start.Before(o.End) && s.End.After(o.Start)
}

// Nights returns the number of whole nights in the stay.
func (s Stay) Nights() int {
	return int(s.End.Sub(s.Start).Hours() / 24)
}

// Campsite is a physical bookable site. Bookings holds the committed stays in
// insertion order; no two of them overlap.
type Campsite struct {
	SiteNumber   int     `json:"site_number"`
	Size         Size    `json:"size"`
	RatePerNight float64 `json:"rate_per_night"`
	Bookings     []Stay  `json:"bookings"`
}

// isAvailable reports whether stay overlaps none of the committed stays.
func (c *Campsite) isAvailable(stay Stay) bool {
	for _, existing := range c.Bookings {
		if stay.Overlaps(existing) {
			return false
		}
	}
	return true
}

// book re-checks availability and commits the stay when it is free.
func (c *Campsite) book(stay Stay) bool {
	if !c.isAvailable(stay) {
		return false
	}
	c.Bookings = append(c.Bookings, stay)
	return true
}

// clone returns a copy whose Bookings slice does not alias the original.
func (c *Campsite) clone() Campsite {
	out := *c
	out.Bookings = append([]Stay(nil), c.Bookings...)
	return out
}

// SiteClass describes a contiguous range of identical campsites used to seed
// an Inventory.
type SiteClass struct {
	First, Last  int
	Size         Size
	RatePerNight float64
}

// DefaultSiteClasses is the reference campground layout:
// sites 1-10 Small at 50, 11-20 Medium at 60, 21-30 Large at 70.
func DefaultSiteClasses() []SiteClass {
	return []SiteClass{
		{First: 1, Last: 10, Size: SizeSmall, RatePerNight: 50},
		{First: 11, Last: 20, Size: SizeMedium, RatePerNight: 60},
		{First: 21, Last: 30, Size: SizeLarge, RatePerNight: 70},
	}
}
