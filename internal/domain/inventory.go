package domain

import (
	"fmt"
	"sync"
)

// Inventory is the campground's pool of campsites. It exclusively owns the
// campsites' calendars: callers only ever receive copies.
//
// Campsites are kept in registration order, which is the first-fit scan
// order. Every read and mutation goes through one mutex so that concurrent
// batches (e.g. two HTTP requests) can never commit overlapping stays.
type Inventory struct {
	mu    sync.Mutex
	sites []*Campsite
}

// NewInventory builds an Inventory from the given site classes, in order.
// Site numbers must be unique and rates positive.
func NewInventory(classes []SiteClass) (*Inventory, error) {
	inv := &Inventory{}
	for _, class := range classes {
		for n := class.First; n <= class.Last; n++ {
			if err := inv.Add(n, class.Size, class.RatePerNight); err != nil {
				return nil, fmt.Errorf("domain.NewInventory: %w", err)
			}
		}
	}
	return inv, nil
}

// Add registers a new campsite at the end of the scan order.
func (inv *Inventory) Add(siteNumber int, size Size, ratePerNight float64) error {
	if _, err := ParseSize(string(size)); err != nil {
		return err
	}
	if ratePerNight <= 0 {
		return fmt.Errorf("%w: rate per night must be positive, got %v", ErrValidation, ratePerNight)
	}

	inv.mu.Lock()
	defer inv.mu.Unlock()

	if inv.find(siteNumber) != nil {
		return fmt.Errorf("%w: campsite %d already exists", ErrValidation, siteNumber)
	}
	inv.sites = append(inv.sites, &Campsite{SiteNumber: siteNumber, Size: size, RatePerNight: ratePerNight})
	return nil
}

// Remove drops a campsite from the pool. Existing booking records that point
// at it are unaffected.
func (inv *Inventory) Remove(siteNumber int) error {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	for i, c := range inv.sites {
		if c.SiteNumber == siteNumber {
			inv.sites = append(inv.sites[:i], inv.sites[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("campsite %d: %w", siteNumber, ErrNotFound)
}

// Get returns a copy of one campsite.
func (inv *Inventory) Get(siteNumber int) (Campsite, error) {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	c := inv.find(siteNumber)
	if c == nil {
		return Campsite{}, fmt.Errorf("campsite %d: %w", siteNumber, ErrNotFound)
	}
	return c.clone(), nil
}

// Campsites returns copies of every campsite in scan order.
func (inv *Inventory) Campsites() []Campsite {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	out := make([]Campsite, len(inv.sites))
	for i, c := range inv.sites {
		out[i] = c.clone()
	}
	return out
}

// Len returns the number of campsites in the pool.
func (inv *Inventory) Len() int {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return len(inv.sites)
}

// IsAvailable reports whether no committed stay on the site overlaps stay.
func (inv *Inventory) IsAvailable(siteNumber int, stay Stay) (bool, error) {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	c := inv.find(siteNumber)
	if c == nil {
		return false, fmt.Errorf("campsite %d: %w", siteNumber, ErrNotFound)
	}
	return c.isAvailable(stay), nil
}

// Book commits stay on the site if it is still available. It returns false,
// leaving the calendar untouched, when the stay overlaps a committed one.
func (inv *Inventory) Book(siteNumber int, stay Stay) (bool, error) {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	c := inv.find(siteNumber)
	if c == nil {
		return false, fmt.Errorf("campsite %d: %w", siteNumber, ErrNotFound)
	}
	return c.book(stay), nil
}

// Release removes a committed stay that exactly matches stay. It reports
// whether one was removed.
func (inv *Inventory) Release(siteNumber int, stay Stay) (bool, error) {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	c := inv.find(siteNumber)
	if c == nil {
		return false, fmt.Errorf("campsite %d: %w", siteNumber, ErrNotFound)
	}
	for i, existing := range c.Bookings {
		if existing.Start.Equal(stay.Start) && existing.End.Equal(stay.End) {
			c.Bookings = append(c.Bookings[:i], c.Bookings[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// FirstFit scans the campsites in registration order and books stay on the
// first one that accepts it and is available. The check and the insert
// happen in the same critical section. A nil accept matches every site.
func (inv *Inventory) FirstFit(stay Stay, accept func(Campsite) bool) (Campsite, bool) {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	for _, c := range inv.sites {
		if accept != nil && !accept(*c) {
			continue
		}
		if c.isAvailable(stay) && c.book(stay) {
			return c.clone(), true
		}
	}
	return Campsite{}, false
}

// find must be called with mu held.
func (inv *Inventory) find(siteNumber int) *Campsite {
	for _, c := range inv.sites {
		if c.SiteNumber == siteNumber {
			return c
		}
	}
	return nil
}
