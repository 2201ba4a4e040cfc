package domain

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the only accepted wire format for booking and summary dates.
const DateLayout = "2006-01-02"

// BookingRecord is a raw reservation request as it arrives from either the
// head-office database or the document store. Nothing in it is trusted until
// NewBooking has validated it.
type BookingRecord struct {
	BookingID    int64
	CustomerID   int64
	CustomerName string
	BookingDate  string // YYYY-MM-DD
	ArrivalDate  string // YYYY-MM-DD
	CampsiteSize string
	NumCampsites int
	CampgroundID int64

	// Set only on records read back from the document store.
	CampsiteID *int
	TotalCost  float64
	CheckIn    string
	CheckOut   string
}

// Booking is one validated reservation request plus its allocation state.
// CampsiteID is nil until the allocation engine has placed it; after
// ApplyAllocation the booking is treated as immutable.
type Booking struct {
	BookingID    int64
	CustomerID   int64
	CustomerName string
	BookingDate  time.Time
	ArrivalDate  time.Time
	CampsiteSize Size
	NumCampsites int
	CampgroundID int64
	CampsiteID   *int
	TotalCost    float64
	Stay         *Stay
}

// NewBooking validates a raw record and converts it into a Booking.
// All failures wrap ErrValidation.
func NewBooking(rec BookingRecord) (Booking, error) {
	var problems []string

	if rec.BookingID <= 0 {
		problems = append(problems, "booking_id is required")
	}
	if rec.CustomerID <= 0 {
		problems = append(problems, "customer_id is required")
	}
	if rec.NumCampsites < 1 {
		problems = append(problems, fmt.Sprintf("num_campsites must be at least 1, got %d", rec.NumCampsites))
	}

	size, err := ParseSize(rec.CampsiteSize)
	if err != nil {
		problems = append(problems, fmt.Sprintf("unknown campsite size %q", rec.CampsiteSize))
	}
	bookingDate, err := ParseDate(rec.BookingDate)
	if err != nil {
		problems = append(problems, "booking_date: "+dateProblem(rec.BookingDate))
	}
	arrivalDate, err := ParseDate(rec.ArrivalDate)
	if err != nil {
		problems = append(problems, "arrival_date: "+dateProblem(rec.ArrivalDate))
	}

	if len(problems) > 0 {
		return Booking{}, fmt.Errorf("%w: booking %d: %s", ErrValidation, rec.BookingID, strings.Join(problems, "; "))
	}

	b := Booking{
		BookingID:    rec.BookingID,
		CustomerID:   rec.CustomerID,
		CustomerName: strings.TrimSpace(rec.CustomerName),
		BookingDate:  bookingDate,
		ArrivalDate:  arrivalDate,
		CampsiteSize: size,
		NumCampsites: rec.NumCampsites,
		CampgroundID: rec.CampgroundID,
		TotalCost:    rec.TotalCost,
	}

	// Records from the document store have already been allocated.
	if rec.CampsiteID != nil {
		site := *rec.CampsiteID
		b.CampsiteID = &site
		if rec.CheckIn != "" && rec.CheckOut != "" {
			in, errIn := ParseDate(rec.CheckIn)
			out, errOut := ParseDate(rec.CheckOut)
			if errIn == nil && errOut == nil {
				b.Stay = &Stay{Start: in, End: out}
			}
		}
	}
	return b, nil
}

// ParseDate parses a YYYY-MM-DD date into a UTC midnight time.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s", ErrValidation, dateProblem(s))
	}
	return t, nil
}

func dateProblem(s string) string {
	return fmt.Sprintf("invalid date format for %q, expected YYYY-MM-DD", s)
}

// Allocated reports whether the booking has been placed on a campsite.
func (b Booking) Allocated() bool {
	return b.CampsiteID != nil
}

// ApplyAllocation records the allocated site and stay and computes the total
// cost as rate * 7 * number of campsites. It may be called only once.
func (b *Booking) ApplyAllocation(siteNumber int, ratePerNight float64, stay Stay) error {
	if b.CampsiteID != nil {
		return fmt.Errorf("%w: booking %d is already allocated to campsite %d", ErrValidation, b.BookingID, *b.CampsiteID)
	}
	site := siteNumber
	b.CampsiteID = &site
	b.Stay = &stay
	b.TotalCost = ratePerNight * StayNights * float64(b.NumCampsites)
	return nil
}

// IsArrivalToday reports whether the requested arrival date falls on now's
// calendar day.
func (b Booking) IsArrivalToday(now time.Time) bool {
	y1, m1, d1 := b.ArrivalDate.Date()
	y2, m2, d2 := now.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// Record converts the booking back into its storable shape.
func (b Booking) Record() BookingRecord {
	rec := BookingRecord{
		BookingID:    b.BookingID,
		CustomerID:   b.CustomerID,
		CustomerName: b.CustomerName,
		BookingDate:  b.BookingDate.Format(DateLayout),
		ArrivalDate:  b.ArrivalDate.Format(DateLayout),
		CampsiteSize: string(b.CampsiteSize),
		NumCampsites: b.NumCampsites,
		CampgroundID: b.CampgroundID,
		TotalCost:    b.TotalCost,
	}
	if b.CampsiteID != nil {
		site := *b.CampsiteID
		rec.CampsiteID = &site
	}
	if b.Stay != nil {
		rec.CheckIn = b.Stay.Start.Format(DateLayout)
		rec.CheckOut = b.Stay.End.Format(DateLayout)
	}
	return rec
}

// ConfirmationFilename is the name of the booking's confirmation document.
func (b Booking) ConfirmationFilename() string {
	return fmt.Sprintf("confirmation_%d.pdf", b.BookingID)
}
