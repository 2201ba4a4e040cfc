package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/pkordes/campsite-booking/internal/domain"
)

// BookingSink persists allocated bookings. Insert must be idempotent on the
// booking id: it returns false, and no error, when the booking is already
// stored.
type BookingSink interface {
	Exists(ctx context.Context, bookingID int64) (bool, error)
	Insert(ctx context.Context, b domain.Booking) (bool, error)
}

// Confirmer produces the confirmation document of one allocated booking.
type Confirmer interface {
	Confirmation(ctx context.Context, b domain.Booking) (domain.Document, error)
}

// CampgroundAssigner records in the head-office database which campground a
// booking was placed in.
type CampgroundAssigner interface {
	AssignCampground(ctx context.Context, bookingID, campgroundID int64) error
}

// Outcome classifies what happened to one record of a batch.
type Outcome string

const (
	// OutcomeAllocated: placed on a campsite and persisted.
	OutcomeAllocated Outcome = "allocated"
	// OutcomeDuplicate: already stored, by an earlier run or earlier in this
	// batch. No campsite is taken; the campground assignment is repeated.
	OutcomeDuplicate Outcome = "duplicate"
	// OutcomeUnallocated: no campsite was free for the canonical stay.
	OutcomeUnallocated Outcome = "unallocated"
	// OutcomeInvalid: the record could not be turned into a Booking.
	OutcomeInvalid Outcome = "invalid"
	// OutcomeFailed: a store or head-office call failed, or an unexpected
	// error interrupted the item.
	OutcomeFailed Outcome = "failed"
)

// ItemResult is the result of processing one record.
type ItemResult struct {
	BookingID  int64
	Outcome    Outcome
	SiteNumber int
	TotalCost  float64
	Err        error

	// ConfirmationErr is set when the confirmation document could not be
	// produced. It never changes the outcome.
	ConfirmationErr error
}

// ProcessingReport aggregates the results of one batch, in input order.
// Bookings holds every valid booking this run owns, allocated or not, and is
// what the summary is computed from. Duplicates are left out so a booking is
// never counted twice.
type ProcessingReport struct {
	Items    []ItemResult
	Bookings []domain.Booking

	Allocated   int
	Duplicates  int
	Unallocated int
	Invalid     int
	Failed      int
}

// Total is the number of records the batch received.
func (r ProcessingReport) Total() int {
	return len(r.Items)
}

func (r *ProcessingReport) add(res ItemResult, b *domain.Booking) {
	r.Items = append(r.Items, res)
	if b != nil {
		r.Bookings = append(r.Bookings, *b)
	}
	switch res.Outcome {
	case OutcomeAllocated:
		r.Allocated++
	case OutcomeDuplicate:
		r.Duplicates++
	case OutcomeUnallocated:
		r.Unallocated++
	case OutcomeInvalid:
		r.Invalid++
	case OutcomeFailed:
		r.Failed++
	}
}

// ProcessorDeps are the collaborators a Processor hands allocated bookings
// to. Confirmer and Assigner are optional.
type ProcessorDeps struct {
	Sink      BookingSink
	Confirmer Confirmer
	Assigner  CampgroundAssigner
	Logger    *slog.Logger
}

// Processor drives the allocation engine across a batch of booking records.
// Records are handled strictly one after another in input order; since the
// engine is first-fit, that order decides who gets which campsite.
type Processor struct {
	inventory    *domain.Inventory
	engine       *Engine
	campgroundID int64
	sink         BookingSink
	confirmer    Confirmer
	assigner     CampgroundAssigner
	log          *slog.Logger
}

// NewProcessor constructs a Processor that places bookings into inventory and
// assigns them to campgroundID.
func NewProcessor(inventory *domain.Inventory, engine *Engine, campgroundID int64, deps ProcessorDeps) *Processor {
	log := deps.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Processor{
		inventory:    inventory,
		engine:       engine,
		campgroundID: campgroundID,
		sink:         deps.Sink,
		confirmer:    deps.Confirmer,
		assigner:     deps.Assigner,
		log:          log,
	}
}

// Process handles every record and returns the aggregated report. It never
// fails as a whole: invalid records, allocation misses and per-item
// persistence failures are recorded and the batch moves on.
func (p *Processor) Process(ctx context.Context, records []domain.BookingRecord) ProcessingReport {
	report := ProcessingReport{Items: make([]ItemResult, 0, len(records))}

	for _, rec := range records {
		res, b := p.processOne(ctx, rec)
		report.add(res, b)
	}

	p.log.InfoContext(ctx, "booking batch processed",
		"campground_id", p.campgroundID,
		"total", report.Total(),
		"allocated", report.Allocated,
		"duplicates", report.Duplicates,
		"unallocated", report.Unallocated,
		"invalid", report.Invalid,
		"failed", report.Failed,
	)
	return report
}

// processOne returns the item result and, when the record was a valid
// booking that is not a duplicate, the booking in its final state.
//
// A campsite stay committed by this item is released again unless the
// booking ended up stored.
func (p *Processor) processOne(ctx context.Context, rec domain.BookingRecord) (res ItemResult, booking *domain.Booking) {
	res.BookingID = rec.BookingID
	op := "construct"

	var (
		committed *Assignment
		stored    bool
	)

	defer func() {
		if r := recover(); r != nil {
			p.log.ErrorContext(ctx, "unexpected error while processing booking",
				"booking_id", rec.BookingID,
				"operation", op,
				"panic", r,
			)
			res.Outcome = OutcomeFailed
			res.Err = fmt.Errorf("service.Processor.Process: %s: unexpected error: %v", op, r)
		}
		if committed != nil && !stored {
			p.release(ctx, rec.BookingID, *committed)
			res.SiteNumber = 0
			res.TotalCost = 0
			if booking != nil {
				booking.CampsiteID = nil
				booking.Stay = nil
				booking.TotalCost = 0
			}
		}
	}()

	b, err := domain.NewBooking(rec)
	if err != nil {
		p.log.ErrorContext(ctx, "skipping invalid booking record", "booking_id", rec.BookingID, "error", err)
		res.Outcome = OutcomeInvalid
		res.Err = err
		return res, nil
	}

	if b.Allocated() {
		p.log.InfoContext(ctx, "booking already allocated, skipping",
			"booking_id", b.BookingID, "campsite_id", *b.CampsiteID)
		res.Outcome = OutcomeDuplicate
		res.SiteNumber = *b.CampsiteID
		res.TotalCost = b.TotalCost
		return res, nil
	}
	booking = &b

	op = "check stored"
	exists, err := p.sink.Exists(ctx, b.BookingID)
	if err != nil {
		p.log.ErrorContext(ctx, "failed to look up stored booking", "booking_id", b.BookingID, "error", err)
		res.Outcome = OutcomeFailed
		res.Err = fmt.Errorf("service.Processor.Process: check stored: %w", err)
		return res, booking
	}
	if exists {
		p.log.InfoContext(ctx, "booking already stored, skipping", "booking_id", b.BookingID)
		op = "assign campground"
		return p.duplicate(ctx, res, b.BookingID), nil
	}

	op = "allocate"
	a, ok := p.engine.Allocate(p.inventory, b)
	if !ok {
		stay := CanonicalStay(b.ArrivalDate)
		p.log.WarnContext(ctx, "no available campsites for booking",
			"booking_id", b.BookingID,
			"check_in", stay.Start.Format(domain.DateLayout),
			"check_out", stay.End.Format(domain.DateLayout),
		)
		res.Outcome = OutcomeUnallocated
		return res, booking
	}
	committed = &a

	b.CampgroundID = p.campgroundID
	if err := b.ApplyAllocation(a.SiteNumber, a.RatePerNight, a.Stay); err != nil {
		res.Outcome = OutcomeFailed
		res.Err = fmt.Errorf("service.Processor.Process: %w", err)
		return res, booking
	}
	res.SiteNumber = a.SiteNumber
	res.TotalCost = b.TotalCost

	p.log.InfoContext(ctx, "booking allocated",
		"booking_id", b.BookingID,
		"campsite_id", a.SiteNumber,
		"campsite_size", a.Size,
		"check_in", a.Stay.Start.Format(domain.DateLayout),
		"check_out", a.Stay.End.Format(domain.DateLayout),
		"total_cost", b.TotalCost,
	)

	op = "persist"
	inserted, err := p.sink.Insert(ctx, b)
	if err != nil {
		p.log.ErrorContext(ctx, "failed to store booking", "booking_id", b.BookingID, "error", err)
		res.Outcome = OutcomeFailed
		res.Err = fmt.Errorf("service.Processor.Process: persist: %w", err)
		return res, booking
	}
	if !inserted {
		// Another writer stored it between Exists and Insert.
		p.log.InfoContext(ctx, "booking already stored, skipping", "booking_id", b.BookingID)
		op = "assign campground"
		return p.duplicate(ctx, res, b.BookingID), nil
	}
	stored = true

	op = "confirm"
	if p.confirmer != nil {
		if _, err := p.confirmer.Confirmation(ctx, b); err != nil {
			p.log.ErrorContext(ctx, "confirmation generation failed", "booking_id", b.BookingID, "error", err)
			res.ConfirmationErr = err
		}
	}

	op = "assign campground"
	if err := p.assign(ctx, b.BookingID); err != nil {
		res.Outcome = OutcomeFailed
		res.Err = fmt.Errorf("service.Processor.Process: assign campground: %w", err)
		return res, booking
	}

	res.Outcome = OutcomeAllocated
	return res, booking
}

// duplicate finishes an item whose booking is already stored. The
// head-office row is pointed at the campground again so the booking stops
// being offered as pending.
func (p *Processor) duplicate(ctx context.Context, res ItemResult, bookingID int64) ItemResult {
	res.SiteNumber = 0
	res.TotalCost = 0
	if err := p.assign(ctx, bookingID); err != nil {
		res.Outcome = OutcomeFailed
		res.Err = fmt.Errorf("service.Processor.Process: assign campground: %w", err)
		return res
	}
	res.Outcome = OutcomeDuplicate
	return res
}

func (p *Processor) assign(ctx context.Context, bookingID int64) error {
	if p.assigner == nil {
		return nil
	}
	if err := p.assigner.AssignCampground(ctx, bookingID, p.campgroundID); err != nil {
		p.log.ErrorContext(ctx, "failed to update booking campground",
			"booking_id", bookingID, "campground_id", p.campgroundID, "error", err)
		return err
	}
	return nil
}

func (p *Processor) release(ctx context.Context, bookingID int64, a Assignment) {
	if _, err := p.inventory.Release(a.SiteNumber, a.Stay); err != nil {
		p.log.ErrorContext(ctx, "failed to release campsite",
			"booking_id", bookingID, "campsite_id", a.SiteNumber, "error", err)
		return
	}
	p.log.InfoContext(ctx, "campsite released",
		"booking_id", bookingID,
		"campsite_id", a.SiteNumber,
		"check_in", a.Stay.Start.Format(domain.DateLayout),
	)
}
