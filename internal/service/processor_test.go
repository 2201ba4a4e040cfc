package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/campsite-booking/internal/domain"
	"github.com/pkordes/campsite-booking/internal/service"
)

// mockSink is a hand-written test double for service.BookingSink.
// The zero value behaves like an in-memory store keyed by booking id.
type mockSink struct {
	exists func(ctx context.Context, bookingID int64) (bool, error)
	insert func(ctx context.Context, b domain.Booking) (bool, error)
	stored map[int64]domain.Booking
	calls  []int64
}

func (m *mockSink) Exists(ctx context.Context, bookingID int64) (bool, error) {
	if m.exists != nil {
		return m.exists(ctx, bookingID)
	}
	_, ok := m.stored[bookingID]
	return ok, nil
}

func (m *mockSink) Insert(ctx context.Context, b domain.Booking) (bool, error) {
	m.calls = append(m.calls, b.BookingID)
	if m.insert != nil {
		return m.insert(ctx, b)
	}
	if m.stored == nil {
		m.stored = map[int64]domain.Booking{}
	}
	if _, ok := m.stored[b.BookingID]; ok {
		return false, nil
	}
	m.stored[b.BookingID] = b
	return true, nil
}

type mockConfirmer struct {
	confirm func(ctx context.Context, b domain.Booking) (domain.Document, error)
	ids     []int64
}

func (m *mockConfirmer) Confirmation(ctx context.Context, b domain.Booking) (domain.Document, error) {
	m.ids = append(m.ids, b.BookingID)
	if m.confirm != nil {
		return m.confirm(ctx, b)
	}
	return domain.Document{Key: "x", Filename: b.ConfirmationFilename()}, nil
}

type mockAssigner struct {
	assign   func(ctx context.Context, bookingID, campgroundID int64) error
	assigned map[int64]int64
}

func (m *mockAssigner) AssignCampground(ctx context.Context, bookingID, campgroundID int64) error {
	if m.assign != nil {
		return m.assign(ctx, bookingID, campgroundID)
	}
	if m.assigned == nil {
		m.assigned = map[int64]int64{}
	}
	m.assigned[bookingID] = campgroundID
	return nil
}

// compile-time checks.
var (
	_ service.BookingSink        = (*mockSink)(nil)
	_ service.Confirmer          = (*mockConfirmer)(nil)
	_ service.CampgroundAssigner = (*mockAssigner)(nil)
)

const testCampground = 1159010

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newProcessor(inv *domain.Inventory, deps service.ProcessorDeps) *service.Processor {
	if deps.Logger == nil {
		deps.Logger = quietLogger()
	}
	return service.NewProcessor(inv, service.NewEngine(false), testCampground, deps)
}

// ---- Process ---------------------------------------------------------------

func TestProcessor_SingleBooking_AllocatesAndPersists(t *testing.T) {
	inv := singleSmallSite(t)
	sink := &mockSink{}
	confirmer := &mockConfirmer{}
	assigner := &mockAssigner{}
	rec := validRecord(1, "2025-06-03", domain.SizeSmall) // Tuesday
	rec.NumCampsites = 3

	report := newProcessor(inv, service.ProcessorDeps{Sink: sink, Confirmer: confirmer, Assigner: assigner}).
		Process(context.Background(), []domain.BookingRecord{rec})

	require.Len(t, report.Items, 1)
	item := report.Items[0]
	assert.Equal(t, service.OutcomeAllocated, item.Outcome)
	assert.Equal(t, 1, item.SiteNumber)
	assert.Equal(t, 50.0*7*3, item.TotalCost)
	assert.NoError(t, item.Err)
	assert.Equal(t, 1, report.Allocated)

	stored := sink.stored[1]
	require.True(t, stored.Allocated())
	assert.Equal(t, int64(testCampground), stored.CampgroundID)
	assert.Equal(t, 1050.0, stored.TotalCost)
	assert.Equal(t, day(2025, 6, 7), stored.Stay.Start)
	assert.Equal(t, day(2025, 6, 14), stored.Stay.End)

	assert.Equal(t, []int64{1}, confirmer.ids)
	assert.Equal(t, map[int64]int64{1: testCampground}, assigner.assigned)

	require.Len(t, report.Bookings, 1)
	assert.Equal(t, stored, report.Bookings[0])
}

func TestProcessor_OverlappingWindows_SecondUnallocated(t *testing.T) {
	inv := singleSmallSite(t)
	sink := &mockSink{}

	report := newProcessor(inv, service.ProcessorDeps{Sink: sink}).Process(context.Background(), []domain.BookingRecord{
		validRecord(1, "2025-06-03", domain.SizeSmall),
		validRecord(2, "2025-06-06", domain.SizeSmall),
	})

	assert.Equal(t, service.OutcomeAllocated, report.Items[0].Outcome)
	assert.Equal(t, service.OutcomeUnallocated, report.Items[1].Outcome)
	assert.NoError(t, report.Items[1].Err, "a miss is not an error")
	assert.Equal(t, []int64{1}, sink.calls, "unallocated bookings are not persisted")

	require.Len(t, report.Bookings, 2)
	assert.False(t, report.Bookings[1].Allocated())
	assert.Zero(t, report.Bookings[1].TotalCost)
}

func TestProcessor_OrderDeterminesOutcome(t *testing.T) {
	a := validRecord(1, "2025-06-03", domain.SizeSmall)
	b := validRecord(2, "2025-06-05", domain.SizeSmall)

	forward := newProcessor(singleSmallSite(t), service.ProcessorDeps{Sink: &mockSink{}}).
		Process(context.Background(), []domain.BookingRecord{a, b})
	reverse := newProcessor(singleSmallSite(t), service.ProcessorDeps{Sink: &mockSink{}}).
		Process(context.Background(), []domain.BookingRecord{b, a})

	assert.Equal(t, int64(1), forward.Items[0].BookingID)
	assert.Equal(t, service.OutcomeAllocated, forward.Items[0].Outcome)
	assert.Equal(t, service.OutcomeUnallocated, forward.Items[1].Outcome)

	assert.Equal(t, int64(2), reverse.Items[0].BookingID)
	assert.Equal(t, service.OutcomeAllocated, reverse.Items[0].Outcome)
	assert.Equal(t, service.OutcomeUnallocated, reverse.Items[1].Outcome)
}

func TestProcessor_InvalidRecordSkipped(t *testing.T) {
	inv := singleSmallSite(t)
	sink := &mockSink{}
	bad := validRecord(1, "13/45/2024", domain.SizeSmall)
	good := validRecord(2, "2025-06-03", domain.SizeSmall)

	report := newProcessor(inv, service.ProcessorDeps{Sink: sink}).
		Process(context.Background(), []domain.BookingRecord{bad, good})

	require.Len(t, report.Items, 2)
	assert.Equal(t, service.OutcomeInvalid, report.Items[0].Outcome)
	assert.ErrorIs(t, report.Items[0].Err, domain.ErrValidation)
	assert.Equal(t, service.OutcomeAllocated, report.Items[1].Outcome)
	assert.Equal(t, 1, report.Invalid)
	assert.Equal(t, 1, report.Allocated)

	require.Len(t, report.Bookings, 1, "invalid records never become bookings")
	assert.Equal(t, int64(2), report.Bookings[0].BookingID)
}

func TestProcessor_DuplicateIsSkipNotFailure(t *testing.T) {
	inv := singleSmallSite(t)
	sink := &mockSink{stored: map[int64]domain.Booking{1: {}}}
	confirmer := &mockConfirmer{}
	assigner := &mockAssigner{}

	report := newProcessor(inv, service.ProcessorDeps{Sink: sink, Confirmer: confirmer, Assigner: assigner}).
		Process(context.Background(), []domain.BookingRecord{validRecord(1, "2025-06-03", domain.SizeSmall)})

	assert.Equal(t, service.OutcomeDuplicate, report.Items[0].Outcome)
	assert.NoError(t, report.Items[0].Err)
	assert.Equal(t, 1, report.Duplicates)
	assert.Zero(t, report.Failed)
	assert.Empty(t, report.Bookings, "duplicates stay out of the run summary")
	assert.Empty(t, sink.calls, "a stored booking is not inserted again")
	assert.Empty(t, confirmer.ids)
	assert.Equal(t, map[int64]int64{1: testCampground}, assigner.assigned, "the head-office row is moved to the campground")

	c, err := inv.Get(1)
	require.NoError(t, err)
	assert.Empty(t, c.Bookings, "a stored booking never takes a campsite")
}

func TestProcessor_DuplicateAssignFailureMarksFailed(t *testing.T) {
	sink := &mockSink{stored: map[int64]domain.Booking{1: {}}}
	assigner := &mockAssigner{assign: func(context.Context, int64, int64) error {
		return errors.New("head office down")
	}}

	report := newProcessor(singleSmallSite(t), service.ProcessorDeps{Sink: sink, Assigner: assigner}).
		Process(context.Background(), []domain.BookingRecord{validRecord(1, "2025-06-03", domain.SizeSmall)})

	assert.Equal(t, service.OutcomeFailed, report.Items[0].Outcome)
	assert.ErrorContains(t, report.Items[0].Err, "head office down")
	assert.Empty(t, report.Bookings)
}

func TestProcessor_InsertTwice_StoresOnce(t *testing.T) {
	inv := defaultInventory(t)
	sink := &mockSink{}
	assigner := &mockAssigner{}
	rec := validRecord(1, "2025-06-03", domain.SizeSmall)

	report := newProcessor(inv, service.ProcessorDeps{Sink: sink, Assigner: assigner}).
		Process(context.Background(), []domain.BookingRecord{rec, rec})

	assert.Len(t, sink.stored, 1)
	assert.Equal(t, service.OutcomeAllocated, report.Items[0].Outcome)
	assert.Equal(t, service.OutcomeDuplicate, report.Items[1].Outcome)
	assert.Zero(t, report.Items[1].SiteNumber)

	site2, err := inv.Get(2)
	require.NoError(t, err)
	assert.Empty(t, site2.Bookings, "the repeat does not occupy a second site")

	s, err := domain.Summarize(report.Bookings, inv.Campsites(), testCampground, day(2025, 6, 1))
	require.NoError(t, err)
	assert.Equal(t, 1, s.TotalBookings)
	assert.Equal(t, 350.0, s.TotalSales)
}

func TestProcessor_StoredBookingAcrossRuns_KeepsCapacity(t *testing.T) {
	inv := singleSmallSite(t)
	sink := &mockSink{stored: map[int64]domain.Booking{1: {}}}
	proc := newProcessor(inv, service.ProcessorDeps{Sink: sink, Assigner: &mockAssigner{}})
	stored := validRecord(1, "2025-06-03", domain.SizeSmall)

	for range 2 {
		report := proc.Process(context.Background(), []domain.BookingRecord{stored})
		require.Equal(t, service.OutcomeDuplicate, report.Items[0].Outcome)
	}
	report := proc.Process(context.Background(), []domain.BookingRecord{validRecord(9, "2025-06-04", domain.SizeSmall)})

	assert.Equal(t, service.OutcomeAllocated, report.Items[0].Outcome)
	assert.Equal(t, 1, report.Items[0].SiteNumber)
}

func TestProcessor_InsertLostRace_ReleasesCampsite(t *testing.T) {
	inv := singleSmallSite(t)
	sink := &mockSink{insert: func(context.Context, domain.Booking) (bool, error) { return false, nil }}
	confirmer := &mockConfirmer{}
	assigner := &mockAssigner{}

	report := newProcessor(inv, service.ProcessorDeps{Sink: sink, Confirmer: confirmer, Assigner: assigner}).
		Process(context.Background(), []domain.BookingRecord{validRecord(1, "2025-06-03", domain.SizeSmall)})

	assert.Equal(t, service.OutcomeDuplicate, report.Items[0].Outcome)
	assert.Zero(t, report.Items[0].SiteNumber)
	assert.Empty(t, report.Bookings)
	assert.Empty(t, confirmer.ids, "no confirmation for a booking another writer stored")
	assert.Equal(t, map[int64]int64{1: testCampground}, assigner.assigned)

	c, err := inv.Get(1)
	require.NoError(t, err)
	assert.Empty(t, c.Bookings)
}

func TestProcessor_ExistsFailureLeavesInventory(t *testing.T) {
	inv := singleSmallSite(t)
	boom := errors.New("mongo unavailable")
	sink := &mockSink{exists: func(context.Context, int64) (bool, error) { return false, boom }}

	report := newProcessor(inv, service.ProcessorDeps{Sink: sink}).
		Process(context.Background(), []domain.BookingRecord{validRecord(1, "2025-06-03", domain.SizeSmall)})

	assert.Equal(t, service.OutcomeFailed, report.Items[0].Outcome)
	assert.ErrorIs(t, report.Items[0].Err, boom)
	assert.Empty(t, sink.calls)
	require.Len(t, report.Bookings, 1)
	assert.False(t, report.Bookings[0].Allocated())

	c, err := inv.Get(1)
	require.NoError(t, err)
	assert.Empty(t, c.Bookings)
}

func TestProcessor_AlreadyAllocatedRecordLeavesInventory(t *testing.T) {
	inv := singleSmallSite(t)
	rec := validRecord(1, "2025-06-03", domain.SizeSmall)
	site := 1
	rec.CampsiteID = &site
	rec.TotalCost = 350

	report := newProcessor(inv, service.ProcessorDeps{Sink: &mockSink{}}).
		Process(context.Background(), []domain.BookingRecord{rec})

	assert.Equal(t, service.OutcomeDuplicate, report.Items[0].Outcome)
	assert.Empty(t, report.Bookings)
	c, err := inv.Get(1)
	require.NoError(t, err)
	assert.Empty(t, c.Bookings)
}

func TestProcessor_PersistenceFailureContained(t *testing.T) {
	boom := errors.New("mongo unavailable")
	sink := &mockSink{}
	sink.insert = func(_ context.Context, b domain.Booking) (bool, error) {
		if b.BookingID == 1 {
			return false, boom
		}
		return true, nil
	}

	report := newProcessor(defaultInventory(t), service.ProcessorDeps{Sink: sink}).Process(context.Background(), []domain.BookingRecord{
		validRecord(1, "2025-06-03", domain.SizeSmall),
		validRecord(2, "2025-06-03", domain.SizeSmall),
	})

	assert.Equal(t, service.OutcomeFailed, report.Items[0].Outcome)
	assert.ErrorIs(t, report.Items[0].Err, boom)
	assert.Zero(t, report.Items[0].SiteNumber, "an unstored booking gives its campsite back")
	assert.Equal(t, service.OutcomeAllocated, report.Items[1].Outcome)
	assert.Equal(t, 1, report.Items[1].SiteNumber)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Bookings, 2)
	assert.False(t, report.Bookings[0].Allocated())
}

func TestProcessor_ConfirmationFailureDoesNotUnwind(t *testing.T) {
	inv := singleSmallSite(t)
	sink := &mockSink{}
	confirmer := &mockConfirmer{confirm: func(context.Context, domain.Booking) (domain.Document, error) {
		return domain.Document{}, errors.New("disk full")
	}}

	report := newProcessor(inv, service.ProcessorDeps{Sink: sink, Confirmer: confirmer}).
		Process(context.Background(), []domain.BookingRecord{validRecord(1, "2025-06-03", domain.SizeSmall)})

	item := report.Items[0]
	assert.Equal(t, service.OutcomeAllocated, item.Outcome)
	assert.EqualError(t, item.ConfirmationErr, "disk full")
	assert.Contains(t, sink.stored, int64(1))
}

func TestProcessor_AssignFailureMarksFailed(t *testing.T) {
	assigner := &mockAssigner{assign: func(context.Context, int64, int64) error {
		return domain.ErrNotFound
	}}

	report := newProcessor(singleSmallSite(t), service.ProcessorDeps{Sink: &mockSink{}, Assigner: assigner}).
		Process(context.Background(), []domain.BookingRecord{validRecord(1, "2025-06-03", domain.SizeSmall)})

	assert.Equal(t, service.OutcomeFailed, report.Items[0].Outcome)
	assert.ErrorIs(t, report.Items[0].Err, domain.ErrNotFound)
	require.Len(t, report.Bookings, 1)
	assert.True(t, report.Bookings[0].Allocated(), "the stored booking keeps its campsite")
}

func TestProcessor_PanicContainedToItem(t *testing.T) {
	sink := &mockSink{}
	sink.insert = func(_ context.Context, b domain.Booking) (bool, error) {
		if b.BookingID == 1 {
			panic("driver bug")
		}
		return true, nil
	}

	report := newProcessor(defaultInventory(t), service.ProcessorDeps{Sink: sink}).Process(context.Background(), []domain.BookingRecord{
		validRecord(1, "2025-06-03", domain.SizeSmall),
		validRecord(2, "2025-06-03", domain.SizeSmall),
	})

	assert.Equal(t, service.OutcomeFailed, report.Items[0].Outcome)
	assert.ErrorContains(t, report.Items[0].Err, "persist")
	assert.ErrorContains(t, report.Items[0].Err, "driver bug")
	assert.Equal(t, service.OutcomeAllocated, report.Items[1].Outcome)
	assert.Equal(t, 1, report.Items[1].SiteNumber, "the interrupted item released its campsite")
}

func TestProcessor_EmptyBatch(t *testing.T) {
	report := newProcessor(singleSmallSite(t), service.ProcessorDeps{Sink: &mockSink{}}).
		Process(context.Background(), nil)

	assert.Zero(t, report.Total())
	assert.Empty(t, report.Bookings)
}

func TestProcessor_CostFormulaForEveryAllocation(t *testing.T) {
	inv := defaultInventory(t)
	var recs []domain.BookingRecord
	for i := range 35 {
		rec := validRecord(int64(i+1), "2025-06-03", domain.SizeSmall)
		rec.NumCampsites = i%3 + 1
		recs = append(recs, rec)
	}

	report := newProcessor(inv, service.ProcessorDeps{Sink: &mockSink{}}).Process(context.Background(), recs)

	assert.Equal(t, 30, report.Allocated)
	assert.Equal(t, 5, report.Unallocated)
	for _, b := range report.Bookings {
		if !b.Allocated() {
			continue
		}
		site, err := inv.Get(*b.CampsiteID)
		require.NoError(t, err)
		assert.Equal(t, site.RatePerNight*7*float64(b.NumCampsites), b.TotalCost, "booking %d", b.BookingID)
	}
}
