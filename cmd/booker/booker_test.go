package main

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/campsite-booking/internal/domain"
	"github.com/pkordes/campsite-booking/internal/service"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCampsitesCmd_Table(t *testing.T) {
	out, err := execute(t, "campsites", "--env-file", "")

	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 31, "header plus 30 sites")
	assert.Contains(t, lines[0], "SITE")
	assert.Contains(t, lines[1], "Small")
	assert.Contains(t, lines[1], "$350.00")
	assert.Contains(t, lines[30], "Large")
}

func TestCampsitesCmd_JSON(t *testing.T) {
	out, err := execute(t, "campsites", "--json")

	require.NoError(t, err)
	var rows []campsiteRow
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 30)
	assert.Equal(t, campsiteRow{SiteNumber: 11, Size: "Medium", RatePerNight: 60}, rows[10])
}

func TestMigrateCmd_RejectsUnknownAction(t *testing.T) {
	_, err := execute(t, "migrate", "sideways")

	assert.Error(t, err)
}

func TestMigrateCmd_LocalNeedsLocalURL(t *testing.T) {
	t.Setenv("LOCAL_DATABASE_URL", "")
	require.NoError(t, os.Unsetenv("LOCAL_DATABASE_URL"))
	t.Setenv("DATABASE_URL", "postgres://head/office")

	_, err := execute(t, "migrate", "status", "--local", "--env-file", "")

	assert.ErrorContains(t, err, "LOCAL_DATABASE_URL")
}

func arrivingBooking(t *testing.T, id int64, arrival string, site int) domain.Booking {
	t.Helper()
	b, err := domain.NewBooking(domain.BookingRecord{
		BookingID:    id,
		CustomerID:   1,
		BookingDate:  "2025-05-01",
		ArrivalDate:  arrival,
		CampsiteSize: "Small",
		NumCampsites: 1,
	})
	require.NoError(t, err)
	if site > 0 {
		stay := domain.Stay{Start: b.ArrivalDate, End: b.ArrivalDate.AddDate(0, 0, domain.StayNights)}
		require.NoError(t, b.ApplyAllocation(site, 50, stay))
	}
	return b
}

func TestArrivingToday(t *testing.T) {
	now := time.Date(2025, 6, 7, 9, 30, 0, 0, time.UTC)
	bookings := []domain.Booking{
		arrivingBooking(t, 1, "2025-06-07", 1),
		arrivingBooking(t, 2, "2025-06-07", 0),
		arrivingBooking(t, 3, "2025-06-08", 2),
	}

	assert.Equal(t, []int64{1}, arrivingToday(bookings, now), "only allocated bookings arriving today")
	assert.Empty(t, arrivingToday(nil, now))
}

func TestPrintRun(t *testing.T) {
	var buf bytes.Buffer
	report := service.ProcessingReport{
		Items:       make([]service.ItemResult, 3),
		Bookings:    []domain.Booking{arrivingBooking(t, 4, "2025-06-01", 1)},
		Allocated:   2,
		Unallocated: 1,
	}
	summary := domain.Summary{
		CampgroundID:  1159010,
		TotalSales:    840,
		TotalBookings: 2,
		Utilization: map[int]domain.SiteUtilization{
			21: {Size: domain.SizeLarge, RatePerNight: 70, BookingsCount: 1},
			1:  {Size: domain.SizeSmall, RatePerNight: 50, BookingsCount: 1},
		},
	}

	require.NoError(t, printRun(&buf, report, summary, time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)))

	out := buf.String()
	assert.Contains(t, out, "Arriving today: [4]")
	assert.Contains(t, out, "Processed 3 booking(s): 2 allocated, 0 duplicate, 1 unallocated")
	assert.Contains(t, out, "total sales $840.00 over 2 booking(s)")
	assert.Less(t, strings.Index(out, "\n1 "), strings.Index(out, "\n21 "), "sites are listed in order")
}
