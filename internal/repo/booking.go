// Package repo contains the head-office database access for the campsite
// booking system. Each table has its own file with an interface and a
// Postgres implementation. No allocation logic lives here, only SQL and
// type mapping.
package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/campsite-booking/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Integration tests pass a transaction that is rolled back after each test.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// BookingRepo defines the head-office operations on camping.booking.
type BookingRepo interface {
	// ListByCampground returns the bookings recorded against campgroundID,
	// joined with the customer's full name, ordered by booking_id.
	ListByCampground(ctx context.Context, campgroundID int64) ([]domain.BookingRecord, error)

	// AssignCampground moves a booking to campgroundID.
	// Returns domain.ErrNotFound if the booking does not exist.
	AssignCampground(ctx context.Context, bookingID, campgroundID int64) error
}

type pgBookingRepo struct {
	db db
}

// NewBookingRepo constructs a BookingRepo backed by the provided db connection.
func NewBookingRepo(db db) BookingRepo {
	return &pgBookingRepo{db: db}
}

func (r *pgBookingRepo) ListByCampground(ctx context.Context, campgroundID int64) ([]domain.BookingRecord, error) {
	const q = `
		SELECT b.booking_id,
		       b.customer_id,
		       b.booking_date,
		       b.arrival_date,
		       b.campground_id,
		       b.campsite_size,
		       b.num_campsites,
		       CONCAT(c.first_name, ' ', c.last_name) AS customer_name
		FROM camping.booking b
		JOIN camping.customers c ON c.customer_id = b.customer_id
		WHERE b.campground_id = @campground_id
		ORDER BY b.booking_id`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"campground_id": campgroundID})
	if err != nil {
		return nil, fmt.Errorf("repo.BookingRepo.ListByCampground: %w", err)
	}
	defer rows.Close()

	var records []domain.BookingRecord
	for rows.Next() {
		rec, err := scanBookingRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.BookingRepo.ListByCampground: scan: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.BookingRepo.ListByCampground: rows: %w", err)
	}

	return records, nil
}

func (r *pgBookingRepo) AssignCampground(ctx context.Context, bookingID, campgroundID int64) error {
	const q = `
		UPDATE camping.booking
		SET campground_id = @campground_id
		WHERE booking_id = @booking_id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{
		"booking_id":    bookingID,
		"campground_id": campgroundID,
	})
	if err != nil {
		return fmt.Errorf("repo.BookingRepo.AssignCampground: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.BookingRepo.AssignCampground: booking %d: %w", bookingID, domain.ErrNotFound)
	}
	return nil
}

// scanner is satisfied by both pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanBookingRecord maps a head-office row into a raw domain.BookingRecord.
// Dates are rendered as YYYY-MM-DD so validation stays in domain.NewBooking;
// NULL size or count surface there as validation failures.
func scanBookingRecord(s scanner) (domain.BookingRecord, error) {
	var (
		rec          domain.BookingRecord
		bookingDate  pgtype.Date
		arrivalDate  pgtype.Date
		campsiteSize pgtype.Text
		numCampsites pgtype.Int4
	)

	err := s.Scan(
		&rec.BookingID,
		&rec.CustomerID,
		&bookingDate,
		&arrivalDate,
		&rec.CampgroundID,
		&campsiteSize,
		&numCampsites,
		&rec.CustomerName,
	)
	if err != nil {
		return domain.BookingRecord{}, err
	}

	if bookingDate.Valid {
		rec.BookingDate = bookingDate.Time.Format(domain.DateLayout)
	}
	if arrivalDate.Valid {
		rec.ArrivalDate = arrivalDate.Time.Format(domain.DateLayout)
	}
	rec.CampsiteSize = campsiteSize.String
	rec.NumCampsites = int(numCampsites.Int32)

	return rec, nil
}
