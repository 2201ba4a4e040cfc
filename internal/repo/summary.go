package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pkordes/campsite-booking/internal/domain"
)

// SummaryRepo stores campground summaries in camping.summary.
type SummaryRepo interface {
	// Create inserts the summary and returns the generated summary_id.
	Create(ctx context.Context, s domain.Summary) (int64, error)
}

type pgSummaryRepo struct {
	db db
}

// NewSummaryRepo constructs a SummaryRepo backed by the provided db connection.
func NewSummaryRepo(db db) SummaryRepo {
	return &pgSummaryRepo{db: db}
}

func (r *pgSummaryRepo) Create(ctx context.Context, s domain.Summary) (int64, error) {
	if err := s.Validate(); err != nil {
		return 0, fmt.Errorf("repo.SummaryRepo.Create: %w", err)
	}

	const q = `
		INSERT INTO camping.summary (campground_id, summary_date, total_sales, total_bookings)
		VALUES (@campground_id, @summary_date, @total_sales, @total_bookings)
		RETURNING summary_id`

	args := pgx.NamedArgs{
		"campground_id":  s.CampgroundID,
		"summary_date":   s.SummaryDate,
		"total_sales":    s.TotalSales,
		"total_bookings": s.TotalBookings,
	}

	var id int64
	if err := r.db.QueryRow(ctx, q, args).Scan(&id); err != nil {
		return 0, fmt.Errorf("repo.SummaryRepo.Create: %w", err)
	}
	return id, nil
}
