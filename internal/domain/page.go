package domain

// PaginationParams carries page/limit values from the HTTP layer down to the
// document store. Page is 1-indexed.
type PaginationParams struct {
	Page  int
	Limit int
}

// NewPaginationParams builds a PaginationParams from optional query values.
// Missing or non-positive values fall back to page=1, limit=20, and the
// limit is capped at 100.
func NewPaginationParams(page, limit *int) PaginationParams {
	p := PaginationParams{Page: 1, Limit: 20}
	if page != nil && *page >= 1 {
		p.Page = *page
	}
	if limit != nil && *limit >= 1 {
		p.Limit = min(*limit, 100)
	}
	return p
}

// Offset returns the number of items to skip before the current page.
func (p PaginationParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

// BookingPage is one page of stored bookings plus the total count.
type BookingPage struct {
	Bookings []Booking
	Total    int64
	Params   PaginationParams
}
