// Package document renders booking confirmations and summary reports as
// PDFs, writes them under the configured directory and hands them to the
// document store.
package document

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/pkordes/campsite-booking/internal/domain"
)

// Store receives every generated document.
type Store interface {
	Upsert(ctx context.Context, doc domain.Document) error
}

// Generator produces PDF documents. A nil Store skips the upload; the file
// is still written.
type Generator struct {
	dir   string
	store Store
	now   func() time.Time
	log   *slog.Logger
}

// NewGenerator constructs a Generator writing into dir.
func NewGenerator(dir string, store Store, log *slog.Logger) *Generator {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Generator{dir: dir, store: store, now: time.Now, log: log}
}

// Confirmation renders confirmation_<booking_id>.pdf for an allocated
// booking.
func (g *Generator) Confirmation(ctx context.Context, b domain.Booking) (domain.Document, error) {
	if !b.Allocated() {
		return domain.Document{}, fmt.Errorf("document.Generator.Confirmation: %w: booking %d has no campsite", domain.ErrValidation, b.BookingID)
	}

	p := newPage("Booking Confirmation")
	p.line("Booking Confirmation", b.CustomerName)
	p.line("Booking ID", strconv.FormatInt(b.BookingID, 10))
	p.line("Customer", b.CustomerName)
	p.line("Arrival Date", b.ArrivalDate.Format(domain.DateLayout))
	if b.Stay != nil {
		p.line("Check-in", b.Stay.Start.Format(domain.DateLayout))
		p.line("Check-out", b.Stay.End.Format(domain.DateLayout))
	}
	p.line("Campsite", strconv.Itoa(*b.CampsiteID))
	p.line("Campsite Size", string(b.CampsiteSize))
	p.line("Total Sites Booked", strconv.Itoa(b.NumCampsites))
	p.line("Total Cost", currency(b.TotalCost))

	doc, err := g.publish(ctx, p, strconv.FormatInt(b.BookingID, 10), b.ConfirmationFilename())
	if err != nil {
		return domain.Document{}, fmt.Errorf("document.Generator.Confirmation: booking %d: %w", b.BookingID, err)
	}
	return doc, nil
}

// Summary renders summary_<campground>_<date>.pdf with the totals and the
// per-site utilization table.
func (g *Generator) Summary(ctx context.Context, s domain.Summary) (domain.Document, error) {
	if err := s.Validate(); err != nil {
		return domain.Document{}, fmt.Errorf("document.Generator.Summary: %w", err)
	}

	p := newPage("Daily Summary Report")
	p.line("Campground ID", strconv.FormatInt(s.CampgroundID, 10))
	p.line("Summary Date", s.SummaryDate.Format(domain.DateLayout))
	p.line("Total Sales", currency(s.TotalSales))
	p.line("Total Bookings", strconv.Itoa(s.TotalBookings))
	p.line("Failed Allocations", strconv.Itoa(s.FailedAllocations))
	p.utilization(s.Utilization)

	doc, err := g.publish(ctx, p, s.Key(), "summary_"+s.Key()+".pdf")
	if err != nil {
		return domain.Document{}, fmt.Errorf("document.Generator.Summary: %s: %w", s.Key(), err)
	}
	return doc, nil
}

func (g *Generator) publish(ctx context.Context, p *page, key, filename string) (domain.Document, error) {
	now := g.now()
	p.pdf.SetCreationDate(now)

	var buf bytes.Buffer
	if err := p.pdf.Output(&buf); err != nil {
		return domain.Document{}, fmt.Errorf("render: %w", err)
	}

	if err := os.MkdirAll(g.dir, 0o755); err != nil {
		return domain.Document{}, fmt.Errorf("create dir: %w", err)
	}
	path := filepath.Join(g.dir, filename)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return domain.Document{}, fmt.Errorf("write %s: %w", path, err)
	}
	g.log.InfoContext(ctx, "document saved", "path", path, "bytes", buf.Len())

	doc := domain.Document{Key: key, Filename: filename, Path: path, Data: buf.Bytes(), CreatedAt: now}
	if g.store != nil {
		if err := g.store.Upsert(ctx, doc); err != nil {
			return doc, fmt.Errorf("upload: %w", err)
		}
	}
	return doc, nil
}

// page is one A4 page with a centred title header and a page-number footer.
type page struct {
	pdf *fpdf.Fpdf
}

func newPage(title string) *page {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.SetAutoPageBreak(true, 15)
	pdf.SetHeaderFunc(func() {
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(0, 10, title, "", 1, "C", false, 0, "")
	})
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Arial", "I", 8)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()
	pdf.SetFont("Arial", "", 11)
	return &page{pdf: pdf}
}

func (p *page) line(label, value string) {
	p.pdf.CellFormat(0, 10, label+": "+value, "", 1, "L", false, 0, "")
}

func (p *page) utilization(u map[int]domain.SiteUtilization) {
	if len(u) == 0 {
		return
	}
	sites := make([]int, 0, len(u))
	for site := range u {
		sites = append(sites, site)
	}
	sort.Ints(sites)

	p.pdf.Ln(4)
	p.pdf.SetFont("Arial", "B", 10)
	for _, h := range []string{"Site", "Size", "Rate/Night", "Bookings"} {
		p.pdf.CellFormat(40, 8, h, "1", 0, "C", false, 0, "")
	}
	p.pdf.Ln(-1)

	p.pdf.SetFont("Arial", "", 10)
	for _, site := range sites {
		row := u[site]
		p.pdf.CellFormat(40, 7, strconv.Itoa(site), "1", 0, "C", false, 0, "")
		p.pdf.CellFormat(40, 7, string(row.Size), "1", 0, "C", false, 0, "")
		p.pdf.CellFormat(40, 7, currency(row.RatePerNight), "1", 0, "R", false, 0, "")
		p.pdf.CellFormat(40, 7, strconv.Itoa(row.BookingsCount), "1", 0, "R", false, 0, "")
		p.pdf.Ln(-1)
	}
}

func currency(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}
