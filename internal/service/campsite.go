package service

import (
	"context"
	"fmt"

	"github.com/pkordes/campsite-booking/internal/domain"
)

// CampsiteService is the administrative view of the inventory. It is not
// part of allocation.
type CampsiteService struct {
	inventory *domain.Inventory
}

// NewCampsiteService constructs a CampsiteService over inventory.
func NewCampsiteService(inventory *domain.Inventory) *CampsiteService {
	return &CampsiteService{inventory: inventory}
}

// List returns every campsite in scan order with its committed stays.
func (s *CampsiteService) List(_ context.Context) []domain.Campsite {
	return s.inventory.Campsites()
}

// Add registers a new campsite at the end of the scan order.
func (s *CampsiteService) Add(_ context.Context, c domain.Campsite) (domain.Campsite, error) {
	size, err := domain.ParseSize(string(c.Size))
	if err != nil {
		return domain.Campsite{}, fmt.Errorf("service.CampsiteService.Add: %w", err)
	}
	if c.SiteNumber <= 0 {
		return domain.Campsite{}, fmt.Errorf("service.CampsiteService.Add: %w: site number must be positive", domain.ErrValidation)
	}
	if err := s.inventory.Add(c.SiteNumber, size, c.RatePerNight); err != nil {
		return domain.Campsite{}, fmt.Errorf("service.CampsiteService.Add: %w", err)
	}
	return s.inventory.Get(c.SiteNumber)
}

// Remove drops a campsite. Returns domain.ErrNotFound if it does not exist.
func (s *CampsiteService) Remove(_ context.Context, siteNumber int) error {
	if err := s.inventory.Remove(siteNumber); err != nil {
		return fmt.Errorf("service.CampsiteService.Remove: %w", err)
	}
	return nil
}
