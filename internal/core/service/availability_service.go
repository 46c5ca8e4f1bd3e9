package service

import (
	"context"
	"fmt"

	"github.com/swiftkart/dispatch/internal/core/domain"
	"github.com/swiftkart/dispatch/internal/port"
)

const (
	// DefaultCandidateLimit bounds how many geo hits one query inspects.
	DefaultCandidateLimit = 10
	// DefaultMaxRadiusKm is the delivery service radius.
	DefaultMaxRadiusKm = 30.0
)

// AvailabilityService decides which warehouse serves an (item, location)
// query. It holds no state and is safe for concurrent use.
type AvailabilityService struct {
	geo         port.GeoIndex
	cache       port.InventoryCache
	candidates  int
	maxRadiusKm float64
}

func NewAvailabilityService(geo port.GeoIndex, cache port.InventoryCache) *AvailabilityService {
	return &AvailabilityService{
		geo:         geo,
		cache:       cache,
		candidates:  DefaultCandidateLimit,
		maxRadiusKm: DefaultMaxRadiusKm,
	}
}

// Resolve returns the nearest in-range warehouse with positive cached stock.
// A geo index failure degrades to an unavailable answer rather than an
// error; a cache failure fails the whole query, since treating it as zero
// stock would turn an outage into false "sold out" answers.
func (s *AvailabilityService) Resolve(ctx context.Context, itemID string, lat, lon float64) (domain.Availability, error) {
	hits, err := s.geo.Nearest(ctx, lat, lon, s.candidates)
	if err != nil {
		return domain.Availability{Reason: domain.ReasonSearchFailed}, nil
	}

	inRange := false
	for _, hit := range hits {
		// Hits arrive sorted ascending, so the first one past the radius
		// means every later one is past it too. Stop here.
		if hit.DistanceKm > s.maxRadiusKm {
			break
		}
		inRange = true

		qty, ok, err := s.cache.GetStock(ctx, hit.ID, itemID)
		if err != nil {
			return domain.Availability{}, fmt.Errorf("stock lookup at %s: %w", hit.ID, err)
		}
		if ok && qty > 0 {
			// Nearest stocked warehouse wins; no point looking further out.
			return domain.Availability{
				Available:   true,
				WarehouseID: hit.ID,
				DistanceKm:  hit.DistanceKm,
				Quantity:    qty,
			}, nil
		}
	}

	reason := domain.ReasonOutOfRange
	if inRange {
		reason = domain.ReasonNoStockInRange
	}
	return domain.Availability{Reason: reason}, nil
}
